package httpserver

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	apperrors "github.com/pscheid92/classpoll/internal/platform/errors"
)

const contextKeyTeacher = "teacher"

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) registerAuthRoutes() {
	limiter := newLoginRateLimiter(s.config.LoginRateLimit, s.config.LoginRateBurst)
	s.echo.POST("/teacher-login", s.handleTeacherLogin, limiter)
	s.echo.POST("/teacher-logout", s.handleTeacherLogout)
}

func (s *Server) handleTeacherLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid login request")
	}

	session, err := s.auth.TeacherLogin(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}
	c.Set(contextKeyTeacher, session.Username)

	if err := c.JSON(http.StatusOK, session); err != nil {
		return fmt.Errorf("failed to write login response: %w", err)
	}
	return nil
}

func (s *Server) handleTeacherLogout(c echo.Context) error {
	token := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	if err := s.auth.TeacherLogout(c.Request().Context(), token); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
