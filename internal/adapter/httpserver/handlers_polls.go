package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *Server) registerPollRoutes() {
	s.echo.GET("/polls/:teacherUsername", s.handleListPolls)
}

func (s *Server) handleListPolls(c echo.Context) error {
	polls, err := s.polls.ListPollsByTeacher(c.Request().Context(), c.Param("teacherUsername"))
	if err != nil {
		return err
	}

	if err := c.JSON(http.StatusOK, map[string]any{"data": polls}); err != nil {
		return fmt.Errorf("failed to write polls response: %w", err)
	}
	return nil
}
