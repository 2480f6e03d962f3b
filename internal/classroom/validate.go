package classroom

import (
	"fmt"
	"strings"

	"github.com/pscheid92/classpoll/internal/domain"
	apperrors "github.com/pscheid92/classpoll/internal/platform/errors"
)

const minOptions = 2

func validateDraft(d domain.PollDraft) error {
	if strings.TrimSpace(d.Question) == "" {
		return apperrors.ValidationError("question is required")
	}
	if len(d.Options) < minOptions {
		return apperrors.ValidationError(fmt.Sprintf("a poll needs at least %d options", minOptions))
	}

	seen := make(map[domain.OptionID]struct{}, len(d.Options))
	for i, o := range d.Options {
		if o.ID == "" {
			return apperrors.ValidationError(fmt.Sprintf("option %d: id is required", i+1))
		}
		if strings.TrimSpace(o.Text) == "" {
			return apperrors.ValidationError(fmt.Sprintf("option %d: text is required", i+1))
		}
		if _, dup := seen[o.ID]; dup {
			return apperrors.ValidationError(fmt.Sprintf("duplicate option id %q", o.ID))
		}
		seen[o.ID] = struct{}{}
	}

	if d.TimerSeconds < 0 {
		return apperrors.ValidationError("timer must not be negative")
	}
	if strings.TrimSpace(d.TeacherUsername) == "" {
		return apperrors.ValidationError("teacherUsername is required")
	}
	return nil
}

func requireName(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperrors.ValidationError(field + " is required")
	}
	return nil
}
