package domain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// OptionID is the caller-assigned identifier of an option, unique within its poll.
// Clients may send it as a JSON string or number; it is always carried as a string.
type OptionID string

func (id *OptionID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("option id: %w", err)
		}
		*id = OptionID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("option id must be a string or number: %w", err)
	}
	*id = OptionID(n.String())
	return nil
}

type Option struct {
	ID      OptionID `json:"id"`
	Text    string   `json:"text"`
	Correct bool     `json:"correct"`
}

// Poll is immutable once created. Its ID is assigned by the PollStore.
type Poll struct {
	ID              string    `json:"_id"`
	Question        string    `json:"question"`
	Options         []Option  `json:"options"`
	TimerSeconds    int       `json:"timer"`
	TeacherUsername string    `json:"teacherUsername"`
	CreatedAt       time.Time `json:"createdAt"`
}

func (p *Poll) HasOption(id OptionID) bool {
	for _, o := range p.Options {
		if o.ID == id {
			return true
		}
	}
	return false
}

// PollDraft is a creation request before the store has assigned an identity.
type PollDraft struct {
	Question        string
	Options         []Option
	TimerSeconds    int
	TeacherUsername string
}

// TallySnapshot maps option IDs to their vote count for the current poll.
// Options nobody voted for yet are absent.
type TallySnapshot map[OptionID]int

type PollStore interface {
	CreatePoll(ctx context.Context, draft PollDraft) (*Poll, error)
	RecordVote(ctx context.Context, pollID string, optionID OptionID) error
	ListPollsByTeacher(ctx context.Context, teacherUsername string) ([]Poll, error)
}
