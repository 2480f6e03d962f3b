package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/pscheid92/classpoll/internal/domain"
)

// Inbound events.
const (
	EventCreatePoll   = "createPoll"
	EventSubmitAnswer = "submitAnswer"
	EventJoinChat     = "joinChat"
	EventKickOut      = "kickOut"
	EventStudentLogin = "studentLogin"
	EventChatMessage  = "chatMessage"
)

// Outbound events.
const (
	EventPollCreated        = "pollCreated"
	EventPollResults        = "pollResults"
	EventParticipantsUpdate = "participantsUpdate"
	EventKickedOut          = "kickedOut"
	EventLoginSuccess       = "loginSuccess"
	EventError              = "error"
)

const (
	KickedOutMessage    = "You have been kicked out."
	LoginSuccessMessage = "Login successful"
)

type CreatePoll struct {
	Question        string          `json:"question"`
	Options         []domain.Option `json:"options"`
	Timer           int             `json:"timer"`
	TeacherUsername string          `json:"teacherUsername"`
}

func (c CreatePoll) Draft() domain.PollDraft {
	return domain.PollDraft{
		Question:        c.Question,
		Options:         c.Options,
		TimerSeconds:    c.Timer,
		TeacherUsername: c.TeacherUsername,
	}
}

type PollOption struct {
	ID      domain.OptionID `json:"id"`
	Text    string          `json:"text"`
	Correct *bool           `json:"correct,omitempty"`
}

type PollCreated struct {
	ID              string       `json:"_id"`
	Question        string       `json:"question"`
	Options         []PollOption `json:"options"`
	Timer           int          `json:"timer"`
	TeacherUsername string       `json:"teacherUsername"`
}

// NewPollCreated builds the poll view. With revealCorrect false the
// options' correct flags are omitted entirely.
func NewPollCreated(p *domain.Poll, revealCorrect bool) PollCreated {
	options := make([]PollOption, len(p.Options))
	for i, o := range p.Options {
		options[i] = PollOption{ID: o.ID, Text: o.Text}
		if revealCorrect {
			correct := o.Correct
			options[i].Correct = &correct
		}
	}
	return PollCreated{
		ID:              p.ID,
		Question:        p.Question,
		Options:         options,
		Timer:           p.TimerSeconds,
		TeacherUsername: p.TeacherUsername,
	}
}

type SubmitAnswer struct {
	PollID string          `json:"pollId"`
	Option domain.OptionID `json:"option"`
}

type JoinChat struct {
	Username string `json:"username"`
}

// KickOut accepts {"username": "..."} or a bare JSON string.
type KickOut struct {
	Username string `json:"username"`
}

func (k *KickOut) UnmarshalJSON(data []byte) error {
	name, err := nameOrObject(data, "username")
	if err != nil {
		return err
	}
	k.Username = name
	return nil
}

// StudentLogin accepts {"name": "..."} or a bare JSON string.
type StudentLogin struct {
	Name string `json:"name"`
}

func (s *StudentLogin) UnmarshalJSON(data []byte) error {
	name, err := nameOrObject(data, "name")
	if err != nil {
		return err
	}
	s.Name = name
	return nil
}

type LoginSuccess struct {
	Message string `json:"message"`
	Name    string `json:"name"`
}

type KickedOut struct {
	Message string `json:"message"`
}

type Error struct {
	Message string `json:"message"`
}

func nameOrObject(data []byte, field string) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", err
		}
		return s, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return "", fmt.Errorf("expected string or object with %q: %w", field, err)
	}
	raw, ok := obj[field]
	if !ok {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%s must be a string: %w", field, err)
	}
	return s, nil
}
