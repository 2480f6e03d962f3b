package gateway

import (
	"context"

	"github.com/pscheid92/classpoll/internal/protocol"

	apperrors "github.com/pscheid92/classpoll/internal/platform/errors"
)

type handlerFunc func(ctx context.Context, s *session, env protocol.Envelope) error

func (g *Gateway) routes() map[string]handlerFunc {
	return map[string]handlerFunc{
		protocol.EventCreatePoll:   g.handleCreatePoll,
		protocol.EventSubmitAnswer: g.handleSubmitAnswer,
		protocol.EventJoinChat:     g.handleJoinChat,
		protocol.EventKickOut:      g.handleKickOut,
		protocol.EventStudentLogin: g.handleStudentLogin,
		protocol.EventChatMessage:  g.handleChatMessage,
	}
}

func decodePayload[T any](env protocol.Envelope) (T, error) {
	v, err := protocol.DecodeData[T](env)
	if err != nil {
		return v, apperrors.ValidationError(err.Error())
	}
	return v, nil
}

func (g *Gateway) handleCreatePoll(ctx context.Context, s *session, env protocol.Envelope) error {
	req, err := decodePayload[protocol.CreatePoll](env)
	if err != nil {
		return err
	}
	_, err = g.coordinator.CreatePoll(ctx, s.id, req.Draft())
	return err
}

func (g *Gateway) handleSubmitAnswer(ctx context.Context, _ *session, env protocol.Envelope) error {
	req, err := decodePayload[protocol.SubmitAnswer](env)
	if err != nil {
		return err
	}
	return g.coordinator.SubmitAnswer(ctx, req.PollID, req.Option)
}

func (g *Gateway) handleJoinChat(ctx context.Context, s *session, env protocol.Envelope) error {
	req, err := decodePayload[protocol.JoinChat](env)
	if err != nil {
		return err
	}
	if err := g.coordinator.Join(ctx, s.id, req.Username); err != nil {
		return err
	}
	s.state = stateIdentified
	return nil
}

func (g *Gateway) handleKickOut(ctx context.Context, _ *session, env protocol.Envelope) error {
	req, err := decodePayload[protocol.KickOut](env)
	if err != nil {
		return err
	}
	g.coordinator.Kick(ctx, req.Username)
	return nil
}

func (g *Gateway) handleStudentLogin(ctx context.Context, s *session, env protocol.Envelope) error {
	req, err := decodePayload[protocol.StudentLogin](env)
	if err != nil {
		return err
	}
	return g.coordinator.StudentLogin(ctx, s.id, req.Name)
}

func (g *Gateway) handleChatMessage(ctx context.Context, _ *session, env protocol.Envelope) error {
	g.coordinator.RelayChat(ctx, env.Data)
	return nil
}
