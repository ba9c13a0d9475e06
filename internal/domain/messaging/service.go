package messaging

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/carelink/portal/internal/platform/push"
)

// Service forwards messaging operations upstream and pushes real-time events
// to connected recipients after successful sends.
type Service struct {
	client *Client
	hub    *push.Hub
}

func NewService(client *Client, hub *push.Hub) *Service {
	return &Service{client: client, hub: hub}
}

func (s *Service) Conversations(ctx context.Context, params url.Values) ([]byte, error) {
	return s.client.Conversations(ctx, params)
}

func (s *Service) Conversation(ctx context.Context, id string) ([]byte, error) {
	return s.client.Conversation(ctx, id)
}

func (s *Service) Messages(ctx context.Context, conversationID string, params url.Values) ([]byte, error) {
	return s.client.Messages(ctx, conversationID, params)
}

// SendMessage forwards the message upstream, then pushes it to every
// recipient with a live connection. Push failures are invisible here: the
// hub drops events for disconnected users, who will see the message on their
// next fetch anyway.
func (s *Service) SendMessage(ctx context.Context, conversationID string, req SendRequest) ([]byte, error) {
	msg, raw, err := s.client.SendMessage(ctx, conversationID, req)
	if err != nil {
		return nil, err
	}
	for _, recipient := range msg.RecipientIDs {
		s.hub.Notify(push.Event{
			Type:   push.EventMessage,
			UserID: recipient,
			Data:   json.RawMessage(raw),
		})
	}
	return raw, nil
}

func (s *Service) MarkRead(ctx context.Context, conversationID string) ([]byte, error) {
	return s.client.MarkRead(ctx, conversationID)
}

func (s *Service) Notifications(ctx context.Context, params url.Values) ([]byte, error) {
	return s.client.Notifications(ctx, params)
}

func (s *Service) UnreadCounts(ctx context.Context) (*UnreadCounts, error) {
	return s.client.UnreadCounts(ctx)
}
