package messaging

import (
	"context"
	"net/url"

	"github.com/carelink/portal/internal/platform/upstream"
)

// Client is the canonical communication client: conversations, messages,
// notifications, and unread counts.
type Client struct {
	api *upstream.Client
}

func NewClient(api *upstream.Client) *Client {
	return &Client{api: api}
}

func (c *Client) Conversations(ctx context.Context, params url.Values) ([]byte, error) {
	return c.api.Get(ctx, upstream.Path("communication", "conversations"), upstream.Options{
		Op:     "list conversations",
		Params: params,
	})
}

func (c *Client) Conversation(ctx context.Context, id string) ([]byte, error) {
	return c.api.Get(ctx, upstream.Path("communication", "conversations", id), upstream.Options{
		Op: "get conversation",
	})
}

func (c *Client) Messages(ctx context.Context, conversationID string, params url.Values) ([]byte, error) {
	return c.api.Get(ctx, upstream.Path("communication", "conversations", conversationID, "messages"), upstream.Options{
		Op:     "list messages",
		Params: params,
	})
}

// SendMessage posts a message and decodes the created record so the caller
// can address the real-time push to its recipients.
func (c *Client) SendMessage(ctx context.Context, conversationID string, req SendRequest) (*Message, []byte, error) {
	var msg Message
	raw, err := c.api.Post(ctx, upstream.Path("communication", "conversations", conversationID, "messages"), upstream.Options{
		Op:   "send message",
		Body: req,
		Out:  &msg,
	})
	if err != nil {
		return nil, nil, err
	}
	return &msg, raw, nil
}

func (c *Client) MarkRead(ctx context.Context, conversationID string) ([]byte, error) {
	return c.api.Post(ctx, upstream.Path("communication", "conversations", conversationID, "read"), upstream.Options{
		Op: "mark conversation read",
	})
}

func (c *Client) Notifications(ctx context.Context, params url.Values) ([]byte, error) {
	return c.api.Get(ctx, upstream.Path("communication", "notifications"), upstream.Options{
		Op:     "list notifications",
		Params: params,
	})
}

func (c *Client) UnreadCounts(ctx context.Context) (*UnreadCounts, error) {
	var counts UnreadCounts
	_, err := c.api.Get(ctx, upstream.Path("communication", "unread"), upstream.Options{
		Op:  "fetch unread counts",
		Out: &counts,
	})
	if err != nil {
		return nil, err
	}
	return &counts, nil
}
