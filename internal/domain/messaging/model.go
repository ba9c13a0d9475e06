package messaging

import "time"

// Conversation mirrors the backend conversation resource.
type Conversation struct {
	ID             string    `json:"id"`
	Subject        string    `json:"subject"`
	ParticipantIDs []string  `json:"participant_ids"`
	UnreadCount    int       `json:"unread_count"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Message is one message within a conversation.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	RecipientIDs   []string  `json:"recipient_ids"`
	Body           string    `json:"body"`
	Read           bool      `json:"read"`
	SentAt         time.Time `json:"sent_at"`
}

// SendRequest is the body for sending a message.
type SendRequest struct {
	Body string `json:"body"`
}

// Notification is one item in a user's notification feed.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// UnreadCounts summarizes what the header badge renders.
type UnreadCounts struct {
	Messages      int `json:"messages"`
	Notifications int `json:"notifications"`
}
