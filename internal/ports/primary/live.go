package primary

import (
	"context"
	"time"
)

// LiveService defines the primary port for live locations and chat.
type LiveService interface {
	// Watch subscribes to an operation's location and chat streams until stop
	// is called or ctx is done. Watching an operation twice is a no-op.
	Watch(ctx context.Context, operationID string) (stop func() error, err error)

	// Changes returns a channel of change notifications and a cancel function.
	Changes() (<-chan Change, func())

	// Trails returns the current trail of every member of an operation.
	Trails(operationID string) map[string][]LocationPoint

	// Chat returns the deduplicated chat log of an operation in arrival order.
	Chat(operationID string) []ChatMessage

	// PublishLocation publishes the actor's location.
	PublishLocation(ctx context.Context, req PublishLocationRequest) (*LocationPoint, error)

	// SendChat publishes a chat message from the actor.
	SendChat(ctx context.Context, operationID, body string) (*ChatMessage, error)
}

// ChangeKind names what changed.
type ChangeKind string

const (
	ChangeTrail ChangeKind = "trail"
	ChangeChat  ChangeKind = "chat"
)

// Change is an explicit change notification for presentation layers.
type Change struct {
	Kind        ChangeKind
	OperationID string
	SubjectID   string // user id for trails, message id for chat
}

// LocationPoint is one location sample.
type LocationPoint struct {
	ID          string
	UserID      string
	OperationID string
	Timestamp   time.Time
	Lat         float64
	Lng         float64
	Accuracy    float64
	Speed       *float64
	Heading     *float64
}

// PublishLocationRequest contains a location sample from the actor.
type PublishLocationRequest struct {
	OperationID string
	Lat         float64
	Lng         float64
	Accuracy    float64
	Speed       *float64
	Heading     *float64
}

// ChatMessage is one chat message.
type ChatMessage struct {
	ID          string
	OperationID string
	SenderID    string
	Body        string
	SentAt      time.Time
}
