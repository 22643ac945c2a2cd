package secondary

import (
	"context"
	"time"
)

// EventBus defines the secondary port for real-time location and chat delivery.
// Delivery is at-least-once; consumers must tolerate duplicates.
type EventBus interface {
	// SubscribeLocations delivers location events for an operation until the
	// subscription is closed or ctx is done.
	SubscribeLocations(ctx context.Context, operationID string, onPoint func(LocationEvent)) (Subscription, error)

	// SubscribeChat delivers chat messages for an operation.
	SubscribeChat(ctx context.Context, operationID string, onMessage func(ChatEvent)) (Subscription, error)

	// PublishLocation sends a location sample to the operation's subscribers.
	PublishLocation(ctx context.Context, event LocationEvent) error

	// PublishChat sends a chat message to the operation's subscribers.
	PublishChat(ctx context.Context, event ChatEvent) error
}

// Subscription is a live event bus subscription.
type Subscription interface {
	// Unsubscribe stops delivery and waits for the delivery goroutine to exit.
	Unsubscribe() error
}

// LocationEvent is a location sample as carried on the bus.
type LocationEvent struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	OperationID string    `json:"operation_id"`
	Timestamp   time.Time `json:"timestamp"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	Accuracy    float64   `json:"accuracy"`
	Speed       *float64  `json:"speed,omitempty"`
	Heading     *float64  `json:"heading,omitempty"`
}

// ChatEvent is a chat message as carried on the bus.
type ChatEvent struct {
	ID          string    `json:"id"`
	OperationID string    `json:"operation_id"`
	SenderID    string    `json:"sender_id"`
	Body        string    `json:"body"`
	SentAt      time.Time `json:"sent_at"`
}

// RouteOracle defines the secondary port for distance/ETA computation.
type RouteOracle interface {
	// GetRoute returns the route for an assignment, or nil if none is computed yet.
	GetRoute(ctx context.Context, assignmentID string) (*RouteInfo, error)
}

// RouteInfo is a computed route. It is display data, never persisted.
type RouteInfo struct {
	AssignmentID   string
	DistanceMeters float64
	ExpectedTravel time.Duration
	Polyline       []Coordinate
	Steps          []RouteStep
	ComputedAt     time.Time
}

// Coordinate is a latitude/longitude pair.
type Coordinate struct {
	Lat float64
	Lng float64
}

// RouteStep is one instruction of a route.
type RouteStep struct {
	Instruction    string
	DistanceMeters float64
}
