package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/example/stakeout/internal/ports/secondary"
)

// WebSocketBus implements the EventBus port against a Hub. Each subscription
// holds its own connection; publishes share one cached connection per stream.
type WebSocketBus struct {
	baseURL string
	dialer  *websocket.Dialer
	logger  *zap.Logger

	mu         sync.Mutex
	publishers map[string]*publisher
	closed     bool
}

type publisher struct {
	mu   sync.Mutex
	conn *websocket.Conn
	done chan struct{}
}

type subscription struct {
	conn *websocket.Conn
	done chan struct{}
	once sync.Once
}

// NewWebSocketBus creates a bus client for a hub at baseURL (ws:// or wss://).
func NewWebSocketBus(baseURL string, logger *zap.Logger) (*WebSocketBus, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid bus url %q: %w", baseURL, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("invalid bus url %q: unsupported scheme %q", baseURL, u.Scheme)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSocketBus{
		baseURL: strings.TrimSuffix(u.String(), "/"),
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		logger:     logger,
		publishers: make(map[string]*publisher),
	}, nil
}

// SubscribeLocations delivers location events for an operation.
func (b *WebSocketBus) SubscribeLocations(ctx context.Context, operationID string, onPoint func(secondary.LocationEvent)) (secondary.Subscription, error) {
	return b.subscribe(ctx, operationID, StreamLocations, func(data []byte) {
		var event secondary.LocationEvent
		if err := json.Unmarshal(data, &event); err != nil {
			b.logger.Debug("skipping malformed location frame", zap.Error(err))
			return
		}
		if event.OperationID != "" && event.OperationID != operationID {
			return
		}
		event.OperationID = operationID
		onPoint(event)
	})
}

// SubscribeChat delivers chat messages for an operation.
func (b *WebSocketBus) SubscribeChat(ctx context.Context, operationID string, onMessage func(secondary.ChatEvent)) (secondary.Subscription, error) {
	return b.subscribe(ctx, operationID, StreamChat, func(data []byte) {
		var event secondary.ChatEvent
		if err := json.Unmarshal(data, &event); err != nil {
			b.logger.Debug("skipping malformed chat frame", zap.Error(err))
			return
		}
		if event.OperationID != "" && event.OperationID != operationID {
			return
		}
		event.OperationID = operationID
		onMessage(event)
	})
}

// PublishLocation sends a location sample to the operation's subscribers.
func (b *WebSocketBus) PublishLocation(ctx context.Context, event secondary.LocationEvent) error {
	return b.publish(ctx, event.OperationID, StreamLocations, event)
}

// PublishChat sends a chat message to the operation's subscribers.
func (b *WebSocketBus) PublishChat(ctx context.Context, event secondary.ChatEvent) error {
	return b.publish(ctx, event.OperationID, StreamChat, event)
}

// Close drops the cached publish connections. Subscriptions are closed by their owners.
func (b *WebSocketBus) Close() error {
	b.mu.Lock()
	b.closed = true
	pubs := b.publishers
	b.publishers = make(map[string]*publisher)
	b.mu.Unlock()

	var errs []error
	for _, p := range pubs {
		errs = append(errs, p.close())
	}
	return errors.Join(errs...)
}

func (b *WebSocketBus) subscribe(ctx context.Context, operationID, stream string, deliver func([]byte)) (secondary.Subscription, error) {
	conn, err := b.dial(ctx, operationID, stream)
	if err != nil {
		return nil, err
	}

	sub := &subscription{conn: conn, done: make(chan struct{})}
	go func() {
		defer close(sub.done)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			deliver(data)
		}
	}()
	go func() {
		select {
		case <-ctx.Done():
			_ = sub.Unsubscribe()
		case <-sub.done:
		}
	}()
	return sub, nil
}

func (b *WebSocketBus) publish(ctx context.Context, operationID, stream string, event any) error {
	if operationID == "" {
		return errors.New("operation id is required")
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", stream, err)
	}

	// One retry on a fresh connection covers a hub restart.
	for attempt := 0; attempt < 2; attempt++ {
		p, err := b.publisherFor(ctx, operationID, stream)
		if err != nil {
			return err
		}
		if err = p.write(data); err == nil {
			return nil
		}
		b.logger.Debug("publish failed, redialing",
			zap.String("operation_id", operationID),
			zap.String("stream", stream),
			zap.Error(err))
		b.dropPublisher(roomKey(operationID, stream), p)
		if attempt == 1 {
			return fmt.Errorf("failed to publish %s event: %w", stream, err)
		}
	}
	return nil
}

func (b *WebSocketBus) publisherFor(ctx context.Context, operationID, stream string) (*publisher, error) {
	key := roomKey(operationID, stream)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, errors.New("bus is closed")
	}
	if p, ok := b.publishers[key]; ok {
		b.mu.Unlock()
		return p, nil
	}
	b.mu.Unlock()

	conn, err := b.dial(ctx, operationID, stream)
	if err != nil {
		return nil, err
	}
	p := &publisher{conn: conn, done: make(chan struct{})}
	// Frames relayed back to a publish connection are discarded; reading keeps
	// control frames flowing.
	go func() {
		defer close(p.done)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	b.mu.Lock()
	defer b.mu.Unlock()
	if existing, ok := b.publishers[key]; ok || b.closed {
		_ = p.close()
		if b.closed {
			return nil, errors.New("bus is closed")
		}
		return existing, nil
	}
	b.publishers[key] = p
	return p, nil
}

func (b *WebSocketBus) dropPublisher(key string, p *publisher) {
	b.mu.Lock()
	if b.publishers[key] == p {
		delete(b.publishers, key)
	}
	b.mu.Unlock()
	_ = p.close()
}

func (b *WebSocketBus) dial(ctx context.Context, operationID, stream string) (*websocket.Conn, error) {
	target := b.baseURL + "/operations/" + url.PathEscape(operationID) + "/" + stream
	conn, _, err := b.dialer.DialContext(ctx, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", target, err)
	}
	return conn, nil
}

func (p *publisher) write(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return p.conn.WriteMessage(websocket.TextMessage, data)
}

func (p *publisher) close() error {
	p.mu.Lock()
	_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = p.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	err := p.conn.Close()
	p.mu.Unlock()
	<-p.done
	return ignoreClosed(err)
}

// Unsubscribe closes the connection and waits for the delivery goroutine.
func (s *subscription) Unsubscribe() error {
	var err error
	s.once.Do(func() {
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		err = ignoreClosed(s.conn.Close())
	})
	<-s.done
	return err
}

func ignoreClosed(err error) error {
	if err == nil || errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// Ensure WebSocketBus implements the interface
var _ secondary.EventBus = (*WebSocketBus)(nil)
