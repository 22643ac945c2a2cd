package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/stakeout/internal/core/guard"
	"github.com/example/stakeout/internal/ports/primary"
	"github.com/example/stakeout/internal/ports/secondary"
	"github.com/example/stakeout/internal/trail"
)

// changeBuffer is the capacity of each Changes channel. Notifications to a
// full channel are dropped; readers re-read state on the next one.
const changeBuffer = 64

// LiveServiceImpl implements the LiveService interface.
// It keeps one trail buffer and chat log per watched operation.
type LiveServiceImpl struct {
	bus         secondary.EventBus
	memberRepo  secondary.MemberRepository
	trailWindow time.Duration
	now         Clock
	logger      *zap.Logger

	watchMu sync.Mutex

	mu       sync.Mutex
	feeds    map[string]*feed
	watchers map[int]chan primary.Change
	nextID   int
}

// feed is the in-process state of one operation.
type feed struct {
	trails *trail.Buffer

	chatMu sync.Mutex
	chat   []primary.ChatMessage
	seen   map[string]struct{}

	// guarded by LiveServiceImpl.mu
	watchers    int
	unsubscribe func() error
}

// NewLiveService creates a new LiveService with injected dependencies.
func NewLiveService(
	bus secondary.EventBus,
	memberRepo secondary.MemberRepository,
	trailWindow time.Duration,
	now Clock,
	logger *zap.Logger,
) *LiveServiceImpl {
	if trailWindow <= 0 {
		trailWindow = trail.DefaultWindow
	}
	if now == nil {
		now = SystemClock
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LiveServiceImpl{
		bus:         bus,
		memberRepo:  memberRepo,
		trailWindow: trailWindow,
		now:         now,
		logger:      logger,
		feeds:       make(map[string]*feed),
		watchers:    make(map[int]chan primary.Change),
	}
}

// Watch subscribes to an operation's location and chat streams. Watchers of
// the same operation share one subscription, which ends when the last of them
// calls stop or has its ctx done.
func (s *LiveServiceImpl) Watch(ctx context.Context, operationID string) (func() error, error) {
	if err := s.requireMember(ctx, operationID); err != nil {
		return nil, err
	}

	s.watchMu.Lock()
	defer s.watchMu.Unlock()

	s.mu.Lock()
	f := s.feedLocked(operationID)
	f.watchers++
	first := f.watchers == 1
	s.mu.Unlock()

	if first {
		unsubscribe, err := s.subscribe(ctx, operationID, f)
		if err != nil {
			s.mu.Lock()
			f.watchers--
			s.mu.Unlock()
			return nil, err
		}
		s.mu.Lock()
		f.unsubscribe = unsubscribe
		s.mu.Unlock()
		s.logger.Info("watching operation", zap.String("operation_id", operationID))
	}

	done := make(chan struct{})
	var once sync.Once
	var stopErr error
	stop := func() error {
		once.Do(func() {
			close(done)
			s.mu.Lock()
			f.watchers--
			var unsubscribe func() error
			if f.watchers == 0 {
				unsubscribe, f.unsubscribe = f.unsubscribe, nil
			}
			s.mu.Unlock()
			if unsubscribe != nil {
				stopErr = unsubscribe()
				s.logger.Info("stopped watching operation", zap.String("operation_id", operationID))
			}
		})
		return stopErr
	}

	go func() {
		select {
		case <-ctx.Done():
			_ = stop()
		case <-done:
		}
	}()
	return stop, nil
}

// subscribe opens the shared bus subscriptions of a feed. They outlive the
// ctx of the watcher that opened them.
func (s *LiveServiceImpl) subscribe(ctx context.Context, operationID string, f *feed) (func() error, error) {
	subCtx := context.WithoutCancel(ctx)
	locSub, err := s.bus.SubscribeLocations(subCtx, operationID, func(e secondary.LocationEvent) {
		s.ingestPoint(f, e)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to subscribe to locations: %w", guard.ErrTransport, err)
	}
	chatSub, err := s.bus.SubscribeChat(subCtx, operationID, func(e secondary.ChatEvent) {
		s.ingestChat(f, e)
	})
	if err != nil {
		_ = locSub.Unsubscribe()
		return nil, fmt.Errorf("%w: failed to subscribe to chat: %w", guard.ErrTransport, err)
	}
	return func() error {
		return errors.Join(locSub.Unsubscribe(), chatSub.Unsubscribe())
	}, nil
}

// Changes returns a channel of change notifications and a cancel function.
func (s *LiveServiceImpl) Changes() (<-chan primary.Change, func()) {
	ch := make(chan primary.Change, changeBuffer)

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = ch
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.watchers, id)
			s.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Trails returns the current trail of every member of an operation.
func (s *LiveServiceImpl) Trails(operationID string) map[string][]primary.LocationPoint {
	f := s.lookup(operationID)
	if f == nil {
		return map[string][]primary.LocationPoint{}
	}
	out := make(map[string][]primary.LocationPoint)
	for userID, points := range f.trails.Snapshot() {
		converted := make([]primary.LocationPoint, len(points))
		for i, p := range points {
			converted[i] = pointToPrimary(p)
		}
		out[userID] = converted
	}
	return out
}

// Chat returns the deduplicated chat log of an operation in arrival order.
func (s *LiveServiceImpl) Chat(operationID string) []primary.ChatMessage {
	f := s.lookup(operationID)
	if f == nil {
		return nil
	}
	f.chatMu.Lock()
	defer f.chatMu.Unlock()
	return append([]primary.ChatMessage(nil), f.chat...)
}

// LatestPosition returns the newest trail point of a member.
func (s *LiveServiceImpl) LatestPosition(operationID, userID string) (lat, lng float64, ok bool) {
	f := s.lookup(operationID)
	if f == nil {
		return 0, 0, false
	}
	p, ok := f.trails.Latest(userID)
	if !ok {
		return 0, 0, false
	}
	return p.Lat, p.Lng, true
}

// PublishLocation publishes the actor's location and records it locally.
func (s *LiveServiceImpl) PublishLocation(ctx context.Context, req primary.PublishLocationRequest) (*primary.LocationPoint, error) {
	actorID, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, req.OperationID); err != nil {
		return nil, err
	}
	if req.Lat < -90 || req.Lat > 90 || req.Lng < -180 || req.Lng > 180 {
		return nil, fmt.Errorf("%w: coordinate (%f, %f) is out of range", guard.ErrMissingPrecondition, req.Lat, req.Lng)
	}

	event := secondary.LocationEvent{
		ID:          newID(),
		UserID:      actorID,
		OperationID: req.OperationID,
		Timestamp:   s.now(),
		Lat:         req.Lat,
		Lng:         req.Lng,
		Accuracy:    req.Accuracy,
		Speed:       req.Speed,
		Heading:     req.Heading,
	}
	if err := s.bus.PublishLocation(ctx, event); err != nil {
		return nil, fmt.Errorf("%w: failed to publish location: %w", guard.ErrTransport, err)
	}

	s.mu.Lock()
	f := s.feedLocked(req.OperationID)
	s.mu.Unlock()
	s.ingestPoint(f, event)

	point := pointToPrimary(eventToPoint(event))
	return &point, nil
}

// SendChat publishes a chat message from the actor and records it locally.
func (s *LiveServiceImpl) SendChat(ctx context.Context, operationID, body string) (*primary.ChatMessage, error) {
	actorID, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("%w: message body is required", guard.ErrMissingPrecondition)
	}
	if err := s.requireMember(ctx, operationID); err != nil {
		return nil, err
	}

	event := secondary.ChatEvent{
		ID:          newID(),
		OperationID: operationID,
		SenderID:    actorID,
		Body:        body,
		SentAt:      s.now(),
	}
	if err := s.bus.PublishChat(ctx, event); err != nil {
		return nil, fmt.Errorf("%w: failed to send chat: %w", guard.ErrTransport, err)
	}

	s.mu.Lock()
	f := s.feedLocked(operationID)
	s.mu.Unlock()
	s.ingestChat(f, event)

	msg := chatToPrimary(event)
	return &msg, nil
}

// Helper methods

// ingestPoint appends a point; redelivered ids are ignored.
func (s *LiveServiceImpl) ingestPoint(f *feed, e secondary.LocationEvent) {
	if !f.trails.Append(eventToPoint(e)) {
		return
	}
	s.notify(primary.Change{Kind: primary.ChangeTrail, OperationID: e.OperationID, SubjectID: e.UserID})
}

// ingestChat appends a message; redelivered ids are ignored.
func (s *LiveServiceImpl) ingestChat(f *feed, e secondary.ChatEvent) {
	f.chatMu.Lock()
	if _, dup := f.seen[e.ID]; dup {
		f.chatMu.Unlock()
		return
	}
	f.seen[e.ID] = struct{}{}
	f.chat = append(f.chat, chatToPrimary(e))
	f.chatMu.Unlock()

	s.notify(primary.Change{Kind: primary.ChangeChat, OperationID: e.OperationID, SubjectID: e.ID})
}

func (s *LiveServiceImpl) notify(change primary.Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.watchers {
		select {
		case ch <- change:
		default:
		}
	}
}

func (s *LiveServiceImpl) feedLocked(operationID string) *feed {
	f, ok := s.feeds[operationID]
	if !ok {
		f = &feed{
			trails: trail.NewBuffer(trail.WithWindow(s.trailWindow), trail.WithClock(s.now)),
			seen:   make(map[string]struct{}),
		}
		s.feeds[operationID] = f
	}
	return f
}

func (s *LiveServiceImpl) lookup(operationID string) *feed {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feeds[operationID]
}

func (s *LiveServiceImpl) requireMember(ctx context.Context, operationID string) error {
	actorID, err := requireActor(ctx)
	if err != nil {
		return err
	}
	_, joined, err := activeMember(ctx, s.memberRepo, operationID, actorID)
	if err != nil {
		return err
	}
	if !joined {
		return fmt.Errorf("%w: user %s is not a member of operation %s", guard.ErrNotAMember, actorID, operationID)
	}
	return nil
}

func eventToPoint(e secondary.LocationEvent) trail.Point {
	return trail.Point{
		ID:          e.ID,
		UserID:      e.UserID,
		OperationID: e.OperationID,
		Timestamp:   e.Timestamp,
		Lat:         e.Lat,
		Lng:         e.Lng,
		Accuracy:    e.Accuracy,
		Speed:       e.Speed,
		Heading:     e.Heading,
	}
}

func pointToPrimary(p trail.Point) primary.LocationPoint {
	return primary.LocationPoint{
		ID:          p.ID,
		UserID:      p.UserID,
		OperationID: p.OperationID,
		Timestamp:   p.Timestamp,
		Lat:         p.Lat,
		Lng:         p.Lng,
		Accuracy:    p.Accuracy,
		Speed:       p.Speed,
		Heading:     p.Heading,
	}
}

func chatToPrimary(e secondary.ChatEvent) primary.ChatMessage {
	return primary.ChatMessage{
		ID:          e.ID,
		OperationID: e.OperationID,
		SenderID:    e.SenderID,
		Body:        e.Body,
		SentAt:      e.SentAt,
	}
}

// Ensure LiveServiceImpl implements the interface
var _ primary.LiveService = (*LiveServiceImpl)(nil)
