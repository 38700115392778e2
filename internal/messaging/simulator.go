// Package messaging simulates a chat with a mechanic: the driver's messages
// are stored and answered, after a short delay, with one of a few canned
// replies.  No message ever reaches a real person.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/roadready/internal/logger"
	"github.com/iliyamo/roadready/internal/model"
	"github.com/iliyamo/roadready/internal/realtime"
)

// CannedReplies are the mechanic's possible answers.
var CannedReplies = []string{
	"I'll be there in about 15 minutes. Can you tell me more about the issue?",
	"Thanks for the details. I'm on my way to your location now.",
	"I have all the tools needed for this repair. See you soon!",
	"Please stay safe and turn on your hazard lights if you haven't already.",
}

// DefaultReplyDelay is used when the configured delay is not positive.
const DefaultReplyDelay = 2 * time.Second

// greetingAge backdates the opening message.
const greetingAge = 5 * time.Minute

// ErrEmptyMessage is returned for blank message content.
var ErrEmptyMessage = errors.New("message is empty")

// ErrClosed is returned once the simulator has been closed.
var ErrClosed = errors.New("messaging closed")

// Simulator owns conversations and the pending replies.
type Simulator struct {
	store Store
	pub   realtime.Publisher
	delay time.Duration
	log   logger.ILogger
	now   func() time.Time

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu     sync.Mutex
	closed bool
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewSimulator wires a simulator.  pub may be nil when nobody listens for changes.
func NewSimulator(store Store, pub realtime.Publisher, delay time.Duration, log logger.ILogger) *Simulator {
	if delay <= 0 {
		delay = DefaultReplyDelay
	}
	return &Simulator{
		store: store,
		pub:   pub,
		delay: delay,
		log:   log.With(logger.String("component", "messaging")),
		now:   func() time.Time { return time.Now().UTC() },
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
		done:  make(chan struct{}),
	}
}

// Greeting is the mechanic's opening line.
func Greeting(mechanicName string) string {
	return fmt.Sprintf("Hello! I'm %s. How can I help you today?", mechanicName)
}

// Start opens a conversation between userID and the named mechanic.
func (s *Simulator) Start(ctx context.Context, userID uint64, mechanicName string, mechanicID *uint64) (*model.Conversation, error) {
	mechanicName = strings.TrimSpace(mechanicName)
	if mechanicName == "" {
		mechanicName = "Mechanic"
	}
	now := s.now()
	conv := &model.Conversation{
		ID:           uuid.NewString(),
		UserID:       userID,
		MechanicName: mechanicName,
		MechanicID:   mechanicID,
		CreatedAt:    now,
		Messages: []model.Message{{
			ID:        uuid.NewString(),
			Sender:    model.SenderMechanic,
			Content:   Greeting(mechanicName),
			Timestamp: now.Add(-greetingAge),
		}},
	}
	if err := s.store.Create(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// Get returns userID's conversation.  Conversations of other users are reported as missing.
func (s *Simulator) Get(ctx context.Context, userID uint64, id string) (*model.Conversation, error) {
	conv, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if conv.UserID != userID {
		return nil, ErrNotFound
	}
	return conv, nil
}

// Send appends the driver's message and schedules the mechanic's reply.
func (s *Simulator) Send(ctx context.Context, userID uint64, id, content string) (model.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return model.Message{}, ErrEmptyMessage
	}
	conv, err := s.Get(ctx, userID, id)
	if err != nil {
		return model.Message{}, err
	}

	// The reply slot is taken before the write so Close waits for it and
	// nothing is stored once Close has begun.
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return model.Message{}, ErrClosed
	}
	s.wg.Add(1)
	s.mu.Unlock()

	msg := model.Message{ID: uuid.NewString(), Sender: model.SenderUser, Content: content, Timestamp: s.now()}
	if err := s.store.Append(ctx, id, msg); err != nil {
		s.wg.Done()
		return model.Message{}, err
	}
	go s.reply(conv)
	return msg, nil
}

func (s *Simulator) reply(conv *model.Conversation) {
	defer s.wg.Done()

	t := time.NewTimer(s.delay)
	defer t.Stop()
	select {
	case <-s.done:
		return
	case <-t.C:
	}

	msg := model.Message{ID: uuid.NewString(), Sender: model.SenderMechanic, Content: s.pick(), Timestamp: s.now()}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.Append(ctx, conv.ID, msg); err != nil {
		s.log.Error("store reply failed", logger.String("conversation", conv.ID), logger.Error(err))
		return
	}
	if s.pub == nil {
		return
	}
	change := realtime.Change{
		Table: realtime.TableMessages,
		Type:  realtime.EventInsert,
		At:    msg.Timestamp,
		New: realtime.Row{
			"id":              msg.ID,
			"conversation_id": conv.ID,
			"user_id":         conv.UserID,
			"sender":          msg.Sender,
			"content":         msg.Content,
			"mechanic_name":   conv.MechanicName,
			"timestamp":       msg.Timestamp,
		},
	}
	if err := s.pub.Publish(ctx, change); err != nil {
		s.log.Warning("publish reply failed", logger.String("conversation", conv.ID), logger.Error(err))
	}
}

func (s *Simulator) pick() string {
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	return CannedReplies[s.rnd.Intn(len(CannedReplies))]
}

// Close drops pending replies and waits for their goroutines to exit.
func (s *Simulator) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.done)
	}
	s.mu.Unlock()
	s.wg.Wait()
}
