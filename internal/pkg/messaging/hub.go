package messaging

import (
	"context"
	"sync"

	"github.com/gofiber/fiber/v2/log"

	"github.com/carenest/CareNest/app/models"
)

// Feed is the external change channel carrying accepted messages between app
// instances. The Redis implementation is the production feed; tests run the
// hub without one (local fan-out only).
type Feed interface {
	Publish(ctx context.Context, conversationID uint, msg models.Message) error
	Subscribe(ctx context.Context, conversationID uint) (<-chan models.Message, func(), error)
}

// Hub fans accepted messages out to the live subscribers of each
// conversation. Conversations are independent units of concurrency: one
// ordered reader per conversation topic, independent delivery queues per
// subscriber, so a slow consumer never stalls or reorders anyone else.
type Hub struct {
	mu      sync.Mutex
	topics  map[uint]*topic
	feed    Feed
	nextSub uint64
}

type topic struct {
	subs       []*Subscription
	stopReader func()
}

// NewHub creates a hub. feed may be nil, in which case messages fan out to
// in-process subscribers only.
func NewHub(feed Feed) *Hub {
	return &Hub{
		topics: make(map[uint]*topic),
		feed:   feed,
	}
}

// Subscribe registers a live listener for one conversation. Every message
// accepted after (or while) the subscription exists is delivered exactly once
// on C, in insertion order, until Unsubscribe.
func (h *Hub) Subscribe(conversationID uint) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextSub++
	sub := newSubscription(h, conversationID, h.nextSub)

	t, ok := h.topics[conversationID]
	if !ok {
		t = &topic{}
		h.topics[conversationID] = t
		if h.feed != nil {
			t.stopReader = h.startReader(conversationID)
		}
	}
	t.subs = append(t.subs, sub)

	go sub.run()
	return sub
}

// Publish hands an accepted message to the conversation's feed, or directly
// to local subscribers when no feed is configured. Callers invoke it after
// the message row is committed.
func (h *Hub) Publish(ctx context.Context, msg models.Message) error {
	if h.feed != nil {
		if err := h.feed.Publish(ctx, msg.ConversationID, msg); err != nil {
			return err
		}
		return nil
	}
	h.deliver(msg)
	return nil
}

// deliver enqueues msg for every current subscriber of its conversation.
func (h *Hub) deliver(msg models.Message) {
	h.mu.Lock()
	t, ok := h.topics[msg.ConversationID]
	if !ok {
		h.mu.Unlock()
		return
	}
	subs := make([]*Subscription, len(t.subs))
	copy(subs, t.subs)
	h.mu.Unlock()

	for _, sub := range subs {
		sub.enqueue(msg)
	}
}

// startReader starts the single ordered feed reader for a conversation.
// Caller holds h.mu.
func (h *Hub) startReader(conversationID uint) func() {
	ctx, cancel := context.WithCancel(context.Background())
	ch, stop, err := h.feed.Subscribe(ctx, conversationID)
	if err != nil {
		// Degrade to local-only delivery; live updates may lag behind
		// other instances until a re-subscribe.
		log.Warnf("[Messaging] feed subscribe failed for conversation %d: %v", conversationID, err)
		cancel()
		return func() {}
	}

	go func() {
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				h.deliver(msg)
			case <-ctx.Done():
				return
			}
		}
	}()

	return func() {
		cancel()
		stop()
	}
}

// remove detaches a subscription; the last subscriber tears the topic down.
func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	t, ok := h.topics[sub.conversationID]
	if !ok {
		return
	}
	for i, s := range t.subs {
		if s.id == sub.id {
			t.subs = append(t.subs[:i], t.subs[i+1:]...)
			break
		}
	}
	if len(t.subs) == 0 {
		if t.stopReader != nil {
			t.stopReader()
		}
		delete(h.topics, sub.conversationID)
	}
}

// Subscription is a live listener handle for one conversation.
type Subscription struct {
	// C receives the conversation's messages in insertion order. It is
	// closed after Unsubscribe.
	C <-chan models.Message

	hub            *Hub
	conversationID uint
	id             uint64

	out  chan models.Message
	mu   sync.Mutex
	pend []models.Message
	wake chan struct{}
	done chan struct{}
	once sync.Once
}

func newSubscription(h *Hub, conversationID uint, id uint64) *Subscription {
	out := make(chan models.Message)
	return &Subscription{
		C:              out,
		hub:            h,
		conversationID: conversationID,
		id:             id,
		out:            out,
		wake:           make(chan struct{}, 1),
		done:           make(chan struct{}),
	}
}

// enqueue appends a message to this subscriber's private queue. The queue is
// unbounded so one slow consumer cannot force message loss.
func (s *Subscription) enqueue(msg models.Message) {
	s.mu.Lock()
	s.pend = append(s.pend, msg)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// run drains the private queue to C until Unsubscribe.
func (s *Subscription) run() {
	defer close(s.out)
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}

		for {
			s.mu.Lock()
			if len(s.pend) == 0 {
				s.mu.Unlock()
				break
			}
			msg := s.pend[0]
			s.pend = s.pend[1:]
			s.mu.Unlock()

			select {
			case s.out <- msg:
			case <-s.done:
				return
			}
		}
	}
}

// Unsubscribe stops delivery and releases the handle. Safe to call more than
// once; already-delivered messages are unaffected.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.hub.remove(s)
		close(s.done)
	})
}
