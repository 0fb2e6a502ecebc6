package messaging

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/carenest/CareNest/app/models"
)

func publishN(t *testing.T, hub *Hub, conversationID uint, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		err := hub.Publish(context.Background(), models.Message{
			ID:             uint(i + 1),
			ConversationID: conversationID,
			Content:        fmt.Sprintf("m%d", i),
		})
		assert.NoError(t, err)
	}
}

func collect(t *testing.T, sub *Subscription, n int) []models.Message {
	t.Helper()
	out := make([]models.Message, 0, n)
	timeout := time.After(2 * time.Second)
	for len(out) < n {
		select {
		case msg := <-sub.C:
			out = append(out, msg)
		case <-timeout:
			t.Fatalf("timed out after %d of %d messages", len(out), n)
		}
	}
	return out
}

func TestHubFanOutToMultipleSubscribers(t *testing.T) {
	hub := NewHub(nil)
	a := hub.Subscribe(1)
	b := hub.Subscribe(1)
	defer a.Unsubscribe()
	defer b.Unsubscribe()

	publishN(t, hub, 1, 10)

	for _, sub := range []*Subscription{a, b} {
		msgs := collect(t, sub, 10)
		for i, m := range msgs {
			assert.Equal(t, fmt.Sprintf("m%d", i), m.Content)
		}
	}
}

func TestHubConversationsAreIndependent(t *testing.T) {
	hub := NewHub(nil)
	a := hub.Subscribe(1)
	b := hub.Subscribe(2)
	defer a.Unsubscribe()
	defer b.Unsubscribe()

	publishN(t, hub, 1, 3)

	msgs := collect(t, a, 3)
	assert.Len(t, msgs, 3)
	select {
	case m := <-b.C:
		t.Fatalf("subscriber of conversation 2 received %q", m.Content)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubUnsubscribeStopsDeliveryOnlyForSelf(t *testing.T) {
	hub := NewHub(nil)
	a := hub.Subscribe(1)
	b := hub.Subscribe(1)

	a.Unsubscribe()
	publishN(t, hub, 1, 5)

	msgs := collect(t, b, 5)
	assert.Len(t, msgs, 5)
	b.Unsubscribe()
}

func TestHubUnsubscribeIsIdempotent(t *testing.T) {
	hub := NewHub(nil)
	sub := hub.Subscribe(1)

	sub.Unsubscribe()
	sub.Unsubscribe()

	// Channel closes once delivery stops.
	_, open := <-sub.C
	assert.False(t, open)
}

func TestHubSlowSubscriberDoesNotBlockOthers(t *testing.T) {
	hub := NewHub(nil)
	slow := hub.Subscribe(1)
	fast := hub.Subscribe(1)
	defer slow.Unsubscribe()
	defer fast.Unsubscribe()

	// Nobody reads slow.C; fast must still receive everything in order.
	publishN(t, hub, 1, 50)

	msgs := collect(t, fast, 50)
	for i, m := range msgs {
		assert.Equal(t, fmt.Sprintf("m%d", i), m.Content)
	}
}
