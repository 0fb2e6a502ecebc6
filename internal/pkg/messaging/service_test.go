package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/carenest/CareNest/app/models"
)

// fakeConversationRepo is an in-memory ConversationRepository with the same
// uniqueness and ordering guarantees the MySQL schema provides.
type fakeConversationRepo struct {
	mu            sync.Mutex
	nextConvID    uint
	nextMsgID     uint
	conversations []*models.Conversation
	messages      []*models.Message
	failCreate    error
	failGet       error
}

func newFakeRepo() *fakeConversationRepo {
	return &fakeConversationRepo{}
}

func (r *fakeConversationRepo) key(providerID uint, email string, bookingID uint) string {
	return fmt.Sprintf("%d|%s|%d", providerID, email, bookingID)
}

func (r *fakeConversationRepo) CreateWithWelcome(conv *models.Conversation, welcome *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate != nil {
		return r.failCreate
	}
	for _, c := range r.conversations {
		if r.key(c.ProviderID, c.CustomerEmail, c.BookingID) == r.key(conv.ProviderID, conv.CustomerEmail, conv.BookingID) {
			return gorm.ErrDuplicatedKey
		}
	}
	r.nextConvID++
	conv.ID = r.nextConvID
	stored := *conv
	r.conversations = append(r.conversations, &stored)

	r.nextMsgID++
	welcome.ID = r.nextMsgID
	welcome.ConversationID = conv.ID
	msg := *welcome
	r.messages = append(r.messages, &msg)
	return nil
}

func (r *fakeConversationRepo) FindFirstByKey(providerID uint, email string, bookingID uint) (*models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.conversations {
		if r.key(c.ProviderID, c.CustomerEmail, c.BookingID) == r.key(providerID, email, bookingID) {
			out := *c
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeConversationRepo) GetByID(id uint) (*models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failGet != nil {
		return nil, r.failGet
	}
	for _, c := range r.conversations {
		if c.ID == id {
			out := *c
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeConversationRepo) ListByCustomerEmail(email string) ([]models.Conversation, error) {
	return nil, nil
}

func (r *fakeConversationRepo) ListByProviderID(providerID uint) ([]models.Conversation, error) {
	return nil, nil
}

func (r *fakeConversationRepo) AppendMessage(msg *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextMsgID++
	msg.ID = r.nextMsgID
	stored := *msg
	r.messages = append(r.messages, &stored)
	return nil
}

func (r *fakeConversationRepo) GetMessages(conversationID uint, afterID uint) ([]models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Message
	for _, m := range r.messages {
		if m.ConversationID == conversationID && m.ID > afterID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *fakeConversationRepo) MarkMessagesRead(conversationID uint, ids []uint, readerSenderType string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, m := range r.messages {
		for _, id := range ids {
			if m.ID == id && m.ConversationID == conversationID &&
				m.SenderType != readerSenderType && !m.IsRead {
				m.IsRead = true
				n++
			}
		}
	}
	return n, nil
}

func (r *fakeConversationRepo) CountUnread(conversationID uint, readerSenderType string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, m := range r.messages {
		if m.ConversationID == conversationID && m.SenderType != readerSenderType && !m.IsRead {
			n++
		}
	}
	return n, nil
}

func (r *fakeConversationRepo) SetStatus(id uint, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.conversations {
		if c.ID == id {
			c.Status = status
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeConversationRepo) SetMessageFlagged(messageID uint, flagged bool) error {
	return nil
}

func (r *fakeConversationRepo) welcomeCount(conversationID uint) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.messages {
		if m.ConversationID == conversationID && m.SenderType == models.SenderTypeSupport && m.SenderID == models.SupportSenderID {
			n++
		}
	}
	return n
}

func newTestService(repo *fakeConversationRepo) *Service {
	return NewService(repo, NewHub(nil))
}

func TestInitializeCreatesConversationWithWelcome(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	conv, err := svc.Initialize(context.Background(), 1, "a@b.com", 0)

	assert.NoError(t, err)
	assert.NotZero(t, conv.ID)
	assert.Equal(t, models.ConversationStatusActive, conv.Status)
	assert.Equal(t, 1, repo.welcomeCount(conv.ID))
}

func TestInitializeIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	first, err := svc.Initialize(context.Background(), 1, "a@b.com", 0)
	assert.NoError(t, err)
	second, err := svc.Initialize(context.Background(), 1, "A@B.com ", 0)
	assert.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, repo.welcomeCount(first.ID))
}

func TestInitializeConcurrent(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	const callers = 8
	ids := make(chan uint, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conv, err := svc.Initialize(context.Background(), 7, "race@b.com", 3)
			assert.NoError(t, err)
			ids <- conv.ID
		}()
	}
	wg.Wait()
	close(ids)

	var first uint
	for id := range ids {
		if first == 0 {
			first = id
		}
		assert.Equal(t, first, id)
	}
	assert.Equal(t, 1, repo.welcomeCount(first))
}

func TestInitializeValidatesKey(t *testing.T) {
	svc := newTestService(newFakeRepo())

	_, err := svc.Initialize(context.Background(), 0, "a@b.com", 0)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Initialize(context.Background(), 1, "   ", 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestInitializeStoreFailureLeavesNothingBehind(t *testing.T) {
	repo := newFakeRepo()
	repo.failCreate = errors.New("connection reset")
	svc := newTestService(repo)

	_, err := svc.Initialize(context.Background(), 1, "a@b.com", 0)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Empty(t, repo.conversations)
	assert.Empty(t, repo.messages)

	// The failed attempt must be safely retryable.
	repo.failCreate = nil
	conv, err := svc.Initialize(context.Background(), 1, "a@b.com", 0)
	assert.NoError(t, err)
	assert.Equal(t, 1, repo.welcomeCount(conv.ID))
}

func TestSendAppendsAndReturnsMessage(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	conv, _ := svc.Initialize(context.Background(), 1, "a@b.com", 0)

	msg, err := svc.Send(context.Background(), conv.ID, models.SenderTypeCustomer, "a@b.com", "  hello there  ")

	assert.NoError(t, err)
	assert.Equal(t, "hello there", msg.Content)
	assert.False(t, msg.IsRead)
	assert.False(t, msg.CreatedAt.IsZero())
}

func TestSendRejectsBlankContent(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	conv, _ := svc.Initialize(context.Background(), 1, "a@b.com", 0)
	before := len(repo.messages)

	_, err := svc.Send(context.Background(), conv.ID, models.SenderTypeCustomer, "a@b.com", "   ")

	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Len(t, repo.messages, before)
}

func TestSendRejectsClosedConversation(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	conv, _ := svc.Initialize(context.Background(), 1, "a@b.com", 0)
	assert.NoError(t, svc.Close(context.Background(), conv.ID))
	before := len(repo.messages)

	_, err := svc.Send(context.Background(), conv.ID, models.SenderTypeCustomer, "a@b.com", "hello?")

	assert.ErrorIs(t, err, ErrConversationClosed)
	assert.Len(t, repo.messages, before)
}

// brokenFeed fails every publish, standing in for a Redis outage.
type brokenFeed struct{}

func (brokenFeed) Publish(ctx context.Context, conversationID uint, msg models.Message) error {
	return errors.New("feed down")
}

func (brokenFeed) Subscribe(ctx context.Context, conversationID uint) (<-chan models.Message, func(), error) {
	return nil, nil, errors.New("feed down")
}

func TestSendSurvivesFeedFailure(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, NewHub(brokenFeed{}))
	conv, _ := svc.Initialize(context.Background(), 1, "a@b.com", 0)
	before := len(repo.messages)

	msg, err := svc.Send(context.Background(), conv.ID, models.SenderTypeCustomer, "a@b.com", "hello?")

	// The committed row wins; a dead feed only costs live delivery
	assert.NoError(t, err)
	assert.NotNil(t, msg)
	assert.Len(t, repo.messages, before+1)
}

func TestCloseUnknownConversation(t *testing.T) {
	svc := newTestService(newFakeRepo())

	err := svc.Close(context.Background(), 99)

	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestSendUnknownConversation(t *testing.T) {
	svc := newTestService(newFakeRepo())

	_, err := svc.Send(context.Background(), 99, models.SenderTypeCustomer, "a@b.com", "hi")

	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestMarkReadSkipsOwnMessages(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	conv, _ := svc.Initialize(context.Background(), 1, "a@b.com", 0)

	own, _ := svc.Send(context.Background(), conv.ID, models.SenderTypeCustomer, "a@b.com", "mine")
	theirs, _ := svc.Send(context.Background(), conv.ID, models.SenderTypeSupport, models.SupportSenderID, "reply")

	n, err := svc.MarkRead(context.Background(), conv.ID, []uint{own.ID, theirs.ID}, models.SenderTypeCustomer)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), n)

	msgs, _ := svc.History(context.Background(), conv.ID, 0)
	for _, m := range msgs {
		switch m.ID {
		case own.ID:
			assert.False(t, m.IsRead)
		case theirs.ID:
			assert.True(t, m.IsRead)
		}
	}
}

func TestMarkReadIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	conv, _ := svc.Initialize(context.Background(), 1, "a@b.com", 0)
	theirs, _ := svc.Send(context.Background(), conv.ID, models.SenderTypeSupport, models.SupportSenderID, "reply")

	n1, err := svc.MarkRead(context.Background(), conv.ID, []uint{theirs.ID}, models.SenderTypeCustomer)
	assert.NoError(t, err)
	n2, err := svc.MarkRead(context.Background(), conv.ID, []uint{theirs.ID}, models.SenderTypeCustomer)
	assert.NoError(t, err)

	assert.Equal(t, int64(1), n1)
	assert.Equal(t, int64(0), n2)
}

func TestSubscriberReceivesSendsInOrder(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	conv, _ := svc.Initialize(context.Background(), 1, "a@b.com", 0)

	sub := svc.Subscribe(conv.ID)
	defer sub.Unsubscribe()

	const count = 20
	for i := 0; i < count; i++ {
		_, err := svc.Send(context.Background(), conv.ID, models.SenderTypeCustomer, "a@b.com", fmt.Sprintf("msg-%d", i))
		assert.NoError(t, err)
	}

	for i := 0; i < count; i++ {
		msg := <-sub.C
		assert.Equal(t, fmt.Sprintf("msg-%d", i), msg.Content)
	}
}
