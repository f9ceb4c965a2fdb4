package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altiq/storefront/internal/order/application"
	"github.com/altiq/storefront/internal/order/domain"
	"github.com/altiq/storefront/pkg/idempotency"
	"github.com/altiq/storefront/pkg/outbox"
)

type fakeReader struct {
	mu        sync.Mutex
	msgs      []kafka.Message
	committed []int64
	cancel    context.CancelFunc
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.msgs) == 0 {
		r.cancel()
		return kafka.Message{}, ctx.Err()
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

type stubFulfiller struct {
	calls []string
	errs  []error
}

func (s *stubFulfiller) Fulfill(_ context.Context, orderID string) (application.FulfillOutcome, error) {
	s.calls = append(s.calls, orderID)
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return "", err
		}
	}
	return application.FulfillSent, nil
}

func message(offset int64, eventType, value string) kafka.Message {
	return kafka.Message{
		Topic:     "payment.events",
		Partition: 0,
		Offset:    offset,
		Value:     []byte(value),
		Headers:   []kafka.Header{{Key: outbox.HeaderEventType, Value: []byte(eventType)}},
	}
}

func run(t *testing.T, svc Fulfiller, msgs ...kafka.Message) (*fakeReader, *idempotency.Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	idem := idempotency.NewStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reader := &fakeReader{msgs: msgs, cancel: cancel}

	c := NewConsumer(slog.New(slog.NewTextHandler(io.Discard, nil)), reader, svc, idem)
	c.backoff = time.Millisecond
	require.NoError(t, c.Run(ctx))
	assert.True(t, reader.closed)
	return reader, idem
}

func TestConsumerFulfillsOrderPaid(t *testing.T) {
	svc := &stubFulfiller{}
	reader, _ := run(t, svc,
		message(1, "OrderPaid", `{"order_id":"o1","payment_id":"p1","method":"paypal","amount":"15000.00","currency":"MXN"}`),
		message(2, "SomethingElse", `{"order_id":"o2"}`),
		message(3, "OrderPaid", `not json`),
	)
	assert.Equal(t, []string{"o1"}, svc.calls)
	assert.Equal(t, []int64{1, 2, 3}, reader.committed)
}

func TestConsumerSkipsRedeliveredOffset(t *testing.T) {
	svc := &stubFulfiller{}
	m := message(7, "OrderPaid", `{"order_id":"o1"}`)
	run(t, svc, m, m)
	assert.Equal(t, []string{"o1"}, svc.calls)
}

func TestConsumerRetriesTransientErrors(t *testing.T) {
	svc := &stubFulfiller{errs: []error{errors.New("db down"), nil}}
	run(t, svc, message(1, "OrderPaid", `{"order_id":"o1"}`))
	assert.Equal(t, []string{"o1", "o1"}, svc.calls)
}

func TestConsumerDoesNotRetryRejectedOrders(t *testing.T) {
	svc := &stubFulfiller{errs: []error{domain.ErrOrderNotPaid}}
	run(t, svc, message(1, "OrderPaid", `{"order_id":"o1"}`))
	assert.Equal(t, []string{"o1"}, svc.calls)
}

func TestConsumerStopsUncommittedAfterGivingUp(t *testing.T) {
	boom := errors.New("smtp down")
	svc := &stubFulfiller{errs: []error{boom, boom, boom}}
	m := message(1, "OrderPaid", `{"order_id":"o1"}`)
	next := message(2, "OrderPaid", `{"order_id":"o2"}`)

	mr := miniredis.RunT(t)
	idem := idempotency.NewStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reader := &fakeReader{msgs: []kafka.Message{m, next}, cancel: cancel}

	c := NewConsumer(slog.New(slog.NewTextHandler(io.Discard, nil)), reader, svc, idem)
	c.backoff = time.Millisecond
	err := c.Run(ctx)

	require.ErrorIs(t, err, boom)
	assert.True(t, reader.closed)
	assert.Empty(t, reader.committed)
	assert.Equal(t, []string{"o1", "o1", "o1"}, svc.calls)

	seen, err := idem.Seen(context.Background(), idem.Key(m.Topic, m.Partition, m.Offset))
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestConsumerRedeliveryAfterRestartFulfills(t *testing.T) {
	boom := errors.New("smtp down")
	m := message(1, "OrderPaid", `{"order_id":"o1"}`)

	mr := miniredis.RunT(t)
	idem := idempotency.NewStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := &stubFulfiller{errs: []error{boom, boom, boom}}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	first := &fakeReader{msgs: []kafka.Message{m}, cancel: cancel}
	c := NewConsumer(log, first, svc, idem)
	c.backoff = time.Millisecond
	require.Error(t, c.Run(ctx))

	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel2()
	second := &fakeReader{msgs: []kafka.Message{m}, cancel: cancel2}
	c = NewConsumer(log, second, svc, idem)
	require.NoError(t, c.Run(ctx2))

	assert.Len(t, svc.calls, 4)
	assert.Equal(t, []int64{1}, second.committed)
}
