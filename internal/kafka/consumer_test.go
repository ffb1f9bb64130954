package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	kgo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReader serves queued messages, then blocks until ctx is done.
type fakeReader struct {
	mu        sync.Mutex
	msgs      []kgo.Message
	fetchErrs []error
	committed []kgo.Message
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kgo.Message, error) {
	r.mu.Lock()
	if len(r.fetchErrs) > 0 {
		err := r.fetchErrs[0]
		r.fetchErrs = r.fetchErrs[1:]
		r.mu.Unlock()
		return kgo.Message{}, err
	}
	if len(r.msgs) > 0 {
		m := r.msgs[0]
		r.msgs = r.msgs[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kgo.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kgo.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *fakeReader) committedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.committed)
}

func testConsumer(r messageReader, h Handler) *Consumer {
	return &Consumer{
		reader:     r,
		handle:     h,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		retryDelay:  time.Millisecond,
		maxAttempts: 3,
		topic:       "users",
	}
}

func TestConsumerCommitsHandledAndFailedMessages(t *testing.T) {
	reader := &fakeReader{
		fetchErrs: []error{errors.New("broker not available")},
		msgs: []kgo.Message{
			{Topic: "users", Offset: 1, Value: []byte(`{"username":"duck"}`)},
			{Topic: "users", Offset: 2, Value: []byte(`not json`)},
		},
	}

	var handled []string
	var mu sync.Mutex
	h := func(_ context.Context, _ string, _, value []byte) error {
		mu.Lock()
		defer mu.Unlock()
		handled = append(handled, string(value))
		if string(value) == "not json" {
			return ErrMalformedEvent
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- testConsumer(reader, h).Run(ctx) }()

	require.Eventually(t, func() bool { return reader.committedCount() == 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{`{"username":"duck"}`, "not json"}, handled)
	assert.True(t, reader.closed)
}

func TestConsumerRetriesTransientErrorsBeforeCommitting(t *testing.T) {
	reader := &fakeReader{msgs: []kgo.Message{{Topic: "users", Offset: 7, Value: []byte(`{"username":"duck"}`)}}}

	var mu sync.Mutex
	calls := 0
	commitsSeen := []int{}
	h := func(_ context.Context, _ string, _, _ []byte) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		commitsSeen = append(commitsSeen, reader.committedCount())
		if calls < 3 {
			return errors.New("dial tcp: connection refused")
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- testConsumer(reader, h).Run(ctx) }()

	require.Eventually(t, func() bool { return reader.committedCount() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{0, 0, 0}, commitsSeen)
	assert.Equal(t, int64(7), reader.committed[0].Offset)
}

func TestConsumerSkipsAfterMaxAttempts(t *testing.T) {
	reader := &fakeReader{msgs: []kgo.Message{{Topic: "users", Offset: 1, Value: []byte(`{"username":"duck"}`)}}}

	var mu sync.Mutex
	calls := 0
	h := func(_ context.Context, _ string, _, _ []byte) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return errors.New("database is down")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- testConsumer(reader, h).Run(ctx) }()

	require.Eventually(t, func() bool { return reader.committedCount() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, calls)
}

func TestConsumerLeavesMessageUncommittedOnShutdown(t *testing.T) {
	reader := &fakeReader{msgs: []kgo.Message{{Topic: "users", Offset: 1, Value: []byte(`{"username":"duck"}`)}}}

	ctx, cancel := context.WithCancel(context.Background())
	failing := make(chan struct{}, 1)
	h := func(_ context.Context, _ string, _, _ []byte) error {
		select {
		case failing <- struct{}{}:
		default:
		}
		return errors.New("pool timeout")
	}

	c := testConsumer(reader, h)
	c.retryDelay = time.Hour
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	<-failing
	cancel()
	require.NoError(t, <-done)
	assert.Zero(t, reader.committedCount())
}

func TestSplitBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, splitBrokers(" a:9092, ,b:9092 "))
	assert.Nil(t, splitBrokers(""))
}
