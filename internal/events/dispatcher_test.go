package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInMemoryDispatcher_JoinsHandlerErrors(t *testing.T) {
	d := NewInMemoryDispatcher()
	var calls int32
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("smtp down")
	})
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventTicketCreated})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp down")
	assert.Equal(t, int32(2), calls)
	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventCommentAdded}))
}

func TestAsyncDispatcher_SwallowsFailuresAndTimesOut(t *testing.T) {
	var failures int32
	async := NewAsyncDispatcher(NewInMemoryDispatcher(), 50*time.Millisecond, zap.NewNop(), func() {
		atomic.AddInt32(&failures, 1)
	})
	async.Subscribe(EventTicketStatusChanged, func(ctx context.Context, _ Event) error {
		<-ctx.Done()
		return ctx.Err()
	})

	reqCtx, cancel := context.WithCancel(context.Background())
	start := time.Now()
	require.NoError(t, async.Publish(reqCtx, Event{Type: EventTicketStatusChanged, TicketID: "t1"}))
	cancel()
	assert.Less(t, time.Since(start), 50*time.Millisecond)

	waitCtx, waitCancel := context.WithTimeout(context.Background(), time.Second)
	defer waitCancel()
	require.NoError(t, async.Wait(waitCtx))
	assert.Equal(t, int32(1), atomic.LoadInt32(&failures))
}
