package async

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSleepReturnsAfterDuration(t *testing.T) {
	s := &Scheduler{}
	start := time.Now()
	err := s.Sleep(context.Background(), 20*time.Millisecond)
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestSleepReturnsOnContextCancellation(t *testing.T) {
	s := &Scheduler{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Sleep(ctx, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSleepZeroDurationReturnsImmediately(t *testing.T) {
	s := &Scheduler{}
	start := time.Now()
	err := s.Sleep(context.Background(), 0)
	assert.NoError(t, err)
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestDeadlineCancelsAfterDuration(t *testing.T) {
	ctx, cancel := Deadline(context.Background(), 15*time.Millisecond)
	defer cancel()

	select {
	case <-ctx.Done():
		assert.ErrorIs(t, ctx.Err(), context.DeadlineExceeded)
	case <-time.After(time.Second):
		t.Fatal("deadline context never cancelled")
	}
}

func TestDeadlineCancelFuncCancelsEarly(t *testing.T) {
	ctx, cancel := Deadline(context.Background(), time.Hour)
	cancel()
	<-ctx.Done()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}
