package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/KotFed0t/portfolio_tracker/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskWithRecover_PanicDoesNotEscape(t *testing.T) {
	s := &Scheduler{}
	task := s.taskWithRecover(func(ctx context.Context) error {
		panic("boom")
	}, "panicking")

	assert.NotPanics(t, func() { task(context.Background()) })
}

func TestTaskWithRecover_InjectsRqID(t *testing.T) {
	s := &Scheduler{}
	var got string
	task := s.taskWithRecover(func(ctx context.Context) error {
		got = utils.GetRequestIDFromCtx(ctx)
		return errors.New("failed")
	}, "rqid")

	task(context.Background())
	assert.NotEmpty(t, got)
}

func TestNewIntervalJob_StartImmediately(t *testing.T) {
	s := New()
	defer s.Stop()

	done := make(chan struct{}, 1)
	s.NewIntervalJob("immediate", func(ctx context.Context) error {
		select {
		case done <- struct{}{}:
		default:
		}
		return nil
	}, time.Hour, true)
	s.Start()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		require.Fail(t, "job did not start immediately")
	}
}
