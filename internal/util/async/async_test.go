package async

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunParallel_Success(t *testing.T) {
	var count atomic.Int32

	tasks := make([]Task, 3)
	for i := range tasks {
		tasks[i] = Task{Name: "task", Func: func(context.Context) error {
			count.Add(1)
			return nil
		}}
	}

	require.NoError(t, RunParallel(context.Background(), tasks))
	assert.Equal(t, int32(3), count.Load())
}

func TestRunParallel_EmptyTasks(t *testing.T) {
	assert.NoError(t, RunParallel(context.Background(), nil))
}

func TestRunParallel_CollectsEveryError(t *testing.T) {
	errFirst := errors.New("first")
	errThird := errors.New("third")

	var ran atomic.Int32
	err := RunParallel(context.Background(), []Task{
		{Name: "i-1", Func: func(context.Context) error { ran.Add(1); return errFirst }},
		{Name: "i-2", Func: func(context.Context) error { ran.Add(1); return nil }},
		{Name: "i-3", Func: func(context.Context) error { ran.Add(1); return errThird }},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, errFirst)
	assert.ErrorIs(t, err, errThird)
	assert.Equal(t, "i-1: first\ni-3: third", err.Error())
	assert.Equal(t, int32(3), ran.Load())
}

func TestRunParallel_RunsConcurrently(t *testing.T) {
	release := make(chan struct{})
	var started atomic.Int32

	task := func(context.Context) error {
		started.Add(1)
		<-release
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- RunParallel(context.Background(), []Task{{Name: "a", Func: task}, {Name: "b", Func: task}})
	}()

	assert.Eventually(t, func() bool { return started.Load() == 2 }, time.Second, time.Millisecond)
	close(release)
	assert.NoError(t, <-done)
}

func TestRunParallel_PassesContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RunParallel(ctx, []Task{{Name: "t", Func: func(ctx context.Context) error { return ctx.Err() }}})
	assert.ErrorIs(t, err, context.Canceled)
}
