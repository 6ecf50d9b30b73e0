package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_Emit_DeliversToSubscribers(t *testing.T) {
	bus := NewBus()

	received := make(chan ScoreChangeEvent, 2)
	var wg sync.WaitGroup
	wg.Add(2)

	for i := 0; i < 2; i++ {
		bus.Subscribe(EventTypeScoreChange, func(ctx context.Context, event Event) {
			defer wg.Done()
			if e, ok := event.(ScoreChangeEvent); ok {
				received <- e
			}
		})
	}

	bus.Emit(context.Background(), ScoreChangeEvent{UserID: "1", OldScore: 0, NewScore: 10, Kind: ScoreChangeCredit})
	wg.Wait()
	close(received)

	count := 0
	for e := range received {
		assert.Equal(t, "1", e.UserID)
		assert.Equal(t, int64(10), e.NewScore)
		count++
	}
	assert.Equal(t, 2, count)
}

func TestBus_Emit_IgnoresOtherTypes(t *testing.T) {
	bus := NewBus()

	called := make(chan struct{}, 1)
	bus.Subscribe(EventTypeBiddingChange, func(ctx context.Context, event Event) {
		called <- struct{}{}
	})

	bus.Emit(context.Background(), ScoreChangeEvent{UserID: "1"})

	select {
	case <-called:
		t.Fatal("handler for a different event type was called")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBus_Emit_RecoversFromPanic(t *testing.T) {
	bus := NewBus()

	done := make(chan struct{})
	bus.Subscribe(EventTypeCommand, func(ctx context.Context, event Event) {
		panic("boom")
	})
	bus.Subscribe(EventTypeCommand, func(ctx context.Context, event Event) {
		close(done)
	})

	bus.Emit(context.Background(), CommandHandledEvent{Command: "score"})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second handler was not called")
	}
}

func startLoop(t *testing.T) *Loop {
	t.Helper()
	loop := NewLoop(16)
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-loop.Done()
	})
	return loop
}

func TestLoop_Post_RunsTasksInOrder(t *testing.T) {
	loop := startLoop(t)

	var got []int
	for i := 0; i < 5; i++ {
		i := i
		require.NoError(t, loop.Post(func(ctx context.Context) { got = append(got, i) }))
	}
	require.NoError(t, loop.Call(context.Background(), func(ctx context.Context) {}))

	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestLoop_Run_SurvivesPanickingTask(t *testing.T) {
	loop := startLoop(t)

	require.NoError(t, loop.Post(func(ctx context.Context) { panic("boom") }))

	ran := false
	require.NoError(t, loop.Call(context.Background(), func(ctx context.Context) { ran = true }))
	assert.True(t, ran)
}

func TestLoop_Post_AfterStop(t *testing.T) {
	loop := NewLoop(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	loop.Run(ctx)

	assert.ErrorIs(t, loop.Post(func(ctx context.Context) {}), ErrLoopStopped)
}

func TestLoop_AfterFunc_Fires(t *testing.T) {
	loop := startLoop(t)

	fired := make(chan struct{})
	loop.AfterFunc(10*time.Millisecond, func(ctx context.Context) { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestLoop_AfterFunc_StopPreventsFire(t *testing.T) {
	loop := startLoop(t)

	fired := false
	timer := loop.AfterFunc(20*time.Millisecond, func(ctx context.Context) { fired = true })
	timer.Stop()
	timer.Stop()

	time.Sleep(60 * time.Millisecond)
	require.NoError(t, loop.Call(context.Background(), func(ctx context.Context) {}))
	assert.False(t, fired)
}

func TestLoop_AfterFunc_StopWhileQueued(t *testing.T) {
	loop := startLoop(t)

	// Hold the loop so the timer task is queued behind it, then stop the timer.
	release := make(chan struct{})
	require.NoError(t, loop.Post(func(ctx context.Context) { <-release }))

	fired := false
	timer := loop.AfterFunc(time.Millisecond, func(ctx context.Context) { fired = true })
	time.Sleep(30 * time.Millisecond)
	timer.Stop()
	close(release)

	require.NoError(t, loop.Call(context.Background(), func(ctx context.Context) {}))
	assert.False(t, fired)
}

func TestLoop_Every_RepeatsUntilStopped(t *testing.T) {
	loop := startLoop(t)

	ticks := make(chan struct{}, 10)
	stop := loop.Every(5*time.Millisecond, func(ctx context.Context) {
		select {
		case ticks <- struct{}{}:
		default:
		}
	})

	for i := 0; i < 2; i++ {
		select {
		case <-ticks:
		case <-time.After(time.Second):
			t.Fatal("ticker did not fire")
		}
	}
	stop()
	stop()
}
