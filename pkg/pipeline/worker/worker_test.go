package worker_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/rsandeep15/AnkiImageToDeck/pkg/pipeline/core"
	"github.com/rsandeep15/AnkiImageToDeck/pkg/pipeline/worker"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPoolSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		limit, n, want int
	}{
		{limit: 0, n: 5, want: 1},
		{limit: -5, n: 5, want: 1},
		{limit: 3, n: 5, want: 3},
		{limit: 10, n: 2, want: 2},
		{limit: 1, n: 1, want: 1},
	}
	for _, tt := range tests {
		if got := worker.PoolSize(tt.limit, tt.n); got != tt.want {
			t.Fatalf("PoolSize(%d, %d) = %d, want %d", tt.limit, tt.n, got, tt.want)
		}
	}
}

func TestProcessAll_ClampsConcurrency(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		workers int
		items   int
		wantMax int32
	}{
		{name: "zero_is_one", workers: 0, items: 4, wantMax: 1},
		{name: "negative_is_one", workers: -5, items: 4, wantMax: 1},
		{name: "more_workers_than_items", workers: 16, items: 3, wantMax: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var inFlight, maxSeen, arrivals atomic.Int32
			var arrived sync.WaitGroup
			arrived.Add(int(tt.wantMax))
			release := make(chan struct{})
			var once sync.Once

			fn := func(_ context.Context, _ int) (int, error) {
				n := inFlight.Add(1)
				for {
					cur := maxSeen.Load()
					if n <= cur || maxSeen.CompareAndSwap(cur, n) {
						break
					}
				}
				if arrivals.Add(1) <= tt.wantMax {
					arrived.Done()
				}
				<-release
				inFlight.Add(-1)
				return 0, nil
			}

			go func() {
				arrived.Wait()
				// Give any extra workers a chance to show up before releasing.
				time.Sleep(20 * time.Millisecond)
				once.Do(func() { close(release) })
			}()

			items := make([]int, tt.items)
			out, err := worker.ProcessAll(context.Background(), items, fn, worker.Options{Workers: tt.workers})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(out) != tt.items {
				t.Fatalf("expected %d outputs, got %d", tt.items, len(out))
			}
			if got := maxSeen.Load(); got != tt.wantMax {
				t.Fatalf("max concurrency = %d, want %d", got, tt.wantMax)
			}
		})
	}
}

func TestProcessAll_EmptyInputStartsNothing(t *testing.T) {
	t.Parallel()

	calls := 0
	out, err := worker.ProcessAll(context.Background(), nil, func(_ context.Context, _ string) (string, error) {
		calls++
		return "", nil
	}, worker.Options{Workers: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 || calls != 0 {
		t.Fatalf("expected no work, got out=%v calls=%d", out, calls)
	}
}

func TestProcessAll_RetriesTransient(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	calls := 0
	failUntil := 2

	fn := func(_ context.Context, _ string) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls <= failUntil {
			return "", &core.TransientError{Err: errors.New("try again")}
		}
		return "ok", nil
	}

	out, err := worker.ProcessAll(context.Background(), []string{"1001"}, fn, worker.Options{
		Workers:           1,
		MaxRetries:        3,
		RequestTimeout:    1 * time.Second,
		BackoffInitial:    1 * time.Millisecond,
		BackoffMax:        2 * time.Millisecond,
		BackoffJitterFrac: 0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 output, got %d", len(out))
	}
	if out[0].Err != nil || out[0].Output != "ok" {
		t.Fatalf("unexpected output: %#v", out[0])
	}

	mu.Lock()
	defer mu.Unlock()
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestProcessAll_DoesNotRetryPermanent(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	calls := 0

	fn := func(_ context.Context, _ string) (string, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return "", errors.New("permanent")
	}

	out, err := worker.ProcessAll(context.Background(), []string{"1001"}, fn, worker.Options{
		Workers:           1,
		MaxRetries:        10,
		BackoffInitial:    1 * time.Millisecond,
		BackoffMax:        1 * time.Millisecond,
		BackoffJitterFrac: 0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 output, got %d", len(out))
	}
	if out[0].Err == nil || out[0].Err.Error() != "permanent" {
		t.Fatalf("unexpected output: %#v", out[0])
	}

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestProcessAll_NoRetriesByDefault(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	fn := func(_ context.Context, _ string) (string, error) {
		calls.Add(1)
		return "", &core.TransientError{Err: errors.New("quota")}
	}

	out, err := worker.ProcessAll(context.Background(), []string{"1001"}, fn, worker.Options{Workers: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[0].Err == nil {
		t.Fatalf("expected item error, got %#v", out[0])
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected 1 call, got %d", got)
	}
}

func TestProcessAll_RespectsPerErrorRetryCap(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	calls := 0

	fn := func(_ context.Context, _ string) (string, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return "", &core.LimitedTransientError{
			Err:          errors.New("cancelled"),
			ExtraRetries: 1,
		}
	}

	out, err := worker.ProcessAll(context.Background(), []string{"1001"}, fn, worker.Options{
		Workers:           1,
		MaxRetries:        10,
		BackoffInitial:    1 * time.Millisecond,
		BackoffMax:        1 * time.Millisecond,
		BackoffJitterFrac: 0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 output, got %d", len(out))
	}
	if out[0].Err == nil {
		t.Fatalf("expected error output, got %#v", out[0])
	}

	mu.Lock()
	defer mu.Unlock()
	if calls != 2 {
		t.Fatalf("expected 2 calls (1 initial + 1 retry), got %d", calls)
	}
}

func TestProcessAll_ItemErrorsDoNotStopSiblings(t *testing.T) {
	t.Parallel()

	fn := func(_ context.Context, id string) (string, error) {
		if id == "bad" {
			return "", errors.New("boom")
		}
		return "ok", nil
	}

	out, err := worker.ProcessAll(context.Background(), []string{"bad", "good", "also-good"}, fn, worker.Options{Workers: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 outputs, got %d", len(out))
	}
	if out[0].Err == nil || out[0].Err.Error() != "boom" {
		t.Fatalf("unexpected out[0]: %#v", out[0])
	}
	if out[1].Err != nil || out[1].Output != "ok" {
		t.Fatalf("unexpected out[1]: %#v", out[1])
	}
	if out[2].Err != nil || out[2].Output != "ok" {
		t.Fatalf("unexpected out[2]: %#v", out[2])
	}
}

func TestProcessAll_RecoversPanics(t *testing.T) {
	t.Parallel()

	fn := func(_ context.Context, id string) (string, error) {
		if id == "panics" {
			panic("nil map write")
		}
		return id, nil
	}

	out, err := worker.ProcessAll(context.Background(), []string{"panics", "fine"}, fn, worker.Options{Workers: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var pe *worker.PanicError
	if !errors.As(out[0].Err, &pe) {
		t.Fatalf("expected PanicError for out[0], got %#v", out[0].Err)
	}
	if out[1].Err != nil || out[1].Output != "fine" {
		t.Fatalf("unexpected out[1]: %#v", out[1])
	}
}

func TestProcessAllWithCallback_CompletesInCompletionOrder(t *testing.T) {
	t.Parallel()

	releaseSlow := make(chan struct{})
	startedSlow := make(chan struct{})
	var firstCallbackInput atomic.Value
	firstCallbackInput.Store("")

	fn := func(_ context.Context, id string) (string, error) {
		if id == "slow" {
			close(startedSlow)
			<-releaseSlow
		}
		return id, nil
	}

	var mu sync.Mutex
	var seen []string
	doneErr := make(chan error, 1)
	go func() {
		_, err := worker.ProcessAllWithCallback(
			context.Background(),
			[]string{"slow", "fast"},
			fn,
			func(res worker.Result[string, string]) error {
				mu.Lock()
				defer mu.Unlock()
				seen = append(seen, res.Input)
				if len(seen) == 1 {
					firstCallbackInput.Store(res.Input)
				}
				return nil
			},
			worker.Options{Workers: 2},
		)
		doneErr <- err
	}()

	select {
	case <-startedSlow:
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for slow task to start")
	}

	deadline := time.Now().Add(1 * time.Second)
	for time.Now().Before(deadline) {
		if firstCallbackInput.Load().(string) == "fast" {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if got := firstCallbackInput.Load().(string); got != "fast" {
		t.Fatalf("expected fast callback first, got %q", got)
	}

	close(releaseSlow)
	select {
	case err := <-doneErr:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for completion")
	}

	mu.Lock()
	defer mu.Unlock()
	if !slices.Equal(seen, []string{"fast", "slow"}) {
		t.Fatalf("unexpected callback order: %v", seen)
	}
}

func TestProcessAllWithCallback_CallbackErrorStopsRun(t *testing.T) {
	t.Parallel()

	callbackErr := errors.New("callback failed")
	_, err := worker.ProcessAllWithCallback(
		context.Background(),
		[]string{"1001"},
		func(_ context.Context, id string) (string, error) {
			return id, nil
		},
		func(worker.Result[string, string]) error {
			return callbackErr
		},
		worker.Options{Workers: 1},
	)
	if !errors.Is(err, callbackErr) {
		t.Fatalf("expected callback error, got %v", err)
	}
}
