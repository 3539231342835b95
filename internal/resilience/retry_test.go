package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
)

func fastPolicy() Policy {
	return Policy{
		MaxAttempts: 5,
		BaseDelay:   time.Microsecond,
		MaxJitter:   time.Microsecond,
	}
}

func TestDoSucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(), func(context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestDoRetriesRateLimits(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(), func(context.Context) error {
		calls++
		if calls < 3 {
			return RateLimited(eris.New("429"))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(), func(context.Context) error {
		calls++
		return RateLimited(eris.New("429"))
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if calls != 5 {
		t.Fatalf("calls = %d, want 5", calls)
	}
	if !IsRateLimited(err) {
		t.Fatalf("want the last error back, got %v", err)
	}
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	calls := 0
	terminal := eris.New("bad request")
	err := Do(context.Background(), fastPolicy(), func(context.Context) error {
		calls++
		return terminal
	})
	if !eris.Is(err, terminal) {
		t.Fatalf("want terminal error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestDoStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, fastPolicy(), func(context.Context) error {
		calls++
		cancel()
		return RateLimited(eris.New("429"))
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestDoValReturnsValue(t *testing.T) {
	got, err := DoVal(context.Background(), fastPolicy(), func(context.Context) (string, error) {
		return "https://example.org/p.pdf", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "https://example.org/p.pdf" {
		t.Fatalf("got %q", got)
	}
}

func TestPolicyZeroValueUsable(t *testing.T) {
	p := Policy{}.withDefaults()
	if p.MaxAttempts != 5 {
		t.Fatalf("MaxAttempts = %d, want 5", p.MaxAttempts)
	}
	if p.BaseDelay != time.Second {
		t.Fatalf("BaseDelay = %v, want 1s", p.BaseDelay)
	}
	if p.Retryable == nil {
		t.Fatal("Retryable not defaulted")
	}
}

func TestWaitGrowsExponentially(t *testing.T) {
	p := Policy{BaseDelay: time.Second, MaxJitter: time.Second}.withDefaults()
	for attempt, want := range []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second} {
		got := p.wait(attempt)
		if got < want || got >= want+time.Second {
			t.Fatalf("wait(%d) = %v, want [%v, %v)", attempt, got, want, want+time.Second)
		}
	}
}

func TestOnRetryObservesEachBackoff(t *testing.T) {
	var attempts []int
	p := fastPolicy()
	p.OnRetry = func(attempt int, _ time.Duration, _ error) {
		attempts = append(attempts, attempt)
	}
	_ = Do(context.Background(), p, func(context.Context) error {
		return RateLimited(eris.New("429"))
	})
	if len(attempts) != 4 {
		t.Fatalf("OnRetry called %d times, want 4", len(attempts))
	}
	if attempts[0] != 1 || attempts[3] != 4 {
		t.Fatalf("attempts = %v", attempts)
	}
}

func TestIsRateLimitedUnwraps(t *testing.T) {
	inner := RateLimited(eris.New("429"))
	wrapped := eris.Wrap(inner, "claude: lookup url")
	if !IsRateLimited(wrapped) {
		t.Fatal("wrapped rate limit not detected")
	}
	if IsRateLimited(eris.New("plain")) {
		t.Fatal("plain error misclassified")
	}
}
