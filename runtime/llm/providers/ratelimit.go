package providers

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/time/rate"

	"github.com/crewforge/orchestrator/runtime/llm"
)

// AdaptiveRateLimiter applies an AIMD-style adaptive token bucket in front of
// an llm.Provider. It estimates the token cost of each request, blocks
// callers until capacity is available, and adjusts its effective
// tokens-per-minute budget in response to rate-limit signals from the
// provider: halving on llm.ErrRateLimited, creeping back up on success.
//
// The limiter is process-local. Construct one instance per process per
// provider and wrap it with Middleware before handing the result to an
// agent executor.
type AdaptiveRateLimiter struct {
	mu sync.Mutex

	limiter *rate.Limiter

	currentTPM   float64
	minTPM       float64
	maxTPM       float64
	recoveryRate float64
}

// NewAdaptiveRateLimiter constructs a limiter with an initial and maximum
// tokens-per-minute budget. maxTPM is clamped up to initialTPM if lower.
func NewAdaptiveRateLimiter(initialTPM, maxTPM float64) *AdaptiveRateLimiter {
	if initialTPM <= 0 {
		initialTPM = 60000
	}
	if maxTPM <= 0 || maxTPM < initialTPM {
		maxTPM = initialTPM
	}
	minTPM := initialTPM * 0.1
	if minTPM < 1 {
		minTPM = 1
	}
	recoveryRate := initialTPM * 0.05
	if recoveryRate < 1 {
		recoveryRate = 1
	}
	return &AdaptiveRateLimiter{
		limiter:      rate.NewLimiter(rate.Limit(initialTPM/60.0), int(initialTPM)),
		currentTPM:   initialTPM,
		minTPM:       minTPM,
		maxTPM:       maxTPM,
		recoveryRate: recoveryRate,
	}
}

// Middleware wraps next so that both Call and Stream wait on the limiter
// before reaching the provider and feed their outcome back into the
// adaptive budget.
func (l *AdaptiveRateLimiter) Middleware(next llm.Provider) llm.Provider {
	if next == nil {
		return nil
	}
	return &limitedProvider{next: next, limiter: l}
}

type limitedProvider struct {
	next    llm.Provider
	limiter *AdaptiveRateLimiter
}

func (p *limitedProvider) Call(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	if err := p.limiter.wait(ctx, req); err != nil {
		return nil, err
	}
	resp, err := p.next.Call(ctx, req)
	p.limiter.observe(err)
	return resp, err
}

func (p *limitedProvider) Stream(ctx context.Context, req *llm.Request) (llm.Streamer, error) {
	if err := p.limiter.wait(ctx, req); err != nil {
		return nil, err
	}
	s, err := p.next.Stream(ctx, req)
	p.limiter.observe(err)
	return s, err
}

func (p *limitedProvider) SupportsFunctionCalling() bool { return p.next.SupportsFunctionCalling() }
func (p *limitedProvider) SupportsMultimodal() bool      { return p.next.SupportsMultimodal() }
func (p *limitedProvider) SupportsStopWords() bool       { return p.next.SupportsStopWords() }
func (p *limitedProvider) GetContextWindowSize(model string) int {
	return p.next.GetContextWindowSize(model)
}

func (l *AdaptiveRateLimiter) wait(ctx context.Context, req *llm.Request) error {
	return l.limiter.WaitN(ctx, estimateTokens(req))
}

func (l *AdaptiveRateLimiter) observe(err error) {
	if err == nil {
		l.probe()
		return
	}
	if errors.Is(err, llm.ErrRateLimited) {
		l.backoff()
	}
}

func (l *AdaptiveRateLimiter) backoff() {
	l.mu.Lock()
	newTPM := l.currentTPM * 0.5
	if newTPM < l.minTPM {
		newTPM = l.minTPM
	}
	if newTPM == l.currentTPM {
		l.mu.Unlock()
		return
	}
	l.apply(newTPM)
	l.mu.Unlock()
}

func (l *AdaptiveRateLimiter) probe() {
	l.mu.Lock()
	newTPM := l.currentTPM + l.recoveryRate
	if newTPM > l.maxTPM {
		newTPM = l.maxTPM
	}
	if newTPM == l.currentTPM {
		l.mu.Unlock()
		return
	}
	l.apply(newTPM)
	l.mu.Unlock()
}

// apply must be called with l.mu held.
func (l *AdaptiveRateLimiter) apply(tpm float64) {
	l.currentTPM = tpm
	l.limiter.SetLimit(rate.Limit(tpm / 60.0))
	l.limiter.SetBurst(int(tpm))
}

// CurrentTPM reports the limiter's current effective budget, mainly for
// metrics and tests.
func (l *AdaptiveRateLimiter) CurrentTPM() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.currentTPM
}

// estimateTokens computes a cheap heuristic for the token cost of a request:
// roughly 1 token per 3 characters of text and tool-result content, plus a
// fixed buffer for system prompts and provider framing.
func estimateTokens(req *llm.Request) int {
	charCount := 0
	for _, m := range req.Messages {
		if m == nil {
			continue
		}
		for _, p := range m.Parts {
			switch v := p.(type) {
			case llm.TextPart:
				charCount += len(v.Text)
			case llm.ToolResultPart:
				if s, ok := v.Content.(string); ok {
					charCount += len(s)
				}
			}
		}
	}
	if charCount <= 0 {
		return 500
	}
	tokens := charCount / 3
	if tokens < 1 {
		tokens = 1
	}
	return tokens + 500
}

var _ llm.Provider = (*limitedProvider)(nil)
