package llm

import (
	"context"
	"time"
)

// LLMObserver receives a notification after every LLM call, whether it
// succeeded or failed. Implementations should not block.
type LLMObserver interface {
	OnLLMCall(ctx context.Context, event LLMCallEvent)
}

// LLMCallEvent contains all information about an LLM call.
type LLMCallEvent struct {
	// Provider name (e.g., "openai", "anthropic")
	Provider string

	// Model used for the call
	Model string

	// Stage that issued the call ("extract" or "agent")
	Stage string

	// InputContentSize is the size in bytes of the page content sent.
	InputContentSize int

	// Response is nil if the call failed before getting a response.
	Response *Response

	// Error if the call failed (nil on success)
	Error error

	Duration  time.Duration
	StartedAt time.Time
}

// ObserverFunc is a convenience type for using a function as an LLMObserver.
type ObserverFunc func(ctx context.Context, event LLMCallEvent)

// OnLLMCall implements LLMObserver.
func (f ObserverFunc) OnLLMCall(ctx context.Context, event LLMCallEvent) {
	f(ctx, event)
}

// MultiObserver combines multiple observers into one.
type MultiObserver struct {
	observers []LLMObserver
}

// NewMultiObserver creates an observer that dispatches to multiple observers.
func NewMultiObserver(observers ...LLMObserver) *MultiObserver {
	return &MultiObserver{observers: observers}
}

// OnLLMCall dispatches the event to all registered observers.
func (m *MultiObserver) OnLLMCall(ctx context.Context, event LLMCallEvent) {
	for _, obs := range m.observers {
		if obs != nil {
			obs.OnLLMCall(ctx, event)
		}
	}
}

// Add adds an observer to the multi-observer.
func (m *MultiObserver) Add(obs LLMObserver) {
	m.observers = append(m.observers, obs)
}

// Observe runs one provider call and reports it to obs, which may be nil.
func Observe(ctx context.Context, p Provider, obs LLMObserver, stage string, contentSize int, req Request) (*Response, error) {
	start := time.Now()
	resp, err := p.Execute(ctx, req)
	if obs != nil {
		obs.OnLLMCall(ctx, LLMCallEvent{
			Provider:         p.Name(),
			Model:            p.Model(),
			Stage:            stage,
			InputContentSize: contentSize,
			Response:         resp,
			Error:            err,
			Duration:         time.Since(start),
			StartedAt:        start,
		})
	}
	return resp, err
}
