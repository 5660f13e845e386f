// Package agent holds the civic-assistance persona and the single-call
// wrapper around a model provider. The "agent" here is a fixed prompt
// template plus one external model call per question, with no planning loop.
package agent

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/civicaid-labs/civicaid/internal/providers"
	"github.com/civicaid-labs/civicaid/internal/tracing"
)

// PersonaInstructions is the fixed system instruction for every completion.
// It is a plain data value consumed at call time, not behavior.
const PersonaInstructions = `You are CivicAid, a civic-assistance guide for veterans benefits, immigration, and housing questions.

For each question:
- Give a short summary of what the person can do.
- List concrete next steps and a checklist of documents or info to gather.
- Point to trusted official starting points (VA.gov, USCIS.gov, HUD.gov, 211.org) rather than third-party sites.
- Use "general information" wording. Never give legal advice; for immigration cases, advise consulting a qualified nonprofit or attorney.
- If the question mentions self-harm, immediate danger, or a crisis, lead with safety-first guidance and crisis resources (Veterans Crisis Line, 211).`

// ErrEmptyQuestion is returned before any network call is made.
var ErrEmptyQuestion = errors.New("question must not be empty")

// Assistant binds a provider to the persona. Model and persona are the only
// mutable parts, swapped atomically on config reload.
type Assistant struct {
	provider providers.Provider
	tracer   *tracing.Collector // nil = tracing disabled

	mu        sync.RWMutex
	model     string
	persona   string
	maxTokens int
	timeout   time.Duration
}

// Options tunes an Assistant. Zero values fall back to provider defaults and
// a 60s call timeout.
type Options struct {
	Model     string
	Persona   string // empty = PersonaInstructions
	MaxTokens int
	Timeout   time.Duration
	Tracer    *tracing.Collector
}

// New creates an Assistant around the given provider.
func New(provider providers.Provider, opts Options) *Assistant {
	persona := opts.Persona
	if persona == "" {
		persona = PersonaInstructions
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Assistant{
		provider:  provider,
		tracer:    opts.Tracer,
		model:     opts.Model,
		persona:   persona,
		maxTokens: opts.MaxTokens,
		timeout:   timeout,
	}
}

// Reconfigure swaps the tunable fields. Called from the config watcher;
// safe against concurrent Answer calls.
func (a *Assistant) Reconfigure(model, persona string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if model != "" {
		a.model = model
	}
	if persona != "" {
		a.persona = persona
	}
}

// Answer sends one question through the provider and returns the raw
// completion text unmodified. A single attempt, bounded by the configured
// timeout; failures propagate as the provider's error types.
func (a *Assistant) Answer(ctx context.Context, question string) (string, error) {
	if question == "" {
		return "", ErrEmptyQuestion
	}

	a.mu.RLock()
	model, persona, maxTokens, timeout := a.model, a.persona, a.maxTokens, a.timeout
	a.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	resp, err := a.provider.Chat(ctx, providers.ChatRequest{
		System:    persona,
		Message:   question,
		Model:     model,
		MaxTokens: maxTokens,
	})
	a.emitSpan(question, resp, err, start)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func (a *Assistant) emitSpan(question string, resp *providers.ChatResponse, err error, start time.Time) {
	if a.tracer == nil {
		return
	}
	span := tracing.SpanData{
		Name:         "assistant.answer",
		SpanType:     "llm_call",
		Provider:     a.provider.Name(),
		InputPreview: question,
		StartTime:    start.UTC(),
		DurationMS:   int(time.Since(start).Milliseconds()),
		Status:       "ok",
	}
	if err != nil {
		span.Status = "error"
		span.Error = err.Error()
	} else {
		span.Model = resp.Model
		span.OutputPreview = resp.Content
		if resp.Usage != nil {
			span.InputTokens = resp.Usage.PromptTokens
			span.OutputTokens = resp.Usage.CompletionTokens
		}
	}
	a.tracer.EmitSpan(span)
}
