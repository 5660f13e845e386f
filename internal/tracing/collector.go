package tracing

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	defaultFlushInterval = 5 * time.Second
	defaultBufferSize    = 1000
	previewMaxLen        = 500
)

// SpanData is one trace record: prompt preview, response preview, latency.
// A fire-and-forget side channel: nothing here affects request handling.
type SpanData struct {
	ID       uuid.UUID
	TraceID  uuid.UUID
	Name     string
	SpanType string // "llm_call" or "eval_case"

	Provider string
	Model    string

	InputPreview  string
	OutputPreview string
	InputTokens   int
	OutputTokens  int

	Status string // "ok" or "error"
	Error  string

	StartTime  time.Time
	DurationMS int
}

// SpanExporter is implemented by backends that ship span data somewhere
// external (OpenTelemetry OTLP). Keeping this as an interface lets the OTel
// dependency live in a separate sub-package.
type SpanExporter interface {
	ExportSpans(ctx context.Context, spans []SpanData)
	Shutdown(ctx context.Context) error
}

// Collector buffers spans in memory and periodically flushes them to the
// attached exporter in batches. With no exporter attached, flushed spans are
// only counted at debug level and discarded.
type Collector struct {
	spanCh chan SpanData
	stopCh chan struct{}
	wg     sync.WaitGroup

	verbose bool // when true, previews carry the full prompt text

	mu       sync.RWMutex
	exporter SpanExporter // optional external exporter (nil = disabled)
}

// NewCollector creates a tracing collector.
// Set CIVICAID_TRACE_VERBOSE=1 to skip preview truncation.
func NewCollector() *Collector {
	verbose := os.Getenv("CIVICAID_TRACE_VERBOSE") != ""
	if verbose {
		slog.Info("tracing: verbose mode enabled (CIVICAID_TRACE_VERBOSE)")
	}
	return &Collector{
		spanCh:  make(chan SpanData, defaultBufferSize),
		stopCh:  make(chan struct{}),
		verbose: verbose,
	}
}

// SetExporter attaches an external span exporter. Safe to call after Start;
// the flush loop reads the exporter under the same lock.
func (c *Collector) SetExporter(exp SpanExporter) {
	c.mu.Lock()
	c.exporter = exp
	c.mu.Unlock()
}

func (c *Collector) currentExporter() SpanExporter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.exporter
}

// Start begins the background flush loop.
func (c *Collector) Start() {
	c.wg.Add(1)
	go c.flushLoop()
	slog.Info("tracing collector started")
}

// Stop shuts down the collector, flushing remaining spans.
func (c *Collector) Stop() {
	close(c.stopCh)
	c.wg.Wait()

	if exp := c.currentExporter(); exp != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := exp.Shutdown(ctx); err != nil {
			slog.Warn("tracing: span exporter shutdown failed", "error", err)
		}
	}

	slog.Info("tracing collector stopped")
}

// EmitSpan enqueues a span for the next flush.
// Non-blocking: drops the span if the buffer is full.
func (c *Collector) EmitSpan(span SpanData) {
	if span.ID == uuid.Nil {
		span.ID = uuid.New()
	}
	if span.TraceID == uuid.Nil {
		span.TraceID = uuid.New()
	}
	if span.StartTime.IsZero() {
		span.StartTime = time.Now().UTC()
	}
	if !c.verbose {
		span.InputPreview = truncatePreview(span.InputPreview)
		span.OutputPreview = truncatePreview(span.OutputPreview)
	}

	select {
	case c.spanCh <- span:
	default:
		slog.Warn("tracing: span buffer full, dropping span",
			"span_type", span.SpanType, "name", span.Name)
	}
}

func (c *Collector) flushLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(defaultFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.flush()
		case <-c.stopCh:
			// Drain remaining spans
			c.flush()
			return
		}
	}
}

func (c *Collector) flush() {
	var spans []SpanData
	for {
		select {
		case span := <-c.spanCh:
			spans = append(spans, span)
		default:
			goto done
		}
	}
done:

	if len(spans) == 0 {
		return
	}

	slog.Debug("tracing: flushing spans", "count", len(spans))

	if exp := c.currentExporter(); exp != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		// Errors are logged by the exporter, never propagated
		exp.ExportSpans(ctx, spans)
	}
}

// truncatePreview sanitizes and truncates a string to previewMaxLen bytes.
func truncatePreview(s string) string {
	s = strings.ToValidUTF8(s, "")
	if len(s) <= previewMaxLen {
		return s
	}
	maxLen := previewMaxLen
	for maxLen > 0 && !utf8.RuneStart(s[maxLen]) {
		maxLen--
	}
	return s[:maxLen] + "..."
}
