package eval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/civicaid-labs/civicaid/pkg/protocol"
)

// Result is derived per Case at run time: the case plus what the endpoint
// actually returned, or an error marker when the call failed.
type Result struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
	ActualOutput   string `json:"actual_output,omitempty"`
	Err            string `json:"error,omitempty"`
	Code           string `json:"code,omitempty"`
	LatencyMS      int64  `json:"latency_ms"`
}

// Failed reports whether this case's call failed.
func (r Result) Failed() bool { return r.Err != "" }

// Runner replays cases against an /ask endpoint. Sequential by default; a
// concurrency above one uses a bounded worker pool with per-entry failure
// isolation. Output order always matches input order.
type Runner struct {
	endpointURL string
	authToken   string
	client      *http.Client
	concurrency int
}

// RunnerOptions tunes a Runner. Zero values mean sequential calls with a
// 60-second per-case timeout.
type RunnerOptions struct {
	AuthToken   string
	Timeout     time.Duration
	Concurrency int
}

// NewRunner creates a Runner for the given /ask endpoint URL.
func NewRunner(endpointURL string, opts RunnerOptions) *Runner {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{
		endpointURL: endpointURL,
		authToken:   opts.AuthToken,
		client:      &http.Client{Timeout: timeout},
		concurrency: concurrency,
	}
}

// Run issues one HTTP call per case and returns exactly one Result per Case,
// in input order. A failed call is recorded in that case's result and the
// run continues over the rest of the dataset.
func (r *Runner) Run(ctx context.Context, cases []Case) []Result {
	results := make([]Result, len(cases))

	if r.concurrency == 1 {
		for i, c := range cases {
			results[i] = r.runCase(ctx, i, c)
		}
		return results
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, c := range cases {
		g.Go(func() error {
			results[i] = r.runCase(gctx, i, c)
			return nil // per-entry failures are recorded, never propagated
		})
	}
	g.Wait()
	return results
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer string `json:"answer"`
}

func (r *Runner) runCase(ctx context.Context, seq int, c Case) Result {
	result := Result{Input: c.Input, ExpectedOutput: c.ExpectedOutput}

	start := time.Now()
	answer, err := r.ask(ctx, c.Input)
	result.LatencyMS = time.Since(start).Milliseconds()

	if err != nil {
		result.Err = err.Error()
		result.Code = protocol.ErrEvalTransport
		slog.Warn("eval case failed", "seq", seq, "error", err)
		return result
	}

	result.ActualOutput = answer
	slog.Info("eval case done", "seq", seq, "latency_ms", result.LatencyMS)
	return result
}

func (r *Runner) ask(ctx context.Context, question string) (string, error) {
	body, err := json.Marshal(askRequest{Question: question})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpointURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+r.authToken)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("post %s: %w", r.endpointURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("endpoint returned %d: %s", resp.StatusCode, bytes.TrimSpace(data))
	}

	var out askResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return out.Answer, nil
}
