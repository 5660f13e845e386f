package http

import (
	"net/http"
	"time"

	"github.com/civicaid-labs/civicaid/internal/agent"
)

// ServerOptions configures the gateway HTTP server.
type ServerOptions struct {
	Addr           string
	AuthToken      string // empty = auth disabled
	RateLimitRPM   int    // 0 = disabled
	RateLimitBurst int
}

// NewServer assembles the gateway routes around the assistant.
// Write timeout is generous: a single /ask blocks on the upstream model call.
func NewServer(assistant *agent.Assistant, opts ServerOptions) *http.Server {
	ask := NewAskHandler(assistant, opts.AuthToken)
	if opts.RateLimitRPM > 0 {
		rl := NewRateLimiter(opts.RateLimitRPM, opts.RateLimitBurst)
		ask.SetRateLimiter(rl.Allow)
	}

	mux := http.NewServeMux()
	mux.Handle("/ask", ask)
	mux.Handle("/healthz", HealthHandler{})

	return &http.Server{
		Addr:              opts.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      120 * time.Second,
	}
}
