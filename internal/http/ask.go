package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/civicaid-labs/civicaid/internal/agent"
	"github.com/civicaid-labs/civicaid/internal/providers"
	"github.com/civicaid-labs/civicaid/pkg/protocol"
)

// AskHandler handles POST /ask: one question in, one answer out.
type AskHandler struct {
	assistant   *agent.Assistant
	token       string // expected bearer token (empty = no auth)
	rateLimiter func(string) (bool, time.Duration)
}

// NewAskHandler creates the handler for the ask endpoint.
func NewAskHandler(assistant *agent.Assistant, token string) *AskHandler {
	return &AskHandler{assistant: assistant, token: token}
}

// SetRateLimiter sets the rate limiter check: key in, allowed plus the wait
// before the caller should retry when throttled.
func (h *AskHandler) SetRateLimiter(fn func(string) (bool, time.Duration)) {
	h.rateLimiter = fn
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer string `json:"answer"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: errorBody{Code: code, Message: message}})
}

func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Auth check (timing-safe comparison)
	if !tokenMatch(extractBearerToken(r), h.token) {
		writeError(w, http.StatusUnauthorized, protocol.ErrUnauthorized, "invalid authentication")
		return
	}

	// Rate limit check (per bearer token or IP)
	if h.rateLimiter != nil {
		key := r.RemoteAddr
		if token := extractBearerToken(r); token != "" {
			key = "token:" + token
		}
		if allowed, retryIn := h.rateLimiter(key); !allowed {
			secs := int(retryIn / time.Second)
			if retryIn%time.Second > 0 || secs < 1 {
				secs++
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			writeError(w, http.StatusTooManyRequests, protocol.ErrRateLimited, "rate limit exceeded")
			return
		}
	}

	// Limit request body size to prevent DoS
	const maxRequestBodySize = 1 << 20 // 1MB
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, protocol.ErrInvalidRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, protocol.ErrInvalidRequest, "question is required")
		return
	}

	runID := uuid.NewString()
	slog.Info("ask request", "run", runID[:8], "chars", len(req.Question))

	answer, err := h.assistant.Answer(r.Context(), req.Question)
	if err != nil {
		switch {
		case errors.Is(err, agent.ErrEmptyQuestion):
			writeError(w, http.StatusBadRequest, protocol.ErrInvalidRequest, err.Error())
		case providers.IsUpstream(err):
			slog.Error("upstream call failed", "run", runID[:8], "error", err)
			writeError(w, http.StatusBadGateway, protocol.ErrUpstream, "model provider call failed")
		default:
			slog.Error("ask failed", "run", runID[:8], "error", err)
			writeError(w, http.StatusInternalServerError, protocol.ErrInternal, "internal error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(askResponse{Answer: answer})
}
