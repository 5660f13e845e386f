package protocol

// Error codes surfaced in HTTP error envelopes and eval result markers.
const (
	ErrInvalidRequest = "INVALID_REQUEST"
	ErrUnauthorized   = "UNAUTHORIZED"
	ErrRateLimited    = "RATE_LIMITED"
	ErrUpstream       = "UPSTREAM_ERROR"
	ErrEvalTransport  = "EVAL_TRANSPORT"
	ErrInternal       = "INTERNAL"
)
