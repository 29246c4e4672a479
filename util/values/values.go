package values

type contextKey string

// Response statuses understood by util.StatusCode.
const (
	Success        = "success"
	Error          = "error"
	Created        = "created"
	BadRequestBody = "bad_request_body"
	Unprocessable  = "unprocessable"
	NotAllowed     = "not_allowed"
	Conflict       = "conflict"
	NotFound       = "not_found"
	NotAuthorised  = "not_authorised"
	TokenExpired   = "token_expired"
	BadGateway     = "bad_gateway"
)

const (
	HeaderRequestSource = "X-Request-Source"
	HeaderRequestID     = "X-Request-ID"
)

const (
	ContextTracingKey contextKey = "tracing"
	ContextSessionKey contextKey = "session"
)
