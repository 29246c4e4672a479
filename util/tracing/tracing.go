package tracing

import "fmt"

// Context carries the per-request identifiers set by the tracing middleware.
type Context struct {
	RequestID     string
	RequestSource string
}

func (c Context) String() string {
	return fmt.Sprintf("request_id=%s source=%s", c.RequestID, c.RequestSource)
}
