package tracing

// Context carries request identifiers across the handler/helper/repo layers
// so log lines from a single request can be correlated.
type Context struct {
	RequestID     string `json:"request_id"`
	RequestSource string `json:"request_source"`
}
