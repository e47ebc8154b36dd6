package types

// ErrorEnvelope is the failure body: a short message plus optional validation details.
type ErrorEnvelope struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// ListEnvelope wraps paginated collections.
type ListEnvelope[T any] struct {
	Items   []T   `json:"items"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
}
