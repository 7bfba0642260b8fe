package model

// AppError is the only error payload returned by this service in "strict mode".
// Every stage error in the pipeline carries one, so the HTTP layer and the
// operator diagnostic see the same fields.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Stage   string `json:"stage"`

	Snippet string `json:"snippet,omitempty"` // <= 200 chars
	Hint    string `json:"hint,omitempty"`
}

type ErrorResponse struct {
	Error AppError `json:"error"`
}
