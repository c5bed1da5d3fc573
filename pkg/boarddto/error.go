package boarddto

// DomainError is the JSON body of every non-2xx API response.
type DomainError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "board service error"
}

const (
	CodeNotFound     = "not_found"
	CodeConflict     = "conflict"
	CodeTooManyGames = "too_many_games"
	CodeBadRequest   = "bad_request"
	CodeInternal     = "internal"
)
