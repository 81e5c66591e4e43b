package formation

import (
	"errors"
	"fmt"

	"github.com/internhub/backend/internal/store"
)

var (
	ErrUnsupportedQuestionType = errors.New("unsupported question type")
	ErrDelegateUnavailable     = errors.New("team formation service unavailable")
	ErrEmptyCompletion         = errors.New("team formation service returned no content")
	ErrSchemaMismatch          = errors.New("team formation response does not match the expected schema")
	ErrFormationInProgress     = errors.New("team formation already in progress")
)

// MalformedAnswerError reports a quiz response that cannot be mapped onto the question
// catalogue.
type MalformedAnswerError struct {
	Username string
	Question int // question id, 0 when the whole response is misaligned
	Reason   string
}

func (e *MalformedAnswerError) Error() string {
	if e.Question == 0 {
		return fmt.Sprintf("malformed answers from %q: %s", e.Username, e.Reason)
	}
	return fmt.Sprintf("malformed answer from %q to question %d: %s", e.Username, e.Question, e.Reason)
}

// IsDataIntegrity reports whether err comes from stored data that is inconsistent or
// unreadable rather than from the caller or the completion service.
func IsDataIntegrity(err error) bool {
	var mae *MalformedAnswerError
	return errors.As(err, &mae) ||
		errors.Is(err, ErrUnsupportedQuestionType) ||
		errors.Is(err, store.ErrMalformedCollection)
}

// IsDelegateFailure reports whether err comes from the completion service.
func IsDelegateFailure(err error) bool {
	return errors.Is(err, ErrDelegateUnavailable) ||
		errors.Is(err, ErrEmptyCompletion) ||
		errors.Is(err, ErrSchemaMismatch)
}
