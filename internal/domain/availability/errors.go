package availability

import (
	"errors"
	"fmt"
)

// Kind classifies a terminal resolution failure.
type Kind string

const (
	KindInvalidRequest       Kind = "invalid_request"
	KindExaminationNotFound  Kind = "examination_not_found"
	KindNoQualifiedProviders Kind = "no_qualified_providers"
	KindAllDeclined          Kind = "all_declined"
	KindDueDatePassed        Kind = "due_date_passed"
	KindNoSlotsGenerated     Kind = "no_slots_generated"
)

// Sentinels for errors.Is checks against a *ResolutionError.
var (
	ErrInvalidRequest       = errors.New("invalid availability request")
	ErrExaminationNotFound  = errors.New("examination not found")
	ErrNoQualifiedProviders = errors.New("no qualified providers")
	ErrAllDeclined          = errors.New("all qualified examiners declined")
	ErrDueDatePassed        = errors.New("examination due date has passed")
	ErrNoSlotsGenerated     = errors.New("no slots generated")
)

var kindSentinels = map[Kind]error{
	KindInvalidRequest:       ErrInvalidRequest,
	KindExaminationNotFound:  ErrExaminationNotFound,
	KindNoQualifiedProviders: ErrNoQualifiedProviders,
	KindAllDeclined:          ErrAllDeclined,
	KindDueDatePassed:        ErrDueDatePassed,
	KindNoSlotsGenerated:     ErrNoSlotsGenerated,
}

// ResolutionError is returned when a request cannot produce a grid. It is
// never accompanied by a partial result.
type ResolutionError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// Is matches the sentinel that corresponds to the error's kind.
func (e *ResolutionError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

func newResolutionError(kind Kind, format string, args ...any) *ResolutionError {
	return &ResolutionError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of a resolution error, or "" for any other error.
func KindOf(err error) Kind {
	var re *ResolutionError
	if errors.As(err, &re) {
		return re.Kind
	}
	return ""
}

// DataIntegrityError reports a stored value that could not be normalized.
type DataIntegrityError struct {
	ProviderID string
	Field      string
	Value      string
	Err        error
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("provider %s: invalid %s %q: %v", e.ProviderID, e.Field, e.Value, e.Err)
}

func (e *DataIntegrityError) Unwrap() error { return e.Err }
