package safety

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// ErrPlaceRequired indicates a missing or blank place name.
var ErrPlaceRequired = eris.New("safety: place is required")

// NotFoundError indicates the resolver could not map the place to a
// coordinate. Surfaced to the caller as a client error.
type NotFoundError struct {
	Place string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("safety: no location found for %q", e.Place)
}

// ClassifierError indicates the shared classifier artifact failed to produce
// a prediction. This is a deployment defect, not upstream flakiness, so it
// fails the whole request.
type ClassifierError struct {
	Err error
}

func (e *ClassifierError) Error() string {
	return "safety: classifier failure: " + e.Err.Error()
}

func (e *ClassifierError) Unwrap() error {
	return e.Err
}
