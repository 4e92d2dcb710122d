package usecase

import (
	"errors"
	"fmt"
)

// Terminal negative outcomes. Each is recorded in the ledger as not-found.
var (
	ErrInsufficientMetadata = errors.New("record has neither author nor title")
	ErrNoSourcesDiscovered  = errors.New("search returned no usable urls")
	ErrNoRelevantSource     = errors.New("no source passed the relevance threshold")
	ErrDescriptionNotFound  = errors.New("model reported no descriptive information")
	ErrBookNotFound         = errors.New("book not found in catalog")
)

// ErrGenerationInProgress is returned when another caller holds a live claim.
var ErrGenerationInProgress = errors.New("description generation already in progress")

// SynthesisError wraps unexpected failures of the text completion capability.
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesize annotation: %v", e.Err)
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a definitive "no description" outcome.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrInsufficientMetadata) ||
		errors.Is(err, ErrNoSourcesDiscovered) ||
		errors.Is(err, ErrNoRelevantSource) ||
		errors.Is(err, ErrDescriptionNotFound) ||
		errors.Is(err, ErrBookNotFound)
}
