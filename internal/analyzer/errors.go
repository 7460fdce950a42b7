package analyzer

import (
	"errors"
	"fmt"
)

// Sanitizer failures. Each one is a retry trigger for the attempt ladder;
// the ladder never branches on which kind it got.
var (
	// ErrEmptyResponse indicates the model returned nothing usable.
	ErrEmptyResponse = errors.New("empty model response")

	// ErrNoJSONFound indicates the response contained no JSON object at all.
	ErrNoJSONFound = errors.New("no JSON object found in model response")
)

// ParseError wraps a JSON decode failure for the candidate substring
// isolated by the sanitizer.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse model JSON: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// AnalysisError is the terminal failure returned once every attempt in the
// ladder has been exhausted. It wraps the final attempt's error.
type AnalysisError struct {
	Err error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis failed after all attempts: %v", e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}
