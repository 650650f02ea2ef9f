package service

import "fmt"

// ErrorKind classifies why a question batch could not be fetched.
type ErrorKind string

const (
	// ErrKindNetwork covers transport and API-call failures. These are retried
	// up to the attempt budget before being surfaced.
	ErrKindNetwork ErrorKind = "network"
	// ErrKindMalformedResponse means the provider envelope carried no usable
	// text. Not retried: the call itself succeeded.
	ErrKindMalformedResponse ErrorKind = "malformed_response"
	// ErrKindParseError means the returned text was not the expected JSON
	// array of questions. Not retried.
	ErrKindParseError ErrorKind = "parse_error"
)

// GenerationError is a classified batch-fetch failure.
type GenerationError struct {
	Kind ErrorKind
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("question generation failed (%s): %v", e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
