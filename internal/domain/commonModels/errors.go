package commonModels

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindConfiguration ErrorKind = "ConfigurationError"
	KindLoad          ErrorKind = "LoadError"
	KindRetrieval     ErrorKind = "RetrievalError"
	KindGeneration    ErrorKind = "GenerationError"
)

// Sentinels for errors.Is checks. A StageError matches the sentinel of its kind.
var (
	ErrConfiguration = errors.New(string(KindConfiguration))
	ErrLoad          = errors.New(string(KindLoad))
	ErrRetrieval     = errors.New(string(KindRetrieval))
	ErrGeneration    = errors.New(string(KindGeneration))
)

type StageError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *StageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func (e *StageError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindConfiguration:
		return ErrConfiguration
	case KindLoad:
		return ErrLoad
	case KindRetrieval:
		return ErrRetrieval
	case KindGeneration:
		return ErrGeneration
	}
	return nil
}

func ConfigurationError(op string, err error) error {
	return &StageError{Kind: KindConfiguration, Op: op, Err: err}
}

func LoadError(op string, err error) error {
	return &StageError{Kind: KindLoad, Op: op, Err: err}
}

func RetrievalError(op string, err error) error {
	return &StageError{Kind: KindRetrieval, Op: op, Err: err}
}

func GenerationError(op string, err error) error {
	return &StageError{Kind: KindGeneration, Op: op, Err: err}
}

// KindOf reports the taxonomy kind of err, or "" when err is not a StageError.
func KindOf(err error) ErrorKind {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}
