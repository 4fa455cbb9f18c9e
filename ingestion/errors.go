package ingestion

import "errors"

var (
	// ErrRepositoryRequired is returned when a chunk repository is not provided.
	ErrRepositoryRequired = errors.New("chunk repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrInvalidCorpus is returned before any call when a statement is malformed.
	ErrInvalidCorpus = errors.New("invalid corpus")

	// ErrIndexLookup is returned when the store cannot report a scope's highest index.
	ErrIndexLookup = errors.New("chunk index lookup failed")

	// ErrDimensionLookup is returned when the store cannot report the vector
	// lengths already stored for a figure.
	ErrDimensionLookup = errors.New("embedding dimension lookup failed")

	// ErrDimensionMismatch marks a vector whose length differs from the run's
	// or from the vectors already stored for its figure.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrTooManyFailures is returned when the configured failure ceiling is reached.
	ErrTooManyFailures = errors.New("too many failed statements")

	// ErrInvalidOption is returned for out-of-range option values.
	ErrInvalidOption = errors.New("invalid pipeline option")
)
