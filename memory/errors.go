package memory

import "github.com/pkg/errors"

var (
	// ErrValidation indicates a rejected input (empty text, bad id, bad
	// paging values, unknown search mode).
	ErrValidation = errors.New("validation failed")

	// ErrEmbedding indicates the embedding provider call failed.
	ErrEmbedding = errors.New("embedding failed")

	// ErrGeneration indicates the chat completion call failed.
	ErrGeneration = errors.New("generation failed")

	// ErrFormat indicates the model returned output that cannot be used,
	// such as an empty merge result.
	ErrFormat = errors.New("malformed model output")
)
