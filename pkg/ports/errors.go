package ports

import (
	"errors"
)

// Error classes shared by adapters and stages. Adapters wrap them with %w so
// callers can test with errors.Is.
var (
	// ErrEngineClosed means the engine or its page went away mid-operation.
	// It is the only transient class: retrying on a fresh engine may succeed.
	ErrEngineClosed = errors.New("engine closed")

	// ErrRenderTimeout means a render exceeded its deadline.
	ErrRenderTimeout = errors.New("render timeout")

	// ErrInvalidMarkup means the document is empty or lacks the container.
	ErrInvalidMarkup = errors.New("invalid markup")

	// ErrInvalidConfig means the render configuration or policy is malformed.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrPoolClosed means the pool has been shut down.
	ErrPoolClosed = errors.New("pool closed")

	// ErrEngineUnavailable means the pool could not hand out an engine after
	// its retry budget.
	ErrEngineUnavailable = errors.New("engine unavailable")
)

// IsEngineClosed reports whether err belongs to the transient engine class.
func IsEngineClosed(err error) bool {
	return errors.Is(err, ErrEngineClosed)
}

// ErrPostNotFound means a post source has no post with the requested ID.
var ErrPostNotFound = errors.New("post not found")
