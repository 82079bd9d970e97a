package services

// Error types for service-layer failures

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

// GenerationError covers AI provider failures: missing configuration,
// upstream API errors, and unusable model output.
type GenerationError struct{ Message string }

func (e *GenerationError) Error() string { return e.Message }

type RateLimitError struct{ Message string }

func (e *RateLimitError) Error() string { return e.Message }
