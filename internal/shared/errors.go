package shared

import "fmt"

var (
	// Persistence errors
	ErrNotFound     = fmt.Errorf("not found")
	ErrStorageFault = fmt.Errorf("storage fault")

	// Content errors
	ErrValidation      = fmt.Errorf("invalid content")
	ErrResourceMissing = fmt.Errorf("resource not found")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
