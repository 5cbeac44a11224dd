package weight

import "errors"

// ErrMissingField is returned when a task lacks a field the weight depends on.
var ErrMissingField = errors.New("task is missing a required field")
