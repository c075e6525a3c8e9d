package audit

import "errors"

// ErrTaskNotFound is returned by task stores when no document matches.
var ErrTaskNotFound = errors.New("task not found")
