package composer

import "errors"

// ErrValidation marks a draft that is not ready for submission: either the
// asset is missing or no destination platform was selected.
var ErrValidation = errors.New("draft validation failed")
