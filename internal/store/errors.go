package store

import "errors"

// ErrNotFound signals that a blob has never been saved.
var ErrNotFound = errors.New("store: state not found")
