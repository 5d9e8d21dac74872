package questions

import "errors"

// ErrNotFound indicates the question does not exist.
var ErrNotFound = errors.New("question not found")

// ErrTerminal indicates the question already reached a terminal status.
var ErrTerminal = errors.New("question already terminal")
