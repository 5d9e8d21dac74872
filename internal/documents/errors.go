package documents

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrNotExtracted = errors.New("document not yet extracted")
)
