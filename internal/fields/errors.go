package fields

import "errors"

// ErrNotExtracted indicates no field extraction has run for the document.
var ErrNotExtracted = errors.New("fields not extracted")
