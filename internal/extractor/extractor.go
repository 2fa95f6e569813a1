package extractor

import (
	"context"
	"errors"
)

// Extraction failures callers branch on.
var (
	ErrPasswordRequired  = errors.New("document is password protected")
	ErrPasswordIncorrect = errors.New("document password is incorrect")
	ErrUnreadable        = errors.New("document has no readable text")
)

// Extractor turns an uploaded document into a single text blob.
type Extractor interface {
	Extract(ctx context.Context, data []byte, password string) (string, error)
}
