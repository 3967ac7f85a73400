package internalerr

import "github.com/cockroachdb/errors"

// Sentinel errors for common cases
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidCorpus = errors.New("invalid corpus")
	ErrInvalidIndex  = errors.New("invalid index")
	ErrIndexMismatch = errors.New("index analysis does not match matcher strategy")
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrDetection     = errors.New("language detection failed")
	ErrCacheMiss     = errors.New("cache miss")
)
