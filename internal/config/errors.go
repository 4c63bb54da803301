package config

import "errors"

var (
	errInvalidJobs      = errors.New("config: jobs must be >= 1")
	errInvalidChunkSize = errors.New("config: chunk_size must be >= 1")
)
