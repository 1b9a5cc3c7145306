package models

import "errors"

var (
	// ErrInvalidRequest is returned for malformed search requests. Nothing is embedded or searched.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrPersistence is returned when the document store cannot be read or written.
	ErrPersistence = errors.New("persistence error")
	// ErrEmbedding is returned when the embedding provider fails.
	ErrEmbedding = errors.New("embedding provider error")
	// ErrIndexBuild is returned when a vector index rebuild fails. The previous index keeps serving.
	ErrIndexBuild = errors.New("index build failed")
)
