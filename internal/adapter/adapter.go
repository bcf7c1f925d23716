package adapter

import "context"

// Backend defines the contract for LLM inference servers.
type Backend interface {
	Name() string
	ListModels(ctx context.Context) ([]string, error)
	Generate(ctx context.Context, model, prompt string) (Stream, error)
	Available() bool
}

// Chunk is one incremental fragment of generated text. Done marks the final
// chunk of a generation; it may still carry text.
type Chunk struct {
	Text string
	Done bool
}

// Stream yields chunks of a single generation call. Recv returns io.EOF once
// the backend has no more output. Close must be called on every exit path.
type Stream interface {
	Recv() (Chunk, error)
	Close() error
}
