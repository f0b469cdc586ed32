package llm

import "context"

// Stream is a pull-based sequence of answer deltas. Cancellation is
// expressed by not calling Recv again and closing the stream; Close must
// release the underlying connection on every exit path.
type Stream interface {
	Recv() (delta string, done bool, err error)
	Close() error
}

// Generator produces a streamed answer for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (Stream, error)
}
