package vlm

import (
	"context"
	"sync"
)

// Fake returns a canned description or error and counts calls.
type Fake struct {
	Text  string
	Err   error
	Block chan struct{}

	mu    sync.Mutex
	calls int
}

func (f *Fake) Describe(ctx context.Context, _ []byte) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.Block != nil {
		select {
		case <-f.Block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	return f.Text, f.Err
}

func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
