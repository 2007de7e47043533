package oracle

import (
	"context"
	"sync"
)

// Fake is a scripted Client for tests in other packages.
type Fake struct {
	mu      sync.Mutex
	Reply   func(prompt string, image []byte) (string, error)
	Calls   int
	Prompts []string
}

func (f *Fake) Generate(_ context.Context, prompt string, image []byte) (string, error) {
	f.mu.Lock()
	f.Calls++
	f.Prompts = append(f.Prompts, prompt)
	reply := f.Reply
	f.mu.Unlock()

	if reply == nil {
		return "", nil
	}
	return reply(prompt, image)
}

func (f *Fake) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls
}
