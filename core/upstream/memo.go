package upstream

import (
	"context"
	"sync"
)

// memo caches GET responses within a single request/response cycle, so
// that repeated reads of the same upstream URL return the same bytes.
// Detail expansions run concurrently within one handler, hence the lock.
type memo struct {
	mu      sync.Mutex
	entries map[string]*Response
}

type contextKeyMemoType struct{}

var contextKeyMemo = &contextKeyMemoType{}

// ContextWithMemo installs a fresh request-scoped GET memo on the context.
func ContextWithMemo(ctx context.Context) context.Context {
	return context.WithValue(ctx, contextKeyMemo, &memo{
		entries: map[string]*Response{},
	})
}

func memoFromContext(ctx context.Context) *memo {
	if ctx == nil {
		return nil
	}
	m, ok := ctx.Value(contextKeyMemo).(*memo)
	if !ok {
		return nil
	}
	return m
}

func (m *memo) lookup(url string) (*Response, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res, ok := m.entries[url]
	return res, ok
}

func (m *memo) store(url string, res *Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[url] = res
}
