package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Kabir-Narula/Mindful-Ai-DPS-sub000/internal/store"
)

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// newTestStore opens a named in-memory database with a shared cache: plain
// ":memory:" gives every pooled connection its own empty database, which
// breaks tests where a background task touches the store.
func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	dbStore, err := store.NewSQLiteStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { dbStore.Close() })
	return dbStore
}

// fakeCompleter returns canned responses in order, holding the last one, or a
// fixed error. Calls are counted.
type fakeCompleter struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     int
}

func (f *fakeCompleter) Complete(ctx context.Context, systemInstruction, userPrompt string, opts GenOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "{}", nil
	}
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return resp, nil
}

func (f *fakeCompleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
