package testhelpers

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/pageza/pantrychef/backend/internal/model"
)

// MockGenerator is a mock implementation of service.TextGenerator
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// MockInvalidator is a mock implementation of service.EmbeddingInvalidator
type MockInvalidator struct {
	mock.Mock
}

func (m *MockInvalidator) Forget(ctx context.Context, text string) error {
	args := m.Called(ctx, text)
	return args.Error(0)
}

// MemoryHistoryLog keeps appended recipes in memory. Err, when set, is
// returned from every Append.
type MemoryHistoryLog struct {
	mu      sync.Mutex
	Entries []model.Recipe
	Err     error
}

func (l *MemoryHistoryLog) Append(_ context.Context, recipe *model.Recipe) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Err != nil {
		return l.Err
	}
	l.Entries = append(l.Entries, *recipe)
	return nil
}

// Names returns the appended recipe names in order.
func (l *MemoryHistoryLog) Names() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	names := make([]string, len(l.Entries))
	for i, r := range l.Entries {
		names[i] = r.Name
	}
	return names
}
