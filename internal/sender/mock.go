// internal/sender/mock.go
package sender

import (
	"context"
	"sync"

	apperrors "github.com/scalixity/campaign-backend/internal/errors"
)

// Call records one delivery attempt made through a Mock.
type Call struct {
	Phone   string
	Message string
}

// Mock is a scriptable sender for tests and dry runs. With a nil Accept
// function every send succeeds.
type Mock struct {
	mu     sync.Mutex
	calls  []Call
	Accept func(phone, message string) (bool, error)
}

func (m *Mock) Send(_ context.Context, phone, message string) (bool, error) {
	m.mu.Lock()
	m.calls = append(m.calls, Call{Phone: phone, Message: message})
	fn := m.Accept
	m.mu.Unlock()

	if fn == nil {
		return true, nil
	}
	return fn(phone, message)
}

// Calls returns a copy of the attempts made so far.
func (m *Mock) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// Unconfigured stands in for the provider client when credentials are absent.
// Every campaign dispatched through it fails fast with a configuration error
// instead of hammering the provider with unauthenticated requests.
type Unconfigured struct{}

func (Unconfigured) Send(context.Context, string, string) (bool, error) {
	return false, apperrors.NewFatalConfiguration("whatsapp credentials are not configured")
}
