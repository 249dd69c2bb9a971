package backend

import (
	"context"
	"errors"
	"sync"

	"support-widget/internal/domain"
)

// MockReply es una respuesta programada del MockClient.
type MockReply struct {
	Response domain.Response
	Err      error
}

// MockClient permite tests sin llamar a un backend real. Devuelve las respuestas
// en orden y registra cada request recibido.
type MockClient struct {
	mu       sync.Mutex
	replies  []MockReply
	requests []domain.Request

	// Hook opcional que corre antes de responder; sirve para simular una llamada lenta.
	BeforeReply func(domain.Request)
}

func NewMockClient(replies ...MockReply) *MockClient {
	return &MockClient{replies: replies}
}

func (m *MockClient) Enqueue(replies ...MockReply) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, replies...)
}

func (m *MockClient) Send(_ context.Context, req domain.Request) (domain.Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	hook := m.BeforeReply
	m.mu.Unlock()

	if hook != nil {
		hook(req)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.replies) == 0 {
		return domain.Response{}, newError(KindTransport, 0, "no scripted reply", errors.New("mock exhausted"))
	}
	next := m.replies[0]
	m.replies = m.replies[1:]
	return next.Response, next.Err
}

// Requests devuelve una copia de los requests recibidos.
func (m *MockClient) Requests() []domain.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Request, len(m.requests))
	copy(out, m.requests)
	return out
}

func (m *MockClient) LastRequest() (domain.Request, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return domain.Request{}, false
	}
	return m.requests[len(m.requests)-1], true
}
