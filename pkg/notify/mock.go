package notify

import (
	"context"
	"errors"
	"sync"
)

// MockNotifier 记录所有发送内容，实现 Notifier 接口
type MockNotifier struct {
	mu       sync.Mutex
	Messages []string

	// FailNext 置为 true 时，下一次调用返回 mock 错误并自动复位
	FailNext bool
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{
		Messages: make([]string, 0),
	}
}

func (m *MockNotifier) Send(ctx context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Messages = append(m.Messages, text)

	if m.FailNext {
		m.FailNext = false
		return errors.New("mock notify failure")
	}
	return nil
}

func (m *MockNotifier) Name() string {
	return "mock"
}
