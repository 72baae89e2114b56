package transport

import (
	"sync"

	"github.com/jordan-wright/email"
)

// MockMailTransport collects mails instead of sending them.
type MockMailTransport struct {
	sync.RWMutex
	mails []*email.Email
}

func NewMock() *MockMailTransport {
	return &MockMailTransport{}
}

func (m *MockMailTransport) Send(mail *email.Email) error {
	m.Lock()
	defer m.Unlock()
	m.mails = append(m.mails, mail)
	return nil
}

func (m *MockMailTransport) GetLastSentMail() *email.Email {
	m.RLock()
	defer m.RUnlock()

	if len(m.mails) == 0 {
		return nil
	}
	return m.mails[len(m.mails)-1]
}

func (m *MockMailTransport) GetSentMailsCount() int {
	m.RLock()
	defer m.RUnlock()
	return len(m.mails)
}
