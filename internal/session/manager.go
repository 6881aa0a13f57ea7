package session

import (
	"sync"
)

// sessionLock - мьютекс одной сессии и число его держателей и ожидающих.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// Manager упорядочивает обмены сообщениями внутри одной сессии.
// Разные сессии обрабатываются параллельно; запись о сессии удаляется,
// как только ее никто не держит и не ждет.
type Manager struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

// NewManager создает и возвращает новый экземпляр Manager.
func NewManager() *Manager {
	return &Manager{locks: make(map[string]*sessionLock)}
}

// Lock блокирует сессию и возвращает функцию разблокировки.
// Повторный вызов unlock безопасен.
func (m *Manager) Lock(sessionID string) (unlock func()) {
	m.mu.Lock()
	l, ok := m.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		m.locks[sessionID] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()
			m.mu.Lock()
			l.refs--
			if l.refs == 0 {
				delete(m.locks, sessionID)
			}
			m.mu.Unlock()
		})
	}
}

// Active возвращает число сессий, которые сейчас заблокированы или ожидают блокировки.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}
