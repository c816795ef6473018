package proxy

import (
	"math/rand/v2"
	"sync"
)

// Identity is the browser fingerprint used for one crawl session.
type Identity struct {
	UserAgent string
	// Proxy is empty when the session connects directly.
	Proxy string
}

// Manager handles the rotation of proxies and user agents.
type Manager struct {
	proxies    []string
	userAgents []string
	mu         sync.Mutex
	proxyIndex int
}

func NewManager(userAgents, proxies []string) *Manager {
	return &Manager{
		proxies:    append([]string(nil), proxies...),
		userAgents: append([]string(nil), userAgents...),
	}
}

// Next returns a random user agent and the next proxy in sequence.
func (m *Manager) Next() Identity {
	return Identity{UserAgent: m.UserAgent(), Proxy: m.Proxy()}
}

// Proxy returns a proxy URL from the list, rotating sequentially.
func (m *Manager) Proxy() string {
	if len(m.proxies) == 0 {
		return ""
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.proxies[m.proxyIndex]
	m.proxyIndex = (m.proxyIndex + 1) % len(m.proxies)
	return p
}

// UserAgent returns a random user agent string.
func (m *Manager) UserAgent() string {
	if len(m.userAgents) == 0 {
		return ""
	}
	return m.userAgents[rand.IntN(len(m.userAgents))]
}
