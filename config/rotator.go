package config

import (
	"math/rand/v2"
	"sync"
)

// DefaultUserAgents is a small pool of current desktop browser user agents.
func DefaultUserAgents() []string {
	return []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_4_1) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4.1 Safari/605.1.15",
	}
}

type UserAgentRotator struct {
	agents []string
	index  int
	mu     sync.Mutex
}

func NewUserAgentRotator(agents []string) *UserAgentRotator {
	if len(agents) == 0 {
		agents = DefaultUserAgents()
	}
	return &UserAgentRotator{agents: agents}
}

// Next returns user agents in round-robin order.
func (uar *UserAgentRotator) Next() string {
	uar.mu.Lock()
	defer uar.mu.Unlock()

	userAgent := uar.agents[uar.index]
	uar.index = (uar.index + 1) % len(uar.agents)
	return userAgent
}

// Random picks a user agent uniformly.
func (uar *UserAgentRotator) Random() string {
	return uar.agents[rand.IntN(len(uar.agents))]
}
