package usecase

import (
	"fmt"
	"sync"
)

// Member tiers and the number of plans each may watch.
const (
	TierBasic = "basic"
	TierSaver = "saver"
	TierWhale = "whale"
)

var tierLimits = map[string]int{
	TierBasic: 1,
	TierSaver: 3,
	TierWhale: 5,
}

// TierPolicy maps users to member tiers. Unknown users get the basic limit.
type TierPolicy struct {
	mu    sync.RWMutex
	users map[string]string // user id -> tier
}

func NewTierPolicy(users map[string]string) *TierPolicy {
	p := &TierPolicy{users: make(map[string]string, len(users))}
	for u, t := range users {
		p.users[u] = t
	}
	return p
}

func (p *TierPolicy) TierLimit(userID string) int {
	p.mu.RLock()
	tier := p.users[userID]
	p.mu.RUnlock()

	if limit, ok := tierLimits[tier]; ok {
		return limit
	}
	return tierLimits[TierBasic]
}

func (p *TierPolicy) Tier(userID string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if t, ok := p.users[userID]; ok {
		return t
	}
	return TierBasic
}

func (p *TierPolicy) SetTier(userID, tier string) error {
	if _, ok := tierLimits[tier]; !ok {
		return fmt.Errorf("unknown tier %q", tier)
	}
	p.mu.Lock()
	p.users[userID] = tier
	p.mu.Unlock()
	return nil
}
