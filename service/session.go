package service

import (
	"errors"
	"sync"
	"time"
)

var ErrSessionClosed = errors.New("voting session is closed")

type VotingSession struct {
	startTime time.Time
	endTime   time.Time
	isActive  bool
	mu        sync.RWMutex
}

func NewVotingSession(duration time.Duration) *VotingSession {
	now := time.Now()
	return &VotingSession{
		startTime: now,
		endTime:   now.Add(duration),
		isActive:  true,
	}
}

func (vs *VotingSession) IsActive() bool {
	vs.mu.RLock()
	defer vs.mu.RUnlock()
	return vs.isActive && time.Now().Before(vs.endTime)
}

// Remaining is zero once the session has ended.
func (vs *VotingSession) Remaining() time.Duration {
	vs.mu.RLock()
	defer vs.mu.RUnlock()
	if !vs.isActive {
		return 0
	}
	if d := time.Until(vs.endTime); d > 0 {
		return d
	}
	return 0
}

func (vs *VotingSession) End() {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	vs.isActive = false
	vs.endTime = time.Now()
}
