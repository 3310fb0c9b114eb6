package auth

import (
	"context"
	"sync"
	"time"
)

// RevocationSet 已吊销令牌集合；条目在 until 之后可以被丢弃
type RevocationSet interface {
	Add(ctx context.Context, token string, until time.Time) error
	Contains(ctx context.Context, token string) (bool, error)
}

// MemoryRevocationSet 进程内集合，重启后清空
type MemoryRevocationSet struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemoryRevocationSet() *MemoryRevocationSet {
	return &MemoryRevocationSet{entries: make(map[string]time.Time), now: time.Now}
}

func (s *MemoryRevocationSet) Add(_ context.Context, token string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	s.entries[token] = until
	return nil
}

func (s *MemoryRevocationSet) Contains(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	until, ok := s.entries[token]
	if !ok {
		return false, nil
	}
	if !s.now().Before(until) {
		delete(s.entries, token)
		return false, nil
	}
	return true, nil
}

// Len 当前条目数（含尚未清理的过期条目）
func (s *MemoryRevocationSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryRevocationSet) pruneLocked() {
	now := s.now()
	for tok, until := range s.entries {
		if !now.Before(until) {
			delete(s.entries, tok)
		}
	}
}
