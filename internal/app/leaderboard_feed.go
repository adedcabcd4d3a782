package app

import (
	"sync"

	"plotline-service/internal/domain"
)

// LeaderboardFeed fans out leaderboard snapshots to subscribers.
type LeaderboardFeed struct {
	mu          sync.Mutex
	subscribers map[chan domain.Leaderboard]struct{}
}

func NewLeaderboardFeed() *LeaderboardFeed {
	return &LeaderboardFeed{
		subscribers: make(map[chan domain.Leaderboard]struct{}),
	}
}

// Subscribe registers a receiver. Cancel is idempotent and closes the
// channel.
func (f *LeaderboardFeed) Subscribe() (<-chan domain.Leaderboard, func()) {
	ch := make(chan domain.Leaderboard, 8)

	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers lb to every subscriber. A full channel has its oldest
// snapshot dropped so slow readers never block the publisher; only the
// latest snapshot matters.
func (f *LeaderboardFeed) Publish(lb domain.Leaderboard) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers {
		select {
		case ch <- lb:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
}
