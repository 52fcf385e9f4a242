package middleware

import (
	"sync"
	"time"
)

// RateLimiter ограничивает число апдейтов от одного пользователя
// скользящим окном: не больше limit событий за window.
type RateLimiter struct {
	mu     sync.Mutex
	hits   map[int64][]time.Time
	limit  int
	window time.Duration
	now    func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewRateLimiter запускает фоновую очистку. limit <= 0 отключает ограничение.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		hits:   make(map[int64][]time.Time),
		limit:  limit,
		window: window,
		now:    time.Now,
		stopCh: make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// Close останавливает фоновую очистку. Вызывается на shutdown.
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Allow регистрирует событие и сообщает, укладывается ли пользователь в лимит.
// Отклонённые события в окно не засчитываются.
func (rl *RateLimiter) Allow(telegramID int64) bool {
	if rl.limit <= 0 {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	recent := prune(rl.hits[telegramID], now.Add(-rl.window))
	if len(recent) >= rl.limit {
		rl.hits[telegramID] = recent
		return false
	}
	rl.hits[telegramID] = append(recent, now)
	return true
}

// prune отбрасывает отметки не позже cutoff. Отметки идут по возрастанию.
func prune(times []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(times) && !times[i].After(cutoff) {
		i++
	}
	return times[i:]
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			rl.mu.Lock()
			cutoff := rl.now().Add(-rl.window)
			for id, times := range rl.hits {
				if recent := prune(times, cutoff); len(recent) == 0 {
					delete(rl.hits, id)
				} else {
					rl.hits[id] = recent
				}
			}
			rl.mu.Unlock()
		}
	}
}
