package cache

import (
	"time"

	"registros/internal/core"
)

// LastKnown remembers the most recent record set loaded for each user, so
// a failed reload can still show what the user last saw.
type LastKnown struct {
	sets *LRUCache[[]core.Record]
}

// NewLastKnown keeps up to maxUsers sets, each for at most ttl.
func NewLastKnown(maxUsers int, ttl time.Duration) *LastKnown {
	return &LastKnown{sets: NewLRUCache[[]core.Record](maxUsers, ttl)}
}

// Remember stores a copy of records as the user's current set.
func (l *LastKnown) Remember(userID string, records []core.Record) {
	l.sets.Set(userID, append([]core.Record(nil), records...))
}

// Recall returns the user's last set. Reading it does not count as use:
// only successful loads keep a user's set from being evicted.
func (l *LastKnown) Recall(userID string) ([]core.Record, bool) {
	return l.sets.Peek(userID)
}

func (l *LastKnown) Forget(userID string) {
	l.sets.Delete(userID)
}

// Users returns how many sets are held.
func (l *LastKnown) Users() int {
	return l.sets.Size()
}

func (l *LastKnown) CleanExpired() int {
	return l.sets.CleanExpired()
}
