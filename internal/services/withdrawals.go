package services

import (
	"sync"
	"time"
)

// pendingWithdrawal is the in-memory side of a scheduled withdrawal. The
// amount may be updated in place while active; the timer and commit time
// are fixed at scheduling.
type pendingWithdrawal struct {
	amount    int64
	commitsAt time.Time
	active    bool
	timer     *time.Timer
}

// withdrawalSnapshot is a copy handed out to callers so registry state is
// never read outside the lock.
type withdrawalSnapshot struct {
	Amount    int64
	CommitsAt time.Time
	Active    bool
}

// withdrawalRegistry tracks at most one pending withdrawal per user. An
// entry moves NONE -> ACTIVE when armed, loops ACTIVE -> ACTIVE on amount
// updates, and leaves through deactivate (timer fired) followed by remove
// once the commit settled.
type withdrawalRegistry struct {
	mu      sync.Mutex
	entries map[string]*pendingWithdrawal
}

func newWithdrawalRegistry() *withdrawalRegistry {
	return &withdrawalRegistry{
		entries: make(map[string]*pendingWithdrawal),
	}
}

func (r *withdrawalRegistry) snapshot(userID string) (withdrawalSnapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[userID]
	if !ok {
		return withdrawalSnapshot{}, false
	}
	return withdrawalSnapshot{
		Amount:    entry.amount,
		CommitsAt: entry.commitsAt,
		Active:    entry.active,
	}, true
}

// arm schedules a withdrawal and reports true, unless one is already
// active for the user, in which case only the amount is replaced and the
// previous amount is reported with false. The original timer keeps running
// either way.
func (r *withdrawalRegistry) arm(
	userID string, amount int64, commitsAt time.Time, fire func(),
) (previousAmount int64, armed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.entries[userID]; ok && entry.active {
		previousAmount = entry.amount
		entry.amount = amount
		return previousAmount, false
	}

	r.entries[userID] = &pendingWithdrawal{
		amount:    amount,
		commitsAt: commitsAt,
		active:    true,
		timer:     time.AfterFunc(time.Until(commitsAt), fire),
	}
	return 0, true
}

// deactivate flips the entry inactive and returns the amount to commit.
// The entry itself stays registered until remove; queries arriving while
// the commit upsert runs already observe no active withdrawal.
func (r *withdrawalRegistry) deactivate(userID string) (amount int64, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.entries[userID]
	if !exists || !entry.active {
		return 0, false
	}
	entry.active = false
	return entry.amount, true
}

// remove drops a settled entry. An active entry is left alone: a new
// withdrawal may have been armed for the same user while the old commit
// was settling.
func (r *withdrawalRegistry) remove(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.entries[userID]; ok && !entry.active {
		entry.timer.Stop()
		delete(r.entries, userID)
	}
}

func (r *withdrawalRegistry) removeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for userID, entry := range r.entries {
		entry.timer.Stop()
		delete(r.entries, userID)
	}
}

func (r *withdrawalRegistry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.entries)
}
