package members

import (
	"sync"

	"github.com/angelmondragon/venuepos/pkg/db/models"
	pkgerrors "github.com/angelmondragon/venuepos/pkg/errors"
)

// ErrStaleQuery marks a search response superseded by a newer query.
var ErrStaleQuery = pkgerrors.New(pkgerrors.CodeConflict, "member search superseded by a newer query")

// Tracker enforces last-query-wins for one register's member search box.
type Tracker struct {
	mu       sync.Mutex
	latest   uint64
	shownSeq uint64
	shown    []models.Member
}

// NewTracker returns a tracker with no query issued yet.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Issue allocates the next sequence number and makes it the latest.
func (t *Tracker) Issue() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.latest++
	return t.latest
}

// Claim registers a caller-chosen sequence number. Numbers below the latest
// one already seen are stale.
func (t *Tracker) Claim(seq uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if seq < t.latest {
		return ErrStaleQuery
	}
	t.latest = seq
	return nil
}

// Accept publishes matches for seq if seq is still the latest query.
func (t *Tracker) Accept(seq uint64, matches []models.Member) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if seq != t.latest {
		return ErrStaleQuery
	}
	t.shownSeq = seq
	t.shown = append([]models.Member(nil), matches...)
	return nil
}

// Current returns the most recently accepted matches and their sequence.
func (t *Tracker) Current() (uint64, []models.Member) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.shownSeq, append([]models.Member(nil), t.shown...)
}

// Reset supersedes any in-flight query and clears the shown matches.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.latest++
	t.shownSeq = 0
	t.shown = nil
}
