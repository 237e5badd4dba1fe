package members

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/angelmondragon/venuepos/pkg/db"
	"github.com/angelmondragon/venuepos/pkg/db/models"
	pkgerrors "github.com/angelmondragon/venuepos/pkg/errors"
)

const (
	DefaultSearchLimit    = 5
	DefaultSearchMinChars = 2
)

type memberStore interface {
	StreamActiveMatches(ctx context.Context, query string, limit int, yield func(models.Member) bool) error
	FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Member, error)
}

// Results is a finite, single-use stream of search matches. The store is
// only queried once iteration starts; iterating a second time yields nothing.
type Results struct {
	once sync.Once
	run  func(yield func(models.Member) bool) error
	err  error
}

// All returns the match sequence.
func (r *Results) All() iter.Seq[models.Member] {
	return func(yield func(models.Member) bool) {
		r.once.Do(func() {
			if r.run != nil {
				r.err = r.run(yield)
			}
		})
	}
}

// Err reports the store failure, if any, once iteration has finished.
func (r *Results) Err() error {
	return r.err
}

// Collect drains the sequence into a slice.
func (r *Results) Collect() ([]models.Member, error) {
	matches := []models.Member{}
	for member := range r.All() {
		matches = append(matches, member)
	}
	return matches, r.Err()
}

// Resolver searches members for the register.
type Resolver struct {
	store    memberStore
	limit    int
	minChars int
}

// NewResolver builds a Resolver. Non-positive limits fall back to the defaults.
func NewResolver(store memberStore, limit, minChars int) (*Resolver, error) {
	if store == nil {
		return nil, fmt.Errorf("member store required")
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if minChars <= 0 {
		minChars = DefaultSearchMinChars
	}
	return &Resolver{store: store, limit: limit, minChars: minChars}, nil
}

// Search returns the matches for query. A query shorter than the minimum
// length after trimming yields an empty stream without touching the store.
func (r *Resolver) Search(ctx context.Context, query string) *Results {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < r.minChars {
		return &Results{}
	}
	return &Results{run: func(yield func(models.Member) bool) error {
		return r.store.StreamActiveMatches(ctx, query, r.limit, yield)
	}}
}

// Lookup runs a search tagged with seq and hands the matches to tracker.
// When a newer query was issued meanwhile it returns ErrStaleQuery and the
// matches are dropped.
func (r *Resolver) Lookup(ctx context.Context, tracker *Tracker, seq uint64, query string) ([]models.Member, error) {
	if err := tracker.Claim(seq); err != nil {
		return nil, err
	}
	matches, err := r.Search(ctx, query).Collect()
	if err != nil {
		return nil, err
	}
	if err := tracker.Accept(seq, matches); err != nil {
		return nil, err
	}
	return matches, nil
}

// Get loads an active member for attaching to a cart.
func (r *Resolver) Get(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	member, err := r.store.FindActiveByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load member")
	}
	return member, nil
}
