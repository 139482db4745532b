// Package memory is the in-process expenditure store. A single mutex
// serializes units of work; writes are journaled and reverted when the unit
// of work fails.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"treasury/internal/expenditure/models"
	"treasury/internal/expenditure/service"
	id "treasury/pkg/domain"
	dErrors "treasury/pkg/domain-errors"
)

const defaultTxTimeout = 5 * time.Second

var errReadOnly = errors.New("memory store: write attempted in read-only view")

type association struct {
	kind models.AssociationType
	id   uint64
}

type potAssetKey struct {
	pot   id.FundingPotID
	asset id.Address
}

type recipientKey struct {
	exp       id.ExpenditureID
	recipient id.Address
}

type payoutKey struct {
	exp       id.ExpenditureID
	recipient id.Address
	asset     id.Address
}

type accountKey struct {
	asset   id.Address
	account id.Address
}

type Store struct {
	mu      sync.RWMutex
	timeout time.Duration

	expSeq uint64
	potSeq uint64

	expenditures map[id.ExpenditureID]models.Expenditure
	pots         map[id.FundingPotID]models.FundingPot
	potIndex     map[association]id.FundingPotID
	potAssets    map[potAssetKey]models.PotAsset
	skills       map[recipientKey][]id.SkillID
	payouts      map[payoutKey]id.Amount
	balances     map[accountKey]id.Amount
}

type Option func(*Store)

// WithTxTimeout bounds units of work whose context has no deadline.
func WithTxTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		timeout:      defaultTxTimeout,
		expenditures: make(map[id.ExpenditureID]models.Expenditure),
		pots:         make(map[id.FundingPotID]models.FundingPot),
		potIndex:     make(map[association]id.FundingPotID),
		potAssets:    make(map[potAssetKey]models.PotAsset),
		skills:       make(map[recipientKey][]id.SkillID),
		payouts:      make(map[payoutKey]id.Amount),
		balances:     make(map[accountKey]id.Amount),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunInTx runs fn under the store lock and reverts all of its writes when it
// returns an error or the context expires before it finishes.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, stores service.Stores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Check again after acquiring lock
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	v := &view{store: s, journal: &journal{}}
	if err := fn(ctx, v); err != nil {
		v.journal.rollback()
		return err
	}
	if err := ctx.Err(); err != nil {
		v.journal.rollback()
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return nil
}

// View runs fn under the read lock. Writes through the view fail.
func (s *Store) View(ctx context.Context, fn func(ctx context.Context, stores service.Stores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "read aborted: context cancelled")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(ctx, &view{store: s})
}

// view binds the store to one unit of work. A nil journal marks a read-only
// view.
type view struct {
	store   *Store
	journal *journal
}

func (v *view) Expenditures() service.ExpenditureStore { return expenditures{v} }
func (v *view) Pots() service.FundingPotLedger         { return pots{v} }
func (v *view) Payouts() service.PayoutTable           { return payouts{v} }
func (v *view) Assets() service.AssetLedger            { return assets{v} }

func (v *view) writable() error {
	if v.journal == nil {
		return errReadOnly
	}
	return nil
}

// nextSeq increments *seq and journals the previous value.
func (v *view) nextSeq(seq *uint64) uint64 {
	prev := *seq
	v.journal.record(func() { *seq = prev })
	*seq = prev + 1
	return *seq
}
