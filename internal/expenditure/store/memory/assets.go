package memory

import (
	"context"

	id "treasury/pkg/domain"
	"treasury/pkg/platform/sentinel"
)

type assets struct{ *view }

func (a assets) Credit(_ context.Context, asset, account id.Address, amount id.Amount) error {
	if err := a.writable(); err != nil {
		return err
	}
	key := accountKey{asset: asset, account: account}
	next := a.store.balances[key].Add(amount)
	if next.Overflows() {
		return sentinel.ErrOverflow
	}
	put(a.journal, a.store.balances, key, next)
	return nil
}

func (a assets) Transfer(_ context.Context, asset, from, to id.Address, amount id.Amount) error {
	if err := a.writable(); err != nil {
		return err
	}
	src := accountKey{asset: asset, account: from}
	if a.store.balances[src].Cmp(amount) < 0 {
		return sentinel.ErrInsufficient
	}
	dst := accountKey{asset: asset, account: to}
	if from != to && a.store.balances[dst].Add(amount).Overflows() {
		return sentinel.ErrOverflow
	}
	put(a.journal, a.store.balances, src, a.store.balances[src].Sub(amount))
	put(a.journal, a.store.balances, dst, a.store.balances[dst].Add(amount))
	return nil
}

func (a assets) Balance(_ context.Context, asset, account id.Address) (id.Amount, error) {
	return a.store.balances[accountKey{asset: asset, account: account}], nil
}
