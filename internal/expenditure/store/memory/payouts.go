package memory

import (
	"context"
	"slices"
	"sort"

	"treasury/internal/expenditure/models"
	id "treasury/pkg/domain"
)

type payouts struct{ *view }

func (p payouts) Get(_ context.Context, expID id.ExpenditureID, recipient, asset id.Address) (id.Amount, error) {
	return p.store.payouts[payoutKey{exp: expID, recipient: recipient, asset: asset}], nil
}

func (p payouts) Set(_ context.Context, expID id.ExpenditureID, recipient, asset id.Address, amount id.Amount) (id.Amount, error) {
	if err := p.writable(); err != nil {
		return id.Zero(), err
	}
	key := payoutKey{exp: expID, recipient: recipient, asset: asset}
	prev := p.store.payouts[key]
	put(p.journal, p.store.payouts, key, amount)
	return amount.Sub(prev), nil
}

func (p payouts) TotalForAsset(_ context.Context, expID id.ExpenditureID, asset id.Address) (id.Amount, error) {
	total := id.Zero()
	for key, amount := range p.store.payouts {
		if key.exp == expID && key.asset == asset {
			total = total.Add(amount)
		}
	}
	return total, nil
}

func (p payouts) Recipient(_ context.Context, expID id.ExpenditureID, recipient id.Address) (*models.Recipient, error) {
	rec := &models.Recipient{
		Account: recipient,
		Skills:  slices.Clone(p.store.skills[recipientKey{exp: expID, recipient: recipient}]),
	}
	for key, amount := range p.store.payouts {
		if key.exp == expID && key.recipient == recipient && !amount.IsZero() {
			rec.Payouts = append(rec.Payouts, models.Payout{Asset: key.asset, Amount: amount})
		}
	}
	sort.Slice(rec.Payouts, func(i, j int) bool { return rec.Payouts[i].Asset < rec.Payouts[j].Asset })
	return rec, nil
}

func (p payouts) AddSkill(_ context.Context, expID id.ExpenditureID, recipient id.Address, skill id.SkillID) error {
	if err := p.writable(); err != nil {
		return err
	}
	key := recipientKey{exp: expID, recipient: recipient}
	current := p.store.skills[key]
	if slices.Contains(current, skill) {
		return nil
	}
	next := append(slices.Clone(current), skill)
	put(p.journal, p.store.skills, key, next)
	return nil
}
