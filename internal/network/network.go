// Package network exposes the read-only organization parameters used by
// settlement: the fee denominator and the accounts value moves between.
package network

import (
	id "treasury/pkg/domain"
	dErrors "treasury/pkg/domain-errors"
)

// Params is immutable after construction.
type Params struct {
	feeInverse   uint64
	treasury     id.Address
	organization id.Address
}

// New validates and builds Params. feeInverse is the reward-inverse
// denominator: fee = payout / feeInverse. A value of 1 takes the whole
// payout as fee; zero is rejected.
func New(feeInverse uint64, treasuryAccount, organizationAccount string) (*Params, error) {
	if feeInverse == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "fee inverse must be at least 1")
	}
	treasury, err := id.ParseAddress(treasuryAccount)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid network treasury account")
	}
	organization, err := id.ParseAddress(organizationAccount)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid organization account")
	}
	if treasury == organization {
		return nil, dErrors.New(dErrors.CodeValidation, "treasury and organization accounts must differ")
	}
	return &Params{feeInverse: feeInverse, treasury: treasury, organization: organization}, nil
}

func (p *Params) FeeInverse() uint64 { return p.feeInverse }

// TreasuryAccount receives settlement fees.
func (p *Params) TreasuryAccount() id.Address { return p.treasury }

// OrganizationAccount holds deposited funds until they are claimed.
func (p *Params) OrganizationAccount() id.Address { return p.organization }
