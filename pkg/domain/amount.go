package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	dErrors "treasury/pkg/domain-errors"
)

// Amount is an integer quantity of an asset in its smallest unit.
//
// Invariants:
//   - the zero value is a valid zero amount
//   - values are immutable; every arithmetic method returns a new Amount
//
// Payout and balance amounts are non-negative and at most MaxAmount, which
// fits a NUMERIC(78,0) column. Signed amounts only appear as deltas (see
// PayoutTable.Set) and never leave the service layer.
type Amount struct {
	v *big.Int
}

// maxAmount is 2^256-1.
var maxAmount = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// MaxAmount returns the largest amount a balance, payout or total may hold.
func MaxAmount() Amount { return AmountFromBig(maxAmount) }

// Overflows reports whether a is above MaxAmount.
func (a Amount) Overflows() bool { return a.big().Cmp(maxAmount) > 0 }

// Zero returns the zero amount.
func Zero() Amount { return Amount{} }

// NewAmount builds an amount from an int64.
func NewAmount(n int64) Amount {
	return Amount{v: big.NewInt(n)}
}

// AmountFromBig copies b into a new Amount.
func AmountFromBig(b *big.Int) Amount {
	if b == nil {
		return Amount{}
	}
	return Amount{v: new(big.Int).Set(b)}
}

// ParseAmount parses a non-negative base-10 integer.
func ParseAmount(s string) (Amount, error) {
	a, err := parseSigned(s)
	if err != nil {
		return Amount{}, err
	}
	if a.Sign() < 0 {
		return Amount{}, dErrors.New(dErrors.CodeInvalidInput, "amount cannot be negative")
	}
	return a, nil
}

// MustAmount is ParseAmount for constants and tests.
func MustAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

func parseSigned(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, dErrors.New(dErrors.CodeInvalidInput, "amount cannot be empty")
	}
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Amount{}, dErrors.New(dErrors.CodeInvalidInput, "amount must be a base-10 integer")
	}
	if b.CmpAbs(maxAmount) > 0 {
		return Amount{}, dErrors.New(dErrors.CodeInvalidInput, "amount exceeds 2^256-1")
	}
	return Amount{v: b}, nil
}

func (a Amount) big() *big.Int {
	if a.v == nil {
		return new(big.Int)
	}
	return a.v
}

// Big returns a copy of the underlying integer.
func (a Amount) Big() *big.Int {
	return new(big.Int).Set(a.big())
}

func (a Amount) Add(b Amount) Amount {
	return Amount{v: new(big.Int).Add(a.big(), b.big())}
}

func (a Amount) Sub(b Amount) Amount {
	return Amount{v: new(big.Int).Sub(a.big(), b.big())}
}

// Quo divides by d truncating toward zero. d must be positive.
func (a Amount) Quo(d uint64) Amount {
	if d == 0 {
		panic("domain: amount division by zero")
	}
	return Amount{v: new(big.Int).Quo(a.big(), new(big.Int).SetUint64(d))}
}

func (a Amount) Cmp(b Amount) int    { return a.big().Cmp(b.big()) }
func (a Amount) Equal(b Amount) bool { return a.Cmp(b) == 0 }
func (a Amount) Sign() int           { return a.big().Sign() }
func (a Amount) IsZero() bool        { return a.Sign() == 0 }
func (a Amount) String() string      { return a.big().String() }

// MarshalJSON encodes amounts as decimal strings so values above 2^53
// survive JavaScript clients.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts either a JSON string or a bare JSON number.
func (a *Amount) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*a = Amount{}
		return nil
	}
	raw = strings.Trim(raw, `"`)
	parsed, err := parseSigned(raw)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Value stores the amount as a NUMERIC.
func (a Amount) Value() (driver.Value, error) {
	return decimal.NewFromBigInt(a.big(), 0).Value()
}

// Scan reads a NUMERIC column. Fractional values are rejected.
func (a *Amount) Scan(src any) error {
	var d decimal.Decimal
	if err := d.Scan(src); err != nil {
		return fmt.Errorf("scan amount: %w", err)
	}
	if !d.Equal(d.Truncate(0)) {
		return fmt.Errorf("scan amount: %s is not an integer", d.String())
	}
	*a = Amount{v: d.BigInt()}
	return nil
}
