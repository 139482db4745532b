package domain

import (
	"strconv"
	"strings"
	"unicode/utf8"

	dErrors "treasury/pkg/domain-errors"
)

// Typed identifiers keep expenditure, pot, domain and skill ids from being
// passed where another kind is expected. All numeric ids start at 1; zero is
// the nil value.
type (
	ExpenditureID uint64
	FundingPotID  uint64
	DomainID      uint64
	SkillID       uint64
)

// NoSkill is the sentinel skill id meaning "no classification".
const NoSkill SkillID = 0

func (id ExpenditureID) IsNil() bool    { return id == 0 }
func (id ExpenditureID) String() string { return strconv.FormatUint(uint64(id), 10) }

func (id FundingPotID) IsNil() bool    { return id == 0 }
func (id FundingPotID) String() string { return strconv.FormatUint(uint64(id), 10) }

func (id DomainID) IsNil() bool    { return id == 0 }
func (id DomainID) String() string { return strconv.FormatUint(uint64(id), 10) }

func (id SkillID) IsNil() bool    { return id == NoSkill }
func (id SkillID) String() string { return strconv.FormatUint(uint64(id), 10) }

// ParseExpenditureID parses a positive decimal expenditure id.
func ParseExpenditureID(s string) (ExpenditureID, error) {
	v, err := parsePositive(s, "expenditure id")
	return ExpenditureID(v), err
}

// ParseFundingPotID parses a positive decimal funding pot id.
func ParseFundingPotID(s string) (FundingPotID, error) {
	v, err := parsePositive(s, "funding pot id")
	return FundingPotID(v), err
}

// ParseDomainID parses a positive decimal domain id.
func ParseDomainID(s string) (DomainID, error) {
	v, err := parsePositive(s, "domain id")
	return DomainID(v), err
}

// ParseSkillID parses a skill id. Zero is accepted because it is the
// NoSkill sentinel.
func ParseSkillID(s string) (SkillID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "skill id cannot be empty")
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid skill id")
	}
	return SkillID(v), nil
}

func parsePositive(s, what string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, what+" cannot be empty")
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid "+what)
	}
	if v == 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, what+" must be positive")
	}
	return v, nil
}

// Address identifies an account or an asset. Addresses are compared
// case-insensitively, so they are stored lower-cased.
//
// Usage: construct via ParseAddress at trust boundaries; direct casting
// bypasses normalization.
type Address string

const maxAddressLength = 128

// ParseAddress trims and lower-cases s and rejects empty, oversized, non-UTF8
// or whitespace-bearing values.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address cannot be empty")
	}
	if len(s) > maxAddressLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address is too long")
	}
	if !utf8.ValidString(s) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address must be valid UTF-8")
	}
	if strings.ContainsAny(s, " \t\r\n/") {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address contains invalid characters")
	}
	return Address(strings.ToLower(s)), nil
}

// MustAddress is ParseAddress for constants and tests.
func MustAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Address) String() string { return string(a) }
func (a Address) IsNil() bool    { return a == "" }
