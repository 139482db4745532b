package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "treasury/pkg/domain-errors"
)

// TestParseNumericIDs_Invariants validates the parsing invariant:
// "expenditure, pot and domain ids are positive base-10 integers"
func TestParseNumericIDs_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseExpenditureID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects zero", func(t *testing.T) {
		_, err := ParseFundingPotID("0")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects negative and non-numeric", func(t *testing.T) {
		for _, input := range []string{"-1", "abc", "1.5", "0x10"} {
			_, err := ParseDomainID(input)
			require.Error(t, err, input)
		}
	})

	t.Run("accepts positive id with surrounding space", func(t *testing.T) {
		id, err := ParseExpenditureID(" 42 ")
		require.NoError(t, err)
		assert.Equal(t, ExpenditureID(42), id)
		assert.Equal(t, "42", id.String())
	})

	t.Run("skill id accepts the no-skill sentinel", func(t *testing.T) {
		id, err := ParseSkillID("0")
		require.NoError(t, err)
		assert.True(t, id.IsNil())
		assert.Equal(t, NoSkill, id)
	})
}

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Address
		wantErr bool
	}{
		{name: "lower-cases", input: "0xAbCd", want: "0xabcd"},
		{name: "trims whitespace", input: "  0xabc  ", want: "0xabc"},
		{name: "empty", input: "", wantErr: true},
		{name: "only whitespace", input: "   ", wantErr: true},
		{name: "inner whitespace", input: "0x ab", wantErr: true},
		{name: "path separator", input: "0x/ab", wantErr: true},
		{name: "too long", input: "0x" + strings.Repeat("a", 200), wantErr: true},
		{name: "invalid utf8", input: string([]byte{0xff, 0xfe}), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAddress(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestTypeDistinction documents that typed ids are not interchangeable.
// The following would fail to compile:
//
//	var _ ExpenditureID = FundingPotID(1)
//	var _ DomainID = SkillID(1)
func TestTypeDistinction(t *testing.T) {
	exp := ExpenditureID(7)
	pot := FundingPotID(7)
	assert.Equal(t, exp.String(), pot.String())
	assert.NotEqual(t, any(exp), any(pot))
}
