package attrs

import (
	"testing"

	"github.com/stretchr/testify/assert"

	id "treasury/pkg/domain"
)

func TestExtractString(t *testing.T) {
	attrs := []any{"expenditure_id", id.ExpenditureID(7), "asset", "token", 42, "skipped"}

	assert.Equal(t, "7", ExtractString(attrs, "expenditure_id"))
	assert.Equal(t, "token", ExtractString(attrs, "asset"))
	assert.Equal(t, "", ExtractString(attrs, "missing"))
}

func TestToMap(t *testing.T) {
	m := ToMap([]any{"amount", id.NewAmount(5), "count", 3, "dangling"})
	assert.Equal(t, map[string]string{"amount": "5", "count": "3"}, m)
	assert.Nil(t, ToMap(nil))
}
