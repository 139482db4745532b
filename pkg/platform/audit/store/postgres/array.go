package postgres

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

func uuidArray(ids []uuid.UUID) any {
	out := make([]string, len(ids))
	for i, v := range ids {
		out[i] = v.String()
	}
	return pq.Array(out)
}
