package postgres

import (
	"database/sql"
	"encoding/json"
	"time"

	"dispatch/internal/domain"
)

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullInt(i int) sql.NullInt64 {
	if i == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(i), Valid: true}
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

// marshalReward stores the reward bundle as a JSONB column, matching
// the free-form reward dict the admin tooling reads.
func marshalReward(b domain.RewardBundle) ([]byte, error) {
	return json.Marshal(b)
}

func unmarshalReward(data []byte, b *domain.RewardBundle) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, b)
}
