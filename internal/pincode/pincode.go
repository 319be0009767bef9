// Package pincode maps Indian postal codes to their city and state.
package pincode

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/pesto-students/backend-repo-titans/internal/logger"
)

var ErrNotFound = errors.New("pincode not found")

type Place struct {
	Pincode int    `db:"pincode" json:"pincode"`
	City    string `db:"city" json:"city"`
	State   string `db:"state" json:"state"`
}

type Lookup interface {
	Find(ctx context.Context, code int) (Place, error)
}

// CachedLookup reads the pincodes table through a redis read-through cache.
// Cache failures degrade to a direct query.
type CachedLookup struct {
	db  *sqlx.DB
	rdb *redis.Client
	ttl time.Duration
}

func NewCachedLookup(db *sqlx.DB, rdb *redis.Client, ttl time.Duration) *CachedLookup {
	return &CachedLookup{db: db, rdb: rdb, ttl: ttl}
}

func cacheKey(code int) string {
	return fmt.Sprintf("pincode:%d", code)
}

func (l *CachedLookup) Find(ctx context.Context, code int) (Place, error) {
	key := cacheKey(code)

	cached, err := l.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		var p Place
		if jsonErr := json.Unmarshal([]byte(cached), &p); jsonErr == nil {
			return p, nil
		}
	case !errors.Is(err, redis.Nil):
		logger.Warn("pincode cache read failed", "pincode", code, "error", err)
	}

	var p Place
	err = l.db.GetContext(ctx, &p, `SELECT pincode, city, state FROM pincodes WHERE pincode = $1`, code)
	if errors.Is(err, sql.ErrNoRows) {
		return Place{}, ErrNotFound
	}
	if err != nil {
		return Place{}, fmt.Errorf("query pincode: %w", err)
	}

	data, _ := json.Marshal(p)
	if err := l.rdb.Set(ctx, key, string(data), l.ttl).Err(); err != nil {
		logger.Warn("pincode cache write failed", "pincode", code, "error", err)
	}

	return p, nil
}
