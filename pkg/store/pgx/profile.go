package pgx

import (
	"context"
	"encoding/json"
	"errors"

	pgxv5 "github.com/jackc/pgx/v5"

	"github.com/lumen-fi/advisor/pkg/common"
	"github.com/lumen-fi/advisor/pkg/logger"
	"github.com/lumen-fi/advisor/pkg/store"
)

// Get returns the stored profile, or (nil, nil) for an unknown user. A
// corrupt stored record is treated as absent so the caller reinitializes
// defaults instead of failing the query.
func (s *Storage) Get(ctx context.Context, userID string) (*common.UserProfile, error) {
	var raw []byte
	err := s.conn.QueryRow(ctx,
		`SELECT profile FROM user_profiles WHERE user_id = $1`,
		userID,
	).Scan(&raw)
	if errors.Is(err, pgxv5.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var profile common.UserProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		logger.Warn("[Store] Corrupt profile record, reinitializing", "user_id", userID, "err", err)
		return nil, nil
	}
	profile.UserID = userID
	return &profile, nil
}

// Put stores the profile, replacing any previous version.
func (s *Storage) Put(ctx context.Context, profile *common.UserProfile) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return &store.StoreUnavailableError{Op: "put profile", Err: err}
	}

	_, err = s.conn.Exec(ctx,
		`INSERT INTO user_profiles (user_id, profile, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (user_id) DO UPDATE
		 SET profile = EXCLUDED.profile, updated_at = now()`,
		profile.UserID, raw,
	)
	if err != nil {
		return &store.StoreUnavailableError{Op: "put profile", Err: err}
	}
	return nil
}
