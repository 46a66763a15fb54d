package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/erazemk/afalagi/internal/wizard"
)

// SaveDraft stores an encoded wizard under key, replacing any previous draft.
func SaveDraft(ctx context.Context, db *sql.DB, key, caseID string, data []byte) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO sighting_drafts (key, case_id, data, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET case_id = excluded.case_id, data = excluded.data, updated_at = excluded.updated_at`,
		key, caseID, data, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("saving draft: %w", err)
	}
	return nil
}

// LoadDraft returns the draft saved under key. Drafts older than
// wizard.DraftTTL are treated as missing.
func LoadDraft(ctx context.Context, db *sql.DB, key string) ([]byte, error) {
	var data []byte
	err := db.QueryRowContext(ctx,
		`SELECT data FROM sighting_drafts WHERE key = ? AND updated_at >= ?`,
		key, time.Now().Add(-wizard.DraftTTL).Unix(),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, wizard.ErrDraftNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading draft: %w", err)
	}
	return data, nil
}

// DeleteDraft removes the draft saved under key, if any.
func DeleteDraft(ctx context.Context, db *sql.DB, key string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM sighting_drafts WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting draft: %w", err)
	}
	return nil
}

// PurgeDrafts removes drafts last saved before cutoff and returns how many were removed.
func PurgeDrafts(ctx context.Context, db *sql.DB, cutoff time.Time) (int64, error) {
	res, err := db.ExecContext(ctx,
		`DELETE FROM sighting_drafts WHERE updated_at < ?`, cutoff.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("purging drafts: %w", err)
	}
	return res.RowsAffected()
}

// Drafts adapts the draft functions to wizard.DraftStore.
type Drafts struct {
	DB *sql.DB
}

// LoadDraft implements wizard.DraftStore.
func (d Drafts) LoadDraft(ctx context.Context, key string) ([]byte, error) {
	return LoadDraft(ctx, d.DB, key)
}

// SaveDraft implements wizard.DraftStore.
func (d Drafts) SaveDraft(ctx context.Context, key, caseID string, data []byte) error {
	return SaveDraft(ctx, d.DB, key, caseID, data)
}

// DeleteDraft implements wizard.DraftStore.
func (d Drafts) DeleteDraft(ctx context.Context, key string) error {
	return DeleteDraft(ctx, d.DB, key)
}
