package wizard

import (
	"context"
	"errors"
	"time"
)

// DraftTTL is how long an untouched draft is kept.
const DraftTTL = 24 * time.Hour

// ErrDraftNotFound is returned by a DraftStore when no draft is saved under a key.
var ErrDraftNotFound = errors.New("draft not found")

// DraftStore persists encoded wizards between requests.
type DraftStore interface {
	LoadDraft(ctx context.Context, key string) ([]byte, error)
	SaveDraft(ctx context.Context, key, caseID string, data []byte) error
	DeleteDraft(ctx context.Context, key string) error
}

// DraftKey identifies the draft a browser keeps for one case.
func DraftKey(wizardID, caseID string) string {
	return wizardID + ":" + caseID
}
