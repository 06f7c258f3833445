package cart

import "context"

// Store persists guest cart snapshots between visits, keyed by the guest
// session id. Implementations must return ErrSnapshotNotFound when no
// snapshot exists for the key.
type Store interface {
	Load(ctx context.Context, sessionID string) (Snapshot, error)
	Save(ctx context.Context, sessionID string, snap Snapshot) error
	Delete(ctx context.Context, sessionID string) error
}
