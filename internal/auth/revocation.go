package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const revokedKeyPrefix = "revoked:"

// RevocationList remembers revoked token IDs until the token would have
// expired anyway. Entries carry a badger TTL so the list prunes itself.
type RevocationList struct {
	db     *badger.DB
	logger *slog.Logger
}

// OpenRevocationList opens (or creates) the badger directory at path.
// An empty path opens an in-memory list, which is what tests use.
func OpenRevocationList(path string, logger *slog.Logger) (*RevocationList, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil
	opts.SyncWrites = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open revocation list: %w", err)
	}

	if logger != nil {
		logger.Info("Revocation list opened", "path", path, "in_memory", path == "")
	}

	return &RevocationList{db: db, logger: logger}, nil
}

// Revoke marks tokenID as revoked until expiresAt. Tokens that have
// already expired are ignored.
func (r *RevocationList) Revoke(tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}

	return r.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(revokedKeyPrefix+tokenID), nil).WithTTL(ttl)
		return txn.SetEntry(entry)
	})
}

// IsRevoked reports whether tokenID has been revoked.
func (r *RevocationList) IsRevoked(tokenID string) (bool, error) {
	err := r.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(revokedKeyPrefix + tokenID))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check revocation: %w", err)
	}
	return true, nil
}

// Close flushes and closes the underlying database.
func (r *RevocationList) Close() error {
	if r.logger != nil {
		r.logger.Info("Closing revocation list")
	}
	return r.db.Close()
}
