package vault

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	// snapshotBucket holds the non-secret projection of all wallet groups.
	snapshotBucket = []byte("hoh-vault/snapshot")

	// secretsBucket holds one encrypted blob per wallet group, keyed by
	// group id. Nothing else is ever written here.
	secretsBucket = []byte("hoh-vault/secrets")

	snapshotKey = []byte("groups")

	// ErrBlobNotFound is returned when a group has no encrypted secret.
	ErrBlobNotFound = errors.New("encrypted secret not found")
)

// Store persists the vault. Snapshot metadata and encrypted blobs are kept
// in separate records; Commit applies a snapshot and its blob changes
// atomically.
type Store interface {
	// LoadSnapshot returns nil, nil when nothing has been stored.
	LoadSnapshot() (*Snapshot, error)
	LoadBlob(groupID string) ([]byte, error)
	Commit(snap *Snapshot, putBlobs map[string][]byte, deleteBlobs []string) error
	// Wipe erases the snapshot and every blob.
	Wipe() error
}

// Snapshot is the persisted, non-secret view of the vault.
type Snapshot struct {
	Version         int             `json:"version"`
	CurrentWalletID string          `json:"currentWalletId,omitempty"`
	Groups          []GroupSnapshot `json:"groups"`
}

// GroupSnapshot is the persisted metadata of one wallet group.
type GroupSnapshot struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Kind    Kind             `json:"kind"`
	Wallets []WalletSnapshot `json:"wallets"`
}

// WalletSnapshot is the persisted metadata of one wallet.
type WalletSnapshot struct {
	ID             string `json:"id"`
	Address        string `json:"address"`
	Alias          string `json:"alias"`
	DerivationPath string `json:"derivationPath,omitempty"`
}

const snapshotVersion = 1

// BoltStore is a Store backed by a bbolt database file.
type BoltStore struct {
	db *bolt.DB
}

// OpenBoltStore opens (or creates) the vault database at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open vault db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{snapshotBucket, secretsBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create vault buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close closes the database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) LoadSnapshot() (*Snapshot, error) {
	var snap *Snapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(snapshotBucket).Get(snapshotKey)
		if data == nil {
			return nil
		}

		snap = &Snapshot{}
		return json.Unmarshal(data, snap)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load vault snapshot: %w", err)
	}

	return snap, nil
}

func (s *BoltStore) LoadBlob(groupID string) ([]byte, error) {
	var blob []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(secretsBucket).Get([]byte(groupID))
		if data == nil {
			return ErrBlobNotFound
		}

		// Values are only valid inside the transaction.
		blob = make([]byte, len(data))
		copy(blob, data)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return blob, nil
}

func (s *BoltStore) Commit(snap *Snapshot, putBlobs map[string][]byte, deleteBlobs []string) error {
	var data []byte
	if snap != nil && len(snap.Groups) > 0 {
		var err error
		if data, err = json.Marshal(snap); err != nil {
			return fmt.Errorf("failed to marshal vault snapshot: %w", err)
		}
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		secrets := tx.Bucket(secretsBucket)
		for id, blob := range putBlobs {
			if err := secrets.Put([]byte(id), blob); err != nil {
				return err
			}
		}
		for _, id := range deleteBlobs {
			if err := secrets.Delete([]byte(id)); err != nil {
				return err
			}
		}

		snapshots := tx.Bucket(snapshotBucket)
		if data == nil {
			return snapshots.Delete(snapshotKey)
		}
		return snapshots.Put(snapshotKey, data)
	})
}

func (s *BoltStore) Wipe() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{snapshotBucket, secretsBucket} {
			if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}
		return nil
	})
}
