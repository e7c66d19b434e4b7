// Package addrbook persists the set of known peer host:port strings
// across restarts, so a node does not have to rediscover its whole peer
// set from TC_PEERS and DHT bootstrap on every launch.
package addrbook

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var peersBucket = []byte("peers")

// Store is a bbolt-backed set of peer host:port strings.
type Store struct {
	db *bolt.DB
}

// Open creates or opens the address book at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("addrbook: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(peersBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("addrbook: create bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add records hostname as a known peer.
func (s *Store) Add(hostname string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(peersBucket).Put([]byte(hostname), []byte{1})
	})
}

// Remove evicts hostname from the address book.
func (s *Store) Remove(hostname string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(peersBucket).Delete([]byte(hostname))
	})
}

// All returns every known peer hostname.
func (s *Store) All() ([]string, error) {
	var out []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(peersBucket).ForEach(func(k, _ []byte) error {
			out = append(out, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("addrbook: list peers: %w", err)
	}
	return out, nil
}
