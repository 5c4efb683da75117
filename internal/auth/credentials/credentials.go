// Package credentials holds the configured admin accounts as bcrypt hashes.
package credentials

import (
	"crypto/rand"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"arq/pkg/secrets"
)

// Store maps admin usernames to bcrypt hashes. It is read-only after New.
type Store struct {
	hashes map[string][]byte
	// dummy is compared against for unknown usernames so both failure paths
	// cost one bcrypt comparison at the configured cost.
	dummy []byte
}

// Parse reads "user:hash,user2:hash2". Hashes must be bcrypt; plaintext
// passwords are rejected.
func Parse(raw string) (map[string]string, error) {
	entries := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		username, hash, ok := strings.Cut(pair, ":")
		username = strings.TrimSpace(username)
		hash = strings.TrimSpace(hash)
		if !ok || username == "" || hash == "" {
			return nil, fmt.Errorf("admin credential entry %q: expected username:bcrypt-hash", username)
		}
		if _, dup := entries[username]; dup {
			return nil, fmt.Errorf("admin credential entry %q: duplicate username", username)
		}
		entries[username] = hash
	}
	return entries, nil
}

// New builds a Store from username -> bcrypt hash entries.
func New(entries map[string]string) (*Store, error) {
	s := &Store{hashes: make(map[string][]byte, len(entries))}
	cost := bcrypt.DefaultCost
	first := true
	for username, hash := range entries {
		c, err := secrets.Cost(hash)
		if err != nil {
			return nil, fmt.Errorf("admin credential %q: %w", username, err)
		}
		if first || c > cost {
			cost = c
			first = false
		}
		s.hashes[username] = []byte(hash)
	}

	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generate dummy credential: %w", err)
	}
	dummy, err := bcrypt.GenerateFromPassword(buf, cost)
	if err != nil {
		return nil, fmt.Errorf("generate dummy credential: %w", err)
	}
	s.dummy = dummy
	return s, nil
}

// Len returns the number of configured admin accounts.
func (s *Store) Len() int {
	return len(s.hashes)
}

// VerifyCredentials reports whether password matches the stored hash for
// username. Unknown usernames and wrong passwords are indistinguishable to
// the caller.
func (s *Store) VerifyCredentials(username, password string) bool {
	hash, ok := s.hashes[username]
	if !ok {
		_ = bcrypt.CompareHashAndPassword(s.dummy, []byte(password))
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}
