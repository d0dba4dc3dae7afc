// Copyright 2026 MetaRouter, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package identity provides the default in-memory IdentityStore. Persistent,
// cross-restart identity storage is out of scope here: this store's
// anonymous ID is regenerated on every process start. Hosts that need
// durable identity should implement the collaborator interface themselves
// against their own storage.
package identity

import (
	"sync"

	"github.com/google/uuid"
)

// Store is a thread-safe, in-memory default implementation of the
// IdentityStore collaborator interface.
type Store struct {
	mu            sync.RWMutex
	anonymousID   string
	userID        *string
	groupID       *string
	advertisingID *string
}

// New returns a Store with a freshly generated anonymous ID.
func New() *Store {
	return &Store{anonymousID: uuid.NewString()}
}

// AnonymousID returns the memoized anonymous ID, guaranteed non-empty.
func (s *Store) AnonymousID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.anonymousID
}

// UserID returns the identified user ID, if one has been set.
func (s *Store) UserID() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.userID == nil {
		return "", false
	}
	return *s.userID, true
}

// GroupID returns the identified group ID, if one has been set.
func (s *Store) GroupID() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.groupID == nil {
		return "", false
	}
	return *s.groupID, true
}

// AdvertisingID returns the host's advertising ID, if one has been set.
func (s *Store) AdvertisingID() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.advertisingID == nil {
		return "", false
	}
	return *s.advertisingID, true
}

// SetUserID records the user ID from an identify call.
func (s *Store) SetUserID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = &id
}

// SetGroupID records the group ID from a group call.
func (s *Store) SetGroupID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groupID = &id
}

// SetAdvertisingID records the host's advertising ID, invalidating any
// context snapshot cached against the previous value.
func (s *Store) SetAdvertisingID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advertisingID = &id
}

// Reset regenerates the anonymous ID and clears user/group/advertising IDs,
// used when the host invokes reset() on logout.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.anonymousID = uuid.NewString()
	s.userID = nil
	s.groupID = nil
	s.advertisingID = nil
}
