// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package store

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/grouphub/internal/logging"
)

const stateKeyPrefix = "state:"

// persistedSlots are written through to disk. Presence exists only while a
// channel is subscribed, and the chat log only while a chat is open, so
// neither is persisted.
var persistedSlots = map[Slot]bool{
	SlotSearch:  true,
	SlotExplore: true,
}

// BadgerFactory opens stores whose state survives reconnects and restarts.
// Each namespace is stored under its own key prefix.
type BadgerFactory struct {
	db *badger.DB
}

// OpenBadger opens (or creates) the database at path. An empty path opens
// an in-memory database.
func OpenBadger(path string) (*BadgerFactory, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}
	return &BadgerFactory{db: db}, nil
}

// NewBadgerFactory wraps an already opened database.
func NewBadgerFactory(db *badger.DB) *BadgerFactory {
	return &BadgerFactory{db: db}
}

// Open loads the saved state of namespace and returns a store that writes
// every change back.
func (f *BadgerFactory) Open(namespace string) (Store, error) {
	if namespace == "" {
		return nil, errors.New("store namespace is required")
	}

	state, err := f.load(namespace)
	if err != nil {
		return nil, err
	}

	s := newMemoryStoreFrom(state)
	s.onChange = func(slot Slot, st *State) {
		if !persistedSlots[slot] {
			return
		}
		if err := f.save(namespace, slot, st); err != nil {
			logging.Warn().Err(err).Str("namespace", namespace).Str("slot", string(slot)).Msg("Failed to persist store slot")
		}
	}
	return s, nil
}

// Drop removes every saved slot of namespace.
func (f *BadgerFactory) Drop(namespace string) error {
	prefix := []byte(stateKeyPrefix + namespace + ":")
	return f.db.DropPrefix(prefix)
}

// Close closes the database.
func (f *BadgerFactory) Close() error {
	return f.db.Close()
}

func stateKey(namespace string, slot Slot) []byte {
	return []byte(stateKeyPrefix + namespace + ":" + string(slot))
}

func (f *BadgerFactory) load(namespace string) (State, error) {
	var state State
	err := f.db.View(func(txn *badger.Txn) error {
		for slot := range persistedSlots {
			item, err := txn.Get(stateKey(namespace, slot))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("get %s: %w", slot, err)
			}
			if err := item.Value(func(val []byte) error {
				return decodeSlot(slot, val, &state)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", slot, err)
			}
		}
		return nil
	})
	if err != nil {
		return State{}, fmt.Errorf("load store %s: %w", namespace, err)
	}
	// A fetch that was in flight when the last session closed will never
	// complete.
	state.Search.Loading = false
	return state, nil
}

func (f *BadgerFactory) save(namespace string, slot Slot, st *State) error {
	data, err := encodeSlot(slot, st)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", slot, err)
	}
	return f.db.Update(func(txn *badger.Txn) error {
		return txn.Set(stateKey(namespace, slot), data)
	})
}

func encodeSlot(slot Slot, st *State) ([]byte, error) {
	switch slot {
	case SlotChatLog:
		return json.Marshal(st.ChatLog)
	case SlotSearch:
		return json.Marshal(st.Search)
	case SlotExplore:
		return json.Marshal(st.Explore)
	case SlotOnlineMembers:
		return json.Marshal(st.OnlineMembers)
	}
	return nil, fmt.Errorf("unknown slot %q", slot)
}

func decodeSlot(slot Slot, data []byte, st *State) error {
	switch slot {
	case SlotChatLog:
		return json.Unmarshal(data, &st.ChatLog)
	case SlotSearch:
		return json.Unmarshal(data, &st.Search)
	case SlotExplore:
		return json.Unmarshal(data, &st.Explore)
	case SlotOnlineMembers:
		return json.Unmarshal(data, &st.OnlineMembers)
	}
	return fmt.Errorf("unknown slot %q", slot)
}

var _ Factory = (*BadgerFactory)(nil)
