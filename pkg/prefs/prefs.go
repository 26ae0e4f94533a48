// Package prefs provides small key/value preference stores and the typed
// preferences built on them. Stores are always passed explicitly; there is
// no package-level instance.
package prefs

import (
	"maps"
	"strconv"
	"sync"
)

// Store is a string key/value preference store.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Clear(key string)
}

// Memory is an in-process Store.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

var _ Store = (*Memory)(nil)

// Get returns the value for key.
func (m *Memory) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

// Set stores value under key.
func (m *Memory) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

// Clear removes key.
func (m *Memory) Clear(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
}

// All returns a copy of every stored pair.
func (m *Memory) All() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.values)
}

const darkModeKey = "dark_mode"

// Theme is the dark-mode preference.
type Theme struct {
	mu    sync.Mutex
	store Store
}

// NewTheme creates a theme preference backed by store.
func NewTheme(store Store) *Theme {
	return &Theme{store: store}
}

// DarkMode reports whether dark mode is on. Defaults to false.
func (t *Theme) DarkMode() bool {
	v, ok := t.store.Get(darkModeKey)
	if !ok {
		return false
	}
	dark, err := strconv.ParseBool(v)
	return err == nil && dark
}

// SetDarkMode stores the preference.
func (t *Theme) SetDarkMode(dark bool) {
	t.store.Set(darkModeKey, strconv.FormatBool(dark))
}

// Toggle flips the preference and returns the new value.
func (t *Theme) Toggle() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	dark := !t.DarkMode()
	t.SetDarkMode(dark)
	return dark
}
