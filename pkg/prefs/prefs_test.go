package prefs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/notepad/pkg/prefs"
)

func TestMemory(t *testing.T) {
	m := prefs.NewMemory()

	_, ok := m.Get("k")
	assert.False(t, ok)

	m.Set("k", "v")
	v, ok := m.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)
	assert.Equal(t, map[string]string{"k": "v"}, m.All())

	m.Clear("k")
	m.Clear("k")
	_, ok = m.Get("k")
	assert.False(t, ok)
}

func TestTheme(t *testing.T) {
	store := prefs.NewMemory()
	theme := prefs.NewTheme(store)

	assert.False(t, theme.DarkMode())
	assert.True(t, theme.Toggle())
	assert.True(t, theme.DarkMode())
	assert.False(t, theme.Toggle())

	theme.SetDarkMode(true)
	v, _ := store.Get("dark_mode")
	assert.Equal(t, "true", v)

	store.Set("dark_mode", "not-a-bool")
	assert.False(t, theme.DarkMode())
}
