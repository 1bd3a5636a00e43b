package push

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagStore_MissingKeyReadsFalse(t *testing.T) {
	store, err := OpenFlagStore(filepath.Join(t.TempDir(), "flags.db"))
	require.NoError(t, err)
	defer store.Close()

	v, err := store.Get(FlagPromptDismissed)
	require.NoError(t, err)
	assert.False(t, v)
}

func TestFlagStore_SetGetRoundTrip(t *testing.T) {
	store, err := OpenFlagStore(filepath.Join(t.TempDir(), "flags.db"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Set(FlagNotificationsEnabled, true))
	v, err := store.Get(FlagNotificationsEnabled)
	require.NoError(t, err)
	assert.True(t, v)

	require.NoError(t, store.Set(FlagNotificationsEnabled, false))
	v, err = store.Get(FlagNotificationsEnabled)
	require.NoError(t, err)
	assert.False(t, v)
}

func TestFlagStore_IndependentKeys(t *testing.T) {
	store, err := OpenFlagStore(filepath.Join(t.TempDir(), "flags.db"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Set(FlagPromptDismissed, true))

	enabled, err := store.Get(FlagNotificationsEnabled)
	require.NoError(t, err)
	assert.False(t, enabled, "writing one flag must not touch the other")

	dismissed, err := store.Get(FlagPromptDismissed)
	require.NoError(t, err)
	assert.True(t, dismissed)
}

func TestFlagStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flags.db")

	store, err := OpenFlagStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(FlagNotificationsEnabled, true))
	require.NoError(t, store.Close())

	reopened, err := OpenFlagStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	v, err := reopened.Get(FlagNotificationsEnabled)
	require.NoError(t, err)
	assert.True(t, v, "flags must survive a page reload")
}
