package identity

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tokenPattern = regexp.MustCompile(`^anon_\d+_[0-9a-z]{9}$`)

type brokenStore struct{}

func (brokenStore) Get(string) (string, error) { return "", errors.New("storage disabled") }
func (brokenStore) Set(string, string) error   { return errors.New("storage disabled") }

type readOnlyStore struct{}

func (readOnlyStore) Get(string) (string, error) { return "", ErrNotFound }
func (readOnlyStore) Set(string, string) error   { return errors.New("quota exceeded") }

func TestResolveAuthenticatedUser(t *testing.T) {
	r := NewResolver(NewMemoryStore())
	id := r.Resolve("user-1")

	assert.Equal(t, User("user-1"), id)
	assert.True(t, id.IsUser())
	assert.True(t, id.Valid())
}

func TestResolveAnonymousIsStable(t *testing.T) {
	store := NewMemoryStore()
	r := NewResolver(store)

	first := r.Resolve("")
	require.Equal(t, KindAnonymous, first.Kind)
	assert.Regexp(t, tokenPattern, first.ID)

	for i := 0; i < 5; i++ {
		assert.Equal(t, first, r.Resolve(""))
	}

	persisted, err := store.Get(StorageKey)
	require.NoError(t, err)
	assert.Equal(t, first.ID, persisted)

	// A second resolver over the same store sees the same token.
	assert.Equal(t, first, NewResolver(store).Resolve(""))
}

func TestResolveDegradesWhenStorageUnavailable(t *testing.T) {
	for name, store := range map[string]Store{"broken": brokenStore{}, "read-only": readOnlyStore{}, "nil": nil} {
		t.Run(name, func(t *testing.T) {
			r := NewResolver(store)
			a := r.Resolve("")
			b := r.Resolve("")
			assert.Regexp(t, tokenPattern, a.ID)
			assert.Regexp(t, tokenPattern, b.ID)
			assert.NotEqual(t, a.ID, b.ID)
		})
	}
}

func TestIdentityValid(t *testing.T) {
	assert.False(t, Identity{}.Valid())
	assert.False(t, Anonymous("  ").Valid())
	assert.False(t, Identity{Kind: "robot", ID: "x"}.Valid())
	assert.Equal(t, "anonymous:abc", Anonymous("abc").String())
	assert.False(t, Anonymous(strings.Repeat("a", MaxTokenLength+1)).Valid())
	assert.False(t, Anonymous("anon_1_abc'; drop").Valid())
	assert.True(t, Anonymous(strings.Repeat("a", MaxTokenLength)).Valid())
}

func TestResolveReplacesMalformedStoredToken(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Set(StorageKey, strings.Repeat("x", MaxTokenLength+1)))

	id := NewResolver(store).Resolve("")
	assert.Regexp(t, tokenPattern, id.ID)

	persisted, err := store.Get(StorageKey)
	require.NoError(t, err)
	assert.Equal(t, id.ID, persisted)
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "storage.json")

	first := NewResolver(NewFileStore(path)).Resolve("")
	second := NewResolver(NewFileStore(path)).Resolve("")
	assert.Equal(t, first, second)

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestFileStoreCorruptFileFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store := NewFileStore(path)
	_, err := store.Get(StorageKey)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	r := NewResolver(store)
	assert.NotEqual(t, r.Resolve("").ID, r.Resolve("").ID)
}
