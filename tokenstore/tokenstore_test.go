package tokenstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func openTestStore(t *testing.T) *Store {
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	store := openTestStore(t)

	expiry := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	token := &oauth2.Token{
		AccessToken:  "at",
		TokenType:    "Bearer",
		RefreshToken: "rt",
		Expiry:       expiry,
	}
	require.NoError(t, store.Save("calendar", token))

	loaded, err := store.Load("calendar")
	require.NoError(t, err)
	assert.Equal(t, "at", loaded.AccessToken)
	assert.Equal(t, "Bearer", loaded.TokenType)
	assert.Equal(t, "rt", loaded.RefreshToken)
	assert.True(t, expiry.Equal(loaded.Expiry.UTC()))
}

func TestStore_SaveReplaces(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Save("calendar", &oauth2.Token{AccessToken: "old", TokenType: "Bearer", RefreshToken: "rt1"}))
	require.NoError(t, store.Save("calendar", &oauth2.Token{AccessToken: "new", TokenType: "Bearer", RefreshToken: "rt2"}))

	loaded, err := store.Load("calendar")
	require.NoError(t, err)
	assert.Equal(t, "new", loaded.AccessToken)
	assert.Equal(t, "rt2", loaded.RefreshToken)
}

func TestStore_KeysAreIndependent(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Save("calendar", &oauth2.Token{AccessToken: "cal", TokenType: "Bearer"}))
	require.NoError(t, store.Save("youtube", &oauth2.Token{AccessToken: "yt", TokenType: "Bearer"}))

	cal, err := store.Load("calendar")
	require.NoError(t, err)
	yt, err := store.Load("youtube")
	require.NoError(t, err)
	assert.Equal(t, "cal", cal.AccessToken)
	assert.Equal(t, "yt", yt.AccessToken)
}

func TestStore_LoadMissing(t *testing.T) {
	store := openTestStore(t)
	_, err := store.Load("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Delete(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Save("calendar", &oauth2.Token{AccessToken: "at", TokenType: "Bearer"}))
	require.NoError(t, store.Delete("calendar"))

	_, err := store.Load("calendar")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, store.Delete("calendar"), "deleting a missing token is not an error")
}

func TestStore_ReopenPersists(t *testing.T) {
	dir := t.TempDir()

	store, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, store.Save("calendar", &oauth2.Token{AccessToken: "at", TokenType: "Bearer"}))
	require.NoError(t, store.Close())

	reopened, err := Open(dir)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.Load("calendar")
	require.NoError(t, err)
	assert.Equal(t, "at", loaded.AccessToken)
}
