package storage

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenSignerRoundTrip(t *testing.T) {
	signer := NewTokenSigner("secret", time.Hour)
	token, expiresAt, err := signer.Sign("job-1", "form-3/records.csv")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := signer.Verify(token, false)
	require.NoError(t, err)
	require.Equal(t, "job-1", claims.ExportID)
	require.Equal(t, "form-3/records.csv", claims.Path)
	require.True(t, expiresAt.Equal(claims.ExpiresAt))
}

func TestTokenSignerExpiry(t *testing.T) {
	signer := NewTokenSigner("secret", time.Minute)
	token, _, err := signer.Sign("job-1", "a.csv")
	require.NoError(t, err)

	signer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = signer.Verify(token, false)
	require.ErrorIs(t, err, ErrTokenExpired)

	claims, err := signer.Verify(token, true)
	require.NoError(t, err)
	require.Equal(t, "a.csv", claims.Path)
}

func TestTokenSignerRejectsTampering(t *testing.T) {
	signer := NewTokenSigner("secret", time.Hour)
	token, _, err := signer.Sign("job-1", "a.csv")
	require.NoError(t, err)

	other := NewTokenSigner("other", time.Hour)
	_, err = other.Verify(token, false)
	require.ErrorIs(t, err, ErrTokenSignature)

	_, err = signer.Verify("not-a-token", false)
	require.ErrorIs(t, err, ErrTokenMalformed)

	_, _, err = NewTokenSigner("", time.Hour).Sign("job-1", "a.csv")
	require.Error(t, err)
}

func TestLocalStorageRejectsEscapes(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	name, err := store.Save("form-1/export.csv", []byte("a,b\n"))
	require.NoError(t, err)
	require.Equal(t, "form-1/export.csv", name)

	f, err := store.Open(name)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = store.Save("../outside.csv", []byte("x"))
	require.Error(t, err)
	_, err = store.Open("/etc/passwd")
	require.Error(t, err)

	require.NoError(t, store.Delete(name))
	require.NoError(t, store.Delete(name))
	_, err = os.Stat(store.Path(name))
	require.True(t, os.IsNotExist(err))
}

func TestLocalStorageCleanup(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	_, err = store.Save("old.csv", []byte("x"))
	require.NoError(t, err)
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(store.Path("old.csv"), past, past))
	_, err = store.Save("new.csv", []byte("y"))
	require.NoError(t, err)

	deleted, err := store.CleanupOlderThan(time.Hour)
	require.NoError(t, err)
	require.Equal(t, []string{"old.csv"}, deleted)
}
