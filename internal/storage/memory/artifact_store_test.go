package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUploadAndObject(t *testing.T) {
	t.Parallel()
	store := NewArtifactStore()
	ctx := context.Background()

	require.NoError(t, store.Upload(ctx, "t/a.png", "image/png", []byte("frame")))

	obj, ok := store.Object("t/a.png")
	require.True(t, ok)
	require.Equal(t, []byte("frame"), obj.Data)
	require.Equal(t, "image/png", obj.ContentType)
}

func TestSignedURLIsStable(t *testing.T) {
	t.Parallel()
	store := NewArtifactStore()
	ctx := context.Background()

	first, err := store.SignedURL(ctx, "t/a.png")
	require.NoError(t, err)
	second, err := store.SignedURL(ctx, "t/a.png")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Contains(t, first, "t/a.png")
}

func TestDeleteRecordsKeys(t *testing.T) {
	t.Parallel()
	store := NewArtifactStore()
	ctx := context.Background()

	require.NoError(t, store.Upload(ctx, "t/a.png", "image/png", []byte("a")))
	require.NoError(t, store.Upload(ctx, "t/b.png", "image/png", []byte("b")))

	require.NoError(t, store.Delete(ctx, []string{"t/a.png", "t/missing.png"}))

	_, ok := store.Object("t/a.png")
	require.False(t, ok)
	_, ok = store.Object("t/b.png")
	require.True(t, ok)
	require.Equal(t, []string{"t/a.png", "t/missing.png"}, store.Deleted())
}

func TestInjectedErrors(t *testing.T) {
	t.Parallel()
	store := NewArtifactStore()
	ctx := context.Background()

	boom := errors.New("boom")
	store.UploadErr = boom
	store.SignErr = boom
	store.DeleteErr = boom

	require.ErrorIs(t, store.Upload(ctx, "k", "image/png", nil), boom)
	_, err := store.SignedURL(ctx, "k")
	require.ErrorIs(t, err, boom)
	require.ErrorIs(t, store.Delete(ctx, []string{"k"}), boom)
}
