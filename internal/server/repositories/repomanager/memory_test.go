package repomanager

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/assetorigin/internal/common"
	"github.com/dmitrijs2005/assetorigin/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemory_AssetLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewInMemoryRepositoryManager()
	ar, vr := m.Assets(nil), m.Versions(nil)

	a, err := ar.Create(ctx, models.NewAsset{StorageKey: "k", MimeType: "text/plain", ETag: `"e"`})
	require.NoError(t, err)
	assert.False(t, a.Published())

	v, err := vr.Create(ctx, a.ID, "versions/k", a.ETag)
	require.NoError(t, err)

	moved, err := ar.RepointCurrentVersion(ctx, a.ID, v.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, v.ID, *moved.CurrentVersionID)
	assert.True(t, moved.UpdatedAt.After(a.UpdatedAt))

	_, err = ar.RepointCurrentVersion(ctx, a.ID, "other", nil)
	assert.ErrorIs(t, err, common.ErrVersionConflict)

	got, err := vr.GetByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "text/plain", got.MimeType)

	_, err = ar.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestInMemory_Tokens(t *testing.T) {
	ctx := context.Background()
	m := NewInMemoryRepositoryManager()
	a, err := m.Assets(nil).Create(ctx, models.NewAsset{StorageKey: "k", ETag: `"e"`, IsPrivate: true})
	require.NoError(t, err)

	tr := m.AccessTokens(nil)
	now := time.Now()
	require.NoError(t, tr.Create(ctx, []byte("live"), a.ID, now.Add(time.Hour)))
	require.NoError(t, tr.Create(ctx, []byte("dead"), a.ID, now.Add(-time.Hour)))
	require.NoError(t, tr.Create(ctx, []byte("orphan"), "missing", now.Add(time.Hour)))

	rec, err := tr.Find(ctx, []byte("live"))
	require.NoError(t, err)
	assert.Equal(t, "k", rec.Grant.StorageKey)

	_, err = tr.Find(ctx, []byte("orphan"))
	assert.ErrorIs(t, err, common.ErrorNotFound)

	n, err := tr.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = tr.Find(ctx, []byte("dead"))
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
