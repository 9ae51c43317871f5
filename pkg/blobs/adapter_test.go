package blobs

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func setupTestAdapter(t *testing.T, opts ...Option) *Adapter {
	t.Helper()
	a := NewAdapter(filepath.Join(t.TempDir(), "images.db"), opts...)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestAdapter_LazyOpen(t *testing.T) {
	a := setupTestAdapter(t)
	assert.Equal(t, StateUnopened, a.State())

	_, err := a.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Equal(t, StateOpen, a.State())
}

func TestAdapter_ConcurrentOpenSharesConnection(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	a := NewAdapter(filepath.Join(t.TempDir(), "images.db"))
	defer a.Close()

	ctx := context.Background()
	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := a.Get(ctx, "x")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	a.mu.Lock()
	opens := a.opens
	a.mu.Unlock()
	assert.Equal(t, 1, opens)
}

func TestAdapter_PutGetDelete(t *testing.T) {
	a := setupTestAdapter(t)
	ctx := context.Background()

	id, err := a.Put(ctx, "cover:serie_1", []byte("jpeg-bytes"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "cover:serie_1", id)

	b, err := a.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, []byte("jpeg-bytes"), b.Data)
	assert.Equal(t, "image/jpeg", b.ContentType)

	// Overwrite is idempotent on the identifier.
	_, err = a.Put(ctx, id, []byte("other"), "image/png")
	require.NoError(t, err)
	b, err = a.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("other"), b.Data)

	require.NoError(t, a.Delete(ctx, id))
	require.NoError(t, a.Delete(ctx, id))

	b, err = a.Get(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestAdapter_DisplayURL(t *testing.T) {
	urls := NewObjectURLs("http://localhost:3000")
	a := setupTestAdapter(t, WithObjectURLs(urls))
	ctx := context.Background()

	_, err := a.Put(ctx, "cover:serie_1", []byte{0xff, 0xd8}, "image/jpeg")
	require.NoError(t, err)

	u, err := a.DisplayURL(ctx, "cover:serie_1")
	require.NoError(t, err)
	assert.NotEmpty(t, u)
	assert.Contains(t, u, "http://localhost:3000/objects/")

	data, ct, ok := urls.Resolve(u)
	assert.True(t, ok)
	assert.Equal(t, []byte{0xff, 0xd8}, data)
	assert.Equal(t, "image/jpeg", ct)

	// The issued URL outlives the blob until the caller revokes it.
	require.NoError(t, a.Delete(ctx, "cover:serie_1"))
	b, err := a.Get(ctx, "cover:serie_1")
	require.NoError(t, err)
	assert.Nil(t, b)
	_, _, ok = urls.Resolve(u)
	assert.True(t, ok)

	urls.Revoke(u)
	_, _, ok = urls.Resolve(u)
	assert.False(t, ok)

	u, err = a.DisplayURL(ctx, "cover:serie_1")
	require.NoError(t, err)
	assert.Empty(t, u)
}

func TestAdapter_DeletePrefix(t *testing.T) {
	a := setupTestAdapter(t)
	ctx := context.Background()

	for _, id := range []string{"serie_1:chap_1:0", "serie_1:chap_1:1", "serie_1:chap_2:0", "serie_10:chap_9:0"} {
		_, err := a.Put(ctx, id, []byte(id), "image/jpeg")
		require.NoError(t, err)
	}

	n, err := a.DeletePrefix(ctx, "serie_1:")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	b, err := a.Get(ctx, "serie_10:chap_9:0")
	require.NoError(t, err)
	assert.NotNil(t, b)

	_, err = a.DeletePrefix(ctx, "")
	assert.Error(t, err)
}

func TestAdapter_Quota(t *testing.T) {
	a := setupTestAdapter(t, WithQuota(10))
	ctx := context.Background()

	_, err := a.Put(ctx, "a", []byte("123456"), "")
	require.NoError(t, err)

	_, err = a.Put(ctx, "b", []byte("123456"), "")
	assert.True(t, errors.Is(err, ErrQuotaExceeded))

	// Replacing an existing payload only counts the new size.
	_, err = a.Put(ctx, "a", []byte("1234567890"), "")
	assert.NoError(t, err)

	used, err := a.Usage(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(10), used)
}

func TestAdapter_ReopenKeepsSchemaAndData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "images.db")
	ctx := context.Background()

	a := NewAdapter(path)
	_, err := a.Put(ctx, "k", []byte("v"), "text/plain")
	require.NoError(t, err)
	require.NoError(t, a.Close())

	a = NewAdapter(path)
	defer a.Close()
	b, err := a.Get(ctx, "k")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, []byte("v"), b.Data)

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	var version int
	require.NoError(t, db.QueryRow(`PRAGMA user_version`).Scan(&version))
	assert.Equal(t, len(migrations), version)
}

func TestAdapter_Closed(t *testing.T) {
	a := NewAdapter(filepath.Join(t.TempDir(), "images.db"))
	require.NoError(t, a.Close())

	_, err := a.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, "closed", a.State().String())
}
