package storage

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/config"
)

func newTestStore(t *testing.T, maxBytes int64) *Store {
	t.Helper()
	store, err := NewStore(config.StorageConfig{Root: t.TempDir(), MaxBytes: maxBytes})
	require.NoError(t, err)
	store.now = func() time.Time { return time.Date(2024, 8, 3, 14, 5, 9, 0, time.UTC) }
	return store
}

func TestStore_RoundTrip(t *testing.T) {
	store := newTestStore(t, 1024)
	ctx := context.Background()

	stored, err := store.Store(ctx, "Rapor Özet.txt", "tickets/42", strings.NewReader("hello world"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored.Handle, "tickets/42/Rapor_Ozet_20240803_140509_"), stored.Handle)
	assert.True(t, strings.HasSuffix(stored.Handle, ".txt"))
	assert.Equal(t, int64(11), stored.Size)
	assert.Contains(t, stored.ContentType, "text/plain")

	data, err := store.Retrieve(ctx, stored.Handle)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))

	info, err := store.Info(stored.Handle)
	require.NoError(t, err)
	assert.Equal(t, ".txt", info.Extension)

	files, err := store.List("tickets/42")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, stored.Handle, files[0].Handle)

	deleted, err := store.Delete(ctx, stored.Handle)
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = store.Delete(ctx, stored.Handle)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = store.Retrieve(ctx, stored.Handle)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_RejectsDisallowedAndOversized(t *testing.T) {
	store := newTestStore(t, 8)
	ctx := context.Background()

	_, err := store.Store(ctx, "run.exe", "", strings.NewReader("MZ"))
	assert.ErrorIs(t, err, ErrTypeNotAllowed)

	_, err = store.Store(ctx, "big.txt", "", bytes.NewReader(make([]byte, 9)))
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = store.Store(ctx, "empty.txt", "", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmpty)

	files, err := store.List("")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestStore_ResolveBlocksTraversal(t *testing.T) {
	store := newTestStore(t, 1024)
	for _, handle := range []string{"../etc/passwd", "uploads/../../x", "..\\x", "", "/"} {
		_, err := store.Retrieve(context.Background(), handle)
		assert.ErrorIs(t, err, ErrInvalidPath, handle)
	}
}

func TestStore_CancelledContext(t *testing.T) {
	store := newTestStore(t, 1024)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := store.Store(ctx, "a.txt", "", strings.NewReader("data"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestValidate(t *testing.T) {
	store := newTestStore(t, 10)
	assert.True(t, store.ValidateType("report.PDF"))
	assert.True(t, store.ValidateType("archive.7z"))
	assert.False(t, store.ValidateType("script.sh"))
	assert.False(t, store.ValidateType("noext"))
	assert.True(t, store.ValidateSize(10))
	assert.False(t, store.ValidateSize(11))
	assert.False(t, store.ValidateSize(0))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "cgiosu_CGIOSU", SanitizeName("çğıöşü ÇĞIÖŞÜ"))
	assert.Equal(t, "a_b__c_", SanitizeName("a-b (c)"))
	assert.Equal(t, "file", SanitizeName(".."))
	assert.Equal(t, "file", SanitizeName(""))
	assert.Equal(t, "uploads", SanitizeFolder("../.."))
	assert.Equal(t, "a/b", SanitizeFolder("/a/../b/"))
	assert.Equal(t, "x_y/z", SanitizeFolder("x y\\z"))
}

func TestHumanSize(t *testing.T) {
	assert.Equal(t, "512 B", HumanSize(512))
	assert.Equal(t, "1.5 KB", HumanSize(1536))
	assert.Equal(t, "10 MB", HumanSize(10*1024*1024))
}

func TestStore_SubIsConfined(t *testing.T) {
	store := newTestStore(t, 1024)
	ctx := context.Background()

	private, err := store.Store(ctx, "contract.txt", "tickets/globex", strings.NewReader("globex secret"))
	require.NoError(t, err)

	shared, err := store.Sub(SharedFolder)
	require.NoError(t, err)
	assert.Equal(t, store.MaxBytes(), shared.MaxBytes())

	_, err = shared.Retrieve(ctx, private.Handle)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = shared.Retrieve(ctx, "../"+private.Handle)
	assert.ErrorIs(t, err, ErrInvalidPath)
	files, err := shared.List("tickets/globex")
	require.NoError(t, err)
	assert.Empty(t, files)

	deleted, err := shared.Delete(ctx, private.Handle)
	require.NoError(t, err)
	assert.False(t, deleted)

	data, err := store.Retrieve(ctx, private.Handle)
	require.NoError(t, err)
	assert.Equal(t, "globex secret", string(data))
}
