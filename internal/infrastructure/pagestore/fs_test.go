package pagestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/provpack/internal/domain/ports"
)

const testPacket = "fs:tab:1960:mhg-2322-60"

func TestNewFSStore_RequiresDir(t *testing.T) {
	_, err := NewFSStore("")
	assert.Error(t, err)
}

func TestFSStore_PutAndRead(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.PutPage(testPacket, 1, "jpg", []byte("page one")))
	require.NoError(t, store.PutPage(testPacket, 2, "png", []byte("page two")))

	data, err := store.PageBytes(ctx, testPacket, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte("page one"), data)

	data, err = store.PageBytes(ctx, testPacket, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte("page two"), data)

	_, err = os.Stat(filepath.Join(store.Root(), "fs_tab_1960_mhg_2322_60", "0001.jpg"))
	assert.NoError(t, err)
}

func TestFSStore_PutReplacesOtherExtension(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.PutPage(testPacket, 1, "jpg", []byte("old")))
	require.NoError(t, store.PutPage(testPacket, 1, "png", []byte("new")))

	data, err := store.PageBytes(context.Background(), testPacket, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), data)
}

func TestFSStore_PutRejectsBadInput(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, store.PutPage(testPacket, 0, "jpg", nil))
	assert.Error(t, store.PutPage(testPacket, 1, "exe", nil))
}

func TestFSStore_MissingPage(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.PutPage(testPacket, 1, "jpg", []byte("x")))

	_, err = store.PageBytes(context.Background(), testPacket, 3)
	assert.ErrorIs(t, err, ports.ErrPageNotFound)

	_, err = store.PageBytes(context.Background(), "fs:tab:1960:unknown", 1)
	assert.ErrorIs(t, err, ports.ErrPageNotFound)
}

func TestFSStore_ListPages(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, p := range []int{3, 1, 2} {
		require.NoError(t, store.PutPage(testPacket, p, "jpg", []byte("x")))
	}
	dir := filepath.Join(store.Root(), packetDir(testPacket))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "0009.jpg.d"), 0755))

	pages, err := store.ListPages(ctx, testPacket)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, pages)

	pages, err = store.ListPages(ctx, "fs:tab:1960:none")
	require.NoError(t, err)
	assert.Empty(t, pages)
}

func TestFSStore_CancelledContext(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = store.PageBytes(ctx, testPacket, 1)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = store.ListPages(ctx, testPacket)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCollectPages(t *testing.T) {
	names := []string{"0002.jpg", "0001.PNG", "0002.png", "cover.jpg", "0000.jpg", "12.jpg", "0004.pdf", "0010.webp"}
	assert.Equal(t, []int{1, 2, 10}, collectPages(names))
}
