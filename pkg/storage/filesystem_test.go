package storage

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoragePutOpenRemove(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "http://localhost:8080/", NewSignedURLSigner("secret", time.Minute))
	require.NoError(t, err)
	ctx := context.Background()

	payload := []byte("%PDF-1.4\n%test document\n")
	require.NoError(t, store.Put(ctx, BucketMaterials, "1_modul.pdf", bytes.NewReader(payload), int64(len(payload)), "application/pdf"))

	reader, info, err := store.Open(ctx, BucketMaterials, "1_modul.pdf")
	require.NoError(t, err)
	body, err := io.ReadAll(reader)
	require.NoError(t, err)
	require.NoError(t, reader.Close())
	assert.Equal(t, payload, body)
	assert.Equal(t, int64(len(payload)), info.Size)
	assert.Equal(t, "application/pdf", info.ContentType)

	require.NoError(t, store.Remove(ctx, BucketMaterials, "1_modul.pdf", "missing.pdf"))
	_, _, err = store.Open(ctx, BucketMaterials, "1_modul.pdf")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalStorageRejectsTraversalAndUnknownBucket(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "", nil)
	require.NoError(t, err)
	ctx := context.Background()

	err = store.Put(ctx, BucketPreviews, "../../etc/passwd", strings.NewReader("x"), 1, "")
	assert.Error(t, err)

	err = store.Put(ctx, "secrets", "a.txt", strings.NewReader("x"), 1, "")
	assert.ErrorIs(t, err, ErrUnknownBucket)
}

func TestLocalStorageURLs(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	store, err := NewLocalStorage(t.TempDir(), "https://bk.example.sch.id/api/v1", signer)
	require.NoError(t, err)

	assert.Equal(t, "https://bk.example.sch.id/api/v1/files/previews/1_cover%20a.png", store.PublicURL(BucketPreviews, "1_cover a.png"))
	assert.Empty(t, store.PublicURL(BucketPreviews, ""))

	signed, err := store.SignedURL(context.Background(), BucketMaterials, "1_modul.pdf", time.Minute)
	require.NoError(t, err)
	u, err := url.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/files/materials/1_modul.pdf", u.Path)

	bucket, path, _, err := signer.Parse(u.Query().Get("token"), false)
	require.NoError(t, err)
	assert.Equal(t, BucketMaterials, bucket)
	assert.Equal(t, "1_modul.pdf", path)
}

func TestObjectName(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	assert.Equal(t, "1700000000123_modul_bab_1.pdf", ObjectName("Modul Bab 1.PDF", now))
	assert.Equal(t, "1700000000123_file", ObjectName("", now))
	assert.Equal(t, "1700000000123_passwd", ObjectName("../../passwd", now))
}

func TestMIMEAllowed(t *testing.T) {
	allowed := []string{"image/*", "application/pdf"}
	assert.True(t, MIMEAllowed("image/png", allowed))
	assert.True(t, MIMEAllowed("application/pdf", allowed))
	assert.False(t, MIMEAllowed("application/zip", allowed))
	assert.True(t, MIMEAllowed("text/plain; charset=utf-8", nil))
}

func TestDetectMIMERewinds(t *testing.T) {
	reader := bytes.NewReader([]byte("\x89PNG\r\n\x1a\n0000"))
	mt, err := DetectMIME(reader)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mt)
	pos, err := reader.Seek(0, io.SeekCurrent)
	require.NoError(t, err)
	assert.Zero(t, pos)
}
