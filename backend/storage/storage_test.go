package storage

import (
	"context"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalBucket(t *testing.T) {
	ctx := context.Background()
	bucket, err := NewLocalBucket(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, bucket.Put(ctx, "user-1.png", strings.NewReader("png-bytes")))

	rc, err := bucket.Open(ctx, "user-1.png")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, bucket.Remove(ctx, "user-1.png", "never-existed.png"))
	_, err = bucket.Open(ctx, "user-1.png")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	assert.ErrorIs(t, bucket.Put(ctx, "../escape.png", strings.NewReader("x")), ErrInvalidKey)
	_, err = bucket.Open(ctx, "a/b.png")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestSignerRoundTrip(t *testing.T) {
	signer := NewSigner("storage-secret", "https://api.shelfcontrol.app/storage/avatars/")

	signed, err := signer.SignedURL("user-1.png", time.Hour)
	require.NoError(t, err)

	u, err := url.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "/storage/avatars/user-1.png", u.Path)

	token := u.Query().Get("token")
	require.NotEmpty(t, token)
	assert.NoError(t, signer.Verify("user-1.png", token))
}

func TestSignerRejects(t *testing.T) {
	signer := NewSigner("storage-secret", "http://localhost/storage/avatars")

	token, err := signer.Token("user-1.png", time.Hour)
	require.NoError(t, err)

	assert.ErrorIs(t, signer.Verify("user-2.png", token), ErrInvalidToken)
	assert.ErrorIs(t, NewSigner("other-secret", "").Verify("user-1.png", token), ErrInvalidToken)
	assert.ErrorIs(t, signer.Verify("user-1.png", "not-a-jwt"), ErrInvalidToken)

	expired, err := signer.Token("user-1.png", -time.Minute)
	require.NoError(t, err)
	assert.ErrorIs(t, signer.Verify("user-1.png", expired), ErrInvalidToken)

	_, err = signer.Token("../etc/passwd", time.Hour)
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestSignMany(t *testing.T) {
	signer := NewSigner("storage-secret", "http://localhost/storage/avatars")
	keys := []string{"a.png", "b.png", "c.png", "d.png", "e.png", "f.png", "g.png", "h.png", "i.png", "j.png"}

	urls, err := signer.SignMany(context.Background(), keys, time.Hour)
	require.NoError(t, err)
	require.Len(t, urls, len(keys))
	for _, k := range keys {
		assert.Contains(t, urls[k], "/storage/avatars/"+k+"?token=")
	}

	_, err = signer.SignMany(context.Background(), []string{"ok.png", "bad/key.png"}, time.Hour)
	assert.ErrorIs(t, err, ErrInvalidKey)
}
