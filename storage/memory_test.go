package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryUploadAndOpen(t *testing.T) {
	m := NewMemory("http://localhost:3000/storage/")
	ctx := context.Background()

	require.NoError(t, m.Upload(ctx, BucketChatFiles, "2026/10/19/k.png", strings.NewReader("png"), 3, "image/png"))

	url := m.PublicURL(BucketChatFiles, "2026/10/19/k.png")
	assert.Equal(t, "http://localhost:3000/storage/chat-files/2026/10/19/k.png", url)

	obj, err := m.Open(url)
	require.NoError(t, err)
	assert.Equal(t, "png", string(obj.Data))
	assert.Equal(t, "image/png", obj.ContentType)
	assert.Equal(t, 1, m.Uploads())
}

func TestMemoryShortBody(t *testing.T) {
	m := NewMemory("http://x")
	err := m.Upload(context.Background(), BucketChatFiles, "k", strings.NewReader("ab"), 5, "text/plain")
	assert.Error(t, err)
	assert.Equal(t, 0, m.Uploads())
}

func TestMemoryMissing(t *testing.T) {
	m := NewMemory("http://x")
	_, err := m.Open("http://x/chat-files/nope")
	assert.ErrorIs(t, err, ErrObjectNotFound)
	_, err = m.Open("http://elsewhere/chat-files/nope")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}
