package storage

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, publicBase string) StorageService {
	t.Helper()

	svc, err := NewStorageService(context.Background(), ServiceConfig{
		S3BucketName:      "majlis",
		S3Endpoint:        "https://s3.example.com",
		S3AccessKeyID:     "AKIDEXAMPLE",
		S3SecretAccessKey: "secret",
		PublicBaseURL:     publicBase,
	})
	require.NoError(t, err)
	return svc
}

func TestPresignUploadIsOffline(t *testing.T) {
	svc := newTestClient(t, "")

	raw, err := svc.PresignUpload(context.Background(), "attachments/2026-10-16/abc.png", "image/png", 1024, 5*time.Minute)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "s3.example.com", u.Host)
	assert.Equal(t, "/majlis/attachments/2026-10-16/abc.png", u.Path)
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
	assert.Equal(t, "300", u.Query().Get("X-Amz-Expires"))
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t,
		"https://s3.example.com/majlis/attachments/a.png",
		newTestClient(t, "").PublicURL("attachments/a.png"))

	assert.Equal(t,
		"https://cdn.example.com/attachments/a.png",
		newTestClient(t, "https://cdn.example.com/").PublicURL("/attachments/a.png"))
}

func TestJoinURL(t *testing.T) {
	assert.Equal(t, "a/b", joinURL("a/", "/b"))
	assert.True(t, strings.HasSuffix(joinURL("https://x", "k"), "/k"))
}
