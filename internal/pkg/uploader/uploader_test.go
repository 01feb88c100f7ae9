package uploader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"postboard/internal/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	img := ObjectKey(KindImage, "Photo.JPG")
	assert.Regexp(t, `^images/[0-9a-f-]{36}\.jpg$`, img)

	doc := ObjectKey(KindDocument, "report.pdf")
	assert.True(t, strings.HasPrefix(doc, "documents/"))
	assert.NotEqual(t, doc, ObjectKey(KindDocument, "report.pdf"))

	assert.Regexp(t, `^documents/[0-9a-f-]{36}$`, ObjectKey(KindDocument, "README"))
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com/images/a.png", PublicURL("https://cdn.example.com/", "/images/a.png"))
}

func TestS3UploaderAgainstFakeEndpoint(t *testing.T) {
	var gotMethod, gotPath, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath, gotType = r.Method, r.URL.Path, r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx := context.Background()
	u, err := NewS3Uploader(ctx,
		config.StorageConfig{Bucket: "post-media", PublicBaseURL: "https://media.example.com"},
		config.S3Config{Region: "us-east-1", Endpoint: srv.URL, AccessKeyID: "key", SecretAccessKey: "secret", UsePathStyle: true},
	)
	require.NoError(t, err)

	obj, err := u.Upload(ctx, KindImage, "cat.png", strings.NewReader("png-bytes"), "image/png")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/post-media/"+obj.Key, gotPath)
	assert.Equal(t, "image/png", gotType)
	assert.Equal(t, "https://media.example.com/"+obj.Key, obj.URL)

	require.NoError(t, u.Delete(ctx, obj.Key))
	assert.Equal(t, http.MethodDelete, gotMethod)
}
