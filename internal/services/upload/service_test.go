package upload

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonybigdeals/dog-project/internal/services"
	"github.com/tonybigdeals/dog-project/internal/storage/memory"
)

var (
	pngHeader  = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	jpegHeader = []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}
)

type countingObjects struct {
	puts int
	err  error
}

func (c *countingObjects) PutObject(context.Context, string, string, []byte, string) error {
	c.puts++
	return c.err
}

func (c *countingObjects) PublicURL(bucket, path string) string {
	return "https://cdn.example/" + bucket + "/" + path
}

func TestRejectedBeforeStorage(t *testing.T) {
	objects := &countingObjects{}
	svc := New(objects, Config{}, nil)
	ctx := context.Background()

	cases := []*File{
		nil,
		{Name: "virus.exe", ContentType: "application/octet-stream", Data: []byte("MZ")},
		{Name: "photo.png", ContentType: "application/x-msdownload", Data: pngHeader},
		{Name: "big.png", ContentType: "image/png", Data: make([]byte, 6<<20)},
		{Name: "x.apngexe", ContentType: "image/png", Data: pngHeader},
		{Name: "cute.png", ContentType: "text/html; x=png", Data: []byte("<html><script>alert(1)</script></html>")},
		{Name: "cute.png", ContentType: "image/png", Data: []byte("<html><script>alert(1)</script></html>")},
		{Name: "cute.png", ContentType: "image/pngx", Data: pngHeader},
	}
	for _, f := range cases {
		_, err := svc.UploadImage(ctx, f)
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, services.HTTPStatus(err))
	}
	assert.Zero(t, objects.puts)
}

func TestValidPNGIsServed(t *testing.T) {
	store := memory.New(memory.WithPublicBaseURL("http://localhost:5001/uploads/"))
	svc := New(store, Config{}, nil)
	ctx := context.Background()

	data := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 100<<10)...)
	res, err := svc.UploadImage(ctx, &File{Name: "Photo.PNG", ContentType: "image/png", Data: data})
	require.NoError(t, err)
	assert.Equal(t, "图片上传成功", res.Message)
	assert.Regexp(t, regexp.MustCompile(`^http://localhost:5001/uploads/dog-images/dog-images/[0-9a-f]{32}\.png$`), res.URL)

	objectPath := strings.TrimPrefix(res.URL, "http://localhost:5001/uploads/dog-images/")
	stored, contentType, err := store.GetObject(ctx, "dog-images", objectPath)
	require.NoError(t, err)
	assert.Equal(t, data, stored)
	assert.Equal(t, "image/png", contentType)
}

func TestStoredTypeIsSniffed(t *testing.T) {
	store := memory.New(memory.WithPublicBaseURL("/uploads"))
	svc := New(store, Config{}, nil)
	ctx := context.Background()

	// Declared as PNG with parameters, body is JPEG: both checks pass, the JPEG type is kept.
	res, err := svc.UploadImage(ctx, &File{Name: "dog.jpg", ContentType: "Image/PNG; charset=binary", Data: jpegHeader})
	require.NoError(t, err)

	_, contentType, err := store.GetObject(ctx, "dog-images", strings.TrimPrefix(res.URL, "/uploads/dog-images/"))
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", contentType)
}

func TestStorageFailureIs500(t *testing.T) {
	svc := New(&countingObjects{err: errors.New("bucket not found")}, Config{}, nil)

	_, err := svc.UploadImage(context.Background(), &File{Name: "a.jpg", ContentType: "image/jpeg", Data: jpegHeader})
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, services.HTTPStatus(err))
	assert.Equal(t, "图片上传失败: bucket not found", services.Message(err))
}

func TestNamesAreUnique(t *testing.T) {
	a, err := randomName(".JPG")
	require.NoError(t, err)
	b, err := randomName(".JPG")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasSuffix(a, ".jpg"))
}
