package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
)

// StorageClient handles Supabase Storage operations.
type StorageClient struct {
	client *Client
}

// =============================================================================
// Object Operations
// =============================================================================

// Upload uploads a file to storage. Without Upsert an existing object yields a 409 error.
func (s *StorageClient) Upload(ctx context.Context, bucketID, filePath string, data []byte, opts *UploadOptions) (*FileObject, error) {
	urlStr := fmt.Sprintf("%s/object/%s/%s", s.client.storageURL, url.PathEscape(bucketID), escapeObjectPath(filePath))

	headers := map[string]string{}
	if opts != nil {
		if opts.ContentType != "" {
			headers["Content-Type"] = opts.ContentType
		}
		if opts.CacheControl != "" {
			headers["Cache-Control"] = opts.CacheControl
		}
		headers["x-upsert"] = fmt.Sprint(opts.Upsert)
	}

	if headers["Content-Type"] == "" {
		headers["Content-Type"] = "application/octet-stream"
	}

	respBody, statusCode, err := s.client.request(ctx, http.MethodPost, urlStr, data, headers)
	if err != nil {
		return nil, err
	}

	if statusCode >= 400 {
		return nil, parseError(respBody, statusCode)
	}

	var result struct {
		Key string `json:"Key"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return &FileObject{
		Name:     path.Base(filePath),
		Key:      result.Key,
		BucketID: bucketID,
	}, nil
}

// GetPublicURL returns the public URL for a file in a public bucket.
func (s *StorageClient) GetPublicURL(bucketID, filePath string) string {
	return fmt.Sprintf("%s/object/public/%s/%s", s.client.storageURL, url.PathEscape(bucketID), escapeObjectPath(filePath))
}

// escapeObjectPath escapes each path segment, keeping the separators.
func escapeObjectPath(p string) string {
	segments := strings.Split(strings.TrimLeft(p, "/"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}
