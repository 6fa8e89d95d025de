// Package upload stores dog images in object storage under random names.
package upload

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"mime"
	"path"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/tonybigdeals/dog-project/internal/logging"
	"github.com/tonybigdeals/dog-project/internal/services"
	"github.com/tonybigdeals/dog-project/internal/storage"
)

const (
	DefaultBucket   = "dog-images"
	DefaultMaxBytes = 5 << 20

	noFileMessage    = "没有上传文件"
	badTypeMessage   = "只支持图片文件 (jpeg, jpg, png, gif, webp)"
	noURLMessage     = "无法获取图片公开链接"
	uploadFailPrefix = "图片上传失败: "
)

var (
	allowedExt  = regexp.MustCompile(`^\.(jpe?g|png|gif|webp)$`)
	allowedMIME = regexp.MustCompile(`^image/(jpeg|png|gif|webp)$`)
)

// File is one uploaded part.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Result is returned on success.
type Result struct {
	URL     string `json:"url"`
	Message string `json:"message"`
}

type Config struct {
	Bucket   string
	MaxBytes int64
}

type Service struct {
	objects storage.ObjectStore
	cfg     Config
	log     *logging.Logger
}

func New(objects storage.ObjectStore, cfg Config, log *logging.Logger) *Service {
	if cfg.Bucket == "" {
		cfg.Bucket = DefaultBucket
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if log == nil {
		log = logging.NewDefault("upload")
	}
	return &Service{objects: objects, cfg: cfg, log: log}
}

// MaxBytes is the largest accepted file.
func (s *Service) MaxBytes() int64 { return s.cfg.MaxBytes }

// Check validates a file before any storage call.
func (s *Service) Check(f *File) error {
	if f == nil || f.Name == "" {
		return services.Validation(noFileMessage)
	}
	if int64(len(f.Data)) > s.cfg.MaxBytes {
		return services.Validation(TooLargeMessage(s.cfg.MaxBytes))
	}
	if !allowedExt.MatchString(strings.ToLower(path.Ext(f.Name))) || !allowedMIME.MatchString(mediaType(f.ContentType)) {
		return services.Validation(badTypeMessage)
	}
	if _, ok := sniff(f.Data); !ok {
		return services.Validation(badTypeMessage)
	}
	return nil
}

// mediaType lower-cases the declared type and drops its parameters.
func mediaType(declared string) string {
	mt, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return ""
	}
	return mt
}

// sniff detects the content type from the bytes. Only accepted image types pass, so the
// declared type never reaches storage.
func sniff(data []byte) (string, bool) {
	detected := mimetype.Detect(data).String()
	return detected, allowedMIME.MatchString(detected)
}

// TooLargeMessage is the rejection text for files over limit bytes.
func TooLargeMessage(limit int64) string {
	return fmt.Sprintf("图片大小不能超过 %dMB", limit>>20)
}

// UploadImage stores f at <bucket>/<bucket>/<hex>.<ext> without overwriting and returns its
// public URL.
func (s *Service) UploadImage(ctx context.Context, f *File) (Result, error) {
	if err := s.Check(f); err != nil {
		return Result{}, err
	}

	name, err := randomName(path.Ext(f.Name))
	if err != nil {
		return Result{}, services.Upstreamf(err, uploadFailPrefix)
	}
	objectPath := s.cfg.Bucket + "/" + name

	contentType, _ := sniff(f.Data)
	if err := s.objects.PutObject(ctx, s.cfg.Bucket, objectPath, f.Data, contentType); err != nil {
		s.log.WithContext(ctx).WithError(err).WithField("path", objectPath).Error("image upload failed")
		return Result{}, services.Upstreamf(err, uploadFailPrefix)
	}

	url := s.objects.PublicURL(s.cfg.Bucket, objectPath)
	if url == "" {
		return Result{}, &services.Error{Kind: services.ErrUpstream, Message: noURLMessage}
	}
	s.log.WithContext(ctx).WithField("path", objectPath).Info("image uploaded")
	return Result{URL: url, Message: "图片上传成功"}, nil
}

func randomName(ext string) (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate file name: %w", err)
	}
	return hex.EncodeToString(b) + strings.ToLower(ext), nil
}
