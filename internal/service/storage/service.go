package storage

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/internal/infra/config"
	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/internal/infra/logger"
	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/internal/service/carousel"
	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/pkg/errors"
	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/pkg/util"
)

const (
	TypeLocal = "local"
	TypeS3    = "s3"
)

// Service persists rendered slide images and exported bundles, either under
// a local directory served at baseURL or in an S3 compatible bucket.
type Service struct {
	storageType string
	basePath    string
	baseURL     string
	objects     ObjectStore
	expiry      time.Duration
	logger      *logger.Logger
	now         func() time.Time
}

func New(cfg config.StorageConfig, log *logger.Logger) (*Service, error) {
	switch cfg.Type {
	case "", TypeLocal:
		return &Service{
			storageType: TypeLocal,
			basePath:    cfg.BasePath,
			baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
			logger:      log,
			now:         time.Now,
		}, nil
	case TypeS3:
		store, err := NewMinioStore(cfg.S3.Endpoint, cfg.S3.AccessKey, cfg.S3.SecretKey, cfg.S3.Bucket, cfg.S3.UseSSL)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeStorage, "failed to connect object storage")
		}
		return NewWithObjectStore(store, time.Duration(cfg.S3.PresignHours)*time.Hour, log), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unsupported storage type: "+cfg.Type)
	}
}

func NewWithObjectStore(store ObjectStore, expiry time.Duration, log *logger.Logger) *Service {
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &Service{
		storageType: TypeS3,
		objects:     store,
		expiry:      expiry,
		logger:      log,
		now:         time.Now,
	}
}

func (s *Service) Type() string {
	return s.storageType
}

// SaveSlideImage stores img and returns a URL for it. Every call writes a new
// key so a regenerated slide never reuses a cached URL.
func (s *Service) SaveSlideImage(ctx context.Context, sessionID string, slideID int, img *carousel.Image) (string, error) {
	if img.Empty() {
		return "", errors.New(errors.ErrCodeStorage, "nothing to store")
	}
	mime := img.MIMEType
	if mime == "" {
		mime = util.DetectMimeType(img.Data)
	}
	name := fmt.Sprintf("slide-%d-%d%s", slideID, s.now().UnixNano(), util.ExtensionFor(mime))
	return s.save(ctx, sessionID, name, img.Data, mime)
}

// SaveBundle stores an exported ZIP for the session.
func (s *Service) SaveBundle(ctx context.Context, sessionID string, data []byte) (string, error) {
	return s.save(ctx, sessionID, "carousel.zip", data, "application/zip")
}

// DeleteSession drops everything stored for the session.
func (s *Service) DeleteSession(ctx context.Context, sessionID string) error {
	if err := validSegment(sessionID); err != nil {
		return err
	}
	switch s.storageType {
	case TypeS3:
		if err := s.objects.DeletePrefix(ctx, sessionID+"/"); err != nil {
			return errors.Wrap(err, errors.ErrCodeStorage, "failed to delete objects")
		}
	default:
		if err := os.RemoveAll(filepath.Join(s.basePath, sessionID)); err != nil {
			return errors.Wrap(err, errors.ErrCodeStorage, "failed to delete files")
		}
	}
	s.logger.Info("session storage deleted", "session_id", sessionID)
	return nil
}

func (s *Service) save(ctx context.Context, sessionID, name string, data []byte, contentType string) (string, error) {
	if err := validSegment(sessionID); err != nil {
		return "", err
	}
	switch s.storageType {
	case TypeS3:
		return s.saveS3(ctx, path.Join(sessionID, name), data, contentType)
	default:
		return s.saveLocal(sessionID, name, data)
	}
}

func (s *Service) saveLocal(sessionID, name string, data []byte) (string, error) {
	dir := filepath.Join(s.basePath, sessionID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorage, "failed to create output directory")
	}

	filePath := filepath.Join(dir, name)
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorage, "failed to write file")
	}

	url := fmt.Sprintf("%s/%s/%s", s.baseURL, sessionID, name)
	s.logger.Debug("saved file locally", "path", filePath, "url", url, "size", len(data))
	return url, nil
}

func (s *Service) saveS3(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := s.objects.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorage, "failed to upload object")
	}
	url, err := s.objects.PresignGet(ctx, key, s.expiry)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorage, "failed to sign object URL")
	}
	s.logger.Debug("saved object", "key", key, "size", len(data))
	return url, nil
}

func validSegment(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return errors.New(errors.ErrCodeInvalidReq, "invalid session id")
	}
	return nil
}
