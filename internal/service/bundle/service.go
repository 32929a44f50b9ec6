package bundle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/internal/infra/logger"
	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/internal/service/carousel"
	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/pkg/errors"
	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/pkg/util"
)

const manifestName = "manifest.json"

// Manifest describes the exported slides in carousel order.
type Manifest struct {
	Profession string          `json:"profession"`
	Topic      string          `json:"topic,omitempty"`
	Language   string          `json:"language"`
	RenderMode string          `json:"renderMode"`
	CreatedAt  time.Time       `json:"createdAt"`
	Slides     []ManifestSlide `json:"slides"`
}

type ManifestSlide struct {
	Page           int                  `json:"page"`
	ID             int                  `json:"id"`
	File           string               `json:"file"`
	TextOverlay    carousel.TextOverlay `json:"textOverlay"`
	VisualMetaphor string               `json:"visualMetaphor"`
}

// Service packs finished carousels into a single ZIP download.
type Service struct {
	logger *logger.Logger
	now    func() time.Time
}

func New(log *logger.Logger) *Service {
	return &Service{logger: log, now: time.Now}
}

// Build writes one page-numbered file per completed slide plus a manifest.
// Slides that are not completed are skipped; pages are numbered after
// skipping so the archive never has gaps.
func (s *Service) Build(cfg carousel.Config, slides []carousel.Slide) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	manifest := Manifest{
		Profession: cfg.Profession,
		Topic:      cfg.Topic,
		Language:   string(cfg.Language),
		RenderMode: string(cfg.RenderMode),
		CreatedAt:  s.now().UTC(),
	}

	page := 0
	for _, slide := range slides {
		if slide.Status != carousel.StatusCompleted || slide.Image.Empty() {
			continue
		}
		page++

		mime := slide.Image.MIMEType
		if mime == "" {
			mime = util.DetectMimeType(slide.Image.Data)
		}
		name := fmt.Sprintf("slide-%02d%s", page, util.ExtensionFor(mime))

		if err := writeEntry(zw, name, zip.Store, slide.Image.Data, manifest.CreatedAt); err != nil {
			return nil, err
		}
		manifest.Slides = append(manifest.Slides, ManifestSlide{
			Page:           page,
			ID:             slide.ID,
			File:           name,
			TextOverlay:    slide.TextOverlay,
			VisualMetaphor: slide.VisualMetaphor,
		})
	}

	if page == 0 {
		return nil, errors.New(errors.ErrCodeBundle, "no completed slides to export")
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeBundle, "failed to encode manifest")
	}
	if err := writeEntry(zw, manifestName, zip.Deflate, data, manifest.CreatedAt); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeBundle, "failed to finish archive")
	}

	s.logger.Info("bundle built", "slides", page, "size", buf.Len())
	return buf.Bytes(), nil
}

// images are already compressed, so they are stored as-is
func writeEntry(zw *zip.Writer, name string, method uint16, data []byte, modified time.Time) error {
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   method,
		Modified: modified,
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeBundle, "failed to add "+name)
	}
	if _, err := w.Write(data); err != nil {
		return errors.Wrap(err, errors.ErrCodeBundle, "failed to write "+name)
	}
	return nil
}
