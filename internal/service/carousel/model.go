package carousel

import (
	"strings"

	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/pkg/errors"
)

type Mode string

const (
	ModeTopic  Mode = "topic"
	ModeCustom Mode = "custom"
)

type RenderMode string

const (
	RenderOverlay RenderMode = "overlay"
	RenderBaked   RenderMode = "ai-baked"
)

type Language string

const (
	LanguageEN Language = "en"
	LanguageES Language = "es"
)

// Name is used inside prompts ("Output Language: Spanish").
func (l Language) Name() string {
	if l == LanguageEN {
		return "English"
	}
	return "Spanish"
}

// Image is an opaque binary blob: an uploaded reference or a rendered slide.
type Image struct {
	Data     []byte `json:"-"`
	MIMEType string `json:"mimeType"`
	URL      string `json:"url,omitempty"`
}

func (i *Image) Empty() bool {
	return i == nil || len(i.Data) == 0
}

// Config is the snapshot of user choices for one run. The orchestrator
// never mutates it.
type Config struct {
	Profession          string
	Topic               string
	CustomScript        string
	Mode                Mode
	RenderMode          RenderMode
	ReferenceImage      *Image
	StyleReferenceImage *Image
	LogoImage           *Image
	BrandColor          string
	VisualStyle         string
	Typography          string
	ShowPageNumbers     bool
	Language            Language
}

func DefaultConfig() Config {
	return Config{
		Profession:  "Filmmaker y Creador de Contenido",
		Mode:        ModeTopic,
		RenderMode:  RenderOverlay,
		BrandColor:  "#FACC15",
		VisualStyle: VisualStyles[0].ID,
		Typography:  TypographyStyles[0].ID,
		Language:    LanguageES,
	}
}

// Normalize fills empty enum fields with their defaults.
func (c Config) Normalize() Config {
	d := DefaultConfig()
	if c.Mode == "" {
		c.Mode = d.Mode
	}
	if c.RenderMode == "" {
		c.RenderMode = d.RenderMode
	}
	if c.Language == "" {
		c.Language = d.Language
	}
	if c.BrandColor == "" {
		c.BrandColor = d.BrandColor
	}
	if c.VisualStyle == "" {
		c.VisualStyle = d.VisualStyle
	}
	if c.Typography == "" {
		c.Typography = d.Typography
	}
	return c
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Profession) == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "profession is required")
	}
	switch c.Mode {
	case ModeTopic:
		if strings.TrimSpace(c.Topic) == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "topic is required in topic mode")
		}
	case ModeCustom:
		if strings.TrimSpace(c.CustomScript) == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "script is required in custom mode")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown mode: "+string(c.Mode))
	}
	switch c.RenderMode {
	case RenderOverlay, RenderBaked:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown render mode: "+string(c.RenderMode))
	}
	switch c.Language {
	case LanguageEN, LanguageES:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unsupported language: "+string(c.Language))
	}
	return nil
}

func (c Config) IsBaked() bool {
	return c.RenderMode == RenderBaked
}

type TextOverlay struct {
	Headline    string `json:"headline"`
	Subheadline string `json:"subheadline"`
	Tagline     string `json:"tagline,omitempty"`
}

// SlideSpec is one entry of a plan.
type SlideSpec struct {
	ID               int         `json:"id"`
	TextOverlay      TextOverlay `json:"textOverlay"`
	VisualMetaphor   string      `json:"visualMetaphor"`
	ImagePrompt      string      `json:"imagePrompt"`
	CompositionNotes string      `json:"compositionNotes,omitempty"`
	IncludeCharacter bool        `json:"includeCharacter"`
}

// ContextTag frames a single-slide plan request.
type ContextTag string

const (
	ContextCTA          ContextTag = "CTA"
	ContextIntermediate ContextTag = "INTERMEDIATE"
)

// Slide is a record of the store.
type Slide struct {
	SlideSpec
	Status Status `json:"status"`
	Image  *Image `json:"image,omitempty"`
	Error  string `json:"error,omitempty"`
}
