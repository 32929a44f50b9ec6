package api

import (
	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/internal/service/carousel"
	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/internal/service/orchestrator"
	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/pkg/errors"
	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/pkg/util"
)

// CreateCarouselRequest carries the user's choices. Images are data URLs or
// bare base64.
type CreateCarouselRequest struct {
	Profession          string `json:"profession" binding:"required"`
	Topic               string `json:"topic"`
	CustomScript        string `json:"customScript"`
	Mode                string `json:"mode"`
	RenderMode          string `json:"renderMode"`
	ReferenceImage      string `json:"referenceImage"`
	StyleReferenceImage string `json:"styleReferenceImage"`
	LogoImage           string `json:"logoImage"`
	BrandColor          string `json:"brandColor"`
	VisualStyle         string `json:"visualStyle"`
	Typography          string `json:"typography"`
	ShowPageNumbers     bool   `json:"showPageNumbers"`
	Language            string `json:"language"`
	Stream              bool   `json:"stream"`
}

func (r CreateCarouselRequest) toConfig() (carousel.Config, error) {
	cfg := carousel.Config{
		Profession:      r.Profession,
		Topic:           r.Topic,
		CustomScript:    r.CustomScript,
		Mode:            carousel.Mode(r.Mode),
		RenderMode:      carousel.RenderMode(r.RenderMode),
		BrandColor:      r.BrandColor,
		VisualStyle:     r.VisualStyle,
		Typography:      r.Typography,
		ShowPageNumbers: r.ShowPageNumbers,
		Language:        carousel.Language(r.Language),
	}

	var err error
	if cfg.ReferenceImage, err = decodeImage(r.ReferenceImage, "referenceImage"); err != nil {
		return cfg, err
	}
	if cfg.StyleReferenceImage, err = decodeImage(r.StyleReferenceImage, "styleReferenceImage"); err != nil {
		return cfg, err
	}
	if cfg.LogoImage, err = decodeImage(r.LogoImage, "logoImage"); err != nil {
		return cfg, err
	}

	cfg = cfg.Normalize()
	return cfg, cfg.Validate()
}

func decodeImage(s, field string) (*carousel.Image, error) {
	if s == "" {
		return nil, nil
	}
	data, mime, err := util.DecodeDataURL(s)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidReq, "failed to decode "+field)
	}
	return &carousel.Image{Data: data, MIMEType: mime}, nil
}

type RegenerateAllRequest struct {
	Refinement string `json:"refinement"`
	Stream     bool   `json:"stream"`
}

type RegenerateSlideRequest struct {
	Refinement string `json:"refinement"`
}

type InsertSlideRequest struct {
	After       *int   `json:"after" binding:"required"`
	Instruction string `json:"instruction" binding:"required"`
}

type AppendCTARequest struct {
	Instruction string `json:"instruction"`
}

type ImproveScriptRequest struct {
	Script     string `json:"script" binding:"required"`
	Profession string `json:"profession"`
	Language   string `json:"language"`
}

type ImproveScriptResponse struct {
	Script string `json:"script"`
}

type ConnectCredentialRequest struct {
	APIKey string `json:"apiKey" binding:"required"`
}

type CredentialResponse struct {
	Available bool `json:"available"`
}

type PresetsResponse struct {
	VisualStyles []carousel.VisualPreset    `json:"visualStyles"`
	Typography   []carousel.TypographyStyle `json:"typography"`
}

type ExportResponse struct {
	URL string `json:"url"`
}

type CarouselResponse struct {
	ID              string     `json:"id"`
	Phase           string     `json:"phase"`
	ShowPageNumbers bool       `json:"showPageNumbers"`
	Slides          []SlideDTO `json:"slides"`
	Error           *ErrorBody `json:"error,omitempty"`
}

type SlideDTO struct {
	ID               int                  `json:"id"`
	Page             int                  `json:"page"`
	Status           string               `json:"status"`
	TextOverlay      carousel.TextOverlay `json:"textOverlay"`
	VisualMetaphor   string               `json:"visualMetaphor,omitempty"`
	ImagePrompt      string               `json:"imagePrompt,omitempty"`
	IncludeCharacter bool                 `json:"includeCharacter"`
	ImageURL         string               `json:"imageUrl,omitempty"`
	Error            string               `json:"error,omitempty"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

// StreamEvent is the payload of every SSE message.
type StreamEvent struct {
	Event     string      `json:"event"`
	Data      interface{} `json:"data"`
	SessionID string      `json:"sessionId"`
}

type EventStart struct {
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

type EventProgress struct {
	Message  string     `json:"message"`
	SlideID  int        `json:"slideId,omitempty"`
	Progress int        `json:"progress"`
	Slides   []SlideDTO `json:"slides,omitempty"`
	Slide    *SlideDTO  `json:"slide,omitempty"`
}

const (
	EventTypeStart = "start"
	EventTypeState = "state"
	EventTypeError = "error"
)

func toSlideDTO(s carousel.Slide, page int) SlideDTO {
	dto := SlideDTO{
		ID:               s.ID,
		Page:             page,
		Status:           string(s.Status),
		TextOverlay:      s.TextOverlay,
		VisualMetaphor:   s.VisualMetaphor,
		ImagePrompt:      s.ImagePrompt,
		IncludeCharacter: s.IncludeCharacter,
		Error:            s.Error,
	}
	if !s.Image.Empty() {
		dto.ImageURL = s.Image.URL
		if dto.ImageURL == "" {
			dto.ImageURL = util.EncodeDataURL(s.Image.Data, s.Image.MIMEType)
		}
	}
	return dto
}

func toSlideDTOs(slides []carousel.Slide) []SlideDTO {
	out := make([]SlideDTO, len(slides))
	for i, s := range slides {
		out[i] = toSlideDTO(s, i+1)
	}
	return out
}

func toCarouselResponse(id string, st orchestrator.State) CarouselResponse {
	resp := CarouselResponse{
		ID:     id,
		Phase:  string(st.Phase),
		Slides: toSlideDTOs(st.Slides),
	}
	if st.Config != nil {
		resp.ShowPageNumbers = st.Config.ShowPageNumbers
	}
	if st.Error != "" {
		resp.Error = &ErrorBody{Code: st.ErrorCode, Message: st.Error}
	}
	return resp
}
