package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/internal/infra/logger"
	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/internal/service/carousel"
	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/internal/service/orchestrator"
	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/internal/service/session"
	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/pkg/errors"
)

type ScriptImprover interface {
	ImproveScript(ctx context.Context, script, profession string, lang carousel.Language) (string, error)
}

type CredentialManager interface {
	IsAvailable(ctx context.Context) bool
	Connect(ctx context.Context, key string) error
	Disconnect(ctx context.Context) error
}

type Exporter interface {
	Build(cfg carousel.Config, slides []carousel.Slide) ([]byte, error)
}

type BundleSaver interface {
	SaveBundle(ctx context.Context, sessionID string, data []byte) (string, error)
}

type Handler struct {
	sessions *session.Registry
	scripts  ScriptImprover
	creds    CredentialManager
	exporter Exporter
	saver    BundleSaver
	logger   *logger.Logger
}

func NewHandler(
	sessions *session.Registry,
	scripts ScriptImprover,
	creds CredentialManager,
	exporter Exporter,
	saver BundleSaver,
	log *logger.Logger,
) *Handler {
	return &Handler{
		sessions: sessions,
		scripts:  scripts,
		creds:    creds,
		exporter: exporter,
		saver:    saver,
		logger:   log,
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func (h *Handler) Presets(c *gin.Context) {
	c.JSON(http.StatusOK, PresetsResponse{
		VisualStyles: carousel.VisualStyles,
		Typography:   carousel.TypographyStyles,
	})
}

func (h *Handler) GetCredential(c *gin.Context) {
	c.JSON(http.StatusOK, CredentialResponse{Available: h.creds.IsAvailable(c.Request.Context())})
}

func (h *Handler) ConnectCredential(c *gin.Context) {
	var req ConnectCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, errors.Wrap(err, errors.ErrCodeInvalidReq, err.Error()))
		return
	}
	if err := h.creds.Connect(c.Request.Context(), strings.TrimSpace(req.APIKey)); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, CredentialResponse{Available: h.creds.IsAvailable(c.Request.Context())})
}

func (h *Handler) DisconnectCredential(c *gin.Context) {
	if err := h.creds.Disconnect(c.Request.Context()); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ImproveScript(c *gin.Context) {
	var req ImproveScriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, errors.Wrap(err, errors.ErrCodeInvalidReq, err.Error()))
		return
	}
	lang := carousel.Language(req.Language)
	if lang == "" {
		lang = carousel.Language(requestLang(c))
	}

	script, err := h.scripts.ImproveScript(c.Request.Context(), req.Script, req.Profession, lang)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, ImproveScriptResponse{Script: script})
}

func (h *Handler) CreateCarousel(c *gin.Context) {
	var req CreateCarouselRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, errors.Wrap(err, errors.ErrCodeInvalidReq, err.Error()))
		return
	}
	cfg, err := req.toConfig()
	if err != nil {
		h.handleError(c, err)
		return
	}

	orch := h.sessions.Create()
	c.Header("Location", "/v1/carousels/"+orch.SessionID())

	// a dropped connection must not stop the run
	ctx := context.WithoutCancel(c.Request.Context())

	if req.Stream {
		h.stream(c, orch, func(onProgress orchestrator.ProgressCallback) error {
			return orch.RunWithProgress(ctx, cfg, onProgress)
		})
		return
	}

	err = orch.Run(ctx, cfg)
	h.respondState(c, orch, err, http.StatusCreated)
}

func (h *Handler) GetCarousel(c *gin.Context) {
	orch, ok := h.lookup(c)
	if !ok {
		return
	}
	h.respondState(c, orch, nil, http.StatusOK)
}

func (h *Handler) DeleteCarousel(c *gin.Context) {
	if !h.sessions.Delete(c.Request.Context(), c.Param("id")) {
		h.handleError(c, errors.New(errors.ErrCodeNotFound, "carousel not found"))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) RegenerateAll(c *gin.Context) {
	orch, ok := h.lookup(c)
	if !ok {
		return
	}
	var req RegenerateAllRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		h.handleError(c, err)
		return
	}
	ctx := context.WithoutCancel(c.Request.Context())

	if req.Stream {
		h.stream(c, orch, func(onProgress orchestrator.ProgressCallback) error {
			return orch.RegenerateAllWithProgress(ctx, req.Refinement, onProgress)
		})
		return
	}

	err := orch.RegenerateAll(ctx, req.Refinement)
	h.respondState(c, orch, err, http.StatusOK)
}

func (h *Handler) RegenerateSlide(c *gin.Context) {
	orch, ok := h.lookup(c)
	if !ok {
		return
	}
	slideID, err := strconv.Atoi(c.Param("slideId"))
	if err != nil {
		h.handleError(c, errors.New(errors.ErrCodeInvalidReq, "invalid slide id"))
		return
	}
	var req RegenerateSlideRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		h.handleError(c, err)
		return
	}

	err = orch.RegenerateSlide(context.WithoutCancel(c.Request.Context()), slideID, req.Refinement)
	h.respondState(c, orch, err, http.StatusOK)
}

func (h *Handler) InsertSlide(c *gin.Context) {
	orch, ok := h.lookup(c)
	if !ok {
		return
	}
	var req InsertSlideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, errors.Wrap(err, errors.ErrCodeInvalidReq, err.Error()))
		return
	}

	_, err := orch.InsertSlide(context.WithoutCancel(c.Request.Context()), *req.After, req.Instruction)
	h.respondState(c, orch, err, http.StatusOK)
}

func (h *Handler) AppendCTA(c *gin.Context) {
	orch, ok := h.lookup(c)
	if !ok {
		return
	}
	var req AppendCTARequest
	if err := bindOptionalJSON(c, &req); err != nil {
		h.handleError(c, err)
		return
	}

	_, err := orch.AppendCTA(context.WithoutCancel(c.Request.Context()), req.Instruction)
	h.respondState(c, orch, err, http.StatusOK)
}

// Export answers with the ZIP, or stores it and returns its URL when
// ?save=true.
func (h *Handler) Export(c *gin.Context) {
	orch, ok := h.lookup(c)
	if !ok {
		return
	}
	st := orch.Snapshot()
	if st.Config == nil {
		h.handleError(c, errors.New(errors.ErrCodeBundle, "carousel has not been generated"))
		return
	}

	data, err := h.exporter.Build(*st.Config, st.Slides)
	if err != nil {
		h.handleError(c, err)
		return
	}

	if save, _ := strconv.ParseBool(c.Query("save")); save && h.saver != nil {
		url, err := h.saver.SaveBundle(c.Request.Context(), orch.SessionID(), data)
		if err != nil {
			h.handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, ExportResponse{URL: url})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="carousel-%s.zip"`, orch.SessionID()))
	c.Data(http.StatusOK, "application/zip", data)
}

func (h *Handler) lookup(c *gin.Context) (*orchestrator.Orchestrator, bool) {
	orch, ok := h.sessions.Get(c.Param("id"))
	if !ok {
		h.handleError(c, errors.New(errors.ErrCodeNotFound, "carousel not found"))
		return nil, false
	}
	return orch, true
}

// respondState writes the carousel state. An operation error picks the
// status code and is reported alongside the state.
func (h *Handler) respondState(c *gin.Context, orch *orchestrator.Orchestrator, err error, okStatus int) {
	resp := toCarouselResponse(orch.SessionID(), orch.Snapshot())
	if err == nil {
		c.JSON(okStatus, resp)
		return
	}

	h.logger.Warn("carousel operation failed", "session_id", orch.SessionID(), "error", err)
	resp.Error = &ErrorBody{
		Code:    errors.Code(err),
		Message: errors.Localize(err, requestLang(c)),
	}
	c.JSON(statusFor(err), resp)
}

func (h *Handler) stream(c *gin.Context, orch *orchestrator.Orchestrator, run func(orchestrator.ProgressCallback) error) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.Header().Set("Access-Control-Allow-Origin", "*")

	sessionID := orch.SessionID()
	sendEvent := func(eventType string, data interface{}) {
		event := StreamEvent{
			Event:     eventType,
			Data:      data,
			SessionID: sessionID,
		}
		jsonData, _ := json.Marshal(event)
		fmt.Fprintf(c.Writer, "event: %s\n", eventType)
		fmt.Fprintf(c.Writer, "data: %s\n\n", jsonData)
		c.Writer.Flush()
	}

	sendEvent(EventTypeStart, EventStart{
		Message:   "Generation started",
		Timestamp: time.Now().Unix(),
	})

	onProgress := func(event orchestrator.ProgressEvent) {
		payload := EventProgress{
			Message:  event.Message,
			SlideID:  event.SlideID,
			Progress: event.Progress,
		}
		switch data := event.Data.(type) {
		case []carousel.Slide:
			payload.Slides = toSlideDTOs(data)
		case *carousel.Slide:
			dto := toSlideDTO(*data, 0)
			payload.Slide = &dto
		}
		sendEvent(event.Stage, payload)
	}

	if err := run(onProgress); err != nil {
		sendEvent(EventTypeError, ErrorBody{
			Code:    errors.Code(err),
			Message: errors.Localize(err, requestLang(c)),
		})
	}
	sendEvent(EventTypeState, toCarouselResponse(sessionID, orch.Snapshot()))
}

func (h *Handler) handleError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "path", c.Request.URL.Path, "error", err)
	} else {
		h.logger.Debug("request rejected", "path", c.Request.URL.Path, "error", err)
	}

	c.JSON(status, ErrorResponse{Error: ErrorBody{
		Code:    errors.Code(err),
		Message: errors.Localize(err, requestLang(c)),
	}})
}

func statusFor(err error) int {
	switch errors.Code(err) {
	case errors.ErrCodeInvalidReq, errors.ErrCodeInvalidConfig:
		return http.StatusBadRequest
	case errors.ErrCodeCredential:
		return http.StatusUnauthorized
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeRunInProgress, errors.ErrCodeBundle:
		return http.StatusConflict
	case errors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case errors.ErrCodeGeminiAPI, errors.ErrCodeImageGenAPI, errors.ErrCodeNoImage, errors.ErrCodeMalformed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// requestLang picks the message language from ?lang or Accept-Language.
func requestLang(c *gin.Context) string {
	lang := c.Query("lang")
	if lang == "" {
		lang = c.GetHeader("Accept-Language")
	}
	if strings.HasPrefix(strings.ToLower(lang), "es") {
		return string(carousel.LanguageES)
	}
	return string(carousel.LanguageEN)
}

// bindOptionalJSON accepts an empty body.
func bindOptionalJSON(c *gin.Context, v interface{}) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(v); err != nil {
		return errors.Wrap(err, errors.ErrCodeInvalidReq, err.Error())
	}
	return nil
}
