package orchestrator

import (
	"context"
	stderrors "errors"
	"sync"

	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/internal/infra/limiter"
	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/internal/infra/logger"
	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/internal/service/carousel"
	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/pkg/errors"
)

// ErrRunInProgress is returned when a full run is requested while another
// one is planning or generating images.
var ErrRunInProgress = errors.New(errors.ErrCodeRunInProgress, "a generation is already running")

type PlanGenerator interface {
	GeneratePlan(ctx context.Context, cfg carousel.Config, refinement string) ([]carousel.SlideSpec, error)
	GenerateOneSlide(ctx context.Context, cfg carousel.Config, instruction string, tag carousel.ContextTag) (carousel.SlideSpec, error)
}

type ImageGenerator interface {
	GenerateImage(ctx context.Context, spec carousel.SlideSpec, ref *carousel.Image, cfg carousel.Config, refinement string) (*carousel.Image, error)
}

type CredentialGate interface {
	Ready(ctx context.Context) error
	Prompt(ctx context.Context)
}

// ImageSink persists a finished slide image and returns its URL.
type ImageSink interface {
	SaveSlideImage(ctx context.Context, sessionID string, slideID int, img *carousel.Image) (string, error)
}

// ProgressEvent is emitted on every phase and slide transition.
type ProgressEvent struct {
	Stage    string      `json:"stage"`
	Message  string      `json:"message"`
	SlideID  int         `json:"slideId,omitempty"`
	Progress int         `json:"progress"`
	Data     interface{} `json:"data,omitempty"`
}

type ProgressCallback func(event ProgressEvent)

const (
	StagePlanning        = "planning"
	StagePlanned         = "planned"
	StageSlideGenerating = "slide_generating"
	StageSlideCompleted  = "slide_completed"
	StageSlideError      = "slide_error"
	StageAborted         = "aborted"
	StageFailed          = "failed"
	StageComplete        = "complete"
)

// State is what a client sees of one carousel.
type State struct {
	Phase     carousel.Phase
	Error     string
	ErrorCode string
	Slides    []carousel.Slide
	Config    *carousel.Config
}

var provisionalHeadline = map[carousel.Language]string{
	carousel.LanguageEN: "Generating new slide...",
	carousel.LanguageES: "Generando nueva diapositiva...",
}

// Orchestrator drives the generation of one carousel. The slide store is the
// only shared state; every mutation goes through it, and phase, config and
// run error are guarded by mu.
type Orchestrator struct {
	sessionID string
	plans     PlanGenerator
	images    ImageGenerator
	gate      CredentialGate
	sink      ImageSink
	limiter   *limiter.Limiter
	logger    *logger.Logger

	store *carousel.Store

	mu       sync.Mutex
	phase    *carousel.PhaseMachine
	cfg      *carousel.Config
	lastErr  string
	lastCode string
}

func New(
	sessionID string,
	plans PlanGenerator,
	images ImageGenerator,
	gate CredentialGate,
	sink ImageSink,
	lim *limiter.Limiter,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		sessionID: sessionID,
		plans:     plans,
		images:    images,
		gate:      gate,
		sink:      sink,
		limiter:   lim,
		logger:    log.ForSession(sessionID),
		store:     carousel.NewStore(),
		phase:     carousel.NewPhaseMachine(),
	}
}

func (o *Orchestrator) SessionID() string {
	return o.sessionID
}

// Snapshot returns a copy of the current state.
func (o *Orchestrator) Snapshot() State {
	o.mu.Lock()
	defer o.mu.Unlock()

	st := State{
		Phase:     o.phase.Current(),
		Error:     o.lastErr,
		ErrorCode: o.lastCode,
		Slides:    o.store.Snapshot(),
	}
	if o.cfg != nil {
		cfg := *o.cfg
		st.Config = &cfg
	}
	return st
}

func (o *Orchestrator) Run(ctx context.Context, cfg carousel.Config) error {
	return o.RunWithProgress(ctx, cfg, nil)
}

// RunWithProgress plans the carousel and renders every slide in store
// order, one at a time. A credential failure on any slide aborts the run and
// leaves the remaining slides pending; any other failure is recorded on the
// slide and the loop moves on.
func (o *Orchestrator) RunWithProgress(ctx context.Context, cfg carousel.Config, onProgress ProgressCallback) error {
	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return err
	}
	return o.run(ctx, cfg, "", onProgress)
}

func (o *Orchestrator) RegenerateAll(ctx context.Context, refinement string) error {
	return o.RegenerateAllWithProgress(ctx, refinement, nil)
}

// RegenerateAllWithProgress discards every slide and runs again with the
// last config, passing refinement to the planner.
func (o *Orchestrator) RegenerateAllWithProgress(ctx context.Context, refinement string, onProgress ProgressCallback) error {
	cfg, ok := o.config()
	if !ok {
		return errors.New(errors.ErrCodeInvalidReq, "no carousel to regenerate")
	}
	return o.run(ctx, cfg, refinement, onProgress)
}

func (o *Orchestrator) run(ctx context.Context, cfg carousel.Config, refinement string, onProgress ProgressCallback) error {
	emit := func(stage, message string, slideID, progress int, data interface{}) {
		if onProgress != nil {
			onProgress(ProgressEvent{
				Stage:    stage,
				Message:  message,
				SlideID:  slideID,
				Progress: progress,
				Data:     data,
			})
		}
	}
	lang := string(cfg.Language)

	if err := o.begin(ctx, cfg); err != nil {
		if !stderrors.Is(err, ErrRunInProgress) {
			emit(StageFailed, errors.Localize(err, lang), 0, 0, nil)
		}
		return err
	}

	o.logger.Info("starting carousel generation",
		"profession", cfg.Profession,
		"mode", cfg.Mode,
		"render_mode", cfg.RenderMode,
		"refined", refinement != "",
	)
	emit(StagePlanning, "Planning carousel...", 0, 5, nil)

	specs, err := o.plan(ctx, cfg, refinement)
	if err != nil {
		o.logger.Error("failed to generate plan", "error", err)
		o.fail(carousel.PhaseIdle, err, lang)
		if errors.IsCredential(err) {
			o.gate.Prompt(ctx)
		}
		emit(StageFailed, errors.Localize(err, lang), 0, 0, nil)
		return err
	}

	seeded := o.store.Seed(specs)
	refs := make([]carousel.Ref, 0, len(seeded))
	for _, slide := range seeded {
		if ref, ok := o.store.Ref(slide.ID); ok {
			refs = append(refs, ref)
		}
	}
	o.toPhase(carousel.PhaseGeneratingImages)
	emit(StagePlanned, "Plan ready", 0, 15, seeded)
	o.logger.Info("plan seeded", "slides", len(seeded))

	total := len(refs)
	for i, ref := range refs {
		emit(StageSlideGenerating, "Generating slide image...", ref.ID, progressAt(i, total), nil)

		updated, err := o.generateSlide(ctx, cfg, ref, "")
		switch {
		case err == nil && updated == nil:
			// record changed hands since seeding
			continue
		case err == nil:
			emit(StageSlideCompleted, "Slide ready", ref.ID, progressAt(i+1, total), updated)
		case errors.IsCredential(err):
			o.logger.Warn("credential failure, aborting run", "slide_id", ref.ID, "position", i, "error", err)
			o.fail(carousel.PhaseIdle, err, lang)
			o.gate.Prompt(ctx)
			emit(StageAborted, errors.Localize(err, lang), ref.ID, progressAt(i+1, total), nil)
			return err
		default:
			o.logger.Warn("slide failed, continuing", "slide_id", ref.ID, "error", err)
			emit(StageSlideError, errors.Localize(err, lang), ref.ID, progressAt(i+1, total), nil)
		}
	}

	o.toPhase(carousel.PhaseCompleted)
	o.logger.Info("carousel generation completed",
		"completed", o.store.CountStatus(carousel.StatusCompleted),
		"errors", o.store.CountStatus(carousel.StatusError),
	)
	emit(StageComplete, "Carousel ready", 0, 100, nil)
	return nil
}

// begin runs the readiness gate, then clears the previous run and enters
// planning. Nothing is cleared when the gate refuses. The gate and the
// prompt run without holding the state lock.
func (o *Orchestrator) begin(ctx context.Context, cfg carousel.Config) error {
	if o.active() {
		return ErrRunInProgress
	}

	if err := o.gate.Ready(ctx); err != nil {
		o.mu.Lock()
		if o.phase.Current().Active() {
			o.mu.Unlock()
			return ErrRunInProgress
		}
		o.lastErr = errors.Localize(err, string(cfg.Language))
		o.lastCode = errors.Code(err)
		o.mu.Unlock()

		o.logger.Warn("credential not ready, run refused", "error", err)
		o.gate.Prompt(ctx)
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.phase.Current().Active() {
		return ErrRunInProgress
	}
	o.lastErr, o.lastCode = "", ""
	o.store.Reset()
	o.cfg = &cfg
	return o.phase.To(carousel.PhasePlanning)
}

func (o *Orchestrator) active() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase.Current().Active()
}

func (o *Orchestrator) fail(next carousel.Phase, err error, lang string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lastErr = errors.Localize(err, lang)
	o.lastCode = errors.Code(err)
	if perr := o.phase.To(next); perr != nil {
		o.logger.Error("phase transition rejected", "error", perr)
	}
}

func (o *Orchestrator) toPhase(next carousel.Phase) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.phase.To(next); err != nil {
		o.logger.Error("phase transition rejected", "error", err)
	}
}

func (o *Orchestrator) config() (carousel.Config, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cfg == nil {
		return carousel.Config{}, false
	}
	return *o.cfg, true
}

// RegenerateSlide renders one slide again with its existing spec. Unknown
// ids and slides already generating are ignored.
func (o *Orchestrator) RegenerateSlide(ctx context.Context, id int, refinement string) error {
	cfg, ok := o.config()
	if !ok {
		return nil
	}
	ref, err := o.store.Renew(id)
	if err != nil {
		o.logger.Debug("regenerate ignored", "slide_id", id, "error", err)
		return nil
	}

	o.logger.Info("regenerating slide", "slide_id", id, "refined", refinement != "")
	_, err = o.generateSlide(ctx, cfg, ref, refinement)
	if err != nil && errors.IsCredential(err) {
		o.gate.Prompt(ctx)
	}
	return err
}

// generateSlide takes a pending record through generating to completed or
// error. It returns nil, nil when the record is gone, no longer pending, or
// was replaced by a new plan meanwhile.
func (o *Orchestrator) generateSlide(ctx context.Context, cfg carousel.Config, ref carousel.Ref, refinement string) (*carousel.Slide, error) {
	id := ref.ID
	slide, err := o.store.Transition(ref, carousel.StatusGenerating, nil)
	if err != nil {
		o.logger.Debug("slide skipped", "slide_id", id, "error", err)
		return nil, nil
	}

	img, err := o.render(ctx, cfg, slide.SlideSpec, refinement)
	if err != nil {
		msg := errors.Localize(err, string(cfg.Language))
		if _, terr := o.store.Transition(ref, carousel.StatusError, func(s *carousel.Slide) {
			s.Error = msg
		}); terr != nil {
			o.logger.Debug("slide vanished during generation", "slide_id", id)
		}
		return nil, err
	}

	done, err := o.store.Transition(ref, carousel.StatusCompleted, func(s *carousel.Slide) {
		s.Image = img
		s.Error = ""
	})
	if err != nil {
		o.logger.Debug("slide vanished during generation", "slide_id", id)
		return nil, nil
	}
	return &done, nil
}

// render calls the image generator for spec and persists the result.
func (o *Orchestrator) render(ctx context.Context, cfg carousel.Config, spec carousel.SlideSpec, refinement string) (*carousel.Image, error) {
	release, err := o.limiter.Acquire(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRateLimited, "rate limit exceeded")
	}
	img, err := o.images.GenerateImage(ctx, spec, cfg.ReferenceImage, cfg, refinement)
	release()
	if err != nil {
		return nil, err
	}
	if img.Empty() {
		return nil, errors.New(errors.ErrCodeNoImage, "no image in response")
	}

	if o.sink != nil {
		url, err := o.sink.SaveSlideImage(ctx, o.sessionID, spec.ID, img)
		if err != nil {
			o.logger.Error("failed to save slide image", "slide_id", spec.ID, "error", err)
			return nil, err
		}
		img.URL = url
	}
	return img, nil
}

func (o *Orchestrator) plan(ctx context.Context, cfg carousel.Config, refinement string) ([]carousel.SlideSpec, error) {
	release, err := o.limiter.Acquire(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRateLimited, "rate limit exceeded")
	}
	defer release()
	return o.plans.GeneratePlan(ctx, cfg, refinement)
}

func (o *Orchestrator) planOne(ctx context.Context, cfg carousel.Config, instruction string, tag carousel.ContextTag) (carousel.SlideSpec, error) {
	release, err := o.limiter.Acquire(ctx)
	if err != nil {
		return carousel.SlideSpec{}, errors.Wrap(err, errors.ErrCodeRateLimited, "rate limit exceeded")
	}
	defer release()
	return o.plans.GenerateOneSlide(ctx, cfg, instruction, tag)
}

// InsertSlide adds a new intermediate slide right after position index.
// Any failure removes the placeholder again.
func (o *Orchestrator) InsertSlide(ctx context.Context, index int, instruction string) (*carousel.Slide, error) {
	return o.addSlide(ctx, instruction, carousel.ContextIntermediate, func(spec carousel.SlideSpec) carousel.Ref {
		return o.store.InsertPlaceholder(index, spec)
	})
}

// AppendCTA adds a closing call-to-action slide at the end.
func (o *Orchestrator) AppendCTA(ctx context.Context, instruction string) (*carousel.Slide, error) {
	return o.addSlide(ctx, instruction, carousel.ContextCTA, func(spec carousel.SlideSpec) carousel.Ref {
		spec.IncludeCharacter = true
		return o.store.AppendPlaceholder(spec)
	})
}

// addSlide works through the placeholder's Ref, so a full run that reseeds
// the store meanwhile makes every later step a no-op instead of touching a
// slide of the new plan that happens to share the minted id.
func (o *Orchestrator) addSlide(ctx context.Context, instruction string, tag carousel.ContextTag, place func(carousel.SlideSpec) carousel.Ref) (*carousel.Slide, error) {
	cfg, ok := o.config()
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidReq, "no carousel to edit")
	}

	ref := place(carousel.SlideSpec{
		TextOverlay: carousel.TextOverlay{Headline: provisionalHeadline[cfg.Language]},
	})
	id := ref.ID
	o.logger.Info("adding slide", "slide_id", id, "tag", tag, "position", o.store.Position(id))

	rollback := func(err error) (*carousel.Slide, error) {
		o.store.Remove(ref)
		o.logger.Warn("slide addition rolled back", "slide_id", id, "tag", tag, "error", err)
		if errors.IsCredential(err) {
			o.gate.Prompt(ctx)
		}
		return nil, err
	}

	spec, err := o.planOne(ctx, cfg, instruction, tag)
	if err != nil {
		return rollback(err)
	}
	merged, err := o.store.Merge(ref, spec)
	if err != nil {
		o.logger.Debug("slide addition dropped", "slide_id", id, "error", err)
		return nil, nil
	}

	img, err := o.render(ctx, cfg, merged.SlideSpec, "")
	if err != nil {
		return rollback(err)
	}

	done, err := o.store.Transition(ref, carousel.StatusCompleted, func(s *carousel.Slide) {
		s.Image = img
	})
	if err != nil {
		o.logger.Debug("slide addition dropped", "slide_id", id, "error", err)
		return nil, nil
	}
	return &done, nil
}

func progressAt(done, total int) int {
	if total == 0 {
		return 100
	}
	return 15 + 85*done/total
}
