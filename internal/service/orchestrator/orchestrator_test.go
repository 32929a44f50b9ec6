package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/internal/infra/limiter"
	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/internal/infra/logger"
	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/internal/service/carousel"
	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/pkg/errors"
)

var png = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

type fakePlans struct {
	mu          sync.Mutex
	plan        []carousel.SlideSpec
	planErr     error
	one         carousel.SlideSpec
	oneErr      error
	planCalls   int
	oneCalls    int
	refinements []string
	tags        []carousel.ContextTag
	instrs      []string
	onOne       func()
}

func (f *fakePlans) GeneratePlan(_ context.Context, _ carousel.Config, refinement string) ([]carousel.SlideSpec, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.planCalls++
	f.refinements = append(f.refinements, refinement)
	if f.planErr != nil {
		return nil, f.planErr
	}
	out := make([]carousel.SlideSpec, len(f.plan))
	copy(out, f.plan)
	return out, nil
}

func (f *fakePlans) GenerateOneSlide(_ context.Context, _ carousel.Config, instruction string, tag carousel.ContextTag) (carousel.SlideSpec, error) {
	f.mu.Lock()
	f.oneCalls++
	f.tags = append(f.tags, tag)
	f.instrs = append(f.instrs, instruction)
	hook, spec, err := f.onOne, f.one, f.oneErr
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	return spec, err
}

type imageCall struct {
	id         int
	refinement string
	withRef    bool
}

type fakeImages struct {
	mu     sync.Mutex
	fail   map[int]error
	calls  []imageCall
	onCall func(spec carousel.SlideSpec)
}

func (f *fakeImages) GenerateImage(_ context.Context, spec carousel.SlideSpec, ref *carousel.Image, _ carousel.Config, refinement string) (*carousel.Image, error) {
	f.mu.Lock()
	f.calls = append(f.calls, imageCall{id: spec.ID, refinement: refinement, withRef: ref != nil})
	hook := f.onCall
	err := f.fail[spec.ID]
	f.mu.Unlock()

	if hook != nil {
		hook(spec)
	}
	if err != nil {
		return nil, err
	}
	return &carousel.Image{Data: png, MIMEType: "image/png"}, nil
}

func (f *fakeImages) callIDs() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]int, len(f.calls))
	for i, c := range f.calls {
		ids[i] = c.id
	}
	return ids
}

func (f *fakeImages) setFail(id int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail == nil {
		f.fail = map[int]error{}
	}
	if err == nil {
		delete(f.fail, id)
		return
	}
	f.fail[id] = err
}

type fakeGate struct {
	mu      sync.Mutex
	err     error
	prompts int
	hold    chan struct{}
}

func (g *fakeGate) Ready(context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.err
}

func (g *fakeGate) Prompt(context.Context) {
	g.mu.Lock()
	g.prompts++
	hold := g.hold
	g.mu.Unlock()

	if hold != nil {
		<-hold
	}
}

func (g *fakeGate) promptCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.prompts
}

type fakeSink struct {
	err error
}

func (s *fakeSink) SaveSlideImage(_ context.Context, sessionID string, slideID int, _ *carousel.Image) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return fmt.Sprintf("/files/%s/slide-%d.png", sessionID, slideID), nil
}

type harness struct {
	orch   *Orchestrator
	plans  *fakePlans
	images *fakeImages
	gate   *fakeGate
}

func specs(n int) []carousel.SlideSpec {
	out := make([]carousel.SlideSpec, n)
	for i := range out {
		out[i] = carousel.SlideSpec{
			ID:               i + 1,
			TextOverlay:      carousel.TextOverlay{Headline: fmt.Sprintf("Slide %d", i+1)},
			ImagePrompt:      "A cinematic shot",
			IncludeCharacter: i%2 == 0,
		}
	}
	return out
}

func newHarness(t *testing.T, n int) *harness {
	t.Helper()
	h := &harness{
		plans: &fakePlans{
			plan: specs(n),
			one:  carousel.SlideSpec{ID: 99, TextOverlay: carousel.TextOverlay{Headline: "New"}, ImagePrompt: "p"},
		},
		images: &fakeImages{},
		gate:   &fakeGate{},
	}
	h.orch = New("sess-1", h.plans, h.images, h.gate, nil, limiter.New(2, 0), logger.NewNop())
	return h
}

func testConfig() carousel.Config {
	return carousel.Config{
		Profession:     "Filmmaker",
		Topic:          "Growing on Instagram",
		Language:       carousel.LanguageEN,
		ReferenceImage: &carousel.Image{Data: png},
	}
}

func statuses(slides []carousel.Slide) []carousel.Status {
	out := make([]carousel.Status, len(slides))
	for i, s := range slides {
		out[i] = s.Status
	}
	return out
}

func ids(slides []carousel.Slide) []int {
	out := make([]int, len(slides))
	for i, s := range slides {
		out[i] = s.ID
	}
	return out
}

func TestRunSeedsInPlanOrder(t *testing.T) {
	h := newHarness(t, 6)

	require.NoError(t, h.orch.Run(context.Background(), testConfig()))

	st := h.orch.Snapshot()
	assert.Equal(t, carousel.PhaseCompleted, st.Phase)
	assert.Empty(t, st.Error)
	require.Len(t, st.Slides, 6)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, ids(st.Slides))
	for _, s := range st.Slides {
		assert.Equal(t, carousel.StatusCompleted, s.Status)
		assert.Equal(t, png, s.Image.Data)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, h.images.callIDs())
	assert.Equal(t, []string{""}, h.plans.refinements)
	require.NotNil(t, st.Config)
	assert.Equal(t, "Filmmaker", st.Config.Profession)
}

func TestRunIsSequential(t *testing.T) {
	h := newHarness(t, 5)
	h.images.onCall = func(spec carousel.SlideSpec) {
		slides := h.orch.store.Snapshot()
		generating := 0
		for i, s := range slides {
			if s.Status == carousel.StatusGenerating {
				generating++
				assert.Equal(t, spec.ID, s.ID)
				for _, before := range slides[:i] {
					assert.True(t, before.Status.Terminal(), "slide %d before %d not terminal", before.ID, s.ID)
				}
				for _, after := range slides[i+1:] {
					assert.Equal(t, carousel.StatusPending, after.Status)
				}
			}
		}
		assert.Equal(t, 1, generating)
	}

	require.NoError(t, h.orch.Run(context.Background(), testConfig()))
	assert.Len(t, h.images.callIDs(), 5)
}

func TestRunAbortsOnCredentialFailure(t *testing.T) {
	h := newHarness(t, 6)
	h.images.setFail(3, errors.Credential("Requested entity was not found.", nil))

	cfg := testConfig()
	cfg.Language = carousel.LanguageES
	err := h.orch.Run(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, errors.IsCredential(err))

	st := h.orch.Snapshot()
	assert.Equal(t, carousel.PhaseIdle, st.Phase)
	assert.Equal(t, []carousel.Status{
		carousel.StatusCompleted, carousel.StatusCompleted, carousel.StatusError,
		carousel.StatusPending, carousel.StatusPending, carousel.StatusPending,
	}, statuses(st.Slides))
	assert.Equal(t, errors.Localize(err, "es"), st.Error)
	assert.Equal(t, errors.ErrCodeCredential, st.ErrorCode)
	assert.Equal(t, st.Error, st.Slides[2].Error)
	for _, s := range st.Slides[3:] {
		assert.Nil(t, s.Image)
		assert.Empty(t, s.Error)
	}
	assert.Equal(t, []int{1, 2, 3}, h.images.callIDs())
	assert.Equal(t, 1, h.gate.prompts)
}

func TestRunContinuesOnServiceFailure(t *testing.T) {
	h := newHarness(t, 6)
	h.images.setFail(2, errors.New(errors.ErrCodeMalformed, "malformed response"))

	require.NoError(t, h.orch.Run(context.Background(), testConfig()))

	st := h.orch.Snapshot()
	assert.Equal(t, carousel.PhaseCompleted, st.Phase)
	assert.Empty(t, st.Error)
	assert.Equal(t, []carousel.Status{
		carousel.StatusCompleted, carousel.StatusError, carousel.StatusCompleted,
		carousel.StatusCompleted, carousel.StatusCompleted, carousel.StatusCompleted,
	}, statuses(st.Slides))
	assert.Equal(t, "The model returned an unexpected response.", st.Slides[1].Error)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, h.images.callIDs())
	assert.Zero(t, h.gate.prompts)
}

func TestRunUnknownErrorKeepsRawMessage(t *testing.T) {
	h := newHarness(t, 2)
	h.images.setFail(1, fmt.Errorf("socket closed"))

	require.NoError(t, h.orch.Run(context.Background(), testConfig()))
	st := h.orch.Snapshot()
	assert.Equal(t, "socket closed", st.Slides[0].Error)
	assert.Equal(t, carousel.StatusCompleted, st.Slides[1].Status)
}

func TestGateRefusesWithoutRemoteCalls(t *testing.T) {
	h := newHarness(t, 3)
	require.NoError(t, h.orch.Run(context.Background(), testConfig()))

	h.gate.err = errors.Credential("no API key available", nil)
	err := h.orch.Run(context.Background(), testConfig())
	assert.True(t, errors.IsCredential(err))

	st := h.orch.Snapshot()
	assert.Equal(t, carousel.PhaseCompleted, st.Phase)
	assert.Len(t, st.Slides, 3)
	assert.Equal(t, errors.ErrCodeCredential, st.ErrorCode)
	assert.NotEmpty(t, st.Error)
	assert.Equal(t, 1, h.plans.planCalls)
	assert.Len(t, h.images.callIDs(), 3)
	assert.Equal(t, 1, h.gate.prompts)

	// the check can be re-run once a key is connected
	h.gate.err = nil
	require.NoError(t, h.orch.Run(context.Background(), testConfig()))
	assert.Empty(t, h.orch.Snapshot().Error)
}

func TestOpenPromptDoesNotBlockSnapshot(t *testing.T) {
	h := newHarness(t, 3)
	h.gate.err = errors.Credential("no API key available", nil)
	h.gate.hold = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- h.orch.Run(context.Background(), testConfig()) }()
	require.Eventually(t, func() bool { return h.gate.promptCount() == 1 }, time.Second, 5*time.Millisecond)

	snap := make(chan State, 1)
	go func() { snap <- h.orch.Snapshot() }()
	select {
	case st := <-snap:
		assert.Equal(t, carousel.PhaseIdle, st.Phase)
		assert.Equal(t, errors.ErrCodeCredential, st.ErrorCode)
	case <-time.After(time.Second):
		t.Fatal("Snapshot blocked while the credential prompt was open")
	}

	close(h.gate.hold)
	assert.True(t, errors.IsCredential(<-done))
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	h := newHarness(t, 3)

	err := h.orch.Run(context.Background(), carousel.Config{Topic: "x"})
	assert.Equal(t, errors.ErrCodeInvalidConfig, errors.Code(err))
	assert.Zero(t, h.plans.planCalls)
	assert.Equal(t, carousel.PhaseIdle, h.orch.Snapshot().Phase)
}

func TestPlanFailureReturnsToIdle(t *testing.T) {
	h := newHarness(t, 3)
	h.plans.planErr = errors.New(errors.ErrCodeMalformed, "model returned an empty plan")

	err := h.orch.Run(context.Background(), testConfig())
	require.Error(t, err)

	st := h.orch.Snapshot()
	assert.Equal(t, carousel.PhaseIdle, st.Phase)
	assert.Empty(t, st.Slides)
	assert.Equal(t, "The model returned an unexpected response.", st.Error)
	assert.Empty(t, h.images.callIDs())
}

func TestRunInProgressIsRejected(t *testing.T) {
	h := newHarness(t, 2)
	started := make(chan struct{})
	unblock := make(chan struct{})
	var once sync.Once
	h.images.onCall = func(carousel.SlideSpec) {
		once.Do(func() {
			close(started)
			<-unblock
		})
	}

	done := make(chan error, 1)
	go func() { done <- h.orch.Run(context.Background(), testConfig()) }()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("run did not start")
	}
	assert.Equal(t, carousel.PhaseGeneratingImages, h.orch.Snapshot().Phase)
	assert.ErrorIs(t, h.orch.Run(context.Background(), testConfig()), ErrRunInProgress)
	assert.ErrorIs(t, h.orch.RegenerateAll(context.Background(), "x"), ErrRunInProgress)

	close(unblock)
	require.NoError(t, <-done)
	assert.Equal(t, 1, h.plans.planCalls)
}

func TestRunWithProgressEvents(t *testing.T) {
	h := newHarness(t, 2)
	h.images.setFail(2, errors.New(errors.ErrCodeNoImage, "no image"))

	var stages []string
	err := h.orch.RunWithProgress(context.Background(), testConfig(), func(e ProgressEvent) {
		stages = append(stages, e.Stage)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		StagePlanning, StagePlanned,
		StageSlideGenerating, StageSlideCompleted,
		StageSlideGenerating, StageSlideError,
		StageComplete,
	}, stages)
}

func TestRegenerateSlideIsIdempotent(t *testing.T) {
	h := newHarness(t, 6)
	require.NoError(t, h.orch.Run(context.Background(), testConfig()))

	require.NoError(t, h.orch.RegenerateSlide(context.Background(), 3, "warmer light"))
	require.NoError(t, h.orch.RegenerateSlide(context.Background(), 3, ""))

	st := h.orch.Snapshot()
	require.Len(t, st.Slides, 6)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, ids(st.Slides))
	assert.Equal(t, carousel.StatusCompleted, st.Slides[2].Status)
	assert.Equal(t, carousel.PhaseCompleted, st.Phase)

	calls := h.images.calls
	require.Len(t, calls, 8)
	assert.Equal(t, imageCall{id: 3, refinement: "warmer light", withRef: true}, calls[6])
	assert.Equal(t, 1, h.plans.planCalls)
}

func TestRegenerateSlideFailureStaysLocal(t *testing.T) {
	h := newHarness(t, 3)
	require.NoError(t, h.orch.Run(context.Background(), testConfig()))

	h.images.setFail(2, errors.Credential("API key not valid", nil))
	err := h.orch.RegenerateSlide(context.Background(), 2, "")
	assert.True(t, errors.IsCredential(err))

	st := h.orch.Snapshot()
	assert.Equal(t, carousel.PhaseCompleted, st.Phase)
	assert.Equal(t, []carousel.Status{
		carousel.StatusCompleted, carousel.StatusError, carousel.StatusCompleted,
	}, statuses(st.Slides))
	assert.Nil(t, st.Slides[1].Image)

	// retry after the error is a fresh regenerate on the same id
	h.images.setFail(2, nil)
	require.NoError(t, h.orch.RegenerateSlide(context.Background(), 2, ""))
	assert.Equal(t, carousel.StatusCompleted, h.orch.Snapshot().Slides[1].Status)
}

func TestRegenerateUnknownSlideIsNoop(t *testing.T) {
	h := newHarness(t, 2)
	assert.NoError(t, h.orch.RegenerateSlide(context.Background(), 1, ""))

	require.NoError(t, h.orch.Run(context.Background(), testConfig()))
	assert.NoError(t, h.orch.RegenerateSlide(context.Background(), 42, ""))
	assert.Len(t, h.images.callIDs(), 2)
}

func TestRegenerateAllUsesRefinement(t *testing.T) {
	h := newHarness(t, 6)
	require.NoError(t, h.orch.Run(context.Background(), testConfig()))

	h.plans.plan = specs(4)
	require.NoError(t, h.orch.RegenerateAll(context.Background(), "too long"))

	st := h.orch.Snapshot()
	assert.Equal(t, carousel.PhaseCompleted, st.Phase)
	assert.Len(t, st.Slides, 4)
	assert.Equal(t, []string{"", "too long"}, h.plans.refinements)
	for _, c := range h.images.calls[6:] {
		assert.Empty(t, c.refinement)
	}
}

func TestRegenerateAllWithoutRun(t *testing.T) {
	h := newHarness(t, 2)
	err := h.orch.RegenerateAll(context.Background(), "x")
	assert.Equal(t, errors.ErrCodeInvalidReq, errors.Code(err))
	assert.Zero(t, h.plans.planCalls)
}

func TestInsertSlide(t *testing.T) {
	h := newHarness(t, 5)
	require.NoError(t, h.orch.Run(context.Background(), testConfig()))

	var during []carousel.Slide
	h.plans.onOne = func() { during = h.orch.store.Snapshot() }

	slide, err := h.orch.InsertSlide(context.Background(), 2, "add urgency")
	require.NoError(t, err)
	require.NotNil(t, slide)
	assert.Equal(t, 6, slide.ID)
	assert.Equal(t, "New", slide.TextOverlay.Headline)

	require.Len(t, during, 6)
	assert.Equal(t, carousel.StatusGenerating, during[3].Status)
	assert.Equal(t, "Generating new slide...", during[3].TextOverlay.Headline)

	st := h.orch.Snapshot()
	assert.Equal(t, []int{1, 2, 3, 6, 4, 5}, ids(st.Slides))
	assert.Equal(t, carousel.StatusCompleted, st.Slides[3].Status)
	assert.Equal(t, []carousel.ContextTag{carousel.ContextIntermediate}, h.plans.tags)
	assert.Equal(t, []string{"add urgency"}, h.plans.instrs)
	assert.Equal(t, 6, h.images.callIDs()[5])
}

func TestInsertSlideRollsBack(t *testing.T) {
	t.Run("plan step", func(t *testing.T) {
		h := newHarness(t, 5)
		require.NoError(t, h.orch.Run(context.Background(), testConfig()))
		h.plans.oneErr = errors.New(errors.ErrCodeGeminiAPI, "boom")

		slide, err := h.orch.InsertSlide(context.Background(), 2, "add urgency")
		require.Error(t, err)
		assert.Nil(t, slide)
		assert.Equal(t, []int{1, 2, 3, 4, 5}, ids(h.orch.Snapshot().Slides))
		assert.Len(t, h.images.callIDs(), 5)
	})

	t.Run("image step", func(t *testing.T) {
		h := newHarness(t, 5)
		require.NoError(t, h.orch.Run(context.Background(), testConfig()))
		h.images.setFail(6, errors.New(errors.ErrCodeNoImage, "no image"))

		_, err := h.orch.InsertSlide(context.Background(), 2, "add urgency")
		assert.Equal(t, errors.ErrCodeNoImage, errors.Code(err))

		st := h.orch.Snapshot()
		assert.Equal(t, []int{1, 2, 3, 4, 5}, ids(st.Slides))
		for _, s := range st.Slides {
			assert.Equal(t, carousel.StatusCompleted, s.Status)
		}
	})
}

func TestInsertedIDsAreNeverReused(t *testing.T) {
	h := newHarness(t, 3)
	require.NoError(t, h.orch.Run(context.Background(), testConfig()))

	h.plans.oneErr = errors.New(errors.ErrCodeGeminiAPI, "boom")
	_, err := h.orch.InsertSlide(context.Background(), 0, "x")
	require.Error(t, err)

	h.plans.oneErr = nil
	slide, err := h.orch.InsertSlide(context.Background(), -1, "x")
	require.NoError(t, err)
	assert.Equal(t, 5, slide.ID)
	assert.Equal(t, []int{5, 1, 2, 3}, ids(h.orch.Snapshot().Slides))
}

func TestAddSlideOverlappingRegenerateAll(t *testing.T) {
	// the new plan reuses id 6, the id minted for the insert placeholder
	setup := func(t *testing.T) *harness {
		h := newHarness(t, 5)
		require.NoError(t, h.orch.Run(context.Background(), testConfig()))
		h.plans.onOne = func() {
			h.plans.mu.Lock()
			h.plans.plan = specs(6)
			h.plans.mu.Unlock()
			require.NoError(t, h.orch.RegenerateAll(context.Background(), "six slides"))
		}
		return h
	}
	assertNewPlan := func(t *testing.T, h *harness) {
		st := h.orch.Snapshot()
		require.Equal(t, []int{1, 2, 3, 4, 5, 6}, ids(st.Slides))
		assert.Equal(t, "Slide 6", st.Slides[5].TextOverlay.Headline)
		for _, s := range st.Slides {
			assert.Equal(t, carousel.StatusCompleted, s.Status)
		}
		assert.Equal(t, carousel.PhaseCompleted, st.Phase)
		assert.Len(t, h.images.callIDs(), 11)
	}

	t.Run("insert succeeds", func(t *testing.T) {
		h := setup(t)
		slide, err := h.orch.InsertSlide(context.Background(), 2, "add urgency")
		require.NoError(t, err)
		assert.Nil(t, slide)
		assertNewPlan(t, h)
	})

	t.Run("insert fails", func(t *testing.T) {
		h := setup(t)
		h.plans.oneErr = errors.New(errors.ErrCodeGeminiAPI, "boom")
		_, err := h.orch.InsertSlide(context.Background(), 2, "add urgency")
		require.Error(t, err)
		assertNewPlan(t, h)
	})

	t.Run("cta", func(t *testing.T) {
		h := setup(t)
		slide, err := h.orch.AppendCTA(context.Background(), "book a call")
		require.NoError(t, err)
		assert.Nil(t, slide)
		assertNewPlan(t, h)
	})
}

func TestAppendCTA(t *testing.T) {
	h := newHarness(t, 4)
	require.NoError(t, h.orch.Run(context.Background(), testConfig()))

	var during []carousel.Slide
	h.plans.onOne = func() { during = h.orch.store.Snapshot() }

	slide, err := h.orch.AppendCTA(context.Background(), "book a free call")
	require.NoError(t, err)
	assert.Equal(t, 5, slide.ID)

	require.Len(t, during, 5)
	assert.True(t, during[4].IncludeCharacter)
	assert.Equal(t, carousel.StatusGenerating, during[4].Status)

	st := h.orch.Snapshot()
	assert.Equal(t, []int{1, 2, 3, 4, 5}, ids(st.Slides))
	assert.Equal(t, carousel.StatusCompleted, st.Slides[4].Status)
	assert.Equal(t, []carousel.ContextTag{carousel.ContextCTA}, h.plans.tags)
}

func TestAppendCTARollsBack(t *testing.T) {
	h := newHarness(t, 4)
	require.NoError(t, h.orch.Run(context.Background(), testConfig()))
	h.plans.oneErr = errors.Credential("API key expired", nil)

	_, err := h.orch.AppendCTA(context.Background(), "follow")
	assert.True(t, errors.IsCredential(err))
	assert.Len(t, h.orch.Snapshot().Slides, 4)
	assert.Equal(t, carousel.PhaseCompleted, h.orch.Snapshot().Phase)
	assert.Equal(t, 1, h.gate.prompts)
}

func TestAddSlideWithoutCarousel(t *testing.T) {
	h := newHarness(t, 2)
	_, err := h.orch.AppendCTA(context.Background(), "x")
	assert.Equal(t, errors.ErrCodeInvalidReq, errors.Code(err))
	assert.Zero(t, h.plans.oneCalls)
}

func TestSinkURLsAndFailures(t *testing.T) {
	h := newHarness(t, 2)
	sink := &fakeSink{}
	h.orch.sink = sink

	require.NoError(t, h.orch.Run(context.Background(), testConfig()))
	st := h.orch.Snapshot()
	assert.Equal(t, "/files/sess-1/slide-1.png", st.Slides[0].Image.URL)

	sink.err = errors.New(errors.ErrCodeStorage, "disk full")
	err := h.orch.RegenerateSlide(context.Background(), 2, "")
	assert.Equal(t, errors.ErrCodeStorage, errors.Code(err))

	st = h.orch.Snapshot()
	assert.Equal(t, carousel.StatusError, st.Slides[1].Status)
	assert.Equal(t, "disk full", st.Slides[1].Error)
	assert.Equal(t, carousel.StatusCompleted, st.Slides[0].Status)
}
