package gemini

import (
	"context"
	"encoding/json"
	"strings"

	"google.golang.org/genai"

	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/internal/infra/logger"
	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/internal/service/carousel"
	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/pkg/errors"
)

// Service is the remote plan generator: it turns a carousel config into an
// ordered list of slide specs using a Gemini text model.
type Service struct {
	clients     *ClientFactory
	keys        KeySource
	model       string
	temperature float32
	logger      *logger.Logger
}

func New(clients *ClientFactory, keys KeySource, model string, temperature float32, log *logger.Logger) *Service {
	return &Service{
		clients:     clients,
		keys:        keys,
		model:       model,
		temperature: temperature,
		logger:      log,
	}
}

var slideSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"id": {Type: genai.TypeInteger},
		"textOverlay": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"headline":    {Type: genai.TypeString},
				"subheadline": {Type: genai.TypeString},
				"tagline":     {Type: genai.TypeString},
			},
			Required: []string{"headline", "subheadline"},
		},
		"visualMetaphor":   {Type: genai.TypeString},
		"imagePrompt":      {Type: genai.TypeString},
		"compositionNotes": {Type: genai.TypeString},
		"includeCharacter": {Type: genai.TypeBoolean},
	},
	Required: []string{"id", "textOverlay", "visualMetaphor", "imagePrompt", "includeCharacter"},
}

var planSchema = &genai.Schema{
	Type:  genai.TypeArray,
	Items: slideSchema,
}

func (s *Service) GeneratePlan(ctx context.Context, cfg carousel.Config, refinement string) ([]carousel.SlideSpec, error) {
	text, err := s.generateJSON(ctx, buildPlanSystemInstruction(cfg), buildPlanPrompt(cfg, refinement), planSchema)
	if err != nil {
		return nil, err
	}

	var plan []carousel.SlideSpec
	if err := json.Unmarshal([]byte(text), &plan); err != nil {
		s.logger.Error("failed to parse plan", "text", text, "error", err)
		return nil, errors.Wrap(err, errors.ErrCodeMalformed, "failed to parse carousel plan JSON")
	}
	if len(plan) == 0 {
		return nil, errors.New(errors.ErrCodeMalformed, "model returned an empty plan")
	}

	s.logger.Info("plan generated", "slides", len(plan), "refined", refinement != "")
	return plan, nil
}

// GenerateOneSlide plans a single slide. The returned id is not final; the
// caller assigns it.
func (s *Service) GenerateOneSlide(ctx context.Context, cfg carousel.Config, instruction string, tag carousel.ContextTag) (carousel.SlideSpec, error) {
	text, err := s.generateJSON(ctx, buildPlanSystemInstruction(cfg), buildOneSlidePrompt(cfg, instruction, tag), slideSchema)
	if err != nil {
		return carousel.SlideSpec{}, err
	}

	var spec carousel.SlideSpec
	if err := json.Unmarshal([]byte(text), &spec); err != nil {
		// some answers wrap the object in an array despite the schema
		var list []carousel.SlideSpec
		if err2 := json.Unmarshal([]byte(text), &list); err2 != nil || len(list) == 0 {
			s.logger.Error("failed to parse slide", "text", text, "error", err)
			return carousel.SlideSpec{}, errors.Wrap(err, errors.ErrCodeMalformed, "failed to parse slide JSON")
		}
		spec = list[0]
	}
	if tag == carousel.ContextCTA {
		spec.IncludeCharacter = true
	}
	return spec, nil
}

// ImproveScript rewrites a rough custom script into a carousel script.
// An empty answer keeps the original.
func (s *Service) ImproveScript(ctx context.Context, script, profession string, lang carousel.Language) (string, error) {
	if strings.TrimSpace(script) == "" {
		return "", errors.New(errors.ErrCodeInvalidReq, "script is empty")
	}

	client, err := s.clients.Client(ctx, s.keys)
	if err != nil {
		return "", err
	}

	resp, err := client.Models.GenerateContent(ctx, s.model,
		[]*genai.Content{userContent(buildImprovePrompt(script, profession))},
		&genai.GenerateContentConfig{
			SystemInstruction: systemContent(buildImproveSystemInstruction(lang)),
			Temperature:       genai.Ptr(s.temperature),
		})
	if err != nil {
		s.logger.Error("script improvement failed", "error", err)
		return "", Classify(err, errors.ErrCodeGeminiAPI)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return script, nil
	}
	return text, nil
}

func (s *Service) generateJSON(ctx context.Context, system, prompt string, schema *genai.Schema) (string, error) {
	client, err := s.clients.Client(ctx, s.keys)
	if err != nil {
		return "", err
	}

	resp, err := client.Models.GenerateContent(ctx, s.model,
		[]*genai.Content{userContent(prompt)},
		&genai.GenerateContentConfig{
			SystemInstruction: systemContent(system),
			Temperature:       genai.Ptr(s.temperature),
			ResponseMIMEType:  "application/json",
			ResponseSchema:    schema,
		})
	if err != nil {
		s.logger.Error("gemini API error", "model", s.model, "error", err)
		return "", Classify(err, errors.ErrCodeGeminiAPI)
	}

	text := stripCodeFence(resp.Text())
	if text == "" {
		return "", errors.New(errors.ErrCodeMalformed, "empty response from gemini")
	}
	return text, nil
}

func userContent(text string) *genai.Content {
	return &genai.Content{
		Role:  string(genai.RoleUser),
		Parts: []*genai.Part{{Text: text}},
	}
}

func systemContent(text string) *genai.Content {
	return &genai.Content{
		Parts: []*genai.Part{{Text: text}},
	}
}

func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
