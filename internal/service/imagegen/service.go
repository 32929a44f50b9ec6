package imagegen

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/internal/infra/logger"
	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/internal/service/carousel"
	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/internal/service/gemini"
	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/pkg/errors"
	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/pkg/util"
)

// Service is the remote image generator: one rendered image per slide spec.
type Service struct {
	clients     *gemini.ClientFactory
	keys        gemini.KeySource
	model       string
	aspectRatio string
	logger      *logger.Logger
}

func New(clients *gemini.ClientFactory, keys gemini.KeySource, model, aspectRatio string, log *logger.Logger) *Service {
	if aspectRatio == "" {
		aspectRatio = "3:4"
	}
	return &Service{
		clients:     clients,
		keys:        keys,
		model:       model,
		aspectRatio: aspectRatio,
		logger:      log,
	}
}

// GenerateImage renders spec. ref may be nil; the subject-likeness
// instruction and the reference part are only sent when the spec wants the
// character and a reference exists.
func (s *Service) GenerateImage(ctx context.Context, spec carousel.SlideSpec, ref *carousel.Image, cfg carousel.Config, refinement string) (*carousel.Image, error) {
	client, err := s.clients.Client(ctx, s.keys)
	if err != nil {
		return nil, err
	}

	parts := s.buildParts(spec, ref, cfg, refinement)

	resp, err := client.Models.GenerateContent(ctx, s.model,
		[]*genai.Content{{Role: string(genai.RoleUser), Parts: parts}},
		&genai.GenerateContentConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
		})
	if err != nil {
		s.logger.Error("image gen API error", "slide_id", spec.ID, "error", err)
		return nil, gemini.Classify(err, errors.ErrCodeImageGenAPI)
	}

	return s.parseResponse(resp)
}

func (s *Service) buildParts(spec carousel.SlideSpec, ref *carousel.Image, cfg carousel.Config, refinement string) []*genai.Part {
	withSubject := spec.IncludeCharacter && !ref.Empty()

	prompt := s.buildImagePrompt(spec, cfg, withSubject)
	if r := strings.TrimSpace(refinement); r != "" {
		prompt += fmt.Sprintf("\n\nREFINEMENT REQUESTED BY THE USER (apply it to this new attempt):\n%s\n", r)
	}

	parts := []*genai.Part{{Text: prompt}}
	if withSubject {
		parts = append(parts, imagePart(ref))
	}
	if !cfg.LogoImage.Empty() {
		parts = append(parts,
			&genai.Part{Text: "INCORPORATE THIS LOGO into the scene naturally (e.g. on a laptop sticker, mug, corner of a screen, or subtle background watermark). Do not make it huge."},
			imagePart(cfg.LogoImage))
	}
	if !cfg.StyleReferenceImage.Empty() {
		parts = append(parts,
			&genai.Part{Text: "Adopt the lighting, color grading, and composition style of this reference image:"},
			imagePart(cfg.StyleReferenceImage))
	}
	return parts
}

func (s *Service) buildImagePrompt(spec carousel.SlideSpec, cfg carousel.Config, withSubject bool) string {
	style := carousel.ResolveVisualStyle(cfg.VisualStyle)

	if !cfg.IsBaked() {
		subject := "NO PERSON in this image. Focus on the object/concept/infographic."
		if withSubject {
			subject = "The person in the image must look exactly like the reference image provided."
		} else if spec.IncludeCharacter {
			subject = "Feature one person interacting with the concept."
		}
		return fmt.Sprintf(`Prompt: %s.
Visual Metaphor: %s.
Style Guidelines: %s.
Color Palette: Dominant dark/neutral with accents of %s.
Quality: Hyper-realistic photography, 8k resolution, cinematic lighting.
Aspect ratio: %s (portrait).

STRICT REQUIREMENT:
%s

CRITICAL: DO NOT include any text in the image. Keep the background clean/negative space for overlay text.`,
			spec.ImagePrompt, spec.VisualMetaphor, style, cfg.BrandColor, s.aspectRatio, subject)
	}

	var b strings.Builder
	fmt.Fprintf(&b, `GENERATE A MASTERPIECE VISUAL for a high-end social media carousel.
Aspect ratio: %s (portrait).

CORE CONCEPT: %s
STYLE DEFINITION: %s (Strictly adhere to this aesthetic).

SCENE DESCRIPTION: %s

*** TEXT INTEGRATION (CRITICAL) ***
The Headline text "%s" MUST be NATIVELY INTEGRATED into the environment (Diegetic Text).
It should NOT look like a digital overlay or sticker. It must be a physical part of the scene.

INTEGRATION METHOD (Choose based on style '%s'):
- If 'Minimalist': Embossed text on a wall, printed on a book cover, clean 3D letters standing on a desk, or text on a smooth screen.
- If 'Cinematic': Cinematic movie title typography floating in depth, projected light text on a surface, or backlit lettering.
- If 'Urban': Graffiti art, poster on a wall, or billboard.
- If 'Tech': Holographic interface, code on a monitor, or LED display.

VISUAL COHERENCE:
- The text must interact with the scene's lighting (casting shadows, reflecting environment).
- Use depth of field to make the text feel embedded.
- Color: Integrate %s into the text or scene accents naturally.

ANTI-NEON RULE:
- Do NOT use 'Neon' styles unless the visual style explicitly requests it.
- If style is 'Professional' or 'Minimalist', use solid, clean materials for text (Plastic, Metal, Paint, Ink).
`, s.aspectRatio, spec.VisualMetaphor, style, spec.ImagePrompt, spec.TextOverlay.Headline, cfg.VisualStyle, cfg.BrandColor)

	switch {
	case withSubject:
		b.WriteString(`
- The character (Reference Person) must be present.
- The character should INTERACT with the text or data (looking at it, pointing, holding it).
`)
	case spec.IncludeCharacter:
		b.WriteString(`
- A person should INTERACT with the text or data (looking at it, pointing, holding it).
`)
	default:
		b.WriteString(`
- NO CHARACTER in this shot. Focus entirely on the illustration, infographic, object, or concept.
- Make the composition powerful and graphic.
`)
	}
	return b.String()
}

func (s *Service) parseResponse(resp *genai.GenerateContentResponse) (*carousel.Image, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New(errors.ErrCodeNoImage, "empty response from image generation")
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			mime := part.InlineData.MIMEType
			if mime == "" {
				mime = util.DetectMimeType(part.InlineData.Data)
			}
			return &carousel.Image{Data: part.InlineData.Data, MIMEType: mime}, nil
		}
	}

	return nil, errors.New(errors.ErrCodeNoImage, "no image in response")
}

func imagePart(img *carousel.Image) *genai.Part {
	mime := img.MIMEType
	if mime == "" {
		mime = util.DetectMimeType(img.Data)
	}
	return genai.NewPartFromBytes(img.Data, mime)
}
