package gemini

import (
	"fmt"
	"strings"

	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/internal/service/carousel"
)

func buildPlanSystemInstruction(cfg carousel.Config) string {
	renderMode := "OVERLAY (Clean background for CSS text)"
	if cfg.IsBaked() {
		renderMode = "FULL ARTWORK (Text/Lists baked into image)"
	}

	return fmt.Sprintf(`You are an expert Visual Director and Content Strategist for high-end social media.

YOUR TASK:
Create a JSON plan for a carousel.

1. ANALYZE CONTENT COMPLEXITY (CRITICAL):
   - If the user provides a "Solution", "Process", or "List" with multiple steps/points:
     -> YOU MUST EXPAND to 8 or 10 slides.
     -> YOU MUST CREATE "INFOGRAPHIC SLIDES" for these dense parts.
   - If it is simple motivation: 6 Slides is fine.

2. SLIDE STRUCTURE STRATEGY:
   - Slides 1-2: Hook & Problem (Emotional, Human).
   - Middle slides: The "Value/Education". If this is a list of steps, use INFOGRAPHIC VISUALS (Charts, 3D Lists, Floating Interface).
     -> DO NOT cram detailed steps into one slide. Split them up!
   - Final Slide: Call to Action.

3. VISUAL DIRECTION RULES:
   - NO REPETITIVE POSES. Every slide must have a distinct Camera Angle and Pose.
   - USE VISUAL METAPHORS: if the script says "50 views", the image MUST show a phone with a low number graph.
   - CHARACTER PRESENCE (70/30 Rule):
     - For roughly 70%% of slides (Hook, Connection, CTA), set "includeCharacter": true.
     - For roughly 30%% of slides (Data, detailed Steps, Metaphors), set "includeCharacter": false.

Output Language: %s.
Visual Style: "%s".
Brand Color: "%s".
Render Mode: %s.`,
		cfg.Language.Name(), cfg.VisualStyle, cfg.BrandColor, renderMode)
}

func buildPlanPrompt(cfg carousel.Config, refinement string) string {
	var b strings.Builder

	if cfg.Mode == carousel.ModeCustom {
		fmt.Fprintf(&b, `Profession: %s

Based STRICTLY on the following script, generate the JSON plan.
Adapt the script to 6, 8, or 10 slides. If the "Explanation" or "Solution" part is long, SPLIT IT into multiple illustrated slides.

USER SCRIPT:
%s
`, cfg.Profession, cfg.CustomScript)
	} else {
		fmt.Fprintf(&b, `Profession: %s
Topic: %s

Generate a viral carousel script (6, 8, or 10 slides) about this topic.
Ensure the middle section (Education) is detailed and visual.
`, cfg.Profession, cfg.Topic)
	}

	b.WriteString("\n")
	b.WriteString(slideFieldInstructions(cfg))

	if r := strings.TrimSpace(refinement); r != "" {
		fmt.Fprintf(&b, `
USER FEEDBACK ON THE PREVIOUS VERSION (apply it to the whole plan):
%s
`, r)
	}
	return b.String()
}

func slideFieldInstructions(cfg carousel.Config) string {
	headline := "HEADLINE"
	if cfg.Mode == carousel.ModeCustom {
		headline = "USER HEADLINE"
	}

	var modeRules string
	if cfg.IsBaked() {
		modeRules = fmt.Sprintf(`   - VITAL: This is 'AI-BAKED' mode. The image must contain the content.
     - If the slide implies a list, render a stylized 3D list in the air.
     - If it mentions a result (10k views), render that result visually in the scene.
     - The text "%s" should be integrated (e.g. neon sign, movie poster title).`, headline)
	} else {
		modeRules = "   - Ensure the subject is positioned to allow space for overlay text. Background clean in one area."
	}

	return fmt.Sprintf(`For each slide provide:
1. "textOverlay":
   - "headline": Main punchy text (Max 5 words).
   - "subheadline": Explanation (Max 12 words).
   - "tagline": Context label (e.g., "The Mistake", "Step 1").

2. "visualMetaphor": A description of the SPECIFIC visual concept.
   - IF "includeCharacter" is FALSE: Describe a high-end 3D infographic, chart, or object illustrating the point.
   - IF "includeCharacter" is TRUE: Describe the person interacting with the concept.

3. "imagePrompt": A highly detailed image generation prompt.
   - Start with "A %s shot...".
   - CAM ANGLES: Vary these! (Extreme Close Up, Wide Shot, Over the shoulder, Dutch Angle).
   - INFOGRAPHIC INSTRUCTIONS: If this is an educational step, include "Floating 3D list", "Holographic chart", or "Step-by-step diagram".
%s
   - Lighting: Cinematic, featuring %s accents.
   - ANTI-NEON: Unless the style is explicitly 'Cyberpunk' or 'Neon', DO NOT overuse neon lights.

4. "includeCharacter": Boolean. True if the main character (User) should be in the shot.
`, cfg.VisualStyle, modeRules, cfg.BrandColor)
}

func buildOneSlidePrompt(cfg carousel.Config, instruction string, tag carousel.ContextTag) string {
	var framing string
	switch tag {
	case carousel.ContextCTA:
		framing = `This is the CLOSING CALL TO ACTION slide of the carousel.
- The headline must tell the viewer exactly what to do next (follow, comment, save, book a call).
- The main character should be present and address the viewer directly.`
	default:
		framing = `This is an INTERMEDIATE slide inserted in the middle of an existing carousel.
- It must continue the narrative and add one new idea, not repeat the hook or the CTA.`
	}

	subject := cfg.Topic
	if cfg.Mode == carousel.ModeCustom {
		subject = cfg.CustomScript
	}

	return fmt.Sprintf(`Profession: %s
Carousel subject:
%s

Generate exactly ONE slide as a JSON object.
%s

USER INSTRUCTION FOR THIS SLIDE:
%s

%s`, cfg.Profession, subject, framing, strings.TrimSpace(instruction), slideFieldInstructions(cfg))
}

func buildImproveSystemInstruction(lang carousel.Language) string {
	return fmt.Sprintf(`You are a world-class copywriter for TikTok and Instagram Reels.
Your goal is to take a rough script or idea and optimize it.

CRITICAL: Analyze the content density.
- If it's a simple tip: Create a 6-slide structure.
- If it's a step-by-step guide or deep breakdown: Create an 8 or 10-slide structure.

Output Language: %s.
Format: Scene-by-Scene text.`, lang.Name())
}

func buildImprovePrompt(script, profession string) string {
	return fmt.Sprintf(`Profession Context: %s
Original Draft:
"%s"

Rewrite this into a powerful carousel script (6, 8, or 10 slides based on depth).
- Scene 1 must be a scroll-stopping hook.
- The final Scene must be a clear Call to Action.
- Make it sound human, conversational, yet authoritative.
- Label them Slide 1, Slide 2, etc.`, profession, script)
}
