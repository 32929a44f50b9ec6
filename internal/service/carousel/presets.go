package carousel

type VisualPreset struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type TypographyStyle struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	FontFamilyDisplay string `json:"fontFamilyDisplay"`
	FontFamilyBody    string `json:"fontFamilyBody"`
}

var VisualStyles = []VisualPreset{
	{
		ID:          "cinematic",
		Name:        "Cinematic Motivational",
		Description: "High contrast, dramatic lighting, movie poster aesthetic, rich textures, depth of field, focused and intense atmosphere.",
	},
	{
		ID:          "minimal",
		Name:        "Minimalist Clean",
		Description: "High key lighting, lots of negative space, soft shadows, clean lines, Apple-style aesthetic, sterile but premium environment.",
	},
	{
		ID:          "cyberpunk",
		Name:        "Cyberpunk / Tech",
		Description: "Neon accents, dark urban environment, holographic elements, futuristic interfaces, blue and purple tones (unless brand color differs).",
	},
	{
		ID:          "editorial",
		Name:        "Editorial / Fashion",
		Description: "Studio lighting, grain texture, fashion magazine editorial look, artistic angles, bold composition.",
	},
	{
		ID:          "business",
		Name:        "Modern Business",
		Description: "Professional office environment, blurred city backgrounds, glass textures, suits, premium corporate look.",
	},
	{
		ID:          "urban",
		Name:        "Urban Street",
		Description: "Street photography style, concrete textures, natural light, candid but polished, raw and authentic.",
	},
}

var TypographyStyles = []TypographyStyle{
	{ID: "bold", Name: "Impact & Modern", FontFamilyDisplay: "Oswald", FontFamilyBody: "Inter"},
	{ID: "minimal", Name: "Minimal & Clean", FontFamilyDisplay: "Inter", FontFamilyBody: "Inter"},
	{ID: "editorial", Name: "Elegant & Serif", FontFamilyDisplay: "Playfair Display", FontFamilyBody: "Lato"},
	{ID: "tech", Name: "Tech & Future", FontFamilyDisplay: "Orbitron", FontFamilyBody: "Roboto Mono"},
}

// ResolveVisualStyle returns the prompt description of a preset id, or the
// value itself when it is free text.
func ResolveVisualStyle(style string) string {
	for _, p := range VisualStyles {
		if p.ID == style {
			return p.Description
		}
	}
	return style
}

func IsPresetStyle(style string) bool {
	for _, p := range VisualStyles {
		if p.ID == style {
			return true
		}
	}
	return false
}
