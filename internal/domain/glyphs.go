package domain

// Glyph es el significado de una reacción; el emoji concreto sale de glyphEmoji.
type Glyph int

const (
	GlyphApprove Glyph = iota + 1
	GlyphDeny
	GlyphConfirmed
	GlyphRejected
)

var glyphEmoji = map[Glyph]string{
	GlyphApprove:   "✅",
	GlyphDeny:      "⛔",
	GlyphConfirmed: "🟢",
	GlyphRejected:  "🔴",
}

func (g Glyph) Emoji() string { return glyphEmoji[g] }

func (g Glyph) String() string {
	switch g {
	case GlyphApprove:
		return "approve"
	case GlyphDeny:
		return "deny"
	case GlyphConfirmed:
		return "confirmed"
	case GlyphRejected:
		return "rejected"
	}
	return "unknown"
}

// GlyphFromEmoji devuelve false para cualquier emoji fuera de la tabla.
func GlyphFromEmoji(emoji string) (Glyph, bool) {
	for g, e := range glyphEmoji {
		if e == emoji {
			return g, true
		}
	}
	return 0, false
}

// AllowedGlyphs: glifos válidos en un anuncio según el estado actual del equipo.
// Es también el set que el bot se asegura de tener presente.
func AllowedGlyphs(status TeamStatus) []Glyph {
	switch status {
	case TeamPending:
		return []Glyph{GlyphApprove, GlyphDeny}
	case TeamAccepted, TeamSubstitute:
		return []Glyph{GlyphConfirmed}
	case TeamRejected:
		return []Glyph{GlyphRejected}
	}
	return nil
}

func GlyphAllowed(status TeamStatus, g Glyph) bool {
	for _, a := range AllowedGlyphs(status) {
		if a == g {
			return true
		}
	}
	return false
}

// MarkerGlyph: marcador único que queda tras una transición terminal.
func MarkerGlyph(status TeamStatus) (Glyph, bool) {
	switch status {
	case TeamAccepted, TeamSubstitute:
		return GlyphConfirmed, true
	case TeamRejected:
		return GlyphRejected, true
	}
	return 0, false
}
