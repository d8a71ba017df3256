package service

import (
	"github.com/jose-valero/tourney-signups-bot/internal/domain"
)

// Reglas puras del reconcile: no tocan chat ni base de datos.

type removal struct {
	Emoji  string
	UserID string
}

// votes: glifo -> miembros que lo pusieron (el bot nunca cuenta).
type votes map[domain.Glyph]map[string]struct{}

func (v votes) has(g domain.Glyph, userID string) bool {
	_, ok := v[g][userID]
	return ok
}

func (v votes) count(g domain.Glyph) int { return len(v[g]) }

func memberSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// planCleanup decide qué reacciones sobran para el estado actual:
// glifos fuera de la tabla o no válidos para el estado (de cualquiera, bot incluido)
// y reacciones de quien no es miembro ni el bot.
func planCleanup(reactions []Reaction, status domain.TeamStatus, members map[string]struct{}, selfID string) []removal {
	var out []removal
	for _, r := range reactions {
		g, known := domain.GlyphFromEmoji(r.Emoji)
		valid := known && domain.GlyphAllowed(status, g)
		for _, uid := range r.UserIDs {
			if !valid {
				out = append(out, removal{Emoji: r.Emoji, UserID: uid})
				continue
			}
			if uid == selfID {
				continue
			}
			if _, ok := members[uid]; !ok {
				out = append(out, removal{Emoji: r.Emoji, UserID: uid})
			}
		}
	}
	return out
}

// collectVotes arma el mapa glifo -> miembros ignorando lo ya removido y al bot.
// selfHas indica qué glifos tiene puestos el bot tras la limpieza.
func collectVotes(reactions []Reaction, removed []removal, members map[string]struct{}, selfID string) (v votes, selfHas map[domain.Glyph]bool) {
	gone := make(map[removal]struct{}, len(removed))
	for _, r := range removed {
		gone[r] = struct{}{}
	}
	v = votes{}
	selfHas = map[domain.Glyph]bool{}
	for _, r := range reactions {
		g, ok := domain.GlyphFromEmoji(r.Emoji)
		if !ok {
			continue
		}
		for _, uid := range r.UserIDs {
			if _, dropped := gone[removal{Emoji: r.Emoji, UserID: uid}]; dropped {
				continue
			}
			if uid == selfID {
				selfHas[g] = true
				continue
			}
			if _, member := members[uid]; !member {
				continue
			}
			if v[g] == nil {
				v[g] = map[string]struct{}{}
			}
			v[g][uid] = struct{}{}
		}
	}
	return v, selfHas
}

type presenceOp struct {
	Glyph domain.Glyph
	Add   bool
}

// planPresence: el marcador del bot sólo existe mientras ningún miembro puso ese glifo.
func planPresence(status domain.TeamStatus, v votes, selfHas map[domain.Glyph]bool) []presenceOp {
	var out []presenceOp
	for _, g := range domain.AllowedGlyphs(status) {
		memberReacted := v.count(g) > 0
		switch {
		case !memberReacted && !selfHas[g]:
			out = append(out, presenceOp{Glyph: g, Add: true})
		case memberReacted && selfHas[g]:
			out = append(out, presenceOp{Glyph: g, Add: false})
		}
	}
	return out
}

type decision int

const (
	undecided decision = iota
	decisionReject
	decisionApprove
)

// decide: un solo rechazo es veto; la aprobación tiene que ser unánime.
func decide(memberIDs []string, v votes) decision {
	for _, id := range memberIDs {
		if v.has(domain.GlyphDeny, id) {
			return decisionReject
		}
	}
	if len(memberIDs) == 0 {
		return undecided
	}
	for _, id := range memberIDs {
		if !v.has(domain.GlyphApprove, id) {
			return undecided
		}
	}
	return decisionApprove
}

// acceptedTrack: con cupo lleno el equipo aprobado pasa a suplente.
func acceptedTrack(accepted, capacity int) domain.TeamStatus {
	if accepted >= capacity {
		return domain.TeamSubstitute
	}
	return domain.TeamAccepted
}

// deniedBy devuelve, en orden de miembro, quiénes pusieron el glifo de rechazo.
func deniedBy(memberIDs []string, v votes) []string {
	var out []string
	for _, id := range memberIDs {
		if v.has(domain.GlyphDeny, id) {
			out = append(out, id)
		}
	}
	return out
}
