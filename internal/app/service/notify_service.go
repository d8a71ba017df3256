package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"golang.org/x/sync/errgroup"
)

type NoticeKind int

const (
	NoticeSignupPending NoticeKind = iota + 1
	NoticeAccepted
	NoticeSubstitute
	NoticePromoted
	NoticeRejected
	NoticeCancelled
)

func (k NoticeKind) String() string {
	switch k {
	case NoticeSignupPending:
		return "signup_pending"
	case NoticeAccepted:
		return "accepted"
	case NoticeSubstitute:
		return "substitute"
	case NoticePromoted:
		return "promoted"
	case NoticeRejected:
		return "rejected"
	case NoticeCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Notice es plantilla + parámetros de un DM.
type Notice struct {
	Kind           NoticeKind
	TeamName       string
	TournamentName string
	Link           string   // jump url del anuncio (opcional)
	Missing        int      // NoticeSignupPending
	Capacity       int      // NoticeSubstitute
	DeniedBy       []string // NoticeRejected
	Reason         string   // NoticeCancelled
}

func mentions(ids []string) string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = "<@" + id + ">"
	}
	return strings.Join(out, ", ")
}

func (n Notice) Render() string {
	var b strings.Builder
	switch n.Kind {
	case NoticeSignupPending:
		fmt.Fprintf(&b, "📝 Tu equipo **%s** se inscribió en **%s**.\n", n.TeamName, n.TournamentName)
		fmt.Fprintf(&b, "Faltan **%d** aprobaciones: reacciona con ✅ en el anuncio para confirmar o ⛔ para rechazar.", n.Missing)
	case NoticeAccepted:
		fmt.Fprintf(&b, "🟢 ¡Tu equipo **%s** fue **aceptado** en **%s**!", n.TeamName, n.TournamentName)
	case NoticeSubstitute:
		fmt.Fprintf(&b, "🟠 Tu equipo **%s** quedó como **suplente** en **%s**: ", n.TeamName, n.TournamentName)
		if n.Capacity > 0 {
			fmt.Fprintf(&b, "el cupo de %d equipos está completo. ", n.Capacity)
		} else {
			b.WriteString("el cupo está completo. ")
		}
		b.WriteString("Te avisamos si se libera un lugar.")
	case NoticePromoted:
		fmt.Fprintf(&b, "🎉 Se liberó un lugar: tu equipo **%s** pasó de la lista de espera a **aceptado** en **%s**.", n.TeamName, n.TournamentName)
	case NoticeRejected:
		fmt.Fprintf(&b, "🔴 La inscripción de **%s** en **%s** fue rechazada", n.TeamName, n.TournamentName)
		if len(n.DeniedBy) > 0 {
			b.WriteString(" por " + mentions(n.DeniedBy))
		}
		b.WriteString(".")
	case NoticeCancelled:
		fmt.Fprintf(&b, "⚠️ La inscripción de **%s** en **%s** fue dada de baja.", n.TeamName, n.TournamentName)
		if n.Reason != "" {
			b.WriteString("\nMotivo: " + n.Reason)
		}
	default:
		return ""
	}
	if n.Link != "" {
		b.WriteString("\n" + n.Link)
	}
	return b.String()
}

// Notifier manda DMs; un destinatario inalcanzable no corta el envío al resto.
type Notifier struct {
	dm          DMSender
	concurrency int
}

func NewNotifier(dm DMSender, concurrency int) *Notifier {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Notifier{dm: dm, concurrency: concurrency}
}

// Notify devuelve los destinatarios a los que no se pudo entregar, en el orden recibido.
func (n *Notifier) Notify(ctx context.Context, userIDs []string, notice Notice) []string {
	content := notice.Render()
	if content == "" || len(userIDs) == 0 {
		return nil
	}

	failed := make([]bool, len(userIDs))
	var g errgroup.Group
	g.SetLimit(n.concurrency)
	for i, uid := range userIDs {
		g.Go(func() error {
			if err := n.dm.SendDM(ctx, uid, content); err != nil {
				log.Printf("[notify] dm user=%s kind=%s team=%q: %v", uid, notice.Kind, notice.TeamName, err)
				failed[i] = true
			}
			return nil
		})
	}
	_ = g.Wait()

	var out []string
	for i, f := range failed {
		if f {
			out = append(out, userIDs[i])
		}
	}
	return out
}
