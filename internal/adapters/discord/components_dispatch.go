package discord

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

const signoffPrefix = "signoff:"

func signoffCustomID(teamID int64) string {
	return signoffPrefix + strconv.FormatInt(teamID, 10)
}

func parseSignoffCustomID(id string) (int64, bool) {
	raw, ok := strings.CutPrefix(id, signoffPrefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func (r *Router) handleMessageComponent(s *discordgo.Session, ic *discordgo.InteractionCreate) {
	data := ic.MessageComponentData()

	teamID, ok := parseSignoffCustomID(data.CustomID)
	if !ok {
		return
	}

	_ = DeferEphemeral(s, ic)
	ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()
	defer step("component.signoff.total")()

	if !r.requireAdminOrRoles(s, ic) {
		return
	}
	team, err := r.svc.Tournaments.SignOffTeam(ctx, teamID, "baja desde /team_info")
	if err != nil {
		r.fail(ctx, s, ic, "signoff", err)
		return
	}
	log.Printf("[signoff] team=%d by=%s", team.ID, ic.Member.User.ID)
	ReplyEphemeral(s, ic, fmt.Sprintf("✅ **%s** dado de baja.", team.Name))
}
