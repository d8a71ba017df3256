package discord

import "github.com/bwmarrin/discordgo"

func (r *Router) requireAdminOrRoles(s *discordgo.Session, ic *discordgo.InteractionCreate) bool {
	if ic.Member == nil || ic.Member.User == nil {
		return false
	}

	// Owner
	if g, _ := s.State.Guild(ic.GuildID); g != nil && ic.Member.User.ID == g.OwnerID {
		return true
	}

	// el bit de Administrator viene resuelto en la interacción
	if ic.Member.Permissions&discordgo.PermissionAdministrator != 0 {
		return true
	}

	roles, _ := s.GuildRoles(ic.GuildID)
	if isAdmin(ic.Member.Roles, roles, r.adminRoleIDs) {
		return true
	}

	ReplyEphemeral(s, ic, "🔒 No tienes permisos para esta acción.")
	return false
}

// isAdmin: algún rol del miembro tiene Administrator o es uno de los roles del bot.
func isAdmin(memberRoles []string, guildRoles []*discordgo.Role, adminRoleIDs []string) bool {
	has := make(map[string]struct{}, len(memberRoles))
	for _, rid := range memberRoles {
		has[rid] = struct{}{}
	}

	for _, ro := range guildRoles {
		if _, ok := has[ro.ID]; ok && ro.Permissions&discordgo.PermissionAdministrator != 0 {
			return true
		}
	}
	for _, want := range adminRoleIDs {
		if _, ok := has[want]; ok {
			return true
		}
	}
	return false
}
