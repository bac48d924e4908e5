package commands

import (
	"github.com/bwmarrin/discordgo"
)

const (
	StatusCommand  = "banbot-status"
	HistoryCommand = "banbot-history"
)

var staffOnly int64 = discordgo.PermissionManageMessages

func GenerateCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:                     StatusCommand,
			Description:              "Show the ban feed poller and host status.",
			DefaultMemberPermissions: &staffOnly,
		},
		{
			Name:                     HistoryCommand,
			Description:              "Show the recorded notices and staff actions for a ban.",
			DefaultMemberPermissions: &staffOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "ban_id",
					Description: "The BattleMetrics ban ID.",
					Required:    true,
					MinLength:   intPtr(1),
					MaxLength:   32,
				},
			},
		},
	}
}

func intPtr(v int) *int {
	return &v
}
