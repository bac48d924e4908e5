package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bm-banbot/bot"
	"bm-banbot/model"
	"bm-banbot/notice"
	"bm-banbot/utils"

	"github.com/bwmarrin/discordgo"
)

const historyLimit = 15

func HistoryHandler(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	var banID string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "ban_id" {
			banID = strings.TrimSpace(opt.StringValue())
		}
	}
	if banID == "" {
		utils.SendErrorResponse(s, i, "Please provide a ban ID.")
		return
	}
	if b.Journal == nil {
		utils.SendErrorResponse(s, i, "The audit journal is disabled.")
		return
	}
	if err := utils.DeferResponse(s, i, true); err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	notices, err := b.Journal.NoticesForBan(ctx, banID)
	if err != nil {
		utils.SendFollowUpError(s, i.Interaction, "Failed to read the audit journal.")
		return
	}
	actions, err := b.Journal.ActionsForBan(ctx, banID, historyLimit)
	if err != nil {
		utils.SendFollowUpError(s, i.Interaction, "Failed to read the audit journal.")
		return
	}
	if len(notices) == 0 && len(actions) == 0 {
		utils.SendFollowUp(s, i.Interaction, fmt.Sprintf("No history recorded for ban %s.", banID))
		return
	}

	embed := HistoryEmbed(i.GuildID, banID, notices, actions)
	_, err = s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{embed},
	})
	if err != nil {
		utils.SendFollowUpError(s, i.Interaction, "Failed to send the ban history.")
	}
}

// HistoryEmbed renders the journal entries of one ban.
func HistoryEmbed(guildID, banID string, notices []model.NoticeRecord, actions []model.ActionRecord) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "Ban History",
		URL:   notice.BanURL(banID),
		Color: 0x2B2D31,
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Ban " + banID,
		},
	}

	if len(notices) > 0 {
		var lines []string
		for _, n := range notices {
			link := fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guildID, n.ChannelID, n.MessageID)
			lines = append(lines, fmt.Sprintf("<t:%d:f> [%s](%s)", n.PublishedAt, n.PlayerName, link))
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Notices",
			Value: clip(strings.Join(lines, "\n")),
		})
	}

	if len(actions) > 0 {
		var lines []string
		for _, a := range actions {
			actor := a.ActorName
			if a.ActorID != "" {
				actor = "<@" + a.ActorID + ">"
			}
			lines = append(lines, fmt.Sprintf("<t:%d:R> `%s` %s by %s", a.Timestamp, a.Action, a.Outcome, actor))
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Staff actions",
			Value: clip(strings.Join(lines, "\n")),
		})
	}
	return embed
}

func clip(s string) string {
	const max = 1024
	if len(s) <= max {
		return s
	}
	if cut := strings.LastIndex(s[:max-4], "\n"); cut >= 0 {
		return s[:cut] + "\n..."
	}
	return utils.Truncate(s, max, "\n...")
}
