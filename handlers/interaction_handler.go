package handlers

import (
	"bm-banbot/bot"

	"github.com/bwmarrin/discordgo"
)

func handleInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		if h, ok := b.CommandHandlers[i.ApplicationCommandData().Name]; ok {
			h(s, i)
		}
	case discordgo.InteractionMessageComponent:
		b.NoticeHandler.HandleComponent(s, i)
	case discordgo.InteractionModalSubmit:
		b.NoticeHandler.HandleModal(s, i)
	}
}
