package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"bm-banbot/bot"
	"bm-banbot/commands"
	"bm-banbot/utils"

	"github.com/bwmarrin/discordgo"
)

func Register(b *bot.Bot) {
	b.CommandHandlers = commandHandlers(b)
	addHandlers(b)
}

func commandHandlers(b *bot.Bot) map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate){
		commands.StatusCommand: func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			if !requireStaff(s, i, b) {
				return
			}
			SystemInfoHandler(s, i, b)
		},
		commands.HistoryCommand: func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			if !requireStaff(s, i, b) {
				return
			}
			HistoryHandler(s, i, b)
		},
	}
}

func requireStaff(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) bool {
	cfg := b.GetConfig()
	if i.Member == nil || i.Member.User == nil ||
		!utils.IsStaff(i.Member.Roles, i.Member.User.ID, cfg.StaffRoleIDs, cfg.DeveloperUserIDs) {
		utils.SendErrorResponse(s, i, "You do not have permission to use this command.")
		return false
	}
	return true
}

func addHandlers(b *bot.Bot) {
	b.Session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Printf("Logged in as: %v#%v", r.User.Username, r.User.Discriminator)
		b.SetUserID(r.User.ID)

		appID := r.User.ID
		if r.Application != nil && r.Application.ID != "" {
			appID = r.Application.ID
		}
		if err := b.RefreshCommands(appID); err != nil {
			log.Printf("Failed to register commands: %v", err)
		}
		b.AnnounceOnline()
	})
	b.Session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		handleInteractionCreate(s, i, b)
	})
	b.Session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		handleBanChannelMessage(s, m, b)
	})
	b.Session.AddHandler(func(s *discordgo.Session, d *discordgo.Disconnect) {
		log.Println("Disconnected from Discord, waiting for the session to resume.")
	})
	b.Session.AddHandler(func(s *discordgo.Session, r *discordgo.Resumed) {
		log.Println("Discord session resumed.")
	})
}

// handleBanChannelMessage keeps the ban channel reserved for notices by
// deleting anything posted there by someone other than this bot.
func handleBanChannelMessage(s *discordgo.Session, m *discordgo.MessageCreate, b *bot.Bot) {
	if m.Author == nil || m.ChannelID != b.GetConfig().ChannelID {
		return
	}
	botID := b.UserID()
	if botID == "" || m.Author.ID == botID {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := b.Store.Delete(ctx, m.ChannelID, m.ID)
	if err == nil {
		return
	}

	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		switch restErr.Response.StatusCode {
		case http.StatusNotFound:
			log.Printf("Message %s was already deleted", m.ID)
			return
		case http.StatusForbidden:
			log.Printf("Missing permissions to delete message %s in the ban channel", m.ID)
			return
		}
	}
	log.Printf("Error deleting message %s in the ban channel: %v", m.ID, err)
}
