package bot

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"bm-banbot/battlemetrics"
	"bm-banbot/commands"
	"bm-banbot/handlers/bannotice"
	"bm-banbot/model"
	"bm-banbot/notice"
	"bm-banbot/scanner"
	"bm-banbot/utils/database/audit"

	"github.com/bwmarrin/discordgo"
	"github.com/jmoiron/sqlx"
)

type Bot struct {
	Session            *discordgo.Session
	RegisteredCommands []*discordgo.ApplicationCommand
	CommandHandlers    map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate)
	config             atomic.Value // *model.Config
	DB                 *sqlx.DB
	Journal            *audit.Journal
	BattleMetrics      *battlemetrics.Client
	Store              notice.Store
	Poller             *scanner.BanPoller
	Engine             *bannotice.Engine
	NoticeHandler      *bannotice.Handler
	StartedAt          time.Time

	scheduler    *Scheduler
	userID       atomic.Value // string
	announceOnce sync.Once
}

func (b *Bot) GetConfig() *model.Config {
	return b.config.Load().(*model.Config)
}

func (b *Bot) GetDB() *sqlx.DB {
	return b.DB
}

func (b *Bot) GetSession() *discordgo.Session {
	return b.Session
}

// UserID returns the bot's own user ID once the gateway is ready.
func (b *Bot) UserID() string {
	id, _ := b.userID.Load().(string)
	return id
}

func (b *Bot) SetUserID(id string) {
	b.userID.Store(id)
}

// New wires the session, the BattleMetrics client, the notice store, the
// poller and the action engine. db may be nil, which disables the journal.
func New(cfg *model.Config, db *sqlx.DB, client *battlemetrics.Client) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, err
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages
	dg.StateEnabled = false

	b := &Bot{
		Session:       dg,
		DB:            db,
		BattleMetrics: client,
		Store:         notice.NewDiscordStore(dg),
		StartedAt:     time.Now(),
	}
	b.config.Store(cfg)

	var noticeJournal scanner.NoticeJournal
	var actionJournal bannotice.ActionJournal
	if db != nil {
		b.Journal = audit.NewJournal(db)
		noticeJournal = b.Journal
		actionJournal = b.Journal
	}

	publisher := notice.NewPublisher(b.Store, cfg.ChannelID, cfg.AdminMappings)
	b.Poller = scanner.NewBanPoller(client, publisher, noticeJournal, cfg.Poll)
	b.Engine = bannotice.NewEngine(b.Store, client, actionJournal, cfg.Actions)
	b.NoticeHandler = bannotice.NewHandler(dg, b.Engine, cfg)
	b.scheduler = NewScheduler(b)
	return b, nil
}

func (b *Bot) Close() {
	log.Println("Gracefully shutting down.")
	if b.scheduler != nil {
		b.scheduler.Stop()
	}
	if err := b.Session.Close(); err != nil {
		log.Printf("Error closing Discord session: %v", err)
	}
	if b.DB != nil {
		if err := b.DB.Close(); err != nil {
			log.Printf("Error closing audit database: %v", err)
		}
	}
}

// RefreshCommands registers the slash commands in the guild that owns the
// ban channel.
func (b *Bot) RefreshCommands(appID string) error {
	cfg := b.GetConfig()
	ch, err := b.Session.Channel(cfg.ChannelID, discordgo.WithContext(context.Background()))
	if err != nil {
		return fmt.Errorf("cannot resolve ban channel %s: %w", cfg.ChannelID, err)
	}
	if ch.GuildID == "" {
		return fmt.Errorf("ban channel %s is not in a guild", cfg.ChannelID)
	}

	cmds := commands.GenerateCommands()
	log.Printf("Registering %d commands for guild %s...", len(cmds), ch.GuildID)
	registered, err := b.Session.ApplicationCommandBulkOverwrite(appID, ch.GuildID, cmds)
	if err != nil {
		return fmt.Errorf("cannot update commands for guild '%s': %w", ch.GuildID, err)
	}
	b.RegisteredCommands = registered
	return nil
}

// AnnounceOnline posts the online message to the ban channel once per process.
func (b *Bot) AnnounceOnline() {
	b.announceOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := b.Store.Send(ctx, b.GetConfig().ChannelID, "🟢 BattleMetrics Ban Bot is now online!"); err != nil {
			log.Printf("Failed to send online announcement: %v", err)
		}
	})
}
