package bot

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"bm-banbot/utils"
)

// Run opens the gateway, starts the background tasks and blocks until the
// process is signalled.
func (b *Bot) Run() error {
	if err := b.Session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}

	b.scheduler.Start()

	log.Println("Bot is now running. Press CTRL-C to exit.")
	utils.LogInfo(b.Session, b.GetConfig().LogChannelID, "System", "Startup", "Bot has started successfully.")
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc
	return nil
}
