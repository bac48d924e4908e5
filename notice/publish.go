package notice

import (
	"context"
	"log"
	"time"

	"bm-banbot/model"
	"bm-banbot/utils"
)

const discussionPrompt = "Please discuss this ban here. If you have any videos or screenshots as evidence, please share them here."

// Published describes a notice that reached the channel.
type Published struct {
	BanID      string
	ChannelID  string
	MessageID  string
	ThreadID   string
	PlayerName string
}

// Publisher turns a ban into a notice with its discussion thread.
type Publisher struct {
	store     Store
	channelID string
	mappings  model.AdminMappings
	now       func() time.Time
}

func NewPublisher(store Store, channelID string, mappings model.AdminMappings) *Publisher {
	return &Publisher{
		store:     store,
		channelID: channelID,
		mappings:  mappings,
		now:       time.Now,
	}
}

const (
	threadNamePrefix = "Ban Discussion - "
	maxThreadName    = 100
)

// ThreadName is the name of a ban's discussion thread.
func ThreadName(playerName string) string {
	return threadNamePrefix + utils.Truncate(playerName, maxThreadName-len(threadNamePrefix), "")
}

// DiscussionPrompt is the first message posted into a discussion thread.
func DiscussionPrompt(mention string) string {
	if mention == "" {
		return discussionPrompt
	}
	return mention + " " + discussionPrompt
}

// PublishBan sends the notice. An error means the notice does not exist.
// Thread failures after that point are logged and swallowed.
func (p *Publisher) PublishBan(ctx context.Context, ban *model.BanRecord) (*Published, error) {
	embed := Render(ban, p.mappings, p.now())
	msg, err := p.store.Publish(ctx, p.channelID, embed, Controls())
	if err != nil {
		return nil, err
	}

	published := &Published{
		BanID:      ban.ID,
		ChannelID:  p.channelID,
		MessageID:  msg.ID,
		PlayerName: PlayerName(ban),
	}

	thread, err := p.store.StartThread(ctx, p.channelID, msg.ID, ThreadName(published.PlayerName))
	if err != nil {
		log.Printf("[Notice] Failed to create thread for ban %s: %v", ban.ID, err)
		return published, nil
	}
	published.ThreadID = thread.ID

	mention := p.mappings.Mention(IssuerName(ban))
	if err := p.store.Send(ctx, thread.ID, DiscussionPrompt(mention)); err != nil {
		log.Printf("[Notice] Failed to post discussion prompt for ban %s: %v", ban.ID, err)
	}
	return published, nil
}
