package notice

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// threadArchiveMinutes is the auto-archive duration of discussion threads.
const threadArchiveMinutes = 1440

// Store publishes and edits notices on the messaging platform. It holds no
// state: the live message is the only copy of a notice.
type Store interface {
	Publish(ctx context.Context, channelID string, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) (*discordgo.Message, error)
	StartThread(ctx context.Context, channelID, messageID, name string) (*discordgo.Channel, error)
	Send(ctx context.Context, channelID, content string) error
	Notice(ctx context.Context, channelID, messageID string) (*discordgo.MessageEmbed, error)
	EditNotice(ctx context.Context, channelID, messageID string, embed *discordgo.MessageEmbed) error
	Delete(ctx context.Context, channelID, messageID string) error
}

// Update reads the current notice, applies mutate to a copy, and writes it
// back. The identifying link is checked before and after mutate so no edit
// can change it.
func Update(ctx context.Context, store Store, channelID, messageID string, mutate func(*discordgo.MessageEmbed) error) (*discordgo.MessageEmbed, error) {
	current, err := store.Notice(ctx, channelID, messageID)
	if err != nil {
		return nil, err
	}
	banID, err := BanIDFromEmbed(current)
	if err != nil {
		return nil, err
	}

	next := CloneEmbed(current)
	if err := mutate(next); err != nil {
		return nil, err
	}
	if next.Author == nil || next.Author.URL != current.Author.URL {
		return nil, noticeStateErr("edit would change the identifying link of ban %s", banID)
	}

	if err := store.EditNotice(ctx, channelID, messageID, next); err != nil {
		return nil, fmt.Errorf("failed to edit notice %s: %w", messageID, err)
	}
	return next, nil
}

// DiscordStore implements Store on a discordgo session.
type DiscordStore struct {
	Session *discordgo.Session
}

func NewDiscordStore(s *discordgo.Session) *DiscordStore {
	return &DiscordStore{Session: s}
}

func (d *DiscordStore) Publish(ctx context.Context, channelID string, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) (*discordgo.Message, error) {
	msg, err := d.Session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: components,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to send notice to channel %s: %w", channelID, err)
	}
	return msg, nil
}

func (d *DiscordStore) StartThread(ctx context.Context, channelID, messageID, name string) (*discordgo.Channel, error) {
	thread, err := d.Session.MessageThreadStartComplex(channelID, messageID, &discordgo.ThreadStart{
		Name:                name,
		AutoArchiveDuration: threadArchiveMinutes,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to create thread on message %s: %w", messageID, err)
	}
	return thread, nil
}

func (d *DiscordStore) Send(ctx context.Context, channelID, content string) error {
	if _, err := d.Session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send message to channel %s: %w", channelID, err)
	}
	return nil
}

func (d *DiscordStore) Notice(ctx context.Context, channelID, messageID string) (*discordgo.MessageEmbed, error) {
	msg, err := d.Session.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notice %s: %w", messageID, err)
	}
	if len(msg.Embeds) == 0 {
		return nil, noticeStateErr("original message has no embed")
	}
	return msg.Embeds[0], nil
}

func (d *DiscordStore) EditNotice(ctx context.Context, channelID, messageID string, embed *discordgo.MessageEmbed) error {
	_, err := d.Session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel: channelID,
		ID:      messageID,
		Embeds:  &[]*discordgo.MessageEmbed{embed},
	}, discordgo.WithContext(ctx))
	return err
}

func (d *DiscordStore) Delete(ctx context.Context, channelID, messageID string) error {
	return d.Session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx))
}
