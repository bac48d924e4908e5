package notice

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// memoryStore is an in-memory Store. Published embeds are kept as the live
// copy, so reads always reflect the last edit.
type memoryStore struct {
	mu       sync.Mutex
	nextID   int
	notices  map[string]*discordgo.MessageEmbed
	sent     map[string][]string
	threads  map[string]string
	edits    int
	failSend error
	failEdit error
	failPub  error
	failThr  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		notices: make(map[string]*discordgo.MessageEmbed),
		sent:    make(map[string][]string),
		threads: make(map[string]string),
	}
}

func (m *memoryStore) Publish(ctx context.Context, channelID string, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPub != nil {
		return nil, m.failPub
	}
	m.nextID++
	id := fmt.Sprintf("m%d", m.nextID)
	m.notices[id] = CloneEmbed(embed)
	return &discordgo.Message{ID: id, ChannelID: channelID}, nil
}

func (m *memoryStore) StartThread(ctx context.Context, channelID, messageID, name string) (*discordgo.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failThr != nil {
		return nil, m.failThr
	}
	id := "t-" + messageID
	m.threads[id] = name
	return &discordgo.Channel{ID: id, Name: name}, nil
}

func (m *memoryStore) Send(ctx context.Context, channelID, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSend != nil {
		return m.failSend
	}
	m.sent[channelID] = append(m.sent[channelID], content)
	return nil
}

func (m *memoryStore) Notice(ctx context.Context, channelID, messageID string) (*discordgo.MessageEmbed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	embed, ok := m.notices[messageID]
	if !ok {
		return nil, errors.New("unknown message")
	}
	return CloneEmbed(embed), nil
}

func (m *memoryStore) EditNotice(ctx context.Context, channelID, messageID string, embed *discordgo.MessageEmbed) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failEdit != nil {
		return m.failEdit
	}
	m.edits++
	m.notices[messageID] = CloneEmbed(embed)
	return nil
}

func (m *memoryStore) Delete(ctx context.Context, channelID, messageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.notices, messageID)
	return nil
}
