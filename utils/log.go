package utils

import (
	"fmt"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"
)

type LogLevel string

const (
	Info  LogLevel = "INFO"
	Warn  LogLevel = "WARN"
	Error LogLevel = "ERROR"
)

func getColor(level LogLevel) int {
	switch level {
	case Info:
		return 3066993 // Green
	case Warn:
		return 15105570 // Orange
	case Error:
		return 15158332 // Red
	default:
		return 3447003 // Blue
	}
}

// LogEmbed builds the embed mirrored to the log channel.
func LogEmbed(level LogLevel, module, operation, extraInfo string) *discordgo.MessageEmbed {
	if extraInfo == "" {
		extraInfo = "-"
	}
	return &discordgo.MessageEmbed{
		Title: string(level) + " Log",
		Color: getColor(level),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Module", Value: module},
			{Name: "Operation", Value: operation},
			{Name: "Details", Value: truncateField(extraInfo)},
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func truncateField(s string) string {
	return Truncate(s, 1024, "...")
}

func sendLog(s *discordgo.Session, channelID string, level LogLevel, module, operation, extraInfo string) error {
	if s == nil || channelID == "" {
		return nil
	}
	_, err := s.ChannelMessageSendEmbed(channelID, LogEmbed(level, module, operation, extraInfo))
	if err != nil {
		return fmt.Errorf("failed to send log to discord: %w", err)
	}
	return nil
}

// LogInfo mirrors an informational event to the log channel. An empty channel ID disables it.
func LogInfo(s *discordgo.Session, channelID, module, operation, extraInfo string) {
	if err := sendLog(s, channelID, Info, module, operation, extraInfo); err != nil {
		log.Printf("[Log] %v", err)
	}
}

func LogWarn(s *discordgo.Session, channelID, module, operation, extraInfo string) {
	if err := sendLog(s, channelID, Warn, module, operation, extraInfo); err != nil {
		log.Printf("[Log] %v", err)
	}
}

func LogError(s *discordgo.Session, channelID, module, operation, extraInfo string) {
	if err := sendLog(s, channelID, Error, module, operation, extraInfo); err != nil {
		log.Printf("[Log] %v", err)
	}
}
