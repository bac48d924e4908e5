package handlers

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"bm-banbot/bot"
	"bm-banbot/scanner"
	"bm-banbot/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

func SystemInfoHandler(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	if err := utils.DeferResponse(s, i, true); err != nil {
		return
	}

	cpuCount, _ := cpu.Counts(true)
	cpuPercent, _ := cpu.Percent(0, false)
	vm, _ := mem.VirtualMemory()
	hostInfo, _ := host.Info()

	cpuUsage := "n/a"
	if len(cpuPercent) > 0 {
		cpuUsage = fmt.Sprintf("%.1f%%", cpuPercent[0])
	}
	memory := "n/a"
	if vm != nil {
		memory = fmt.Sprintf("%.1f%% (%d MB / %d MB)", vm.UsedPercent, vm.Used/1024/1024, vm.Total/1024/1024)
	}
	osVersion := "n/a"
	if hostInfo != nil {
		osVersion = fmt.Sprintf("%s %s", hostInfo.Platform, hostInfo.PlatformVersion)
	}

	journal := "disabled"
	if b.Journal != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		notices, actions, err := b.Journal.Counts(ctx)
		cancel()
		if err != nil {
			journal = "unavailable"
		} else {
			journal = fmt.Sprintf("%d notices / %d actions", notices, actions)
		}
	}

	status := b.Poller.Status()
	embed := &discordgo.MessageEmbed{
		Title: "Ban Bot Status",
		Color: 0x5865F2, // Discord Blurple
		Fields: append(pollerFields(status),
			&discordgo.MessageEmbedField{Name: "🗳️ Pending unban prompts", Value: fmt.Sprintf("%d", b.Engine.Sessions().Len()), Inline: true},
			&discordgo.MessageEmbedField{Name: "🗃️ Audit journal", Value: journal, Inline: true},
			&discordgo.MessageEmbedField{Name: "⏱️ Uptime", Value: utils.FormatUptime(time.Since(b.StartedAt)), Inline: true},
			&discordgo.MessageEmbedField{Name: "💻 OS", Value: osVersion, Inline: true},
			&discordgo.MessageEmbedField{Name: "🐹 Go", Value: runtime.Version(), Inline: true},
			&discordgo.MessageEmbedField{Name: "🔼 CPUs", Value: fmt.Sprintf("%d", cpuCount), Inline: true},
			&discordgo.MessageEmbedField{Name: "🔥 CPU usage", Value: cpuUsage, Inline: true},
			&discordgo.MessageEmbedField{Name: "🧠 Memory", Value: memory, Inline: true},
			&discordgo.MessageEmbedField{Name: "📶 Gateway latency", Value: s.HeartbeatLatency().String(), Inline: true},
			&discordgo.MessageEmbedField{Name: "🚀 Goroutines", Value: fmt.Sprintf("%d", runtime.NumGoroutine()), Inline: true},
		),
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("System status • %s UTC", time.Now().UTC().Format("15:04")),
		},
	}

	_, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{embed},
	})
	if err != nil {
		utils.SendFollowUpError(s, i.Interaction, "Failed to build the status report.")
	}
}

func pollerFields(status scanner.PollerStatus) []*discordgo.MessageEmbedField {
	lastSeen := status.Cursor.LastSeenBanID
	if lastSeen == "" {
		lastSeen = "none yet"
	}
	lastPoll := "never"
	if !status.LastPoll.IsZero() {
		lastPoll = fmt.Sprintf("<t:%d:R> (%s)", status.LastPoll.Unix(), status.LastOutcome)
	}
	return []*discordgo.MessageEmbedField{
		{Name: "📡 Last poll", Value: lastPoll, Inline: true},
		{Name: "🆔 Last seen ban", Value: lastSeen, Inline: true},
		{Name: "📬 Notices published", Value: fmt.Sprintf("%d", status.Published), Inline: true},
		{Name: "⚠️ Consecutive fetch failures", Value: fmt.Sprintf("%d", status.ConsecutiveFailures), Inline: true},
		{Name: "🕰️ Watermark", Value: fmt.Sprintf("<t:%d:f>", status.Cursor.Watermark.Unix()), Inline: true},
	}
}
