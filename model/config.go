package model

import (
	"strings"
	"time"
)

// BattleMetricsConfig holds the credentials and filters for the ban feed.
type BattleMetricsConfig struct {
	APIKey         string
	BaseURL        string
	OrganizationID string
	BanListID      string
}

// PollConfig controls the timing of the ban poller.
type PollConfig struct {
	Interval        time.Duration
	Throttle        time.Duration
	FailureCooldown time.Duration
	FetchTimeout    time.Duration
}

// ActionConfig controls operator actions on published notices.
type ActionConfig struct {
	Timeout        time.Duration
	ConfirmTimeout time.Duration
	UnbanGrace     time.Duration
	SupportContact string
}

// Config 存储应用程序的配置
type Config struct {
	DiscordToken     string
	ChannelID        string
	LogChannelID     string
	StaffRoleIDs     []string
	DeveloperUserIDs []string
	BattleMetrics    BattleMetricsConfig
	AdminMappings    AdminMappings
	Poll             PollConfig
	Actions          ActionConfig
	AuditDBPath      string
	AuditRetention   time.Duration
	LogFile          string
}

// AdminMappings maps a BattleMetrics admin nickname to a Discord user ID.
type AdminMappings map[string]string

// UserID returns the Discord user ID configured for a BattleMetrics nickname.
// An exact match wins; otherwise names compare case-insensitively, since
// config files may lowercase their keys.
func (m AdminMappings) UserID(name string) (string, bool) {
	if id, ok := m[name]; ok && id != "" {
		return id, true
	}
	for key, id := range m {
		if id != "" && strings.EqualFold(key, name) {
			return id, true
		}
	}
	return "", false
}

// Mention returns the Discord mention for a nickname, or "" when unmapped.
func (m AdminMappings) Mention(name string) string {
	id, ok := m.UserID(name)
	if !ok {
		return ""
	}
	return "<@" + id + ">"
}
