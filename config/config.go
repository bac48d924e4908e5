package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"bm-banbot/model"
	"bm-banbot/utils"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	keyDiscordToken      = "discord_token"
	keyChannelID         = "discord_channel_id"
	keyLogChannelID      = "log_channel_id"
	keyStaffRoleIDs      = "staff_role_ids"
	keyDeveloperUserIDs  = "developer_user_ids"
	keyAPIKey            = "battlemetrics_api_key"
	keyAPIURL            = "battlemetrics_api_url"
	keyOrganizationID    = "battlemetrics_org_id"
	keyBanListID         = "battlemetrics_banlist_id"
	keyAdminMappings     = "admin_mappings"
	keyPollInterval      = "poll_interval"
	keyPollThrottle      = "poll_throttle"
	keyPollCooldown      = "poll_failure_cooldown"
	keyPollFetchTimeout  = "poll_fetch_timeout"
	keyActionTimeout     = "action_timeout"
	keyConfirmTimeout    = "unban_confirm_timeout"
	keyUnbanGrace        = "unban_grace"
	keySupportContact    = "support_contact"
	keyAuditDBPath       = "audit_db_path"
	keyAuditRetention    = "audit_retention"
	keyLogFile           = "log_file"
	defaultBattleMetrics = "https://api.battlemetrics.com"
)

var requiredKeys = []string{
	keyDiscordToken,
	keyChannelID,
	keyAPIKey,
	keyOrganizationID,
	keyBanListID,
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyAPIURL, defaultBattleMetrics)
	v.SetDefault(keyPollInterval, "5s")
	v.SetDefault(keyPollThrottle, "1s")
	v.SetDefault(keyPollCooldown, "5s")
	v.SetDefault(keyPollFetchTimeout, "10s")
	v.SetDefault(keyActionTimeout, "10s")
	v.SetDefault(keyConfirmTimeout, "60s")
	v.SetDefault(keyUnbanGrace, "5s")
	v.SetDefault(keySupportContact, "the bot operator")
	v.SetDefault(keyAuditDBPath, "data/banbot.db")
	v.SetDefault(keyAuditRetention, "90d")
	v.SetDefault(keyLogFile, "banbot.log")
}

// Load reads the configuration. Values come from the environment, optionally
// seeded by envFile, with configFile (YAML, JSON or TOML) as a lower-priority
// source. Missing required values are reported together.
func Load(envFile, configFile string) (*model.Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
			}
			log.Printf("Info: %s not found, relying on environment variables", envFile)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*model.Config, error) {
	var missing []string
	for _, key := range requiredKeys {
		if strings.TrimSpace(v.GetString(key)) == "" {
			missing = append(missing, strings.ToUpper(key))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	mappings, err := adminMappings(v)
	if err != nil {
		return nil, err
	}

	var errs []error
	duration := func(key string) time.Duration {
		d, err := utils.ParseDuration(v.GetString(key))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", strings.ToUpper(key), err))
			return 0
		}
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s: must not be negative", strings.ToUpper(key)))
			return 0
		}
		return d
	}

	cfg := &model.Config{
		DiscordToken:     strings.TrimSpace(v.GetString(keyDiscordToken)),
		ChannelID:        strings.TrimSpace(v.GetString(keyChannelID)),
		LogChannelID:     strings.TrimSpace(v.GetString(keyLogChannelID)),
		StaffRoleIDs:     splitList(v.GetString(keyStaffRoleIDs)),
		DeveloperUserIDs: splitList(v.GetString(keyDeveloperUserIDs)),
		BattleMetrics: model.BattleMetricsConfig{
			APIKey:         strings.TrimSpace(v.GetString(keyAPIKey)),
			BaseURL:        strings.TrimRight(v.GetString(keyAPIURL), "/"),
			OrganizationID: strings.TrimSpace(v.GetString(keyOrganizationID)),
			BanListID:      strings.TrimSpace(v.GetString(keyBanListID)),
		},
		AdminMappings: mappings,
		Poll: model.PollConfig{
			Interval:        duration(keyPollInterval),
			Throttle:        duration(keyPollThrottle),
			FailureCooldown: duration(keyPollCooldown),
			FetchTimeout:    duration(keyPollFetchTimeout),
		},
		Actions: model.ActionConfig{
			Timeout:        duration(keyActionTimeout),
			ConfirmTimeout: duration(keyConfirmTimeout),
			UnbanGrace:     duration(keyUnbanGrace),
			SupportContact: v.GetString(keySupportContact),
		},
		AuditDBPath:    v.GetString(keyAuditDBPath),
		AuditRetention: duration(keyAuditRetention),
		LogFile:        v.GetString(keyLogFile),
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if cfg.Poll.Interval == 0 {
		return nil, errors.New("POLL_INTERVAL: must be positive")
	}

	if cfg.LogChannelID == "" {
		log.Println("Warning: LOG_CHANNEL_ID not set, Discord log mirroring will be disabled")
	}
	if len(cfg.StaffRoleIDs) == 0 {
		log.Println("Warning: STAFF_ROLE_IDS not set, every member of the ban channel can use the notice controls")
	}
	return cfg, nil
}

// adminMappings reads ADMIN_MAPPINGS as a JSON object, falling back to an
// admin_mappings table in the config file.
func adminMappings(v *viper.Viper) (model.AdminMappings, error) {
	mappings := model.AdminMappings{}
	raw := v.Get(keyAdminMappings)
	switch value := raw.(type) {
	case nil:
	case string:
		if strings.TrimSpace(value) == "" {
			break
		}
		if err := json.Unmarshal([]byte(value), &mappings); err != nil {
			return nil, fmt.Errorf("ADMIN_MAPPINGS: invalid JSON object: %w", err)
		}
	default:
		for name, id := range v.GetStringMapString(keyAdminMappings) {
			mappings[name] = id
		}
	}
	for name, id := range mappings {
		if strings.TrimSpace(id) == "" {
			delete(mappings, name)
		}
	}
	return mappings, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
