package notice

import (
	"fmt"
	"math"
	"time"

	"bm-banbot/model"
	"bm-banbot/utils"

	"github.com/bwmarrin/discordgo"
)

// Embed field names. They are the lookup keys for in-place edits, so they
// must never change between releases.
const (
	FieldPlayerName      = "Offenders Name:"
	FieldSteamID         = "Offenders SteamID:"
	FieldSteamProfile    = "Offenders Steam Profile:"
	FieldBMProfile       = "Offenders BattleMetrics Profile:"
	FieldServer          = "Server:"
	FieldReason          = "Reason:"
	FieldExpires         = "Expires:"
	FieldBannedBy        = "Banned by:"
	FieldEvidence        = "Evidence:"
	FieldExplanation     = "Brief explanation of what happened:"
	noticeTitle          = "NEW BAN REPORT"
	noticeColor          = 0x2B2D31
	noticeFooter         = "Controls below are for staff members only."
	authorName           = "BattleMetrics Ban"
	battleMetricsFavicon = "https://www.battlemetrics.com/favicon.ico"
)

// Labels and placeholders.
const (
	Unknown             = "Unknown"
	LabelPermanent      = "Permanent"
	LabelInvalidDate    = "Invalid date"
	LabelUnbanned       = "Unbanned"
	PlaceholderEvidence = "[Link1](https://example.com)"
	NoNotes             = "No additional notes"
	NoReason            = "No reason provided"
	expiresLayout       = "January 02, 2006 03:04 PM"
)

const (
	banEditURLPrefix    = "https://www.battlemetrics.com/rcon/bans/edit/"
	playerProfilePrefix = "https://www.battlemetrics.com/players/"
	steamProfilePrefix  = "https://steamcommunity.com/profiles/"
)

// BanURL is the identifying link of a notice.
func BanURL(banID string) string {
	return banEditURLPrefix + banID
}

// ExpiresLabel renders the expiration of a ban relative to now.
func ExpiresLabel(expires *string, now time.Time) string {
	if expires == nil || *expires == "" {
		return LabelPermanent
	}
	at, err := model.ParseTimestamp(*expires)
	if err != nil {
		return LabelInvalidDate
	}
	days := int(math.Floor(at.Sub(now.UTC()).Hours() / 24))
	return fmt.Sprintf("%s\n(in %d days)", at.UTC().Format(expiresLayout), days)
}

// PlayerName resolves the offender's name from the included side-table.
func PlayerName(ban *model.BanRecord) string {
	return includedName(ban, ban.Relationships.Player, model.EntityPlayer, "name")
}

// ServerName resolves the server the ban was issued on.
func ServerName(ban *model.BanRecord) string {
	return includedName(ban, ban.Relationships.Server, model.EntityServer, "name")
}

// IssuerName resolves the BattleMetrics nickname of the issuing admin.
func IssuerName(ban *model.BanRecord) string {
	return includedName(ban, ban.Relationships.User, model.EntityUser, "nickname")
}

func includedName(ban *model.BanRecord, rel *model.Relationship, entityType, attr string) string {
	inc, ok := ban.FindIncluded(entityType, rel.RelationshipID())
	if !ok {
		return Unknown
	}
	if name := inc.StringAttribute(attr); name != "" {
		return name
	}
	return Unknown
}

// IssuerLabel renders the issuing admin, with a mention when mapped.
func IssuerLabel(name string, mappings model.AdminMappings) string {
	if mention := mappings.Mention(name); mention != "" {
		return fmt.Sprintf("%s (%s)", name, mention)
	}
	return name
}

// SteamID returns the first Steam identifier on the ban.
func SteamID(ban *model.BanRecord) string {
	for _, id := range ban.Attributes.Identifiers {
		if id.Type == model.IdentifierSteamID && id.Identifier != "" {
			return id.Identifier
		}
	}
	return Unknown
}

// Render builds the notice embed for a ban. It never fails: any field that
// cannot be resolved degrades to a placeholder and free text is cut to the
// field limit.
func Render(ban *model.BanRecord, mappings model.AdminMappings, now time.Time) *discordgo.MessageEmbed {
	steamID := SteamID(ban)

	reason := ban.Attributes.Reason
	if reason == "" {
		reason = NoReason
	}
	note := NoNotes
	if ban.Attributes.Note != nil && *ban.Attributes.Note != "" {
		note = *ban.Attributes.Note
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: FieldPlayerName, Value: PlayerName(ban), Inline: true},
		{Name: FieldSteamID, Value: steamID, Inline: true},
		{Name: FieldSteamProfile, Value: clickHere(steamProfilePrefix + steamID)},
	}
	if playerID := ban.Relationships.Player.RelationshipID(); playerID != "" {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  FieldBMProfile,
			Value: clickHere(playerProfilePrefix + playerID),
		})
	}
	fields = append(fields,
		&discordgo.MessageEmbedField{Name: FieldServer, Value: ServerName(ban)},
		&discordgo.MessageEmbedField{Name: FieldReason, Value: fieldValue(reason)},
		&discordgo.MessageEmbedField{Name: FieldExpires, Value: ExpiresLabel(ban.Attributes.Expires, now), Inline: true},
		&discordgo.MessageEmbedField{Name: FieldBannedBy, Value: IssuerLabel(IssuerName(ban), mappings), Inline: true},
		&discordgo.MessageEmbedField{Name: FieldEvidence, Value: PlaceholderEvidence},
		&discordgo.MessageEmbedField{Name: FieldExplanation, Value: fieldValue(note)},
	)

	return &discordgo.MessageEmbed{
		Title: noticeTitle,
		Color: noticeColor,
		Author: &discordgo.MessageEmbedAuthor{
			Name:    authorName,
			URL:     BanURL(ban.ID),
			IconURL: battleMetricsFavicon,
		},
		Thumbnail: &discordgo.MessageEmbedThumbnail{URL: battleMetricsFavicon},
		Fields:    fields,
		Footer:    &discordgo.MessageEmbedFooter{Text: noticeFooter},
	}
}

// fieldValue cuts free text to what an embed field can hold.
func fieldValue(s string) string {
	return utils.Truncate(s, maxFieldValue, "…")
}

func clickHere(link string) string {
	return "[Click Here](" + link + ")"
}
