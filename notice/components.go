package notice

import (
	"strings"

	"github.com/bwmarrin/discordgo"
)

// Custom IDs of the controls attached to every notice.
const (
	ControlAddEvidence = "ban_add_evidence"
	ControlUnban       = "ban_unban"
	ControlRefresh     = "ban_refresh"

	// Confirmation prompt and modal IDs carry a suffix after the colon.
	ConfirmUnbanPrefix  = "ban_unban_confirm:"
	CancelUnbanPrefix   = "ban_unban_cancel:"
	EvidenceModalPrefix = "ban_evidence_modal:"
	EvidenceInputID     = "evidence_link"
)

// Controls returns the action row attached to a notice.
func Controls() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Add Evidence",
					Style:    discordgo.PrimaryButton,
					CustomID: ControlAddEvidence,
					Emoji:    &discordgo.ComponentEmoji{Name: "📎"},
				},
				discordgo.Button{
					Label:    "Unban",
					Style:    discordgo.SuccessButton,
					CustomID: ControlUnban,
					Emoji:    &discordgo.ComponentEmoji{Name: "🔓"},
				},
				discordgo.Button{
					Label:    "Refresh",
					Style:    discordgo.SecondaryButton,
					CustomID: ControlRefresh,
					Emoji:    &discordgo.ComponentEmoji{Name: "🔄"},
				},
			},
		},
	}
}

// UnbanConfirmControls returns the confirm/cancel row of an unban prompt.
func UnbanConfirmControls(sessionID string) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Confirm Unban",
					Style:    discordgo.SuccessButton,
					CustomID: ConfirmUnbanPrefix + sessionID,
				},
				discordgo.Button{
					Label:    "Cancel",
					Style:    discordgo.SecondaryButton,
					CustomID: CancelUnbanPrefix + sessionID,
				},
			},
		},
	}
}

// EvidenceModal returns the modal that collects one evidence link for the
// notice identified by channelID and messageID.
func EvidenceModal(channelID, messageID string) *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		CustomID: EvidenceModalPrefix + channelID + ":" + messageID,
		Title:    "Add Evidence Link",
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    EvidenceInputID,
						Label:       "Evidence Link",
						Style:       discordgo.TextInputShort,
						Placeholder: "Paste your evidence link here...",
						Required:    true,
						MinLength:   5,
						MaxLength:   200,
					},
				},
			},
		},
	}
}

// ParseEvidenceModalID extracts the notice location from an evidence modal ID.
func ParseEvidenceModalID(customID string) (channelID, messageID string, ok bool) {
	rest, found := strings.CutPrefix(customID, EvidenceModalPrefix)
	if !found {
		return "", "", false
	}
	channelID, messageID, ok = strings.Cut(rest, ":")
	if !ok || channelID == "" || messageID == "" {
		return "", "", false
	}
	return channelID, messageID, true
}
