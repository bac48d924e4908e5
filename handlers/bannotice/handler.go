package bannotice

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"bm-banbot/model"
	"bm-banbot/notice"
	"bm-banbot/utils"

	"github.com/bwmarrin/discordgo"
)

const msgStaffOnly = "Only staff members can use these controls."

// Handler adapts Discord interactions on ban notices to the Engine.
type Handler struct {
	session *discordgo.Session
	engine  *Engine
	cfg     *model.Config

	// prompts holds the interaction that opened each unban confirmation, so
	// an expired prompt can have its buttons removed.
	prompts sync.Map
}

func NewHandler(s *discordgo.Session, engine *Engine, cfg *model.Config) *Handler {
	h := &Handler{session: s, engine: engine, cfg: cfg}
	engine.Sessions().OnExpire(h.expirePrompt)
	return h
}

// HandleComponent handles a button press. It reports false for custom IDs it
// does not own.
func (h *Handler) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	action, ok := componentAction(i.MessageComponentData().CustomID)
	if !ok {
		return false
	}
	switch action {
	case ActionAddEvidence:
		h.guard(s, i, h.openEvidenceModal)
	case ActionUnban:
		h.guard(s, i, h.requestUnban)
	case ActionRefresh:
		h.guard(s, i, h.refresh)
	case ActionConfirmUnban:
		h.guard(s, i, h.confirmUnban)
	case ActionCancelUnban:
		h.guard(s, i, h.cancelUnban)
	}
	return true
}

// componentAction maps a button custom ID to the action it triggers.
func componentAction(customID string) (Action, bool) {
	switch {
	case customID == notice.ControlAddEvidence:
		return ActionAddEvidence, true
	case customID == notice.ControlUnban:
		return ActionUnban, true
	case customID == notice.ControlRefresh:
		return ActionRefresh, true
	case strings.HasPrefix(customID, notice.ConfirmUnbanPrefix):
		return ActionConfirmUnban, true
	case strings.HasPrefix(customID, notice.CancelUnbanPrefix):
		return ActionCancelUnban, true
	default:
		return 0, false
	}
}

// HandleModal handles the evidence modal submission.
func (h *Handler) HandleModal(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	if !strings.HasPrefix(i.ModalSubmitData().CustomID, notice.EvidenceModalPrefix) {
		return false
	}
	h.guard(s, i, h.submitEvidence)
	return true
}

// guard enforces the staff gate and keeps a panicking handler from taking
// down the gateway loop.
func (h *Handler) guard(s *discordgo.Session, i *discordgo.InteractionCreate, fn func(*discordgo.Session, *discordgo.InteractionCreate)) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[BanNotice] Recovered from panic in interaction handler: %v", r)
		}
	}()

	if !h.allowed(i) {
		utils.SendErrorResponse(s, i, msgStaffOnly)
		return
	}
	fn(s, i)
}

// allowed reports whether the interaction comes from a guild member who
// passes the staff gate.
func (h *Handler) allowed(i *discordgo.InteractionCreate) bool {
	if i.Member == nil || i.Member.User == nil {
		return false
	}
	return utils.IsStaff(i.Member.Roles, i.Member.User.ID, h.cfg.StaffRoleIDs, h.cfg.DeveloperUserIDs)
}

func (h *Handler) context() (context.Context, context.CancelFunc) {
	timeout := h.cfg.Actions.Timeout
	if timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), timeout)
}

func actorOf(i *discordgo.InteractionCreate) Actor {
	var user *discordgo.User
	if i.Member != nil && i.Member.User != nil {
		user = i.Member.User
	} else {
		user = i.User
	}
	if user == nil {
		return Actor{}
	}
	return Actor{ID: user.ID, Name: user.Username}
}

func targetOf(i *discordgo.InteractionCreate) Target {
	if i.Message == nil {
		return Target{ChannelID: i.ChannelID}
	}
	return Target{ChannelID: i.Message.ChannelID, MessageID: i.Message.ID}
}

func (h *Handler) openEvidenceModal(s *discordgo.Session, i *discordgo.InteractionCreate) {
	target := targetOf(i)
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: notice.EvidenceModal(target.ChannelID, target.MessageID),
	})
	if err != nil {
		log.Printf("[BanNotice] Error opening evidence modal: %v", err)
	}
}

func (h *Handler) submitEvidence(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ModalSubmitData()
	channelID, messageID, ok := notice.ParseEvidenceModalID(data.CustomID)
	if !ok {
		utils.SendErrorResponse(s, i, "This evidence form is no longer valid.")
		return
	}
	if err := utils.DeferResponse(s, i, true); err != nil {
		log.Printf("[BanNotice] Error deferring evidence submission: %v", err)
		return
	}

	ctx, cancel := h.context()
	defer cancel()
	result := h.engine.Handle(ctx, Request{
		Action:   ActionAddEvidence,
		Target:   Target{ChannelID: channelID, MessageID: messageID},
		Actor:    actorOf(i),
		Evidence: strings.TrimSpace(modalValue(data, notice.EvidenceInputID)),
	})
	h.reply(s, i, result)
}

func (h *Handler) requestUnban(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := h.context()
	defer cancel()
	result := h.engine.Handle(ctx, Request{Action: ActionUnban, Target: targetOf(i), Actor: actorOf(i)})
	if result.Kind != ResultConfirm || result.Session == nil {
		utils.SendErrorResponse(s, i, result.Message)
		return
	}

	err := utils.SendEphemeralComponents(s, i, result.Message, notice.UnbanConfirmControls(result.Session.ID))
	if err != nil {
		log.Printf("[BanNotice] Error sending unban confirmation: %v", err)
		// Without a prompt the session can never be confirmed.
		_, _ = h.engine.Sessions().Take(result.Session.ID)
		return
	}
	h.prompts.Store(result.Session.ID, i.Interaction)
}

func (h *Handler) confirmUnban(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sessionID := strings.TrimPrefix(i.MessageComponentData().CustomID, notice.ConfirmUnbanPrefix)
	h.prompts.Delete(sessionID)
	if err := utils.DeferUpdate(s, i); err != nil {
		log.Printf("[BanNotice] Error deferring unban confirmation: %v", err)
		return
	}

	ctx, cancel := h.context()
	defer cancel()
	actor := actorOf(i)
	result := h.engine.Handle(ctx, Request{Action: ActionConfirmUnban, Actor: actor, SessionID: sessionID})
	if err := utils.EditResponseClearComponents(s, i.Interaction, result.Message); err != nil {
		log.Printf("[BanNotice] Error updating unban confirmation: %v", err)
	}
	if result.Kind == ResultAck {
		utils.LogInfo(s, h.cfg.LogChannelID, "BanNotice", "Unban", fmt.Sprintf("Ban %s removed by %s", result.BanID, actor))
	} else if result.Kind == ResultFailure {
		utils.LogWarn(s, h.cfg.LogChannelID, "BanNotice", "Unban", result.Message)
	}
}

func (h *Handler) cancelUnban(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sessionID := strings.TrimPrefix(i.MessageComponentData().CustomID, notice.CancelUnbanPrefix)
	h.prompts.Delete(sessionID)

	ctx, cancel := h.context()
	defer cancel()
	result := h.engine.Handle(ctx, Request{Action: ActionCancelUnban, Actor: actorOf(i), SessionID: sessionID})
	utils.UpdateMessage(s, i, result.Message)
}

func (h *Handler) refresh(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := utils.DeferResponse(s, i, true); err != nil {
		log.Printf("[BanNotice] Error deferring refresh: %v", err)
		return
	}

	ctx, cancel := h.context()
	defer cancel()
	result := h.engine.Handle(ctx, Request{Action: ActionRefresh, Target: targetOf(i), Actor: actorOf(i)})
	h.reply(s, i, result)
}

func (h *Handler) reply(s *discordgo.Session, i *discordgo.InteractionCreate, result Result) {
	if result.Kind == ResultFailure {
		utils.SendFollowUpError(s, i.Interaction, result.Message)
		return
	}
	utils.SendFollowUp(s, i.Interaction, result.Message)
}

// expirePrompt journals a timed-out confirmation and makes its prompt inert.
func (h *Handler) expirePrompt(session ActionSession) {
	h.engine.RecordExpired(session)
	value, ok := h.prompts.LoadAndDelete(session.ID)
	if !ok {
		return
	}
	interaction := value.(*discordgo.Interaction)
	if err := utils.EditResponseClearComponents(h.session, interaction, msgInactive); err != nil {
		log.Printf("[BanNotice] Error expiring unban confirmation %s: %v", session.ID, err)
	}
}

func modalValue(data discordgo.ModalSubmitInteractionData, inputID string) string {
	for _, component := range data.Components {
		row, ok := component.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, inner := range row.Components {
			if input, ok := inner.(*discordgo.TextInput); ok && input.CustomID == inputID {
				return input.Value
			}
		}
	}
	return ""
}
