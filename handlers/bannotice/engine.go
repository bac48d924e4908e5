package bannotice

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"bm-banbot/battlemetrics"
	"bm-banbot/model"
	"bm-banbot/notice"
	"bm-banbot/utils"

	"github.com/bwmarrin/discordgo"
)

// Action is an operator action on a notice.
type Action int

const (
	ActionAddEvidence Action = iota + 1
	ActionUnban
	ActionConfirmUnban
	ActionCancelUnban
	ActionRefresh
)

func (a Action) String() string {
	switch a {
	case ActionAddEvidence:
		return "add_evidence"
	case ActionUnban:
		return "unban_request"
	case ActionConfirmUnban:
		return "unban"
	case ActionCancelUnban:
		return "unban_cancel"
	case ActionRefresh:
		return "refresh"
	default:
		return "unknown"
	}
}

// Request is one operator interaction. Target is ignored for confirm and
// cancel, which act on the target captured by the session.
type Request struct {
	Action    Action
	Target    Target
	Actor     Actor
	Evidence  string
	SessionID string
}

// ResultKind tells the transport how to answer the operator.
type ResultKind int

const (
	// ResultAck is a private acknowledgment of a completed action.
	ResultAck ResultKind = iota
	// ResultConfirm asks the operator to confirm Session.
	ResultConfirm
	// ResultFailure is a private error report; nothing was changed locally.
	ResultFailure
	// ResultInactive answers a confirm or cancel whose session is gone.
	ResultInactive
)

// Result is the outcome of Handle.
type Result struct {
	Kind    ResultKind
	Message string
	Session *ActionSession
	BanID   string
	Err     error
}

// BanSource is the remote side of the actions.
type BanSource interface {
	Ban(ctx context.Context, banID string) (*model.BanRecord, error)
	SetBanExpiry(ctx context.Context, banID string, expires time.Time) error
}

// ActionJournal records operator actions.
type ActionJournal interface {
	RecordAction(ctx context.Context, record model.ActionRecord) (int64, error)
}

const (
	msgEvidenceAdded  = "Evidence link added successfully!"
	msgConfirmUnban   = "Are you sure you want to remove this ban?"
	msgUnbanned       = "✅ Ban has been removed!"
	msgUnbanCancelled = "Unban cancelled."
	msgRefreshed      = "✅ Ban information refreshed!"
	msgInactive       = "This unban request is no longer active."
	maxReplyDetail    = 1500
)

// Engine applies operator actions to notices. It keeps no copy of any
// notice: every action re-reads the live message before editing it.
type Engine struct {
	store    notice.Store
	source   BanSource
	journal  ActionJournal
	sessions *SessionManager
	cfg      model.ActionConfig
	now      func() time.Time
}

func NewEngine(store notice.Store, source BanSource, journal ActionJournal, cfg model.ActionConfig) *Engine {
	if cfg.UnbanGrace <= 0 {
		cfg.UnbanGrace = 5 * time.Second
	}
	if cfg.SupportContact == "" {
		cfg.SupportContact = "the bot operator"
	}
	return &Engine{
		store:    store,
		source:   source,
		journal:  journal,
		sessions: NewSessionManager(cfg.ConfirmTimeout),
		cfg:      cfg,
		now:      time.Now,
	}
}

// Sessions exposes the confirmation sessions, mainly for expiry hooks.
func (e *Engine) Sessions() *SessionManager {
	return e.sessions
}

// Handle dispatches a request. It never returns an error: failures are
// logged, journaled and reported in the Result.
func (e *Engine) Handle(ctx context.Context, req Request) Result {
	switch req.Action {
	case ActionAddEvidence:
		return e.addEvidence(ctx, req)
	case ActionUnban:
		return e.requestUnban(ctx, req)
	case ActionConfirmUnban:
		return e.confirmUnban(ctx, req)
	case ActionCancelUnban:
		return e.cancelUnban(ctx, req)
	case ActionRefresh:
		return e.refresh(ctx, req)
	default:
		return Result{Kind: ResultFailure, Message: e.supportMessage("unknown action"), Err: fmt.Errorf("unknown action %d", req.Action)}
	}
}

func (e *Engine) addEvidence(ctx context.Context, req Request) Result {
	var banID string
	_, err := notice.Update(ctx, e.store, req.Target.ChannelID, req.Target.MessageID, func(embed *discordgo.MessageEmbed) error {
		banID, _ = notice.BanIDFromEmbed(embed)
		current, _ := notice.FieldValue(embed, notice.FieldEvidence)
		next, err := notice.AppendEvidence(current, req.Evidence)
		if err != nil {
			return err
		}
		return notice.SetField(embed, notice.FieldEvidence, next)
	})
	if err != nil {
		log.Printf("[BanNotice] Error adding evidence to %s: %v", req.Target.MessageID, err)
		e.record(ctx, req, banID, model.OutcomeFailed, err.Error())
		return e.failure(banID, err)
	}

	e.record(ctx, req, banID, model.OutcomeSuccess, req.Evidence)
	return Result{Kind: ResultAck, Message: msgEvidenceAdded, BanID: banID}
}

func (e *Engine) requestUnban(ctx context.Context, req Request) Result {
	session := e.sessions.Open(req.Target, ActionConfirmUnban, req.Actor)
	e.record(ctx, req, "", model.OutcomeRequested, "session "+session.ID)
	return Result{Kind: ResultConfirm, Message: msgConfirmUnban, Session: &session}
}

func (e *Engine) cancelUnban(ctx context.Context, req Request) Result {
	session, err := e.sessions.Take(req.SessionID)
	if err != nil {
		return Result{Kind: ResultInactive, Message: msgInactive, Err: err}
	}
	req.Target = session.Target
	e.record(ctx, req, "", model.OutcomeCancelled, "")
	return Result{Kind: ResultAck, Message: msgUnbanCancelled, Session: &session}
}

func (e *Engine) confirmUnban(ctx context.Context, req Request) Result {
	session, err := e.sessions.Take(req.SessionID)
	if err != nil {
		return Result{Kind: ResultInactive, Message: msgInactive, Err: err}
	}
	req.Target = session.Target

	embed, err := e.store.Notice(ctx, session.Target.ChannelID, session.Target.MessageID)
	if err != nil {
		log.Printf("[BanNotice] Error in unban: %v", err)
		e.record(ctx, req, "", model.OutcomeFailed, err.Error())
		return e.failure("", err)
	}
	banID, err := notice.BanIDFromEmbed(embed)
	if err != nil {
		log.Printf("[BanNotice] Error in unban: %v", err)
		e.record(ctx, req, "", model.OutcomeFailed, err.Error())
		return e.failure("", err)
	}

	if err := e.source.SetBanExpiry(ctx, banID, e.now().Add(e.cfg.UnbanGrace)); err != nil {
		if statusErr, ok := battlemetrics.AsStatusError(err); ok {
			detail := fmt.Sprintf("Failed to update ban duration. Status code: %d", statusErr.StatusCode)
			if statusErr.Body != "" {
				detail += "\nResponse: " + truncate(statusErr.Body, maxReplyDetail)
			}
			log.Printf("[BanNotice] %s (ban %s)", detail, banID)
			e.record(ctx, req, banID, model.OutcomeRejected, detail)
			return Result{Kind: ResultFailure, Message: e.supportMessage(detail), BanID: banID, Err: err}
		}
		log.Printf("[BanNotice] Error in unban of ban %s: %v", banID, err)
		e.record(ctx, req, banID, model.OutcomeFailed, err.Error())
		return e.failure(banID, err)
	}

	_, err = notice.Update(ctx, e.store, session.Target.ChannelID, session.Target.MessageID, func(embed *discordgo.MessageEmbed) error {
		return notice.SetField(embed, notice.FieldExpires, notice.LabelUnbanned)
	})
	if err != nil {
		err = fmt.Errorf("ban %s was removed but the notice could not be updated: %w", banID, err)
		log.Printf("[BanNotice] %v", err)
		e.record(ctx, req, banID, model.OutcomeFailed, err.Error())
		return e.failure(banID, err)
	}

	log.Printf("[BanNotice] Ban %s has been removed by %s", banID, req.Actor)
	e.record(ctx, req, banID, model.OutcomeSuccess, "")
	return Result{Kind: ResultAck, Message: msgUnbanned, Session: &session, BanID: banID}
}

func (e *Engine) refresh(ctx context.Context, req Request) Result {
	embed, err := e.store.Notice(ctx, req.Target.ChannelID, req.Target.MessageID)
	if err != nil {
		log.Printf("[BanNotice] Error in refresh: %v", err)
		e.record(ctx, req, "", model.OutcomeFailed, err.Error())
		return e.failure("", err)
	}
	banID, err := notice.BanIDFromEmbed(embed)
	if err != nil {
		log.Printf("[BanNotice] Error in refresh: %v", err)
		e.record(ctx, req, "", model.OutcomeFailed, err.Error())
		return e.failure("", err)
	}

	ban, err := e.source.Ban(ctx, banID)
	if err != nil {
		log.Printf("[BanNotice] Error refreshing ban %s: %v", banID, err)
		e.record(ctx, req, banID, model.OutcomeFailed, err.Error())
		if statusErr, ok := battlemetrics.AsStatusError(err); ok {
			return Result{
				Kind:    ResultFailure,
				Message: fmt.Sprintf("Failed to refresh ban information. Status code: %d", statusErr.StatusCode),
				BanID:   banID,
				Err:     err,
			}
		}
		return e.failure(banID, err)
	}

	label := notice.ExpiresLabel(ban.Attributes.Expires, e.now())
	_, err = notice.Update(ctx, e.store, req.Target.ChannelID, req.Target.MessageID, func(embed *discordgo.MessageEmbed) error {
		return notice.SetField(embed, notice.FieldExpires, label)
	})
	if err != nil {
		log.Printf("[BanNotice] Error refreshing notice for ban %s: %v", banID, err)
		e.record(ctx, req, banID, model.OutcomeFailed, err.Error())
		return e.failure(banID, err)
	}

	e.record(ctx, req, banID, model.OutcomeSuccess, label)
	return Result{Kind: ResultAck, Message: msgRefreshed, BanID: banID}
}

// failure builds the private error report for an unexpected error.
func (e *Engine) failure(banID string, err error) Result {
	detail := err.Error()
	if errors.Is(err, notice.ErrNoticeState) {
		detail = "Could not read the ban notice: " + detail
	}
	return Result{Kind: ResultFailure, Message: e.supportMessage(truncate(detail, maxReplyDetail)), BanID: banID, Err: err}
}

func (e *Engine) supportMessage(detail string) string {
	return fmt.Sprintf("Please report this to %s: %s", e.cfg.SupportContact, detail)
}

func (e *Engine) record(ctx context.Context, req Request, banID, outcome, detail string) {
	if e.journal == nil {
		return
	}
	record := model.ActionRecord{
		BanID:     banID,
		MessageID: req.Target.MessageID,
		Action:    req.Action.String(),
		ActorID:   req.Actor.ID,
		ActorName: req.Actor.Name,
		Outcome:   outcome,
		Detail:    detail,
		Timestamp: e.now().Unix(),
	}
	if _, err := e.journal.RecordAction(ctx, record); err != nil {
		log.Printf("[BanNotice] Failed to journal %s: %v", req.Action, err)
	}
}

// RecordExpired journals a confirmation session that timed out.
func (e *Engine) RecordExpired(session ActionSession) {
	e.record(context.Background(), Request{Action: ActionUnban, Target: session.Target, Actor: session.Actor}, "", model.OutcomeExpired, "session "+session.ID)
}

func truncate(s string, n int) string {
	return utils.Truncate(s, n, "…")
}
