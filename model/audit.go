package model

// NoticeRecord represents a published ban notice in the audit journal.
// The database table will be named 'ban_notices'.
type NoticeRecord struct {
	BanID       string `db:"ban_id"`
	ChannelID   string `db:"channel_id"`
	MessageID   string `db:"message_id"`
	ThreadID    string `db:"thread_id"`
	PlayerName  string `db:"player_name"`
	PublishedAt int64  `db:"published_at"`
}

// ActionRecord represents one operator action on a notice.
// The database table will be named 'ban_actions'.
type ActionRecord struct {
	ActionID  int64  `db:"action_id"` // Primary Key, Auto-increment
	BanID     string `db:"ban_id"`
	MessageID string `db:"message_id"`
	Action    string `db:"action"` // add_evidence, unban_request, unban, unban_cancel, refresh
	ActorID   string `db:"actor_id"`
	ActorName string `db:"actor_name"`
	Outcome   string `db:"outcome"` // success, failed, rejected, cancelled, expired
	Detail    string `db:"detail"`
	Timestamp int64  `db:"timestamp"`
}

// Audit outcomes.
const (
	OutcomeSuccess   = "success"
	OutcomeFailed    = "failed"
	OutcomeRejected  = "rejected"
	OutcomeCancelled = "cancelled"
	OutcomeExpired   = "expired"
	OutcomeRequested = "requested"
)
