package audit

import (
	"context"
	"fmt"
	"time"

	"bm-banbot/model"

	"github.com/jmoiron/sqlx"
)

// Journal records notices and operator actions. It satisfies the journal
// interfaces of the poller and the action engine.
type Journal struct {
	db *sqlx.DB
}

func NewJournal(db *sqlx.DB) *Journal {
	return &Journal{db: db}
}

// RecordNotice stores a published notice.
func (j *Journal) RecordNotice(ctx context.Context, record model.NoticeRecord) error {
	query := `INSERT OR REPLACE INTO ban_notices (ban_id, channel_id, message_id, thread_id, player_name, published_at)
			  VALUES (:ban_id, :channel_id, :message_id, :thread_id, :player_name, :published_at)`
	if _, err := j.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("failed to insert notice record: %w", err)
	}
	return nil
}

// RecordAction stores an operator action and returns its ID.
func (j *Journal) RecordAction(ctx context.Context, record model.ActionRecord) (int64, error) {
	if record.Timestamp == 0 {
		record.Timestamp = time.Now().Unix()
	}
	query := `INSERT INTO ban_actions (ban_id, message_id, action, actor_id, actor_name, outcome, detail, timestamp)
			  VALUES (:ban_id, :message_id, :action, :actor_id, :actor_name, :outcome, :detail, :timestamp)`

	result, err := j.db.NamedExecContext(ctx, query, record)
	if err != nil {
		return 0, fmt.Errorf("failed to insert action record: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	return id, nil
}

// ActionsForBan lists the actions recorded for a ban, newest first. Actions
// journaled before the ban ID was known are matched through their notice.
func (j *Journal) ActionsForBan(ctx context.Context, banID string, limit int) ([]model.ActionRecord, error) {
	var records []model.ActionRecord
	query := `SELECT * FROM ban_actions
			  WHERE ban_id = ? OR (ban_id = '' AND message_id IN (SELECT message_id FROM ban_notices WHERE ban_id = ?))
			  ORDER BY timestamp DESC, action_id DESC LIMIT ?`
	if err := j.db.SelectContext(ctx, &records, query, banID, banID, limit); err != nil {
		return nil, fmt.Errorf("failed to get actions for ban %s: %w", banID, err)
	}
	return records, nil
}

// NoticesForBan lists the notices published for a ban.
func (j *Journal) NoticesForBan(ctx context.Context, banID string) ([]model.NoticeRecord, error) {
	var records []model.NoticeRecord
	query := "SELECT * FROM ban_notices WHERE ban_id = ? ORDER BY published_at DESC"
	if err := j.db.SelectContext(ctx, &records, query, banID); err != nil {
		return nil, fmt.Errorf("failed to get notices for ban %s: %w", banID, err)
	}
	return records, nil
}

// Counts returns the number of journaled notices and actions.
func (j *Journal) Counts(ctx context.Context) (notices, actions int, err error) {
	if err = j.db.GetContext(ctx, &notices, "SELECT COUNT(*) FROM ban_notices"); err != nil {
		return 0, 0, fmt.Errorf("failed to count notices: %w", err)
	}
	if err = j.db.GetContext(ctx, &actions, "SELECT COUNT(*) FROM ban_actions"); err != nil {
		return 0, 0, fmt.Errorf("failed to count actions: %w", err)
	}
	return notices, actions, nil
}

// Prune deletes journal rows older than before and returns how many went.
func (j *Journal) Prune(ctx context.Context, before time.Time) (int64, error) {
	var total int64
	for _, query := range []string{
		"DELETE FROM ban_actions WHERE timestamp < ?",
		"DELETE FROM ban_notices WHERE published_at < ?",
	} {
		result, err := j.db.ExecContext(ctx, query, before.Unix())
		if err != nil {
			return total, fmt.Errorf("failed to prune audit journal: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("failed to check rows affected: %w", err)
		}
		total += n
	}
	return total, nil
}
