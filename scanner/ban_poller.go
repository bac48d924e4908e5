package scanner

import (
	"context"
	"log"
	"sync"
	"time"

	"bm-banbot/battlemetrics"
	"bm-banbot/model"
	"bm-banbot/notice"
)

// BanFeed returns the most recent ban of the watched list, or nil when empty.
type BanFeed interface {
	LatestBan(ctx context.Context) (*model.BanRecord, error)
}

// BanPublisher publishes a notice. A nil error means the notice exists.
type BanPublisher interface {
	PublishBan(ctx context.Context, ban *model.BanRecord) (*notice.Published, error)
}

// NoticeJournal records published notices. Failures never affect the cursor.
type NoticeJournal interface {
	RecordNotice(ctx context.Context, record model.NoticeRecord) error
}

// TickOutcome is the result of one poll cycle.
type TickOutcome int

const (
	TickFetchFailed TickOutcome = iota
	TickEmpty
	TickNotNew
	TickPublished
	TickPublishFailed
)

func (o TickOutcome) String() string {
	switch o {
	case TickFetchFailed:
		return "fetch_failed"
	case TickEmpty:
		return "empty"
	case TickNotNew:
		return "not_new"
	case TickPublished:
		return "published"
	case TickPublishFailed:
		return "publish_failed"
	default:
		return "unknown"
	}
}

// PollerStatus is a snapshot of the poller for status reporting.
type PollerStatus struct {
	Cursor              Cursor
	LastPoll            time.Time
	LastOutcome         TickOutcome
	ConsecutiveFailures int
	Published           int
}

// BanPoller drives the fetch, dedup, publish cycle.
type BanPoller struct {
	feed      BanFeed
	publisher BanPublisher
	journal   NoticeJournal
	cfg       model.PollConfig

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	mu     sync.RWMutex
	status PollerStatus
}

// NewBanPoller creates a poller whose watermark is the current time.
func NewBanPoller(feed BanFeed, publisher BanPublisher, journal NoticeJournal, cfg model.PollConfig) *BanPoller {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 10 * time.Second
	}
	p := &BanPoller{
		feed:      feed,
		publisher: publisher,
		journal:   journal,
		cfg:       cfg,
		now:       time.Now,
		sleep:     sleepContext,
	}
	p.status.Cursor = NewCursor(p.now().UTC())
	return p
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Status returns a copy of the poller state.
func (p *BanPoller) Status() PollerStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

func (p *BanPoller) cursor() Cursor {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status.Cursor
}

func (p *BanPoller) finishTick(outcome TickOutcome, published string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.LastPoll = p.now()
	p.status.LastOutcome = outcome
	if outcome == TickFetchFailed {
		p.status.ConsecutiveFailures++
	} else {
		p.status.ConsecutiveFailures = 0
	}
	if published != "" {
		p.status.Cursor = p.status.Cursor.Advance(published)
		p.status.Published++
	}
}

// Run polls until ctx is cancelled. A failed fetch adds the failure cooldown
// to the wait before the next cycle.
func (p *BanPoller) Run(ctx context.Context) {
	cursor := p.cursor()
	log.Printf("[BanPoller] Started, watermark %s, interval %s", cursor.Watermark.Format(time.RFC3339), p.cfg.Interval)
	for {
		if err := p.sleep(ctx, p.cfg.Throttle); err != nil {
			break
		}
		outcome := p.Tick(ctx)

		wait := p.cfg.Interval
		if outcome == TickFetchFailed {
			wait += p.cfg.FailureCooldown
		}
		if err := p.sleep(ctx, wait); err != nil {
			break
		}
	}
	log.Println("[BanPoller] Stopped.")
}

// Tick runs a single fetch, dedup, publish cycle. It never panics on a bad
// record and only advances the cursor after a successful publish.
func (p *BanPoller) Tick(ctx context.Context) TickOutcome {
	fetchCtx, cancel := context.WithTimeout(ctx, p.cfg.FetchTimeout)
	ban, err := p.feed.LatestBan(fetchCtx)
	cancel()
	if err != nil {
		if battlemetrics.IsTransient(err) {
			log.Printf("[BanPoller] Ban check error: %v", err)
		} else {
			log.Printf("[BanPoller] BattleMetrics API error: %v", err)
		}
		p.finishTick(TickFetchFailed, "")
		return TickFetchFailed
	}
	if ban == nil {
		p.finishTick(TickEmpty, "")
		return TickEmpty
	}

	isNew, err := p.cursor().IsNew(ban)
	if err != nil {
		log.Printf("[BanPoller] Skipping ban: %v", err)
		p.finishTick(TickNotNew, "")
		return TickNotNew
	}
	if !isNew {
		p.finishTick(TickNotNew, "")
		return TickNotNew
	}

	published, err := p.publisher.PublishBan(ctx, ban)
	if err != nil {
		log.Printf("[BanPoller] Failed to publish ban %s: %v", ban.ID, err)
		p.finishTick(TickPublishFailed, "")
		return TickPublishFailed
	}
	p.finishTick(TickPublished, ban.ID)
	log.Printf("[BanPoller] New ban processed: %s", ban.ID)

	if p.journal != nil {
		record := model.NoticeRecord{
			BanID:       ban.ID,
			ChannelID:   published.ChannelID,
			MessageID:   published.MessageID,
			ThreadID:    published.ThreadID,
			PlayerName:  published.PlayerName,
			PublishedAt: p.now().Unix(),
		}
		if err := p.journal.RecordNotice(ctx, record); err != nil {
			log.Printf("[BanPoller] Failed to journal notice for ban %s: %v", ban.ID, err)
		}
	}
	return TickPublished
}
