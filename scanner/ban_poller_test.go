package scanner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bm-banbot/battlemetrics"
	"bm-banbot/model"
	"bm-banbot/notice"

	"github.com/google/go-cmp/cmp"
)

type fakeFeed struct {
	mu      sync.Mutex
	results []feedResult
	calls   int
}

type feedResult struct {
	ban *model.BanRecord
	err error
}

func (f *fakeFeed) LatestBan(ctx context.Context) (*model.BanRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.results) == 0 {
		return nil, nil
	}
	r := f.results[0]
	if len(f.results) > 1 {
		f.results = f.results[1:]
	}
	return r.ban, r.err
}

type fakePublisher struct {
	mu        sync.Mutex
	published []string
	failures  int
}

func (p *fakePublisher) PublishBan(ctx context.Context, ban *model.BanRecord) (*notice.Published, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failures > 0 {
		p.failures--
		return nil, errors.New("channel unavailable")
	}
	p.published = append(p.published, ban.ID)
	return &notice.Published{BanID: ban.ID, ChannelID: "bans", MessageID: "m-" + ban.ID, PlayerName: "Alice"}, nil
}

type fakeJournal struct {
	records []model.NoticeRecord
	err     error
}

func (j *fakeJournal) RecordNotice(ctx context.Context, record model.NoticeRecord) error {
	if j.err != nil {
		return j.err
	}
	j.records = append(j.records, record)
	return nil
}

func newTestPoller(feed BanFeed, pub BanPublisher, journal NoticeJournal) *BanPoller {
	p := NewBanPoller(feed, pub, journal, model.PollConfig{
		Interval:        5 * time.Second,
		Throttle:        time.Second,
		FailureCooldown: 5 * time.Second,
		FetchTimeout:    time.Second,
	})
	p.now = func() time.Time { return t0.Add(time.Minute) }
	p.status.Cursor = NewCursor(t0)
	return p
}

func TestTickPublishesOnceAcrossRepeatedFetches(t *testing.T) {
	ban := banAt("b1", t0.Add(10*time.Second))
	feed := &fakeFeed{results: []feedResult{{ban: ban}}}
	pub := &fakePublisher{}
	journal := &fakeJournal{}
	p := newTestPoller(feed, pub, journal)

	want := []TickOutcome{TickPublished, TickNotNew, TickNotNew, TickNotNew}
	var got []TickOutcome
	for range want {
		got = append(got, p.Tick(context.Background()))
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("outcomes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"b1"}, pub.published); diff != "" {
		t.Errorf("published mismatch (-want +got):\n%s", diff)
	}

	status := p.Status()
	if status.Cursor.LastSeenBanID != "b1" || status.Published != 1 {
		t.Errorf("status = %+v", status)
	}

	wantRecords := []model.NoticeRecord{{
		BanID:       "b1",
		ChannelID:   "bans",
		MessageID:   "m-b1",
		PlayerName:  "Alice",
		PublishedAt: t0.Add(time.Minute).Unix(),
	}}
	if diff := cmp.Diff(wantRecords, journal.records); diff != "" {
		t.Errorf("journal mismatch (-want +got):\n%s", diff)
	}
}

func TestTickSkipsPreWatermarkBan(t *testing.T) {
	feed := &fakeFeed{results: []feedResult{{ban: banAt("b1", t0.Add(-10*time.Second))}}}
	pub := &fakePublisher{}
	p := newTestPoller(feed, pub, nil)

	for i := 0; i < 3; i++ {
		if got := p.Tick(context.Background()); got != TickNotNew {
			t.Fatalf("Tick() = %v, want not_new", got)
		}
	}
	if len(pub.published) != 0 {
		t.Errorf("published = %v, want none", pub.published)
	}
}

func TestTickPublishFailureKeepsCursor(t *testing.T) {
	ban := banAt("b1", t0.Add(10*time.Second))
	feed := &fakeFeed{results: []feedResult{{ban: ban}}}
	pub := &fakePublisher{failures: 1}
	p := newTestPoller(feed, pub, nil)

	if got := p.Tick(context.Background()); got != TickPublishFailed {
		t.Fatalf("first Tick() = %v, want publish_failed", got)
	}
	if p.Status().Cursor.LastSeenBanID != "" {
		t.Fatal("cursor advanced after a failed publish")
	}
	if got := p.Tick(context.Background()); got != TickPublished {
		t.Fatalf("second Tick() = %v, want published", got)
	}
	if diff := cmp.Diff([]string{"b1"}, pub.published); diff != "" {
		t.Errorf("published mismatch (-want +got):\n%s", diff)
	}
}

func TestTickFetchFailure(t *testing.T) {
	feed := &fakeFeed{results: []feedResult{
		{err: &battlemetrics.StatusError{Op: "list bans", StatusCode: 502}},
		{err: errors.New("dial tcp: timeout")},
		{ban: nil},
	}}
	p := newTestPoller(feed, &fakePublisher{}, nil)

	p.Tick(context.Background())
	p.Tick(context.Background())
	if got := p.Status().ConsecutiveFailures; got != 2 {
		t.Errorf("ConsecutiveFailures = %d, want 2", got)
	}
	if got := p.Tick(context.Background()); got != TickEmpty {
		t.Errorf("Tick() = %v, want empty", got)
	}
	if got := p.Status().ConsecutiveFailures; got != 0 {
		t.Errorf("ConsecutiveFailures after recovery = %d, want 0", got)
	}
}

func TestTickBadTimestampIsSkipped(t *testing.T) {
	bad := &model.BanRecord{ID: "b1", Attributes: model.BanAttributes{Timestamp: "garbage"}}
	good := banAt("b2", t0.Add(time.Second))
	feed := &fakeFeed{results: []feedResult{{ban: bad}, {ban: good}}}
	pub := &fakePublisher{}
	p := newTestPoller(feed, pub, nil)

	if got := p.Tick(context.Background()); got != TickNotNew {
		t.Fatalf("Tick() = %v, want not_new", got)
	}
	if got := p.Tick(context.Background()); got != TickPublished {
		t.Fatalf("Tick() = %v, want published", got)
	}
}

func TestTickJournalFailureDoesNotAffectCursor(t *testing.T) {
	feed := &fakeFeed{results: []feedResult{{ban: banAt("b1", t0.Add(time.Second))}}}
	p := newTestPoller(feed, &fakePublisher{}, &fakeJournal{err: errors.New("disk full")})

	if got := p.Tick(context.Background()); got != TickPublished {
		t.Fatalf("Tick() = %v, want published", got)
	}
	if p.Status().Cursor.LastSeenBanID != "b1" {
		t.Error("cursor should advance even when the journal fails")
	}
}

func TestTickOlderBanResurfacing(t *testing.T) {
	b1 := banAt("b1", t0.Add(time.Second))
	b2 := banAt("b2", t0.Add(2*time.Second))
	feed := &fakeFeed{results: []feedResult{{ban: b1}, {ban: b2}, {ban: b1}}}
	pub := &fakePublisher{}
	p := newTestPoller(feed, pub, nil)

	for i := 0; i < 3; i++ {
		p.Tick(context.Background())
	}
	if diff := cmp.Diff([]string{"b1", "b2"}, pub.published); diff != "" {
		t.Errorf("published mismatch (-want +got):\n%s", diff)
	}
}

func TestRunWaitsAndCoolsDown(t *testing.T) {
	feed := &fakeFeed{results: []feedResult{
		{err: errors.New("timeout")},
		{ban: nil},
	}}
	p := newTestPoller(feed, &fakePublisher{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	var sleeps []time.Duration
	p.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		if len(sleeps) == 4 {
			cancel()
			return ctx.Err()
		}
		return nil
	}

	p.Run(ctx)

	want := []time.Duration{time.Second, 10 * time.Second, time.Second, 5 * time.Second}
	if diff := cmp.Diff(want, sleeps); diff != "" {
		t.Errorf("sleeps mismatch (-want +got):\n%s", diff)
	}
	if feed.calls != 2 {
		t.Errorf("feed calls = %d, want 2", feed.calls)
	}
}

func TestNewBanPollerDefaults(t *testing.T) {
	p := NewBanPoller(&fakeFeed{}, &fakePublisher{}, nil, model.PollConfig{})
	if p.cfg.Interval != 5*time.Second || p.cfg.FetchTimeout != 10*time.Second {
		t.Errorf("cfg = %+v", p.cfg)
	}
	if p.Status().Cursor.Watermark.IsZero() {
		t.Error("watermark should be set at construction")
	}
}
