package bot

import (
	"context"
	"log"
	"sync"
	"time"
)

// Scheduler manages the background tasks: the ban poller and the daily
// audit journal prune.
type Scheduler struct {
	bot    *Bot
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// NewScheduler creates a new scheduler.
func NewScheduler(bot *Bot) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		bot:    bot,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins all scheduled tasks.
func (s *Scheduler) Start() {
	s.wg.Add(2)

	go func() {
		defer s.wg.Done()
		s.bot.Poller.Run(s.ctx)
	}()

	go s.startAuditPrune()
}

// Stop terminates all scheduled tasks gracefully.
func (s *Scheduler) Stop() {
	s.once.Do(func() {
		log.Println("Stopping scheduler...")
		s.cancel()
		s.wg.Wait()
		log.Println("Scheduler stopped.")
	})
}

func (s *Scheduler) startAuditPrune() {
	defer s.wg.Done()
	if s.bot.Journal == nil || s.bot.GetConfig().AuditRetention <= 0 {
		return
	}

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	s.pruneAudit()
	for {
		select {
		case <-ticker.C:
			s.pruneAudit()
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) pruneAudit() {
	retention := s.bot.GetConfig().AuditRetention
	ctx, cancel := context.WithTimeout(s.ctx, time.Minute)
	defer cancel()

	removed, err := s.bot.Journal.Prune(ctx, time.Now().Add(-retention))
	if err != nil {
		log.Printf("Error pruning audit journal: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("Pruned %d audit journal rows older than %s", removed, retention)
	}
}
