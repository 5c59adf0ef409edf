package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"mediarelay/internal/pending"
	"mediarelay/internal/repository"
)

// Notifier delivers digest text to the reviewer.
type Notifier interface {
	NotifyReviewer(text string) error
}

// Scheduler posts a periodic storage digest to the reviewer.
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	uploads  *repository.UploadRepository
	registry *pending.Registry
	notifier Notifier
	log      zerolog.Logger
}

func NewScheduler(
	schedule string,
	uploads *repository.UploadRepository,
	registry *pending.Registry,
	notifier Notifier,
	log zerolog.Logger,
) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		schedule: schedule,
		uploads:  uploads,
		registry: registry,
		notifier: notifier,
		log:      log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.sendDigest); err != nil {
		return fmt.Errorf("register digest job: %w", err)
	}
	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) sendDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stats, err := s.uploads.Stats(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("digest stats query failed")
		return
	}

	text := fmt.Sprintf(
		"📊 <b>Daily digest</b>\n\n"+
			"Uploaded files: <b>%d</b> (📷 %d / 📄 %d)\n"+
			"Total size: <b>%.2f MiB</b>\n"+
			"Pending review: <b>%d</b>",
		stats.TotalFiles, stats.Photos, stats.Documents,
		float64(stats.TotalBytes)/(1<<20),
		s.registry.Len(),
	)

	if err := s.notifier.NotifyReviewer(text); err != nil {
		s.log.Error().Err(err).Msg("digest notify failed")
	}
}
