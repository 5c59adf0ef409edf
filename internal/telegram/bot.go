// Package telegram adapts the Bot API to the approval workflow: it feeds
// channel posts into intake, relays reviewer button presses and text replies
// to the state machine, and renders every outcome back as reviewer messages.
package telegram

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"mediarelay/internal/approval"
	"mediarelay/internal/config"
	"mediarelay/internal/intake"
	"mediarelay/internal/models"
	"mediarelay/internal/pending"
	"mediarelay/internal/repository"
)

// machineAPI is the slice of the approval machine the adapter drives.
type machineAPI interface {
	Approve(reviewerID int64, handle string) (models.FileCandidate, error)
	Reject(reviewerID int64, handle string) (models.FileCandidate, error)
	SubmitName(ctx context.Context, reviewerID int64, name string) (approval.SubmitResult, error)
}

type Bot struct {
	api      *tgbotapi.BotAPI
	cfg      config.TelegramConfig
	registry *pending.Registry
	filter   *intake.Filter
	machine  machineAPI
	uploads  *repository.UploadRepository
	log      zerolog.Logger
}

// Connect authenticates against the Bot API. Kept separate from New so the
// caller can build the feed and the approval machine around the same client.
func Connect(cfg config.TelegramConfig) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	return api, nil
}

func New(
	api *tgbotapi.BotAPI,
	cfg config.TelegramConfig,
	registry *pending.Registry,
	filter *intake.Filter,
	machine machineAPI,
	uploads *repository.UploadRepository,
	log zerolog.Logger,
) *Bot {
	return &Bot{
		api:      api,
		cfg:      cfg,
		registry: registry,
		filter:   filter,
		machine:  machine,
		uploads:  uploads,
		log:      log,
	}
}

func (b *Bot) Username() string {
	return b.api.Self.UserName
}

// Start runs the long-poll loop until the context is cancelled. Each update
// is handled in its own goroutine so a slow download or upload on one handle
// never blocks actions on another.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = int(b.cfg.PollTimeout / time.Second)

	updates := b.api.GetUpdatesChan(updateConfig)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().Interface("error", r).Msg("panic in update handler")
		}
	}()

	switch {
	case update.ChannelPost != nil:
		b.handleChannelPost(ctx, update.ChannelPost)
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg, err := b.api.Send(c)
	if err != nil {
		b.log.Error().Err(err).Msg("telegram send failed")
	}
	return msg, err
}

// NotifyReviewer sends a plain text message to the reviewer. Used by startup
// and by the daily digest job.
func (b *Bot) NotifyReviewer(text string) error {
	msg := tgbotapi.NewMessage(b.cfg.ReviewerID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := b.send(msg)
	return err
}
