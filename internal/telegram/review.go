package telegram

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"mediarelay/internal/approval"
)

func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	action, handle, ok := parseCallbackData(query.Data)
	if !ok || query.From == nil {
		return
	}

	switch action {
	case "approve":
		b.handleApprove(query, handle)
	case "reject":
		b.handleReject(query, handle)
	}
}

func (b *Bot) handleApprove(query *tgbotapi.CallbackQuery, handle string) {
	candidate, err := b.machine.Approve(query.From.ID, handle)
	if err != nil {
		b.answerCallback(query.ID, approval.Describe(err))
		return
	}

	b.answerCallback(query.ID, "Approved")
	b.editPrompt(query, fmt.Sprintf(
		"✅ <b>Approved:</b> <code>%s</code>\n\n"+
			"Reply with a display name for the file, or send one with an "+
			"extension to override it.",
		escape(candidate.OriginalName),
	))
}

func (b *Bot) handleReject(query *tgbotapi.CallbackQuery, handle string) {
	candidate, err := b.machine.Reject(query.From.ID, handle)
	if err != nil {
		b.answerCallback(query.ID, approval.Describe(err))
		return
	}

	b.answerCallback(query.ID, "Rejected")
	b.editPrompt(query, fmt.Sprintf("❌ <b>Rejected:</b> <code>%s</code>", escape(candidate.OriginalName)))
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil || !msg.Chat.IsPrivate() {
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	if msg.From.ID != b.cfg.ReviewerID {
		b.log.Debug().Int64("from", msg.From.ID).Msg("ignoring text from non-reviewer")
		return
	}

	// Unrelated chatter while no rename is pending is a no-op.
	if _, ok := b.registry.SessionFor(msg.From.ID); !ok {
		return
	}

	b.handleNameSubmission(ctx, msg)
}

func (b *Bot) handleNameSubmission(ctx context.Context, msg *tgbotapi.Message) {
	progress, err := b.send(tgbotapi.NewMessage(msg.Chat.ID, "⏳ Uploading file to storage..."))
	if err != nil {
		return
	}

	result, err := b.machine.SubmitName(ctx, msg.From.ID, msg.Text)
	if err != nil {
		if errors.Is(err, approval.ErrNoSession) {
			b.editMessage(msg.Chat.ID, progress.MessageID, "No file is awaiting a name.")
			return
		}
		b.editMessage(msg.Chat.ID, progress.MessageID, escape(approval.Describe(err)))
		if result.Candidate.Handle != "" {
			// The candidate was reopened (timeout or upstream failure);
			// re-offer the original decision.
			b.sendApprovalPrompt(result.Candidate.Handle)
		}
		return
	}

	b.editMessage(msg.Chat.ID, progress.MessageID, fmt.Sprintf(
		"✅ <b>%s File uploaded</b>\n\n"+
			"Name: <code>%s</code>\n"+
			"URL:\n<code>%s</code>",
		kindEmoji(result.Candidate.Kind), escape(result.FinalName), escape(result.URL),
	))
}

func (b *Bot) answerCallback(callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		b.log.Error().Err(err).Msg("answer callback failed")
	}
}

func (b *Bot) editPrompt(query *tgbotapi.CallbackQuery, text string) {
	if query.Message == nil {
		return
	}
	b.editMessage(query.Message.Chat.ID, query.Message.MessageID, text)
}

func (b *Bot) editMessage(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Request(edit); err != nil {
		b.log.Error().Err(err).Msg("edit message failed")
	}
}

func parseCallbackData(data string) (action, handle string, ok bool) {
	action, handle, ok = strings.Cut(data, ":")
	if !ok || handle == "" {
		return "", "", false
	}
	return action, handle, true
}

func escape(s string) string {
	return html.EscapeString(s)
}
