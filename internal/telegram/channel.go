package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"mediarelay/internal/intake"
	"mediarelay/internal/models"
)

func (b *Bot) handleChannelPost(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat == nil || msg.Chat.ID != b.cfg.ChannelID {
		return
	}

	post, ok := postFromMessage(msg)
	if !ok {
		return
	}

	candidate, ok := b.filter.Admit(ctx, post)
	if !ok {
		return
	}

	handle := b.registry.Insert(candidate)
	b.log.Info().
		Str("handle", handle).
		Str("name", candidate.OriginalName).
		Str("kind", string(candidate.Kind)).
		Int64("size", candidate.SizeBytes).
		Msg("candidate registered")

	b.sendApprovalPrompt(handle)
}

func postFromMessage(msg *tgbotapi.Message) (intake.Post, bool) {
	switch {
	case msg.Document != nil:
		return intake.Post{
			Kind:      models.KindDocument,
			SourceRef: msg.Document.FileID,
			Name:      msg.Document.FileName,
			MimeType:  msg.Document.MimeType,
			SizeBytes: int64(msg.Document.FileSize),
			Caption:   msg.Caption,
			PostID:    msg.MessageID,
		}, true
	case len(msg.Photo) > 0:
		// Telegram lists photo variants smallest first.
		photo := msg.Photo[len(msg.Photo)-1]
		return intake.Post{
			Kind:      models.KindPhoto,
			SourceRef: photo.FileID,
			SizeBytes: int64(photo.FileSize),
			Caption:   msg.Caption,
			PostID:    msg.MessageID,
		}, true
	default:
		return intake.Post{}, false
	}
}

func (b *Bot) sendApprovalPrompt(handle string) {
	candidate, ok := b.registry.Get(handle)
	if !ok {
		return
	}

	msg := tgbotapi.NewMessage(b.cfg.ReviewerID, approvalPromptText(candidate))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = approvalKeyboard(handle)

	sent, err := b.send(msg)
	if err != nil {
		return
	}
	b.registry.SetPromptMessage(handle, sent.MessageID)
}

func approvalPromptText(c models.FileCandidate) string {
	text := fmt.Sprintf(
		"%s <b>New file for upload</b>\n\n"+
			"Name: <code>%s</code>\n"+
			"Size: <code>%.1f MiB</code>\n"+
			"Type: <code>%s</code>\n",
		kindEmoji(c.Kind), escape(c.OriginalName), float64(c.SizeBytes)/(1<<20), c.Kind,
	)
	if c.Caption != "" {
		text += fmt.Sprintf("Caption: <code>%s</code>\n", escape(c.Caption))
	}
	return text + "\nUpload to storage?"
}

func approvalKeyboard(handle string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Upload", "approve:"+handle),
			tgbotapi.NewInlineKeyboardButtonData("❌ Reject", "reject:"+handle),
		),
	)
}

func kindEmoji(kind models.MediaKind) string {
	if kind == models.KindPhoto {
		return "📷"
	}
	return "📄"
}
