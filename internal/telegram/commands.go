package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From.ID != b.cfg.ReviewerID {
		b.reply(msg.Chat.ID, "You are not allowed to do that.")
		return
	}

	switch msg.Command() {
	case "start":
		b.commandStart(msg)
	case "help":
		b.commandHelp(msg)
	case "status":
		b.commandStatus(ctx, msg)
	case "files":
		b.commandFiles(ctx, msg)
	}
}

func (b *Bot) commandStart(msg *tgbotapi.Message) {
	b.reply(msg.Chat.ID, fmt.Sprintf(
		"👋 Hi, <b>%s</b>!\n\n"+
			"I relay files posted to the channel for your review.\n\n"+
			"/status — storage statistics\n"+
			"/files — recent uploads\n"+
			"/help — how the workflow works\n\n"+
			"When a file is posted to the channel I will send you an approval request.",
		escape(msg.From.FirstName),
	))
}

func (b *Bot) commandHelp(msg *tgbotapi.Message) {
	b.reply(msg.Chat.ID,
		"<b>How it works</b>\n\n"+
			"1. A document or photo is posted to the channel\n"+
			"2. I send you an approval request with ✅ / ❌ buttons\n"+
			"3. On ✅ you reply with a display name for the file\n"+
			"4. The file lands in object storage under that name\n\n"+
			"A name without an extension inherits the original one. "+
			"You have 10 minutes to reply before the approval expires.")
}

func (b *Bot) commandStatus(ctx context.Context, msg *tgbotapi.Message) {
	pendingCount := b.registry.Len()

	stats, err := b.uploads.Stats(ctx)
	if err != nil {
		b.log.Error().Err(err).Msg("stats query failed")
		b.reply(msg.Chat.ID, "Failed to read storage statistics.")
		return
	}

	b.reply(msg.Chat.ID, fmt.Sprintf(
		"📊 <b>Storage status</b>\n\n"+
			"Pending review: <b>%d</b>\n"+
			"Uploaded files: <b>%d</b> (📷 %d / 📄 %d)\n"+
			"Total size: <b>%.2f MiB</b>",
		pendingCount, stats.TotalFiles, stats.Photos, stats.Documents,
		float64(stats.TotalBytes)/(1<<20),
	))
}

func (b *Bot) commandFiles(ctx context.Context, msg *tgbotapi.Message) {
	records, err := b.uploads.ListRecent(ctx, 10)
	if err != nil {
		b.log.Error().Err(err).Msg("list uploads failed")
		b.reply(msg.Chat.ID, "Failed to list uploads.")
		return
	}
	if len(records) == 0 {
		b.reply(msg.Chat.ID, "📂 No files uploaded yet.")
		return
	}

	var sb strings.Builder
	sb.WriteString("📂 <b>Recent uploads</b>\n\n")
	for i, rec := range records {
		fmt.Fprintf(&sb, "%d. %s <code>%s</code> (%.1f KiB)\n",
			i+1, kindEmoji(rec.Kind), escape(rec.FileName), float64(rec.SizeBytes)/(1<<10))
	}
	b.reply(msg.Chat.ID, sb.String())
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, _ = b.send(msg)
}
