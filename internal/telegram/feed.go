package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const maxDownloadBytes = 64 << 20

// Feed downloads source files from Telegram's file servers. It implements the
// approval machine's Feed collaborator.
type Feed struct {
	api    *tgbotapi.BotAPI
	client *http.Client
}

func NewFeed(api *tgbotapi.BotAPI) *Feed {
	return &Feed{
		api:    api,
		client: &http.Client{Timeout: 2 * time.Minute},
	}
}

func (f *Feed) FetchBytes(ctx context.Context, sourceRef string) ([]byte, error) {
	url, err := f.api.GetFileDirectURL(sourceRef)
	if err != nil {
		return nil, fmt.Errorf("resolve file url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download: unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}
