package intake

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"mediarelay/internal/config"
	"mediarelay/internal/models"
)

// Post is a normalized source-channel post, stripped of transport details.
type Post struct {
	Kind      models.MediaKind
	SourceRef string
	Name      string
	MimeType  string
	SizeBytes int64
	Caption   string
	PostID    int
}

// Deduper answers whether a post id is seen for the first time. Used to keep
// redelivered updates from producing duplicate candidates.
type Deduper interface {
	FirstSeen(ctx context.Context, key string) bool
}

// Filter decides whether a post is eligible for the approval workflow.
// Ineligible posts are dropped silently; the log is the only side effect.
type Filter struct {
	cfg     config.IntakeConfig
	dedup   Deduper
	log     zerolog.Logger
	allowed map[string]struct{}
}

func NewFilter(cfg config.IntakeConfig, dedup Deduper, log zerolog.Logger) *Filter {
	allowed := make(map[string]struct{}, len(cfg.AllowedDocumentTypes))
	for _, mime := range cfg.AllowedDocumentTypes {
		mime = strings.ToLower(strings.TrimSpace(mime))
		if mime != "" {
			allowed[mime] = struct{}{}
		}
	}
	return &Filter{
		cfg:     cfg,
		dedup:   dedup,
		log:     log,
		allowed: allowed,
	}
}

// Admit classifies the post. It returns the candidate to register and true on
// admit, or a zero candidate and false on drop.
func (f *Filter) Admit(ctx context.Context, post Post) (models.FileCandidate, bool) {
	if f.dedup != nil && !f.dedup.FirstSeen(ctx, fmt.Sprintf("intake:%d", post.PostID)) {
		f.log.Debug().Int("post_id", post.PostID).Msg("duplicate post delivery dropped")
		return models.FileCandidate{}, false
	}

	switch post.Kind {
	case models.KindDocument:
		mime := strings.ToLower(post.MimeType)
		if _, ok := f.allowed[mime]; !ok {
			f.log.Warn().
				Str("mime", post.MimeType).
				Str("name", post.Name).
				Msg("document type not allowed")
			return models.FileCandidate{}, false
		}
		if post.SizeBytes > f.cfg.MaxDocumentBytes {
			f.log.Warn().
				Int64("size", post.SizeBytes).
				Str("name", post.Name).
				Msg("document too large")
			return models.FileCandidate{}, false
		}
	case models.KindPhoto:
		if post.SizeBytes > f.cfg.MaxImageBytes {
			f.log.Warn().
				Int64("size", post.SizeBytes).
				Int("post_id", post.PostID).
				Msg("photo too large")
			return models.FileCandidate{}, false
		}
	default:
		f.log.Debug().Int("post_id", post.PostID).Msg("post carries no supported media")
		return models.FileCandidate{}, false
	}

	name := post.Name
	mime := post.MimeType
	if post.Kind == models.KindPhoto {
		// Photos arrive without a filename; synthesize one from the post id.
		if name == "" {
			name = fmt.Sprintf("photo_%d.jpg", post.PostID)
		}
		if mime == "" {
			mime = "image/jpeg"
		}
	}

	return models.FileCandidate{
		SourceRef:    post.SourceRef,
		Kind:         post.Kind,
		OriginalName: name,
		MimeType:     mime,
		SizeBytes:    post.SizeBytes,
		Caption:      post.Caption,
		PostID:       post.PostID,
		Status:       models.StatusAwaitingReview,
	}, true
}
