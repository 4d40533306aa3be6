package wiki

import (
	"context"
	"log/slog"
	"strings"
)

// IsDefaultSkin reports whether a file title names a default skin. The match
// is a case-insensitive substring test for both "default" and "skin".
func IsDefaultSkin(title string) bool {
	t := strings.ToLower(title)
	return strings.Contains(t, "default") && strings.Contains(t, "skin")
}

// Resolver turns a character name into the direct URL of its default skin.
type Resolver struct {
	client *Client
	logger *slog.Logger
}

// NewResolver creates a Resolver. A nil logger discards output.
func NewResolver(client *Client, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Resolver{client: client, logger: logger}
}

// Resolve returns the default-skin URL for name, or ErrNotFound when the page
// has no matching file. The first matching title in listing order wins; the
// API does not guarantee that order is stable.
func (r *Resolver) Resolve(ctx context.Context, name string) (string, error) {
	list, err := r.client.ListImages(ctx, name)
	if err != nil {
		return "", err
	}
	if list.Incomplete {
		r.logger.Warn("image listing truncated, continuation not followed",
			"entity", name, "listed", len(list.Titles))
	}
	if len(list.Titles) == 0 {
		return "", ErrNotFound
	}

	for _, title := range list.Titles {
		if !IsDefaultSkin(title) {
			continue
		}
		r.logger.Debug("default skin selected", "entity", name, "file", title)
		return r.client.ImageURL(ctx, title)
	}
	return "", ErrNotFound
}
