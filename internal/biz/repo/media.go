package repo

import (
	"context"

	"github.com/devricklin/feishu-media-bridge/internal/biz/domain"
)

// ContentRepo is the binary content store
type ContentRepo interface {
	// SaveContent persists the bytes and fills in ID, Size and SHA256
	SaveContent(ctx context.Context, content *domain.BinaryContent) error
	GetContent(ctx context.Context, id string) (*domain.BinaryContent, error)
}

// MediaRepo stores typed media metadata records
type MediaRepo interface {
	SaveMedia(ctx context.Context, media *domain.Media) error
	FindMedia(ctx context.Context, kind domain.MediaKind, id int64) (*domain.Media, error)

	// FindBySourceEvent returns the record created from a platform message,
	// or domain.ErrNotFound
	FindBySourceEvent(ctx context.Context, sourceEventID string) (*domain.Media, error)
}

// Obfuscator maps record ids to opaque external tokens and back
type Obfuscator interface {
	Encode(id int64) (string, error)
	Decode(token string) (int64, bool)
}
