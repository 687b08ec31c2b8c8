package repo

import (
	"context"

	"github.com/devricklin/feishu-media-bridge/internal/biz/domain"
)

// EventHandler receives normalized inbound events
type EventHandler func(ctx context.Context, event *domain.Event)

// Download is a file fetched from the chat platform
type Download struct {
	FileName string
	Data     []byte
}

// ChatBinding is the narrow interface to the chat platform.
// Nothing outside internal/infra depends on a concrete binding type.
type ChatBinding interface {
	// Receive blocks, delivering events to handler until ctx is done
	Receive(ctx context.Context, handler EventHandler) error

	// Send performs one outbound command
	Send(ctx context.Context, cmd *domain.SendCommand) (*domain.SendResult, error)

	// Download fetches the bytes of a platform file.
	// A non-success platform response is reported as domain.ErrDownload.
	Download(ctx context.Context, ref domain.FileRef, kind domain.MediaKind) (*Download, error)
}
