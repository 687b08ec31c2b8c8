package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"

	"github.com/devricklin/feishu-media-bridge/internal/biz/domain"
	"github.com/devricklin/feishu-media-bridge/internal/biz/repo"
)

// Downloader fetches platform files. repo.ChatBinding satisfies it.
type Downloader interface {
	Download(ctx context.Context, ref domain.FileRef, kind domain.MediaKind) (*repo.Download, error)
}

// AcquisitionUsecase downloads uploaded files and persists them
type AcquisitionUsecase struct {
	downloader Downloader
	contents   repo.ContentRepo
	media      repo.MediaRepo
	tokens     repo.Obfuscator
	baseURL    string
	logger     *slog.Logger
}

// NewAcquisitionUsecase creates a new acquisition usecase
func NewAcquisitionUsecase(
	downloader Downloader,
	contents repo.ContentRepo,
	media repo.MediaRepo,
	tokens repo.Obfuscator,
	baseURL string,
	logger *slog.Logger,
) *AcquisitionUsecase {
	return &AcquisitionUsecase{
		downloader: downloader,
		contents:   contents,
		media:      media,
		tokens:     tokens,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger.With(slog.String("component", "acquisition")),
	}
}

// Acquire downloads the attachment of kind carried by event, stores its bytes
// and a typed metadata record, and returns the saved record.
// A failed download creates nothing.
func (uc *AcquisitionUsecase) Acquire(ctx context.Context, kind domain.MediaKind, event *domain.Event) (*domain.Media, error) {
	m, _, err := uc.acquire(ctx, kind, event)
	return m, err
}

func (uc *AcquisitionUsecase) acquire(ctx context.Context, kind domain.MediaKind, event *domain.Event) (*domain.Media, *domain.BinaryContent, error) {
	ref := fileRef(kind, event)
	if ref == nil {
		return nil, nil, fmt.Errorf("event %s carries no %s", event.EventID, kind)
	}

	download, err := uc.downloader.Download(ctx, *ref, kind)
	if err != nil {
		uc.logger.ErrorContext(ctx, "download failed",
			"kind", kind,
			"event_id", event.EventID,
			"file_key", ref.FileKey,
			"error", err,
		)
		return nil, nil, err
	}

	content := &domain.BinaryContent{Data: download.Data}
	if err := uc.contents.SaveContent(ctx, content); err != nil {
		return nil, nil, fmt.Errorf("save content: %w", err)
	}

	fileName := ref.FileName
	if fileName == "" {
		fileName = download.FileName
	}
	m := &domain.Media{
		Kind:           kind,
		PlatformFileID: ref.FileKey,
		ContentID:      content.ID,
		SourceEventID:  event.EventID,
		MimeType:       mimeType(kind, ref.MimeType, fileName),
		Size:           content.Size,
		FileName:       fileName,
		Duration:       ref.Duration,
		Width:          ref.Width,
		Height:         ref.Height,
	}
	if err := uc.media.SaveMedia(ctx, m); err != nil {
		return nil, nil, fmt.Errorf("save %s: %w", kind, err)
	}

	uc.logger.InfoContext(ctx, "media stored", "kind", kind, "id", m.ID, "bytes", m.Size)
	return m, content, nil
}

// Stored loads the record and bytes acquired from a platform message
func (uc *AcquisitionUsecase) Stored(ctx context.Context, sourceEventID string) (*domain.Media, *domain.BinaryContent, error) {
	m, err := uc.media.FindBySourceEvent(ctx, sourceEventID)
	if err != nil {
		return nil, nil, err
	}
	content, err := uc.contents.GetContent(ctx, m.ContentID)
	if err != nil {
		return nil, nil, fmt.Errorf("load content of %s %d: %w", m.Kind, m.ID, err)
	}
	return m, content, nil
}

// Link builds the public retrieval URL of a stored record
func (uc *AcquisitionUsecase) Link(m *domain.Media) (string, error) {
	token, err := uc.tokens.Encode(m.ID)
	if err != nil {
		return "", err
	}
	return uc.baseURL + m.Kind.RetrievalPath() + "?id=" + token, nil
}

func fileRef(kind domain.MediaKind, event *domain.Event) *domain.FileRef {
	switch kind {
	case domain.MediaDocument:
		return event.Document
	case domain.MediaPhoto:
		return event.LargestPhoto()
	case domain.MediaAudio:
		return event.Audio
	case domain.MediaVideo:
		return event.Video
	}
	return nil
}

// mimeType prefers the platform-reported type, then the file extension.
// Empty means the kind default applies at retrieval time.
func mimeType(kind domain.MediaKind, reported, fileName string) string {
	if reported != "" {
		return reported
	}
	if ext := filepath.Ext(fileName); ext != "" {
		if t := mime.TypeByExtension(ext); t != "" {
			return t
		}
	}
	return ""
}
