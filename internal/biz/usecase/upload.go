package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/devricklin/feishu-media-bridge/internal/biz/domain"
	"github.com/devricklin/feishu-media-bridge/internal/biz/repo"
)

// UploadUsecase handles an uploaded attachment end to end: the permission
// gate, acquisition, the link reply and an optional conversion.
type UploadUsecase struct {
	registration *RegistrationUsecase
	acquisition  *AcquisitionUsecase
	converter    repo.ConverterRepo
	replies      Replies
	logger       *slog.Logger
}

// NewUploadUsecase creates a new upload usecase
func NewUploadUsecase(
	registration *RegistrationUsecase,
	acquisition *AcquisitionUsecase,
	converter repo.ConverterRepo,
	replies Replies,
	logger *slog.Logger,
) *UploadUsecase {
	return &UploadUsecase{
		registration: registration,
		acquisition:  acquisition,
		converter:    converter,
		replies:      replies,
		logger:       logger.With(slog.String("component", "upload")),
	}
}

// HandleUpload processes one attachment event and returns the answers to send.
// Persistence faults are returned as errors; the caller apologizes generically.
func (uc *UploadUsecase) HandleUpload(ctx context.Context, kind domain.MediaKind, event *domain.Event) ([]*domain.Answer, error) {
	reply, err := uc.registration.CheckUpload(ctx, event)
	if err != nil {
		return nil, err
	}
	if reply != "" {
		return []*domain.Answer{domain.TextAnswer(event.ChatID, reply)}, nil
	}

	m, content, err := uc.acquisition.acquire(ctx, kind, event)
	if errors.Is(err, domain.ErrDownload) {
		return []*domain.Answer{domain.TextAnswer(event.ChatID, uc.replies.DownloadFailed)}, nil
	}
	if err != nil {
		return nil, err
	}

	link, err := uc.acquisition.Link(m)
	if err != nil {
		return nil, fmt.Errorf("build link: %w", err)
	}
	answers := []*domain.Answer{domain.TextAnswer(event.ChatID, fmt.Sprintf(uc.savedReply(kind), link))}

	if format, ok := ConvertTarget(event.Caption); ok {
		answers = append(answers, uc.convert(ctx, m, content, format, event.ChatID))
	}
	return answers, nil
}

// HandleConvertReply converts the stored file an event replies to, using the
// "/convert <format>" text of the reply. The upload gate applies.
func (uc *UploadUsecase) HandleConvertReply(ctx context.Context, event *domain.Event) ([]*domain.Answer, error) {
	format, ok := ConvertTarget(event.Text)
	if !ok {
		return []*domain.Answer{domain.TextAnswer(event.ChatID, uc.replies.ConvertUsage)}, nil
	}

	reply, err := uc.registration.CheckUpload(ctx, event)
	if err != nil {
		return nil, err
	}
	if reply != "" {
		return []*domain.Answer{domain.TextAnswer(event.ChatID, reply)}, nil
	}

	m, content, err := uc.acquisition.Stored(ctx, event.ParentID)
	if errors.Is(err, domain.ErrNotFound) {
		return []*domain.Answer{domain.TextAnswer(event.ChatID, uc.replies.ConvertNoSource)}, nil
	}
	if err != nil {
		return nil, err
	}
	return []*domain.Answer{uc.convert(ctx, m, content, format, event.ChatID)}, nil
}

// IsConvertReply reports whether event asks to convert the file it replies to
func IsConvertReply(event *domain.Event) bool {
	return event.ParentID != "" && commandWord(event.Text) == CmdConvert
}

func (uc *UploadUsecase) convert(ctx context.Context, m *domain.Media, content *domain.BinaryContent, format, chatID string) *domain.Answer {
	kind, ok := m.Kind.ConversionKind()
	if !ok {
		return domain.TextAnswer(chatID, uc.replies.ConversionNotForKind)
	}

	result, err := uc.converter.Convert(ctx, &repo.ConversionRequest{
		Kind:     kind,
		Format:   format,
		FileName: m.DisplayName(),
		Data:     content.Data,
	})
	switch {
	case errors.Is(err, domain.ErrUnsupportedFormat):
		return domain.TextAnswer(chatID, fmt.Sprintf(uc.replies.ConversionFormat, strings.Join(kind.SupportedFormats(), ", ")))
	case errors.Is(err, domain.ErrFileTooLarge):
		return domain.TextAnswer(chatID, uc.replies.ConversionTooLarge)
	case err != nil:
		uc.logger.ErrorContext(ctx, "conversion failed", "kind", kind, "format", format, "media_id", m.ID, "error", err)
		return domain.TextAnswer(chatID, uc.replies.ConversionFailed)
	}

	answerType := domain.AnswerDocument
	if kind == domain.ConvertAudio {
		answerType = domain.AnswerAudio
	}
	caption := fmt.Sprintf(uc.replies.ConversionDone, domain.NormalizeFormat(format))
	return domain.FileAnswer(answerType, chatID, result.FileName, result.Data, caption)
}

func (uc *UploadUsecase) savedReply(kind domain.MediaKind) string {
	switch kind {
	case domain.MediaPhoto:
		return uc.replies.PhotoSaved
	case domain.MediaAudio:
		return uc.replies.AudioSaved
	case domain.MediaVideo:
		return uc.replies.VideoSaved
	}
	return uc.replies.DocumentSaved
}

// ConvertTarget parses a "/convert <format>" caption
func ConvertTarget(caption string) (string, bool) {
	fields := strings.Fields(caption)
	if len(fields) != 2 || commandWord(fields[0]) != CmdConvert {
		return "", false
	}
	return domain.NormalizeFormat(fields[1]), true
}
