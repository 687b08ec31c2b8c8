package repo

import (
	"context"

	"github.com/devricklin/feishu-media-bridge/internal/biz/domain"
)

// ConversionRequest is a file to convert
type ConversionRequest struct {
	Kind     domain.ConversionKind
	Format   string
	FileName string
	Data     []byte
}

// ConverterRepo delegates conversions to the converter service
type ConverterRepo interface {
	Convert(ctx context.Context, req *ConversionRequest) (*domain.ConversionResult, error)
}

// Engine runs an external conversion program.
// It returns the combined stdout/stderr and a non-nil error on non-zero exit.
type Engine interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// MailRepo sends activation mail
type MailRepo interface {
	SendActivation(ctx context.Context, email, link string) error
}
