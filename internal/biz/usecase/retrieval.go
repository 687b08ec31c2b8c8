package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/devricklin/feishu-media-bridge/internal/biz/domain"
	"github.com/devricklin/feishu-media-bridge/internal/biz/repo"
)

// RetrievalUsecase resolves retrieval tokens to stored files.
// Metadata records are immutable, so they are cached per instance; bytes are not.
type RetrievalUsecase struct {
	media    repo.MediaRepo
	contents repo.ContentRepo
	tokens   repo.Obfuscator
	cache    *expirable.LRU[string, *domain.Media]
	logger   *slog.Logger
}

// NewRetrievalUsecase creates a new retrieval usecase with a metadata cache of
// cacheSize entries living for ttl
func NewRetrievalUsecase(
	media repo.MediaRepo,
	contents repo.ContentRepo,
	tokens repo.Obfuscator,
	cacheSize int,
	ttl time.Duration,
	logger *slog.Logger,
) *RetrievalUsecase {
	return &RetrievalUsecase{
		media:    media,
		contents: contents,
		tokens:   tokens,
		cache:    expirable.NewLRU[string, *domain.Media](cacheSize, nil, ttl),
		logger:   logger.With(slog.String("component", "retrieval")),
	}
}

// Retrieve returns the record and bytes behind token.
// An undecodable token yields domain.ErrInvalidToken, a missing record domain.ErrNotFound.
func (uc *RetrievalUsecase) Retrieve(ctx context.Context, kind domain.MediaKind, token string) (*domain.Media, []byte, error) {
	id, ok := uc.tokens.Decode(token)
	if !ok {
		return nil, nil, domain.ErrInvalidToken
	}

	m, err := uc.findMedia(ctx, kind, id)
	if err != nil {
		return nil, nil, err
	}

	content, err := uc.contents.GetContent(ctx, m.ContentID)
	if err != nil {
		return nil, nil, fmt.Errorf("get content of %s %d: %w", kind, id, err)
	}
	return m, content.Data, nil
}

func (uc *RetrievalUsecase) findMedia(ctx context.Context, kind domain.MediaKind, id int64) (*domain.Media, error) {
	key := string(kind) + ":" + strconv.FormatInt(id, 10)
	if m, ok := uc.cache.Get(key); ok {
		return m, nil
	}

	m, err := uc.media.FindMedia(ctx, kind, id)
	if err != nil {
		return nil, fmt.Errorf("find %s %d: %w", kind, id, err)
	}
	uc.cache.Add(key, m)
	return m, nil
}
