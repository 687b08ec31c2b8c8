package data

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/devricklin/feishu-media-bridge/internal/biz/domain"
	"github.com/devricklin/feishu-media-bridge/internal/biz/repo"
)

// contentRepo implements the binary content store on a BLOB table
type contentRepo struct {
	db *sql.DB
}

// NewContentRepo creates a new binary content repository
func NewContentRepo(db *sql.DB) repo.ContentRepo {
	return &contentRepo{db: db}
}

// SaveContent stores the bytes under a fresh opaque id
func (r *contentRepo) SaveContent(ctx context.Context, content *domain.BinaryContent) error {
	sum := sha256.Sum256(content.Data)
	content.ID = uuid.NewString()
	content.Size = int64(len(content.Data))
	content.SHA256 = hex.EncodeToString(sum[:])
	content.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO binary_contents (id, data, size, sha256, created_at) VALUES (?, ?, ?, ?, ?)
	`, content.ID, content.Data, content.Size, content.SHA256, content.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to save binary content: %w", err)
	}
	return nil
}

// GetContent loads the bytes of a content id
func (r *contentRepo) GetContent(ctx context.Context, id string) (*domain.BinaryContent, error) {
	var content domain.BinaryContent
	var createdAt int64
	err := r.db.QueryRowContext(ctx, `
		SELECT id, data, size, sha256, created_at FROM binary_contents WHERE id = ?
	`, id).Scan(&content.ID, &content.Data, &content.Size, &content.SHA256, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query binary content: %w", err)
	}
	content.CreatedAt = time.Unix(createdAt, 0)
	return &content, nil
}

// mediaRepo stores typed media records, one table per kind
type mediaRepo struct {
	db *sql.DB
}

// lookup order of FindBySourceEvent
var mediaKinds = []domain.MediaKind{domain.MediaDocument, domain.MediaAudio, domain.MediaVideo, domain.MediaPhoto}

var mediaTables = map[domain.MediaKind]string{
	domain.MediaDocument: "documents",
	domain.MediaPhoto:    "photos",
	domain.MediaAudio:    "audios",
	domain.MediaVideo:    "videos",
}

// NewMediaRepo creates a new media metadata repository
func NewMediaRepo(db *sql.DB) repo.MediaRepo {
	return &mediaRepo{db: db}
}

func mediaTable(kind domain.MediaKind) (string, error) {
	table, ok := mediaTables[kind]
	if !ok {
		return "", fmt.Errorf("unknown media kind %q", kind)
	}
	return table, nil
}

// SaveMedia inserts a metadata record and assigns its id
func (r *mediaRepo) SaveMedia(ctx context.Context, m *domain.Media) error {
	table, err := mediaTable(m.Kind)
	if err != nil {
		return err
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO `+table+` (platform_file_id, content_id, source_event_id, mime_type, size, file_name, duration, width, height, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.PlatformFileID, m.ContentID, m.SourceEventID, m.MimeType, m.Size, m.FileName, m.Duration, m.Width, m.Height, m.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", m.Kind, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read %s id: %w", m.Kind, err)
	}
	m.ID = id
	return nil
}

// FindMedia gets a metadata record by kind and id
func (r *mediaRepo) FindMedia(ctx context.Context, kind domain.MediaKind, id int64) (*domain.Media, error) {
	table, err := mediaTable(kind)
	if err != nil {
		return nil, err
	}

	return r.queryMedia(ctx, kind, `
		SELECT `+mediaColumns+` FROM `+table+` WHERE id = ?
	`, id)
}

// FindBySourceEvent gets the record stored from a platform message id
func (r *mediaRepo) FindBySourceEvent(ctx context.Context, sourceEventID string) (*domain.Media, error) {
	if sourceEventID == "" {
		return nil, domain.ErrNotFound
	}
	for _, kind := range mediaKinds {
		m, err := r.queryMedia(ctx, kind, `
			SELECT `+mediaColumns+` FROM `+mediaTables[kind]+`
			WHERE source_event_id = ? ORDER BY id DESC LIMIT 1
		`, sourceEventID)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		return m, err
	}
	return nil, domain.ErrNotFound
}

const mediaColumns = "id, platform_file_id, content_id, source_event_id, mime_type, size, file_name, duration, width, height, created_at"

func (r *mediaRepo) queryMedia(ctx context.Context, kind domain.MediaKind, query string, args ...any) (*domain.Media, error) {
	m := domain.Media{Kind: kind}
	var createdAt int64
	err := r.db.QueryRowContext(ctx, query, args...).
		Scan(&m.ID, &m.PlatformFileID, &m.ContentID, &m.SourceEventID, &m.MimeType, &m.Size, &m.FileName, &m.Duration, &m.Width, &m.Height, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", kind, err)
	}
	m.CreatedAt = time.Unix(createdAt, 0)
	return &m, nil
}
