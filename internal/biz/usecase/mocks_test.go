package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/devricklin/feishu-media-bridge/internal/biz/domain"
	"github.com/devricklin/feishu-media-bridge/internal/biz/repo"
)

// Mock implementations

type mockUserRepo struct {
	users  map[int64]*domain.User
	nextID int64
	err    error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[int64]*domain.User)}
}

func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	if u, ok := m.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockUserRepo) FindByPlatformID(ctx context.Context, platformUserID string) (*domain.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.users {
		if u.PlatformUserID == platformUserID {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockUserRepo) Save(ctx context.Context, user *domain.User) error {
	if m.err != nil {
		return m.err
	}
	if user.ID == 0 {
		m.nextID++
		user.ID = m.nextID
	}
	clone := *user
	m.users[user.ID] = &clone
	return nil
}

func (m *mockUserRepo) byPlatformID(platformUserID string) *domain.User {
	u, _ := m.FindByPlatformID(context.Background(), platformUserID)
	return u
}

type sentMail struct {
	email string
	link  string
}

type mockMail struct {
	sent []sentMail
	err  error
}

func (m *mockMail) SendActivation(ctx context.Context, email, link string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{email: email, link: link})
	return nil
}

// mockTokens encodes ids as "tok-<id>"
type mockTokens struct{}

func (mockTokens) Encode(id int64) (string, error) {
	if id < 0 {
		return "", errors.New("negative id")
	}
	return "tok-" + strconv.FormatInt(id, 10), nil
}

func (mockTokens) Decode(token string) (int64, bool) {
	if !strings.HasPrefix(token, "tok-") {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(token, "tok-"), 10, 64)
	return id, err == nil
}

type mockDownloader struct {
	files map[string][]byte // by file key
	calls int
}

func (m *mockDownloader) Download(ctx context.Context, ref domain.FileRef, kind domain.MediaKind) (*repo.Download, error) {
	m.calls++
	data, ok := m.files[ref.FileKey]
	if !ok {
		return nil, domain.ErrDownload
	}
	return &repo.Download{FileName: "platform-" + ref.FileKey, Data: data}, nil
}

type mockContentRepo struct {
	contents map[string]*domain.BinaryContent
	err      error
}

func newMockContentRepo() *mockContentRepo {
	return &mockContentRepo{contents: make(map[string]*domain.BinaryContent)}
}

func (m *mockContentRepo) SaveContent(ctx context.Context, content *domain.BinaryContent) error {
	if m.err != nil {
		return m.err
	}
	content.ID = "content-" + strconv.Itoa(len(m.contents)+1)
	content.Size = int64(len(content.Data))
	m.contents[content.ID] = content
	return nil
}

func (m *mockContentRepo) GetContent(ctx context.Context, id string) (*domain.BinaryContent, error) {
	if c, ok := m.contents[id]; ok {
		return c, nil
	}
	return nil, domain.ErrNotFound
}

type mockMediaRepo struct {
	media  map[domain.MediaKind]map[int64]*domain.Media
	nextID int64
	finds  int
}

func newMockMediaRepo() *mockMediaRepo {
	return &mockMediaRepo{media: make(map[domain.MediaKind]map[int64]*domain.Media)}
}

func (m *mockMediaRepo) SaveMedia(ctx context.Context, media *domain.Media) error {
	m.nextID++
	media.ID = m.nextID
	if m.media[media.Kind] == nil {
		m.media[media.Kind] = make(map[int64]*domain.Media)
	}
	m.media[media.Kind][media.ID] = media
	return nil
}

func (m *mockMediaRepo) FindMedia(ctx context.Context, kind domain.MediaKind, id int64) (*domain.Media, error) {
	m.finds++
	if media, ok := m.media[kind][id]; ok {
		return media, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockMediaRepo) FindBySourceEvent(ctx context.Context, sourceEventID string) (*domain.Media, error) {
	for _, byID := range m.media {
		for _, media := range byID {
			if media.SourceEventID == sourceEventID {
				return media, nil
			}
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockMediaRepo) count() int {
	n := 0
	for _, byID := range m.media {
		n += len(byID)
	}
	return n
}

type mockConverter struct {
	requests []*repo.ConversionRequest
	result   *domain.ConversionResult
	err      error
}

func (m *mockConverter) Convert(ctx context.Context, req *repo.ConversionRequest) (*domain.ConversionResult, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// stubEngine counts invocations and fakes engine output by writing outName
// (relative to the directory of the output argument)
type stubEngine struct {
	calls   int
	lastCmd string
	args    []string
	output  []byte
	outName  string // "" writes the conventional output path
	noOutput bool
	err      error
}

func (s *stubEngine) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	s.calls++
	s.lastCmd = name
	s.args = args
	if s.err != nil {
		return []byte("engine exploded"), s.err
	}

	if s.noOutput {
		return nil, nil
	}

	var out string
	if name == "soffice" {
		// soffice ... --outdir <dir> <in>
		outDir := args[len(args)-2]
		in := args[len(args)-1]
		format := strings.SplitN(args[2], ":", 2)[0]
		out = filepath.Join(outDir, domain.BaseName(in)+"."+format)
		if s.outName != "" {
			out = filepath.Join(outDir, s.outName)
		}
	} else {
		out = args[len(args)-1]
	}
	return nil, os.WriteFile(out, s.output, 0600)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
