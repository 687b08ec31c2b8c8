package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devricklin/feishu-media-bridge/internal/biz/domain"
)

type uploadFixture struct {
	users      *mockUserRepo
	downloader *mockDownloader
	contents   *mockContentRepo
	media      *mockMediaRepo
	converter  *mockConverter
	uc         *UploadUsecase
}

func newUploadFixture(active bool, state domain.RegistrationState) *uploadFixture {
	f := &uploadFixture{
		users:      newMockUserRepo(),
		downloader: &mockDownloader{files: map[string][]byte{"file_1": []byte("payload")}},
		contents:   newMockContentRepo(),
		media:      newMockMediaRepo(),
		converter:  &mockConverter{},
	}
	seedUser(f.users, state, active, "a@b.com")

	registration := newRegistration(f.users, &mockMail{})
	acquisition := NewAcquisitionUsecase(f.downloader, f.contents, f.media, mockTokens{}, "http://rest.local", discardLogger())
	f.uc = NewUploadUsecase(registration, acquisition, f.converter, DefaultReplies, discardLogger())
	return f
}

func docEvent(caption string) *domain.Event {
	return &domain.Event{
		EventID:  "om_9",
		ChatID:   "oc_1",
		UserID:   "ou_1",
		Caption:  caption,
		Document: &domain.FileRef{MessageID: "om_9", FileKey: "file_1", FileName: "report.docx"},
	}
}

func TestHandleUpload_StoresAndLinks(t *testing.T) {
	f := newUploadFixture(true, domain.StateBasic)

	answers, err := f.uc.HandleUpload(context.Background(), domain.MediaDocument, docEvent(""))
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, domain.AnswerText, answers[0].Type)
	assert.Equal(t, fmt.Sprintf(DefaultReplies.DocumentSaved, "http://rest.local/file/get-doc?id=tok-1"), answers[0].Text)

	stored := f.media.media[domain.MediaDocument][1]
	require.NotNil(t, stored)
	assert.Equal(t, "report.docx", stored.FileName)
	assert.Equal(t, "om_9", stored.SourceEventID)
	assert.Equal(t, "file_1", stored.PlatformFileID)
	assert.EqualValues(t, 7, stored.Size)
	assert.Equal(t, []byte("payload"), f.contents.contents[stored.ContentID].Data)
}

func TestHandleUpload_GateDeniesBeforeDownload(t *testing.T) {
	f := newUploadFixture(false, domain.StateEmailConfirmed)

	answers, err := f.uc.HandleUpload(context.Background(), domain.MediaDocument, docEvent(""))
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, DefaultReplies.Inactive, answers[0].Text)
	assert.Zero(t, f.downloader.calls)
	assert.Zero(t, f.media.count())
}

func TestHandleUpload_DownloadFailureCreatesNothing(t *testing.T) {
	f := newUploadFixture(true, domain.StateBasic)
	ev := docEvent("")
	ev.Document.FileKey = "missing"

	answers, err := f.uc.HandleUpload(context.Background(), domain.MediaDocument, ev)
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, DefaultReplies.DownloadFailed, answers[0].Text)
	assert.Empty(t, f.contents.contents)
	assert.Zero(t, f.media.count())
}

func TestHandleUpload_PersistenceErrorPropagates(t *testing.T) {
	f := newUploadFixture(true, domain.StateBasic)
	f.contents.err = errors.New("disk full")

	_, err := f.uc.HandleUpload(context.Background(), domain.MediaDocument, docEvent(""))
	assert.Error(t, err)
}

func TestHandleUpload_ConvertCaption(t *testing.T) {
	f := newUploadFixture(true, domain.StateBasic)
	f.converter.result = &domain.ConversionResult{FileName: "report.pdf", MimeType: "application/pdf", Data: []byte("%PDF")}

	answers, err := f.uc.HandleUpload(context.Background(), domain.MediaDocument, docEvent("/convert PDF"))
	require.NoError(t, err)
	require.Len(t, answers, 2)

	require.Len(t, f.converter.requests, 1)
	req := f.converter.requests[0]
	assert.Equal(t, domain.ConvertDocument, req.Kind)
	assert.Equal(t, "pdf", req.Format)
	assert.Equal(t, "report.docx", req.FileName)
	assert.Equal(t, []byte("payload"), req.Data)

	assert.Equal(t, domain.AnswerDocument, answers[1].Type)
	assert.Equal(t, "report.pdf", answers[1].FileName)
	assert.Equal(t, []byte("%PDF"), answers[1].Data)
	assert.Equal(t, fmt.Sprintf(DefaultReplies.ConversionDone, "pdf"), answers[1].Caption)
}

func TestHandleUpload_ConvertErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"format", domain.ErrUnsupportedFormat, fmt.Sprintf(DefaultReplies.ConversionFormat, "pdf, docx, odt, txt")},
		{"size", domain.ErrFileTooLarge, DefaultReplies.ConversionTooLarge},
		{"engine", domain.ErrEngineFailed, DefaultReplies.ConversionFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newUploadFixture(true, domain.StateBasic)
			f.converter.err = tt.err

			answers, err := f.uc.HandleUpload(context.Background(), domain.MediaDocument, docEvent("/convert xyz"))
			require.NoError(t, err)
			require.Len(t, answers, 2)
			assert.Equal(t, tt.want, answers[1].Text)
		})
	}
}

func TestHandleUpload_PhotoIsNotConvertible(t *testing.T) {
	f := newUploadFixture(true, domain.StateBasic)
	ev := &domain.Event{
		EventID: "om_2",
		ChatID:  "oc_1",
		UserID:  "ou_1",
		Caption: "/convert png",
		Photos: []domain.FileRef{
			{MessageID: "om_2", FileKey: "small", Size: 10},
			{MessageID: "om_2", FileKey: "file_1", Size: 100},
		},
	}

	answers, err := f.uc.HandleUpload(context.Background(), domain.MediaPhoto, ev)
	require.NoError(t, err)
	require.Len(t, answers, 2)
	assert.Equal(t, fmt.Sprintf(DefaultReplies.PhotoSaved, "http://rest.local/file/get-photo?id=tok-1"), answers[0].Text)
	assert.Equal(t, DefaultReplies.ConversionNotForKind, answers[1].Text)
	assert.Empty(t, f.converter.requests)

	// the largest variant was downloaded
	assert.Equal(t, "file_1", f.media.media[domain.MediaPhoto][1].PlatformFileID)
}

func convertReply(parentID, text string) *domain.Event {
	return &domain.Event{EventID: "om_10", ChatID: "oc_1", UserID: "ou_1", Text: text, ParentID: parentID}
}

func TestHandleConvertReply_ConvertsStoredFile(t *testing.T) {
	f := newUploadFixture(true, domain.StateBasic)
	f.converter.result = &domain.ConversionResult{FileName: "report.odt", Data: []byte("odt")}
	ctx := context.Background()

	_, err := f.uc.HandleUpload(ctx, domain.MediaDocument, docEvent(""))
	require.NoError(t, err)
	require.Empty(t, f.converter.requests)

	answers, err := f.uc.HandleConvertReply(ctx, convertReply("om_9", "/convert odt"))
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, domain.AnswerDocument, answers[0].Type)
	assert.Equal(t, "report.odt", answers[0].FileName)

	require.Len(t, f.converter.requests, 1)
	req := f.converter.requests[0]
	assert.Equal(t, domain.ConvertDocument, req.Kind)
	assert.Equal(t, "odt", req.Format)
	assert.Equal(t, "report.docx", req.FileName)
	assert.Equal(t, []byte("payload"), req.Data)
}

func TestHandleConvertReply_Denied(t *testing.T) {
	tests := []struct {
		name   string
		active bool
		state  domain.RegistrationState
		parent string
		text   string
		want   string
	}{
		{"inactive", false, domain.StateBasic, "om_9", "/convert pdf", DefaultReplies.Inactive},
		{"confirmed before cancel", true, domain.StateEmailConfirmed, "om_9", "/convert pdf", DefaultReplies.CommandInProgress},
		{"not a stored file", true, domain.StateBasic, "om_other", "/convert pdf", DefaultReplies.ConvertNoSource},
		{"missing format", true, domain.StateBasic, "om_9", "/convert", DefaultReplies.ConvertUsage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newUploadFixture(tt.active, tt.state)
			answers, err := f.uc.HandleConvertReply(context.Background(), convertReply(tt.parent, tt.text))
			require.NoError(t, err)
			require.Len(t, answers, 1)
			assert.Equal(t, tt.want, answers[0].Text)
			assert.Empty(t, f.converter.requests)
		})
	}
}

func TestIsConvertReply(t *testing.T) {
	assert.True(t, IsConvertReply(convertReply("om_9", "/convert pdf")))
	assert.True(t, IsConvertReply(convertReply("om_9", "/Convert@bot pdf")))
	assert.False(t, IsConvertReply(convertReply("", "/convert pdf")))
	assert.False(t, IsConvertReply(convertReply("om_9", "thanks")))
}

func TestConvertTarget(t *testing.T) {
	format, ok := ConvertTarget("/convert .MP3")
	assert.True(t, ok)
	assert.Equal(t, "mp3", format)

	_, ok = ConvertTarget("/convert")
	assert.False(t, ok)
	_, ok = ConvertTarget("convert mp3")
	assert.False(t, ok)
	_, ok = ConvertTarget("")
	assert.False(t, ok)
}
