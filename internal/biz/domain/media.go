package domain

import "time"

// MediaKind is the type of a stored media record
type MediaKind string

const (
	MediaDocument MediaKind = "document"
	MediaPhoto    MediaKind = "photo"
	MediaAudio    MediaKind = "audio"
	MediaVideo    MediaKind = "video"
)

// DefaultMimeType is used when a record has no stored mime type
func (k MediaKind) DefaultMimeType() string {
	switch k {
	case MediaPhoto:
		return "image/jpeg"
	case MediaAudio:
		return "audio/mpeg"
	case MediaVideo:
		return "video/mp4"
	}
	return "application/octet-stream"
}

// DefaultFileName is used when a record has no stored file name
func (k MediaKind) DefaultFileName() string {
	switch k {
	case MediaPhoto:
		return "photo.jpg"
	case MediaAudio:
		return "audio.mp3"
	case MediaVideo:
		return "video.mp4"
	}
	return "document"
}

// ConversionKind maps a media kind to its conversion family
func (k MediaKind) ConversionKind() (ConversionKind, bool) {
	switch k {
	case MediaDocument:
		return ConvertDocument, true
	case MediaAudio:
		return ConvertAudio, true
	case MediaVideo:
		return ConvertVideo, true
	}
	return "", false
}

// RetrievalPath is the REST path serving records of this kind
func (k MediaKind) RetrievalPath() string {
	switch k {
	case MediaDocument:
		return "/file/get-doc"
	case MediaPhoto:
		return "/file/get-photo"
	case MediaAudio:
		return "/file/get-audio"
	case MediaVideo:
		return "/file/get-video"
	}
	return ""
}

// BinaryContent holds the raw bytes of an uploaded file
type BinaryContent struct {
	ID        string
	Data      []byte
	Size      int64
	SHA256    string
	CreatedAt time.Time
}

// Media is the typed metadata record of an uploaded file
type Media struct {
	ID             int64
	Kind           MediaKind
	PlatformFileID string
	ContentID      string
	SourceEventID  string
	MimeType       string
	Size           int64
	FileName       string
	Duration       int
	Width          int
	Height         int
	CreatedAt      time.Time
}

// ContentType returns the stored mime type or the kind default
func (m *Media) ContentType() string {
	if m.MimeType != "" {
		return m.MimeType
	}
	return m.Kind.DefaultMimeType()
}

// DisplayName returns the stored file name or the kind default
func (m *Media) DisplayName() string {
	if m.FileName != "" {
		return m.FileName
	}
	return m.Kind.DefaultFileName()
}
