package domain

import (
	"encoding/json"
	"time"
)

// ContentKind classifies an inbound event
type ContentKind string

const (
	KindText     ContentKind = "text"
	KindDocument ContentKind = "document"
	KindPhoto    ContentKind = "photo"
	KindAudio    ContentKind = "audio"
	KindVideo    ContentKind = "video"
	KindCallback ContentKind = "callback"
	KindUnknown  ContentKind = "unknown"
)

// FileRef points at a file stored on the chat platform
type FileRef struct {
	MessageID string `json:"message_id"`
	FileKey   string `json:"file_key"`
	FileName  string `json:"file_name,omitempty"`
	MimeType  string `json:"mime_type,omitempty"`
	Size      int64  `json:"size,omitempty"`
	Duration  int    `json:"duration,omitempty"` // milliseconds
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
}

// Event represents a normalized inbound chat event.
// It is also the payload of every update topic.
type Event struct {
	EventID   string    `json:"event_id"`
	ChatID    string    `json:"chat_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name,omitempty"`
	MsgType   string    `json:"msg_type"` // platform message type
	Text      string    `json:"text,omitempty"`
	Caption   string    `json:"caption,omitempty"`
	Callback  string    `json:"callback,omitempty"`
	Document  *FileRef  `json:"document,omitempty"`
	Photos    []FileRef `json:"photos,omitempty"` // resolution variants of one photo
	Audio     *FileRef  `json:"audio,omitempty"`
	Video     *FileRef  `json:"video,omitempty"`
	ParentID  string    `json:"parent_id,omitempty"` // platform id of the message replied to
	CreatedAt time.Time `json:"created_at"`

	Raw json.RawMessage `json:"raw,omitempty"`
}

// Valid reports whether the identifying fields are present
func (e *Event) Valid() bool {
	return e != nil && e.EventID != "" && e.ChatID != "" && e.UserID != ""
}

// Kind classifies the event. Attachments take precedence over text, so a
// photo with a caption is a photo.
func (e *Event) Kind() ContentKind {
	switch {
	case e.Document != nil:
		return KindDocument
	case len(e.Photos) > 0:
		return KindPhoto
	case e.Audio != nil:
		return KindAudio
	case e.Video != nil:
		return KindVideo
	case e.Callback != "":
		return KindCallback
	case e.Text != "":
		return KindText
	}
	return KindUnknown
}

// Command returns the text a state machine should interpret for this event
func (e *Event) Command() string {
	if e.Callback != "" && e.Text == "" {
		return e.Callback
	}
	return e.Text
}

// LargestPhoto selects the biggest resolution variant
func (e *Event) LargestPhoto() *FileRef {
	var best *FileRef
	for i := range e.Photos {
		p := &e.Photos[i]
		if best == nil || p.Size > best.Size ||
			(p.Size == best.Size && p.Width*p.Height > best.Width*best.Height) {
			best = p
		}
	}
	return best
}

// RawEvent is the append-only audit record of an inbound event
type RawEvent struct {
	ID        int64
	EventID   string
	Payload   json.RawMessage
	CreatedAt time.Time
}
