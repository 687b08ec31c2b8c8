package domain

// AnswerType is the discriminator carried by messages on the answer topic
type AnswerType string

const (
	AnswerText     AnswerType = "text"
	AnswerPhoto    AnswerType = "photo"
	AnswerDocument AnswerType = "document"
	AnswerAudio    AnswerType = "audio"
)

// Known reports whether t is a recognized discriminator
func (t AnswerType) Known() bool {
	switch t {
	case AnswerText, AnswerPhoto, AnswerDocument, AnswerAudio:
		return true
	}
	return false
}

// Answer is an outbound reply. It only lives for one queue hop.
type Answer struct {
	Type     AnswerType `json:"-"`
	ChatID   string     `json:"chat_id"`
	Text     string     `json:"text,omitempty"`
	FileName string     `json:"file_name,omitempty"`
	Data     []byte     `json:"data,omitempty"`
	Caption  string     `json:"caption,omitempty"`
}

// TextAnswer builds a plain text reply
func TextAnswer(chatID, text string) *Answer {
	return &Answer{Type: AnswerText, ChatID: chatID, Text: text}
}

// FileAnswer builds a file-carrying reply of the given type
func FileAnswer(t AnswerType, chatID, fileName string, data []byte, caption string) *Answer {
	return &Answer{Type: t, ChatID: chatID, FileName: fileName, Data: data, Caption: caption}
}

// InMemoryFile is a named byte payload attached to a send command
type InMemoryFile struct {
	Name string
	Data []byte
}

// SendCommand is a platform-neutral outbound operation
type SendCommand struct {
	Type    AnswerType
	ChatID  string
	Text    string
	File    *InMemoryFile
	Caption string
}

// SendResult is what the binding reports after sending
type SendResult struct {
	MessageID string
}
