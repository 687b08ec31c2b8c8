package feishu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	"github.com/larksuite/oapi-sdk-go/v3/event/dispatcher"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	larkws "github.com/larksuite/oapi-sdk-go/v3/ws"

	"github.com/devricklin/feishu-media-bridge/internal/biz/domain"
	"github.com/devricklin/feishu-media-bridge/internal/biz/repo"
)

// Feishu message types
const (
	msgTypeText  = "text"
	msgTypePost  = "post"
	msgTypeImage = "image"
	msgTypeFile  = "file"
	msgTypeAudio = "audio"
	msgTypeMedia = "media"
)

// Client is the Feishu chat binding
type Client struct {
	appID     string
	appSecret string
	larkCli   *lark.Client
	logger    *slog.Logger
}

var _ repo.ChatBinding = (*Client)(nil)

// NewClient creates a new Feishu client
func NewClient(appID, appSecret string, logger *slog.Logger) *Client {
	return &Client{
		appID:     appID,
		appSecret: appSecret,
		larkCli:   lark.NewClient(appID, appSecret),
		logger:    logger.With(slog.String("component", "feishu")),
	}
}

// Receive connects to Feishu via WebSocket and delivers every received
// message to handler until ctx is done.
func (c *Client) Receive(ctx context.Context, handler repo.EventHandler) error {
	// Must return quickly so the SDK can send the ACK, otherwise Feishu retries
	eventHandler := dispatcher.NewEventDispatcher("", "").
		OnP2MessageReceiveV1(func(_ context.Context, event *larkim.P2MessageReceiveV1) error {
			if ev := c.toEvent(event); ev != nil {
				go handler(ctx, ev)
			}
			return nil
		})

	wsCli := larkws.NewClient(c.appID, c.appSecret,
		larkws.WithEventHandler(eventHandler),
		larkws.WithLogLevel(larkcore.LogLevelInfo),
	)

	c.logger.Info("starting websocket connection")

	errCh := make(chan error, 1)
	go func() {
		errCh <- wsCli.Start(ctx)
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("feishu websocket stopped: %w", err)
		}
		return nil
	}
}

// rawMessage holds the fields of a received message the binding cares about
type rawMessage struct {
	MessageID  string
	ParentID   string
	ChatID     string
	SenderID   string
	SenderType string
	MsgType    string
	Content    string
	CreateTime string
}

func (c *Client) toEvent(event *larkim.P2MessageReceiveV1) *domain.Event {
	if event == nil || event.Event == nil || event.Event.Message == nil {
		return nil
	}
	msg := event.Event.Message
	raw := rawMessage{
		MessageID:  str(msg.MessageId),
		ParentID:   str(msg.ParentId),
		ChatID:     str(msg.ChatId),
		MsgType:    str(msg.MessageType),
		Content:    str(msg.Content),
		CreateTime: str(msg.CreateTime),
	}
	if sender := event.Event.Sender; sender != nil {
		raw.SenderType = str(sender.SenderType)
		if sender.SenderId != nil {
			raw.SenderID = str(sender.SenderId.OpenId)
		}
	}

	// Messages sent by the bot itself would loop back through the router
	if raw.SenderType == "app" {
		return nil
	}

	ev := parseMessage(raw)
	if payload, err := json.Marshal(event.Event); err == nil {
		ev.Raw = payload
	}
	c.logger.Debug("received message", "type", raw.MsgType, "chat", raw.ChatID, "kind", ev.Kind())
	return ev
}

// parseMessage normalizes a Feishu message into a platform-neutral event.
// Unsupported message types yield an event with no content, which classifies as unknown.
func parseMessage(m rawMessage) *domain.Event {
	ev := &domain.Event{
		EventID:   m.MessageID,
		ChatID:    m.ChatID,
		UserID:    m.SenderID,
		MsgType:   m.MsgType,
		ParentID:  m.ParentID,
		CreatedAt: parseCreateTime(m.CreateTime),
	}

	var content struct {
		Text     string `json:"text"`
		ImageKey string `json:"image_key"`
		FileKey  string `json:"file_key"`
		FileName string `json:"file_name"`
		Duration int    `json:"duration"`
	}
	if err := json.Unmarshal([]byte(m.Content), &content); err != nil {
		return ev
	}

	switch m.MsgType {
	case msgTypeText:
		ev.Text = strings.TrimSpace(content.Text)
	case msgTypeImage:
		if content.ImageKey != "" {
			ev.Photos = []domain.FileRef{{MessageID: m.MessageID, FileKey: content.ImageKey}}
		}
	case msgTypeFile:
		if content.FileKey != "" {
			ev.Document = &domain.FileRef{MessageID: m.MessageID, FileKey: content.FileKey, FileName: content.FileName}
		}
	case msgTypeAudio:
		if content.FileKey != "" {
			ev.Audio = &domain.FileRef{MessageID: m.MessageID, FileKey: content.FileKey, Duration: content.Duration}
		}
	case msgTypeMedia:
		if content.FileKey != "" {
			ev.Video = &domain.FileRef{MessageID: m.MessageID, FileKey: content.FileKey, FileName: content.FileName, Duration: content.Duration}
		}
	case msgTypePost:
		text, imageKeys := parsePostContent(m.Content)
		if len(imageKeys) > 0 {
			// A post carries the caption of its first image
			ev.Photos = []domain.FileRef{{MessageID: m.MessageID, FileKey: imageKeys[0]}}
			ev.Caption = text
		} else {
			ev.Text = text
		}
	}
	return ev
}

// parsePostContent extracts text and images from a rich text message
func parsePostContent(content string) (string, []string) {
	var parsed struct {
		Title   string `json:"title"`
		Content [][]struct {
			Tag      string `json:"tag"`
			Text     string `json:"text,omitempty"`
			ImageKey string `json:"image_key,omitempty"`
		} `json:"content"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return "", nil
	}

	var textParts []string
	var imageKeys []string
	if parsed.Title != "" {
		textParts = append(textParts, parsed.Title)
	}
	for _, line := range parsed.Content {
		var lineParts []string
		for _, elem := range line {
			switch elem.Tag {
			case "text":
				if elem.Text != "" {
					lineParts = append(lineParts, elem.Text)
				}
			case "img":
				if elem.ImageKey != "" {
					imageKeys = append(imageKeys, elem.ImageKey)
				}
			}
		}
		if len(lineParts) > 0 {
			textParts = append(textParts, strings.Join(lineParts, ""))
		}
	}
	return strings.TrimSpace(strings.Join(textParts, "\n")), imageKeys
}

// parseCreateTime parses Feishu's millisecond unix timestamp
func parseCreateTime(ms string) time.Time {
	ts, err := strconv.ParseInt(ms, 10, 64)
	if err != nil {
		return time.Now()
	}
	return time.UnixMilli(ts)
}

// Download fetches a message resource
func (c *Client) Download(ctx context.Context, ref domain.FileRef, kind domain.MediaKind) (*repo.Download, error) {
	resourceType := "file"
	if kind == domain.MediaPhoto {
		resourceType = "image"
	}

	req := larkim.NewGetMessageResourceReqBuilder().
		MessageId(ref.MessageID).
		FileKey(ref.FileKey).
		Type(resourceType).
		Build()

	resp, err := c.larkCli.Im.MessageResource.Get(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDownload, err)
	}
	if !resp.Success() {
		return nil, fmt.Errorf("%w: %s", domain.ErrDownload, resp.Msg)
	}

	data, err := io.ReadAll(resp.File)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrDownload, err)
	}

	name := ref.FileName
	if name == "" {
		name = resp.FileName
	}
	c.logger.Debug("downloaded resource", "kind", kind, "key", ref.FileKey, "bytes", len(data))
	return &repo.Download{FileName: name, Data: data}, nil
}

// Send performs one outbound command
func (c *Client) Send(ctx context.Context, cmd *domain.SendCommand) (*domain.SendResult, error) {
	switch cmd.Type {
	case domain.AnswerText:
		return c.sendContent(ctx, cmd.ChatID, msgTypeText, map[string]string{"text": cmd.Text})
	case domain.AnswerPhoto:
		imageKey, err := c.uploadImage(ctx, cmd.File)
		if err != nil {
			return nil, err
		}
		return c.sendWithCaption(ctx, cmd, msgTypeImage, map[string]string{"image_key": imageKey})
	case domain.AnswerDocument:
		fileKey, err := c.uploadFile(ctx, cmd.File, larkim.FileTypeStream)
		if err != nil {
			return nil, err
		}
		return c.sendWithCaption(ctx, cmd, msgTypeFile, map[string]string{"file_key": fileKey})
	case domain.AnswerAudio:
		// Feishu only plays opus as a voice message; everything else goes out as a file
		if strings.EqualFold(filepath.Ext(cmd.File.Name), ".opus") {
			fileKey, err := c.uploadFile(ctx, cmd.File, larkim.FileTypeOpus)
			if err != nil {
				return nil, err
			}
			return c.sendWithCaption(ctx, cmd, msgTypeAudio, map[string]string{"file_key": fileKey})
		}
		fileKey, err := c.uploadFile(ctx, cmd.File, larkim.FileTypeStream)
		if err != nil {
			return nil, err
		}
		return c.sendWithCaption(ctx, cmd, msgTypeFile, map[string]string{"file_key": fileKey})
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownAnswerType, cmd.Type)
}

// sendWithCaption sends the media message and then the caption as a text message,
// since Feishu media messages carry no caption.
func (c *Client) sendWithCaption(ctx context.Context, cmd *domain.SendCommand, msgType string, content map[string]string) (*domain.SendResult, error) {
	result, err := c.sendContent(ctx, cmd.ChatID, msgType, content)
	if err != nil {
		return nil, err
	}
	if cmd.Caption != "" {
		if _, err := c.sendContent(ctx, cmd.ChatID, msgTypeText, map[string]string{"text": cmd.Caption}); err != nil {
			c.logger.Warn("failed to send caption", "chat", cmd.ChatID, "error", err)
		}
	}
	return result, nil
}

func (c *Client) sendContent(ctx context.Context, chatID, msgType string, content map[string]string) (*domain.SendResult, error) {
	contentJSON, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("failed to encode content: %w", err)
	}

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(larkim.ReceiveIdTypeChatId).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(chatID).
			MsgType(msgType).
			Content(string(contentJSON)).
			Build()).
		Build()

	resp, err := c.larkCli.Im.Message.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("send %s message failed: %w", msgType, err)
	}
	if !resp.Success() {
		return nil, fmt.Errorf("send %s message error: %s", msgType, resp.Msg)
	}

	result := &domain.SendResult{}
	if resp.Data != nil {
		result.MessageID = str(resp.Data.MessageId)
	}
	c.logger.Debug("message sent", "type", msgType, "chat", chatID)
	return result, nil
}

func (c *Client) uploadImage(ctx context.Context, file *domain.InMemoryFile) (string, error) {
	if file == nil {
		return "", fmt.Errorf("photo answer without file")
	}
	req := larkim.NewCreateImageReqBuilder().
		Body(larkim.NewCreateImageReqBodyBuilder().
			ImageType(larkim.ImageTypeMessage).
			Image(bytes.NewReader(file.Data)).
			Build()).
		Build()

	resp, err := c.larkCli.Im.Image.Create(ctx, req)
	if err != nil {
		return "", fmt.Errorf("upload image failed: %w", err)
	}
	if !resp.Success() || resp.Data == nil {
		return "", fmt.Errorf("upload image error: %s", resp.Msg)
	}
	return str(resp.Data.ImageKey), nil
}

func (c *Client) uploadFile(ctx context.Context, file *domain.InMemoryFile, fileType string) (string, error) {
	if file == nil {
		return "", fmt.Errorf("file answer without file")
	}
	req := larkim.NewCreateFileReqBuilder().
		Body(larkim.NewCreateFileReqBodyBuilder().
			FileType(fileType).
			FileName(file.Name).
			File(bytes.NewReader(file.Data)).
			Build()).
		Build()

	resp, err := c.larkCli.Im.File.Create(ctx, req)
	if err != nil {
		return "", fmt.Errorf("upload file failed: %w", err)
	}
	if !resp.Success() || resp.Data == nil {
		return "", fmt.Errorf("upload file error: %s", resp.Msg)
	}
	return str(resp.Data.FileKey), nil
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
