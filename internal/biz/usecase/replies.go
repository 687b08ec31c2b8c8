package usecase

// Replies holds every user-facing message the bot sends.
// Fields left empty in a YAML override fall back to DefaultReplies.
type Replies struct {
	Greeting             string `yaml:"greeting"`
	Help                 string `yaml:"help"`
	UnknownCommand       string `yaml:"unknown_command"`
	Fallback             string `yaml:"fallback"`
	Cancelled            string `yaml:"cancelled"`
	AlreadyRegistered    string `yaml:"already_registered"`
	ActivationPending    string `yaml:"activation_pending"`
	AskEmail             string `yaml:"ask_email"`
	InvalidEmail         string `yaml:"invalid_email"`
	EmailInUse           string `yaml:"email_in_use"`
	CheckInbox           string `yaml:"check_inbox"`
	MailFailed           string `yaml:"mail_failed"`
	Unsupported          string `yaml:"unsupported"`
	Inactive             string `yaml:"inactive"`
	CommandInProgress    string `yaml:"command_in_progress"`
	DocumentSaved        string `yaml:"document_saved"`
	PhotoSaved           string `yaml:"photo_saved"`
	AudioSaved           string `yaml:"audio_saved"`
	VideoSaved           string `yaml:"video_saved"`
	DownloadFailed       string `yaml:"download_failed"`
	InternalError        string `yaml:"internal_error"`
	ConversionDone       string `yaml:"conversion_done"`
	ConversionFailed     string `yaml:"conversion_failed"`
	ConversionFormat     string `yaml:"conversion_format"`
	ConversionTooLarge   string `yaml:"conversion_too_large"`
	ConversionNotForKind string `yaml:"conversion_not_for_kind"`
	ConvertUsage         string `yaml:"convert_usage"`
	ConvertNoSource      string `yaml:"convert_no_source"`
}

// DefaultReplies are the built-in English messages
var DefaultReplies = Replies{
	Greeting:             "Hello! To see the list of available commands type /help",
	Help:                 "Available commands:\n/cancel - cancel the current command\n/registration - register a user\n/resend_email - resend the activation email\n\nSend a document, photo, audio or video to store it. Reply \"/convert <format>\" to an uploaded document, audio or video to convert it.",
	UnknownCommand:       "Unknown command! To see the list of available commands type /help",
	Fallback:             "Unknown error! Type /cancel and try again",
	Cancelled:            "Command cancelled!",
	AlreadyRegistered:    "You are already registered!",
	ActivationPending:    "An activation email has already been sent to you. Follow the link in it to confirm your registration, or type /resend_email.",
	AskEmail:             "Please send your email:",
	InvalidEmail:         "Invalid email format. Please send a valid email. To cancel the command type /cancel",
	EmailInUse:           "This email is already in use. Please send another one. To cancel the command type /cancel",
	CheckInbox:           "An email has been sent to %s. Follow the link in it to confirm your registration.",
	MailFailed:           "Could not send an email to %s. Type /resend_email to try again.",
	Unsupported:          "Unsupported message type!",
	Inactive:             "Register or activate your account to upload content.",
	CommandInProgress:    "Cancel the current command with /cancel before sending files.",
	DocumentSaved:        "Document uploaded! Download link: %s",
	PhotoSaved:           "Photo uploaded! Download link: %s",
	AudioSaved:           "Audio uploaded! Download link: %s",
	VideoSaved:           "Video uploaded! Download link: %s",
	DownloadFailed:       "File upload failed. Please try again later.",
	InternalError:        "Sorry, something went wrong. Please try again later.",
	ConversionDone:       "Converted to %s",
	ConversionFailed:     "Conversion failed. Please try again later.",
	ConversionFormat:     "Unsupported target format. Supported: %s",
	ConversionTooLarge:   "The file is too large to convert.",
	ConversionNotForKind: "This content type cannot be converted.",
	ConvertUsage:         "Reply \"/convert <format>\" to a document, audio or video you uploaded.",
	ConvertNoSource:      "The message you replied to is not a stored file. Upload it first, then reply \"/convert <format>\" to it.",
}

// WithDefaults returns a copy where every empty message is taken from DefaultReplies
func (r Replies) WithDefaults() Replies {
	d := DefaultReplies
	pairs := []struct {
		dst *string
		def string
	}{
		{&r.Greeting, d.Greeting},
		{&r.Help, d.Help},
		{&r.UnknownCommand, d.UnknownCommand},
		{&r.Fallback, d.Fallback},
		{&r.Cancelled, d.Cancelled},
		{&r.AlreadyRegistered, d.AlreadyRegistered},
		{&r.ActivationPending, d.ActivationPending},
		{&r.AskEmail, d.AskEmail},
		{&r.InvalidEmail, d.InvalidEmail},
		{&r.EmailInUse, d.EmailInUse},
		{&r.CheckInbox, d.CheckInbox},
		{&r.MailFailed, d.MailFailed},
		{&r.Unsupported, d.Unsupported},
		{&r.Inactive, d.Inactive},
		{&r.CommandInProgress, d.CommandInProgress},
		{&r.DocumentSaved, d.DocumentSaved},
		{&r.PhotoSaved, d.PhotoSaved},
		{&r.AudioSaved, d.AudioSaved},
		{&r.VideoSaved, d.VideoSaved},
		{&r.DownloadFailed, d.DownloadFailed},
		{&r.InternalError, d.InternalError},
		{&r.ConversionDone, d.ConversionDone},
		{&r.ConversionFailed, d.ConversionFailed},
		{&r.ConversionFormat, d.ConversionFormat},
		{&r.ConversionTooLarge, d.ConversionTooLarge},
		{&r.ConversionNotForKind, d.ConversionNotForKind},
		{&r.ConvertUsage, d.ConvertUsage},
		{&r.ConvertNoSource, d.ConvertNoSource},
	}
	for _, p := range pairs {
		if *p.dst == "" {
			*p.dst = p.def
		}
	}
	return r
}
