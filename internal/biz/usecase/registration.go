package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/devricklin/feishu-media-bridge/internal/biz/domain"
	"github.com/devricklin/feishu-media-bridge/internal/biz/repo"
)

// Bot commands
const (
	CmdStart        = "/start"
	CmdHelp         = "/help"
	CmdCancel       = "/cancel"
	CmdRegistration = "/registration"
	CmdResendEmail  = "/resend_email"
	CmdConvert      = "/convert"
)

// RegistrationUsecase drives the per-user registration state machine
type RegistrationUsecase struct {
	users   repo.UserRepo
	mail    repo.MailRepo
	tokens  repo.Obfuscator
	replies Replies
	baseURL string
	logger  *slog.Logger
}

// NewRegistrationUsecase creates a new registration usecase.
// baseURL is the public REST base the activation link points to.
func NewRegistrationUsecase(
	users repo.UserRepo,
	mail repo.MailRepo,
	tokens repo.Obfuscator,
	replies Replies,
	baseURL string,
	logger *slog.Logger,
) *RegistrationUsecase {
	return &RegistrationUsecase{
		users:   users,
		mail:    mail,
		tokens:  tokens,
		replies: replies,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.With(slog.String("component", "registration")),
	}
}

// EnsureUser returns the user for a platform id, creating it in BASIC on first sight
func (uc *RegistrationUsecase) EnsureUser(ctx context.Context, platformUserID, userName string) (*domain.User, error) {
	user, err := uc.users.FindByPlatformID(ctx, platformUserID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}

	user = domain.NewUser(platformUserID, userName)
	if err := uc.users.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	uc.logger.InfoContext(ctx, "new user", "user_id", user.ID, "platform_user_id", platformUserID)
	return user, nil
}

// HandleText applies one text input to the sender's state machine and
// returns the reply text
func (uc *RegistrationUsecase) HandleText(ctx context.Context, event *domain.Event) (string, error) {
	user, err := uc.EnsureUser(ctx, event.UserID, event.UserName)
	if err != nil {
		return "", err
	}

	input := strings.TrimSpace(event.Command())
	command := commandWord(input)

	if command == CmdCancel {
		user.Cancel()
		if err := uc.users.Save(ctx, user); err != nil {
			return "", fmt.Errorf("save user: %w", err)
		}
		return uc.replies.Cancelled, nil
	}

	switch user.State {
	case domain.StateBasic, domain.StateEmailConfirmed:
		return uc.handleIdle(ctx, user, command)
	case domain.StateWaitForEmail:
		return uc.handleWaitForEmail(ctx, user, input, command)
	}

	uc.logger.WarnContext(ctx, "user in unknown state", "user_id", user.ID, "state", user.State)
	return uc.replies.Fallback, nil
}

func (uc *RegistrationUsecase) handleIdle(ctx context.Context, user *domain.User, command string) (string, error) {
	switch command {
	case CmdStart:
		return uc.replies.Greeting, nil
	case CmdHelp:
		return uc.replies.Help, nil
	case CmdConvert:
		// a convert request that reaches the state machine replies to nothing
		return uc.replies.ConvertUsage, nil
	case CmdRegistration:
		if user.Active {
			return uc.replies.AlreadyRegistered, nil
		}
		if !user.StartRegistration() {
			return uc.replies.Fallback, nil
		}
		if err := uc.users.Save(ctx, user); err != nil {
			return "", fmt.Errorf("save user: %w", err)
		}
		if user.HasEmail() {
			// Back in WAIT_FOR_EMAIL the earlier link works again
			return uc.replies.ActivationPending, nil
		}
		return uc.replies.AskEmail, nil
	}
	return uc.replies.UnknownCommand, nil
}

func (uc *RegistrationUsecase) handleWaitForEmail(ctx context.Context, user *domain.User, input, command string) (string, error) {
	if command == CmdResendEmail {
		if !user.HasEmail() {
			return uc.replies.AskEmail, nil
		}
		return uc.sendActivation(ctx, user), nil
	}
	if strings.HasPrefix(command, "/") {
		return uc.replies.Fallback, nil
	}

	email, err := domain.NormalizeEmail(input)
	if err != nil {
		return uc.replies.InvalidEmail, nil
	}

	owner, err := uc.users.FindByEmail(ctx, email)
	switch {
	case err == nil && owner.ID != user.ID:
		return uc.replies.EmailInUse, nil
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return "", fmt.Errorf("find user by email: %w", err)
	}

	user.Email = email
	if err := uc.users.Save(ctx, user); err != nil {
		return "", fmt.Errorf("save user: %w", err)
	}
	return uc.sendActivation(ctx, user), nil
}

// sendActivation mails the activation link. A mail failure is not an error:
// the email stays stored and the user is told to resend.
func (uc *RegistrationUsecase) sendActivation(ctx context.Context, user *domain.User) string {
	link, err := uc.ActivationLink(user.ID)
	if err != nil {
		uc.logger.ErrorContext(ctx, "failed to build activation link", "user_id", user.ID, "error", err)
		return fmt.Sprintf(uc.replies.MailFailed, user.Email)
	}
	if err := uc.mail.SendActivation(ctx, user.Email, link); err != nil {
		uc.logger.WarnContext(ctx, "activation mail failed", "user_id", user.ID, "error", err)
		return fmt.Sprintf(uc.replies.MailFailed, user.Email)
	}
	return fmt.Sprintf(uc.replies.CheckInbox, user.Email)
}

// ActivationLink builds the token-bound activation URL of a user
func (uc *RegistrationUsecase) ActivationLink(userID int64) (string, error) {
	token, err := uc.tokens.Encode(userID)
	if err != nil {
		return "", err
	}
	return uc.baseURL + "/user/activation?id=" + token, nil
}

// Activate confirms the user behind token. A user that is not waiting for
// activation is left untouched and no error is returned.
func (uc *RegistrationUsecase) Activate(ctx context.Context, token string) error {
	id, ok := uc.tokens.Decode(token)
	if !ok {
		return domain.ErrInvalidToken
	}

	user, err := uc.users.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("find user %d: %w", id, err)
	}

	if !user.Activate() {
		uc.logger.WarnContext(ctx, "activation ignored", "user_id", user.ID, "state", user.State, "active", user.Active)
		return nil
	}
	if err := uc.users.Save(ctx, user); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	uc.logger.InfoContext(ctx, "user activated", "user_id", user.ID)
	return nil
}

// CheckUpload applies the upload permission gate to the sender of event.
// It returns an empty reply when the upload may proceed.
func (uc *RegistrationUsecase) CheckUpload(ctx context.Context, event *domain.Event) (string, error) {
	user, err := uc.EnsureUser(ctx, event.UserID, event.UserName)
	if err != nil {
		return "", err
	}
	switch user.CanUpload() {
	case domain.UploadDeniedInactive:
		return uc.replies.Inactive, nil
	case domain.UploadDeniedCommandInProgress:
		return uc.replies.CommandInProgress, nil
	}
	return "", nil
}

// commandWord returns the leading /command of input, lower-cased, or ""
func commandWord(input string) string {
	if !strings.HasPrefix(input, "/") {
		return ""
	}
	word := strings.Fields(input)[0]
	// Feishu may append the bot mention to a command
	if i := strings.IndexByte(word, '@'); i > 0 {
		word = word[:i]
	}
	return strings.ToLower(word)
}
