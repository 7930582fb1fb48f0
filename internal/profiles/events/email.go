package events

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/aussiebroadwan/profiles/internal/profiles/domain"
	"github.com/aussiebroadwan/profiles/internal/profiles/notify"
	"github.com/aussiebroadwan/profiles/pkg/slogx"
	"github.com/google/uuid"
)

// jobNamespace scopes the name-based job ids.
var jobNamespace = uuid.MustParse("3c7e31d5-8f0b-4b4e-9a0e-5d1f6f0f4b11")

// jobID derives a stable id from the template and key, so redelivered events
// produce the same job id without exposing the key itself.
func jobID(template, key string) string {
	return uuid.NewSHA1(jobNamespace, []byte(template+":"+key)).String()
}

func sendWelcomeEmail(ctx context.Context, st State, e domain.UserCreated) error {
	slogx.FromContext(ctx).Info("queueing welcome email", "user_id", e.ID)

	return st.Mailer.Publish(ctx, notify.EmailJob{
		ID:       jobID(notify.TemplateWelcome, e.ID),
		To:       e.Email,
		Subject:  "Welcome",
		Template: notify.TemplateWelcome,
		Data: map[string]any{
			"email": e.Email,
		},
	})
}

func sendPasswordResetEmail(ctx context.Context, st State, e domain.PasswordResetRequested) error {
	link, err := resetLink(st.ResetPasswordURL, e.Token)
	if err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("queueing password reset email", "requester", e.Requester)

	return st.Mailer.Publish(ctx, notify.EmailJob{
		ID:       jobID(notify.TemplateForgotPassword, e.Token),
		To:       e.Email,
		Subject:  "Reset your password",
		Template: notify.TemplateForgotPassword,
		Data: map[string]any{
			"reset_link":   link,
			"requested_by": e.Requester,
			"expires_at":   e.Datetime.Add(domain.PasswordResetWindow).UTC().Format(time.RFC3339),
		},
	})
}

func sendPasswordChangedEmail(ctx context.Context, st State, e domain.PasswordChanged) error {
	user, err := st.Users.GetUserByID(ctx, e.UserID)
	if err != nil {
		return fmt.Errorf("load user %s: %w", e.UserID, err)
	}

	slogx.FromContext(ctx).Info("queueing password changed email", "user_id", e.UserID)

	changedAt := e.Datetime.UTC().Format(time.RFC3339)
	return st.Mailer.Publish(ctx, notify.EmailJob{
		ID:       jobID(notify.TemplatePasswordChanged, e.UserID+"@"+changedAt),
		To:       user.Email,
		Subject:  "Your password was changed",
		Template: notify.TemplatePasswordChanged,
		Data: map[string]any{
			"changed_at": changedAt,
		},
	})
}

func resetLink(base, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("reset password url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
