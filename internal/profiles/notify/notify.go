// Package notify hands outbound email jobs to a mail worker. The worker owns
// templates and delivery; this service only says who gets which template with
// what data.
package notify

import (
	"context"
	"log/slog"
)

// Template names understood by the mail worker.
const (
	TemplateWelcome         = "welcome"
	TemplateForgotPassword  = "forgot_password"
	TemplatePasswordChanged = "password_changed"
)

// EmailJob is the message consumed by the mail worker.
type EmailJob struct {
	// ID is stable for a given event so the worker can drop redeliveries.
	ID       string         `json:"id"`
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Template string         `json:"template"`
	Data     map[string]any `json:"data,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, job EmailJob) error
}

// LogPublisher only logs jobs. It is used when no broker is configured.
type LogPublisher struct {
	Logger *slog.Logger
}

func (p LogPublisher) Publish(ctx context.Context, job EmailJob) error {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	// Data may hold reset tokens; keep it out of the log.
	logger.InfoContext(ctx, "email job",
		"job_id", job.ID,
		"template", job.Template,
		"to", job.To,
	)
	return nil
}
