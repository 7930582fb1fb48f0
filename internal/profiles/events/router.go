// Package events wires the domain event handlers into an eventx router.
package events

import (
	"github.com/aussiebroadwan/profiles/internal/profiles/domain"
	"github.com/aussiebroadwan/profiles/internal/profiles/notify"
	"github.com/aussiebroadwan/profiles/internal/profiles/store"
	"github.com/aussiebroadwan/profiles/pkg/eventx"
)

// State is shared by every handler. Handlers run after commit, so Users is
// the store's ad hoc repository, never a transaction's.
type State struct {
	Users  store.Users
	Mailer notify.Publisher

	// ResetPasswordURL is the page that accepts ?token=... and calls the
	// reset endpoint.
	ResetPasswordURL string
}

type Router = eventx.Router[domain.EventType, domain.Event, State]

// NewRouter registers every handler. Handlers must tolerate redelivery: the
// outbox relay may dispatch an event more than once.
func NewRouter(state State) *Router {
	return eventx.New(state, domain.Event.Type,
		eventx.Handle("send_welcome_email",
			domain.EventUserCreated, domain.AsUserCreated, sendWelcomeEmail),
		eventx.Handle("send_password_reset_email",
			domain.EventPasswordResetRequested, domain.AsPasswordResetRequested, sendPasswordResetEmail),
		eventx.Handle("send_password_changed_email",
			domain.EventPasswordChanged, domain.AsPasswordChanged, sendPasswordChangedEmail),
	)
}
