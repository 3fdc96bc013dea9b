package usecase

import (
	"fmt"
	"html"

	"github.com/vasapolrittideah/ai-tutor-api/services/tutor-service/internal/model"
	"github.com/vasapolrittideah/ai-tutor-api/shared/mailer"
)

// WelcomeNotifier greets newly created accounts.
type WelcomeNotifier interface {
	SendWelcome(user *model.User) error
}

type mailWelcomeNotifier struct {
	mailer *mailer.Mailer
}

// NewMailWelcomeNotifier sends the welcome message over SMTP.
func NewMailWelcomeNotifier(m *mailer.Mailer) WelcomeNotifier {
	return &mailWelcomeNotifier{mailer: m}
}

func (n *mailWelcomeNotifier) SendWelcome(user *model.User) error {
	return n.mailer.Send(welcomeEmail(user))
}

func welcomeEmail(user *model.User) mailer.Email {
	name := user.FullName
	if name == "" {
		name = user.Username
	}

	return mailer.Email{
		To:      []string{user.Email},
		Subject: "Welcome to AI Tutor",
		Body: fmt.Sprintf("Hi %s,\n\nYour AI Tutor account %q is ready. Ask about any topic or upload your notes to get started.\n",
			name, user.Username),
		HTMLBody: fmt.Sprintf(`<p>Hi %s,</p>
<p>Your AI Tutor account <b>%s</b> is ready.</p>
<p>Ask about any topic or upload your notes to get started.</p>`,
			html.EscapeString(name), html.EscapeString(user.Username)),
	}
}
