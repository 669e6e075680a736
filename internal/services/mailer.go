package services

import "fmt"

// Mailer composes the account emails. All call sites treat sends as
// best-effort: a failed send never aborts the workflow that triggered it.
type Mailer struct {
	Sender  EmailSender
	BaseURL string
}

func NewMailer(sender EmailSender, baseURL string) *Mailer {
	return &Mailer{Sender: sender, BaseURL: baseURL}
}

func (m *Mailer) SendVerificationEmail(to string, token string) error {
	verificationURL := fmt.Sprintf("%s/api/auth/verify-email/%s", m.BaseURL, token)
	subject := "Aley - Confirm your email address"
	body := fmt.Sprintf(`<p>Welcome to Aley!</p>
<p>Please confirm your email address by clicking the link below:</p>
<p><a href="%s">Verify my email</a></p>
<p>This link expires in 24 hours. If you did not create an account, you can ignore this message.</p>`, verificationURL)
	return m.Sender.Send(to, subject, body)
}

func (m *Mailer) SendPasswordResetEmail(to string, token string) error {
	resetURL := fmt.Sprintf("%s/password-reset.html?token=%s", m.BaseURL, token)
	subject := "Aley - Password reset requested"
	body := fmt.Sprintf(`<p>A password reset was requested for your account.</p>
<p><a href="%s">Reset my password</a></p>
<p>This link expires in 1 hour. If you did not request a reset, you can ignore this message.</p>`, resetURL)
	return m.Sender.Send(to, subject, body)
}
