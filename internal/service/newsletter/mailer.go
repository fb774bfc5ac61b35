package newsletter

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"math/rand"

	"github.com/wneessen/go-mail"

	"github.com/orvn/orvi/backend/internal/config"
)

// Subject lines rotate per signup to keep the inbox from collapsing threads.
var subjectLines = []string{
	"Africa's Next Growth System Starts Here 🚀",
	"Welcome to ORVN — Where Data Meets Growth",
	"Smarter Growth, Built in Africa 🌍",
}

var welcomeTemplate = template.Must(template.New("welcome").Parse(`<html>
<body style="font-family: Helvetica, Arial, sans-serif; color: #1d1d2c;">
  <h2>Hi Builder,</h2>
  <p>What if your growth wasn't guesswork — but a system?</p>
  <p>At <strong>ORVN (Oracle Renaissance Vision Network)</strong> we believe Africa's
  transformation will be powered by <strong>Data, AI, and Branding</strong>.</p>
  <p>The Automated Growth System (AGS) puts analytics, automation, and storytelling
  to work so businesses, creators, freelancers, and students grow smarter,
  faster, and stronger:</p>
  <ul>
    <li>We analyze your data to uncover what's working and what's not.</li>
    <li>We build AI-powered automations that save time and cut costs.</li>
    <li>We craft branding strategies that make your business unforgettable.</li>
    <li>We connect you with the House of Builders community to learn, share, and grow.</li>
  </ul>
  <p><a href="https://orvn.io" style="background: #3a0088; color: #ffffff; padding: 10px 18px; border-radius: 6px; text-decoration: none;">Explore ORVN 🌍</a></p>
  <p>Stay tuned for resources, opportunities, and updates from ORVN.</p>
  <p>💜 The ORVN Team<br/>Live it. Create it. Become it.</p>
</body>
</html>`))

// SMTPMailer sends the branded welcome email over SMTP.
type SMTPMailer struct {
	cfg config.MailConfig
}

// NewSMTPMailer returns a mailer for the configured SMTP account.
func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// SendWelcome delivers the welcome email to a new subscriber.
func (m *SMTPMailer) SendWelcome(ctx context.Context, email string) error {
	var body bytes.Buffer
	if err := welcomeTemplate.Execute(&body, nil); err != nil {
		return fmt.Errorf("failed to render welcome email: %w", err)
	}

	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("invalid sender address %q: %w", m.cfg.From, err)
	}
	if err := msg.To(email); err != nil {
		return fmt.Errorf("invalid recipient address %q: %w", email, err)
	}
	msg.Subject(subjectLines[rand.Intn(len(subjectLines))])
	msg.SetBodyString(mail.TypeTextHTML, body.String())

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return fmt.Errorf("failed to build smtp client: %w", err)
	}

	return client.DialAndSendWithContext(ctx, msg)
}
