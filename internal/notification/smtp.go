package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"
)

// ErrNoRecipients is returned by Send when the message has no address.
var ErrNoRecipients = errors.New("no recipients")

// SMTPProvider delivers notifications via SMTP using the go-mail library.
type SMTPProvider struct {
	config    SMTPConfig
	portalURL string
}

// NewSMTPProvider creates a new SMTPProvider with the given configuration.
// portalURL is prefixed to relative action links.
func NewSMTPProvider(config SMTPConfig, portalURL string) *SMTPProvider {
	return &SMTPProvider{config: config, portalURL: strings.TrimRight(portalURL, "/")}
}

// Name returns the provider identifier.
func (p *SMTPProvider) Name() string { return "smtp" }

// Send delivers msg using the configured SMTP server.
func (p *SMTPProvider) Send(ctx context.Context, msg Message) error {
	m := mail.NewMsg()
	if err := m.From(p.config.FromAddr); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}

	added := 0
	for _, r := range msg.To {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if err := m.AddTo(r); err != nil {
			return fmt.Errorf("invalid recipient %q: %w", r, err)
		}
		added++
	}
	if added == 0 {
		return ErrNoRecipients
	}

	m.Subject(msg.Subject)

	// Plain-text fallback for clients that don't render HTML.
	m.SetBodyString(mail.TypeTextPlain, msg.Body)

	link := p.actionLink(msg.ActionURL)
	if html, err := buildEmailHTML(msg.Subject, msg.Body, link); err == nil {
		m.AddAlternativeString(mail.TypeTextHTML, html)
	}

	opts := []mail.Option{
		mail.WithPort(p.config.Port),
		mail.WithTLSPolicy(tlsPolicyFromEncryption(p.config.Encryption)),
	}
	if p.config.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(p.config.Username),
			mail.WithPassword(p.config.Password),
		)
	}

	c, err := mail.NewClient(p.config.Host, opts...)
	if err != nil {
		return fmt.Errorf("failed to create mail client: %w", err)
	}

	return c.DialAndSendWithContext(ctx, m)
}

func (p *SMTPProvider) actionLink(actionURL string) string {
	if actionURL == "" || strings.HasPrefix(actionURL, "http://") || strings.HasPrefix(actionURL, "https://") {
		return actionURL
	}
	if p.portalURL == "" {
		return ""
	}
	return p.portalURL + "/" + strings.TrimLeft(actionURL, "/")
}

// tlsPolicyFromEncryption converts the encryption string to a go-mail TLSPolicy.
func tlsPolicyFromEncryption(enc string) mail.TLSPolicy {
	switch enc {
	case "ssl_tls":
		return mail.TLSMandatory
	case "starttls":
		return mail.TLSOpportunistic
	default:
		return mail.NoTLS
	}
}
