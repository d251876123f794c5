package notification

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

func TestActionLink(t *testing.T) {
	p := NewSMTPProvider(SMTPConfig{}, "https://portal.example.com/")

	assert.Equal(t, "", p.actionLink(""))
	assert.Equal(t, "https://portal.example.com/compartilhados", p.actionLink("/compartilhados"))
	assert.Equal(t, "https://other.example.com/x", p.actionLink("https://other.example.com/x"))

	bare := NewSMTPProvider(SMTPConfig{}, "")
	assert.Equal(t, "", bare.actionLink("/compartilhados"))
}

func TestTLSPolicyFromEncryption(t *testing.T) {
	assert.Equal(t, mail.TLSMandatory, tlsPolicyFromEncryption("ssl_tls"))
	assert.Equal(t, mail.TLSOpportunistic, tlsPolicyFromEncryption("starttls"))
	assert.Equal(t, mail.NoTLS, tlsPolicyFromEncryption("none"))
	assert.Equal(t, mail.NoTLS, tlsPolicyFromEncryption(""))
}

func TestBuildEmailHTML_EscapesAndLinks(t *testing.T) {
	html, err := buildEmailHTML("Aviso", "<script>x</script>", "https://portal/links")
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>x</script>")
	assert.Contains(t, html, `href="https://portal/links"`)

	html, err = buildEmailHTML("Aviso", "texto", "")
	require.NoError(t, err)
	assert.False(t, strings.Contains(html, "Abrir no portal"))
}

func TestSend_NoRecipients(t *testing.T) {
	p := NewSMTPProvider(SMTPConfig{Host: "localhost", Port: 2525, FromAddr: "noreply@example.com"}, "")
	err := p.Send(context.Background(), Message{Subject: "s", Body: "b"})
	assert.ErrorIs(t, err, ErrNoRecipients)
}

func TestSMTPConfig_Configured(t *testing.T) {
	assert.False(t, SMTPConfig{}.Configured())
	assert.False(t, SMTPConfig{Host: "smtp"}.Configured())
	assert.True(t, SMTPConfig{Host: "smtp", FromAddr: "a@b.c"}.Configured())
}
