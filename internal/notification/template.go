package notification

import (
	"bytes"
	"html/template"
)

// SubjectPrefix is prepended to every outgoing notification subject.
const SubjectPrefix = "Facilita - "

// emailTmpl is the HTML wrapper applied to every outgoing notification.
// Fields are auto-escaped by html/template.
var emailTmpl = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width,initial-scale=1.0">
  <title>{{.Subject}}</title>
</head>
<body style="margin:0;padding:0;background-color:#f4f4f5;
     font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,Arial,sans-serif;">
  <table width="100%" cellpadding="0" cellspacing="0" role="presentation"
         style="background-color:#f4f4f5;padding:40px 16px;">
    <tr>
      <td align="center">
        <table width="600" cellpadding="0" cellspacing="0" role="presentation"
               style="max-width:600px;width:100%;">
          <tr>
            <td style="background-color:#0b3d5c;padding:24px 40px;border-radius:12px 12px 0 0;">
              <span style="font-size:20px;font-weight:700;color:#ffffff;">Facilita</span>
              <span style="display:block;font-size:11px;color:#9fc3d9;margin-top:2px;">
                Portal de links, agendas e notas
              </span>
            </td>
          </tr>
          <tr>
            <td style="background-color:#ffffff;padding:32px 40px;">
              <p style="margin:0 0 16px 0;font-size:16px;font-weight:600;color:#111827;">{{.Subject}}</p>
              <div style="font-size:14px;line-height:1.7;color:#374151;
                          white-space:pre-wrap;word-break:break-word;">{{.Body}}</div>
              {{- if .Link}}
              <p style="margin:24px 0 0 0;">
                <a href="{{.Link}}" style="background-color:#0b3d5c;color:#ffffff;padding:10px 18px;
                   border-radius:6px;text-decoration:none;font-size:14px;">Abrir no portal</a>
              </p>
              {{- end}}
            </td>
          </tr>
          <tr>
            <td style="background-color:#f9fafb;padding:16px 40px;
                       border-top:1px solid #e5e7eb;border-radius:0 0 12px 12px;">
              <p style="margin:0;font-size:12px;color:#9ca3af;">
                Voce recebeu este email porque estava offline quando a notificacao foi enviada.
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>
`))

// buildSubject prepends the standard prefix to a subject line.
func buildSubject(subject string) string {
	return SubjectPrefix + subject
}

// buildEmailHTML renders the HTML email template.
func buildEmailHTML(subject, body, link string) (string, error) {
	var buf bytes.Buffer
	err := emailTmpl.Execute(&buf, struct{ Subject, Body, Link string }{subject, body, link})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
