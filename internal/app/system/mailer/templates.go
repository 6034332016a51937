package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// ContactData is a public contact-form submission.
type ContactData struct {
	SiteName string
	Name     string
	Email    string
	Company  string
	Phone    string
	Service  string
	Message  string
}

// BuildContactNotification renders the staff notification for a contact
// form submission. Replies go to the submitter.
func BuildContactNotification(to string, data ContactData) (Email, error) {
	html, err := renderContactHTML(data)
	if err != nil {
		return Email{}, err
	}
	subject := fmt.Sprintf("[%s] New inquiry from %s", data.SiteName, data.Name)
	if data.Company != "" {
		subject += " (" + data.Company + ")"
	}
	return Email{
		To:       to,
		ReplyTo:  data.Email,
		Subject:  subject,
		TextBody: buildContactText(data),
		HTMLBody: html,
	}, nil
}

func buildContactText(d ContactData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New contact form submission on %s\n\n", d.SiteName)
	fmt.Fprintf(&b, "Name: %s\nEmail: %s\n", d.Name, d.Email)
	if d.Company != "" {
		fmt.Fprintf(&b, "Company: %s\n", d.Company)
	}
	if d.Phone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", d.Phone)
	}
	if d.Service != "" {
		fmt.Fprintf(&b, "Service: %s\n", d.Service)
	}
	fmt.Fprintf(&b, "\n%s\n", d.Message)
	return b.String()
}

var contactTmpl = template.Must(template.New("contact").Parse(contactHTMLTemplate))

func renderContactHTML(d ContactData) (string, error) {
	var buf bytes.Buffer
	if err := contactTmpl.Execute(&buf, d); err != nil {
		return "", fmt.Errorf("render contact email: %w", err)
	}
	return buf.String(), nil
}

const contactHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>New inquiry</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 32px 16px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 560px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 24px 32px; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 20px; color: #4f46e5;">{{.SiteName}}: new inquiry</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 24px 32px; font-size: 14px; color: #374151; line-height: 1.6;">
              <p style="margin: 0;"><strong>Name:</strong> {{.Name}}</p>
              <p style="margin: 0;"><strong>Email:</strong> <a href="mailto:{{.Email}}">{{.Email}}</a></p>
              {{if .Company}}<p style="margin: 0;"><strong>Company:</strong> {{.Company}}</p>{{end}}
              {{if .Phone}}<p style="margin: 0;"><strong>Phone:</strong> {{.Phone}}</p>{{end}}
              {{if .Service}}<p style="margin: 0;"><strong>Service:</strong> {{.Service}}</p>{{end}}
              <p style="margin: 16px 0 0; white-space: pre-wrap;">{{.Message}}</p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
