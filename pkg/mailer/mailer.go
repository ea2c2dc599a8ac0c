// Package mailer sends transactional visitor-pass emails over SMTP.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"net/url"
	"strings"
)

// Config holds SMTP connection settings.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// IsConfigured returns true if SMTP settings are present.
func (c Config) IsConfigured() bool {
	return c.Host != "" && c.From != ""
}

// ApprovalNotice is the payload for one approval email.
type ApprovalNotice struct {
	To          string
	VisitorName string
	UID         string
	Department  string
}

// Mailer composes and sends approval notices.
type Mailer struct {
	cfg Config
}

// New creates a mailer with the given config.
func New(cfg Config) *Mailer {
	return &Mailer{cfg: cfg}
}

// approvalHTML renders the pass email body. All interpolations run through
// html/template's contextual escaping, so caller-supplied text cannot inject
// markup.
var approvalHTML = template.Must(template.New("approval").Parse(`<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;background:#f5f5f5;font-family:Segoe UI,Tahoma,sans-serif;">
  <table role="presentation" width="600" align="center" cellspacing="0" cellpadding="0" style="background:#ffffff;border-radius:4px;">
    <tr><td style="background:#1a365d;padding:32px;text-align:center;">
      <p style="margin:0;color:#94a3b8;font-size:14px;text-transform:uppercase;letter-spacing:2px;">Visitor Management System</p>
    </td></tr>
    <tr><td style="padding:32px;">
      <p style="color:#374151;font-size:15px;">Hello <strong>{{.VisitorName}}</strong>,</p>
      <p style="color:#374151;font-size:15px;">Your visit has been approved. Please use the digital pass below for entry.</p>
      <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background:#f8fafc;border:1px solid #e2e8f0;border-radius:4px;margin:24px 0;">
        <tr><td style="padding:24px;">
          <span style="color:#64748b;font-size:12px;text-transform:uppercase;">Visiting Department</span>
          <p style="margin:6px 0 16px;color:#1e293b;font-size:15px;font-weight:600;">{{.Department}}</p>
          <span style="color:#64748b;font-size:12px;text-transform:uppercase;">Visitor UID</span>
          <p style="margin:6px 0 0;color:#2563eb;font-size:18px;font-weight:700;font-family:Courier New,monospace;">{{.UID}}</p>
        </td></tr>
      </table>
      <div style="text-align:center;margin:24px 0;padding:24px;border:2px dashed #cbd5e1;border-radius:8px;">
        <p style="margin:0 0 16px;color:#64748b;font-size:11px;text-transform:uppercase;">Scan at Security Gate</p>
        <img src="{{.BarcodeURL}}" alt="Visitor Barcode" style="max-width:100%;display:block;margin:0 auto;" />
      </div>
      <p style="color:#374151;font-size:14px;">Please present this email or the barcode above to the security personnel at the main gate.</p>
      <p style="margin:32px 0 0;color:#374151;font-size:14px;">Regards,<br><strong>SCSVMV Administration</strong></p>
    </td></tr>
  </table>
</body>
</html>`))

const barcodeEndpoint = "https://bwipjs-api.metafloor.com/"

// SendApprovalNotice delivers the approval email for one visitor pass.
func (m *Mailer) SendApprovalNotice(ctx context.Context, n ApprovalNotice) error {
	if !m.cfg.IsConfigured() {
		return fmt.Errorf("smtp not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	barcode := fmt.Sprintf("%s?bcid=code128&text=%s&scale=3&includetext", barcodeEndpoint, url.QueryEscape(n.UID))

	var htmlBody bytes.Buffer
	if err := approvalHTML.Execute(&htmlBody, struct {
		VisitorName, Department, UID string
		BarcodeURL                   string
	}{n.VisitorName, n.Department, n.UID, barcode}); err != nil {
		return fmt.Errorf("render approval email: %w", err)
	}

	textBody := fmt.Sprintf(
		"Hello %s,\n\nYour visit to the %s department has been approved.\n\nYour Visitor UID is: %s\n\nBest regards,\nSCSVMV Administration\n",
		n.VisitorName, n.Department, n.UID,
	)

	msg := BuildMessage(m.cfg.From, n.To, "Visitor Pass Approved - SCSVMV", textBody, htmlBody.String())

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	}
	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{n.To}, msg); err != nil {
		return fmt.Errorf("send approval email: %w", err)
	}
	return nil
}

// BuildMessage assembles a multipart/alternative MIME message with plain-text
// and HTML parts.
func BuildMessage(from, to, subject, textBody, htmlBody string) []byte {
	const boundary = "vms-alt-boundary"

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n", boundary)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(textBody)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	b.WriteString(htmlBody)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return []byte(b.String())
}
