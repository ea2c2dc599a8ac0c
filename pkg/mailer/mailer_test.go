package mailer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessageMultipart(t *testing.T) {
	msg := string(BuildMessage("vms@scsvmv.edu", "ravi@example.com", "Visitor Pass Approved - SCSVMV",
		"plain body", "<p>html body</p>"))

	assert.Contains(t, msg, "From: vms@scsvmv.edu\r\n")
	assert.Contains(t, msg, "To: ravi@example.com\r\n")
	assert.Contains(t, msg, "Subject: Visitor Pass Approved - SCSVMV\r\n")
	assert.Contains(t, msg, "Content-Type: multipart/alternative")
	assert.Contains(t, msg, "Content-Type: text/plain; charset=utf-8")
	assert.Contains(t, msg, "Content-Type: text/html; charset=utf-8")
	assert.Contains(t, msg, "plain body")
	assert.Contains(t, msg, "<p>html body</p>")
	assert.True(t, strings.HasSuffix(msg, "--vms-alt-boundary--\r\n"))
}

func TestApprovalTemplateEscapesVisitorInput(t *testing.T) {
	var body strings.Builder
	err := approvalHTML.Execute(&body, struct {
		VisitorName, Department, UID string
		BarcodeURL                   string
	}{`<script>alert(1)</script>`, "CSE", "SCSVMV1234A", "https://example.com/barcode"})
	require.NoError(t, err)

	assert.NotContains(t, body.String(), "<script>alert(1)</script>")
	assert.Contains(t, body.String(), "&lt;script&gt;")
	assert.Contains(t, body.String(), "SCSVMV1234A")
}

func TestSendApprovalNoticeRequiresConfig(t *testing.T) {
	m := New(Config{})
	err := m.SendApprovalNotice(context.Background(), ApprovalNotice{
		To: "ravi@example.com", VisitorName: "Ravi", UID: "SCSVMV1234A", Department: "CSE",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestConfigIsConfigured(t *testing.T) {
	assert.False(t, Config{}.IsConfigured())
	assert.False(t, Config{Host: "smtp.example.com"}.IsConfigured())
	assert.True(t, Config{Host: "smtp.example.com", From: "vms@scsvmv.edu"}.IsConfigured())
}
