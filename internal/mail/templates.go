package mail

import (
	"fmt"
	"html"
	"strings"
	"time"
)

// OverdueItem is one overdue amendment row in a digest email.
type OverdueItem struct {
	Reference   string
	Description string
	DueAt       time.Time
}

// Templates renders the outbound notification emails. BaseURL points at
// the web frontend so links land on the right deployment.
type Templates struct {
	BaseURL string
}

const footerHTML = `<hr style="border: none; border-top: 1px solid #e5e7eb; margin: 30px 0;">
<p style="font-size: 12px; color: #6b7280;">This is an automated notification from the Amendment Tracking System.</p>`

const footerText = "\n---\nThis is an automated notification from the Amendment Tracking System.\n"

var statusEmoji = map[string]string{
	"Assigned":   "📋",
	"In Testing": "🧪",
	"Blocked":    "🚫",
	"Passed":     "✅",
	"Failed":     "❌",
}

func (t Templates) amendmentURL(reference string) string {
	return fmt.Sprintf("%s/amendments/%s", strings.TrimRight(t.BaseURL, "/"), reference)
}

// QAAssigned builds the email sent to a tester on assignment.
func (t Templates) QAAssigned(testerName, reference, description string) Message {
	link := t.amendmentURL(reference)
	htmlBody := fmt.Sprintf(`<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
<h2 style="color: #2563eb;">QA Assignment Notification</h2>
<p>Hi %s,</p>
<p>You have been assigned to test the following amendment:</p>
<div style="background-color: #f3f4f6; padding: 15px; border-left: 4px solid #2563eb; margin: 20px 0;">
<p style="margin: 5px 0;"><strong>Amendment:</strong> %s</p>
<p style="margin: 5px 0;"><strong>Description:</strong> %s</p>
</div>
<p>Please review the amendment and begin testing when ready.</p>
<p><a href="%s" style="background-color: #2563eb; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">View Amendment</a></p>
%s
</body>
</html>`, html.EscapeString(testerName), html.EscapeString(reference), html.EscapeString(description), link, footerHTML)

	textBody := fmt.Sprintf(`QA Assignment Notification

Hi %s,

You have been assigned to test the following amendment:

Amendment: %s
Description: %s

Please review the amendment and begin testing when ready.

View Amendment: %s
%s`, testerName, reference, description, link, footerText)

	return Message{
		Subject:  fmt.Sprintf("QA Assignment: %s", reference),
		HTMLBody: htmlBody,
		TextBody: textBody,
	}
}

// StatusChanged builds the email sent when an amendment's QA status moves.
func (t Templates) StatusChanged(recipientName, reference, oldStatus, newStatus string) Message {
	link := t.amendmentURL(reference)
	emoji, ok := statusEmoji[newStatus]
	if !ok {
		emoji = "📝"
	}

	htmlBody := fmt.Sprintf(`<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
<h2 style="color: #2563eb;">QA Status Changed</h2>
<p>Hi %s,</p>
<p>The QA status for amendment <strong>%s</strong> has been updated:</p>
<div style="background-color: #f3f4f6; padding: 15px; border-left: 4px solid #2563eb; margin: 20px 0;">
<p style="margin: 5px 0;"><strong>Status Change:</strong> <span style="color: #6b7280;">%s</span> → <span style="color: #2563eb; font-weight: bold;">%s %s</span></p>
</div>
<p><a href="%s" style="background-color: #2563eb; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">View Amendment</a></p>
%s
</body>
</html>`, html.EscapeString(recipientName), html.EscapeString(reference), html.EscapeString(oldStatus), emoji, html.EscapeString(newStatus), link, footerHTML)

	textBody := fmt.Sprintf(`QA Status Changed

Hi %s,

The QA status for amendment %s has been updated:

Status Change: %s → %s

View Amendment: %s
%s`, recipientName, reference, oldStatus, newStatus, link, footerText)

	return Message{
		Subject:  fmt.Sprintf("QA Status Changed: %s → %s", reference, newStatus),
		HTMLBody: htmlBody,
		TextBody: textBody,
	}
}

// Overdue builds the per-tester digest listing every overdue assignment.
func (t Templates) Overdue(testerName string, items []OverdueItem) Message {
	count := len(items)
	plural := ""
	if count > 1 {
		plural = "s"
	}

	var itemsHTML, itemsText strings.Builder
	for _, item := range items {
		due := item.DueAt.Format("2006-01-02 15:04")
		fmt.Fprintf(&itemsHTML, `<div style="background-color: #fff; padding: 10px; margin: 10px 0; border-left: 3px solid #ef4444;">
<p style="margin: 5px 0;"><strong>%s</strong></p>
<p style="margin: 5px 0; font-size: 14px; color: #6b7280;">%s</p>
<p style="margin: 5px 0; font-size: 12px; color: #ef4444;">Due: %s</p>
</div>
`, html.EscapeString(item.Reference), html.EscapeString(item.Description), due)
		fmt.Fprintf(&itemsText, "\n- %s: %s\n  Due: %s\n", item.Reference, item.Description, due)
	}

	dashboard := fmt.Sprintf("%s/qa/dashboard", strings.TrimRight(t.BaseURL, "/"))
	htmlBody := fmt.Sprintf(`<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
<h2 style="color: #ef4444;">⚠️ Overdue QA Notifications</h2>
<p>Hi %s,</p>
<p>You have <strong>%d</strong> overdue QA assignment%s:</p>
<div style="background-color: #fef2f2; padding: 15px; border-left: 4px solid #ef4444; margin: 20px 0;">
%s</div>
<p>Please review and prioritize these amendments.</p>
<p><a href="%s" style="background-color: #ef4444; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">View QA Dashboard</a></p>
%s
</body>
</html>`, html.EscapeString(testerName), count, plural, itemsHTML.String(), dashboard, footerHTML)

	textBody := fmt.Sprintf(`⚠️ Overdue QA Notifications

Hi %s,

You have %d overdue QA assignment%s:
%s
Please review and prioritize these amendments.

View QA Dashboard: %s
%s`, testerName, count, plural, itemsText.String(), dashboard, footerText)

	return Message{
		Subject:  fmt.Sprintf("⚠️ Overdue QA Notifications (%d amendment%s)", count, plural),
		HTMLBody: htmlBody,
		TextBody: textBody,
	}
}

// DefectCreated builds the email sent to the developer a defect lands on.
func (t Templates) DefectCreated(developerName, defectNumber, title, severity, reference string) Message {
	severityColor, ok := map[string]string{
		"Critical": "#dc2626",
		"High":     "#ea580c",
		"Medium":   "#ca8a04",
		"Low":      "#65a30d",
	}[severity]
	if !ok {
		severityColor = "#6b7280"
	}

	link := fmt.Sprintf("%s/defects/%s", strings.TrimRight(t.BaseURL, "/"), defectNumber)
	htmlBody := fmt.Sprintf(`<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
<h2 style="color: #2563eb;">New Defect Reported</h2>
<p>Hi %s,</p>
<p>A new defect has been reported for amendment <strong>%s</strong>:</p>
<div style="background-color: #f3f4f6; padding: 15px; border-left: 4px solid %s; margin: 20px 0;">
<p style="margin: 5px 0;"><strong>Defect:</strong> %s</p>
<p style="margin: 5px 0;"><strong>Title:</strong> %s</p>
<p style="margin: 5px 0;"><strong>Severity:</strong> <span style="color: %s; font-weight: bold;">%s</span></p>
</div>
<p>Please review the defect and begin working on a fix.</p>
<p><a href="%s" style="background-color: #2563eb; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">View Defect</a></p>
%s
</body>
</html>`, html.EscapeString(developerName), html.EscapeString(reference), severityColor,
		html.EscapeString(defectNumber), html.EscapeString(title), severityColor, html.EscapeString(severity), link, footerHTML)

	textBody := fmt.Sprintf(`New Defect Reported

Hi %s,

A new defect has been reported for amendment %s:

Defect: %s
Title: %s
Severity: %s

Please review the defect and begin working on a fix.

View Defect: %s
%s`, developerName, reference, defectNumber, title, severity, link, footerText)

	return Message{
		Subject:  fmt.Sprintf("New Defect: %s - %s", defectNumber, severity),
		HTMLBody: htmlBody,
		TextBody: textBody,
	}
}
