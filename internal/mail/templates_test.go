package mail

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQAAssignedTemplate(t *testing.T) {
	tmpl := Templates{BaseURL: "http://qa.local/"}
	msg := tmpl.QAAssigned("Maria", "AMD-2024-001", "Recalculate <interest>")

	assert.Equal(t, "QA Assignment: AMD-2024-001", msg.Subject)
	assert.Contains(t, msg.HTMLBody, "Hi Maria,")
	assert.Contains(t, msg.HTMLBody, "http://qa.local/amendments/AMD-2024-001")
	assert.Contains(t, msg.HTMLBody, "Recalculate &lt;interest&gt;")
	assert.Contains(t, msg.TextBody, "Amendment: AMD-2024-001")
}

func TestStatusChangedTemplate(t *testing.T) {
	tmpl := Templates{BaseURL: "http://qa.local"}
	msg := tmpl.StatusChanged("Jon", "AMD-7", "In Testing", "Passed")

	assert.Equal(t, "QA Status Changed: AMD-7 → Passed", msg.Subject)
	assert.Contains(t, msg.HTMLBody, "In Testing")
	assert.Contains(t, msg.HTMLBody, "Passed")
}

func TestOverdueTemplatePluralization(t *testing.T) {
	tmpl := Templates{BaseURL: "http://qa.local"}
	due := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	one := tmpl.Overdue("Jon", []OverdueItem{{Reference: "AMD-1", Description: "a", DueAt: due}})
	assert.Contains(t, one.Subject, "(1 amendment)")

	two := tmpl.Overdue("Jon", []OverdueItem{
		{Reference: "AMD-1", Description: "a", DueAt: due},
		{Reference: "AMD-2", Description: "b", DueAt: due},
	})
	assert.Contains(t, two.Subject, "(2 amendments)")
	assert.Contains(t, two.TextBody, "AMD-2")
}

func TestDefectCreatedTemplate(t *testing.T) {
	tmpl := Templates{BaseURL: "http://qa.local"}
	msg := tmpl.DefectCreated("Jon", "DEF-003", "Null pointer on save", "High", "AMD-9")

	assert.Equal(t, "New Defect: DEF-003 - High", msg.Subject)
	assert.Contains(t, msg.HTMLBody, "DEF-003")
	assert.Contains(t, msg.TextBody, "Severity: High")
}
