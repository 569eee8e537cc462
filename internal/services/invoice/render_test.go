package invoice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-plans/internal/models"
)

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "₹50.00", FormatAmount(50))
	assert.Equal(t, "₹0.00", FormatAmount(0))
	assert.Equal(t, "₹10.50", FormatAmount(10.5))
	assert.Equal(t, "₹99.99", FormatAmount(99.994))
}

func TestRenderReceipt_ContainsAllFields(t *testing.T) {
	html, err := RenderReceipt(models.InvoiceData{
		SubscriberName:  "A. Subscriber",
		SubscriberEmail: "a@b.com",
		PlanName:        "Silver",
		PlanPrice:       50,
		InvoiceNumber:   "123456",
		InvoiceDate:     "17 Oct 2026",
	})
	require.NoError(t, err)

	for _, want := range []string{
		"<!DOCTYPE html>",
		"Invoice - Silver",
		"123456",
		"17 Oct 2026",
		"A. Subscriber",
		"a@b.com",
		"Total: ₹50.00",
	} {
		assert.Contains(t, html, want)
	}
}

func TestRenderReceipt_EscapesSubscriberInput(t *testing.T) {
	html, err := RenderReceipt(models.InvoiceData{
		SubscriberName: "<script>alert(1)</script>",
		PlanName:       "Gold",
		PlanPrice:      100,
	})
	require.NoError(t, err)

	assert.NotContains(t, html, "<script>alert(1)</script>")
	assert.Contains(t, html, "&lt;script&gt;")
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "Invoice #654321 - Gold Plan", Subject(models.InvoiceData{InvoiceNumber: "654321", PlanName: "Gold"}))
}
