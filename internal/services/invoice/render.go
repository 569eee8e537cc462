package invoice

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/magabrotheeeer/subscription-plans/internal/models"
)

// CurrencySymbol префикс суммы в счёте.
const CurrencySymbol = "₹"

//go:embed templates/receipt.html
var templatesFS embed.FS

var receiptTemplate = template.Must(template.ParseFS(templatesFS, "templates/receipt.html"))

type receiptView struct {
	models.InvoiceData
	Amount string
}

// FormatAmount форматирует цену с символом валюты и двумя знаками после запятой.
func FormatAmount(price float64) string {
	return fmt.Sprintf("%s%.2f", CurrencySymbol, price)
}

// RenderReceipt рендерит HTML-квитанцию по данным счёта.
func RenderReceipt(data models.InvoiceData) (string, error) {
	const op = "invoice.RenderReceipt"
	var buf bytes.Buffer
	if err := receiptTemplate.Execute(&buf, receiptView{InvoiceData: data, Amount: FormatAmount(data.PlanPrice)}); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return buf.String(), nil
}

// Subject тема письма со счётом.
func Subject(data models.InvoiceData) string {
	return fmt.Sprintf("Invoice #%s - %s Plan", data.InvoiceNumber, data.PlanName)
}
