package send

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/magabrotheeeer/subscription-plans/internal/models"
)

// ErrFieldType поле тела запроса имеет неподходящий тип.
var ErrFieldType = errors.New("unexpected field type")

// invoiceData переносит поля запроса в InvoiceData. Числа принимаются вместо
// строк и наоборот. Поля, которые не удалось привести, остаются пустыми и
// перечисляются в ошибке.
func invoiceData(raw map[string]any) (models.InvoiceData, error) {
	var (
		data models.InvoiceData
		errs []error
	)

	text := func(key string, dst *string) {
		switch v := raw[key].(type) {
		case nil:
		case string:
			*dst = v
		case json.Number:
			*dst = v.String()
		default:
			errs = append(errs, fmt.Errorf("%w: %s", ErrFieldType, key))
		}
	}

	text("subscriberName", &data.SubscriberName)
	text("subscriberEmail", &data.SubscriberEmail)
	text("planName", &data.PlanName)
	text("invoiceNumber", &data.InvoiceNumber)
	text("invoiceDate", &data.InvoiceDate)

	switch v := raw["planPrice"].(type) {
	case nil:
	case json.Number:
		price, err := v.Float64()
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: planPrice: %w", ErrFieldType, err))
			break
		}
		data.PlanPrice = price
	case string:
		price, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: planPrice: %w", ErrFieldType, err))
			break
		}
		data.PlanPrice = price
	default:
		errs = append(errs, fmt.Errorf("%w: planPrice", ErrFieldType))
	}

	return data, errors.Join(errs...)
}
