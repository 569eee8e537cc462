// Package plans хранит статический каталог тарифных планов и правила выбора плана.
package plans

import (
	"errors"

	"github.com/magabrotheeeer/subscription-plans/internal/models"
)

// FreeID идентификатор бесплатного плана.
const FreeID = "free"

// ErrUnknownPlan план с таким идентификатором отсутствует в каталоге.
var ErrUnknownPlan = errors.New("unknown plan")

var catalog = []models.Plan{
	{
		ID:           FreeID,
		Name:         "Free",
		Price:        0,
		LimitSeconds: 300,
		Features:     []string{"5 mins video/day", "Basic quality", "Access to free content"},
	},
	{
		ID:           "bronze",
		Name:         "Bronze",
		Price:        10,
		LimitSeconds: 420,
		Features:     []string{"7 mins video/day", "Standard quality (720p)", "Email support"},
	},
	{
		ID:           "silver",
		Name:         "Silver",
		Price:        50,
		LimitSeconds: 600,
		Features:     []string{"10 mins video/day", "Full HD (1080p)", "Priority email support"},
	},
	{
		ID:        "gold",
		Name:      "Gold",
		Price:     100,
		Unlimited: true,
		Features:  []string{"Unlimited viewing", "4K Ultra HD", "24/7 priority support"},
	},
}

// All возвращает копию каталога в порядке отображения.
func All() []models.Plan {
	out := make([]models.Plan, len(catalog))
	for i, p := range catalog {
		p.Features = append([]string(nil), p.Features...)
		out[i] = p
	}
	return out
}

// Get ищет план по идентификатору.
func Get(id string) (models.Plan, error) {
	for _, p := range catalog {
		if p.ID == id {
			p.Features = append([]string(nil), p.Features...)
			return p, nil
		}
	}
	return models.Plan{}, ErrUnknownPlan
}

// Free возвращает бесплатный план.
func Free() models.Plan {
	p, _ := Get(FreeID)
	return p
}

// IsDowngrade сообщает, что переход с current на target понижает платный план.
// С бесплатного плана понижения не бывает.
func IsDowngrade(current, target models.Plan) bool {
	return !current.IsFree() && target.Price < current.Price
}

// CanSelect сообщает, можно ли выбрать target при текущем плане current.
func CanSelect(current, target models.Plan) bool {
	return !IsDowngrade(current, target)
}

// Options строит таблицу тарифов относительно текущего плана. Текущий план
// можно выбрать повторно, это продлевает подписку.
func Options(currentID string) []models.PlanOption {
	current, err := Get(currentID)
	if err != nil {
		current = Free()
	}
	all := All()
	out := make([]models.PlanOption, 0, len(all))
	for _, p := range all {
		out = append(out, models.PlanOption{
			Plan:       p,
			Current:    p.ID == current.ID,
			Downgrade:  IsDowngrade(current, p),
			Selectable: CanSelect(current, p),
		})
	}
	return out
}
