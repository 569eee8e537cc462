// Package models содержит доменные структуры сервиса тарифных планов:
// план, состояние сессии просмотра, счёт и результат его отправки.
package models

// Plan описывает тарифный план. Лимит просмотра задаётся в секундах в сутки,
// при Unlimited лимит не применяется.
type Plan struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Price        int      `json:"price"`         // Цена в рупиях за месяц, 0 — бесплатный план
	LimitSeconds int      `json:"limit_seconds"` // Дневной лимит просмотра
	Unlimited    bool     `json:"unlimited"`
	Features     []string `json:"features"`
}

// IsFree сообщает, что план бесплатный.
func (p Plan) IsFree() bool {
	return p.Price == 0
}

// LimitReached сообщает, исчерпан ли лимит при данном времени просмотра.
func (p Plan) LimitReached(watchedSeconds int) bool {
	if p.Unlimited {
		return false
	}
	return watchedSeconds >= p.LimitSeconds
}
