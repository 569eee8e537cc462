package models

import "time"

// Stage этап сценария оформления подписки.
type Stage string

const (
	StageUnregistered      Stage = "unregistered"
	StageBrowsing          Stage = "browsing"
	StageSelectingPlan     Stage = "selecting_plan"
	StageCollectingInfo    Stage = "collecting_info"
	StageConfirmingPayment Stage = "confirming_payment"
	StagePlanActive        Stage = "plan_active"
)

// Playback состояние воспроизведения видео.
type Playback string

const (
	PlaybackStopped Playback = "stopped"
	PlaybackPlaying Playback = "playing"
	PlaybackPaused  Playback = "paused"
	PlaybackEnded   Playback = "ended"
)

// SessionState состояние единственной сессии просмотра. Живёт только в памяти процесса.
type SessionState struct {
	Stage             Stage      `json:"stage"`
	CurrentPlanID     string     `json:"current_plan_id"`
	SelectedPlanID    string     `json:"selected_plan_id,omitempty"`
	WatchedSeconds    int        `json:"watched_seconds"`
	SubscriberName    string     `json:"subscriber_name"`
	SubscriberEmail   string     `json:"subscriber_email"`
	PlanExpiry        *time.Time `json:"plan_expiry,omitempty"`
	Playback          Playback   `json:"playback"`
	LimitNotice       string     `json:"limit_notice,omitempty"`
	PaymentProcessing bool       `json:"payment_processing"`
	LastInvoice       *Invoice   `json:"last_invoice,omitempty"`
	InvoiceVisible    bool       `json:"invoice_visible"`
}

// PlanOption строка таблицы тарифов с учётом текущего плана.
type PlanOption struct {
	Plan
	Current    bool `json:"current"`
	Downgrade  bool `json:"downgrade"`
	Selectable bool `json:"selectable"`
}

// SessionSnapshot копия состояния с производными полями для клиента.
type SessionSnapshot struct {
	SessionState
	CurrentPlan Plan         `json:"current_plan"`
	Premium     bool         `json:"premium"`
	Plans       []PlanOption `json:"plans"`
}
