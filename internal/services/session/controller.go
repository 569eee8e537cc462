// Package session управляет единственной сессией просмотра: этапами
// оформления подписки, сменой плана, лимитом просмотра и уведомлениями.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/magabrotheeeer/subscription-plans/internal/config"
	"github.com/magabrotheeeer/subscription-plans/internal/lib/fsm"
	"github.com/magabrotheeeer/subscription-plans/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-plans/internal/lib/validation"
	"github.com/magabrotheeeer/subscription-plans/internal/models"
	"github.com/magabrotheeeer/subscription-plans/internal/plans"
)

var (
	ErrInvalidEmail        = errors.New("invalid email")
	ErrInvalidName         = errors.New("invalid name")
	ErrUnknownPlan         = plans.ErrUnknownPlan
	ErrDowngradeNotAllowed = errors.New("downgrade not allowed")
	ErrPaymentInProgress   = errors.New("payment already in progress")
	ErrNothingToCancel     = errors.New("no paid plan to cancel")
	ErrWrongStage          = errors.New("operation not allowed at current stage")
	ErrNoInvoice           = errors.New("no invoice issued yet")
	ErrClosed              = errors.New("session controller closed")
)

const (
	MessageInvalidEmail = "Please enter a valid email address."
	MessageInvalidName  = "Please enter your name."
	MessageCanceled     = "Your subscription has been canceled."

	invoiceDateLayout = "1/2/2006"
)

// InvoiceSender отправляет счёт подписчику.
type InvoiceSender interface {
	Deliver(ctx context.Context, data models.InvoiceData) models.DeliveryResult
}

// NumberSource выдаёт уникальные номера счетов.
type NumberSource interface {
	Next(ctx context.Context) (string, error)
}

// Metrics учёт переходов и просмотра.
type Metrics interface {
	PlanActivated(planID string)
	PlanCanceled(planID string)
	LimitReached(planID string)
	SetWatched(seconds int)
}

type event string

const (
	eventRegister event = "register"
	eventSelect   event = "select_plan"
	eventOpenForm event = "open_form"
	eventSubmit   event = "submit_subscriber"
	eventAbandon  event = "abandon"
	eventCommit   event = "commit_payment"
	eventCancel   event = "cancel"
)

// Controller единственный владелец состояния сессии. Все операции
// выполняются под одной блокировкой.
type Controller struct {
	mu sync.Mutex

	log      *slog.Logger
	machine  *fsm.Machine[models.Stage, event]
	state    models.SessionState
	notifier *Notifier

	sender    InvoiceSender
	numbers   NumberSource
	publisher Publisher
	metrics   Metrics

	paymentDelay     time.Duration
	invoiceViewDelay time.Duration
	tickInterval     time.Duration
	planDuration     time.Duration
	newTicker        TickerFactory
	now              func() time.Time

	// target план, который проверяют условия переходов выбора
	target models.Plan

	generation   uint64
	tick         *tickSource
	paymentTimer *time.Timer
	invoiceTimer *time.Timer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
}

// Option настраивает Controller.
type Option func(*Controller)

// WithSessionConfig берёт задержки и сроки из конфигурации.
func WithSessionConfig(cfg config.Session) Option {
	return func(c *Controller) {
		if cfg.PaymentDelay > 0 {
			c.paymentDelay = cfg.PaymentDelay
		}
		if cfg.InvoiceViewDelay > 0 {
			c.invoiceViewDelay = cfg.InvoiceViewDelay
		}
		if cfg.TickInterval > 0 {
			c.tickInterval = cfg.TickInterval
		}
		if cfg.PlanDuration > 0 {
			c.planDuration = cfg.PlanDuration
		}
	}
}

// WithDelays задержка подтверждения оплаты и показа счёта.
func WithDelays(payment, invoiceView time.Duration) Option {
	return func(c *Controller) {
		c.paymentDelay = payment
		c.invoiceViewDelay = invoiceView
	}
}

// WithTickerFactory подменяет источник тиков просмотра.
func WithTickerFactory(f TickerFactory) Option {
	return func(c *Controller) { c.newTicker = f }
}

// WithClock подменяет текущее время.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithNotifier подключает внешнюю ленту уведомлений.
func WithNotifier(n *Notifier) Option {
	return func(c *Controller) { c.notifier = n }
}

// WithPublisher включает публикацию доменных событий.
func WithPublisher(p Publisher) Option {
	return func(c *Controller) { c.publisher = p }
}

// WithMetrics подключает метрики.
func WithMetrics(m Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// New создаёт контроллер на бесплатном плане в этапе unregistered.
func New(log *slog.Logger, sender InvoiceSender, numbers NumberSource, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		log:              log,
		sender:           sender,
		numbers:          numbers,
		paymentDelay:     time.Second,
		invoiceViewDelay: 500 * time.Millisecond,
		tickInterval:     time.Second,
		planDuration:     30 * 24 * time.Hour,
		newTicker:        NewTimeTicker,
		now:              time.Now,
		ctx:              ctx,
		cancel:           cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.notifier == nil {
		c.notifier = NewNotifier(DefaultNotificationTTL)
	}

	c.machine = c.buildMachine(models.StageUnregistered)
	c.state = models.SessionState{
		Stage:         c.machine.Current(),
		CurrentPlanID: plans.FreeID,
		Playback:      models.PlaybackStopped,
	}
	return c
}

// buildMachine описывает граф этапов сессии, начиная с этапа initial.
func (c *Controller) buildMachine(initial models.Stage) *fsm.Machine[models.Stage, event] {
	m := fsm.New[models.Stage, event](initial)

	m.Permit(models.StageUnregistered, eventRegister, models.StageBrowsing)

	for _, from := range []models.Stage{
		models.StageBrowsing,
		models.StagePlanActive,
		models.StageSelectingPlan,
		models.StageCollectingInfo,
	} {
		m.Permit(from, eventSelect, models.StageSelectingPlan, c.guardNoDowngrade)
	}
	m.Permit(models.StageSelectingPlan, eventOpenForm, models.StageCollectingInfo)
	m.Permit(models.StageCollectingInfo, eventSubmit, models.StageConfirmingPayment)

	for _, from := range []models.Stage{
		models.StageSelectingPlan,
		models.StageCollectingInfo,
		models.StageConfirmingPayment,
	} {
		m.Permit(from, eventAbandon, models.StagePlanActive, c.guardNotProcessing, c.guardPaidPlan)
		m.Permit(from, eventAbandon, models.StageBrowsing, c.guardNotProcessing)
	}

	m.Permit(models.StageConfirmingPayment, eventCommit, models.StagePlanActive)
	m.Permit(models.StagePlanActive, eventCancel, models.StageBrowsing)
	return m
}

func (c *Controller) guardNoDowngrade(models.Stage, event) error {
	if !plans.CanSelect(c.currentPlanLocked(), c.target) {
		return ErrDowngradeNotAllowed
	}
	return nil
}

func (c *Controller) guardNotProcessing(models.Stage, event) error {
	if c.state.PaymentProcessing {
		return ErrPaymentInProgress
	}
	return nil
}

func (c *Controller) guardPaidPlan(models.Stage, event) error {
	if c.currentPlanLocked().IsFree() {
		return ErrNothingToCancel
	}
	return nil
}

// fireLocked выполняет переход и переводит ошибки автомата в ошибки пакета.
func (c *Controller) fireLocked(ev event) error {
	stage, err := c.machine.Fire(ev)
	if err != nil {
		if errors.Is(err, fsm.ErrNoTransition) {
			return fmt.Errorf("%w: %s at %s", ErrWrongStage, ev, c.machine.Current())
		}
		return err
	}
	c.state.Stage = stage
	return nil
}

func (c *Controller) currentPlanLocked() models.Plan {
	p, err := plans.Get(c.state.CurrentPlanID)
	if err != nil {
		return plans.Free()
	}
	return p
}

// Register запоминает email подписчика и открывает каталог.
func (c *Controller) Register(email string) error {
	const op = "services.session.Register"

	c.mu.Lock()
	defer c.mu.Unlock()

	email = strings.TrimSpace(email)
	if !validation.IsEmail(email) {
		c.notifier.Push(MessageInvalidEmail, models.NotificationError)
		return fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}
	if err := c.fireLocked(eventRegister); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	c.state.SubscriberEmail = email
	c.log.Info("subscriber registered", slog.String("op", op), slog.String("email", email))
	return nil
}

// SelectPlan выбирает план для оформления и открывает форму данных подписчика.
func (c *Controller) SelectPlan(planID string) error {
	const op = "services.session.SelectPlan"

	c.mu.Lock()
	defer c.mu.Unlock()

	target, err := plans.Get(planID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, ErrUnknownPlan)
	}

	c.target = target
	if err := c.fireLocked(eventSelect); err != nil {
		if errors.Is(err, ErrDowngradeNotAllowed) {
			current := c.currentPlanLocked()
			c.notifier.Push(
				fmt.Sprintf("You cannot switch from %s to the lower-priced %s plan.", current.Name, target.Name),
				models.NotificationError,
			)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	c.state.SelectedPlanID = target.ID

	if err := c.fireLocked(eventOpenForm); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SubmitSubscriber сохраняет имя и email плательщика и переходит к оплате.
func (c *Controller) SubmitSubscriber(name, email string) error {
	const op = "services.session.SubmitSubscriber"

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.machine.CanFire(eventSubmit); err != nil {
		return fmt.Errorf("%s: %w", op, ErrWrongStage)
	}

	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		c.notifier.Push(MessageInvalidName, models.NotificationError)
		return fmt.Errorf("%s: %w", op, ErrInvalidName)
	}
	if !validation.IsEmail(email) {
		c.notifier.Push(MessageInvalidEmail, models.NotificationError)
		return fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	if err := c.fireLocked(eventSubmit); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	c.state.SubscriberName = name
	c.state.SubscriberEmail = email
	return nil
}

// AbandonCheckout закрывает оформление без оплаты.
func (c *Controller) AbandonCheckout() error {
	const op = "services.session.AbandonCheckout"

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.fireLocked(eventAbandon); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	c.state.SelectedPlanID = ""
	return nil
}

// ConfirmPayment выписывает счёт и через паузу применяет выбранный план.
// Возвращает выписанный счёт сразу, до применения. Номер счёта выдаётся без
// блокировки сессии, на это время сессия помечена как обрабатывающая оплату.
func (c *Controller) ConfirmPayment(ctx context.Context) (models.Invoice, error) {
	const op = "services.session.ConfirmPayment"

	plan, err := c.beginPayment()
	if err != nil {
		return models.Invoice{}, fmt.Errorf("%s: %w", op, err)
	}

	number, err := c.numbers.Next(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.state.PaymentProcessing = false
		c.log.Error("failed to draw invoice number", slog.String("op", op), sl.Err(err))
		return models.Invoice{}, fmt.Errorf("%s: %w", op, err)
	}
	if c.closed {
		c.state.PaymentProcessing = false
		return models.Invoice{}, fmt.Errorf("%s: %w", op, ErrClosed)
	}

	issued := c.now()
	invoice := models.Invoice{
		Number:          number,
		IssuedAt:        issued,
		Date:            issued.Format(invoiceDateLayout),
		SubscriberName:  c.state.SubscriberName,
		SubscriberEmail: c.state.SubscriberEmail,
		PlanID:          plan.ID,
		PlanName:        plan.Name,
		PlanPrice:       float64(plan.Price),
	}

	c.paymentTimer = time.AfterFunc(c.paymentDelay, func() { c.commitPayment(invoice) })

	c.log.Info("payment confirmed",
		slog.String("op", op),
		slog.String("plan", plan.ID),
		slog.String("invoice_number", number),
	)
	return invoice, nil
}

// beginPayment проверяет этап и занимает сессию под оплату выбранного плана.
func (c *Controller) beginPayment() (models.Plan, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return models.Plan{}, ErrClosed
	}
	if c.state.PaymentProcessing {
		return models.Plan{}, ErrPaymentInProgress
	}
	if err := c.machine.CanFire(eventCommit); err != nil {
		return models.Plan{}, ErrWrongStage
	}

	plan, err := plans.Get(c.state.SelectedPlanID)
	if err != nil {
		return models.Plan{}, ErrUnknownPlan
	}

	c.state.PaymentProcessing = true
	return plan, nil
}

func (c *Controller) commitPayment(invoice models.Invoice) {
	const op = "services.session.commitPayment"
	log := c.log.With(slog.String("op", op), slog.String("invoice_number", invoice.Number))

	c.mu.Lock()
	defer c.mu.Unlock()

	c.paymentTimer = nil
	if c.closed {
		return
	}

	plan, err := plans.Get(invoice.PlanID)
	if err != nil {
		log.Error("invoice refers to unknown plan", sl.Err(err))
		c.state.PaymentProcessing = false
		return
	}

	if err := c.fireLocked(eventCommit); err != nil {
		log.Error("failed to commit payment", sl.Err(err))
		c.state.PaymentProcessing = false
		return
	}

	c.state.CurrentPlanID = plan.ID
	c.state.SelectedPlanID = ""
	c.state.WatchedSeconds = 0
	c.state.PaymentProcessing = false
	c.state.PlanExpiry = nil
	if !plan.IsFree() {
		expiry := c.now().Add(c.planDuration)
		c.state.PlanExpiry = &expiry
	}
	c.state.LastInvoice = &invoice
	c.state.InvoiceVisible = false

	if c.metrics != nil {
		c.metrics.PlanActivated(plan.ID)
		c.metrics.SetWatched(0)
	}
	c.publishLocked(EventPlanActivated, Event{
		PlanID:          plan.ID,
		SubscriberEmail: invoice.SubscriberEmail,
		InvoiceNumber:   invoice.Number,
	})
	log.Info("plan activated", slog.String("plan", plan.ID))

	if plan.IsFree() {
		c.notifier.Push(fmt.Sprintf("Successfully upgraded to %s plan!", plan.Name), models.NotificationSuccess)
	} else {
		c.wg.Add(1)
		go c.deliverInvoice(invoice)
	}

	c.invoiceTimer = time.AfterFunc(c.invoiceViewDelay, c.showInvoice)
}

func (c *Controller) deliverInvoice(invoice models.Invoice) {
	defer c.wg.Done()
	const op = "services.session.deliverInvoice"

	res := c.sender.Deliver(c.ctx, invoice.Data())

	c.mu.Lock()
	defer c.mu.Unlock()

	if res.Delivered() {
		c.notifier.Push(
			fmt.Sprintf("Successfully upgraded to %s plan! Invoice has been sent to %s.", invoice.PlanName, invoice.SubscriberEmail),
			models.NotificationSuccess,
		)
		c.publishLocked(EventInvoiceDelivered, Event{
			PlanID:          invoice.PlanID,
			SubscriberEmail: invoice.SubscriberEmail,
			InvoiceNumber:   invoice.Number,
			Message:         res.Message,
		})
		return
	}

	c.log.Warn("invoice delivery failed",
		slog.String("op", op),
		slog.String("invoice_number", invoice.Number),
		slog.String("reason", res.Message),
	)
	c.notifier.Push(
		fmt.Sprintf("Successfully upgraded to %s plan! However, there was an issue sending the invoice email: %s", invoice.PlanName, res.Message),
		models.NotificationError,
	)
	c.publishLocked(EventInvoiceFailed, Event{
		PlanID:          invoice.PlanID,
		SubscriberEmail: invoice.SubscriberEmail,
		InvoiceNumber:   invoice.Number,
		Message:         res.Message,
	})
}

func (c *Controller) showInvoice() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.invoiceTimer = nil
	if c.closed || c.state.LastInvoice == nil {
		return
	}
	c.state.InvoiceVisible = true
}

// Invoice последний выписанный счёт.
func (c *Controller) Invoice() (models.Invoice, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.LastInvoice == nil {
		return models.Invoice{}, ErrNoInvoice
	}
	return *c.state.LastInvoice, nil
}

// CloseInvoice скрывает окно счёта.
func (c *Controller) CloseInvoice() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.invoiceTimer != nil {
		c.invoiceTimer.Stop()
		c.invoiceTimer = nil
	}
	c.state.InvoiceVisible = false
}

// Cancel возвращает сессию на бесплатный план.
func (c *Controller) Cancel() error {
	const op = "services.session.Cancel"

	c.mu.Lock()
	defer c.mu.Unlock()

	previous := c.currentPlanLocked()
	if previous.IsFree() {
		return fmt.Errorf("%s: %w", op, ErrNothingToCancel)
	}

	if c.machine.Current() == models.StagePlanActive {
		if err := c.fireLocked(eventCancel); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	c.state.CurrentPlanID = plans.FreeID
	c.state.PlanExpiry = nil
	c.state.WatchedSeconds = 0

	if c.metrics != nil {
		c.metrics.PlanCanceled(previous.ID)
		c.metrics.SetWatched(0)
	}
	c.publishLocked(EventPlanCanceled, Event{
		PlanID:          previous.ID,
		SubscriberEmail: c.state.SubscriberEmail,
	})
	c.notifier.Push(MessageCanceled, models.NotificationSuccess)
	c.log.Info("subscription canceled", slog.String("op", op), slog.String("plan", previous.ID))
	return nil
}

// Snapshot копия состояния с производными полями.
func (c *Controller) Snapshot() models.SessionSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := c.state
	if state.PlanExpiry != nil {
		expiry := *state.PlanExpiry
		state.PlanExpiry = &expiry
	}
	if state.LastInvoice != nil {
		invoice := *state.LastInvoice
		state.LastInvoice = &invoice
	}

	current := c.currentPlanLocked()
	return models.SessionSnapshot{
		SessionState: state,
		CurrentPlan:  current,
		Premium:      !current.IsFree(),
		Plans:        plans.Options(current.ID),
	}
}

// Notifications живые уведомления сессии.
func (c *Controller) Notifications() []models.Notification {
	return c.notifier.List()
}

// DismissNotification убирает уведомление.
func (c *Controller) DismissNotification(id string) error {
	return c.notifier.Dismiss(id)
}

// Close останавливает тики и таймеры и дожидается фоновых отправок.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.stopTickLocked()
	if c.paymentTimer != nil {
		c.paymentTimer.Stop()
		c.paymentTimer = nil
	}
	if c.invoiceTimer != nil {
		c.invoiceTimer.Stop()
		c.invoiceTimer = nil
	}
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}
