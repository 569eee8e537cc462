package session

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/subscription-plans/internal/models"
)

// Ticker источник тиков просмотра.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory создаёт Ticker с заданным периодом.
type TickerFactory func(d time.Duration) Ticker

type timeTicker struct {
	t *time.Ticker
}

// NewTimeTicker Ticker на основе time.Ticker.
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }

func (t timeTicker) Stop() { t.t.Stop() }

type tickSource struct {
	ticker Ticker
	done   chan struct{}
}

// Play запускает учёт просмотра. Если лимит уже исчерпан, воспроизведение
// сразу ставится на паузу.
func (c *Controller) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.state.LimitNotice = ""
	if c.limitReachedLocked() {
		c.stopTickLocked()
		return
	}

	c.state.Playback = models.PlaybackPlaying
	c.startTickLocked()
}

// Pause останавливает учёт просмотра.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopTickLocked()
	c.state.Playback = models.PlaybackPaused
}

// Ended останавливает учёт просмотра в конце ролика.
func (c *Controller) Ended() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopTickLocked()
	c.state.Playback = models.PlaybackEnded
}

// limitReachedLocked ставит паузу и показывает уведомление, если лимит исчерпан.
func (c *Controller) limitReachedLocked() bool {
	plan := c.currentPlanLocked()
	if !plan.LimitReached(c.state.WatchedSeconds) {
		return false
	}
	c.state.Playback = models.PlaybackPaused
	c.state.LimitNotice = fmt.Sprintf("You've reached your %s plan's viewing limit. Please upgrade for more.", plan.Name)
	return true
}

func (c *Controller) startTickLocked() {
	c.stopTickLocked()

	c.generation++
	src := &tickSource{
		ticker: c.newTicker(c.tickInterval),
		done:   make(chan struct{}),
	}
	c.tick = src

	go c.runTicks(c.generation, src)
}

func (c *Controller) stopTickLocked() {
	if c.tick == nil {
		return
	}
	c.tick.ticker.Stop()
	close(c.tick.done)
	c.tick = nil
}

func (c *Controller) runTicks(gen uint64, src *tickSource) {
	for {
		select {
		case <-src.done:
			return
		case <-src.ticker.C():
			c.onTick(gen)
		}
	}
}

func (c *Controller) onTick(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation || c.tick == nil || c.state.Playback != models.PlaybackPlaying {
		return
	}

	c.state.WatchedSeconds++
	if c.metrics != nil {
		c.metrics.SetWatched(c.state.WatchedSeconds)
	}

	if c.limitReachedLocked() {
		c.stopTickLocked()
		plan := c.currentPlanLocked()
		if c.metrics != nil {
			c.metrics.LimitReached(plan.ID)
		}
		c.log.Info("viewing limit reached",
			slog.String("op", "services.session.onTick"),
			slog.String("plan", plan.ID),
			slog.Int("watched_seconds", c.state.WatchedSeconds),
		)
	}
}
