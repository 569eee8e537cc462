package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/subscription-plans/internal/models"
)

// ErrNotificationNotFound уведомление не найдено или уже истекло.
var ErrNotificationNotFound = errors.New("notification not found")

// DefaultNotificationTTL время жизни всплывающего уведомления.
const DefaultNotificationTTL = 5 * time.Second

// Notifier лента уведомлений в памяти. Истёкшие записи отбрасываются при обращении.
type Notifier struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items []models.Notification
}

// NewNotifier создаёт ленту с заданным временем жизни записей.
func NewNotifier(ttl time.Duration) *Notifier {
	if ttl <= 0 {
		ttl = DefaultNotificationTTL
	}
	return &Notifier{ttl: ttl, now: time.Now}
}

// Push добавляет уведомление и возвращает его.
func (n *Notifier) Push(message string, typ models.NotificationType) models.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	item := models.Notification{
		ID:        uuid.NewString(),
		Message:   message,
		Type:      typ,
		CreatedAt: n.now(),
	}
	n.pruneLocked()
	n.items = append(n.items, item)
	return item
}

// List живые уведомления, старые первыми.
func (n *Notifier) List() []models.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.pruneLocked()
	out := make([]models.Notification, len(n.items))
	copy(out, n.items)
	return out
}

// Dismiss убирает уведомление до истечения срока.
func (n *Notifier) Dismiss(id string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.pruneLocked()
	for i, item := range n.items {
		if item.ID == id {
			n.items = append(n.items[:i], n.items[i+1:]...)
			return nil
		}
	}
	return ErrNotificationNotFound
}

func (n *Notifier) pruneLocked() {
	now := n.now()
	live := n.items[:0]
	for _, item := range n.items {
		if now.Sub(item.CreatedAt) < n.ttl {
			live = append(live, item)
		}
	}
	clear(n.items[len(live):])
	n.items = live
}
