package invoice

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"
)

const (
	minNumber       = 100000
	numberSpace     = 900000
	maxDrawAttempts = 10
	// reservationTTL сколько номер считается занятым в Redis.
	reservationTTL = 30 * 24 * time.Hour
)

// ErrNumberSpaceExhausted за maxDrawAttempts попыток не нашлось свободного номера.
var ErrNumberSpaceExhausted = errors.New("could not draw a free invoice number")

// Registry резервирует выданные номера счетов.
type Registry interface {
	Reserve(ctx context.Context, number string) (bool, error)
}

// NumberGenerator выдаёт случайные шестизначные номера, не повторяя занятые в реестре.
type NumberGenerator struct {
	registry Registry
	draw     func() int
}

// NewNumberGenerator создаёт генератор поверх реестра.
func NewNumberGenerator(registry Registry) *NumberGenerator {
	return &NumberGenerator{
		registry: registry,
		draw:     func() int { return minNumber + rand.IntN(numberSpace) },
	}
}

// Next возвращает новый номер счёта.
func (g *NumberGenerator) Next(ctx context.Context) (string, error) {
	const op = "invoice.NumberGenerator.Next"
	for range maxDrawAttempts {
		number := strconv.Itoa(g.draw())
		ok, err := g.registry.Reserve(ctx, number)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		if ok {
			return number, nil
		}
	}
	return "", fmt.Errorf("%s: %w", op, ErrNumberSpaceExhausted)
}

// MemoryRegistry хранит выданные номера в памяти процесса.
type MemoryRegistry struct {
	mu     sync.Mutex
	issued map[string]struct{}
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{issued: make(map[string]struct{})}
}

func (r *MemoryRegistry) Reserve(_ context.Context, number string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.issued[number]; ok {
		return false, nil
	}
	r.issued[number] = struct{}{}
	return true, nil
}

// KeyReserver хранилище с атомарным захватом ключа, например Redis SET NX.
type KeyReserver interface {
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// RedisRegistry резервирует номера в Redis под ключами invoice:<номер>.
type RedisRegistry struct {
	store KeyReserver
}

func NewRedisRegistry(store KeyReserver) *RedisRegistry {
	return &RedisRegistry{store: store}
}

func (r *RedisRegistry) Reserve(ctx context.Context, number string) (bool, error) {
	return r.store.Reserve(ctx, "invoice:"+number, reservationTTL)
}
