// Package fsm реализует простой конечный автомат с условиями переходов.
// Автомат не синхронизирован: владелец защищает его своей блокировкой.
package fsm

import (
	"errors"
	"fmt"
)

// ErrNoTransition для пары состояние/событие переход не описан.
var ErrNoTransition = errors.New("no transition available")

// ErrRejected все подходящие переходы отклонены условиями.
var ErrRejected = errors.New("transition rejected by guard")

// Guard проверяет, допустим ли переход. Возвращённая ошибка объясняет отказ.
type Guard[S comparable, E comparable] func(from S, event E) error

type transition[S comparable, E comparable] struct {
	to     S
	guards []Guard[S, E]
}

// Machine конечный автомат над состояниями S и событиями E.
type Machine[S comparable, E comparable] struct {
	current     S
	transitions map[S]map[E][]transition[S, E]
}

// New создаёт автомат в начальном состоянии.
func New[S comparable, E comparable](initial S) *Machine[S, E] {
	return &Machine[S, E]{
		current:     initial,
		transitions: make(map[S]map[E][]transition[S, E]),
	}
}

// Permit добавляет переход from --event--> to. Для одной пары from/event
// можно описать несколько переходов, побеждает первый с прошедшими условиями.
func (m *Machine[S, E]) Permit(from S, event E, to S, guards ...Guard[S, E]) *Machine[S, E] {
	if _, ok := m.transitions[from]; !ok {
		m.transitions[from] = make(map[E][]transition[S, E])
	}
	m.transitions[from][event] = append(m.transitions[from][event], transition[S, E]{to: to, guards: guards})
	return m
}

// Current текущее состояние.
func (m *Machine[S, E]) Current() S {
	return m.current
}

// Fire выполняет переход по событию и возвращает новое состояние.
// Если условие вернуло ошибку, она оборачивается в ErrRejected.
func (m *Machine[S, E]) Fire(event E) (S, error) {
	next, err := m.resolve(event)
	if err != nil {
		return m.current, err
	}
	m.current = next
	return next, nil
}

// CanFire проверяет переход без изменения состояния.
func (m *Machine[S, E]) CanFire(event E) error {
	_, err := m.resolve(event)
	return err
}

func (m *Machine[S, E]) resolve(event E) (S, error) {
	candidates := m.transitions[m.current][event]
	if len(candidates) == 0 {
		return m.current, fmt.Errorf("%w: from %v on %v", ErrNoTransition, m.current, event)
	}

	var rejection error
	for _, t := range candidates {
		if err := checkGuards(t.guards, m.current, event); err != nil {
			if rejection == nil {
				rejection = err
			}
			continue
		}
		return t.to, nil
	}
	return m.current, fmt.Errorf("%w: %w", ErrRejected, rejection)
}

func checkGuards[S comparable, E comparable](guards []Guard[S, E], from S, event E) error {
	for _, g := range guards {
		if g == nil {
			continue
		}
		if err := g(from, event); err != nil {
			return err
		}
	}
	return nil
}
