package rules

import (
	"slices"
	"sync"
	"time"
)

// EventType indicates the category of a rules event.
type EventType string

const (
	// Card events
	EventCardPlayed       EventType = "CARD_PLAYED"
	EventActionResolved   EventType = "ACTION_RESOLVED"
	EventPermanentEntered EventType = "PERMANENT_ENTERED"
	EventCardDrawn        EventType = "CARD_DRAWN"

	// Ability and resource events
	EventAbilityActivated EventType = "ABILITY_ACTIVATED"
	EventUnitsGained      EventType = "UNITS_GAINED"
	EventPointsGained     EventType = "POINTS_GAINED"

	// Combat events
	EventAttackDeclared    EventType = "ATTACK_DECLARED"
	EventAttackPending     EventType = "ATTACK_PENDING"
	EventAttackResolved    EventType = "ATTACK_RESOLVED"
	EventAttackBlocked     EventType = "ATTACK_BLOCKED"
	EventInstanceDestroyed EventType = "INSTANCE_DESTROYED"
	EventDefenseSkipped    EventType = "DEFENSE_SKIPPED"

	// Turn events
	EventTurnEnded   EventType = "TURN_ENDED"
	EventTurnStarted EventType = "TURN_STARTED"
	EventGameWon     EventType = "GAME_WON"
)

// Event represents a state change that other subsystems may react to.
// Events produced by the engine carry no timestamp; the session layer stamps
// them when they are published.
type Event struct {
	Type      EventType         `json:"type"`
	GameID    string            `json:"gameId,omitempty"`
	Player    string            `json:"player,omitempty"`   // seat key of the player the event concerns
	SourceID  string            `json:"sourceId,omitempty"` // card or instance that caused it
	TargetID  string            `json:"targetId,omitempty"`
	Amount    int               `json:"amount,omitempty"`
	Timestamp time.Time         `json:"timestamp,omitzero"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// NewEvent creates an unstamped event.
func NewEvent(eventType EventType, player, sourceID, targetID string) Event {
	return Event{
		Type:     eventType,
		Player:   player,
		SourceID: sourceID,
		TargetID: targetID,
	}
}

// NewEventWithAmount creates an unstamped event with an amount value.
func NewEventWithAmount(eventType EventType, player, sourceID, targetID string, amount int) Event {
	evt := NewEvent(eventType, player, sourceID, targetID)
	evt.Amount = amount
	return evt
}

// WithMeta returns a copy of the event with an extra metadata entry.
func (e Event) WithMeta(key, value string) Event {
	meta := make(map[string]string, len(e.Metadata)+1)
	for k, v := range e.Metadata {
		meta[k] = v
	}
	meta[key] = value
	e.Metadata = meta
	return e
}

// Stamp sets the game id and timestamp on every event.
func Stamp(events []Event, gameID string, at time.Time) []Event {
	out := make([]Event, len(events))
	for i, evt := range events {
		evt.GameID = gameID
		evt.Timestamp = at
		out[i] = evt
	}
	return out
}

// Listener defines a callback that reacts to incoming events.
type Listener func(Event)

type subscription struct {
	handle int
	types  []EventType // empty matches every type
	fn     Listener
}

func (sub subscription) wants(t EventType) bool {
	return len(sub.types) == 0 || slices.Contains(sub.types, t)
}

// EventBus is a synchronous publish/subscribe hub. Listeners are called in
// the order they subscribed.
type EventBus struct {
	mu         sync.RWMutex
	subs       []subscription
	nextHandle int
}

// NewEventBus constructs a fresh event bus instance.
func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe registers a listener for all events and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	return bus.add(listener, nil)
}

// SubscribeTyped registers a listener for the given event types only.
func (bus *EventBus) SubscribeTyped(listener Listener, types ...EventType) int {
	if len(types) == 0 {
		return -1
	}
	return bus.add(listener, slices.Clone(types))
}

func (bus *EventBus) add(listener Listener, types []EventType) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.subs = append(bus.subs, subscription{handle: handle, types: types, fn: listener})
	return handle
}

// Unsubscribe removes the listener identified by handle.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.subs = slices.DeleteFunc(slices.Clone(bus.subs), func(sub subscription) bool {
		return sub.handle == handle
	})
}

// Len returns the number of registered listeners.
func (bus *EventBus) Len() int {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	return len(bus.subs)
}

// Publish delivers the event to every interested listener synchronously.
// Listeners must not subscribe or unsubscribe from within the callback.
func (bus *EventBus) Publish(event Event) {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	for _, sub := range bus.subs {
		if sub.wants(event.Type) {
			sub.fn(event)
		}
	}
}

// PublishBatch publishes multiple events in order.
func (bus *EventBus) PublishBatch(events []Event) {
	for _, event := range events {
		bus.Publish(event)
	}
}
