package rules

import (
	"strings"
	"testing"
	"time"
)

func TestEventBusSubscribeTyped(t *testing.T) {
	bus := NewEventBus()

	var combat, wins []EventType
	combatHandle := bus.SubscribeTyped(func(e Event) {
		combat = append(combat, e.Type)
	}, EventAttackDeclared, EventAttackResolved)
	winHandle := bus.SubscribeTyped(func(e Event) {
		wins = append(wins, e.Type)
	}, EventGameWon)

	bus.PublishBatch([]Event{
		NewEvent(EventCardPlayed, "player1", "card1", ""),
		NewEventWithAmount(EventAttackDeclared, "player1", "inst_1", "", 2),
		NewEventWithAmount(EventAttackResolved, "player1", "inst_1", "", 2),
		NewEventWithAmount(EventGameWon, "player1", "", "", 13),
	})
	if len(combat) != 2 || combat[0] != EventAttackDeclared || combat[1] != EventAttackResolved {
		t.Fatalf("unexpected combat events %v", combat)
	}
	if len(wins) != 1 {
		t.Fatalf("expected one win event, got %v", wins)
	}

	bus.Unsubscribe(combatHandle)
	bus.Publish(NewEvent(EventAttackDeclared, "player2", "inst_2", ""))
	if len(combat) != 2 {
		t.Fatalf("expected no combat delivery after unsubscribe, got %v", combat)
	}

	bus.Unsubscribe(winHandle)
	if bus.Len() != 0 {
		t.Fatalf("expected no listeners left, got %d", bus.Len())
	}
}

func TestEventBusDeliversInSubscriptionOrder(t *testing.T) {
	bus := NewEventBus()

	var order []string
	for _, name := range []string{"a", "b", "c", "d"} {
		bus.Subscribe(func(Event) { order = append(order, name) })
	}
	bus.Publish(NewEvent(EventTurnEnded, "player1", "", ""))

	if strings.Join(order, "") != "abcd" {
		t.Fatalf("listeners called out of order: %v", order)
	}
}

func TestEventBusSubscribeAll(t *testing.T) {
	bus := NewEventBus()

	var seen []EventType
	handle := bus.Subscribe(func(e Event) {
		seen = append(seen, e.Type)
	})

	bus.PublishBatch([]Event{
		NewEvent(EventTurnEnded, "player1", "", ""),
		NewEvent(EventTurnStarted, "player2", "", ""),
		NewEvent(EventCardDrawn, "player2", "", ""),
	})

	if len(seen) != 3 {
		t.Fatalf("expected 3 events, got %d", len(seen))
	}
	if seen[0] != EventTurnEnded || seen[2] != EventCardDrawn {
		t.Fatalf("events delivered out of order: %v", seen)
	}

	bus.Unsubscribe(handle)
	bus.Publish(NewEvent(EventGameWon, "player1", "", ""))
	if len(seen) != 3 {
		t.Fatalf("expected no delivery after unsubscribe, got %d events", len(seen))
	}
}

func TestEventBusIgnoresNilListeners(t *testing.T) {
	bus := NewEventBus()
	if h := bus.Subscribe(nil); h != -1 {
		t.Fatalf("expected -1 handle for nil listener, got %d", h)
	}
	if h := bus.SubscribeTyped(nil, EventGameWon); h != -1 {
		t.Fatalf("expected -1 handle for nil typed listener, got %d", h)
	}
	if h := bus.SubscribeTyped(func(Event) {}); h != -1 {
		t.Fatalf("expected -1 handle for a typed listener without types, got %d", h)
	}
}

func TestStamp(t *testing.T) {
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	events := []Event{NewEvent(EventCardPlayed, "player1", "c", "")}

	stamped := Stamp(events, "game-1", at)
	if stamped[0].GameID != "game-1" || !stamped[0].Timestamp.Equal(at) {
		t.Fatalf("event not stamped: %+v", stamped[0])
	}
	if !events[0].Timestamp.IsZero() {
		t.Fatalf("Stamp modified its input")
	}
}

func TestWithMetaCopies(t *testing.T) {
	base := NewEvent(EventAttackDeclared, "player1", "inst_1", "")
	a := base.WithMeta("level", "2")
	b := a.WithMeta("cost", "1")

	if base.Metadata != nil {
		t.Fatalf("base event metadata should stay nil")
	}
	if len(a.Metadata) != 1 || len(b.Metadata) != 2 {
		t.Fatalf("unexpected metadata sizes %d, %d", len(a.Metadata), len(b.Metadata))
	}
}
