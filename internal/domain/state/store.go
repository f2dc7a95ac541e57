package state

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrWeatherRevert is returned when a mutation would take the weather back to
// unknown after it has been checked. The weather-checked flag never reverts
// within a session; a caller reaching this is an internal invariant breach,
// not a policy violation.
var ErrWeatherRevert = errors.New("weather cannot revert to unknown once checked")

// Store is the passive ledger of session facts. It carries no policy logic;
// the "one weather check" rule and activity restrictions are enforced by the
// gate through the rule engine, never here.
//
// A Store is safe for concurrent use, though the gate serializes all
// invocations within one session.
type Store struct {
	mu        sync.Mutex
	items     map[Item]struct{}
	purchases []Item
	weather   Weather
	checked   bool
	activity  *Activity
}

// NewStore creates an empty session state: no items, unknown weather,
// no chosen activity.
func NewStore() *Store {
	return &Store{
		items:   make(map[Item]struct{}),
		weather: WeatherUnknown,
	}
}

// AddItem records ownership of an item. Duplicates are idempotent for the
// owned set; every call is appended to the purchase history.
func (s *Store) AddItem(item Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item] = struct{}{}
	s.purchases = append(s.purchases, item)
}

// SetWeather unconditionally records the weather and marks it checked.
// Setting WeatherUnknown after a check breaks the session invariant and
// returns ErrWeatherRevert without mutating anything.
func (s *Store) SetWeather(w Weather) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w == WeatherUnknown {
		if s.checked {
			return ErrWeatherRevert
		}
		return nil
	}
	s.weather = w
	s.checked = true
	return nil
}

// SetActivity records the chosen activity.
func (s *Store) SetActivity(a Activity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activity = &a
}

// Reset clears the session back to its initial empty state.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[Item]struct{})
	s.purchases = nil
	s.weather = WeatherUnknown
	s.checked = false
	s.activity = nil
}

// Snapshot returns an immutable copy of the current session facts.
// Rule evaluation always runs against a snapshot so it can never observe a
// state mid-mutation.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Weather:        s.weather,
		WeatherChecked: s.checked,
	}
	// Owned items in vocabulary declaration order keeps snapshots and
	// summaries deterministic.
	for _, it := range Items() {
		if _, ok := s.items[it]; ok {
			snap.Items = append(snap.Items, it)
		}
	}
	snap.Purchases = append(snap.Purchases, s.purchases...)
	if s.activity != nil {
		a := *s.activity
		snap.Activity = &a
	}
	return snap
}

// Snapshot is an immutable view of session state taken at the start of rule
// evaluation. Items appear in vocabulary declaration order.
type Snapshot struct {
	Items          []Item
	Purchases      []Item
	Weather        Weather
	WeatherChecked bool
	Activity       *Activity
}

// Has reports whether the snapshot contains the given item.
func (s Snapshot) Has(item Item) bool {
	for _, it := range s.Items {
		if it == item {
			return true
		}
	}
	return false
}

// Missing returns the subset of required that the snapshot does not own,
// preserving the order of required.
func (s Snapshot) Missing(required []Item) []Item {
	var missing []Item
	for _, it := range required {
		if !s.Has(it) {
			missing = append(missing, it)
		}
	}
	return missing
}

// Summary renders the snapshot as a single human-readable line. Every
// mutating capability result carries this so the calling loop always knows
// the current state without a side-channel query.
func (s Snapshot) Summary() string {
	var b strings.Builder
	b.WriteString("inventory: ")
	if len(s.Items) == 0 {
		b.WriteString("(empty)")
	} else {
		for i, it := range s.Items {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(string(it))
		}
	}
	fmt.Fprintf(&b, "; weather: %s", s.Weather)
	b.WriteString("; activity: ")
	if s.Activity == nil {
		b.WriteString("(none)")
	} else {
		b.WriteString(string(*s.Activity))
	}
	return b.String()
}
