// Package capability defines the closed vocabulary of invocable capabilities
// and the single validated boundary that converts external text and free-form
// string parameters into typed requests.
package capability

import (
	"errors"
	"fmt"

	"github.com/rulegate/rulegate/internal/domain/state"
)

// Sentinel errors for the parsing boundary. Both are true errors, distinct
// from policy violations: callers must not treat them as replanning input.
var (
	// ErrUnknown is returned for a capability identifier that is not
	// registered. Matching is case-sensitive and exact.
	ErrUnknown = errors.New("unknown capability")
	// ErrInvalidParams is returned when parameters are missing, malformed,
	// or outside the closed vocabulary.
	ErrInvalidParams = errors.New("invalid parameters")
)

// ID identifies an invocable capability.
type ID string

const (
	// CheckWeather samples the weather and records it in session state.
	CheckWeather ID = "checkWeather"
	// BuyItem adds an item to the session inventory.
	BuyItem ID = "buyItem"
	// ChooseActivity selects an activity, subject to the action rules.
	ChooseActivity ID = "chooseActivity"
)

// All lists the registered capabilities in declaration order.
func All() []ID {
	return []ID{CheckWeather, BuyItem, ChooseActivity}
}

// ParseID validates a capability identifier. Unlike activity and item
// parsing, the match is case-sensitive: capability names are program
// identifiers, not user vocabulary.
func ParseID(s string) (ID, error) {
	for _, id := range All() {
		if ID(s) == id {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknown, s)
}

// Request is a fully parsed capability invocation. Exactly the fields the
// capability's schema names are set; everything else is nil.
type Request struct {
	Capability ID
	// Item is set for BuyItem.
	Item *state.Item
	// Activity is set for ChooseActivity.
	Activity *state.Activity
}

// ParseRequest converts free-form string parameters into a typed Request for
// the given capability. Unknown parameter keys, missing required keys, and
// values outside the closed vocabulary all yield ErrInvalidParams.
func ParseRequest(id ID, params map[string]string) (Request, error) {
	req := Request{Capability: id}
	switch id {
	case CheckWeather:
		if err := rejectUnknownKeys(params); err != nil {
			return Request{}, err
		}
	case BuyItem:
		raw, ok := params["item"]
		if !ok {
			return Request{}, fmt.Errorf("%w: %s requires an \"item\" parameter", ErrInvalidParams, id)
		}
		if err := rejectUnknownKeys(params, "item"); err != nil {
			return Request{}, err
		}
		item, err := state.ParseItem(raw)
		if err != nil {
			return Request{}, fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}
		req.Item = &item
	case ChooseActivity:
		raw, ok := params["activity"]
		if !ok {
			return Request{}, fmt.Errorf("%w: %s requires an \"activity\" parameter", ErrInvalidParams, id)
		}
		if err := rejectUnknownKeys(params, "activity"); err != nil {
			return Request{}, err
		}
		activity, err := state.ParseActivity(raw)
		if err != nil {
			return Request{}, fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}
		req.Activity = &activity
	default:
		return Request{}, fmt.Errorf("%w: %q", ErrUnknown, id)
	}
	return req, nil
}

// rejectUnknownKeys errors on any parameter key outside allowed. Parameters
// form a closed schema per capability; silently dropping keys would hide
// caller bugs.
func rejectUnknownKeys(params map[string]string, allowed ...string) error {
	for k := range params {
		known := false
		for _, a := range allowed {
			if k == a {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("%w: unexpected parameter %q", ErrInvalidParams, k)
		}
	}
	return nil
}
