package rule

import (
	"fmt"
	"strings"

	"github.com/rulegate/rulegate/internal/domain/capability"
	"github.com/rulegate/rulegate/internal/domain/state"
)

// Requirements maps each activity to its required items in declaration
// order. Violation messages list missing items in this order.
func Requirements(a state.Activity) []state.Item {
	switch a {
	case state.ActivityPlayGames:
		return []state.Item{state.ItemTV, state.ItemXbox}
	case state.ActivityGoCamping:
		return []state.Item{state.ItemHikingBoots}
	case state.ActivitySwimming:
		return []state.Item{state.ItemGoggles}
	}
	return nil
}

// Catalog returns the built-in rule set in its committed registration order:
// one equipment rule per activity, the weather restrictions, the
// unknown-weather restriction, then the single-weather-check rule.
func Catalog() []Rule {
	return []Rule{
		equipmentRule(state.ActivityPlayGames),
		equipmentRule(state.ActivityGoCamping),
		equipmentRule(state.ActivitySwimming),
		weatherRestrictionRule(state.ActivityGoCamping, state.WeatherRaining),
		weatherRestrictionRule(state.ActivitySwimming, state.WeatherSnowing),
		unknownWeatherRule(),
		singleWeatherCheckRule(),
	}
}

// equipmentRule fails activity selection when required items are missing.
// The violation always names the specific missing items, never a generic
// "requirements not met".
func equipmentRule(activity state.Activity) Rule {
	required := Requirements(activity)
	return Rule{
		ID:          "equipment/" + slug(activity),
		Category:    CategoryAction,
		Description: fmt.Sprintf("%q requires owning %s", activity, joinItems(required)),
		Check: func(snap state.Snapshot, p Params) Result {
			if p.Activity == nil || *p.Activity != activity {
				return Allow()
			}
			missing := snap.Missing(required)
			if len(missing) == 0 {
				return Allow()
			}
			noun := "items"
			if len(missing) == 1 {
				noun = "item"
			}
			return Deny(fmt.Sprintf("cannot choose %q: missing required %s: %s",
				activity, noun, joinItems(missing)))
		},
	}
}

// weatherRestrictionRule fails activity selection under the offending
// weather condition.
func weatherRestrictionRule(activity state.Activity, blocked state.Weather) Rule {
	return Rule{
		ID:          "weather/" + slug(activity),
		Category:    CategoryAction,
		Description: fmt.Sprintf("%q is not allowed while the weather is %s", activity, blocked),
		Check: func(snap state.Snapshot, p Params) Result {
			if p.Activity == nil || *p.Activity != activity {
				return Allow()
			}
			if snap.Weather == blocked {
				return Deny(fmt.Sprintf("cannot choose %q: the weather is %s", activity, blocked))
			}
			return Allow()
		},
	}
}

// unknownWeatherRule blocks every activity except playing games until the
// weather has been checked.
func unknownWeatherRule() Rule {
	return Rule{
		ID:          "weather/unknown",
		Category:    CategoryAction,
		Description: fmt.Sprintf("the weather must be known before choosing anything other than %q", state.ActivityPlayGames),
		Check: func(snap state.Snapshot, p Params) Result {
			if p.Activity == nil || snap.Weather != state.WeatherUnknown {
				return Allow()
			}
			if *p.Activity == state.ActivityPlayGames {
				return Allow()
			}
			return Deny(fmt.Sprintf("cannot choose %q: the weather is unknown, check the weather first",
				*p.Activity))
		},
	}
}

// singleWeatherCheckRule blocks a repeat weather check, citing the value
// already on record.
func singleWeatherCheckRule() Rule {
	return Rule{
		ID:          "weather/single-check",
		Category:    CategoryCapability,
		Description: "the weather may be checked only once per session",
		Check: func(snap state.Snapshot, p Params) Result {
			if p.Capability != capability.CheckWeather {
				return Allow()
			}
			if snap.WeatherChecked {
				return Deny(fmt.Sprintf("weather already known: %s", snap.Weather))
			}
			return Allow()
		},
	}
}

func joinItems(items []state.Item) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = string(it)
	}
	return strings.Join(parts, ", ")
}

func slug(a state.Activity) string {
	return strings.ReplaceAll(string(a), " ", "-")
}
