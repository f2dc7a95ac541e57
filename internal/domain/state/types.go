// Package state holds per-session facts the rule engine evaluates against.
package state

import (
	"fmt"
	"strings"
)

// Weather is a known weather condition.
type Weather string

const (
	// WeatherUnknown is the initial condition before any weather check.
	WeatherUnknown Weather = "unknown"
	// WeatherSunny means the sky is clear.
	WeatherSunny Weather = "sunny"
	// WeatherRaining means it is raining.
	WeatherRaining Weather = "raining"
	// WeatherSnowing means it is snowing.
	WeatherSnowing Weather = "snowing"
)

// ParseWeather converts external text into a Weather.
// Matching is case-insensitive; unrecognized text is an error.
func ParseWeather(s string) (Weather, error) {
	switch Weather(strings.ToLower(strings.TrimSpace(s))) {
	case WeatherUnknown:
		return WeatherUnknown, nil
	case WeatherSunny:
		return WeatherSunny, nil
	case WeatherRaining:
		return WeatherRaining, nil
	case WeatherSnowing:
		return WeatherSnowing, nil
	}
	return "", fmt.Errorf("unrecognized weather %q", s)
}

// Activity is one of the closed set of activities a session can choose.
type Activity string

const (
	// ActivityPlayGames is the indoor activity; it is the only activity
	// allowed while the weather is unknown.
	ActivityPlayGames Activity = "play games"
	// ActivityGoCamping requires hiking boots and dry weather.
	ActivityGoCamping Activity = "go camping"
	// ActivitySwimming requires goggles and no snow.
	ActivitySwimming Activity = "swimming"
)

// Activities lists the closed activity vocabulary in declaration order.
func Activities() []Activity {
	return []Activity{ActivityPlayGames, ActivityGoCamping, ActivitySwimming}
}

// ParseActivity converts external text into an Activity.
// Matching is case-insensitive but exact; there is no fuzzy resolution.
// Unrecognized text is an input error, never a rule outcome.
func ParseActivity(s string) (Activity, error) {
	normalized := Activity(strings.ToLower(strings.TrimSpace(s)))
	for _, a := range Activities() {
		if normalized == a {
			return a, nil
		}
	}
	return "", fmt.Errorf("unrecognized activity %q", s)
}

// Item is one of the closed set of purchasable items.
// Item identifiers are stored normalized (lower-case, trimmed).
type Item string

const (
	// ItemTV is required for playing games.
	ItemTV Item = "tv"
	// ItemXbox is required for playing games.
	ItemXbox Item = "xbox"
	// ItemHikingBoots are required for camping.
	ItemHikingBoots Item = "hiking boots"
	// ItemGoggles are required for swimming.
	ItemGoggles Item = "goggles"
)

// Items lists the closed item vocabulary in declaration order.
func Items() []Item {
	return []Item{ItemTV, ItemXbox, ItemHikingBoots, ItemGoggles}
}

// ParseItem converts external text into an Item.
// Matching is case-insensitive but exact.
func ParseItem(s string) (Item, error) {
	normalized := Item(strings.ToLower(strings.TrimSpace(s)))
	for _, it := range Items() {
		if normalized == it {
			return it, nil
		}
	}
	return "", fmt.Errorf("unrecognized item %q", s)
}
