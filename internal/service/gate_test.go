package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/rulegate/rulegate/internal/domain/audit"
	"github.com/rulegate/rulegate/internal/domain/capability"
	"github.com/rulegate/rulegate/internal/domain/rule"
	"github.com/rulegate/rulegate/internal/domain/state"
)

// fixedWeather always reports the same condition.
type fixedWeather struct {
	condition state.Weather
}

func (f fixedWeather) Sample() state.Weather { return f.condition }

// recordingAudit captures appended records in memory.
type recordingAudit struct {
	records []audit.Record
	err     error
}

func (r *recordingAudit) Append(_ context.Context, rec audit.Record) error {
	if r.err != nil {
		return r.err
	}
	r.records = append(r.records, rec)
	return nil
}

func (r *recordingAudit) Query(context.Context, audit.Filter) ([]audit.Record, error) {
	return r.records, nil
}

func (r *recordingAudit) Close() error { return nil }

func newTestGate(t *testing.T, weather state.Weather, opts ...GateOption) *Gate {
	t.Helper()
	engine, err := rule.NewEngine(rule.Catalog())
	if err != nil {
		t.Fatal(err)
	}
	opts = append([]GateOption{
		WithWeatherSource(fixedWeather{weather}),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}, opts...)
	return NewGate(engine, opts...)
}

func mustInvoke(t *testing.T, g *Gate, capabilityID string, params map[string]string) Result {
	t.Helper()
	res, err := g.Invoke(context.Background(), capabilityID, params)
	if err != nil {
		t.Fatalf("Invoke(%s, %v): %v", capabilityID, params, err)
	}
	return res
}

func mustAllow(t *testing.T, g *Gate, capabilityID string, params map[string]string) Result {
	t.Helper()
	res := mustInvoke(t, g, capabilityID, params)
	if !res.OK {
		t.Fatalf("Invoke(%s, %v) blocked: %s", capabilityID, params, res.Message)
	}
	return res
}

func TestChooseGamesBlockedThenAllowedAfterPurchases(t *testing.T) {
	g := newTestGate(t, state.WeatherSunny)

	res := mustInvoke(t, g, "chooseActivity", map[string]string{"activity": "play games"})
	if res.OK {
		t.Fatal("games allowed with empty inventory")
	}
	if want := `cannot choose "play games": missing required items: tv, xbox`; res.Message != want {
		t.Errorf("message = %q, want %q", res.Message, want)
	}
	if res.RuleID != "equipment/play-games" {
		t.Errorf("rule id = %q", res.RuleID)
	}
	// Rejection leaves the state untouched.
	if want := "inventory: (empty); weather: unknown; activity: (none)"; res.StateSummary != want {
		t.Errorf("state = %q, want %q", res.StateSummary, want)
	}

	buy := mustAllow(t, g, "buyItem", map[string]string{"item": "tv"})
	if want := `purchased "tv" and added it to the inventory`; buy.Message != want {
		t.Errorf("message = %q, want %q", buy.Message, want)
	}

	res = mustInvoke(t, g, "chooseActivity", map[string]string{"activity": "play games"})
	if res.OK {
		t.Fatal("games allowed with only a tv")
	}
	if want := `cannot choose "play games": missing required item: xbox`; res.Message != want {
		t.Errorf("message = %q, want %q", res.Message, want)
	}

	mustAllow(t, g, "buyItem", map[string]string{"item": "xbox"})

	res = mustAllow(t, g, "chooseActivity", map[string]string{"activity": "play games"})
	if want := "activity chosen: play games"; res.Message != want {
		t.Errorf("message = %q, want %q", res.Message, want)
	}
	if want := "inventory: tv, xbox; weather: unknown; activity: play games"; res.StateSummary != want {
		t.Errorf("state = %q, want %q", res.StateSummary, want)
	}
}

func TestOutdoorActivityRequiresWeatherCheck(t *testing.T) {
	g := newTestGate(t, state.WeatherSunny)
	mustAllow(t, g, "buyItem", map[string]string{"item": "hiking boots"})

	res := mustInvoke(t, g, "chooseActivity", map[string]string{"activity": "go camping"})
	if res.OK {
		t.Fatal("camping allowed with unknown weather")
	}
	if want := `cannot choose "go camping": the weather is unknown, check the weather first`; res.Message != want {
		t.Errorf("message = %q, want %q", res.Message, want)
	}

	check := mustAllow(t, g, "checkWeather", nil)
	if want := "weather check complete: it is sunny"; check.Message != want {
		t.Errorf("message = %q, want %q", check.Message, want)
	}

	mustAllow(t, g, "chooseActivity", map[string]string{"activity": "go camping"})
}

func TestWeatherRestrictions(t *testing.T) {
	t.Run("camping in the rain", func(t *testing.T) {
		g := newTestGate(t, state.WeatherRaining)
		mustAllow(t, g, "buyItem", map[string]string{"item": "hiking boots"})
		mustAllow(t, g, "checkWeather", nil)

		res := mustInvoke(t, g, "chooseActivity", map[string]string{"activity": "go camping"})
		if res.OK {
			t.Fatal("camping allowed in the rain")
		}
		if want := `cannot choose "go camping": the weather is raining`; res.Message != want {
			t.Errorf("message = %q, want %q", res.Message, want)
		}
	})

	t.Run("swimming in the snow", func(t *testing.T) {
		g := newTestGate(t, state.WeatherSnowing)
		mustAllow(t, g, "buyItem", map[string]string{"item": "goggles"})
		mustAllow(t, g, "checkWeather", nil)

		res := mustInvoke(t, g, "chooseActivity", map[string]string{"activity": "swimming"})
		if res.OK {
			t.Fatal("swimming allowed in the snow")
		}
		if want := `cannot choose "swimming": the weather is snowing`; res.Message != want {
			t.Errorf("message = %q, want %q", res.Message, want)
		}
	})

	t.Run("games in any weather", func(t *testing.T) {
		g := newTestGate(t, state.WeatherSnowing)
		mustAllow(t, g, "checkWeather", nil)
		mustAllow(t, g, "buyItem", map[string]string{"item": "tv"})
		mustAllow(t, g, "buyItem", map[string]string{"item": "xbox"})
		mustAllow(t, g, "chooseActivity", map[string]string{"activity": "play games"})
	})
}

func TestRepeatWeatherCheckBlocked(t *testing.T) {
	g := newTestGate(t, state.WeatherSunny)
	mustAllow(t, g, "checkWeather", nil)

	res := mustInvoke(t, g, "checkWeather", nil)
	if res.OK {
		t.Fatal("second weather check allowed")
	}
	if want := "weather already known: sunny"; res.Message != want {
		t.Errorf("message = %q, want %q", res.Message, want)
	}
	if res.RuleID != "weather/single-check" {
		t.Errorf("rule id = %q", res.RuleID)
	}
}

func TestActivityCanBeReplaced(t *testing.T) {
	g := newTestGate(t, state.WeatherSunny)
	mustAllow(t, g, "buyItem", map[string]string{"item": "tv"})
	mustAllow(t, g, "buyItem", map[string]string{"item": "xbox"})
	mustAllow(t, g, "buyItem", map[string]string{"item": "goggles"})
	mustAllow(t, g, "checkWeather", nil)

	mustAllow(t, g, "chooseActivity", map[string]string{"activity": "play games"})
	res := mustAllow(t, g, "chooseActivity", map[string]string{"activity": "swimming"})
	if want := "inventory: tv, xbox, goggles; weather: sunny; activity: swimming"; res.StateSummary != want {
		t.Errorf("state = %q, want %q", res.StateSummary, want)
	}
}

func TestRepeatPurchaseIsIdempotent(t *testing.T) {
	g := newTestGate(t, state.WeatherSunny)
	mustAllow(t, g, "buyItem", map[string]string{"item": "tv"})
	res := mustAllow(t, g, "buyItem", map[string]string{"item": "tv"})
	if want := "inventory: tv; weather: unknown; activity: (none)"; res.StateSummary != want {
		t.Errorf("state = %q, want %q", res.StateSummary, want)
	}
}

func TestInvokeErrorTaxonomy(t *testing.T) {
	g := newTestGate(t, state.WeatherSunny)

	tests := []struct {
		name       string
		capability string
		params     map[string]string
		wantErr    error
	}{
		{"unknown capability", "launchRocket", nil, capability.ErrUnknown},
		{"capability id is case sensitive", "checkweather", nil, capability.ErrUnknown},
		{"unknown item", "buyItem", map[string]string{"item": "kayak"}, capability.ErrInvalidParams},
		{"missing item param", "buyItem", nil, capability.ErrInvalidParams},
		{"unknown activity", "chooseActivity", map[string]string{"activity": "paragliding"}, capability.ErrInvalidParams},
		{"unexpected param", "checkWeather", map[string]string{"item": "tv"}, capability.ErrInvalidParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.Invoke(context.Background(), tt.capability, tt.params)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	// Errors leave the state untouched.
	if want := "inventory: (empty); weather: unknown; activity: (none)"; g.DescribeState() != want {
		t.Errorf("state = %q, want %q", g.DescribeState(), want)
	}
}

func TestCaseInsensitiveParams(t *testing.T) {
	g := newTestGate(t, state.WeatherSunny)
	mustAllow(t, g, "buyItem", map[string]string{"item": "  TV "})
	mustAllow(t, g, "buyItem", map[string]string{"item": "Xbox"})
	res := mustAllow(t, g, "chooseActivity", map[string]string{"activity": "Play Games"})
	if want := "activity chosen: play games"; res.Message != want {
		t.Errorf("message = %q, want %q", res.Message, want)
	}
}

func TestAuditRecordsDecisions(t *testing.T) {
	rec := &recordingAudit{}
	g := newTestGate(t, state.WeatherSunny, WithAuditStore(rec), WithSessionID("sess-1"))

	mustAllow(t, g, "buyItem", map[string]string{"item": "tv"})
	mustInvoke(t, g, "chooseActivity", map[string]string{"activity": "swimming"})

	if len(rec.records) != 2 {
		t.Fatalf("got %d audit records, want 2", len(rec.records))
	}

	allow := rec.records[0]
	if allow.Decision != audit.DecisionAllow || allow.Capability != "buyItem" || allow.SessionID != "sess-1" {
		t.Errorf("allow record = %+v", allow)
	}
	if allow.RuleID != "" {
		t.Errorf("allow record carries rule id %q", allow.RuleID)
	}

	deny := rec.records[1]
	if deny.Decision != audit.DecisionDeny || deny.Capability != "chooseActivity" {
		t.Errorf("deny record = %+v", deny)
	}
	if deny.RuleID != "equipment/swimming" {
		t.Errorf("deny rule id = %q", deny.RuleID)
	}
	if deny.Activity != "swimming" {
		t.Errorf("deny activity = %q", deny.Activity)
	}
}

func TestAuditFailureDoesNotChangeOutcome(t *testing.T) {
	rec := &recordingAudit{err: errors.New("disk full")}
	g := newTestGate(t, state.WeatherSunny, WithAuditStore(rec))

	res := mustInvoke(t, g, "buyItem", map[string]string{"item": "tv"})
	if !res.OK {
		t.Errorf("invocation failed on audit error: %s", res.Message)
	}
}

func TestParseErrorsNotAudited(t *testing.T) {
	rec := &recordingAudit{}
	g := newTestGate(t, state.WeatherSunny, WithAuditStore(rec))

	_, err := g.Invoke(context.Background(), "buyItem", map[string]string{"item": "kayak"})
	if !errors.Is(err, capability.ErrInvalidParams) {
		t.Fatalf("err = %v", err)
	}
	if len(rec.records) != 0 {
		t.Errorf("parse error produced %d audit records", len(rec.records))
	}
}

func TestDescribeRulesText(t *testing.T) {
	g := newTestGate(t, state.WeatherSunny)
	text := g.DescribeRulesText()

	for _, want := range []string{"Business rules:\n", "1. ", "7. "} {
		if !strings.Contains(text, want) {
			t.Errorf("rules text missing %q:\n%s", want, text)
		}
	}
}

func TestReset(t *testing.T) {
	g := newTestGate(t, state.WeatherSunny)
	mustAllow(t, g, "buyItem", map[string]string{"item": "tv"})
	mustAllow(t, g, "checkWeather", nil)

	g.Reset()

	if want := "inventory: (empty); weather: unknown; activity: (none)"; g.DescribeState() != want {
		t.Errorf("state after reset = %q, want %q", g.DescribeState(), want)
	}
	// A reset session may check the weather again.
	mustAllow(t, g, "checkWeather", nil)
}
