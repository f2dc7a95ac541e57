package capability

import (
	"errors"
	"testing"

	"github.com/rulegate/rulegate/internal/domain/state"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		input   string
		want    ID
		wantErr bool
	}{
		{input: "checkWeather", want: CheckWeather},
		{input: "buyItem", want: BuyItem},
		{input: "chooseActivity", want: ChooseActivity},
		// Capability matching is case-sensitive, unlike the item and
		// activity vocabularies.
		{input: "checkweather", wantErr: true},
		{input: "CheckWeather", wantErr: true},
		{input: "shopping", wantErr: true},
		{input: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseID(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknown) {
					t.Fatalf("ParseID(%q) err = %v, want ErrUnknown", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseID(%q) returned error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseID(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseRequest(t *testing.T) {
	tests := []struct {
		name         string
		id           ID
		params       map[string]string
		wantErr      bool
		wantItem     state.Item
		wantActivity state.Activity
	}{
		{name: "check weather no params", id: CheckWeather, params: nil},
		{name: "check weather empty params", id: CheckWeather, params: map[string]string{}},
		{name: "check weather rejects extra key", id: CheckWeather, params: map[string]string{"item": "tv"}, wantErr: true},
		{name: "buy item", id: BuyItem, params: map[string]string{"item": "TV"}, wantItem: state.ItemTV},
		{name: "buy item missing key", id: BuyItem, params: map[string]string{}, wantErr: true},
		{name: "buy item unknown item", id: BuyItem, params: map[string]string{"item": "boat"}, wantErr: true},
		{name: "buy item extra key", id: BuyItem, params: map[string]string{"item": "tv", "color": "black"}, wantErr: true},
		{name: "choose activity", id: ChooseActivity, params: map[string]string{"activity": "Play Games"}, wantActivity: state.ActivityPlayGames},
		{name: "choose activity missing key", id: ChooseActivity, params: nil, wantErr: true},
		{name: "choose activity unknown", id: ChooseActivity, params: map[string]string{"activity": "skydiving"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ParseRequest(tt.id, tt.params)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidParams) {
					t.Fatalf("ParseRequest err = %v, want ErrInvalidParams", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRequest returned error: %v", err)
			}
			if req.Capability != tt.id {
				t.Errorf("request capability = %q, want %q", req.Capability, tt.id)
			}
			if tt.wantItem != "" && (req.Item == nil || *req.Item != tt.wantItem) {
				t.Errorf("request item = %v, want %q", req.Item, tt.wantItem)
			}
			if tt.wantActivity != "" && (req.Activity == nil || *req.Activity != tt.wantActivity) {
				t.Errorf("request activity = %v, want %q", req.Activity, tt.wantActivity)
			}
		})
	}
}
