package presets

import (
	"testing"

	"github.com/playmatatu/particles/internal/engine"
)

func TestApplyValue(t *testing.T) {
	var c engine.Controls

	tests := []struct {
		key, value string
		wantErr    bool
	}{
		{"dt", "0.002", false},
		{"dt", "0", true},
		{"gravity", "9.81", false},
		{"damping", "abc", true},
		{"force_mode", "vortex", false},
		{"force_mode", "swirl", true},
		{"static_friction", "true", false},
		{"commission_flat", "10", true},
	}
	for _, tt := range tests {
		err := ApplyValue(&c, tt.key, tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("ApplyValue(%s=%s) error = %v, wantErr %v", tt.key, tt.value, err, tt.wantErr)
		}
	}

	if c.DT() != 0.002 {
		t.Errorf("dt not applied, got %v", c.DT())
	}
	if c.ForceMode() != engine.ForceVortex {
		t.Errorf("force mode not applied, got %v", c.ForceMode())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		typ, value string
		ok         bool
	}{
		{"int", "12", true},
		{"int", "1.5", false},
		{"float", "1.5", true},
		{"float", "x", false},
		{"bool", "true", true},
		{"bool", "yes", false},
		{"string", "anything", true},
	}
	for _, tt := range tests {
		if err := Validate(tt.typ, tt.value); (err == nil) != tt.ok {
			t.Errorf("Validate(%s, %q) = %v", tt.typ, tt.value, err)
		}
	}
}
