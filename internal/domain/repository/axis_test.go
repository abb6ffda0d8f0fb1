package repository

import (
	"testing"

	"AccelStream/internal/domain/models"
)

func TestNormalizeAxis(t *testing.T) {
	props := DefaultAxisProperties()
	cases := map[string]models.Axis{
		"px":     models.AxisX,
		"PY":     models.AxisY,
		" pz ":   models.AxisZ,
		"x":      models.AxisX,
		"z_axis": models.AxisZ,
	}
	for in, want := range cases {
		got, ok := NormalizeAxis(in, props)
		if !ok || got != want {
			t.Fatalf("NormalizeAxis(%q) = %q,%v want %q", in, got, ok, want)
		}
	}
	if _, ok := NormalizeAxis("temperature", props); ok {
		t.Fatalf("expected unknown property to be rejected")
	}
}
