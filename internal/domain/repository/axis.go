package repository

import (
	"strings"

	"AccelStream/internal/domain/models"
)

// DefaultAxisProperties maps device cloud property names to axes.
func DefaultAxisProperties() map[string]models.Axis {
	return map[string]models.Axis{
		"px": models.AxisX,
		"py": models.AxisY,
		"pz": models.AxisZ,
	}
}

// NormalizeAxis resolves a property or axis name ("px", "X", "x_axis") to an axis.
// The second result is false when the name is not recognised.
func NormalizeAxis(name string, props map[string]models.Axis) (models.Axis, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if a, ok := props[n]; ok {
		return a, true
	}
	n = strings.TrimSuffix(n, "_axis")
	a := models.Axis(n)
	if a.Valid() {
		return a, true
	}
	return "", false
}
