package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type sampleRequest struct {
	Name  string    `json:"name" validate:"required,max=5"`
	Start time.Time `json:"start_time" validate:"required"`
	End   time.Time `json:"end_time" validate:"required,gtfield=Start"`
	Cost  float64   `json:"cost" validate:"gte=0"`
	Kind  string    `json:"kind,omitempty" validate:"omitempty,oneof=single double"`
}

func TestValidateStruct(t *testing.T) {
	start := time.Date(2026, 10, 20, 18, 0, 0, 0, time.UTC)

	t.Run("valid", func(t *testing.T) {
		errs := ValidateStruct(sampleRequest{Name: "Anna", Start: start, End: start.Add(time.Hour)})
		assert.Empty(t, errs)
	})

	t.Run("reports json field names", func(t *testing.T) {
		errs := ValidateStruct(sampleRequest{
			Name:  "Annabelle",
			Start: start,
			End:   start,
			Cost:  -1,
			Kind:  "triple",
		})

		assert.Equal(t, map[string]string{
			"name":     "Maximum is 5",
			"end_time": "Must be after start",
			"cost":     "Must be greater than or equal to 0",
			"kind":     "Must be one of: single, double",
		}, errs)
	})

	t.Run("required", func(t *testing.T) {
		errs := ValidateStruct(sampleRequest{})
		assert.Equal(t, "This field is required", errs["name"])
		assert.Equal(t, "This field is required", errs["start_time"])
	})
}

func TestFormatValidationErrors_Sorted(t *testing.T) {
	got := FormatValidationErrors(map[string]string{
		"name": "This field is required",
		"cost": "Must be greater than or equal to 0",
	})
	assert.Equal(t, "cost: Must be greater than or equal to 0; name: This field is required", got)
}
