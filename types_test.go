package htmlexport

import (
	"errors"
	"testing"
)

// ---------------------------------------------------------------------------
// TestPageSettings - Validation and geometry
// ---------------------------------------------------------------------------

func TestPageSettings_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		page PageSettings
		want error
	}{
		{"defaults", DefaultPageSettings(), nil},
		{"case insensitive", PageSettings{Size: "LETTER", Orientation: "Landscape", MarginCM: 1}, nil},
		{"zero margin", PageSettings{Size: "legal"}, nil},
		{"max margin", PageSettings{Size: "a4", MarginCM: MaxMarginCM}, nil},
		{"empty size", PageSettings{}, ErrInvalidPageSize},
		{"unknown size", PageSettings{Size: "tabloid"}, ErrInvalidPageSize},
		{"unknown orientation", PageSettings{Size: "a4", Orientation: "upside"}, ErrInvalidPageSize},
		{"margin too large", PageSettings{Size: "a4", MarginCM: MaxMarginCM + 0.1}, ErrInvalidMargin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.page.Validate()
			if tt.want == nil && err != nil {
				t.Errorf("Validate() error = %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("Validate() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPageSettings_Inches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		page PageSettings
		w, h float64
	}{
		{PageSettings{Size: "a4"}, 8.27, 11.69},
		{PageSettings{Size: "letter", Orientation: "landscape"}, 11, 8.5},
		{PageSettings{Size: "legal", Orientation: "portrait"}, 8.5, 14},
	}

	for _, tt := range tests {
		w, h := tt.page.inches()
		if w != tt.w || h != tt.h {
			t.Errorf("%+v: inches() = %v x %v, want %v x %v", tt.page, w, h, tt.w, tt.h)
		}
	}
}
