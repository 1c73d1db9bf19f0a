package icons_test

// Notes:
// - Pixel checks are coarse (center pixel opacity, corner transparency);
//   exact rasterization output depends on x/image/vector antialiasing.

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"strings"
	"testing"

	"github.com/alnah/go-htmlexport/internal/icons"
)

func decodeURI(t *testing.T, uri string) (w, h int, centerAlpha, cornerAlpha uint32) {
	t.Helper()

	const prefix = "data:image/png;base64,"
	if !strings.HasPrefix(uri, prefix) {
		t.Fatalf("uri prefix = %.30q, want %q", uri, prefix)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, prefix))
	if err != nil {
		t.Fatalf("base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("png: %v", err)
	}
	b := img.Bounds()
	_, _, _, centerAlpha = img.At(b.Dx()/2, b.Dy()/2+b.Dy()/8).RGBA()
	_, _, _, cornerAlpha = img.At(0, 0).RGBA()
	return b.Dx(), b.Dy(), centerAlpha, cornerAlpha
}

// ---------------------------------------------------------------------------
// TestAlertURI - Badge per alert kind
// ---------------------------------------------------------------------------

func TestAlertURI(t *testing.T) {
	t.Parallel()

	for _, kind := range []string{"note", "tip", "important", "warning", "caution"} {
		t.Run(kind, func(t *testing.T) {
			t.Parallel()

			w, h, center, corner := decodeURI(t, icons.AlertURI(kind))
			if w != icons.Size || h != icons.Size {
				t.Errorf("size = %dx%d, want %dx%d", w, h, icons.Size, icons.Size)
			}
			if center == 0 {
				t.Error("badge center should be painted")
			}
			if corner != 0 {
				t.Error("badge corner should be transparent")
			}
		})
	}
}

func TestAlertURI_UnknownFallsBackToNote(t *testing.T) {
	t.Parallel()

	if icons.AlertURI("bogus") != icons.AlertURI("note") {
		t.Error("unknown kind should reuse the note badge")
	}
}

// ---------------------------------------------------------------------------
// TestCheckboxURI - Checked and empty boxes differ and are memoized
// ---------------------------------------------------------------------------

func TestCheckboxURI(t *testing.T) {
	t.Parallel()

	checked := icons.CheckboxURI(true)
	empty := icons.CheckboxURI(false)
	if checked == empty {
		t.Fatal("checked and empty icons should differ")
	}
	if icons.CheckboxURI(true) != checked {
		t.Error("repeated calls should return the memoized URI")
	}
	if w, h, _, _ := decodeURI(t, empty); w != icons.Size || h != icons.Size {
		t.Errorf("size = %dx%d", w, h)
	}
}
