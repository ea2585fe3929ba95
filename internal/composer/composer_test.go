package composer

import (
	"errors"
	"testing"

	"github.com/mamoski/relaydeck/internal/catalog"
)

func TestTogglePlatformDefaults(t *testing.T) {
	desc, ok := catalog.ByID("instagram")
	if !ok {
		t.Fatalf("expected instagram in catalog")
	}

	d := &Draft{}
	d.TogglePlatform(desc)

	if len(d.Selections) != 1 {
		t.Fatalf("expected one selection, got %d", len(d.Selections))
	}
	sel := d.Selections[0]
	if sel.PlatformID != "instagram" {
		t.Fatalf("unexpected platform id %q", sel.PlatformID)
	}
	if sel.Account != desc.Accounts[0] {
		t.Fatalf("expected default account %q, got %q", desc.Accounts[0], sel.Account)
	}
	if sel.PostType != desc.PostTypes[0] {
		t.Fatalf("expected default post type %q, got %q", desc.PostTypes[0], sel.PostType)
	}
}

func TestTogglePlatformIsItsOwnInverse(t *testing.T) {
	ig, _ := catalog.ByID("instagram")
	fb, _ := catalog.ByID("facebook")

	d := &Draft{}
	d.TogglePlatform(fb)
	d.TogglePlatform(ig)
	d.TogglePlatform(ig)

	if len(d.Selections) != 1 {
		t.Fatalf("expected one selection after double toggle, got %d", len(d.Selections))
	}
	if d.Selections[0].PlatformID != "facebook" {
		t.Fatalf("expected facebook to survive, got %q", d.Selections[0].PlatformID)
	}
	if d.Selected("instagram") {
		t.Fatalf("instagram should not be selected after double toggle")
	}
}

func TestTogglePlatformWithoutEnumerations(t *testing.T) {
	desc, ok := catalog.ByID("linkedin")
	if !ok {
		t.Fatalf("expected linkedin in catalog")
	}

	d := &Draft{}
	d.TogglePlatform(desc)

	sel := d.Selections[0]
	if sel.Account != "" || sel.PostType != "" {
		t.Fatalf("expected empty account/post type, got %q/%q", sel.Account, sel.PostType)
	}
}

func TestUpdateSelectionField(t *testing.T) {
	desc, _ := catalog.ByID("instagram")

	d := &Draft{}
	d.TogglePlatform(desc)

	d.UpdateSelectionField("instagram", FieldPostType, "Story")
	if d.Selections[0].PostType != "Story" {
		t.Fatalf("expected post type Story, got %q", d.Selections[0].PostType)
	}

	d.UpdateSelectionField("instagram", FieldAccount, desc.Accounts[1])
	if d.Selections[0].Account != desc.Accounts[1] {
		t.Fatalf("expected account %q, got %q", desc.Accounts[1], d.Selections[0].Account)
	}
}

func TestUpdateSelectionFieldUnselectedPlatformIsNoop(t *testing.T) {
	desc, _ := catalog.ByID("instagram")

	d := &Draft{}
	d.TogglePlatform(desc)
	before := make([]Selection, len(d.Selections))
	copy(before, d.Selections)

	d.UpdateSelectionField("facebook", FieldAccount, "@someone")

	if len(d.Selections) != len(before) {
		t.Fatalf("selection set changed size")
	}
	for i := range before {
		if d.Selections[i] != before[i] {
			t.Fatalf("selection %d changed: %+v != %+v", i, d.Selections[i], before[i])
		}
	}
}

func TestSelectFile(t *testing.T) {
	d := &Draft{}

	// PNG magic bytes so content sniffing sees an image.
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}
	d.SelectFile("cover.png", png)

	if !d.HasAsset() {
		t.Fatalf("expected asset to be set")
	}
	if d.Filename != "cover.png" {
		t.Fatalf("unexpected filename %q", d.Filename)
	}
	if d.PreviewDataURI == "" {
		t.Fatalf("expected preview data URI for image asset")
	}

	// Empty input must be a silent no-op.
	d.SelectFile("other.png", nil)
	if d.Filename != "cover.png" {
		t.Fatalf("empty file pick replaced the asset")
	}
}

func TestValidateForSubmit(t *testing.T) {
	ig, _ := catalog.ByID("instagram")

	d := &Draft{}
	if err := d.ValidateForSubmit(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for empty draft, got %v", err)
	}

	d.SelectFile("clip.mp4", []byte{0, 0, 0, 0x18, 'f', 't', 'y', 'p'})
	if err := d.ValidateForSubmit(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error without selections, got %v", err)
	}

	d.TogglePlatform(ig)
	if err := d.ValidateForSubmit(); err != nil {
		t.Fatalf("expected valid draft, got %v", err)
	}
}

func TestClear(t *testing.T) {
	ig, _ := catalog.ByID("instagram")

	d := &Draft{Notes: "launch", CaptionIdeas: "hooks"}
	d.SelectFile("cover.png", []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'})
	d.TogglePlatform(ig)

	d.Clear()

	if d.HasAsset() || d.Filename != "" || d.PreviewDataURI != "" {
		t.Fatalf("asset state not cleared")
	}
	if d.Notes != "" || d.CaptionIdeas != "" {
		t.Fatalf("text state not cleared")
	}
	if len(d.Selections) != 0 {
		t.Fatalf("selections not cleared")
	}
}
