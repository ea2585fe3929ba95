// Package composer holds the transient draft state for one upload: the
// selected asset, free-text notes, caption ideas and the chosen destination
// platforms. The draft lives from the first file pick until submission
// completes or it is cleared; it is never persisted.
package composer

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/mamoski/relaydeck/internal/catalog"
)

// Selection field names accepted by UpdateSelectionField.
const (
	FieldAccount  = "account"
	FieldPostType = "type"
)

// Selection is one chosen destination platform. At most one selection per
// platform ID exists in a draft.
type Selection struct {
	PlatformID string `json:"platform_id"`
	Account    string `json:"account,omitempty"`
	PostType   string `json:"post_type,omitempty"`
}

// Draft is the in-memory state of a pending upload.
type Draft struct {
	Filename       string
	Asset          []byte
	PreviewDataURI string
	Notes          string
	CaptionIdeas   string
	Selections     []Selection
}

// HasAsset reports whether a file has been picked.
func (d *Draft) HasAsset() bool {
	return len(d.Asset) > 0
}

// SelectFile replaces the current asset and derives a data-URI preview for
// image assets. A nil or empty file is a no-op.
func (d *Draft) SelectFile(name string, data []byte) {
	if len(data) == 0 {
		return
	}
	d.Filename = name
	d.Asset = data

	contentType := http.DetectContentType(data)
	if strings.HasPrefix(contentType, "image/") || strings.HasPrefix(contentType, "video/") {
		d.PreviewDataURI = fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data))
	} else {
		d.PreviewDataURI = ""
	}
}

// TogglePlatform adds or removes the selection for the given descriptor.
// A fresh selection defaults to the descriptor's first enumerated account
// and post type. Toggle is its own inverse.
func (d *Draft) TogglePlatform(desc catalog.Descriptor) {
	for i, s := range d.Selections {
		if s.PlatformID == desc.ID {
			d.Selections = append(d.Selections[:i], d.Selections[i+1:]...)
			return
		}
	}

	sel := Selection{PlatformID: desc.ID}
	if len(desc.Accounts) > 0 {
		sel.Account = desc.Accounts[0]
	}
	if len(desc.PostTypes) > 0 {
		sel.PostType = desc.PostTypes[0]
	}
	d.Selections = append(d.Selections, sel)
}

// Selected reports whether the platform is currently part of the draft.
func (d *Draft) Selected(platformID string) bool {
	for _, s := range d.Selections {
		if s.PlatformID == platformID {
			return true
		}
	}
	return false
}

// UpdateSelectionField mutates the account or post type of an existing
// selection. Platforms not currently selected and unknown field names are
// no-ops. The value is not checked against the descriptor's enumerations.
func (d *Draft) UpdateSelectionField(platformID, field, value string) {
	for i := range d.Selections {
		if d.Selections[i].PlatformID != platformID {
			continue
		}
		switch field {
		case FieldAccount:
			d.Selections[i].Account = value
		case FieldPostType:
			d.Selections[i].PostType = value
		}
		return
	}
}

// ValidateForSubmit enforces the submission preconditions: an asset must be
// picked and at least one platform selected.
func (d *Draft) ValidateForSubmit() error {
	if !d.HasAsset() {
		return fmt.Errorf("%w: no asset selected", ErrValidation)
	}
	if len(d.Selections) == 0 {
		return fmt.Errorf("%w: no destination platform selected", ErrValidation)
	}
	return nil
}

// Clear resets the draft to its empty state.
func (d *Draft) Clear() {
	d.Filename = ""
	d.Asset = nil
	d.PreviewDataURI = ""
	d.Notes = ""
	d.CaptionIdeas = ""
	d.Selections = nil
}
