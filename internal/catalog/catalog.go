// Package catalog holds the static destination platform configuration.
// Descriptors are defined at process start and never mutated.
package catalog

// Descriptor describes one destination social platform. Accounts and
// PostTypes are optional enumerations; when present, the first entry is the
// default for a fresh selection.
type Descriptor struct {
	ID        string   `json:"id"`
	Label     string   `json:"label"`
	Color     string   `json:"color"`
	Accounts  []string `json:"accounts,omitempty"`
	PostTypes []string `json:"post_types,omitempty"`
}

var platforms = []Descriptor{
	{
		ID:        "facebook",
		Label:     "Facebook",
		Color:     "#1877F2",
		Accounts:  []string{"@mamoski.official", "@mamoski.studio"},
		PostTypes: []string{"Post", "Reel", "Story"},
	},
	{
		ID:        "instagram",
		Label:     "Instagram",
		Color:     "#E4405F",
		Accounts:  []string{"@mamoski", "@mamoski.backstage"},
		PostTypes: []string{"Reel", "Story", "Post"},
	},
	{
		ID:    "linkedin",
		Label: "LinkedIn",
		Color: "#0A66C2",
	},
	{
		ID:    "twitter",
		Label: "Twitter (X)",
		Color: "#000000",
	},
	{
		ID:        "tiktok",
		Label:     "TikTok",
		Color:     "#000000",
		PostTypes: []string{"Video", "Photo"},
	},
	{
		ID:        "youtube",
		Label:     "YouTube",
		Color:     "#FF0000",
		PostTypes: []string{"Video", "Short"},
	},
	{
		ID:    "pinterest",
		Label: "Pinterest",
		Color: "#BD081C",
	},
	{
		ID:    "google_business",
		Label: "Google Business",
		Color: "#4285F4",
	},
}

// All returns the catalog in display order.
func All() []Descriptor {
	out := make([]Descriptor, len(platforms))
	copy(out, platforms)
	return out
}

// ByID looks up a descriptor. Callers treat a miss as "skip this selection".
func ByID(id string) (Descriptor, bool) {
	for _, p := range platforms {
		if p.ID == id {
			return p, true
		}
	}
	return Descriptor{}, false
}
