package layout

import "strings"

// Category is the treatment type shown on a calendar tile.
type Category string

const (
	RootCanal    Category = "Root Canal"
	Consultation Category = "Consultation"
	WisdomTeeth  Category = "Wisdom Teeth Removal"
	Scaling      Category = "Scaling"
	Bleaching    Category = "Bleaching"
	CheckUp      Category = "Check-up"
	Filling      Category = "Filling"
	Regular      Category = "Regular"
)

// rules are evaluated in order; the first keyword found wins.
var rules = []struct {
	keyword  string
	category Category
}{
	{"root canal", RootCanal},
	{"consult", Consultation},
	{"wisdom", WisdomTeeth},
	{"scaling", Scaling},
	{"bleach", Bleaching},
	{"check", CheckUp},
	{"fill", Filling},
}

// TreatmentCategory classifies free-text appointment details.
func TreatmentCategory(detail string) Category {
	lower := strings.ToLower(detail)
	for _, r := range rules {
		if strings.Contains(lower, r.keyword) {
			return r.category
		}
	}
	return Regular
}

// Swatch pairs a category with its display color.
type Swatch struct {
	Category  Category `json:"category"`
	Color     string   `json:"color"`
	ClassName string   `json:"class_name"`
}

var palette = []Swatch{
	{Category: RootCanal, Color: "#636AF2"},
	{Category: Consultation, Color: "#F29D63"},
	{Category: WisdomTeeth, Color: "#63F2C2"},
	{Category: Scaling, Color: "#F26363"},
	{Category: Bleaching, Color: "#AE63F2"},
	{Category: CheckUp, Color: "#F2DE63"},
	{Category: Filling, Color: "#63F2A0"},
	{Category: Regular, Color: "#63A4F2"},
}

// ColorFor returns the category color, falling back to Regular.
func ColorFor(c Category) string {
	for _, s := range palette {
		if s.Category == c {
			return s.Color
		}
	}
	return palette[len(palette)-1].Color
}

// Colors returns a copy of the full table in a stable order.
func Colors() []Swatch {
	out := make([]Swatch, len(palette))
	for i, s := range palette {
		s.ClassName = ClassName(s.Category)
		out[i] = s
	}
	return out
}

// ClassName turns "Wisdom Teeth Removal" into "wisdom-teeth-removal".
func ClassName(c Category) string {
	return strings.Join(strings.Fields(strings.ToLower(string(c))), "-")
}
