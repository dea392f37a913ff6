package resumes

import "time"

// Resume is a resume draft owned by a user, including its nested sections
// and presentation preferences.
type Resume struct {
	ID          string
	UserID      string
	Title       string
	Description string

	FullName string
	Headline string
	Email    string
	Phone    string
	Address  string
	Website  string

	Photo   Photo
	Summary string

	Experiences []Experience
	Education   []Education
	Skills      []SectionItem
	Languages   []SectionItem
	Interests   []SectionItem

	Style StylePrefs

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Experience is a single work-experience entry.
type Experience struct {
	ID          string `json:"id"`
	ResumeID    string `json:"resumeId"`
	Company     string `json:"company"`
	Title       string `json:"title"`
	Location    string `json:"location,omitempty"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate,omitempty"`
	Current     bool   `json:"current"`
	Description string `json:"description,omitempty"`
	Position    int    `json:"position"`
}

// Education is a single education entry.
type Education struct {
	ID          string `json:"id"`
	ResumeID    string `json:"resumeId"`
	School      string `json:"school"`
	Degree      string `json:"degree,omitempty"`
	Field       string `json:"field,omitempty"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate,omitempty"`
	Description string `json:"description,omitempty"`
	Position    int    `json:"position"`
}

// SectionItem is a single entry in a flat section (skills, languages,
// interests). Kind records which section the item belongs to.
type SectionItem struct {
	ID       string  `json:"id"`
	ResumeID string  `json:"resumeId"`
	Kind     Section `json:"-"`
	Name     string  `json:"name"`
	Level    string  `json:"level,omitempty"`
	Position int     `json:"position"`
}

// StylePrefs bundles the presentation preferences of a resume. Section
// visibility is a name-keyed map rather than per-section boolean fields.
type StylePrefs struct {
	Color             string          `json:"color"`
	BorderStyle       string          `json:"borderStyle"`
	Layout            string          `json:"layout"`
	FontFamily        string          `json:"fontFamily"`
	FontSizePt        int             `json:"fontSizePt"`
	SectionVisibility map[string]bool `json:"sectionVisibility"`
}

// DefaultStyle returns the style applied to new resumes.
func DefaultStyle() StylePrefs {
	return StylePrefs{
		Color:       "#1f2937",
		BorderStyle: "plain",
		Layout:      "classic",
		FontFamily:  "Inter",
		FontSizePt:  11,
	}
}

// IsDefault reports whether the prefs match the free-tier defaults,
// ignoring section visibility (toggling sections is not a premium feature).
func (s StylePrefs) IsDefault() bool {
	def := DefaultStyle()
	return s.Color == def.Color &&
		s.BorderStyle == def.BorderStyle &&
		s.Layout == def.Layout &&
		s.FontFamily == def.FontFamily &&
		s.FontSizePt == def.FontSizePt
}

// SectionVisible resolves a visibility flag. A stored value always wins;
// sections with no stored value default to visible.
func (s StylePrefs) SectionVisible(section string) bool {
	if v, ok := s.SectionVisibility[section]; ok {
		return v
	}
	return true
}
