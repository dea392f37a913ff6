// Package autosave implements the editing session's dirty-state comparison
// and debounced save scheduling against the resume persistence gateway.
package autosave

import "resume-builder/internal/resumes"

// IsDirty reports whether the current document differs from the
// last-persisted snapshot. Scalar fields compare by value, section lists
// element-wise, and photos by their normalized surrogates; identifier
// fields on child entries are ignored so that server id reconciliation is
// never mistaken for a user edit. An unspecified current photo means "no
// change intended" and compares equal to whatever is persisted.
func IsDirty(snapshot, current resumes.Resume) bool {
	if snapshot.Title != current.Title ||
		snapshot.Description != current.Description ||
		snapshot.FullName != current.FullName ||
		snapshot.Headline != current.Headline ||
		snapshot.Email != current.Email ||
		snapshot.Phone != current.Phone ||
		snapshot.Address != current.Address ||
		snapshot.Website != current.Website ||
		snapshot.Summary != current.Summary {
		return true
	}
	if !stylesEqual(snapshot.Style, current.Style) {
		return true
	}
	if !photosEqual(snapshot.Photo, current.Photo) {
		return true
	}
	if !experiencesEqual(snapshot.Experiences, current.Experiences) {
		return true
	}
	if !educationEqual(snapshot.Education, current.Education) {
		return true
	}
	return !itemsEqual(snapshot.Skills, current.Skills) ||
		!itemsEqual(snapshot.Languages, current.Languages) ||
		!itemsEqual(snapshot.Interests, current.Interests)
}

func photosEqual(snapshot, current resumes.Photo) bool {
	if current.State == resumes.PhotoUnspecified {
		return true
	}
	return snapshot.Surrogate() == current.Surrogate()
}

func stylesEqual(a, b resumes.StylePrefs) bool {
	if a.Color != b.Color ||
		a.BorderStyle != b.BorderStyle ||
		a.Layout != b.Layout ||
		a.FontFamily != b.FontFamily ||
		a.FontSizePt != b.FontSizePt {
		return false
	}
	if len(a.SectionVisibility) != len(b.SectionVisibility) {
		return false
	}
	for k, v := range a.SectionVisibility {
		if other, ok := b.SectionVisibility[k]; !ok || other != v {
			return false
		}
	}
	return true
}

func experiencesEqual(a, b []resumes.Experience) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Company != b[i].Company ||
			a[i].Title != b[i].Title ||
			a[i].Location != b[i].Location ||
			a[i].StartDate != b[i].StartDate ||
			a[i].EndDate != b[i].EndDate ||
			a[i].Current != b[i].Current ||
			a[i].Description != b[i].Description {
			return false
		}
	}
	return true
}

func educationEqual(a, b []resumes.Education) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].School != b[i].School ||
			a[i].Degree != b[i].Degree ||
			a[i].Field != b[i].Field ||
			a[i].StartDate != b[i].StartDate ||
			a[i].EndDate != b[i].EndDate ||
			a[i].Description != b[i].Description {
			return false
		}
	}
	return true
}

func itemsEqual(a, b []resumes.SectionItem) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || a[i].Level != b[i].Level {
			return false
		}
	}
	return true
}
