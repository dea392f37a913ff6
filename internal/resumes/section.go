package resumes

import "fmt"

// Section names a child collection of a resume.
type Section string

const (
	SectionExperiences Section = "experiences"
	SectionEducation   Section = "education"
	SectionSkills      Section = "skills"
	SectionLanguages   Section = "languages"
	SectionInterests   Section = "interests"
)

// ParseSection validates a section name from a route parameter.
func ParseSection(raw string) (Section, error) {
	switch Section(raw) {
	case SectionExperiences, SectionEducation, SectionSkills, SectionLanguages, SectionInterests:
		return Section(raw), nil
	default:
		return "", fmt.Errorf("%w: unknown section %q", ErrInvalidInput, raw)
	}
}

// IsItemSection reports whether the section stores flat SectionItem entries.
func (s Section) IsItemSection() bool {
	switch s {
	case SectionSkills, SectionLanguages, SectionInterests:
		return true
	default:
		return false
	}
}
