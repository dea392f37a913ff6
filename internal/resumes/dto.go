package resumes

import (
	"fmt"
	"strings"
	"time"
)

// SaveRequest is the wire form of a full-document save. The photo field is
// tri-state: absent leaves the stored photo untouched, null deletes it, and
// an object replaces it.
type SaveRequest struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`

	FullName string `json:"fullName,omitempty"`
	Headline string `json:"headline,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
	Website  string `json:"website,omitempty"`

	Photo   Photo  `json:"photo,omitempty"`
	Summary string `json:"summary,omitempty"`

	Experiences []Experience  `json:"experiences"`
	Education   []Education   `json:"education"`
	Skills      []SectionItem `json:"skills"`
	Languages   []SectionItem `json:"languages"`
	Interests   []SectionItem `json:"interests"`

	Style StylePrefs `json:"style"`
}

func (req SaveRequest) validate() error {
	if strings.TrimSpace(req.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if req.Style.FontSizePt != 0 && (req.Style.FontSizePt < 8 || req.Style.FontSizePt > 24) {
		return fmt.Errorf("%w: fontSizePt out of range", ErrInvalidInput)
	}
	if req.Photo.State == PhotoPending {
		if len(req.Photo.Data) == 0 {
			return fmt.Errorf("%w: photo payload is empty", ErrInvalidInput)
		}
		if int64(len(req.Photo.Data)) > maxPhotoBytes {
			return fmt.Errorf("%w: photo exceeds size limit", ErrInvalidInput)
		}
	}
	return nil
}

func (req SaveRequest) toResume(userID string) Resume {
	style := req.Style
	if style.Color == "" && style.Layout == "" && style.FontFamily == "" {
		style = DefaultStyle()
	} else {
		def := DefaultStyle()
		if style.Color == "" {
			style.Color = def.Color
		}
		if style.BorderStyle == "" {
			style.BorderStyle = def.BorderStyle
		}
		if style.Layout == "" {
			style.Layout = def.Layout
		}
		if style.FontFamily == "" {
			style.FontFamily = def.FontFamily
		}
		if style.FontSizePt == 0 {
			style.FontSizePt = def.FontSizePt
		}
	}

	return Resume{
		ID:          req.ID,
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		FullName:    req.FullName,
		Headline:    req.Headline,
		Email:       req.Email,
		Phone:       req.Phone,
		Address:     req.Address,
		Website:     req.Website,
		Photo:       req.Photo,
		Summary:     req.Summary,
		Experiences: req.Experiences,
		Education:   req.Education,
		Skills:      req.Skills,
		Languages:   req.Languages,
		Interests:   req.Interests,
		Style:       style,
	}
}

// RequestFromResume rebuilds the wire form from an in-memory draft. The
// autosave scheduler uses this to serialize the current document.
func RequestFromResume(r Resume) SaveRequest {
	return SaveRequest{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		FullName:    r.FullName,
		Headline:    r.Headline,
		Email:       r.Email,
		Phone:       r.Phone,
		Address:     r.Address,
		Website:     r.Website,
		Photo:       r.Photo,
		Summary:     r.Summary,
		Experiences: r.Experiences,
		Education:   r.Education,
		Skills:      r.Skills,
		Languages:   r.Languages,
		Interests:   r.Interests,
		Style:       r.Style,
	}
}

// ResumeResponse is the outward-facing representation of a resume.
type ResumeResponse struct {
	ResumeID    string `json:"resumeId"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`

	FullName string `json:"fullName,omitempty"`
	Headline string `json:"headline,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
	Website  string `json:"website,omitempty"`

	PhotoURL string `json:"photoUrl,omitempty"`
	Summary  string `json:"summary,omitempty"`

	Experiences []Experience  `json:"experiences"`
	Education   []Education   `json:"education"`
	Skills      []SectionItem `json:"skills"`
	Languages   []SectionItem `json:"languages"`
	Interests   []SectionItem `json:"interests"`

	Style StylePrefs `json:"style"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toResponse(r Resume) ResumeResponse {
	resp := ResumeResponse{
		ResumeID:    r.ID,
		Title:       r.Title,
		Description: r.Description,
		FullName:    r.FullName,
		Headline:    r.Headline,
		Email:       r.Email,
		Phone:       r.Phone,
		Address:     r.Address,
		Website:     r.Website,
		PhotoURL:    r.Photo.URL,
		Summary:     r.Summary,
		Experiences: r.Experiences,
		Education:   r.Education,
		Skills:      r.Skills,
		Languages:   r.Languages,
		Interests:   r.Interests,
		Style:       r.Style,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if resp.Experiences == nil {
		resp.Experiences = []Experience{}
	}
	if resp.Education == nil {
		resp.Education = []Education{}
	}
	if resp.Skills == nil {
		resp.Skills = []SectionItem{}
	}
	if resp.Languages == nil {
		resp.Languages = []SectionItem{}
	}
	if resp.Interests == nil {
		resp.Interests = []SectionItem{}
	}
	return resp
}

// EntryInput is the wire form for a single child-entry create. Fields are a
// union across section types; the service validates per section.
type EntryInput struct {
	Company     string `json:"company,omitempty"`
	Title       string `json:"title,omitempty"`
	Location    string `json:"location,omitempty"`
	StartDate   string `json:"startDate,omitempty"`
	EndDate     string `json:"endDate,omitempty"`
	Current     bool   `json:"current,omitempty"`
	Description string `json:"description,omitempty"`

	School string `json:"school,omitempty"`
	Degree string `json:"degree,omitempty"`
	Field  string `json:"field,omitempty"`

	Name  string `json:"name,omitempty"`
	Level string `json:"level,omitempty"`

	Position int `json:"position,omitempty"`
}
