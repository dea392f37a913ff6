package resumes

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo, used when no database
// is configured and in tests.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Resume // resumeID -> resume
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Resume)}
}

// Save upserts the resume and replaces its child collections.
func (r *MemoryRepo) Save(ctx context.Context, resume Resume) (Resume, error) {
	if err := ctx.Err(); err != nil {
		return Resume{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.data[resume.ID]; ok && existing.UserID != resume.UserID {
		return Resume{}, ErrNotFound
	}
	r.data[resume.ID] = cloneResume(resume)
	return cloneResume(resume), nil
}

// GetByID returns a resume owned by the user.
func (r *MemoryRepo) GetByID(ctx context.Context, userID, resumeID string) (Resume, error) {
	if err := ctx.Err(); err != nil {
		return Resume{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	resume, ok := r.data[resumeID]
	if !ok || resume.UserID != userID {
		return Resume{}, ErrNotFound
	}
	return cloneResume(resume), nil
}

// ListByUser returns the user's resumes, most recently edited first,
// matching the Postgres ordering.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string) ([]Resume, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []Resume{}
	for _, resume := range r.data {
		if resume.UserID == userID {
			out = append(out, cloneResume(resume))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// Delete removes a resume owned by the user.
func (r *MemoryRepo) Delete(ctx context.Context, userID, resumeID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	resume, ok := r.data[resumeID]
	if !ok || resume.UserID != userID {
		return ErrNotFound
	}
	delete(r.data, resumeID)
	return nil
}

// CountByUser counts the user's resumes.
func (r *MemoryRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, resume := range r.data {
		if resume.UserID == userID {
			count++
		}
	}
	return count, nil
}

// AddExperience appends a work-experience entry.
func (r *MemoryRepo) AddExperience(ctx context.Context, exp Experience) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	resume, ok := r.data[exp.ResumeID]
	if !ok {
		return ErrNotFound
	}
	resume.Experiences = append(resume.Experiences, exp)
	r.data[exp.ResumeID] = resume
	return nil
}

// RemoveExperience deletes a work-experience entry by id.
func (r *MemoryRepo) RemoveExperience(ctx context.Context, resumeID, entryID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	resume, ok := r.data[resumeID]
	if !ok {
		return ErrNotFound
	}
	for i := range resume.Experiences {
		if resume.Experiences[i].ID == entryID {
			resume.Experiences = append(resume.Experiences[:i], resume.Experiences[i+1:]...)
			r.data[resumeID] = resume
			return nil
		}
	}
	return ErrNotFound
}

// AddEducation appends an education entry.
func (r *MemoryRepo) AddEducation(ctx context.Context, edu Education) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	resume, ok := r.data[edu.ResumeID]
	if !ok {
		return ErrNotFound
	}
	resume.Education = append(resume.Education, edu)
	r.data[edu.ResumeID] = resume
	return nil
}

// RemoveEducation deletes an education entry by id.
func (r *MemoryRepo) RemoveEducation(ctx context.Context, resumeID, entryID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	resume, ok := r.data[resumeID]
	if !ok {
		return ErrNotFound
	}
	for i := range resume.Education {
		if resume.Education[i].ID == entryID {
			resume.Education = append(resume.Education[:i], resume.Education[i+1:]...)
			r.data[resumeID] = resume
			return nil
		}
	}
	return ErrNotFound
}

// AddItem appends a flat section entry.
func (r *MemoryRepo) AddItem(ctx context.Context, item SectionItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	resume, ok := r.data[item.ResumeID]
	if !ok {
		return ErrNotFound
	}
	switch item.Kind {
	case SectionSkills:
		resume.Skills = append(resume.Skills, item)
	case SectionLanguages:
		resume.Languages = append(resume.Languages, item)
	case SectionInterests:
		resume.Interests = append(resume.Interests, item)
	default:
		return ErrInvalidInput
	}
	r.data[item.ResumeID] = resume
	return nil
}

// RemoveItem deletes a flat section entry by id.
func (r *MemoryRepo) RemoveItem(ctx context.Context, resumeID, entryID string, kind Section) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	resume, ok := r.data[resumeID]
	if !ok {
		return ErrNotFound
	}
	removed := false
	filter := func(items []SectionItem) []SectionItem {
		out := items[:0]
		for _, item := range items {
			if item.ID == entryID {
				removed = true
				continue
			}
			out = append(out, item)
		}
		return out
	}
	switch kind {
	case SectionSkills:
		resume.Skills = filter(resume.Skills)
	case SectionLanguages:
		resume.Languages = filter(resume.Languages)
	case SectionInterests:
		resume.Interests = filter(resume.Interests)
	default:
		return ErrInvalidInput
	}
	if !removed {
		return ErrNotFound
	}
	r.data[resumeID] = resume
	return nil
}

func cloneResume(in Resume) Resume {
	out := in
	out.Experiences = append([]Experience(nil), in.Experiences...)
	out.Education = append([]Education(nil), in.Education...)
	out.Skills = append([]SectionItem(nil), in.Skills...)
	out.Languages = append([]SectionItem(nil), in.Languages...)
	out.Interests = append([]SectionItem(nil), in.Interests...)
	if in.Style.SectionVisibility != nil {
		vis := make(map[string]bool, len(in.Style.SectionVisibility))
		for k, v := range in.Style.SectionVisibility {
			vis[k] = v
		}
		out.Style.SectionVisibility = vis
	}
	if in.Photo.Data != nil {
		out.Photo.Data = append([]byte(nil), in.Photo.Data...)
	}
	return out
}

var _ Repo = (*MemoryRepo)(nil)
