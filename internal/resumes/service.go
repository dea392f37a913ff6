package resumes

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"resume-builder/internal/shared/metrics"
	"resume-builder/internal/shared/storage/object"
	"resume-builder/internal/shared/telemetry"
)

// Gate is the slice of the entitlement service consulted at persistence
// time. Client-side checks are advisory only; these run on every mutation.
type Gate interface {
	CanCreate(ctx context.Context, userID string, currentCount int) (bool, error)
	CanCustomize(ctx context.Context, userID string) (bool, error)
}

// Service contains business logic for resumes. Save implements the
// persistence gateway contract used by the autosave scheduler.
type Service struct {
	Repo  Repo
	Store object.ObjectStore
	Gate  Gate
}

const maxPhotoBytes = 5 << 20 // 5MB decoded

// Save validates, authorizes, and upserts the full document. An empty
// request id creates a new resume; otherwise the caller must own the target.
func (s *Service) Save(ctx context.Context, userID string, req SaveRequest) (Resume, error) {
	if strings.TrimSpace(userID) == "" {
		return Resume{}, ErrUnauthorized
	}
	if err := req.validate(); err != nil {
		return Resume{}, err
	}

	// Every started save ends in exactly one of completed or failed.
	metrics.IncSaveStarted()
	started := time.Now()
	creating := req.ID == ""

	persisted, err := s.persist(ctx, userID, req, creating)
	if err != nil {
		metrics.IncSaveFailed()
		return Resume{}, err
	}

	metrics.IncSaveCompleted()
	metrics.ObserveSaveDurationMs(float64(time.Since(started)) / float64(time.Millisecond))
	telemetry.Info("resume.saved", map[string]any{
		"resume_id": persisted.ID,
		"user_id":   userID,
		"created":   creating,
	})
	return persisted, nil
}

func (s *Service) persist(ctx context.Context, userID string, req SaveRequest, creating bool) (Resume, error) {
	now := time.Now().UTC()
	resume := req.toResume(userID)
	resume.UpdatedAt = now

	var existing Resume
	if creating {
		count, err := s.Repo.CountByUser(ctx, userID)
		if err != nil {
			return Resume{}, err
		}
		ok, err := s.Gate.CanCreate(ctx, userID, count)
		if err != nil {
			return Resume{}, err
		}
		if !ok {
			return Resume{}, ErrQuotaExceeded
		}
		resume.ID = uuid.NewString()
		resume.CreatedAt = now
	} else {
		var err error
		existing, err = s.Repo.GetByID(ctx, userID, resume.ID)
		if err != nil {
			return Resume{}, err
		}
		resume.CreatedAt = existing.CreatedAt
	}

	if !resume.Style.IsDefault() {
		ok, err := s.Gate.CanCustomize(ctx, userID)
		if err != nil {
			return Resume{}, err
		}
		if !ok {
			return Resume{}, ErrUpgradeRequired
		}
	}

	assignChildIDs(&resume)

	photo, err := s.applyPhoto(ctx, resume.ID, userID, req.Photo, existing.Photo)
	if err != nil {
		return Resume{}, err
	}
	resume.Photo = photo

	return s.Repo.Save(ctx, resume)
}

// applyPhoto runs the photo blob lifecycle: a new payload replaces any
// previously stored object, an explicit removal deletes it, and an
// unspecified photo leaves the stored reference untouched.
func (s *Service) applyPhoto(ctx context.Context, resumeID, userID string, incoming, current Photo) (Photo, error) {
	switch incoming.State {
	case PhotoUnspecified:
		return current, nil
	case PhotoRemoved:
		if current.StorageKey != "" {
			if err := s.Store.Delete(ctx, current.StorageKey); err != nil {
				return Photo{}, fmt.Errorf("delete photo: %w", err)
			}
		}
		return Photo{}, nil
	case PhotoPending:
		if current.StorageKey != "" {
			if err := s.Store.Delete(ctx, current.StorageKey); err != nil {
				return Photo{}, fmt.Errorf("delete previous photo: %w", err)
			}
		}
		name := incoming.Name
		if name == "" {
			name = "photo"
		}
		key, size, mimeType, err := s.Store.Save(ctx, userID, name, bytes.NewReader(incoming.Data))
		if err != nil {
			return Photo{}, fmt.Errorf("store photo: %w", err)
		}
		return Photo{
			State:      PhotoStored,
			URL:        fmt.Sprintf("/api/v1/resumes/%s/photo", resumeID),
			StorageKey: key,
			Name:       name,
			Size:       size,
			MimeType:   mimeType,
		}, nil
	default:
		// A stored reference in the request echoes existing state.
		return current, nil
	}
}

// Get returns a resume owned by the user.
func (s *Service) Get(ctx context.Context, userID, resumeID string) (Resume, error) {
	if strings.TrimSpace(userID) == "" {
		return Resume{}, ErrUnauthorized
	}
	return s.Repo.GetByID(ctx, userID, resumeID)
}

// List returns the user's resumes, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]Resume, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUnauthorized
	}
	return s.Repo.ListByUser(ctx, userID)
}

// Delete removes a resume and its stored photo.
func (s *Service) Delete(ctx context.Context, userID, resumeID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrUnauthorized
	}
	resume, err := s.Repo.GetByID(ctx, userID, resumeID)
	if err != nil {
		return err
	}
	if resume.Photo.StorageKey != "" {
		if err := s.Store.Delete(ctx, resume.Photo.StorageKey); err != nil {
			telemetry.Error("resume.photo_delete_failed", map[string]any{
				"resume_id": resumeID,
				"error":     err.Error(),
			})
		}
	}
	return s.Repo.Delete(ctx, userID, resumeID)
}

// AddEntry persists a single child entry immediately, decoupled from the
// debounced whole-document save. Ownership is checked before the insert.
func (s *Service) AddEntry(ctx context.Context, userID, resumeID string, section Section, input EntryInput) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", ErrUnauthorized
	}
	if _, err := s.Repo.GetByID(ctx, userID, resumeID); err != nil {
		return "", err
	}

	entryID := uuid.NewString()
	switch section {
	case SectionExperiences:
		if strings.TrimSpace(input.Company) == "" {
			return "", fmt.Errorf("%w: company is required", ErrInvalidInput)
		}
		return entryID, s.Repo.AddExperience(ctx, Experience{
			ID: entryID, ResumeID: resumeID,
			Company: input.Company, Title: input.Title, Location: input.Location,
			StartDate: input.StartDate, EndDate: input.EndDate, Current: input.Current,
			Description: input.Description, Position: input.Position,
		})
	case SectionEducation:
		if strings.TrimSpace(input.School) == "" {
			return "", fmt.Errorf("%w: school is required", ErrInvalidInput)
		}
		return entryID, s.Repo.AddEducation(ctx, Education{
			ID: entryID, ResumeID: resumeID,
			School: input.School, Degree: input.Degree, Field: input.Field,
			StartDate: input.StartDate, EndDate: input.EndDate,
			Description: input.Description, Position: input.Position,
		})
	default:
		if strings.TrimSpace(input.Name) == "" {
			return "", fmt.Errorf("%w: name is required", ErrInvalidInput)
		}
		return entryID, s.Repo.AddItem(ctx, SectionItem{
			ID: entryID, ResumeID: resumeID, Kind: section,
			Name: input.Name, Level: input.Level, Position: input.Position,
		})
	}
}

// DeleteEntry removes a single child entry after checking ownership.
func (s *Service) DeleteEntry(ctx context.Context, userID, resumeID string, section Section, entryID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrUnauthorized
	}
	if _, err := s.Repo.GetByID(ctx, userID, resumeID); err != nil {
		return err
	}
	switch section {
	case SectionExperiences:
		return s.Repo.RemoveExperience(ctx, resumeID, entryID)
	case SectionEducation:
		return s.Repo.RemoveEducation(ctx, resumeID, entryID)
	default:
		return s.Repo.RemoveItem(ctx, resumeID, entryID, section)
	}
}

// assignChildIDs gives fresh ids to entries created client-side before the
// parent was saved; server-assigned ids echoed back by the client survive.
func assignChildIDs(resume *Resume) {
	for i := range resume.Experiences {
		if resume.Experiences[i].ID == "" {
			resume.Experiences[i].ID = uuid.NewString()
		}
		resume.Experiences[i].ResumeID = resume.ID
		resume.Experiences[i].Position = i
	}
	for i := range resume.Education {
		if resume.Education[i].ID == "" {
			resume.Education[i].ID = uuid.NewString()
		}
		resume.Education[i].ResumeID = resume.ID
		resume.Education[i].Position = i
	}
	for _, pair := range []struct {
		items []SectionItem
		kind  Section
	}{
		{resume.Skills, SectionSkills},
		{resume.Languages, SectionLanguages},
		{resume.Interests, SectionInterests},
	} {
		for i := range pair.items {
			if pair.items[i].ID == "" {
				pair.items[i].ID = uuid.NewString()
			}
			pair.items[i].ResumeID = resume.ID
			pair.items[i].Kind = pair.kind
			pair.items[i].Position = i
		}
	}
}
