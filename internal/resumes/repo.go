package resumes

import "context"

// Repo defines persistence operations for resumes. Save replaces child
// collections wholesale and must do so atomically.
type Repo interface {
	Save(ctx context.Context, resume Resume) (Resume, error)
	GetByID(ctx context.Context, userID, resumeID string) (Resume, error)
	ListByUser(ctx context.Context, userID string) ([]Resume, error)
	Delete(ctx context.Context, userID, resumeID string) error
	CountByUser(ctx context.Context, userID string) (int, error)

	AddExperience(ctx context.Context, exp Experience) error
	RemoveExperience(ctx context.Context, resumeID, entryID string) error
	AddEducation(ctx context.Context, edu Education) error
	RemoveEducation(ctx context.Context, resumeID, entryID string) error
	AddItem(ctx context.Context, item SectionItem) error
	RemoveItem(ctx context.Context, resumeID, entryID string, kind Section) error
}
