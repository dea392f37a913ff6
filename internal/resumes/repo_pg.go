package resumes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Save upserts the resume row and replaces its child collections inside a
// single transaction, so no reader observes a resume with missing children.
func (r *PGRepo) Save(ctx context.Context, resume Resume) (Resume, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return Resume{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	visibility, err := json.Marshal(resume.Style.SectionVisibility)
	if err != nil {
		return Resume{}, err
	}

	var ownerID string
	err = tx.QueryRowContext(ctx, `SELECT user_id FROM resumes WHERE id = $1 FOR UPDATE`, resume.ID).Scan(&ownerID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		const insert = `
INSERT INTO resumes (
    id, user_id, title, description,
    full_name, headline, email, phone, address, website,
    photo_url, photo_key, summary,
    color, border_style, layout, font_family, font_size_pt, section_visibility,
    created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`
		if _, err = tx.ExecContext(ctx, insert,
			resume.ID, resume.UserID, resume.Title, nullableString(resume.Description),
			nullableString(resume.FullName), nullableString(resume.Headline), nullableString(resume.Email),
			nullableString(resume.Phone), nullableString(resume.Address), nullableString(resume.Website),
			nullableString(resume.Photo.URL), nullableString(resume.Photo.StorageKey), nullableString(resume.Summary),
			resume.Style.Color, resume.Style.BorderStyle, resume.Style.Layout,
			resume.Style.FontFamily, resume.Style.FontSizePt, visibility,
			resume.CreatedAt, resume.UpdatedAt,
		); err != nil {
			return Resume{}, err
		}
	case err != nil:
		return Resume{}, err
	case ownerID != resume.UserID:
		err = ErrNotFound
		return Resume{}, err
	default:
		const update = `
UPDATE resumes SET
    title = $2, description = $3,
    full_name = $4, headline = $5, email = $6, phone = $7, address = $8, website = $9,
    photo_url = $10, photo_key = $11, summary = $12,
    color = $13, border_style = $14, layout = $15, font_family = $16, font_size_pt = $17,
    section_visibility = $18, updated_at = $19
WHERE id = $1`
		if _, err = tx.ExecContext(ctx, update,
			resume.ID, resume.Title, nullableString(resume.Description),
			nullableString(resume.FullName), nullableString(resume.Headline), nullableString(resume.Email),
			nullableString(resume.Phone), nullableString(resume.Address), nullableString(resume.Website),
			nullableString(resume.Photo.URL), nullableString(resume.Photo.StorageKey), nullableString(resume.Summary),
			resume.Style.Color, resume.Style.BorderStyle, resume.Style.Layout,
			resume.Style.FontFamily, resume.Style.FontSizePt, visibility, resume.UpdatedAt,
		); err != nil {
			return Resume{}, err
		}
	}

	if err = r.replaceChildren(ctx, tx, resume); err != nil {
		return Resume{}, err
	}

	if err = tx.Commit(); err != nil {
		return Resume{}, err
	}
	return resume, nil
}

func (r *PGRepo) replaceChildren(ctx context.Context, tx *sql.Tx, resume Resume) error {
	for _, table := range []string{"experiences", "educations", "section_items"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE resume_id = $1`, resume.ID); err != nil {
			return err
		}
	}

	const insertExp = `
INSERT INTO experiences (id, resume_id, company, title, location, start_date, end_date, current, description, position)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	for _, exp := range resume.Experiences {
		if _, err := tx.ExecContext(ctx, insertExp,
			exp.ID, resume.ID, exp.Company, exp.Title, nullableString(exp.Location),
			nullableString(exp.StartDate), nullableString(exp.EndDate), exp.Current,
			nullableString(exp.Description), exp.Position,
		); err != nil {
			return err
		}
	}

	const insertEdu = `
INSERT INTO educations (id, resume_id, school, degree, field, start_date, end_date, description, position)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	for _, edu := range resume.Education {
		if _, err := tx.ExecContext(ctx, insertEdu,
			edu.ID, resume.ID, edu.School, nullableString(edu.Degree), nullableString(edu.Field),
			nullableString(edu.StartDate), nullableString(edu.EndDate), nullableString(edu.Description), edu.Position,
		); err != nil {
			return err
		}
	}

	const insertItem = `
INSERT INTO section_items (id, resume_id, kind, name, level, position)
VALUES ($1, $2, $3, $4, $5, $6)`
	for _, items := range [][]SectionItem{resume.Skills, resume.Languages, resume.Interests} {
		for _, item := range items {
			if _, err := tx.ExecContext(ctx, insertItem,
				item.ID, resume.ID, string(item.Kind), item.Name, nullableString(item.Level), item.Position,
			); err != nil {
				return err
			}
		}
	}
	return nil
}

const resumeColumns = `
id, user_id, title, description,
full_name, headline, email, phone, address, website,
photo_url, photo_key, summary,
color, border_style, layout, font_family, font_size_pt, section_visibility,
created_at, updated_at`

// GetByID fetches a resume and its child collections for a user.
func (r *PGRepo) GetByID(ctx context.Context, userID, resumeID string) (Resume, error) {
	row := r.DB.QueryRowContext(ctx, `
SELECT `+resumeColumns+`
FROM resumes
WHERE id = $1 AND user_id = $2
LIMIT 1`, resumeID, userID)

	resume, err := scanResume(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Resume{}, ErrNotFound
		}
		return Resume{}, err
	}

	if err := r.loadChildren(ctx, &resume); err != nil {
		return Resume{}, err
	}
	return resume, nil
}

// ListByUser lists the user's resumes, newest first. Child collections are
// not loaded; use GetByID for the full document.
func (r *PGRepo) ListByUser(ctx context.Context, userID string) ([]Resume, error) {
	rows, err := r.DB.QueryContext(ctx, `
SELECT `+resumeColumns+`
FROM resumes
WHERE user_id = $1
ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Resume
	for rows.Next() {
		resume, err := scanResume(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, resume)
	}
	return out, rows.Err()
}

// Delete removes a resume; child rows cascade.
func (r *PGRepo) Delete(ctx context.Context, userID, resumeID string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM resumes WHERE id = $1 AND user_id = $2`, resumeID, userID)
	if err != nil {
		return err
	}
	deleted, _ := res.RowsAffected()
	if deleted == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByUser counts the user's resumes for quota checks.
func (r *PGRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM resumes WHERE user_id = $1`, userID).Scan(&count)
	return count, err
}

// AddExperience inserts a single work-experience entry.
func (r *PGRepo) AddExperience(ctx context.Context, exp Experience) error {
	const query = `
INSERT INTO experiences (id, resume_id, company, title, location, start_date, end_date, current, description, position)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.DB.ExecContext(ctx, query,
		exp.ID, exp.ResumeID, exp.Company, exp.Title, nullableString(exp.Location),
		nullableString(exp.StartDate), nullableString(exp.EndDate), exp.Current,
		nullableString(exp.Description), exp.Position,
	)
	return err
}

// RemoveExperience deletes a single work-experience entry.
func (r *PGRepo) RemoveExperience(ctx context.Context, resumeID, entryID string) error {
	return r.removeChild(ctx, `DELETE FROM experiences WHERE id = $1 AND resume_id = $2`, entryID, resumeID)
}

// AddEducation inserts a single education entry.
func (r *PGRepo) AddEducation(ctx context.Context, edu Education) error {
	const query = `
INSERT INTO educations (id, resume_id, school, degree, field, start_date, end_date, description, position)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.DB.ExecContext(ctx, query,
		edu.ID, edu.ResumeID, edu.School, nullableString(edu.Degree), nullableString(edu.Field),
		nullableString(edu.StartDate), nullableString(edu.EndDate), nullableString(edu.Description), edu.Position,
	)
	return err
}

// RemoveEducation deletes a single education entry.
func (r *PGRepo) RemoveEducation(ctx context.Context, resumeID, entryID string) error {
	return r.removeChild(ctx, `DELETE FROM educations WHERE id = $1 AND resume_id = $2`, entryID, resumeID)
}

// AddItem inserts a single flat section entry.
func (r *PGRepo) AddItem(ctx context.Context, item SectionItem) error {
	const query = `
INSERT INTO section_items (id, resume_id, kind, name, level, position)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.DB.ExecContext(ctx, query,
		item.ID, item.ResumeID, string(item.Kind), item.Name, nullableString(item.Level), item.Position,
	)
	return err
}

// RemoveItem deletes a single flat section entry.
func (r *PGRepo) RemoveItem(ctx context.Context, resumeID, entryID string, kind Section) error {
	return r.removeChild(ctx, `DELETE FROM section_items WHERE id = $1 AND resume_id = $2 AND kind = $3`, entryID, resumeID, string(kind))
}

func (r *PGRepo) removeChild(ctx context.Context, query string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	deleted, _ := res.RowsAffected()
	if deleted == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) loadChildren(ctx context.Context, resume *Resume) error {
	expRows, err := r.DB.QueryContext(ctx, `
SELECT id, resume_id, company, title, location, start_date, end_date, current, description, position
FROM experiences
WHERE resume_id = $1
ORDER BY position ASC`, resume.ID)
	if err != nil {
		return err
	}
	defer expRows.Close()
	for expRows.Next() {
		var exp Experience
		var location, startDate, endDate, description sql.NullString
		if err := expRows.Scan(&exp.ID, &exp.ResumeID, &exp.Company, &exp.Title,
			&location, &startDate, &endDate, &exp.Current, &description, &exp.Position); err != nil {
			return err
		}
		exp.Location = location.String
		exp.StartDate = startDate.String
		exp.EndDate = endDate.String
		exp.Description = description.String
		resume.Experiences = append(resume.Experiences, exp)
	}
	if err := expRows.Err(); err != nil {
		return err
	}

	eduRows, err := r.DB.QueryContext(ctx, `
SELECT id, resume_id, school, degree, field, start_date, end_date, description, position
FROM educations
WHERE resume_id = $1
ORDER BY position ASC`, resume.ID)
	if err != nil {
		return err
	}
	defer eduRows.Close()
	for eduRows.Next() {
		var edu Education
		var degree, field, startDate, endDate, description sql.NullString
		if err := eduRows.Scan(&edu.ID, &edu.ResumeID, &edu.School, &degree, &field,
			&startDate, &endDate, &description, &edu.Position); err != nil {
			return err
		}
		edu.Degree = degree.String
		edu.Field = field.String
		edu.StartDate = startDate.String
		edu.EndDate = endDate.String
		edu.Description = description.String
		resume.Education = append(resume.Education, edu)
	}
	if err := eduRows.Err(); err != nil {
		return err
	}

	itemRows, err := r.DB.QueryContext(ctx, `
SELECT id, resume_id, kind, name, level, position
FROM section_items
WHERE resume_id = $1
ORDER BY position ASC`, resume.ID)
	if err != nil {
		return err
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var item SectionItem
		var kind string
		var level sql.NullString
		if err := itemRows.Scan(&item.ID, &item.ResumeID, &kind, &item.Name, &level, &item.Position); err != nil {
			return err
		}
		item.Kind = Section(kind)
		item.Level = level.String
		switch item.Kind {
		case SectionLanguages:
			resume.Languages = append(resume.Languages, item)
		case SectionInterests:
			resume.Interests = append(resume.Interests, item)
		default:
			resume.Skills = append(resume.Skills, item)
		}
	}
	return itemRows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResume(row rowScanner) (Resume, error) {
	var resume Resume
	var description, fullName, headline, email, phone, address, website sql.NullString
	var photoURL, photoKey, summary sql.NullString
	var visibility []byte
	err := row.Scan(
		&resume.ID, &resume.UserID, &resume.Title, &description,
		&fullName, &headline, &email, &phone, &address, &website,
		&photoURL, &photoKey, &summary,
		&resume.Style.Color, &resume.Style.BorderStyle, &resume.Style.Layout,
		&resume.Style.FontFamily, &resume.Style.FontSizePt, &visibility,
		&resume.CreatedAt, &resume.UpdatedAt,
	)
	if err != nil {
		return Resume{}, err
	}
	resume.Description = description.String
	resume.FullName = fullName.String
	resume.Headline = headline.String
	resume.Email = email.String
	resume.Phone = phone.String
	resume.Address = address.String
	resume.Website = website.String
	resume.Summary = summary.String
	if photoURL.Valid && photoURL.String != "" {
		resume.Photo = Photo{State: PhotoStored, URL: photoURL.String, StorageKey: photoKey.String}
	}
	if len(visibility) > 0 {
		if err := json.Unmarshal(visibility, &resume.Style.SectionVisibility); err != nil {
			return Resume{}, err
		}
	}
	return resume, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

var _ Repo = (*PGRepo)(nil)
