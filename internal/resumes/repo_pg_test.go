package resumes

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func testResume() Resume {
	now := time.Now().UTC()
	return Resume{
		ID:     "resume-1",
		UserID: "user-1",
		Title:  "Backend Engineer",
		Experiences: []Experience{
			{ID: "exp-1", ResumeID: "resume-1", Company: "Acme", Title: "Engineer"},
		},
		Skills: []SectionItem{
			{ID: "skill-1", ResumeID: "resume-1", Kind: SectionSkills, Name: "Go"},
		},
		Style:     DefaultStyle(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func expectChildReplacement(mock sqlmock.Sqlmock, resume Resume) {
	mock.ExpectExec("DELETE FROM experiences").WithArgs(resume.ID).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM educations").WithArgs(resume.ID).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM section_items").WithArgs(resume.ID).WillReturnResult(sqlmock.NewResult(0, 0))
	for range resume.Experiences {
		mock.ExpectExec("INSERT INTO experiences").WillReturnResult(sqlmock.NewResult(1, 1))
	}
	for range resume.Education {
		mock.ExpectExec("INSERT INTO educations").WillReturnResult(sqlmock.NewResult(1, 1))
	}
	for i := 0; i < len(resume.Skills)+len(resume.Languages)+len(resume.Interests); i++ {
		mock.ExpectExec("INSERT INTO section_items").WillReturnResult(sqlmock.NewResult(1, 1))
	}
}

func TestPGRepoSaveInsertsNewResumeTransactionally(t *testing.T) {
	repo, mock := newMockRepo(t)
	resume := testResume()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT user_id FROM resumes").
		WithArgs(resume.ID).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO resumes").WillReturnResult(sqlmock.NewResult(1, 1))
	expectChildReplacement(mock, resume)
	mock.ExpectCommit()

	if _, err := repo.Save(context.Background(), resume); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoSaveUpdatesExistingResume(t *testing.T) {
	repo, mock := newMockRepo(t)
	resume := testResume()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT user_id FROM resumes").
		WithArgs(resume.ID).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(resume.UserID))
	mock.ExpectExec("UPDATE resumes SET").WillReturnResult(sqlmock.NewResult(0, 1))
	expectChildReplacement(mock, resume)
	mock.ExpectCommit()

	if _, err := repo.Save(context.Background(), resume); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoSaveRejectsForeignResume(t *testing.T) {
	repo, mock := newMockRepo(t)
	resume := testResume()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT user_id FROM resumes").
		WithArgs(resume.ID).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("someone-else"))
	mock.ExpectRollback()

	_, err := repo.Save(context.Background(), resume)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign resume, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoSaveRollsBackOnChildInsertFailure(t *testing.T) {
	repo, mock := newMockRepo(t)
	resume := testResume()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT user_id FROM resumes").
		WithArgs(resume.ID).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO resumes").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("DELETE FROM experiences").WithArgs(resume.ID).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM educations").WithArgs(resume.ID).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM section_items").WithArgs(resume.ID).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO experiences").WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	if _, err := repo.Save(context.Background(), resume); err == nil {
		t.Fatalf("expected error from child insert")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoGetByIDLoadsChildren(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()

	columns := []string{
		"id", "user_id", "title", "description",
		"full_name", "headline", "email", "phone", "address", "website",
		"photo_url", "photo_key", "summary",
		"color", "border_style", "layout", "font_family", "font_size_pt", "section_visibility",
		"created_at", "updated_at",
	}
	mock.ExpectQuery("SELECT (.+) FROM resumes").
		WithArgs("resume-1", "user-1").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(
			"resume-1", "user-1", "Backend Engineer", nil,
			"Ada Example", nil, nil, nil, nil, nil,
			"/api/v1/resumes/resume-1/photo", "key-1", nil,
			"#1f2937", "plain", "classic", "Inter", 11, []byte(`{"education":false}`),
			now, now,
		))
	mock.ExpectQuery("FROM experiences").
		WithArgs("resume-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "resume_id", "company", "title", "location", "start_date", "end_date", "current", "description", "position",
		}).AddRow("exp-1", "resume-1", "Acme", "Engineer", nil, "2020-01", nil, true, nil, 0))
	mock.ExpectQuery("FROM educations").
		WithArgs("resume-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "resume_id", "school", "degree", "field", "start_date", "end_date", "description", "position",
		}))
	mock.ExpectQuery("FROM section_items").
		WithArgs("resume-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "resume_id", "kind", "name", "level", "position",
		}).AddRow("skill-1", "resume-1", "skills", "Go", "expert", 0).
			AddRow("lang-1", "resume-1", "languages", "English", nil, 1))

	resume, err := repo.GetByID(context.Background(), "user-1", "resume-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if resume.Photo.State != PhotoStored || resume.Photo.StorageKey != "key-1" {
		t.Fatalf("photo not reconstructed: %+v", resume.Photo)
	}
	if resume.Style.SectionVisible("education") {
		t.Fatalf("visibility map not decoded")
	}
	if len(resume.Experiences) != 1 || resume.Experiences[0].Company != "Acme" {
		t.Fatalf("experiences not loaded: %+v", resume.Experiences)
	}
	if len(resume.Skills) != 1 || len(resume.Languages) != 1 {
		t.Fatalf("section items not routed by kind: skills=%d languages=%d", len(resume.Skills), len(resume.Languages))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM resumes").
		WithArgs("missing", "user-1").
		WillReturnError(sql.ErrNoRows)

	if _, err := repo.GetByID(context.Background(), "user-1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoDeleteNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("DELETE FROM resumes").
		WithArgs("missing", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "user-1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoCountByUser(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountByUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("CountByUser: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected count 2, got %d", count)
	}
}
