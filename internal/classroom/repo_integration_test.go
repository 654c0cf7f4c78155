//go:build integration

package classroom

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"classcall/internal/store"
)

// Exercises the real SQL, including the ORDER BY contracts and the unique
// index semantics the fakes only model. Run with -tags integration against
// a disposable database.
func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := store.NewDB(dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("schema: %v", err)
	}
	return NewRepository(db.Client)
}

func insertTestClass(t *testing.T, repo *Repository, owner string, createdAt time.Time) Class {
	t.Helper()
	code, err := NewCode()
	if err != nil {
		t.Fatalf("NewCode: %v", err)
	}
	class := Class{
		ID:         uuid.NewString(),
		Code:       code,
		Name:       "Integration " + code,
		OwnerEmail: owner,
		Window:     10 * time.Minute,
		CreatedAt:  createdAt.UTC(),
	}
	if err := repo.InsertClass(context.Background(), class); err != nil {
		t.Fatalf("InsertClass: %v", err)
	}
	return class
}

func TestRepository_ClassesByOwnerNewestFirst(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	owner := uuid.NewString() + "@integration.test"
	t0 := time.Now().UTC().Truncate(time.Microsecond)

	oldest := insertTestClass(t, repo, owner, t0.Add(-2*time.Hour))
	newest := insertTestClass(t, repo, owner, t0)
	middle := insertTestClass(t, repo, owner, t0.Add(-time.Hour))

	classes, err := repo.ClassesByOwner(ctx, owner)
	if err != nil {
		t.Fatalf("ClassesByOwner: %v", err)
	}
	want := []string{newest.Code, middle.Code, oldest.Code}
	if len(classes) != len(want) {
		t.Fatalf("classes = %d, want %d", len(classes), len(want))
	}
	for i, code := range want {
		if classes[i].Code != code {
			t.Errorf("classes[%d].Code = %q, want %q", i, classes[i].Code, code)
		}
	}
}

func TestRepository_AttendeesInAdmissionOrder(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	owner := uuid.NewString() + "@integration.test"
	t0 := time.Now().UTC().Truncate(time.Microsecond)
	class := insertTestClass(t, repo, owner, t0)

	emails := []string{"alice@integration.test", "bob@integration.test", "carol@integration.test"}
	for i, email := range emails {
		inserted, err := repo.AppendAttendee(ctx, Record{
			ID:           uuid.NewString(),
			ClassID:      class.ID,
			Email:        email,
			Name:         email,
			Registration: "R10" + string(rune('0'+i)),
			SubmittedAt:  t0.Add(time.Duration(i) * time.Minute),
		})
		if err != nil || !inserted {
			t.Fatalf("AppendAttendee(%s) = (%v, %v)", email, inserted, err)
		}
	}

	records, err := repo.Attendees(ctx, class.ID)
	if err != nil {
		t.Fatalf("Attendees: %v", err)
	}
	if len(records) != len(emails) {
		t.Fatalf("records = %d, want %d", len(records), len(emails))
	}
	for i, email := range emails {
		if records[i].Email != email {
			t.Errorf("records[%d].Email = %q, want %q", i, records[i].Email, email)
		}
	}
}

func TestRepository_AppendAttendeeSuppressesDuplicate(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	owner := uuid.NewString() + "@integration.test"
	class := insertTestClass(t, repo, owner, time.Now())

	rec := Record{
		ID:           uuid.NewString(),
		ClassID:      class.ID,
		Email:        "dup@integration.test",
		Name:         "Dup",
		Registration: "R100",
		SubmittedAt:  time.Now().UTC(),
	}
	inserted, err := repo.AppendAttendee(ctx, rec)
	if err != nil || !inserted {
		t.Fatalf("first append = (%v, %v), want insert", inserted, err)
	}

	rec.ID = uuid.NewString()
	inserted, err = repo.AppendAttendee(ctx, rec)
	if err != nil {
		t.Fatalf("second append: %v", err)
	}
	if inserted {
		t.Error("second append for the same identity must be suppressed")
	}
}

func TestRepository_InsertClassDuplicateCode(t *testing.T) {
	repo := openTestRepo(t)
	owner := uuid.NewString() + "@integration.test"
	class := insertTestClass(t, repo, owner, time.Now())

	class.ID = uuid.NewString()
	err := repo.InsertClass(context.Background(), class)
	if !errors.Is(err, ErrCodeTaken) {
		t.Fatalf("err = %v, want ErrCodeTaken", err)
	}
}
