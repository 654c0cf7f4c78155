package classroom

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Class is one attendance-taking session. Everything but the attendee list
// is immutable after creation; the admission window travels on the class
// row rather than living in process config.
type Class struct {
	ID         string        `json:"id"`
	Code       string        `json:"classcode"`
	Name       string        `json:"classname"`
	OwnerEmail string        `json:"email"`
	Window     time.Duration `json:"-"`
	CreatedAt  time.Time     `json:"createdon"`
}

// Record is a single admitted attendee. Append-only, never updated.
type Record struct {
	ID           string    `json:"id"`
	ClassID      string    `json:"-"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Registration string    `json:"registration"`
	SubmittedAt  time.Time `json:"datetime"`
}

// Attendee is the authenticated identity submitting attendance. The engine
// trusts the caller layer to have authenticated it.
type Attendee struct {
	Email string
	Name  string
}

// Outcome is a business result of an admission attempt. Rejections are
// outcomes, not errors: the caller renders them as friendly messages.
type Outcome string

const (
	Admitted        Outcome = "admitted"
	AlreadyAdmitted Outcome = "already_marked"
	WindowExpired   Outcome = "window_closed"
)

// AdmitResult carries the outcome and, on admission, the persisted record.
type AdmitResult struct {
	Outcome Outcome
	Record  *Record
}

var (
	// ErrClassNotFound means the class code does not resolve. Distinct from
	// every business outcome and from store failures.
	ErrClassNotFound = errors.New("class not found")

	// ErrCodeTaken is returned by the store when a generated class code
	// collides with an existing one.
	ErrCodeTaken = errors.New("class code already in use")

	// ErrStoreUnavailable wraps transient store failures so callers can
	// report a retryable condition instead of a not-found.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Store is the persistence contract the service needs. AppendAttendee must
// be a single atomic conditional insert: it reports false, without writing,
// when a record for the same (class, attendee) pair already exists.
// ClassesByOwner returns newest first; Attendees returns admission order.
type Store interface {
	InsertClass(ctx context.Context, class Class) error
	ClassByCode(ctx context.Context, code string) (*Class, error)
	ClassesByOwner(ctx context.Context, ownerEmail string) ([]Class, error)
	HasAttendee(ctx context.Context, classID, email string) (bool, error)
	AppendAttendee(ctx context.Context, rec Record) (bool, error)
	Attendees(ctx context.Context, classID string) ([]Record, error)
}

// Service enforces the admission invariants: at most one record per
// identity per class, and only within the class's admission window.
type Service struct {
	store  Store
	window time.Duration
}

// NewService creates a service. window is the admission window stamped onto
// newly created classes; existing classes keep whatever they were created
// with.
func NewService(store Store, window time.Duration) *Service {
	if window <= 0 {
		window = 10 * time.Minute
	}
	return &Service{store: store, window: window}
}

const createAttempts = 5

// CreateClass generates a fresh class code and persists the class. The
// store's uniqueness constraint on the code is the correctness backstop: a
// collision is retried with a new code rather than assumed impossible.
func (s *Service) CreateClass(ctx context.Context, name, ownerEmail string, now time.Time) (Class, error) {
	if name == "" {
		return Class{}, errors.New("class name required")
	}
	if ownerEmail == "" {
		return Class{}, errors.New("owner required")
	}

	var lastErr error
	for i := 0; i < createAttempts; i++ {
		code, err := NewCode()
		if err != nil {
			return Class{}, err
		}
		class := Class{
			ID:         uuid.NewString(),
			Code:       code,
			Name:       name,
			OwnerEmail: ownerEmail,
			Window:     s.window,
			CreatedAt:  now.UTC(),
		}
		err = s.store.InsertClass(ctx, class)
		if err == nil {
			return class, nil
		}
		if errors.Is(err, ErrCodeTaken) {
			lastErr = err
			continue
		}
		return Class{}, storeErr(err)
	}
	return Class{}, fmt.Errorf("could not allocate a unique class code: %w", lastErr)
}

// Admit decides whether the attendee joins the class. First match wins:
// unknown code, then duplicate identity, then expired window, then admit.
// now is an explicit input so the decision is deterministic.
func (s *Service) Admit(ctx context.Context, classCode string, att Attendee, registration string, now time.Time) (AdmitResult, error) {
	if att.Email == "" {
		return AdmitResult{}, errors.New("attendee identity required")
	}

	class, err := s.store.ClassByCode(ctx, classCode)
	if err != nil {
		return AdmitResult{}, storeErr(err)
	}
	if class == nil {
		return AdmitResult{}, ErrClassNotFound
	}

	// Advisory fast path; the unique index behind AppendAttendee is what
	// actually guarantees at-most-once under concurrent submissions.
	present, err := s.store.HasAttendee(ctx, class.ID, att.Email)
	if err != nil {
		return AdmitResult{}, storeErr(err)
	}
	if present {
		return AdmitResult{Outcome: AlreadyAdmitted}, nil
	}

	// A record's submittedAt must lie in [createdAt, createdAt+window].
	// The upper boundary is inclusive; a now before createdAt (skewed
	// clock) is out of window too, never admitted.
	elapsed := now.Sub(class.CreatedAt)
	if elapsed < 0 || elapsed > class.Window {
		return AdmitResult{Outcome: WindowExpired}, nil
	}

	rec := Record{
		ID:           uuid.NewString(),
		ClassID:      class.ID,
		Email:        att.Email,
		Name:         att.Name,
		Registration: registration,
		SubmittedAt:  now.UTC(),
	}
	inserted, err := s.store.AppendAttendee(ctx, rec)
	if err != nil {
		return AdmitResult{}, storeErr(err)
	}
	if !inserted {
		// Lost a race against an identical concurrent submission.
		return AdmitResult{Outcome: AlreadyAdmitted}, nil
	}
	return AdmitResult{Outcome: Admitted, Record: &rec}, nil
}

// ListClasses returns the caller's classes, newest first.
func (s *Service) ListClasses(ctx context.Context, ownerEmail string) ([]Class, error) {
	classes, err := s.store.ClassesByOwner(ctx, ownerEmail)
	if err != nil {
		return nil, storeErr(err)
	}
	return classes, nil
}

// Roster returns a class and its attendee records in admission order.
func (s *Service) Roster(ctx context.Context, classCode string) (*Class, []Record, error) {
	class, err := s.store.ClassByCode(ctx, classCode)
	if err != nil {
		return nil, nil, storeErr(err)
	}
	if class == nil {
		return nil, nil, ErrClassNotFound
	}
	records, err := s.store.Attendees(ctx, class.ID)
	if err != nil {
		return nil, nil, storeErr(err)
	}
	return class, records, nil
}

func storeErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
