// Package profileform holds the edit state of the signed-in user's profile: a baseline
// copy from the server, a draft being edited, and the submit lifecycle.
package profileform

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/garnizeh/campusfeed/internal/validation"
	"github.com/garnizeh/campusfeed/pkg/models"
)

// package-level logger for internal/profileform; can be replaced by callers
var logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

// SetLogger installs a logger for the profileform package. Passing nil is a no-op.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

// Service is the part of the request service the form uses.
type Service interface {
	FetchCurrentProfile(ctx context.Context) (*models.UserProfile, error)
	UpdateUserProfile(ctx context.Context, u models.ProfileUpdate) (*models.UserProfile, error)
}

// RuleSet validates a draft before it is sent.
type RuleSet interface {
	Validate(ctx context.Context, role models.Role, u models.ProfileUpdate) ([]validation.Violation, error)
}

// ExperienceEntry is an Experience with a key that stays stable while entries around
// it are added and removed.
type ExperienceEntry struct {
	Key string
	models.Experience
}

// Draft is the editable part of a profile.
type Draft struct {
	FirstName      string
	LastName       string
	Phone          string
	ProfilePicture string

	CurrentCompany  string
	CurrentPosition string
	CurrentCity     string
	CurrentCountry  string
	LinkedIn        string
	Experiences     []ExperienceEntry
	Skills          []models.Skill
}

// ReadOnly is the part of a profile the user sees but cannot edit.
type ReadOnly struct {
	Role           models.Role
	Email          string
	Department     string
	Campus         string
	Batch          string
	GraduationYear string
}

type Option func(*Form)

// WithOnSaved registers a hook run with the server copy after every successful submit.
func WithOnSaved(fn func(models.UserProfile)) Option {
	return func(f *Form) { f.onSaved = fn }
}

func WithLogger(l *slog.Logger) Option {
	return func(f *Form) {
		if l != nil {
			f.logger = l
		}
	}
}

type Form struct {
	svc     Service
	rules   RuleSet
	logger  *slog.Logger
	onSaved func(models.UserProfile)

	mu         sync.Mutex
	loaded     bool
	profile    models.UserProfile
	baseline   Draft
	draft      Draft
	submitting bool
	violations []validation.Violation
}

func New(svc Service, rules RuleSet, opts ...Option) *Form {
	f := &Form{svc: svc, rules: rules, logger: logger}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Load fetches the current profile and resets baseline and draft to it.
func (f *Form) Load(ctx context.Context) error {
	p, err := f.svc.FetchCurrentProfile(ctx)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	if p == nil {
		return fmt.Errorf("load profile: %w", ErrNotLoaded)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.reset(*p)
	return nil
}

// reset installs p as the baseline; caller holds f.mu.
func (f *Form) reset(p models.UserProfile) {
	f.profile = p
	f.baseline = draftFrom(p)
	f.draft = cloneDraft(f.baseline)
	f.violations = nil
	f.loaded = true
}

func (f *Form) Loaded() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loaded
}

func (f *Form) ReadOnly() ReadOnly {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.profile
	ro := ReadOnly{Role: p.Role, Email: p.Email, Department: p.Department, Campus: p.Campus}
	if p.Role == models.RoleAlumni {
		ro.GraduationYear = p.GraduationYear
	} else {
		ro.Batch = p.Batch
	}
	return ro
}

// Draft returns a copy of the current draft.
func (f *Form) Draft() Draft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneDraft(f.draft)
}

// Update edits the scalar fields of the draft through fn. Skills and experiences are
// restored afterwards whatever fn did; they change only through AddSkill, RemoveSkill and
// the experience methods, which keep skills unique and entry keys stable. For students
// the alumni-only fields are cleared as well.
func (f *Form) Update(fn func(*Draft)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.loaded {
		return ErrNotLoaded
	}

	d := cloneDraft(f.draft)
	fn(&d)
	d.Skills = slices.Clone(f.draft.Skills)
	d.Experiences = slices.Clone(f.draft.Experiences)
	if f.profile.Role != models.RoleAlumni {
		stripAlumni(&d)
	}
	f.draft = d
	return nil
}

// Dirty reports whether the draft differs from the baseline.
func (f *Form) Dirty() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dirty()
}

func (f *Form) dirty() bool {
	return f.loaded && !equalDrafts(f.baseline, f.draft)
}

func (f *Form) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

// CanSubmit is true when there are changes and no submission is running.
func (f *Form) CanSubmit() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dirty() && !f.submitting
}

// Violations returns the field errors of the last rejected submit.
func (f *Form) Violations() []validation.Violation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.violations)
}

// AppendExperience adds an empty entry at the end and returns its key.
func (f *Form) AppendExperience() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.alumniOnly(); err != nil {
		return "", err
	}
	key := uuid.NewString()
	f.draft.Experiences = append(slices.Clone(f.draft.Experiences), ExperienceEntry{Key: key})
	return key, nil
}

// RemoveExperience deletes the entry at i; later entries shift down in order.
func (f *Form) RemoveExperience(i int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.alumniOnly(); err != nil {
		return err
	}
	if i < 0 || i >= len(f.draft.Experiences) {
		return fmt.Errorf("remove experience %d: %w", i, ErrOutOfRange)
	}
	f.draft.Experiences = slices.Delete(slices.Clone(f.draft.Experiences), i, i+1)
	return nil
}

// UpdateExperience edits the entry with the given key.
func (f *Form) UpdateExperience(key string, fn func(*models.Experience)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.alumniOnly(); err != nil {
		return err
	}
	i := slices.IndexFunc(f.draft.Experiences, func(e ExperienceEntry) bool { return e.Key == key })
	if i < 0 {
		return fmt.Errorf("experience %s: %w", key, ErrUnknownExperience)
	}
	exps := slices.Clone(f.draft.Experiences)
	fn(&exps[i].Experience)
	f.draft.Experiences = exps
	return nil
}

// AddSkill adds a skill tag. Surrounding whitespace is trimmed and an empty name is
// ignored; names are unique case-sensitively.
func (f *Form) AddSkill(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.alumniOnly(); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	if slices.ContainsFunc(f.draft.Skills, func(s models.Skill) bool { return s.Name == name }) {
		return fmt.Errorf("%q: %w", name, ErrDuplicateSkill)
	}
	f.draft.Skills = append(slices.Clone(f.draft.Skills), models.Skill{Name: name})
	return nil
}

func (f *Form) RemoveSkill(i int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.alumniOnly(); err != nil {
		return err
	}
	if i < 0 || i >= len(f.draft.Skills) {
		return fmt.Errorf("remove skill %d: %w", i, ErrOutOfRange)
	}
	f.draft.Skills = slices.Delete(slices.Clone(f.draft.Skills), i, i+1)
	return nil
}

func (f *Form) alumniOnly() error {
	if !f.loaded {
		return ErrNotLoaded
	}
	if f.profile.Role != models.RoleAlumni {
		return ErrAlumniOnly
	}
	return nil
}

// Submit validates the draft and sends it. A draft that fails validation returns a
// *ValidationError and nothing is sent. On success the server copy becomes the new
// baseline, the draft is reset to it and the OnSaved hook runs.
func (f *Form) Submit(ctx context.Context) (*models.UserProfile, error) {
	f.mu.Lock()
	switch {
	case !f.loaded:
		f.mu.Unlock()
		return nil, ErrNotLoaded
	case f.submitting:
		f.mu.Unlock()
		return nil, ErrSubmitting
	case !f.dirty():
		f.mu.Unlock()
		return nil, ErrNotDirty
	}
	role, userID := f.profile.Role, f.profile.ID
	u := toUpdate(f.draft, role)
	f.submitting = true
	f.mu.Unlock()

	done := func() {
		f.mu.Lock()
		f.submitting = false
		f.mu.Unlock()
	}

	if f.rules != nil {
		vs, err := f.rules.Validate(ctx, role, u)
		if err != nil {
			done()
			return nil, fmt.Errorf("validate profile: %w", err)
		}
		if len(vs) > 0 {
			f.mu.Lock()
			f.submitting = false
			f.violations = vs
			f.mu.Unlock()
			return nil, &ValidationError{Violations: vs}
		}
	}

	saved, err := f.svc.UpdateUserProfile(ctx, u)
	if err != nil {
		done()
		f.logger.Warn("profile update failed", "user_id", userID, "err", err)
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if saved == nil {
		done()
		return nil, fmt.Errorf("update profile: empty response")
	}

	f.mu.Lock()
	f.submitting = false
	f.reset(*saved)
	hook := f.onSaved
	f.mu.Unlock()

	if hook != nil {
		hook(*saved)
	}
	return saved, nil
}

func draftFrom(p models.UserProfile) Draft {
	d := Draft{
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		Phone:          p.Phone,
		ProfilePicture: p.ProfilePicture,
	}
	if p.Role != models.RoleAlumni {
		return d
	}
	d.CurrentCompany = p.CurrentCompany
	d.CurrentPosition = p.CurrentPosition
	d.CurrentCity = p.CurrentCity
	d.CurrentCountry = p.CurrentCountry
	d.LinkedIn = p.LinkedIn
	for _, e := range p.PreviousExperiences {
		d.Experiences = append(d.Experiences, ExperienceEntry{Key: uuid.NewString(), Experience: e})
	}
	d.Skills = slices.Clone(p.Skills)
	return d
}

func toUpdate(d Draft, role models.Role) models.ProfileUpdate {
	u := models.ProfileUpdate{
		FirstName:      strings.TrimSpace(d.FirstName),
		LastName:       strings.TrimSpace(d.LastName),
		Phone:          strings.TrimSpace(d.Phone),
		ProfilePicture: d.ProfilePicture,
	}
	if role != models.RoleAlumni {
		return u
	}
	u.CurrentCompany = d.CurrentCompany
	u.CurrentPosition = d.CurrentPosition
	u.CurrentCity = d.CurrentCity
	u.CurrentCountry = d.CurrentCountry
	u.LinkedIn = strings.TrimSpace(d.LinkedIn)
	u.PreviousExperiences = make([]models.Experience, 0, len(d.Experiences))
	for _, e := range d.Experiences {
		u.PreviousExperiences = append(u.PreviousExperiences, e.Experience)
	}
	u.Skills = append([]models.Skill{}, d.Skills...)
	return u
}

func stripAlumni(d *Draft) {
	d.CurrentCompany = ""
	d.CurrentPosition = ""
	d.CurrentCity = ""
	d.CurrentCountry = ""
	d.LinkedIn = ""
	d.Experiences = nil
	d.Skills = nil
}

func cloneDraft(d Draft) Draft {
	d.Experiences = slices.Clone(d.Experiences)
	d.Skills = slices.Clone(d.Skills)
	return d
}

// equalDrafts compares content; experience keys are not content.
func equalDrafts(a, b Draft) bool {
	if a.FirstName != b.FirstName || a.LastName != b.LastName || a.Phone != b.Phone ||
		a.ProfilePicture != b.ProfilePicture || a.CurrentCompany != b.CurrentCompany ||
		a.CurrentPosition != b.CurrentPosition || a.CurrentCity != b.CurrentCity ||
		a.CurrentCountry != b.CurrentCountry || a.LinkedIn != b.LinkedIn {
		return false
	}
	if !slices.EqualFunc(a.Experiences, b.Experiences, func(x, y ExperienceEntry) bool { return x.Experience == y.Experience }) {
		return false
	}
	return slices.Equal(a.Skills, b.Skills)
}
