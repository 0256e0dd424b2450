package profileform_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/garnizeh/campusfeed/internal/profileform"
	"github.com/garnizeh/campusfeed/internal/validation"
	"github.com/garnizeh/campusfeed/pkg/models"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeService struct {
	profile models.UserProfile
	err     error
	gate    chan struct{}
	entered chan struct{}
	updates atomic.Int32
	last    models.ProfileUpdate
}

func (f *fakeService) FetchCurrentProfile(ctx context.Context) (*models.UserProfile, error) {
	p := f.profile
	return &p, nil
}

func (f *fakeService) UpdateUserProfile(ctx context.Context, u models.ProfileUpdate) (*models.UserProfile, error) {
	f.updates.Add(1)
	if f.entered != nil {
		close(f.entered)
	}
	if f.gate != nil {
		<-f.gate
	}
	if f.err != nil {
		return nil, f.err
	}
	f.last = u
	p := f.profile
	p.FirstName, p.LastName, p.Phone = u.FirstName, u.LastName, u.Phone
	p.PreviousExperiences, p.Skills = u.PreviousExperiences, u.Skills
	return &p, nil
}

func alumni() models.UserProfile {
	return models.UserProfile{
		ID: "u1", Role: models.RoleAlumni, Email: "ada@example.com", Department: "CS", Campus: "North",
		GraduationYear: "2015", Batch: "ignored", FirstName: "Ada", LastName: "Lovelace",
		PreviousExperiences: []models.Experience{
			{Company: "A", Position: "Eng", From: "2015"},
			{Company: "B", Position: "Eng", From: "2017"},
			{Company: "C", Position: "Lead", From: "2020"},
		},
		Skills: []models.Skill{{Name: "Go"}},
	}
}

func student() models.UserProfile {
	return models.UserProfile{ID: "u2", Role: models.RoleStudent, Email: "s@example.com", Batch: "2024", FirstName: "Sam", LastName: "Stone"}
}

func loadForm(t *testing.T, svc *fakeService, opts ...profileform.Option) *profileform.Form {
	t.Helper()
	rules, err := validation.NewRuleSet()
	if err != nil {
		t.Fatalf("NewRuleSet: %v", err)
	}
	f := profileform.New(svc, rules, append([]profileform.Option{profileform.WithLogger(quiet)}, opts...)...)
	if err := f.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return f
}

func TestReadOnly(t *testing.T) {
	f := loadForm(t, &fakeService{profile: alumni()})
	ro := f.ReadOnly()
	if ro.Email != "ada@example.com" || ro.GraduationYear != "2015" || ro.Batch != "" {
		t.Fatalf("unexpected alumni read-only fields: %#v", ro)
	}

	s := loadForm(t, &fakeService{profile: student()})
	if ro := s.ReadOnly(); ro.Batch != "2024" || ro.GraduationYear != "" {
		t.Fatalf("unexpected student read-only fields: %#v", ro)
	}
}

func TestDirty(t *testing.T) {
	f := loadForm(t, &fakeService{profile: alumni()})
	if f.Dirty() || f.CanSubmit() {
		t.Fatalf("fresh form must be clean")
	}
	_ = f.Update(func(d *profileform.Draft) { d.FirstName = "Augusta" })
	if !f.Dirty() || !f.CanSubmit() {
		t.Fatalf("expected dirty after edit")
	}
	_ = f.Update(func(d *profileform.Draft) { d.FirstName = "Ada" })
	if f.Dirty() {
		t.Fatalf("reverting the edit should make the form clean")
	}
}

func TestStudentCannotEditAlumniFields(t *testing.T) {
	f := loadForm(t, &fakeService{profile: student()})
	_ = f.Update(func(d *profileform.Draft) {
		d.CurrentCompany = "Acme"
		d.LinkedIn = "https://linkedin.com/in/sam"
	})
	d := f.Draft()
	if d.CurrentCompany != "" || d.LinkedIn != "" {
		t.Fatalf("alumni fields must be discarded for students: %#v", d)
	}
	if f.Dirty() {
		t.Fatalf("discarded edits must not dirty the form")
	}
	if _, err := f.AppendExperience(); !errors.Is(err, profileform.ErrAlumniOnly) {
		t.Fatalf("expected ErrAlumniOnly, got %v", err)
	}
	if err := f.AddSkill("Go"); !errors.Is(err, profileform.ErrAlumniOnly) {
		t.Fatalf("expected ErrAlumniOnly, got %v", err)
	}
}

func TestAddSkill(t *testing.T) {
	f := loadForm(t, &fakeService{profile: alumni()})

	if err := f.AddSkill("React"); err != nil {
		t.Fatalf("AddSkill: %v", err)
	}
	if err := f.AddSkill("React"); !errors.Is(err, profileform.ErrDuplicateSkill) {
		t.Fatalf("expected ErrDuplicateSkill, got %v", err)
	}
	if err := f.AddSkill("  React "); !errors.Is(err, profileform.ErrDuplicateSkill) {
		t.Fatalf("trimmed duplicate should be rejected, got %v", err)
	}
	if err := f.AddSkill("   "); err != nil {
		t.Fatalf("blank skill should be ignored, got %v", err)
	}
	if err := f.AddSkill("react"); err != nil {
		t.Fatalf("case differs, expected accepted: %v", err)
	}

	var names []string
	for _, s := range f.Draft().Skills {
		names = append(names, s.Name)
	}
	want := []string{"Go", "React", "react"}
	if len(names) != len(want) {
		t.Fatalf("unexpected skills: %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("unexpected skills: %v", names)
		}
	}

	if err := f.RemoveSkill(0); err != nil {
		t.Fatalf("RemoveSkill: %v", err)
	}
	if err := f.RemoveSkill(5); !errors.Is(err, profileform.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if got := f.Draft().Skills; len(got) != 2 || got[0].Name != "React" {
		t.Fatalf("unexpected skills after remove: %#v", got)
	}
}

func TestExperiences_RemoveKeepsOrderAndKeys(t *testing.T) {
	f := loadForm(t, &fakeService{profile: alumni()})
	before := f.Draft().Experiences
	keyC := before[2].Key

	if err := f.RemoveExperience(1); err != nil {
		t.Fatalf("RemoveExperience: %v", err)
	}
	exps := f.Draft().Experiences
	if len(exps) != 2 || exps[0].Company != "A" || exps[1].Company != "C" {
		t.Fatalf("expected [A C], got %#v", exps)
	}

	// edits addressed by key land on the same entry after the shift
	if err := f.UpdateExperience(keyC, func(e *models.Experience) { e.To = "2024" }); err != nil {
		t.Fatalf("UpdateExperience: %v", err)
	}
	if exps := f.Draft().Experiences; exps[1].To != "2024" || exps[0].To != "" {
		t.Fatalf("edit landed on the wrong entry: %#v", exps)
	}
	if err := f.UpdateExperience(before[1].Key, func(e *models.Experience) {}); !errors.Is(err, profileform.ErrUnknownExperience) {
		t.Fatalf("expected ErrUnknownExperience for removed key, got %v", err)
	}

	key, err := f.AppendExperience()
	if err != nil {
		t.Fatalf("AppendExperience: %v", err)
	}
	exps = f.Draft().Experiences
	if len(exps) != 3 || exps[2].Key != key || exps[2].Company != "" {
		t.Fatalf("expected empty entry appended, got %#v", exps)
	}
	if err := f.RemoveExperience(3); !errors.Is(err, profileform.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestUpdate_ListFieldsKeepTheirRules(t *testing.T) {
	f := loadForm(t, &fakeService{profile: alumni()})
	before := f.Draft()

	err := f.Update(func(d *profileform.Draft) {
		d.FirstName = "Augusta"
		d.Skills = append(d.Skills, models.Skill{Name: "Go"})
		d.Experiences[0].Key = "x"
		d.Experiences = d.Experiences[:1]
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	got := f.Draft()
	if got.FirstName != "Augusta" {
		t.Fatalf("scalar edit not applied: %q", got.FirstName)
	}
	if len(got.Skills) != 1 || got.Skills[0].Name != "Go" {
		t.Fatalf("duplicate skill slipped in: %#v", got.Skills)
	}
	if len(got.Experiences) != len(before.Experiences) {
		t.Fatalf("expected %d experiences, got %d", len(before.Experiences), len(got.Experiences))
	}
	for i, e := range got.Experiences {
		if e.Key != before.Experiences[i].Key {
			t.Fatalf("experience %d key changed from %q to %q", i, before.Experiences[i].Key, e.Key)
		}
	}
	if err := f.UpdateExperience(before.Experiences[0].Key, func(e *models.Experience) { e.To = "2016" }); err != nil {
		t.Fatalf("original key should still address the entry: %v", err)
	}
}

func TestSubmit_Gates(t *testing.T) {
	svc := &fakeService{profile: alumni()}
	f := loadForm(t, svc)

	if _, err := f.Submit(context.Background()); !errors.Is(err, profileform.ErrNotDirty) {
		t.Fatalf("expected ErrNotDirty, got %v", err)
	}

	unloaded := profileform.New(svc, nil)
	if _, err := unloaded.Submit(context.Background()); !errors.Is(err, profileform.ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
}

func TestSubmit_ValidationBlocksRequest(t *testing.T) {
	svc := &fakeService{profile: alumni()}
	f := loadForm(t, svc)
	_ = f.Update(func(d *profileform.Draft) { d.FirstName = "A" })

	_, err := f.Submit(context.Background())
	var verr *profileform.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field("firstName") == "" {
		t.Fatalf("expected a firstName message, got %#v", verr.Violations)
	}
	if svc.updates.Load() != 0 {
		t.Fatalf("invalid draft must not reach the network")
	}
	if len(f.Violations()) == 0 || !f.Dirty() {
		t.Fatalf("violations should be kept and the draft untouched")
	}
}

func TestSubmit_SuccessResetsAndNotifies(t *testing.T) {
	svc := &fakeService{profile: alumni()}
	var saved models.UserProfile
	f := loadForm(t, svc, profileform.WithOnSaved(func(p models.UserProfile) { saved = p }))

	_ = f.Update(func(d *profileform.Draft) { d.FirstName = "Augusta" })
	_ = f.AddSkill("Rust")

	p, err := f.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if p.FirstName != "Augusta" || saved.FirstName != "Augusta" {
		t.Fatalf("expected saved profile surfaced: %#v %#v", p, saved)
	}
	if len(svc.last.PreviousExperiences) != 3 || len(svc.last.Skills) != 2 {
		t.Fatalf("unexpected payload: %#v", svc.last)
	}
	if f.Dirty() {
		t.Fatalf("draft should be reset to the new baseline")
	}
	if f.Draft().FirstName != "Augusta" {
		t.Fatalf("baseline not replaced")
	}
}

func TestSubmit_FailureKeepsDraft(t *testing.T) {
	svc := &fakeService{profile: alumni(), err: errors.New("503")}
	f := loadForm(t, svc)
	_ = f.Update(func(d *profileform.Draft) { d.LastName = "Byron" })

	if _, err := f.Submit(context.Background()); err == nil || !errors.Is(err, svc.err) {
		t.Fatalf("expected wrapped service error, got %v", err)
	}
	if !f.Dirty() || f.Submitting() || !f.CanSubmit() {
		t.Fatalf("failed submit should leave a dirty, resubmittable draft")
	}
}

func TestSubmit_SingleInFlight(t *testing.T) {
	svc := &fakeService{profile: alumni(), gate: make(chan struct{}), entered: make(chan struct{})}
	f := loadForm(t, svc)
	_ = f.Update(func(d *profileform.Draft) { d.Phone = "+1 555 0100" })

	done := make(chan error, 1)
	go func() {
		_, err := f.Submit(context.Background())
		done <- err
	}()
	<-svc.entered

	if f.CanSubmit() {
		t.Fatalf("CanSubmit must be false while submitting")
	}
	if _, err := f.Submit(context.Background()); !errors.Is(err, profileform.ErrSubmitting) {
		t.Fatalf("expected ErrSubmitting, got %v", err)
	}
	close(svc.gate)
	if err := <-done; err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if svc.updates.Load() != 1 {
		t.Fatalf("expected exactly one update request, got %d", svc.updates.Load())
	}
}

func TestSubmit_FailureDuringReload(t *testing.T) {
	svc := &fakeService{profile: alumni(), err: errors.New("503"), gate: make(chan struct{}), entered: make(chan struct{})}
	f := loadForm(t, svc)
	_ = f.Update(func(d *profileform.Draft) { d.Phone = "+1 555 0100" })

	done := make(chan error, 1)
	go func() {
		_, err := f.Submit(context.Background())
		done <- err
	}()
	<-svc.entered

	// a reload replaces the profile while the request is still out
	if err := f.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	close(svc.gate)
	if err := <-done; !errors.Is(err, svc.err) {
		t.Fatalf("expected wrapped service error, got %v", err)
	}
	if f.Submitting() {
		t.Fatalf("Submitting should clear after a failed request")
	}
}
