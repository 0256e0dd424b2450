// Package validation checks profile drafts against per-role JSON schemas before they
// are submitted.
package validation

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/qri-io/jsonschema"

	"github.com/garnizeh/campusfeed/pkg/models"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Violation is one field-level failure. Field is a slash-separated path into the
// draft, e.g. "firstName" or "previousExperiences/0/company".
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// RuleSet holds one compiled schema per role.
type RuleSet struct {
	schemas map[models.Role]*jsonschema.Schema
}

// NewRuleSet compiles the embedded student and alumni schemas.
func NewRuleSet() (*RuleSet, error) {
	rs := &RuleSet{schemas: make(map[models.Role]*jsonschema.Schema)}
	for role, file := range map[models.Role]string{
		models.RoleStudent: "schemas/student.json",
		models.RoleAlumni:  "schemas/alumni.json",
	} {
		b, err := schemaFS.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", file, err)
		}
		s := &jsonschema.Schema{}
		if err := json.Unmarshal(b, s); err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", file, err)
		}
		rs.schemas[role] = s
	}
	return rs, nil
}

// Validate returns the violations of u for role. An empty result means u may be sent.
func (r *RuleSet) Validate(ctx context.Context, role models.Role, u models.ProfileUpdate) ([]Violation, error) {
	s, ok := r.schemas[role]
	if !ok {
		return nil, fmt.Errorf("no rule set for role %q", role)
	}

	// arrays are validated as arrays, never as null
	if u.PreviousExperiences == nil {
		u.PreviousExperiences = []models.Experience{}
	}
	if u.Skills == nil {
		u.Skills = []models.Skill{}
	}
	b, err := json.Marshal(u)
	if err != nil {
		return nil, fmt.Errorf("encode draft: %w", err)
	}

	kerrs, err := s.ValidateBytes(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("validate draft: %w", err)
	}

	out := make([]Violation, 0, len(kerrs))
	for _, ke := range kerrs {
		out = append(out, Violation{
			Field:   strings.TrimPrefix(ke.PropertyPath, "/"),
			Message: ke.Message,
		})
	}
	return out, nil
}
