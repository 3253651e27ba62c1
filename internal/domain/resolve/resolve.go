// Package resolve maps free-text student and project names to canonical
// identifiers using exact, case-insensitive matching against reference data.
//
// There is deliberately no fuzzy matching here: names are assumed accurately
// transcribed, and a miss is reported to the caller as ErrNotFound so the
// row can be skipped without aborting the batch.
package resolve

import (
	"strings"

	"github.com/okian/gradeflow/internal/domain/model"
)

// Resolver answers name lookups against one run's reference data.
type Resolver struct {
	students []model.Student
	projects []model.Project
}

// New builds a Resolver over the given reference data.
func New(ref *model.RefData) *Resolver {
	return &Resolver{
		students: ref.Students,
		projects: ref.Projects,
	}
}

// clean normalizes a name for comparison: trim surrounding whitespace,
// case-fold.
func clean(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Student resolves a free-text name to a student id. Precedence: exact
// match on the canonical name first, then exact match against aliases in
// registered order; first hit wins.
func (r *Resolver) Student(name string) (string, error) {
	want := clean(name)
	if want == "" {
		return "", ErrNotFound
	}
	for _, s := range r.students {
		if clean(s.CanonicalName) == want {
			return s.ID, nil
		}
	}
	for _, s := range r.students {
		for _, alias := range s.Aliases {
			if clean(alias) == want {
				return s.ID, nil
			}
		}
	}
	return "", ErrNotFound
}

// Project resolves a free-text name to a project id, matching the project
// name first and the optional internal name second.
func (r *Resolver) Project(name string) (string, error) {
	want := clean(name)
	if want == "" {
		return "", ErrNotFound
	}
	for _, p := range r.projects {
		if clean(p.Name) == want {
			return p.ID, nil
		}
	}
	for _, p := range r.projects {
		if p.InternalName != "" && clean(p.InternalName) == want {
			return p.ID, nil
		}
	}
	return "", ErrNotFound
}
