// Package identity resolves the context an experiment needs to know about a
// subject before assigning them to a variant. The engine only depends on the
// Resolver interface; callers plug in whatever backs their user store.
package identity

import (
	"github.com/spboyer/splitlab/internal/models"
)

// Context is the per-subject information available to the engine at entry
// time.
type Context struct {
	Segment models.Segment
}

// Resolver looks up the Context for a subject. Implementations should return
// a usable Context for unknown subjects rather than failing; an error aborts
// experiment entry for that subject.
type Resolver interface {
	Resolve(subjectID string) (Context, error)
}

// ResolverFunc adapts a plain function to the Resolver interface.
type ResolverFunc func(subjectID string) (Context, error)

func (f ResolverFunc) Resolve(subjectID string) (Context, error) {
	return f(subjectID)
}

// Default resolves every subject to the default segment. It's the resolver
// the engine falls back to when none is provided.
func Default() Resolver {
	return ResolverFunc(func(string) (Context, error) {
		return Context{Segment: models.DefaultSegment}, nil
	})
}

// Static resolves subjects from a fixed segment table, falling back to the
// default segment for subjects it has never seen.
type Static struct {
	segments map[string]models.Segment
}

// NewStatic copies segments into a Static resolver. A nil map is allowed and
// behaves like Default.
func NewStatic(segments map[string]models.Segment) *Static {
	copied := make(map[string]models.Segment, len(segments))
	for id, seg := range segments {
		copied[id] = seg
	}
	return &Static{segments: copied}
}

func (s *Static) Resolve(subjectID string) (Context, error) {
	if seg, ok := s.segments[subjectID]; ok {
		return Context{Segment: seg}, nil
	}
	return Context{Segment: models.DefaultSegment}, nil
}
