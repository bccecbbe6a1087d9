// Package content provides the per-variant content bundles consumed by the
// presentation layer. The engine itself never renders content; it only
// answers "what string should variant X show for slot Y".
package content

// Kind identifies a content slot within a bundle.
type Kind string

const (
	KindHero        Kind = "hero"
	KindCTA         Kind = "cta"
	KindSocialProof Kind = "social_proof"
	KindUrgency     Kind = "urgency"
)

// Bundle holds the copy for every content slot of one variant.
type Bundle struct {
	Hero        string `yaml:"hero,omitempty" json:"hero,omitempty"`
	CTA         string `yaml:"cta,omitempty" json:"cta,omitempty"`
	SocialProof string `yaml:"social_proof,omitempty" json:"social_proof,omitempty"`
	Urgency     string `yaml:"urgency,omitempty" json:"urgency,omitempty"`
}

// Get returns the string for the given slot, or "" for an unknown slot.
func (b Bundle) Get(kind Kind) string {
	switch kind {
	case KindHero:
		return b.Hero
	case KindCTA:
		return b.CTA
	case KindSocialProof:
		return b.SocialProof
	case KindUrgency:
		return b.Urgency
	default:
		return ""
	}
}

// DefaultBundle is returned for variants with no registered bundle, so an
// unrecognized variant degrades to neutral copy instead of failing.
var DefaultBundle = Bundle{
	Hero:        "Welcome",
	CTA:         "Get started",
	SocialProof: "Trusted by thousands of teams",
	Urgency:     "Limited availability",
}

// Library resolves variant labels to content bundles.
type Library struct {
	bundles  map[string]Bundle
	fallback Bundle
}

// NewLibrary creates a library over the given per-variant bundles. Unknown
// variants resolve to DefaultBundle.
func NewLibrary(bundles map[string]Bundle) *Library {
	copied := make(map[string]Bundle, len(bundles))
	for k, v := range bundles {
		copied[k] = v
	}
	return &Library{bundles: copied, fallback: DefaultBundle}
}

// Get returns the content string for a variant and slot. A variant without a
// bundle, or a bundle with an empty slot, falls back to the default bundle.
func (l *Library) Get(variant string, kind Kind) string {
	if b, ok := l.bundles[variant]; ok {
		if s := b.Get(kind); s != "" {
			return s
		}
	}
	return l.fallback.Get(kind)
}

// Bundle returns the full bundle for a variant, falling back per slot.
func (l *Library) Bundle(variant string) Bundle {
	return Bundle{
		Hero:        l.Get(variant, KindHero),
		CTA:         l.Get(variant, KindCTA),
		SocialProof: l.Get(variant, KindSocialProof),
		Urgency:     l.Get(variant, KindUrgency),
	}
}
