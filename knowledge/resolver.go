package knowledge

import (
	"sort"
	"strings"

	prose "github.com/jdkato/prose/v2"
	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// Kind tags which collection a resolved reference came from.
type Kind int

const (
	KindNone Kind = iota
	KindPlace
	KindBusiness
	KindParish
	KindTag
	KindAmbiguous
)

// Reference is the outcome of resolving free text against the store. Exactly
// one variant applies: a single entity (Kind + Name), an ambiguous set of 2+
// candidate names in descending score order, or nothing.
type Reference struct {
	Kind       Kind
	Name       string
	Candidates []string
}

func (r Reference) IsNone() bool      { return r.Kind == KindNone }
func (r Reference) IsAmbiguous() bool { return r.Kind == KindAmbiguous }

const (
	// DefaultScoreCutoff is the minimum partial-ratio score a name needs to
	// stay in the running.
	DefaultScoreCutoff = 70
	// DefaultAmbiguityBand is how close to the best score a candidate must be
	// to count as a rival.
	DefaultAmbiguityBand = 10
)

// Resolver maps user text to known entity names. It is stateless between
// calls and safe for concurrent use over an immutable store.
type Resolver struct {
	store *Store

	ScoreCutoff   int
	AmbiguityBand int

	// scorer and spans are swappable for tests; defaults are the fuzzy
	// partial ratio and prose named-entity extraction.
	scorer func(query, name string) int
	spans  func(text string) []string
}

func NewResolver(store *Store) *Resolver {
	return &Resolver{
		store:         store,
		ScoreCutoff:   DefaultScoreCutoff,
		AmbiguityBand: DefaultAmbiguityBand,
		scorer:        fuzzy.PartialRatio,
		spans:         namedEntitySpans,
	}
}

type scored struct {
	name  string
	score int
}

// Resolve runs the resolution ladder: exact case-insensitive match, fuzzy
// partial-ratio scoring with substring disambiguation, then named-entity
// containment. Genuinely similar names are surfaced as ambiguous rather than
// guessed between.
func (r *Resolver) Resolve(text string) Reference {
	text = strings.TrimSpace(text)
	if text == "" {
		return Reference{Kind: KindNone}
	}
	lower := strings.ToLower(text)

	for _, name := range r.store.AllNames() {
		if strings.ToLower(name) == lower {
			return r.categorize(name)
		}
	}

	// A name held by several collections appears once; categorize picks the
	// collection afterwards.
	seen := make(map[string]bool)
	var matches []scored
	for _, name := range r.store.AllNames() {
		if seen[name] {
			continue
		}
		seen[name] = true
		if score := r.scorer(text, name); score >= r.ScoreCutoff {
			matches = append(matches, scored{name: name, score: score})
		}
	}

	if len(matches) == 0 {
		return r.resolveBySpans(text)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})
	best := matches[0]

	if len(matches) > 1 {
		filtered := r.filterSubstrings(matches, best.score)
		if len(filtered) > 1 {
			names := make([]string, len(filtered))
			for i, m := range filtered {
				names[i] = m.name
			}
			return Reference{Kind: KindAmbiguous, Candidates: names}
		}
		if len(filtered) == 1 {
			best = filtered[0]
		}
	}

	return r.categorize(best.name)
}

// filterSubstrings keeps the candidates within the ambiguity band of the best
// score, discarding any name that is contained in a strictly longer rival
// scoring in the same band. Equal-length near-duplicates both survive.
func (r *Resolver) filterSubstrings(matches []scored, best int) []scored {
	var filtered []scored
	for _, m := range matches {
		if m.score < best-r.AmbiguityBand {
			continue
		}
		eclipsed := false
		for _, other := range matches {
			if other.name == m.name {
				continue
			}
			if abs(m.score-other.score) > r.AmbiguityBand {
				continue
			}
			if len(other.name) > len(m.name) && foldContainsEither(m.name, other.name) {
				eclipsed = true
				break
			}
		}
		if !eclipsed {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

// resolveBySpans is the last resort: extract location/organization spans from
// the text and test containment against place, then business, then parish
// names.
func (r *Resolver) resolveBySpans(text string) Reference {
	for _, span := range r.spans(text) {
		span = strings.ToLower(strings.TrimSpace(span))
		if span == "" {
			continue
		}
		for _, name := range r.store.placeNames {
			if strings.Contains(strings.ToLower(name), span) {
				return Reference{Kind: KindPlace, Name: name}
			}
		}
		for _, name := range r.store.businessNames {
			if strings.Contains(strings.ToLower(name), span) {
				return Reference{Kind: KindBusiness, Name: name}
			}
		}
		for _, name := range r.store.parishNames {
			if strings.Contains(strings.ToLower(name), span) {
				return Reference{Kind: KindParish, Name: name}
			}
		}
	}
	return Reference{Kind: KindNone}
}

// categorize assigns the collection for a known name, in fixed priority
// order: place, business, parish, tag.
func (r *Resolver) categorize(name string) Reference {
	if _, ok := r.store.places[name]; ok {
		return Reference{Kind: KindPlace, Name: name}
	}
	if _, ok := r.store.businesses[name]; ok {
		return Reference{Kind: KindBusiness, Name: name}
	}
	if _, ok := r.store.parishes[name]; ok {
		return Reference{Kind: KindParish, Name: name}
	}
	if _, ok := r.store.tags[name]; ok {
		return Reference{Kind: KindTag, Name: name}
	}
	return Reference{Kind: KindNone}
}

func namedEntitySpans(text string) []string {
	doc, err := prose.NewDocument(text)
	if err != nil {
		return nil
	}
	var spans []string
	for _, ent := range doc.Entities() {
		spans = append(spans, ent.Text)
	}
	return spans
}

func foldContainsEither(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	return strings.Contains(la, lb) || strings.Contains(lb, la)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
