package form

import (
	"github.com/rs/zerolog"
)

// Factory constructs a form, failing when its backend is unavailable.
type Factory func() (Form, error)

// Entry names one candidate backend.
type Entry struct {
	Tag string
	New Factory
}

// Catalog is the ordered list of backends the process knows about.
type Catalog []Entry

// Set is the immutable result of feature detection: the forms whose
// backends could be constructed, in catalog order.
type Set struct {
	tags  []string
	forms map[string]Form
}

// Detect constructs every catalog entry once. Entries whose factory fails
// are logged and left out.
func Detect(c Catalog, logger zerolog.Logger) Set {
	s := Set{forms: make(map[string]Form, len(c))}
	for _, e := range c {
		f, err := e.New()
		if err != nil {
			logger.Info().Err(err).Str("form", e.Tag).Msg("form backend unavailable")
			continue
		}
		if _, dup := s.forms[e.Tag]; dup {
			continue
		}
		s.tags = append(s.tags, e.Tag)
		s.forms[e.Tag] = f
	}
	return s
}

// Has reports whether tag was detected.
func (s Set) Has(tag string) bool {
	_, ok := s.forms[tag]
	return ok
}

// Tags returns the detected tags in catalog order.
func (s Set) Tags() []string {
	out := make([]string, len(s.tags))
	copy(out, s.tags)
	return out
}

// Form returns the detected form for tag.
func (s Set) Form(tag string) (Form, bool) {
	f, ok := s.forms[tag]
	return f, ok
}
