package medidown

import (
	"fmt"
	"math"
	"sort"

	"github.com/hashicorp/go-multierror"

	"github.com/yashdhanani30/medidown/generic"
)

var (
	PriorityHighest int16 = math.MinInt16
	PriorityDefault int16 = 0
	PriorityLowest  int16 = math.MaxInt16
)

type registered struct {
	source Source
	// Priority of the source when matching, lower (including negative)
	// means matching earlier.
	priority int16
}

// A SourceRegistry is a collection of Source instances which can be used to
// try to match URLs. Construct one explicitly (e.g. via sources/all.New) and
// pass it to the resolver; there is no package-level default registry.
type SourceRegistry struct {
	sources   []*registered
	sourceMap map[string]*registered
}

// Add registers a Source. Source.Name must be non-empty and unique within
// the registry.
func (r *SourceRegistry) Add(s Source) error {
	return r.AddPriority(s, PriorityDefault)
}

// AddPriority registers a Source with an explicit matching priority.
func (r *SourceRegistry) AddPriority(s Source, priority int16) error {
	if r.sourceMap == nil {
		r.sourceMap = make(map[string]*registered)
	}
	if s == nil || s.Name() == "" {
		return ErrInvalidSource
	}
	if _, ok := r.sourceMap[s.Name()]; ok {
		return ErrDuplicateSource
	}
	entry := &registered{source: s, priority: priority}
	r.sourceMap[s.Name()] = entry
	r.sources = append(r.sources, entry)
	r.sortByPriority()
	return nil
}

// MustAdd wraps Add but panics if there is an error.
func (r *SourceRegistry) MustAdd(s Source) {
	generic.Unwrap_(r.Add(s))
}

// Get returns the named Source, or ErrUnknownSource.
func (r *SourceRegistry) Get(name string) (Source, error) {
	if entry, ok := r.sourceMap[name]; ok {
		return entry.source, nil
	}
	return nil, ErrUnknownSource
}

// Names returns the names of registered sources in priority order.
func (r *SourceRegistry) Names() []string {
	names := make([]string, 0, len(r.sources))
	for _, entry := range r.sources {
		names = append(names, entry.source.Name())
	}
	return names
}

// Match tries rawURL against each Source in priority order. If no source
// matches, the returned error wraps ErrInvalidInput along with every
// source's match error.
func (r *SourceRegistry) Match(rawURL string) (Source, error) {
	var result error
	for _, entry := range r.sources {
		if err := entry.source.Match(rawURL); err == nil {
			return entry.source, nil
		} else {
			result = multierror.Append(result, multierror.Prefix(err, fmt.Sprintf("[%v]", entry.source.Name())))
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrInvalidInput, result)
}

// MatchWith tries rawURL against a specific source only.
func (r *SourceRegistry) MatchWith(name string, rawURL string) (Source, error) {
	entry, ok := r.sourceMap[name]
	if !ok {
		return nil, ErrUnknownSource
	}
	if err := entry.source.Match(rawURL); err != nil {
		return nil, fmt.Errorf("%w: [%v] %v", ErrInvalidInput, name, err)
	}
	return entry.source, nil
}

func (r *SourceRegistry) sortByPriority() {
	sort.SliceStable(r.sources, func(i, j int) bool {
		return r.sources[i].priority < r.sources[j].priority
	})
}
