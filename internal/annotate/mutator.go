// Package annotate applies annotator edits to an in-memory dataset: adding
// articles and mentions, removing them and setting gold links.
//
// Mutations either succeed completely or leave the dataset untouched.
// Persisting the result is the caller's job.
package annotate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/jlonij/dac-web/internal/dataset"
	"github.com/jlonij/dac-web/internal/model"
)

// ErrInOtherDataset is returned when an article already belongs to a
// sibling dataset. It matches model.ErrDuplicate.
var ErrInOtherDataset = fmt.Errorf("article already in other data set: %w", model.ErrDuplicate)

// ErrSiblingUnavailable is returned when a sibling dataset cannot be read,
// so exclusivity cannot be verified.
var ErrSiblingUnavailable = errors.New("sibling dataset unavailable")

// NERProvider extracts named-entity mentions from an article.
type NERProvider interface {
	Entities(ctx context.Context, url string) ([]model.Entity, error)
}

// SiblingFunc returns the datasets that must not share articles with name.
type SiblingFunc func(name string) []string

// Mutator edits datasets while enforcing uniqueness within a dataset and
// exclusivity across sibling datasets.
type Mutator struct {
	ner      NERProvider
	loader   dataset.Loader
	siblings SiblingFunc
	logger   *slog.Logger
}

// Option configures a Mutator.
type Option func(*Mutator)

// WithSiblings sets the rule used to find sibling datasets.
func WithSiblings(fn SiblingFunc) Option {
	return func(m *Mutator) {
		m.siblings = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Mutator) {
		m.logger = logger
	}
}

// NewMutator creates a Mutator. loader is used to read sibling datasets.
func NewMutator(ner NERProvider, loader dataset.Loader, opts ...Option) *Mutator {
	m := &Mutator{
		ner:      ner,
		loader:   loader,
		siblings: func(string) []string { return nil },
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// AddArticle runs NER over url and appends one unlabelled instance per
// distinct mention, in the order the provider first reports them.
// It returns the number of instances added.
func (m *Mutator) AddArticle(ctx context.Context, name string, ds *model.Dataset, url string) (int, error) {
	if err := m.checkDuplicate(name, ds, url, ""); err != nil {
		return 0, err
	}

	entities, err := m.ner.Entities(ctx, url)
	if err != nil {
		return 0, fmt.Errorf("failed to extract entities: %w", err)
	}

	var distinct []model.Entity
	for _, e := range entities {
		if slices.ContainsFunc(distinct, func(d model.Entity) bool { return d.NE == e.NE }) {
			continue
		}
		distinct = append(distinct, e)
	}
	if len(distinct) == 0 {
		return 0, fmt.Errorf("%w: %s", model.ErrNoEntities, url)
	}

	for _, e := range distinct {
		ds.Append(model.Instance{
			URL:      url,
			NEString: e.NE,
			NEType:   model.StringPtr(e.Type),
			Links:    []string{},
		})
	}
	added := len(distinct)

	m.logger.Debug("article added", "dataset", name, "url", url, "instances", added)
	return added, nil
}

// AddEntity appends a single manually entered mention of url. A non-empty
// link becomes its gold value. It returns the new instance id.
func (m *Mutator) AddEntity(_ context.Context, name string, ds *model.Dataset, url, ne, link string) (int, error) {
	if err := m.checkDuplicate(name, ds, url, ne); err != nil {
		return 0, err
	}

	links := []string{}
	if link != "" {
		links = []string{link}
	}
	id := ds.Append(model.Instance{
		URL:      url,
		NEString: ne,
		Links:    links,
	})

	m.logger.Debug("entity added", "dataset", name, "url", url, "ne", ne, "id", id)
	return id, nil
}

// checkDuplicate rejects url when it is already present in ds (narrowed to
// mentions equal to ne when ne is set) or in any sibling dataset.
func (m *Mutator) checkDuplicate(name string, ds *model.Dataset, url, ne string) error {
	for _, inst := range ds.Instances {
		if inst.URL == url && (ne == "" || inst.NEString == ne) {
			return fmt.Errorf("article or entity already in data set: %w", model.ErrDuplicate)
		}
	}

	for _, sibling := range m.siblings(name) {
		if sibling == name {
			continue
		}
		other, err := m.loader.Load(sibling)
		if err != nil {
			return fmt.Errorf("%w: %q: %w", ErrSiblingUnavailable, sibling, err)
		}
		if other.HasURL(url) {
			m.logger.Debug("url found in sibling dataset", "dataset", name, "sibling", sibling, "url", url)
			return ErrInOtherDataset
		}
	}
	return nil
}

// RemoveMatching deletes every instance of url, or only those whose mention
// equals ne when ne is set. It returns the number removed.
func (m *Mutator) RemoveMatching(ds *model.Dataset, url, ne string) (int, error) {
	match := func(inst model.Instance) bool {
		return inst.URL == url && (ne == "" || inst.NEString == ne)
	}
	if !slices.ContainsFunc(ds.Instances, match) {
		return 0, fmt.Errorf("%w: article or entity not found in dataset", model.ErrNotFound)
	}

	before := ds.Len()
	// Keep the high-water mark so removed ids are not reassigned.
	ds.NextID = ds.NextAssignableID()
	ds.Instances = slices.DeleteFunc(ds.Instances, match)
	removed := before - ds.Len()

	m.logger.Debug("instances removed", "url", url, "ne", ne, "count", removed)
	return removed, nil
}

// SetLinks replaces the gold links of the instance at index. The generic
// "other" selection is replaced by otherLink, or dropped when otherLink is
// blank.
func SetLinks(ds *model.Dataset, index int, links []string, otherLink string) error {
	if index < 0 || index >= ds.Len() {
		return fmt.Errorf("%w: index %d", model.ErrNotFound, index)
	}

	out := make([]string, 0, len(links)+1)
	other := false
	for _, l := range links {
		if l == model.OtherMarker {
			other = true
			continue
		}
		out = append(out, l)
	}
	if other {
		if v := strings.TrimSpace(otherLink); v != "" {
			out = append(out, v)
		}
	}

	ds.Instances[index].Links = out
	return nil
}
