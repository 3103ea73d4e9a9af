package orphan

import (
	"sort"

	"github.com/OFFIS-RIT/sysmlfuse/pkg/model"
)

// Index is a lookup over the elements of one repair iteration.
type Index struct {
	MasterID string
	byID     map[string]model.Element
	byType   map[string][]model.Element
	known    map[string]struct{}
}

// NewIndex indexes doc. Model entries are known ids but never candidates.
func NewIndex(doc *model.Document) *Index {
	idx := &Index{
		MasterID: doc.MasterModelID(),
		byID:     make(map[string]model.Element, len(doc.Elements)),
		byType:   make(map[string][]model.Element),
		known:    doc.KnownIDs(),
	}
	for _, e := range doc.Elements {
		idx.add(e)
	}
	for t := range idx.byType {
		sortByID(idx.byType[t])
	}
	return idx
}

func (x *Index) add(e model.Element) {
	id := e.ID()
	if id == "" {
		return
	}
	if _, dup := x.byID[id]; dup {
		return
	}
	x.byID[id] = e
	x.known[id] = struct{}{}
	x.byType[e.Type()] = append(x.byType[e.Type()], e)
}

// Register adds an element created during repair.
func (x *Index) Register(e model.Element) {
	x.add(e)
	sortByID(x.byType[e.Type()])
}

// Known reports whether id resolves to a model entry or element.
func (x *Index) Known(id string) bool {
	_, ok := x.known[id]
	return ok
}

// Get returns the element with the given id.
func (x *Index) Get(id string) (model.Element, bool) {
	e, ok := x.byID[id]
	return e, ok
}

// Candidates returns the elements of the given types, or of every type when
// types is nil, sorted by id. exclude is left out.
func (x *Index) Candidates(types []string, exclude string) []model.Element {
	var out []model.Element
	if types == nil {
		for _, list := range x.byType {
			out = append(out, list...)
		}
		sortByID(out)
	} else {
		for _, t := range types {
			out = append(out, x.byType[t]...)
		}
		sortByID(out)
	}
	if exclude == "" {
		return out
	}
	filtered := out[:0]
	for _, e := range out {
		if e.ID() != exclude {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// Broken returns the references of e that do not resolve.
func (x *Index) Broken(e model.Element) []model.Ref {
	var out []model.Ref
	for _, ref := range e.References(model.RefOptions{IncludeTypeID: true}) {
		if !x.Known(ref.Value) {
			out = append(out, ref)
		}
	}
	return out
}

func sortByID(list []model.Element) {
	sort.SliceStable(list, func(i, j int) bool { return list[i].ID() < list[j].ID() })
}
