package xmi

import (
	"strings"

	"github.com/beevik/etree"

	"github.com/OFFIS-RIT/sysmlfuse/pkg/logger"
)

// maxSweeps bounds Cleanup; every productive sweep removes at least one
// element or attribute, so a finite tree always converges well before it.
const maxSweeps = 1000

// Dangling is one reference that did not resolve.
type Dangling struct {
	ElementID string `json:"elementId,omitempty"`
	Tag       string `json:"tag"`
	Attr      string `json:"attr"`
	Value     string `json:"value"`
}

// CleanupReport lists what Cleanup changed.
type CleanupReport struct {
	Sweeps int `json:"sweeps"`
	// Removed holds elements dropped for a dangling hard reference.
	Removed []Dangling `json:"removed"`
	// Dropped holds soft reference values filtered out of an attribute.
	Dropped []Dangling `json:"dropped"`
}

// Cleanup removes every element whose hard reference attributes name an id
// missing from the tree and strips missing ids from soft reference
// attributes. Sweeps repeat until one changes nothing, since a removal can
// leave other references dangling.
func Cleanup(doc *etree.Document) *CleanupReport {
	rep := &CleanupReport{}
	for rep.Sweeps < maxSweeps {
		rep.Sweeps++
		if !sweep(doc, collectIDs(doc), rep) {
			break
		}
	}
	if len(rep.Removed) > 0 || len(rep.Dropped) > 0 {
		logger.Warn("[XMI] Cleanup removed dangling references",
			"removed", len(rep.Removed), "dropped", len(rep.Dropped), "sweeps", rep.Sweeps)
	}
	return rep
}

func collectIDs(doc *etree.Document) map[string]struct{} {
	ids := make(map[string]struct{})
	stack := doc.ChildElements()
	for len(stack) > 0 {
		el := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id := el.SelectAttrValue("xmi:id", ""); id != "" {
			ids[id] = struct{}{}
		}
		stack = append(stack, el.ChildElements()...)
	}
	return ids
}

// sweep makes one pass and reports whether anything changed. Children of a
// removed element are not visited.
func sweep(doc *etree.Document, ids map[string]struct{}, rep *CleanupReport) bool {
	changed := false
	stack := doc.ChildElements()
	for len(stack) > 0 {
		el := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if d, ok := danglingHard(el, ids); ok {
			el.Parent().RemoveChild(el)
			rep.Removed = append(rep.Removed, d)
			changed = true
			continue
		}
		if dropSoft(el, ids, rep) {
			changed = true
		}
		stack = append(stack, el.ChildElements()...)
	}
	return changed
}

func danglingHard(el *etree.Element, ids map[string]struct{}) (Dangling, bool) {
	for _, a := range el.Attr {
		key := a.FullKey()
		_, hard := hardRefAttrs[key]
		if key != "xmi:idref" && !hard && !(a.Space == "" && strings.HasPrefix(a.Key, "base_")) {
			continue
		}
		for _, ref := range strings.Fields(a.Value) {
			if _, ok := ids[ref]; !ok {
				return Dangling{
					ElementID: el.SelectAttrValue("xmi:id", ""),
					Tag:       el.FullTag(),
					Attr:      key,
					Value:     ref,
				}, true
			}
		}
	}
	return Dangling{}, false
}

func dropSoft(el *etree.Element, ids map[string]struct{}, rep *CleanupReport) bool {
	changed := false
	// Collect first; removing attributes while ranging over el.Attr would
	// skip entries.
	type update struct {
		key  string
		keep []string
	}
	var updates []update
	for _, a := range el.Attr {
		key := a.FullKey()
		if _, soft := softRefAttrs[key]; !soft {
			continue
		}
		refs := strings.Fields(a.Value)
		keep := refs[:0:0]
		for _, ref := range refs {
			if _, ok := ids[ref]; ok {
				keep = append(keep, ref)
				continue
			}
			rep.Dropped = append(rep.Dropped, Dangling{
				ElementID: el.SelectAttrValue("xmi:id", ""),
				Tag:       el.FullTag(),
				Attr:      key,
				Value:     ref,
			})
		}
		if len(keep) != len(refs) {
			updates = append(updates, update{key, keep})
		}
	}
	for _, u := range updates {
		changed = true
		if len(u.keep) == 0 {
			el.RemoveAttr(u.key)
			continue
		}
		el.CreateAttr(u.key, strings.Join(u.keep, " "))
	}
	return changed
}
