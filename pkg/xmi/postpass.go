package xmi

import (
	"strings"

	"github.com/OFFIS-RIT/sysmlfuse/internal/util"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/logger"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/model"
)

// associations emits every association after the tree exists, so that its
// member ends can be checked against what was actually emitted.
func (g *generator) associations() {
	for _, a := range g.assocs {
		id := a.ID()
		parentEl := g.root
		if p := g.index[a.ParentID()]; p != nil && p.Type() == model.TypePackage {
			if el, ok := g.processed[p.ID()]; ok {
				parentEl = el
			}
		}

		var ends []string
		for _, end := range a.StringList("memberEndIds") {
			if _, ok := g.processed[end]; ok || g.ownedEnd(id, end) {
				ends = append(ends, end)
			}
		}
		src, tgt := a.String("sourceId"), a.String("targetId")
		if len(ends) < 2 && (src == "" || tgt == "" || g.index[src] == nil || g.index[tgt] == nil) {
			g.skip(a, "association without resolvable ends")
			continue
		}

		el := parentEl.CreateElement("packagedElement")
		el.CreateAttr("xmi:type", "uml:Association")
		el.CreateAttr("xmi:id", id)
		if name := a.Name(); name != "" {
			el.CreateAttr("name", util.SanitizeText(name))
		}
		g.processed[id] = el
		g.report.Emitted++
		g.walkFrom(id, el, 2)

		if len(ends) >= 2 {
			for _, end := range ends {
				if pe, ok := g.processed[end]; ok {
					pe.CreateAttr("association", id)
				}
			}
			el.CreateAttr("memberEnd", strings.Join(ends, " "))
			continue
		}

		// No usable member ends: synthesize one owned end per endpoint.
		ends = ends[:0]
		for _, endpoint := range []string{src, tgt} {
			endID := id + "_end_" + util.HashID(id, endpoint)[:8]
			oe := el.CreateElement("ownedEnd")
			oe.CreateAttr("xmi:type", "uml:Property")
			oe.CreateAttr("xmi:id", endID)
			oe.CreateAttr("type", endpoint)
			oe.CreateAttr("association", id)
			ends = append(ends, endID)
		}
		el.CreateAttr("memberEnd", strings.Join(ends, " "))
		logger.Debug("[XMI] Synthesized association ends", "id", id)
	}
}

// ownedEnd reports whether end is a property owned by the association
// itself, which walkFrom will emit once the association exists.
func (g *generator) ownedEnd(assocID, end string) bool {
	e := g.index[end]
	return e != nil && e.ParentID() == assocID && e.Type() == model.TypeProperty
}

// lifelines writes coveredBy on every emitted lifeline from the occurrence
// specifications that cover it.
func (g *generator) lifelines() {
	covered := make(map[string][]string)
	for _, id := range g.order {
		e := g.index[id]
		if e.Type() != model.TypeMessageOccurrenceSpecification {
			continue
		}
		if _, ok := g.processed[id]; !ok {
			continue
		}
		if l := e.String("coveredId"); l != "" {
			covered[l] = append(covered[l], id)
		}
	}
	for l, mos := range covered {
		el, ok := g.processed[l]
		if !ok {
			continue
		}
		el.CreateAttr("coveredBy", strings.Join(mos, " "))
	}
}

// applyStereotypes adds a stereotype application for every emitted element
// whose type carries one.
func (g *generator) applyStereotypes() {
	for _, id := range g.order {
		e := g.index[id]
		if isSynthesized(e) {
			continue
		}
		if _, ok := g.processed[id]; !ok {
			continue
		}
		st, ok := stereotypes[e.Type()]
		if !ok && e.Type() == model.TypeProperty {
			st, ok = g.propertyStereotype(e), true
		}
		if !ok {
			continue
		}
		el := g.xmiEl.CreateElement(st.tag)
		el.CreateAttr("xmi:id", id+"_stereotype")
		el.CreateAttr(st.base, id)
		switch e.Type() {
		case model.TypeRequirement:
			if rid := e.String("reqId"); rid != "" {
				el.CreateAttr("Id", rid)
			}
			text := e.String("text")
			if text == "" {
				text = e.String("specification")
			}
			if text != "" {
				el.CreateAttr("Text", util.SanitizeText(text))
			}
		case model.TypeFlowProperty:
			dir := e.String("direction")
			if dir == "" {
				dir = "inout"
			}
			el.CreateAttr("direction", dir)
		}
		g.report.Stereotypes++
	}
}

// propertyStereotype picks ValueProperty for primitive or value typed
// properties and PartProperty otherwise.
func (g *generator) propertyStereotype(e model.Element) stereotype {
	t := e.String("typeId")
	if model.IsPrimitive(t) {
		return valueProperty
	}
	if target := g.index[t]; target != nil {
		switch target.Type() {
		case model.TypeValueType, model.TypeEnumeration:
			return valueProperty
		}
	}
	return partProperty
}
