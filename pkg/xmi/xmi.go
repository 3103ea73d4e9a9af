// Package xmi serializes a referentially closed element document into a
// SysML XMI tree.
//
// Generation runs in fixed steps: index the elements, synthesize helper
// elements the format requires (flow weights, guards, partition references,
// behavior wrapper activities, proxies), walk the containment tree from the
// model root, run the association, lifeline and stereotype passes, and
// finally remove whatever still points at an id missing from the tree.
package xmi

import (
	"errors"
	"fmt"

	"github.com/beevik/etree"

	"github.com/OFFIS-RIT/sysmlfuse/internal/util"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/logger"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/model"
)

// MaxDepth bounds the containment walk.
const MaxDepth = 256

// ErrNilDocument is returned by Generate for a nil input.
var ErrNilDocument = errors.New("xmi: nil document")

// Options controls generation.
type Options struct {
	// ModelName is used when the document carries no model entry.
	ModelName string
	// ModelID is used when the document carries no model entry.
	ModelID string
}

// Skip records an input element that did not make it into the tree.
type Skip struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// Report summarizes one generation run.
type Report struct {
	Emitted      int            `json:"emitted"`
	Placeholders int            `json:"placeholders"`
	Stereotypes  int            `json:"stereotypes"`
	Skipped      []Skip         `json:"skipped"`
	Cleanup      *CleanupReport `json:"cleanup"`
}

// Generate builds the XMI document for doc.
func Generate(doc *model.Document, opts Options) (*etree.Document, *Report, error) {
	if doc == nil {
		return nil, nil, ErrNilDocument
	}
	g := newGenerator(doc, opts)
	g.synthesize()
	g.walk()
	g.associations()
	g.lifelines()
	g.applyStereotypes()
	g.unreached()

	g.report.Cleanup = Cleanup(g.doc)
	logger.Info("[XMI] Generated",
		"emitted", g.report.Emitted,
		"placeholders", g.report.Placeholders,
		"stereotypes", g.report.Stereotypes,
		"skipped", len(g.report.Skipped),
		"removed", len(g.report.Cleanup.Removed),
	)
	return g.doc, g.report, nil
}

// GenerateBytes is Generate followed by indented serialization.
func GenerateBytes(doc *model.Document, opts Options) ([]byte, *Report, error) {
	out, rep, err := Generate(doc, opts)
	if err != nil {
		return nil, nil, err
	}
	out.Indent(2)
	data, err := out.WriteToBytes()
	if err != nil {
		return nil, nil, fmt.Errorf("write xmi: %w", err)
	}
	return data, rep, nil
}

// generator owns all state of one run.
type generator struct {
	modelID   string
	modelName string

	index    map[string]model.Element
	order    []string
	children map[string][]string

	assocs    []model.Element
	processed map[string]*etree.Element

	doc    *etree.Document
	xmiEl  *etree.Element
	root   *etree.Element
	report *Report
}

func newGenerator(doc *model.Document, opts Options) *generator {
	g := &generator{
		modelID:   doc.MasterModelID(),
		index:     make(map[string]model.Element),
		children:  make(map[string][]string),
		processed: make(map[string]*etree.Element),
		report:    &Report{},
	}
	if len(doc.Model) > 0 {
		g.modelName = doc.Model[0].Name()
	}
	if g.modelID == "" {
		g.modelID = opts.ModelID
	}
	if g.modelID == "" {
		g.modelID = "model"
	}
	if g.modelName == "" {
		g.modelName = opts.ModelName
	}
	if g.modelName == "" {
		g.modelName = "Model"
	}

	for _, e := range doc.Elements {
		id := e.ID()
		if id == "" || id == g.modelID {
			continue
		}
		if _, dup := g.index[id]; dup {
			g.skip(e, "duplicate id")
			continue
		}
		if e.Type() == model.TypeModel {
			g.skip(e, "nested model")
			continue
		}
		g.add(e.Clone())
	}

	g.doc = etree.NewDocument()
	g.doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	g.xmiEl = g.doc.CreateElement("xmi:XMI")
	g.xmiEl.CreateAttr("xmlns:xmi", nsXMI)
	g.xmiEl.CreateAttr("xmlns:uml", nsUML)
	g.xmiEl.CreateAttr("xmlns:sysml", nsSysML)
	g.xmiEl.CreateAttr("xmlns:StandardProfile", nsStandard)
	g.xmiEl.CreateAttr("xmlns:"+prefixMD, nsMDSysML)

	g.root = g.xmiEl.CreateElement("uml:Model")
	g.root.CreateAttr("xmi:type", "uml:Model")
	g.root.CreateAttr("xmi:id", g.modelID)
	g.root.CreateAttr("name", util.SanitizeText(g.modelName))
	for _, pa := range []struct{ suffix, href string }{
		{"_pa_sysml", sysmlProfile},
		{"_pa_std", stdProfile},
	} {
		app := g.root.CreateElement("profileApplication")
		app.CreateAttr("xmi:type", "uml:ProfileApplication")
		app.CreateAttr("xmi:id", g.modelID+pa.suffix)
		app.CreateElement("appliedProfile").CreateAttr("href", pa.href)
	}
	return g
}

// add indexes an element in input order.
func (g *generator) add(e model.Element) {
	g.index[e.ID()] = e
	g.order = append(g.order, e.ID())
}

// addPlaceholder indexes a synthesized element under parent.
func (g *generator) addPlaceholder(e model.Element) {
	if _, exists := g.index[e.ID()]; exists && e.ID() != "" {
		return
	}
	e.Set(synthesizedField, true)
	if e.ID() == "" {
		// Reference placeholders have no id of their own.
		e.Set("id", fmt.Sprintf("_ref%d", len(g.order)))
	}
	g.add(e)
	g.report.Placeholders++
}

func (g *generator) skip(e model.Element, reason string) {
	g.report.Skipped = append(g.report.Skipped, Skip{ID: e.ID(), Type: e.Type(), Reason: reason})
	logger.Debug("[XMI] Skipped element", "id", e.ID(), "type", e.Type(), "reason", reason)
}

// containerOf returns the id an element is built under. Generalization,
// Include and Extend live under their source.
func (g *generator) containerOf(e model.Element) string {
	switch e.Type() {
	case model.TypeGeneralization, model.TypeInclude, model.TypeExtend:
		if src := e.String("sourceId"); src != "" {
			if _, ok := g.index[src]; ok {
				return src
			}
		}
	}
	parent := e.ParentID()
	if parent == "" || parent == g.modelID {
		return g.modelID
	}
	if _, ok := g.index[parent]; !ok {
		return g.modelID
	}
	return parent
}

// buildChildren indexes children by container, once all placeholders exist.
func (g *generator) buildChildren() {
	g.children = make(map[string][]string)
	g.assocs = nil
	for _, id := range g.order {
		e := g.index[id]
		parent := g.containerOf(e)
		if e.Type() == model.TypeAssociation {
			g.assocs = append(g.assocs, e)
			continue
		}
		g.children[parent] = append(g.children[parent], id)
	}
}

// childOrder sorts the children of an activity: edges, then nodes, then
// groups, then everything else. Other parents keep input order.
func (g *generator) childOrder(parent model.Element, ids []string) []string {
	if parent == nil || (parent.Type() != model.TypeActivity && parent.Type() != model.TypeTestCase) {
		return ids
	}
	rank := func(t string) int {
		switch {
		case model.Contains(model.ActivityEdgeTypes, t):
			return 0
		case model.Contains(model.ActivityNodeTypes, t):
			return 1
		case t == model.TypeActivityPartition:
			return 2
		}
		return 3
	}
	buckets := make([][]string, 4)
	for _, id := range ids {
		r := rank(g.index[id].Type())
		buckets[r] = append(buckets[r], id)
	}
	out := make([]string, 0, len(ids))
	for _, b := range buckets {
		out = append(out, b...)
	}
	return out
}

type frame struct {
	id     string
	parent *etree.Element
	depth  int
}

// walk emits the containment tree below the model root.
func (g *generator) walk() {
	g.buildChildren()
	g.walkFrom(g.modelID, g.root, 1)
}

// walkFrom emits the subtree below parentID parent-before-child with an
// explicit stack.
func (g *generator) walkFrom(parentID string, parentEl *etree.Element, depth int) {
	var stack []frame
	push := func(parentID string, parentEl *etree.Element, depth int) {
		var parent model.Element
		if parentID != g.modelID {
			parent = g.index[parentID]
		}
		ids := g.childOrder(parent, g.children[parentID])
		for i := len(ids) - 1; i >= 0; i-- {
			stack = append(stack, frame{id: ids[i], parent: parentEl, depth: depth})
		}
	}
	push(parentID, parentEl, depth)

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		e := g.index[f.id]
		if _, done := g.processed[f.id]; done {
			continue
		}
		if f.depth > MaxDepth {
			g.skip(e, "containment deeper than limit")
			logger.Warn("[XMI] Containment depth limit reached", "id", f.id)
			continue
		}
		el, ok := g.emit(e, f.parent)
		if !ok {
			continue
		}
		g.processed[f.id] = el
		if !isSynthesized(e) {
			g.report.Emitted++
		}
		push(f.id, el, f.depth+1)
	}
}

// emit creates the XML element for e under parentEl.
func (g *generator) emit(e model.Element, parentEl *etree.Element) (*etree.Element, bool) {
	parentType := model.TypeModel
	if p := g.index[g.containerOf(e)]; p != nil {
		parentType = p.Type()
	}
	if parentEl == g.root {
		parentType = model.TypeModel
	}

	uml, known := umlTypes[e.Type()]
	if !known && e.Type() != typeNodeRef && e.Type() != typeInPartitionRef {
		g.skip(e, "unknown element type")
		logger.Warn("[XMI] Unknown element type", "id", e.ID(), "type", e.Type())
		return nil, false
	}

	tag := e.String(slotField)
	if tag == "" {
		var ok bool
		tag, ok = ownershipTag(e.Type(), parentType)
		if !ok {
			g.skip(e, fmt.Sprintf("no ownership tag under %s", parentType))
			return nil, false
		}
	}

	el := parentEl.CreateElement(tag)
	switch e.Type() {
	case typeNodeRef, typeInPartitionRef:
		el.CreateAttr("xmi:idref", e.String(refField))
		return el, true
	}
	el.CreateAttr("xmi:type", uml)
	el.CreateAttr("xmi:id", e.ID())
	if name := e.Name(); name != "" {
		el.CreateAttr("name", util.SanitizeText(name))
	}
	g.writeAttrs(e, el)
	return el, true
}

// unreached records indexed input elements the walk never visited.
func (g *generator) unreached() {
	for _, id := range g.order {
		e := g.index[id]
		if isSynthesized(e) || e.Type() == model.TypeAssociation {
			continue
		}
		if _, ok := g.processed[id]; ok {
			continue
		}
		if g.alreadySkipped(id) {
			continue
		}
		g.skip(e, "not reachable from the model root")
	}
}

func (g *generator) alreadySkipped(id string) bool {
	for _, s := range g.report.Skipped {
		if s.ID == id {
			return true
		}
	}
	return false
}

const (
	synthesizedField = "_synthesized"
	slotField        = "_slot"
	refField         = "_ref"
)

func isSynthesized(e model.Element) bool {
	v, _ := e[synthesizedField].(bool)
	return v
}
