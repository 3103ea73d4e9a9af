package xmi

import (
	"github.com/OFFIS-RIT/sysmlfuse/internal/util"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/model"
)

// representsField holds the property a lifeline represents after proxy
// substitution.
const representsField = "_represents"

// synthesize adds the helper elements the format requires. Wrappers come
// first because they contain flows that need weights of their own.
func (g *generator) synthesize() {
	input := append([]string(nil), g.order...)
	for _, id := range input {
		e := g.index[id]
		switch e.Type() {
		case model.TypeState:
			for _, slot := range []string{"entry", "exit", "doActivity"} {
				g.behaviorWrapper(e, slot)
			}
		case model.TypeTransition:
			g.behaviorWrapper(e, "effect")
		}
	}

	flows := append([]string(nil), g.order...)
	for _, id := range flows {
		e := g.index[id]
		switch e.Type() {
		case model.TypeControlFlow, model.TypeObjectFlow:
			g.flowProxies(e)
			g.addPlaceholder(model.Element{
				"id":       id + "_weight",
				"type":     typeWeight,
				"parentId": id,
			})
			if guard := e.String("guard"); guard != "" {
				g.addPlaceholder(model.Element{
					"id":       id + "_guard",
					"type":     typeFlowGuard,
					"parentId": id,
					"body":     guard,
				})
			}
		case model.TypeTransition:
			if guard := e.String("guard"); guard != "" {
				g.addPlaceholder(model.Element{
					"id":       id + "_guard",
					"type":     typeTransitionGuard,
					"parentId": id,
					"body":     guard,
				})
			}
		case model.TypeActivityPartition:
			g.partitionRefs(e)
		case model.TypeLifeline:
			g.lifelineProxy(e)
		}
	}
}

// behaviorWrapper wraps a state or transition behavior call in an activity
// of initial node, call action and final node.
func (g *generator) behaviorWrapper(owner model.Element, slot string) {
	obj := owner.Object(slot)
	if obj == nil {
		return
	}
	called, _ := obj[model.CalledBehaviorKey].(string)
	target, ok := g.index[called]
	if called == "" || !ok {
		return
	}
	wrapper := owner.ID() + "_" + slot
	name := target.Name()
	if name == "" {
		name = called
	}
	g.addPlaceholder(model.Element{
		"id":       wrapper,
		"type":     model.TypeActivity,
		"name":     slot + " " + name,
		"parentId": owner.ID(),
		slotField:  slot,
	})
	g.addPlaceholder(model.Element{"id": wrapper + "_initial", "type": model.TypeInitialNode, "parentId": wrapper})
	g.addPlaceholder(model.Element{
		"id":         wrapper + "_call",
		"type":       model.TypeCallBehaviorAction,
		"name":       name,
		"parentId":   wrapper,
		"behaviorId": called,
	})
	g.addPlaceholder(model.Element{"id": wrapper + "_final", "type": model.TypeActivityFinalNode, "parentId": wrapper})
	g.addPlaceholder(model.Element{
		"id":       wrapper + "_flow1",
		"type":     model.TypeControlFlow,
		"parentId": wrapper,
		"sourceId": wrapper + "_initial",
		"targetId": wrapper + "_call",
	})
	g.addPlaceholder(model.Element{
		"id":       wrapper + "_flow2",
		"type":     model.TypeControlFlow,
		"parentId": wrapper,
		"sourceId": wrapper + "_call",
		"targetId": wrapper + "_final",
	})
}

// proxyTypes are the endpoint types a flow may reach through a proxy node.
var proxyTypes = []string{
	model.TypeBlock, model.TypeInterfaceBlock, model.TypeConstraintBlock, model.TypeActor,
}

// flowProxies replaces flow endpoints that are classifiers with a central
// buffer node typed by the classifier in the flow's activity. Other
// non-node endpoints are left for cleanup.
func (g *generator) flowProxies(flow model.Element) {
	activity := g.containerOf(flow)
	if activity == g.modelID {
		return
	}
	for _, field := range []string{"sourceId", "targetId"} {
		ref := flow.String(field)
		target, ok := g.index[ref]
		if !ok || model.Contains(model.ActivityNodeTypes, target.Type()) {
			continue
		}
		if !model.Contains(proxyTypes, target.Type()) {
			continue
		}
		proxy := "proxy_" + util.HashID(activity, ref)[:12]
		g.addPlaceholder(model.Element{
			"id":       proxy,
			"type":     model.TypeCentralBufferNode,
			"name":     target.Name(),
			"parentId": activity,
			"typeId":   ref,
		})
		flow.Set(field, proxy)
	}
}

// partitionRefs links a partition and its member nodes in both directions.
func (g *generator) partitionRefs(p model.Element) {
	for _, n := range p.StringList("nodeIds") {
		node, ok := g.index[n]
		if !ok || !model.Contains(model.ActivityNodeTypes, node.Type()) {
			continue
		}
		g.addPlaceholder(model.Element{"type": typeNodeRef, "parentId": p.ID(), refField: n})
		g.addPlaceholder(model.Element{"type": typeInPartitionRef, "parentId": n, refField: p.ID()})
	}
}

// lifelineProxy gives a lifeline that represents a classifier a property of
// that type in its interaction.
func (g *generator) lifelineProxy(l model.Element) {
	ref := l.String("representsId")
	target, ok := g.index[ref]
	if !ok {
		return
	}
	switch {
	case target.Type() == model.TypeProperty:
		l.Set(representsField, ref)
	case model.Contains(proxyTypes, target.Type()):
		interaction := g.containerOf(l)
		if interaction == g.modelID {
			return
		}
		prop := l.ID() + "_property"
		name := l.Name()
		if name == "" {
			name = target.Name()
		}
		g.addPlaceholder(model.Element{
			"id":       prop,
			"type":     model.TypeProperty,
			"name":     name,
			"parentId": interaction,
			"typeId":   ref,
		})
		l.Set(representsField, prop)
	}
}
