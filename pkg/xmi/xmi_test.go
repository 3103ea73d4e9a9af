package xmi

import (
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OFFIS-RIT/sysmlfuse/pkg/model"
)

func el(id, typ, name, parent string, kv ...any) model.Element {
	e := model.Element{"id": id, "type": typ}
	if name != "" {
		e["name"] = name
	}
	if parent != "" {
		e["parentId"] = parent
	}
	for i := 0; i+1 < len(kv); i += 2 {
		e[kv[i].(string)] = kv[i+1]
	}
	return e
}

func newDoc(elements ...model.Element) *model.Document {
	return &model.Document{
		Model:    []model.Element{{"id": "m", "name": "Plant", "type": model.TypeModel}},
		Elements: append([]model.Element{el("p", model.TypePackage, "Structure", "m")}, elements...),
	}
}

func generate(t *testing.T, doc *model.Document) (*etree.Document, *Report) {
	t.Helper()
	out, rep, err := Generate(doc, Options{})
	require.NoError(t, err)
	return out, rep
}

func byID(doc *etree.Document, id string) *etree.Element {
	stack := doc.ChildElements()
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if e.SelectAttrValue("xmi:id", "") == id {
			return e
		}
		stack = append(stack, e.ChildElements()...)
	}
	return nil
}

func tags(e *etree.Element) []string {
	var out []string
	for _, c := range e.ChildElements() {
		out = append(out, c.FullTag())
	}
	return out
}

func topLevel(doc *etree.Document, tag string) []*etree.Element {
	var out []*etree.Element
	for _, c := range doc.Root().ChildElements() {
		if c.FullTag() == tag {
			out = append(out, c)
		}
	}
	return out
}

func TestOwnershipTag(t *testing.T) {
	cases := []struct {
		elem, parent, want string
		ok                 bool
	}{
		{model.TypePackage, model.TypeModel, "packagedElement", true},
		{model.TypeProperty, model.TypeBlock, "ownedAttribute", true},
		{model.TypeProperty, model.TypeAssociation, "ownedEnd", true},
		{model.TypeProperty, model.TypeInteraction, "ownedAttribute", true},
		{model.TypeControlFlow, model.TypeActivity, "edge", true},
		{model.TypeState, model.TypeRegion, "subvertex", true},
		{model.TypeBlock, model.TypeRegion, "", false},
	}
	for _, tc := range cases {
		got, ok := ownershipTag(tc.elem, tc.parent)
		assert.Equal(t, tc.ok, ok, "%s under %s", tc.elem, tc.parent)
		assert.Equal(t, tc.want, got, "%s under %s", tc.elem, tc.parent)
	}
}

func TestGenerateRootAndProfiles(t *testing.T) {
	out, _ := generate(t, newDoc())

	root := out.Root()
	require.NotNil(t, root)
	assert.Equal(t, "xmi:XMI", root.FullTag())
	assert.NotEmpty(t, root.SelectAttrValue("xmlns:sysml", ""))

	modelEl := byID(out, "m")
	require.NotNil(t, modelEl)
	assert.Equal(t, "uml:Model", modelEl.FullTag())
	assert.Equal(t, "Plant", modelEl.SelectAttrValue("name", ""))
	assert.Equal(t, []string{"profileApplication", "profileApplication", "packagedElement"}, tags(modelEl))
}

func TestGenerateNilDocument(t *testing.T) {
	_, _, err := Generate(nil, Options{})
	require.ErrorIs(t, err, ErrNilDocument)
}

func TestActivityContentOrderAndPlaceholders(t *testing.T) {
	doc := newDoc(
		el("a", model.TypeActivity, "Drive", "p"),
		el("n1", model.TypeInitialNode, "", "a"),
		el("g", model.TypeActivityPartition, "Driver", "a", "nodeIds", []any{"n2"}),
		el("n2", model.TypeOpaqueAction, "Steer", "a"),
		el("f", model.TypeControlFlow, "", "a", "sourceId", "n1", "targetId", "n2", "guard", "ready"),
	)
	out, rep := generate(t, doc)

	act := byID(out, "a")
	require.NotNil(t, act)
	assert.Equal(t, []string{"edge", "node", "node", "group"}, tags(act))

	flow := byID(out, "f")
	require.NotNil(t, flow)
	assert.Equal(t, "n1", flow.SelectAttrValue("source", ""))
	assert.Equal(t, "n2", flow.SelectAttrValue("target", ""))
	assert.Equal(t, []string{"weight", "guard"}, tags(flow))
	assert.Equal(t, "1", byID(out, "f_weight").SelectAttrValue("value", ""))
	guard := byID(out, "f_guard")
	require.NotNil(t, guard.SelectElement("body"))
	assert.Equal(t, "ready", guard.SelectElement("body").Text())

	part := byID(out, "g")
	require.Len(t, part.ChildElements(), 1)
	assert.Equal(t, "n2", part.ChildElements()[0].SelectAttrValue("xmi:idref", ""))
	inPart := byID(out, "n2").SelectElement("inPartition")
	require.NotNil(t, inPart)
	assert.Equal(t, "g", inPart.SelectAttrValue("xmi:idref", ""))

	assert.Equal(t, 6, rep.Emitted)
	assert.Equal(t, 4, rep.Placeholders)
	assert.Empty(t, rep.Skipped)
	assert.Empty(t, rep.Cleanup.Removed)
}

func TestFlowToBlockUsesProxyNode(t *testing.T) {
	doc := newDoc(
		el("blk", model.TypeBlock, "Battery", "p"),
		el("a", model.TypeActivity, "Charge", "p"),
		el("n1", model.TypeOpaqueAction, "Plug in", "a"),
		el("f", model.TypeObjectFlow, "", "a", "sourceId", "n1", "targetId", "blk"),
	)
	out, rep := generate(t, doc)

	target := byID(out, "f").SelectAttrValue("target", "")
	require.True(t, strings.HasPrefix(target, "proxy_"), target)
	proxy := byID(out, target)
	require.NotNil(t, proxy)
	assert.Equal(t, "uml:CentralBufferNode", proxy.SelectAttrValue("xmi:type", ""))
	assert.Equal(t, "blk", proxy.SelectAttrValue("type", ""))
	assert.Empty(t, rep.Cleanup.Removed)

	again, _ := generate(t, doc)
	assert.Equal(t, target, byID(again, "f").SelectAttrValue("target", ""))
}

func TestStateBehaviorWrapper(t *testing.T) {
	doc := newDoc(
		el("beh", model.TypeActivity, "Warm up", "p"),
		el("sm", model.TypeStateMachine, "Heater", "p"),
		el("r", model.TypeRegion, "", "sm"),
		el("s", model.TypeState, "Heating", "r", "entry", map[string]any{"calledBehaviorId": "beh"}),
		el("s2", model.TypeState, "Idle", "r", "exit", map[string]any{"calledBehaviorId": "missing"}),
	)
	out, _ := generate(t, doc)

	wrapper := byID(out, "s_entry")
	require.NotNil(t, wrapper)
	assert.Equal(t, "entry", wrapper.Tag)
	assert.Equal(t, "uml:Activity", wrapper.SelectAttrValue("xmi:type", ""))
	assert.Equal(t, "entry Warm up", wrapper.SelectAttrValue("name", ""))
	assert.Equal(t, []string{"edge", "edge", "node", "node", "node"}, tags(wrapper))
	assert.Equal(t, "beh", byID(out, "s_entry_call").SelectAttrValue("behavior", ""))

	assert.Nil(t, byID(out, "s2_exit"))
}

func TestAssociationShapes(t *testing.T) {
	doc := newDoc(
		el("b1", model.TypeBlock, "Car", "p"),
		el("b2", model.TypeBlock, "Wheel", "p"),
		el("pa", model.TypeProperty, "wheel", "b1", "typeId", "b2"),
		el("a1", model.TypeAssociation, "", "p", "sourceId", "b1", "targetId", "b2"),
		el("a2", model.TypeAssociation, "", "p", "memberEndIds", []any{"pa", "pb"}),
		el("pb", model.TypeProperty, "car", "a2", "typeId", "b1"),
		el("a3", model.TypeAssociation, "", "p"),
	)
	out, rep := generate(t, doc)

	a1 := byID(out, "a1")
	require.NotNil(t, a1)
	assert.Equal(t, "p", a1.Parent().SelectAttrValue("xmi:id", ""))
	ends := strings.Fields(a1.SelectAttrValue("memberEnd", ""))
	require.Len(t, ends, 2)
	for _, id := range ends {
		end := byID(out, id)
		require.NotNil(t, end)
		assert.Equal(t, "ownedEnd", end.Tag)
		assert.Equal(t, "a1", end.SelectAttrValue("association", ""))
	}

	a2 := byID(out, "a2")
	require.NotNil(t, a2)
	assert.Equal(t, "pa pb", a2.SelectAttrValue("memberEnd", ""))
	assert.Equal(t, "a2", byID(out, "pa").SelectAttrValue("association", ""))
	pb := byID(out, "pb")
	require.NotNil(t, pb)
	assert.Equal(t, "ownedEnd", pb.Tag)

	assert.Nil(t, byID(out, "a3"))
	require.Len(t, rep.Skipped, 1)
	assert.Equal(t, "a3", rep.Skipped[0].ID)
	assert.Empty(t, rep.Cleanup.Removed)
}

func TestLifelineCoveredByAndProxy(t *testing.T) {
	doc := newDoc(
		el("b", model.TypeBlock, "Controller", "p"),
		el("i", model.TypeInteraction, "Start", "p"),
		el("l1", model.TypeLifeline, "ctrl", "i", "representsId", "b"),
		el("mos1", model.TypeMessageOccurrenceSpecification, "", "i", "coveredId", "l1", "messageId", "msg"),
		el("mos2", model.TypeMessageOccurrenceSpecification, "", "i", "coveredId", "l1", "messageId", "msg"),
		el("msg", model.TypeMessage, "start", "i", "sendEventId", "mos1", "receiveEventId", "mos2"),
	)
	out, rep := generate(t, doc)

	l1 := byID(out, "l1")
	require.NotNil(t, l1)
	assert.Equal(t, "l1_property", l1.SelectAttrValue("represents", ""))
	assert.Equal(t, "mos1 mos2", l1.SelectAttrValue("coveredBy", ""))

	prop := byID(out, "l1_property")
	require.NotNil(t, prop)
	assert.Equal(t, "ownedAttribute", prop.Tag)
	assert.Equal(t, "b", prop.SelectAttrValue("type", ""))

	msg := byID(out, "msg")
	assert.Equal(t, "mos1", msg.SelectAttrValue("sendEvent", ""))
	assert.Equal(t, "synchCall", msg.SelectAttrValue("messageSort", ""))
	assert.Empty(t, rep.Cleanup.Removed)
}

func TestStereotypesOnlyForEmittedElements(t *testing.T) {
	doc := newDoc(
		el("ok", model.TypeBlock, "Motor", "p"),
		el("e", model.TypeEnumeration, "Mode", "p"),
		el("lost", model.TypeBlock, "Nested", "e"),
		el("req", model.TypeRequirement, "Speed", "p", "reqId", "R1", "text", "The car shall go fast."),
		el("v", model.TypeProperty, "mass", "ok", "typeId", "Real"),
	)
	out, rep := generate(t, doc)

	blocks := topLevel(out, "sysml:Block")
	require.Len(t, blocks, 1)
	assert.Equal(t, "ok", blocks[0].SelectAttrValue("base_Class", ""))
	assert.Nil(t, byID(out, "lost"))

	reqs := topLevel(out, "sysml:Requirement")
	require.Len(t, reqs, 1)
	assert.Equal(t, "R1", reqs[0].SelectAttrValue("Id", ""))
	assert.Equal(t, "The car shall go fast.", reqs[0].SelectAttrValue("Text", ""))

	values := topLevel(out, prefixMD+":ValueProperty")
	require.Len(t, values, 1)
	assert.Equal(t, "v", values[0].SelectAttrValue("base_Property", ""))
	typeEl := byID(out, "v").SelectElement("type")
	require.NotNil(t, typeEl)
	assert.Equal(t, primitiveURI+"Real", typeEl.SelectAttrValue("href", ""))

	assert.Equal(t, 3, rep.Stereotypes)
}

func TestUnknownTypeIsSkipped(t *testing.T) {
	doc := newDoc(el("x", "Gizmo", "Thing", "p"))
	out, rep := generate(t, doc)

	assert.Nil(t, byID(out, "x"))
	require.Len(t, rep.Skipped, 1)
	assert.Equal(t, Skip{ID: "x", Type: "Gizmo", Reason: "unknown element type"}, rep.Skipped[0])
}

func TestControlCharactersAreStripped(t *testing.T) {
	doc := newDoc(el("b", model.TypeBlock, "Pump\x07", "p", "description", "Moves\x00 water"))
	data, _, err := GenerateBytes(doc, Options{})
	require.NoError(t, err)

	parsed := etree.NewDocument()
	require.NoError(t, parsed.ReadFromBytes(data))
	b := byID(parsed, "b")
	require.NotNil(t, b)
	assert.Equal(t, "Pump", b.SelectAttrValue("name", ""))
	comment := byID(parsed, "b_comment")
	require.NotNil(t, comment)
	assert.Equal(t, "Moves water", comment.SelectAttrValue("body", ""))
}

func TestEveryReferenceResolves(t *testing.T) {
	doc := newDoc(
		el("b1", model.TypeBlock, "Car", "p", "description", "A road vehicle"),
		el("b2", model.TypeBlock, "Engine", "p"),
		el("g1", model.TypeGeneralization, "", "p", "sourceId", "b2", "targetId", "b1"),
		el("pp", model.TypeProperty, "engine", "b1", "typeId", "b2"),
		el("port", model.TypeProxyPort, "fuel", "b2"),
		el("c", model.TypeAssemblyConnector, "", "b1",
			"end1", map[string]any{"partRefId": "pp", "portRefId": "port"},
			"end2", map[string]any{"partRefId": "ghost"}),
		el("req", model.TypeRequirement, "Range", "p"),
		el("sat", model.TypeSatisfy, "", "p", "blockId", "b1", "requirementId", "req"),
		el("a", model.TypeActivity, "Drive", "p"),
		el("n1", model.TypeInitialNode, "", "a"),
		el("f", model.TypeControlFlow, "", "a", "sourceId", "n1", "targetId", "b2"),
		el("f2", model.TypeControlFlow, "", "a", "sourceId", "n1", "targetId", "gone"),
	)
	out, rep := generate(t, doc)

	ids := collectIDs(out)
	stack := out.ChildElements()
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, a := range e.Attr {
			key := a.FullKey()
			_, hard := hardRefAttrs[key]
			_, soft := softRefAttrs[key]
			if !hard && !soft && key != "xmi:idref" && !strings.HasPrefix(key, "base_") {
				continue
			}
			for _, ref := range strings.Fields(a.Value) {
				assert.Contains(t, ids, ref, "%s %s=%s", e.FullTag(), key, ref)
			}
		}
		stack = append(stack, e.ChildElements()...)
	}

	// A flow into an id that is not in the tree is removed.
	assert.Nil(t, byID(out, "f2"))
	require.NotEmpty(t, rep.Cleanup.Removed)
	assert.NotNil(t, byID(out, "f"))
	assert.NotNil(t, byID(out, "b1").SelectElement("ownedComment"))

	again := Cleanup(out)
	assert.Empty(t, again.Removed)
	assert.Empty(t, again.Dropped)
	assert.Equal(t, 1, again.Sweeps)
}

func TestCleanupCascades(t *testing.T) {
	doc := etree.NewDocument()
	root := doc.CreateElement("xmi:XMI")
	m := root.CreateElement("uml:Model")
	m.CreateAttr("xmi:id", "m")

	a := m.CreateElement("packagedElement")
	a.CreateAttr("xmi:id", "a")

	e1 := m.CreateElement("edge")
	e1.CreateAttr("xmi:id", "e1")
	e1.CreateAttr("source", "a")
	e1.CreateAttr("target", "zz")

	c := m.CreateElement("packagedElement")
	c.CreateAttr("xmi:id", "c")
	c.CreateAttr("client", "nowhere")
	inner := c.CreateElement("ownedAttribute")
	inner.CreateAttr("xmi:id", "inner")

	x := m.CreateElement("packagedElement")
	x.CreateAttr("xmi:id", "x")
	x.CreateAttr("client", "inner")
	x.CreateAttr("supplier", "a")

	p1 := m.CreateElement("ownedAttribute")
	p1.CreateAttr("xmi:id", "p1")
	p1.CreateAttr("type", "gone")

	l := m.CreateElement("lifeline")
	l.CreateAttr("xmi:id", "l")
	l.CreateAttr("coveredBy", "a missing")

	st := root.CreateElement("sysml:Block")
	st.CreateAttr("xmi:id", "e1_stereotype")
	st.CreateAttr("base_Class", "e1")

	rep := Cleanup(doc)

	removed := make([]string, 0, len(rep.Removed))
	for _, d := range rep.Removed {
		removed = append(removed, d.ElementID)
	}
	assert.ElementsMatch(t, []string{"e1", "c", "x", "e1_stereotype"}, removed)
	assert.Len(t, rep.Dropped, 2)
	assert.GreaterOrEqual(t, rep.Sweeps, 2)

	assert.Nil(t, p1.SelectAttr("type"))
	assert.Equal(t, "a", l.SelectAttrValue("coveredBy", ""))
	assert.NotNil(t, byID(doc, "a"))

	again := Cleanup(doc)
	assert.Equal(t, 1, again.Sweeps)
	assert.Empty(t, again.Removed)
	assert.Empty(t, again.Dropped)
}
