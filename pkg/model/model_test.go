package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocument(t *testing.T) {
	doc, err := ParseDocument([]byte(`{
		"model": [{"id": "m1", "name": "Vehicle"}],
		"elements": [
			{"id": "pkg-1", "type": "Package", "name": "Drivetrain", "parentId": "m1"},
			{"id": 42, "type": "Block", "name": "Motor", "parentId": "pkg-1"}
		]
	}`))
	require.NoError(t, err)
	require.Len(t, doc.Model, 1)
	require.Len(t, doc.Elements, 2)

	assert.Equal(t, TypeModel, doc.Model[0].Type())
	assert.Equal(t, "42", doc.Elements[1].ID())
	assert.Equal(t, "m1", doc.MasterModelID())
	assert.Contains(t, doc.KnownIDs(), "m1")
	assert.Contains(t, doc.KnownIDs(), "pkg-1")
}

func TestParseDocumentErrors(t *testing.T) {
	_, err := ParseDocument([]byte(`{"model": []}`))
	assert.True(t, errors.Is(err, ErrMissingElements))

	_, err = ParseDocument([]byte(`{"elements": [`))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMissingElements))
}

func TestDocumentMarshalKeepsShape(t *testing.T) {
	doc := &Document{}
	data, err := doc.Marshal()
	require.NoError(t, err)
	assert.JSONEq(t, `{"model": [], "elements": []}`, string(data))
}

func TestCloneIsDeep(t *testing.T) {
	e := Element{
		"id":    "c1",
		"nodes": []any{"a", "b"},
		"end1":  map[string]any{"portRefId": "p1"},
	}
	c := e.Clone()
	c.Object("end1")["portRefId"] = "p2"
	c["nodes"].([]any)[0] = "z"

	assert.Equal(t, "p1", e.Object("end1")["portRefId"])
	assert.Equal(t, []string{"a", "b"}, e.StringList("nodes"))
}

func TestHas(t *testing.T) {
	e := Element{"a": "", "b": " ", "c": []any{}, "d": "x", "e": nil, "f": []any{"y"}}
	for _, f := range []string{"a", "b", "c", "e", "missing"} {
		assert.False(t, e.Has(f), f)
	}
	assert.True(t, e.Has("d"))
	assert.True(t, e.Has("f"))
}

func TestReferences(t *testing.T) {
	e := Element{
		"id":       "conn",
		"type":     TypeAssemblyConnector,
		"parentId": "blk",
		"typeId":   "Real",
		"nodes":    []any{"n1", "n2"},
		"end1":     map[string]any{"partRefId": "part", "portRefId": "port"},
		"entry":    map[string]any{"calledBehaviorId": "act"},
	}
	refs := e.References(RefOptions{IncludeTypeID: true})

	var paths []string
	for _, r := range refs {
		paths = append(paths, r.Path()+"="+r.Value)
	}
	assert.Equal(t, []string{
		"parentId=blk",
		"nodes=n1",
		"nodes=n2",
		"end1.partRefId=part",
		"end1.portRefId=port",
		"entry.calledBehaviorId=act",
	}, paths)
}

func TestReferencesTypeIDOptIn(t *testing.T) {
	e := Element{"id": "p", "typeId": "blk-1"}
	assert.Empty(t, e.References(RefOptions{}))
	assert.Len(t, e.References(RefOptions{IncludeTypeID: true}), 1)
}

func TestSetAndClearReference(t *testing.T) {
	e := Element{
		"sourceId": "a",
		"nodes":    []any{"x", "y", "x"},
		"end2":     map[string]any{"portRefId": "p"},
	}
	e.SetReference(Ref{Field: "sourceId", Kind: RefSingle, Value: "a"}, "b")
	e.SetReference(Ref{Field: "nodes", Kind: RefList, Value: "x"}, "w")
	e.SetReference(Ref{Field: "end2", Key: "portRefId", Kind: RefEndpoint, Value: "p"}, "q")
	assert.Equal(t, "b", e.String("sourceId"))
	assert.Equal(t, []string{"w", "y", "w"}, e.StringList("nodes"))
	assert.Equal(t, "q", e.Object("end2")["portRefId"])

	e.ClearReference(Ref{Field: "sourceId", Kind: RefSingle})
	e.ClearReference(Ref{Field: "nodes", Kind: RefList, Value: "w"})
	e.ClearReference(Ref{Field: "end2", Key: "portRefId", Kind: RefEndpoint})
	assert.False(t, e.Has("sourceId"))
	assert.Equal(t, []string{"y"}, e.StringList("nodes"))
	assert.NotContains(t, e.Object("end2"), "portRefId")
}

func TestMissingRequired(t *testing.T) {
	cases := []struct {
		name    string
		elem    Element
		missing []string
	}{
		{"untyped policy", Element{"type": TypeBlock}, nil},
		{"flow ok", Element{"type": TypeControlFlow, "sourceId": "a", "targetId": "b"}, nil},
		{"flow missing target", Element{"type": TypeControlFlow, "sourceId": "a"}, []string{"targetId"}},
		{"association member ends", Element{"type": TypeAssociation, "memberEndIds": []any{"p1", "p2"}}, nil},
		{"association source target", Element{"type": TypeAssociation, "sourceId": "a", "targetId": "b"}, nil},
		{"association none", Element{"type": TypeAssociation}, []string{"memberEndIds"}},
		{"lifeline", Element{"type": TypeLifeline}, []string{"representsId"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.missing, MissingRequired(tc.elem))
		})
	}
}

func TestExpectedTargetTypes(t *testing.T) {
	assert.Equal(t, []string{TypeRegion}, ExpectedTargetTypes(TypeState, "parentId"))
	assert.Contains(t, ExpectedTargetTypes(TypeOpaqueAction, "parentId"), TypeActivity)
	assert.Contains(t, ExpectedTargetTypes(TypeControlFlow, "targetId"), TypeActivityFinalNode)
	assert.Equal(t, VertexTypes, ExpectedTargetTypes(TypeTransition, "sourceId"))
	assert.Nil(t, ExpectedTargetTypes(TypeBlock, "unknownField"))
	assert.Equal(t, TypePackage, DefaultParentType(TypeBlock))
	assert.Equal(t, TypeActivity, DefaultParentType(TypeDecisionNode))
	assert.Equal(t, TypeRegion, DefaultParentType(TypeState))
	assert.Equal(t, RelContainedIn, RelationFor("parentId"))
	assert.Equal(t, RelMemberEnd, RelationFor("memberEndIds"))
}
