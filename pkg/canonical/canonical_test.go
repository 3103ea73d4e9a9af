package canonical

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OFFIS-RIT/sysmlfuse/pkg/model"
)

func vehicleBatch(blockID string) []model.Element {
	return []model.Element{
		{"id": "pkg-v", "type": "Package", "name": "Vehicle", "parentId": "model-1"},
		{"id": "pkg-d", "type": "Package", "name": "Drivetrain", "parentId": "pkg-v"},
		{"id": blockID, "type": "Block", "name": "Motor", "parentId": "pkg-d"},
	}
}

func TestGenerateAllKeysQualifiedPath(t *testing.T) {
	keys := NewGenerator().GenerateAllKeys(vehicleBatch("blk-motor-1"))

	assert.Equal(t, "Package::Vehicle", keys["pkg-v"])
	assert.Equal(t, "Package::Vehicle.Drivetrain", keys["pkg-d"])
	assert.Equal(t, "Block::Vehicle.Drivetrain.Motor", keys["blk-motor-1"])
}

func TestSamePathDifferentIDsShareKey(t *testing.T) {
	a := NewGenerator().GenerateAllKeys(vehicleBatch("blk-motor-1"))
	b := NewGenerator().GenerateAllKeys(vehicleBatch("blk-motor-2"))
	assert.Equal(t, a["blk-motor-1"], b["blk-motor-2"])
}

func TestGenerateAllKeysDeterministic(t *testing.T) {
	elems := vehicleBatch("blk")
	assert.Equal(t, NewGenerator().GenerateAllKeys(elems), NewGenerator().GenerateAllKeys(elems))

	g := NewGenerator()
	first := g.GenerateAllKeys(elems)
	assert.Equal(t, first, g.GenerateAllKeys(elems))
}

func TestMissingParentYieldsEmptyAncestorPath(t *testing.T) {
	keys := NewGenerator().GenerateAllKeys([]model.Element{
		{"id": "p", "type": "Property", "name": "speed", "parentId": "ghost"},
	})
	assert.Equal(t, "Property::speed", keys["p"])
}

func TestUnnamedElementUsesID(t *testing.T) {
	keys := NewGenerator().GenerateAllKeys([]model.Element{
		{"id": "act", "type": "Activity", "name": "Drive"},
		{"id": "flow-1", "type": "ControlFlow", "parentId": "act"},
		{"id": "flow-2", "type": "ControlFlow", "parentId": "act"},
	})
	assert.Equal(t, "ControlFlow::Drive.flow-1", keys["flow-1"])
	assert.NotEqual(t, keys["flow-1"], keys["flow-2"])
}

func TestParentCycleTerminates(t *testing.T) {
	keys := NewGenerator().GenerateAllKeys([]model.Element{
		{"id": "a", "type": "Package", "name": "A", "parentId": "b"},
		{"id": "b", "type": "Package", "name": "B", "parentId": "a"},
	})
	require.Len(t, keys, 2)
	assert.Equal(t, "Package::B.A", keys["a"])
	assert.Equal(t, "Package::B", keys["b"])
}

func TestSelfParentTerminates(t *testing.T) {
	keys := NewGenerator().GenerateAllKeys([]model.Element{
		{"id": "a", "type": "Block", "name": "A", "parentId": "a"},
	})
	assert.Equal(t, "Block::A", keys["a"])
}

func TestDeepChainIsCapped(t *testing.T) {
	var elems []model.Element
	elems = append(elems, model.Element{"id": idOf(0), "type": "Package", "name": idOf(0)})
	for i := 1; i < MaxDepth+50; i++ {
		elems = append(elems, model.Element{
			"id": idOf(i), "type": "Package", "name": idOf(i), "parentId": idOf(i - 1),
		})
	}
	// deepest first so the first walk hits the cap
	for i, j := 0, len(elems)-1; i < j; i, j = i+1, j-1 {
		elems[i], elems[j] = elems[j], elems[i]
	}
	keys := NewGenerator().GenerateAllKeys(elems)
	assert.Len(t, keys, len(elems))
	assert.Equal(t, "Package::n0", keys[idOf(0)])
}

func TestKeyUnknownID(t *testing.T) {
	_, ok := NewGenerator().Key("nope")
	assert.False(t, ok)
}

func TestModelKey(t *testing.T) {
	assert.Equal(t, "Model::Vehicle", ModelKey("Vehicle"))
}

func idOf(i int) string {
	return fmt.Sprintf("n%d", i)
}
