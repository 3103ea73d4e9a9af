package fusion

import (
	"github.com/OFFIS-RIT/sysmlfuse/pkg/model"
)

func el(fields ...any) model.Element {
	e := model.Element{}
	for i := 0; i+1 < len(fields); i += 2 {
		e[fields[i].(string)] = fields[i+1]
	}
	return e
}

func doc(modelID, modelName string, elements ...model.Element) *model.Document {
	return &model.Document{
		Model:    []model.Element{el("id", modelID, "name", modelName, "type", "Model")},
		Elements: elements,
	}
}

// motorBatches describes the same Vehicle/Drivetrain/Motor tree twice with
// different ids, the second batch adding a property typed by the motor.
func motorBatches() []*model.Document {
	return []*model.Document{
		doc("m1", "Model A",
			el("id", "p1", "type", "Package", "name", "Vehicle", "parentId", "m1"),
			el("id", "p2", "type", "Package", "name", "Drivetrain", "parentId", "p1"),
			el("id", "b1", "type", "Block", "name", "Motor", "parentId", "p2"),
		),
		doc("m2", "Model B",
			el("id", "v2", "type", "Package", "name", "Vehicle", "parentId", "m2"),
			el("id", "d2", "type", "Package", "name", "Drivetrain", "parentId", "v2"),
			el("id", "mot2", "type", "Block", "name", "Motor", "parentId", "d2",
				"description", "electric motor"),
			el("id", "prop2", "type", "Property", "name", "motor", "parentId", "v2", "typeId", "mot2"),
		),
	}
}
