package xmi

import (
	"github.com/beevik/etree"

	"github.com/OFFIS-RIT/sysmlfuse/internal/util"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/model"
)

// writeAttrs adds the type-specific attributes and inline children of e.
func (g *generator) writeAttrs(e model.Element, el *etree.Element) {
	switch e.Type() {
	case model.TypeBlock, model.TypeInterfaceBlock, model.TypeConstraintBlock:
		if v, _ := e["isAbstract"].(bool); v {
			el.CreateAttr("isAbstract", "true")
		}
		refAttr(el, "classifierBehavior", e.String("classifierBehaviorId"))

	case model.TypeProperty, model.TypeFlowProperty, model.TypeConstraintProperty,
		model.TypeConstraintParameter, model.TypePort, model.TypeFullPort, model.TypeProxyPort:
		g.typeRef(e, el)
		if agg := e.String("aggregation"); agg != "" {
			el.CreateAttr("aggregation", agg)
		}
		if e.Type() == model.TypeProxyPort || e.Type() == model.TypeFullPort {
			el.CreateAttr("isBehavior", "false")
		}

	case model.TypeInputPin, model.TypeOutputPin, model.TypeActivityParameterNode, model.TypeCentralBufferNode:
		g.typeRef(e, el)

	case model.TypeGeneralization:
		refAttr(el, "general", e.String("targetId"))
	case model.TypeInclude:
		refAttr(el, "addition", e.String("targetId"))
	case model.TypeExtend:
		refAttr(el, "extendedCase", e.String("targetId"))

	case model.TypeSatisfy:
		refAttr(el, "client", e.String("blockId"))
		refAttr(el, "supplier", e.String("requirementId"))
	case model.TypeVerify:
		refAttr(el, "client", e.String("testCaseId"))
		refAttr(el, "supplier", e.String("requirementId"))
	case model.TypeDeriveReqt:
		refAttr(el, "client", e.String("derivedRequirementId"))
		refAttr(el, "supplier", e.String("sourceRequirementId"))

	case model.TypeAssemblyConnector, model.TypeBindingConnector:
		connectorEnds(e, el)

	case model.TypeCallBehaviorAction:
		refAttr(el, "behavior", e.String("behaviorId"))
	case model.TypeSendSignalAction:
		refAttr(el, "signal", e.String("signalId"))
	case model.TypeOpaqueAction:
		if body := e.String("body"); body != "" {
			opaqueBody(el, body)
		}

	case model.TypeControlFlow, model.TypeObjectFlow, model.TypeTransition:
		refAttr(el, "source", e.String("sourceId"))
		refAttr(el, "target", e.String("targetId"))

	case model.TypePseudostate:
		kind := e.String("kind")
		if kind == "" {
			kind = "initial"
		}
		el.CreateAttr("kind", kind)

	case model.TypeLifeline:
		refAttr(el, "represents", e.String(representsField))
	case model.TypeMessage:
		refAttr(el, "sendEvent", e.String("sendEventId"))
		refAttr(el, "receiveEvent", e.String("receiveEventId"))
		sort := e.String("messageSort")
		if sort == "" {
			sort = "synchCall"
		}
		el.CreateAttr("messageSort", sort)
	case model.TypeMessageOccurrenceSpecification:
		refAttr(el, "covered", e.String("coveredId"))
		refAttr(el, "message", e.String("messageId"))

	case typeWeight:
		el.CreateAttr("value", "1")
	case typeFlowGuard:
		opaqueBody(el, e.String("body"))
	case typeTransitionGuard:
		spec := el.CreateElement("specification")
		spec.CreateAttr("xmi:type", "uml:OpaqueExpression")
		spec.CreateAttr("xmi:id", e.ID()+"_spec")
		opaqueBody(spec, e.String("body"))
	}

	if d := e.Description(); d != "" && !isSynthesized(e) {
		c := el.CreateElement("ownedComment")
		c.CreateAttr("xmi:type", "uml:Comment")
		c.CreateAttr("xmi:id", e.ID()+"_comment")
		c.CreateAttr("body", util.SanitizeText(d))
		c.CreateElement("annotatedElement").CreateAttr("xmi:idref", e.ID())
	}
}

func opaqueBody(el *etree.Element, body string) {
	el.CreateElement("body").SetText(util.SanitizeText(body))
	el.CreateElement("language").SetText("English")
}

// typeRef writes the type of a typed element: primitives as an href child,
// element types as an attribute.
func (g *generator) typeRef(e model.Element, el *etree.Element) {
	t := e.String("typeId")
	switch {
	case t == "":
	case model.IsPrimitive(t):
		el.CreateElement("type").CreateAttr("href", primitiveURI+t)
	default:
		el.CreateAttr("type", t)
	}
}

// connectorEnds writes one ConnectorEnd per endpoint object. The role is
// the port or property; the part, when given with either, becomes
// partWithPort.
func connectorEnds(e model.Element, el *etree.Element) {
	for _, slot := range model.EndpointFields {
		obj := e.Object(slot)
		if obj == nil {
			continue
		}
		part, _ := obj["partRefId"].(string)
		role, _ := obj["portRefId"].(string)
		if role == "" {
			role, _ = obj["propertyRefId"].(string)
		}
		end := el.CreateElement("end")
		end.CreateAttr("xmi:type", "uml:ConnectorEnd")
		end.CreateAttr("xmi:id", e.ID()+"_"+slot)
		switch {
		case role != "":
			end.CreateAttr("role", role)
			refAttr(end, "partWithPort", part)
		case part != "":
			end.CreateAttr("role", part)
		}
	}
}

func refAttr(el *etree.Element, key, value string) {
	if value != "" {
		el.CreateAttr(key, value)
	}
}
