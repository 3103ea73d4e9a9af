package xmi

import (
	m "github.com/OFFIS-RIT/sysmlfuse/pkg/model"
)

// Namespace URIs written on the root element.
const (
	nsXMI        = "http://www.omg.org/spec/XMI/20131001"
	nsUML        = "http://www.omg.org/spec/UML/20161101"
	nsSysML      = "http://www.omg.org/spec/SysML/20181001/SysML"
	nsStandard   = "http://www.omg.org/spec/UML/20161101/StandardProfile"
	nsMDSysML    = "http://www.magicdraw.com/spec/Customization/190/SysML"
	prefixMD     = "MD_Customization_for_SysML__additional_stereotypes"
	sysmlProfile = "http://www.omg.org/spec/SysML/20181001/SysML.xmi#SysML"
	stdProfile   = "http://www.omg.org/spec/UML/20161101/StandardProfile.xmi#_0"
	primitiveURI = "http://www.omg.org/spec/UML/20161101/PrimitiveTypes.xml#"
)

// Placeholder element types synthesized during generation. They never come
// from input documents.
const (
	typeWeight          = "_Weight"
	typeFlowGuard       = "_FlowGuard"
	typeTransitionGuard = "_TransitionGuard"
	typeNodeRef         = "_NodeRef"
	typeInPartitionRef  = "_InPartitionRef"
)

// umlTypes maps element types to their xmi:type.
var umlTypes = map[string]string{
	m.TypePackage:             "uml:Package",
	m.TypeBlock:               "uml:Class",
	m.TypeInterfaceBlock:      "uml:Class",
	m.TypeConstraintBlock:     "uml:Class",
	m.TypeRequirement:         "uml:Class",
	m.TypeValueType:           "uml:DataType",
	m.TypeEnumeration:         "uml:Enumeration",
	m.TypeEnumerationLiteral:  "uml:EnumerationLiteral",
	m.TypeSignal:              "uml:Signal",
	m.TypeProperty:            "uml:Property",
	m.TypeFlowProperty:        "uml:Property",
	m.TypeConstraintProperty:  "uml:Property",
	m.TypeConstraintParameter: "uml:Property",
	m.TypePort:                "uml:Port",
	m.TypeFullPort:            "uml:Port",
	m.TypeProxyPort:           "uml:Port",
	m.TypeOperation:           "uml:Operation",
	m.TypeReception:           "uml:Reception",

	m.TypeAssociation:       "uml:Association",
	m.TypeGeneralization:    "uml:Generalization",
	m.TypeAssemblyConnector: "uml:Connector",
	m.TypeBindingConnector:  "uml:Connector",
	m.TypeInclude:           "uml:Include",
	m.TypeExtend:            "uml:Extend",
	m.TypeSatisfy:           "uml:Abstraction",
	m.TypeVerify:            "uml:Abstraction",
	m.TypeDeriveReqt:        "uml:Abstraction",

	m.TypeActivity:              "uml:Activity",
	m.TypeTestCase:              "uml:Activity",
	m.TypeInitialNode:           "uml:InitialNode",
	m.TypeActivityFinalNode:     "uml:ActivityFinalNode",
	m.TypeFlowFinalNode:         "uml:FlowFinalNode",
	m.TypeDecisionNode:          "uml:DecisionNode",
	m.TypeMergeNode:             "uml:MergeNode",
	m.TypeForkNode:              "uml:ForkNode",
	m.TypeJoinNode:              "uml:JoinNode",
	m.TypeCallBehaviorAction:    "uml:CallBehaviorAction",
	m.TypeOpaqueAction:          "uml:OpaqueAction",
	m.TypeSendSignalAction:      "uml:SendSignalAction",
	m.TypeAcceptEventAction:     "uml:AcceptEventAction",
	m.TypeInputPin:              "uml:InputPin",
	m.TypeOutputPin:             "uml:OutputPin",
	m.TypeActivityParameterNode: "uml:ActivityParameterNode",
	m.TypeCentralBufferNode:     "uml:CentralBufferNode",
	m.TypeControlFlow:           "uml:ControlFlow",
	m.TypeObjectFlow:            "uml:ObjectFlow",
	m.TypeActivityPartition:     "uml:ActivityPartition",

	m.TypeStateMachine: "uml:StateMachine",
	m.TypeRegion:       "uml:Region",
	m.TypeState:        "uml:State",
	m.TypePseudostate:  "uml:Pseudostate",
	m.TypeFinalState:   "uml:FinalState",
	m.TypeTransition:   "uml:Transition",

	m.TypeInteraction:                    "uml:Interaction",
	m.TypeLifeline:                       "uml:Lifeline",
	m.TypeMessage:                        "uml:Message",
	m.TypeMessageOccurrenceSpecification: "uml:MessageOccurrenceSpecification",

	m.TypeActor:   "uml:Actor",
	m.TypeUseCase: "uml:UseCase",

	typeWeight:          "uml:LiteralUnlimitedNatural",
	typeFlowGuard:       "uml:OpaqueExpression",
	typeTransitionGuard: "uml:Constraint",
}

// tagKey selects the ownership tag of an element under a parent. An empty
// parent matches any parent type.
type tagKey struct {
	elem   string
	parent string
}

var tagTable = map[tagKey]string{}

func setTags(tag string, elems, parents []string) {
	for _, e := range elems {
		for _, p := range parents {
			tagTable[tagKey{e, p}] = tag
		}
	}
}

var (
	packages    = []string{m.TypeModel, m.TypePackage}
	classLike   = []string{m.TypeBlock, m.TypeInterfaceBlock, m.TypeConstraintBlock, m.TypeRequirement}
	structured  = m.StructuredTypes
	behaviors   = []string{m.TypeActivity, m.TypeStateMachine, m.TypeInteraction, m.TypeTestCase}
	packageable = []string{
		m.TypePackage, m.TypeBlock, m.TypeInterfaceBlock, m.TypeConstraintBlock, m.TypeValueType,
		m.TypeEnumeration, m.TypeSignal, m.TypeRequirement, m.TypeTestCase, m.TypeActor, m.TypeUseCase,
		m.TypeActivity, m.TypeStateMachine, m.TypeInteraction, m.TypeSatisfy, m.TypeVerify,
		m.TypeDeriveReqt, m.TypeAssociation,
	}
	nestedClassifiers = []string{
		m.TypeBlock, m.TypeInterfaceBlock, m.TypeConstraintBlock, m.TypeValueType,
		m.TypeEnumeration, m.TypeSignal, m.TypeRequirement, m.TypeActor,
	}
	attributes = []string{
		m.TypeProperty, m.TypeFlowProperty, m.TypeConstraintProperty, m.TypeConstraintParameter,
		m.TypePort, m.TypeFullPort, m.TypeProxyPort,
	}
	generalizable = []string{
		m.TypeBlock, m.TypeInterfaceBlock, m.TypeConstraintBlock, m.TypeValueType, m.TypeEnumeration,
		m.TypeSignal, m.TypeRequirement, m.TypeActor, m.TypeUseCase,
	}
	vertices = []string{m.TypeState, m.TypePseudostate, m.TypeFinalState}
)

func init() {
	setTags("packagedElement", packageable, packages)
	setTags("nestedClassifier", nestedClassifiers, classLike)
	setTags("ownedBehavior", behaviors, append(append([]string{}, classLike...), m.TypeActor, m.TypeUseCase))
	setTags("ownedUseCase", []string{m.TypeUseCase}, structured)
	setTags("ownedAttribute", attributes, structured)
	setTags("ownedAttribute", []string{m.TypeProperty}, []string{m.TypeSignal, m.TypeRequirement, m.TypeValueType})
	setTags("ownedEnd", []string{m.TypeProperty}, []string{m.TypeAssociation})
	setTags("ownedOperation", []string{m.TypeOperation}, structured)
	setTags("ownedReception", []string{m.TypeReception}, structured)
	setTags("ownedConnector", []string{m.TypeAssemblyConnector, m.TypeBindingConnector}, structured)
	setTags("ownedLiteral", []string{m.TypeEnumerationLiteral}, []string{m.TypeEnumeration})
	setTags("generalization", []string{m.TypeGeneralization}, generalizable)
	setTags("include", []string{m.TypeInclude}, []string{m.TypeUseCase})
	setTags("extend", []string{m.TypeExtend}, []string{m.TypeUseCase})

	activities := []string{m.TypeActivity, m.TypeTestCase}
	setTags("node", m.ActivityNodeTypes, activities)
	setTags("edge", m.ActivityEdgeTypes, activities)
	setTags("group", []string{m.TypeActivityPartition}, activities)
	setTags("subpartition", []string{m.TypeActivityPartition}, []string{m.TypeActivityPartition})
	setTags("argument", []string{m.TypeInputPin}, []string{m.TypeCallBehaviorAction, m.TypeSendSignalAction})
	setTags("result", []string{m.TypeOutputPin}, []string{m.TypeCallBehaviorAction, m.TypeAcceptEventAction})
	setTags("inputValue", []string{m.TypeInputPin}, []string{m.TypeOpaqueAction})
	setTags("outputValue", []string{m.TypeOutputPin}, []string{m.TypeOpaqueAction})

	setTags("region", []string{m.TypeRegion}, []string{m.TypeStateMachine, m.TypeState})
	setTags("subvertex", vertices, []string{m.TypeRegion})
	setTags("transition", []string{m.TypeTransition}, []string{m.TypeRegion})

	setTags("lifeline", []string{m.TypeLifeline}, []string{m.TypeInteraction})
	setTags("message", []string{m.TypeMessage}, []string{m.TypeInteraction})
	setTags("fragment", []string{m.TypeMessageOccurrenceSpecification}, []string{m.TypeInteraction})
	setTags("ownedAttribute", []string{m.TypeProperty}, []string{m.TypeInteraction})

	setTags("weight", []string{typeWeight}, m.ActivityEdgeTypes)
	setTags("guard", []string{typeFlowGuard}, m.ActivityEdgeTypes)
	setTags("guard", []string{typeTransitionGuard}, []string{m.TypeTransition})
	setTags("node", []string{typeNodeRef}, []string{m.TypeActivityPartition})
	setTags("inPartition", []string{typeInPartitionRef}, m.ActivityNodeTypes)
}

// ownershipTag returns the tag an element of elemType takes under a parent
// of parentType.
func ownershipTag(elemType, parentType string) (string, bool) {
	if tag, ok := tagTable[tagKey{elemType, parentType}]; ok {
		return tag, true
	}
	tag, ok := tagTable[tagKey{elemType, ""}]
	return tag, ok
}

// stereotype is a SysML stereotype application emitted after the tree.
type stereotype struct {
	tag  string
	base string
}

var stereotypes = map[string]stereotype{
	m.TypeBlock:               {"sysml:Block", "base_Class"},
	m.TypeInterfaceBlock:      {"sysml:InterfaceBlock", "base_Class"},
	m.TypeConstraintBlock:     {"sysml:ConstraintBlock", "base_Class"},
	m.TypeRequirement:         {"sysml:Requirement", "base_Class"},
	m.TypeValueType:           {"sysml:ValueType", "base_DataType"},
	m.TypeTestCase:            {"sysml:TestCase", "base_Behavior"},
	m.TypeFullPort:            {"sysml:FullPort", "base_Port"},
	m.TypeProxyPort:           {"sysml:ProxyPort", "base_Port"},
	m.TypeFlowProperty:        {"sysml:FlowProperty", "base_Property"},
	m.TypeConstraintProperty:  {prefixMD + ":ConstraintProperty", "base_Property"},
	m.TypeConstraintParameter: {prefixMD + ":ConstraintParameter", "base_Property"},
	m.TypeBindingConnector:    {"sysml:BindingConnector", "base_Connector"},
	m.TypeSatisfy:             {"sysml:Satisfy", "base_Abstraction"},
	m.TypeVerify:              {"sysml:Verify", "base_Abstraction"},
	m.TypeDeriveReqt:          {"sysml:DeriveReqt", "base_Abstraction"},
}

// Property-kind stereotypes chosen by the property's type.
var (
	partProperty  = stereotype{prefixMD + ":PartProperty", "base_Property"}
	valueProperty = stereotype{prefixMD + ":ValueProperty", "base_Property"}
)

// hardRefAttrs must resolve or the element carrying them is removed.
var hardRefAttrs = map[string]struct{}{
	"source": {}, "target": {}, "message": {}, "covered": {}, "client": {}, "supplier": {},
	"general": {}, "addition": {}, "extendedCase": {}, "memberEnd": {}, "sendEvent": {},
	"receiveEvent": {}, "role": {},
}

// softRefAttrs lose their dangling ids but keep their element.
var softRefAttrs = map[string]struct{}{
	"type": {}, "represents": {}, "behavior": {}, "classifierBehavior": {}, "signal": {},
	"partWithPort": {}, "coveredBy": {}, "association": {}, "inPartition": {}, "node": {},
}
