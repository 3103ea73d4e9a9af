package model

// Element type vocabulary.
const (
	TypeModel = "Model"

	TypePackage             = "Package"
	TypeBlock               = "Block"
	TypeInterfaceBlock      = "InterfaceBlock"
	TypeConstraintBlock     = "ConstraintBlock"
	TypeValueType           = "ValueType"
	TypeEnumeration         = "Enumeration"
	TypeEnumerationLiteral  = "EnumerationLiteral"
	TypeSignal              = "Signal"
	TypeProperty            = "Property"
	TypePort                = "Port"
	TypeFullPort            = "FullPort"
	TypeProxyPort           = "ProxyPort"
	TypeFlowProperty        = "FlowProperty"
	TypeConstraintParameter = "ConstraintParameter"
	TypeConstraintProperty  = "ConstraintProperty"
	TypeOperation           = "Operation"
	TypeReception           = "Reception"

	TypeAssociation       = "Association"
	TypeGeneralization    = "Generalization"
	TypeAssemblyConnector = "AssemblyConnector"
	TypeBindingConnector  = "BindingConnector"
	TypeInclude           = "Include"
	TypeExtend            = "Extend"
	TypeSatisfy           = "Satisfy"
	TypeVerify            = "Verify"
	TypeDeriveReqt        = "DeriveReqt"

	TypeActivity              = "Activity"
	TypeInitialNode           = "InitialNode"
	TypeActivityFinalNode     = "ActivityFinalNode"
	TypeFlowFinalNode         = "FlowFinalNode"
	TypeDecisionNode          = "DecisionNode"
	TypeMergeNode             = "MergeNode"
	TypeForkNode              = "ForkNode"
	TypeJoinNode              = "JoinNode"
	TypeCallBehaviorAction    = "CallBehaviorAction"
	TypeOpaqueAction          = "OpaqueAction"
	TypeSendSignalAction      = "SendSignalAction"
	TypeAcceptEventAction     = "AcceptEventAction"
	TypeInputPin              = "InputPin"
	TypeOutputPin             = "OutputPin"
	TypeActivityParameterNode = "ActivityParameterNode"
	TypeCentralBufferNode     = "CentralBufferNode"
	TypeControlFlow           = "ControlFlow"
	TypeObjectFlow            = "ObjectFlow"
	TypeActivityPartition     = "ActivityPartition"

	TypeStateMachine = "StateMachine"
	TypeRegion       = "Region"
	TypeState        = "State"
	TypePseudostate  = "Pseudostate"
	TypeFinalState   = "FinalState"
	TypeTransition   = "Transition"

	TypeRequirement = "Requirement"
	TypeTestCase    = "TestCase"

	TypeInteraction                    = "Interaction"
	TypeLifeline                       = "Lifeline"
	TypeMessage                        = "Message"
	TypeMessageOccurrenceSpecification = "MessageOccurrenceSpecification"

	TypeActor   = "Actor"
	TypeUseCase = "UseCase"
)

// Primitive type sentinels accepted by typeId without a backing element.
var PrimitiveTypes = []string{"Real", "Integer", "Boolean", "String"}

// IsPrimitive reports whether v is a primitive type sentinel.
func IsPrimitive(v string) bool {
	for _, p := range PrimitiveTypes {
		if p == v {
			return true
		}
	}
	return false
}

var (
	ClassifierTypes = []string{
		TypeBlock, TypeInterfaceBlock, TypeConstraintBlock, TypeValueType,
		TypeEnumeration, TypeSignal, TypeActor, TypeUseCase, TypeRequirement,
	}
	TypeLikeTypes = []string{
		TypeBlock, TypeInterfaceBlock, TypeConstraintBlock, TypeValueType,
		TypeEnumeration, TypeSignal, TypeActor,
	}
	BehaviorTypes = []string{TypeActivity, TypeStateMachine, TypeInteraction}
	PinTypes      = []string{TypeInputPin, TypeOutputPin}
	ActionTypes   = []string{
		TypeCallBehaviorAction, TypeOpaqueAction, TypeSendSignalAction, TypeAcceptEventAction,
	}
	ActivityNodeTypes = []string{
		TypeInitialNode, TypeActivityFinalNode, TypeFlowFinalNode, TypeDecisionNode,
		TypeMergeNode, TypeForkNode, TypeJoinNode, TypeCallBehaviorAction, TypeOpaqueAction,
		TypeSendSignalAction, TypeAcceptEventAction, TypeInputPin, TypeOutputPin,
		TypeActivityParameterNode, TypeCentralBufferNode,
	}
	ActivityEdgeTypes = []string{TypeControlFlow, TypeObjectFlow}
	VertexTypes       = []string{TypeState, TypePseudostate, TypeFinalState}
	PortTypes         = []string{TypePort, TypeFullPort, TypeProxyPort}
	StructuredTypes   = []string{TypeBlock, TypeInterfaceBlock, TypeConstraintBlock}
)

// RelationshipTypes are element types that are meaningless without their
// endpoints.
var RelationshipTypes = setOf(
	TypeControlFlow, TypeObjectFlow, TypeTransition, TypeMessage, TypeAssociation,
	TypeGeneralization, TypeInclude, TypeExtend, TypeSatisfy, TypeVerify, TypeDeriveReqt,
	TypeAssemblyConnector, TypeBindingConnector,
)

// IsRelationship reports whether t is a relationship type.
func IsRelationship(t string) bool {
	_, ok := RelationshipTypes[t]
	return ok
}

// Contains reports whether t is in types.
func Contains(types []string, t string) bool {
	for _, v := range types {
		if v == t {
			return true
		}
	}
	return false
}

func setOf(items ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(items))
	for _, it := range items {
		m[it] = struct{}{}
	}
	return m
}

func concat(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}
