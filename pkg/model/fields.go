package model

// Edge types materialized from reference fields.
const (
	RelContainedIn        = "CONTAINED_IN"
	RelSource             = "SOURCE"
	RelTarget             = "TARGET"
	RelTypedBy            = "TYPED_BY"
	RelRepresents         = "REPRESENTS"
	RelClassifierBehavior = "CLASSIFIER_BEHAVIOR"
	RelCallsBehavior      = "CALLS_BEHAVIOR"
	RelSignal             = "SIGNAL"
	RelMessage            = "MESSAGE"
	RelCovers             = "COVERS"
	RelSendEvent          = "SEND_EVENT"
	RelReceiveEvent       = "RECEIVE_EVENT"
	RelRequirement        = "REQUIREMENT"
	RelSatisfiedBy        = "SATISFIED_BY"
	RelVerifiedBy         = "VERIFIED_BY"
	RelDerivedFrom        = "DERIVED_FROM"
	RelDerives            = "DERIVES"
	RelHasNode            = "HAS_NODE"
	RelHasEdge            = "HAS_EDGE"
	RelHasGroup           = "HAS_GROUP"
	RelMemberEnd          = "MEMBER_END"
	RelPartitionNode      = "PARTITION_NODE"
	RelConnects           = "CONNECTS"
)

// FieldRelation binds a reference field to the edge type it becomes.
type FieldRelation struct {
	Field    string
	Relation string
}

// SingleRefFields are the single-valued reference fields, in the order they
// are processed.
var SingleRefFields = []FieldRelation{
	{"parentId", RelContainedIn},
	{"sourceId", RelSource},
	{"targetId", RelTarget},
	{"typeId", RelTypedBy},
	{"representsId", RelRepresents},
	{"classifierBehaviorId", RelClassifierBehavior},
	{"behaviorId", RelCallsBehavior},
	{"signalId", RelSignal},
	{"messageId", RelMessage},
	{"coveredId", RelCovers},
	{"sendEventId", RelSendEvent},
	{"receiveEventId", RelReceiveEvent},
	{"requirementId", RelRequirement},
	{"blockId", RelSatisfiedBy},
	{"testCaseId", RelVerifiedBy},
	{"sourceRequirementId", RelDerivedFrom},
	{"derivedRequirementId", RelDerives},
}

// ListRefFields are the list-valued reference fields.
var ListRefFields = []FieldRelation{
	{"nodes", RelHasNode},
	{"edges", RelHasEdge},
	{"groups", RelHasGroup},
	{"memberEndIds", RelMemberEnd},
	{"nodeIds", RelPartitionNode},
}

// Connector endpoint objects and the keys they may reference through.
var (
	EndpointFields  = []string{"end1", "end2"}
	EndpointRefKeys = []string{"partRefId", "portRefId", "propertyRefId"}
)

// Nested behavior call slots. State carries entry/exit/doActivity and
// Transition carries effect; each is an object with calledBehaviorId.
var (
	BehaviorSlots     = []string{"entry", "exit", "doActivity", "effect"}
	CalledBehaviorKey = "calledBehaviorId"
)

// CriticalFields are the fields whose breakage makes a relationship element
// meaningless.
var CriticalFields = setOf(
	"sourceId", "targetId", "sendEventId", "receiveEventId", "messageId",
	"requirementId", "blockId", "testCaseId", "sourceRequirementId",
	"derivedRequirementId", "memberEndIds", "end1", "end2",
)

// IsCritical reports whether a field (or the endpoint slot of a nested
// field) is critical.
func IsCritical(field string) bool {
	_, ok := CriticalFields[field]
	return ok
}

// RequiredFields lists, per type, alternative field sets of which at least
// one must be fully present and non-empty.
var RequiredFields = map[string][][]string{
	TypeMessageOccurrenceSpecification: {{"messageId", "coveredId"}},
	TypeTransition:                     {{"sourceId", "targetId"}},
	TypeControlFlow:                    {{"sourceId", "targetId"}},
	TypeObjectFlow:                     {{"sourceId", "targetId"}},
	TypeGeneralization:                 {{"sourceId", "targetId"}},
	TypeInclude:                        {{"sourceId", "targetId"}},
	TypeExtend:                         {{"sourceId", "targetId"}},
	TypeMessage:                        {{"sendEventId", "receiveEventId"}},
	TypeLifeline:                       {{"representsId"}},
	TypeAssociation:                    {{"memberEndIds"}, {"sourceId", "targetId"}},
	TypeSatisfy:                        {{"requirementId", "blockId"}},
	TypeVerify:                         {{"requirementId", "testCaseId"}},
	TypeDeriveReqt:                     {{"sourceRequirementId", "derivedRequirementId"}},
}

// MissingRequired returns the first unmet alternative of the type's
// required-field policy, or nil when the element satisfies it.
func MissingRequired(e Element) []string {
	alts, ok := RequiredFields[e.Type()]
	if !ok {
		return nil
	}
	var first []string
	for _, alt := range alts {
		var missing []string
		for _, f := range alt {
			if !e.Has(f) {
				missing = append(missing, f)
			}
		}
		if len(missing) == 0 {
			return nil
		}
		if first == nil {
			first = missing
		}
	}
	return first
}

var containerTypes = concat(
	[]string{TypeModel, TypePackage},
	StructuredTypes,
	[]string{TypeEnumeration, TypeSignal, TypeAssociation, TypeRequirement, TypeActor, TypeUseCase},
	BehaviorTypes,
	ActionTypes,
	[]string{TypeRegion, TypeState, TypeActivityPartition},
)

// parentTypes lists the acceptable container types of each element type.
// Types missing here accept any container.
var parentTypes = map[string][]string{
	TypePackage:         {TypeModel, TypePackage},
	TypeBlock:           {TypeModel, TypePackage, TypeBlock},
	TypeInterfaceBlock:  {TypeModel, TypePackage},
	TypeConstraintBlock: {TypeModel, TypePackage},
	TypeValueType:       {TypeModel, TypePackage},
	TypeEnumeration:     {TypeModel, TypePackage},
	TypeSignal:          {TypeModel, TypePackage},
	TypeRequirement:     {TypeModel, TypePackage, TypeRequirement},
	TypeTestCase:        {TypeModel, TypePackage},
	TypeActor:           {TypeModel, TypePackage},
	TypeUseCase:         {TypeModel, TypePackage, TypeBlock},
	TypeAssociation:     {TypeModel, TypePackage},
	TypeSatisfy:         {TypeModel, TypePackage},
	TypeVerify:          {TypeModel, TypePackage},
	TypeDeriveReqt:      {TypeModel, TypePackage},
	TypeActivity:        {TypeModel, TypePackage, TypeBlock},
	TypeStateMachine:    {TypeModel, TypePackage, TypeBlock},
	TypeInteraction:     {TypeModel, TypePackage, TypeBlock},

	TypeProperty:            concat(StructuredTypes, []string{TypeSignal, TypeAssociation}),
	TypePort:                StructuredTypes,
	TypeFullPort:            StructuredTypes,
	TypeProxyPort:           StructuredTypes,
	TypeFlowProperty:        StructuredTypes,
	TypeConstraintParameter: {TypeConstraintBlock},
	TypeConstraintProperty:  StructuredTypes,
	TypeOperation:           StructuredTypes,
	TypeReception:           StructuredTypes,
	TypeAssemblyConnector:   StructuredTypes,
	TypeBindingConnector:    StructuredTypes,
	TypeEnumerationLiteral:  {TypeEnumeration},

	TypeInputPin:  ActionTypes,
	TypeOutputPin: ActionTypes,

	TypeRegion:      {TypeStateMachine, TypeState},
	TypeState:       {TypeRegion},
	TypePseudostate: {TypeRegion},
	TypeFinalState:  {TypeRegion},
	TypeTransition:  {TypeRegion},

	TypeLifeline:                       {TypeInteraction},
	TypeMessage:                        {TypeInteraction},
	TypeMessageOccurrenceSpecification: {TypeInteraction},
}

func init() {
	for _, t := range concat(ActivityNodeTypes, ActivityEdgeTypes, []string{TypeActivityPartition}) {
		if _, ok := parentTypes[t]; !ok {
			parentTypes[t] = []string{TypeActivity}
		}
	}
}

// defaultParent is the container type synthesized for an orphan of a given
// type.
var defaultParent = map[string]string{
	TypeProperty:                       TypeBlock,
	TypePort:                           TypeBlock,
	TypeFullPort:                       TypeBlock,
	TypeProxyPort:                      TypeBlock,
	TypeFlowProperty:                   TypeInterfaceBlock,
	TypeConstraintParameter:            TypeConstraintBlock,
	TypeConstraintProperty:             TypeBlock,
	TypeOperation:                      TypeBlock,
	TypeReception:                      TypeBlock,
	TypeAssemblyConnector:              TypeBlock,
	TypeBindingConnector:               TypeBlock,
	TypeEnumerationLiteral:             TypeEnumeration,
	TypeInputPin:                       TypeOpaqueAction,
	TypeOutputPin:                      TypeOpaqueAction,
	TypeRegion:                         TypeStateMachine,
	TypeState:                          TypeRegion,
	TypePseudostate:                    TypeRegion,
	TypeFinalState:                     TypeRegion,
	TypeTransition:                     TypeRegion,
	TypeLifeline:                       TypeInteraction,
	TypeMessage:                        TypeInteraction,
	TypeMessageOccurrenceSpecification: TypeInteraction,
}

// DefaultParentType returns the container type to synthesize for an element
// of the given type whose parent is missing.
func DefaultParentType(childType string) string {
	if t, ok := defaultParent[childType]; ok {
		return t
	}
	if Contains(ActivityNodeTypes, childType) || Contains(ActivityEdgeTypes, childType) ||
		childType == TypeActivityPartition {
		return TypeActivity
	}
	return TypePackage
}

// ExpectedTargetTypes returns the element types a reference field of an
// owner type may point at. A nil result means any type is acceptable.
func ExpectedTargetTypes(ownerType, field string) []string {
	switch field {
	case "parentId":
		if t, ok := parentTypes[ownerType]; ok {
			return t
		}
		return containerTypes
	case "sourceId", "targetId":
		switch ownerType {
		case TypeControlFlow, TypeObjectFlow:
			return ActivityNodeTypes
		case TypeTransition:
			return VertexTypes
		case TypeGeneralization:
			return ClassifierTypes
		case TypeInclude, TypeExtend:
			return []string{TypeUseCase}
		case TypeAssociation:
			return concat(StructuredTypes, []string{TypeActor, TypeUseCase})
		}
		return nil
	case "typeId":
		return TypeLikeTypes
	case "representsId":
		return []string{TypeBlock, TypeActor, TypeInterfaceBlock, TypeProperty}
	case "classifierBehaviorId", "behaviorId", CalledBehaviorKey:
		return BehaviorTypes
	case "signalId":
		return []string{TypeSignal}
	case "messageId":
		return []string{TypeMessage}
	case "coveredId":
		return []string{TypeLifeline}
	case "sendEventId", "receiveEventId":
		return []string{TypeMessageOccurrenceSpecification}
	case "requirementId", "sourceRequirementId", "derivedRequirementId":
		return []string{TypeRequirement}
	case "blockId":
		return concat(StructuredTypes, BehaviorTypes)
	case "testCaseId":
		return []string{TypeTestCase, TypeActivity, TypeStateMachine, TypeInteraction}
	case "nodes", "nodeIds":
		return ActivityNodeTypes
	case "edges":
		return ActivityEdgeTypes
	case "groups":
		return []string{TypeActivityPartition}
	case "memberEndIds":
		return []string{TypeProperty}
	case "partRefId":
		return []string{TypeProperty, TypeConstraintProperty}
	case "portRefId":
		return PortTypes
	case "propertyRefId":
		return []string{TypeProperty, TypeFlowProperty, TypeConstraintParameter, TypeConstraintProperty}
	}
	return nil
}

// RelationFor returns the edge type for a single or list reference field.
func RelationFor(field string) string {
	for _, f := range SingleRefFields {
		if f.Field == field {
			return f.Relation
		}
	}
	for _, f := range ListRefFields {
		if f.Field == field {
			return f.Relation
		}
	}
	return ""
}
