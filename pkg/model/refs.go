package model

// RefKind distinguishes the shapes a reference can take on an element.
type RefKind int

const (
	RefSingle RefKind = iota
	RefList
	RefEndpoint
	RefBehavior
)

func (k RefKind) String() string {
	switch k {
	case RefSingle:
		return "single"
	case RefList:
		return "list"
	case RefEndpoint:
		return "endpoint"
	case RefBehavior:
		return "behavior"
	}
	return "unknown"
}

// Ref is one non-empty reference held by an element.
//
// For list fields Index is the position in the list. For endpoint and
// behavior references Field is the slot ("end1", "entry") and Key is the
// nested key that holds the id ("portRefId", "calledBehaviorId").
type Ref struct {
	Field string
	Key   string
	Kind  RefKind
	Index int
	Value string
}

// Path returns a printable location of the reference, e.g. "end1.portRefId".
func (r Ref) Path() string {
	if r.Key != "" {
		return r.Field + "." + r.Key
	}
	return r.Field
}

// TargetField is the field name used to look up expected target types.
func (r Ref) TargetField() string {
	if r.Key != "" {
		return r.Key
	}
	return r.Field
}

// RefOptions controls which references are enumerated.
type RefOptions struct {
	// IncludeTypeID enumerates typeId. Primitive sentinels are never
	// enumerated regardless.
	IncludeTypeID bool
}

// References enumerates every non-empty reference on the element in a fixed
// order: single fields, list fields, connector endpoints, behavior calls.
func (e Element) References(opts RefOptions) []Ref {
	var refs []Ref
	for _, f := range SingleRefFields {
		if f.Field == "typeId" && !opts.IncludeTypeID {
			continue
		}
		v := e.String(f.Field)
		if v == "" || (f.Field == "typeId" && IsPrimitive(v)) {
			continue
		}
		refs = append(refs, Ref{Field: f.Field, Kind: RefSingle, Value: v})
	}
	for _, f := range ListRefFields {
		for i, v := range e.StringList(f.Field) {
			refs = append(refs, Ref{Field: f.Field, Kind: RefList, Index: i, Value: v})
		}
	}
	for _, slot := range EndpointFields {
		obj := e.Object(slot)
		if obj == nil {
			continue
		}
		for _, key := range EndpointRefKeys {
			if v := stringValue(obj[key]); v != "" {
				refs = append(refs, Ref{Field: slot, Key: key, Kind: RefEndpoint, Value: v})
			}
		}
	}
	for _, slot := range BehaviorSlots {
		obj := e.Object(slot)
		if obj == nil {
			continue
		}
		if v := stringValue(obj[CalledBehaviorKey]); v != "" {
			refs = append(refs, Ref{Field: slot, Key: CalledBehaviorKey, Kind: RefBehavior, Value: v})
		}
	}
	return refs
}

// SetReference rewrites the value of a reference in place. List references
// replace every occurrence of the old value.
func (e Element) SetReference(r Ref, value string) {
	switch r.Kind {
	case RefSingle:
		e[r.Field] = value
	case RefList:
		list := e.StringList(r.Field)
		out := make([]any, 0, len(list))
		for _, v := range list {
			if v == r.Value {
				v = value
			}
			out = append(out, v)
		}
		e[r.Field] = out
	case RefEndpoint, RefBehavior:
		if obj := e.Object(r.Field); obj != nil {
			obj[r.Key] = value
		}
	}
}

// ClearReference removes a reference: single fields are nulled, list fields
// drop the value, nested keys are deleted from their object.
func (e Element) ClearReference(r Ref) {
	switch r.Kind {
	case RefSingle:
		e[r.Field] = nil
	case RefList:
		list := e.StringList(r.Field)
		out := make([]any, 0, len(list))
		for _, v := range list {
			if v != r.Value {
				out = append(out, v)
			}
		}
		e[r.Field] = out
	case RefEndpoint, RefBehavior:
		if obj := e.Object(r.Field); obj != nil {
			delete(obj, r.Key)
		}
	}
}
