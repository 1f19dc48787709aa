package gdata

import (
	"encoding/json"
	"fmt"
)

// JSONParsable is the capability of being deserialized from and serialized
// to a JSON object, for the services that speak JSON instead of Atom
// (Calendar v3 and friends). Subtypes chain ParseJSONMember to the embedded
// parent the same way XML parsing chains.
type JSONParsable interface {
	// Kind returns the object's kind discriminator ("calendar#event"), or
	// "" when the type carries none.
	Kind() string

	// ParseJSONMember handles one top-level member. It reports false for
	// members it does not recognize; those are dropped. JSON types do not
	// round-trip unknown members: the wire format carries a kind tag, so
	// the server tolerates their absence.
	ParseJSONMember(key string, value json.RawMessage) (bool, error)

	// PostParseJSON validates required members once the object is consumed.
	PostParseJSON() error

	// JSONObject builds the serialized object. The kind member is added by
	// MarshalJSONObject.
	JSONObject() map[string]any
}

// ParseJSONObject deserializes a JSON object into p, enforcing the kind
// discriminator when both sides declare one.
func ParseJSONObject(p JSONParsable, data []byte) error {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return WrapError(KindProtocol, "malformed JSON", err)
	}
	if raw, ok := members["kind"]; ok && p.Kind() != "" {
		var kind string
		if err := json.Unmarshal(raw, &kind); err != nil {
			return WrapError(KindProtocol, "malformed kind member", err)
		}
		if kind != p.Kind() {
			return NewError(KindProtocol, fmt.Sprintf("expected kind %q, got %q", p.Kind(), kind))
		}
	}
	for key, value := range members {
		if key == "kind" {
			continue
		}
		if _, err := p.ParseJSONMember(key, value); err != nil {
			return err
		}
	}
	return p.PostParseJSON()
}

// MarshalJSONObject serializes p, stamping its kind discriminator.
func MarshalJSONObject(p JSONParsable) ([]byte, error) {
	obj := p.JSONObject()
	if p.Kind() != "" {
		obj["kind"] = p.Kind()
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return nil, WrapError(KindProtocol, "serialize JSON", err)
	}
	return data, nil
}

// JSONString unmarshals a string member.
func JSONString(value json.RawMessage, out *string) error {
	if err := json.Unmarshal(value, out); err != nil {
		return WrapError(KindProtocol, "expected JSON string", err)
	}
	return nil
}

// JSONBool unmarshals a boolean member.
func JSONBool(value json.RawMessage, out *bool) error {
	if err := json.Unmarshal(value, out); err != nil {
		return WrapError(KindProtocol, "expected JSON boolean", err)
	}
	return nil
}

// JSONInt unmarshals an integer member.
func JSONInt(value json.RawMessage, out *int) error {
	if err := json.Unmarshal(value, out); err != nil {
		return WrapError(KindProtocol, "expected JSON number", err)
	}
	return nil
}
