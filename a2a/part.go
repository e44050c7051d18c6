// Copyright 2025 The MedMesh Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

// PartKind is the discriminator for the Part union.
type PartKind string

// Valid part kinds.
const (
	PartKindText PartKind = "text"
	PartKindData PartKind = "data"
)

// Part is a discriminated union over text and structured-data segments of a
// message. Exactly one of Text or Data is populated according to Kind.
// Parts are immutable once constructed; use the constructors below.
type Part struct {
	Kind PartKind `json:"kind"`

	Text string         `json:"text,omitzero"`
	Data map[string]any `json:"data,omitzero"`

	Metadata map[string]any `json:"metadata,omitzero"`
}

// NewTextPart creates a text Part.
func NewTextPart(text string) Part {
	return Part{
		Kind: PartKindText,
		Text: text,
	}
}

// NewDataPart creates a structured-data Part.
func NewDataPart(data map[string]any) Part {
	return Part{
		Kind: PartKindData,
		Data: data,
	}
}

// clone returns a shallow-keyed copy of the part. Part payloads are treated
// as immutable, so the nested values are shared.
func (p Part) clone() Part {
	out := p
	if p.Data != nil {
		out.Data = make(map[string]any, len(p.Data))
		for k, v := range p.Data {
			out.Data[k] = v
		}
	}
	if p.Metadata != nil {
		out.Metadata = make(map[string]any, len(p.Metadata))
		for k, v := range p.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}
