package rpc

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Request is the body of a ComputeSpecimen call. A positive
// CrossSectionalArea overrides the server's stored config for the specimen.
type Request struct {
	SpecimenID         string    `json:"specimen_id"`
	Load               []float64 `json:"load"`
	Displacement       []float64 `json:"displacement"`
	CrossSectionalArea float64   `json:"cross_sectional_area,omitempty"`
	GaugeLength        float64   `json:"gauge_length,omitempty"`
}

// toStruct round-trips v through JSON into a protobuf Struct.
func toStruct(v interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("to struct: %w", err)
	}
	return out, nil
}

// fromStruct decodes a protobuf Struct into v.
func fromStruct(in *structpb.Struct, v interface{}) error {
	raw, err := protojson.Marshal(in)
	if err != nil {
		return fmt.Errorf("from struct: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return nil
}
