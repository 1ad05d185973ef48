package recorder

import (
	"reflect"

	"github.com/guregu/null/v6"
	"github.com/invopop/jsonschema"

	"MarketPulse/internal/model"
)

var nullFloatType = reflect.TypeOf(null.Float{})

// BoardSchema describes the document written by JSONRecorder: an object keyed by
// instrument with one snapshot per key.
func BoardSchema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == nullFloatType {
				return &jsonschema.Schema{
					OneOf: []*jsonschema.Schema{{Type: "number"}, {Type: "null"}},
				}
			}
			return nil
		},
	}
	snap := r.Reflect(&model.Snapshot{})

	return &jsonschema.Schema{
		Version:              jsonschema.Version,
		Title:                "MarketPulse board",
		Description:          "Latest indicator and signal snapshot per instrument.",
		Type:                 "object",
		AdditionalProperties: &jsonschema.Schema{Ref: snap.Ref},
		Definitions:          snap.Definitions,
	}
}
