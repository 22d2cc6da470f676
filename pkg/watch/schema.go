// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package watch

import (
	"reflect"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3gen"
	"github.com/google/uuid"
	"github.com/telekom/hoptrace/internal/traceroute"
)

// Schema returns an openapi3.SchemaRef of the result type returned by the watcher
func Schema() (*openapi3.SchemaRef, error) {
	return openapi3gen.NewSchemaRefForValue(&traceroute.Result{}, openapi3.Schemas{},
		openapi3gen.SchemaCustomizer(customizeSchema),
	)
}

// customizeSchema aligns the generated schema with the JSON encoding
// of the types that marshal themselves.
func customizeSchema(_ string, t reflect.Type, _ reflect.StructTag, schema *openapi3.Schema) error {
	switch t {
	case reflect.TypeOf(uuid.UUID{}):
		*schema = *openapi3.NewStringSchema().WithFormat("uuid")
	case reflect.TypeOf(traceroute.State(0)):
		*schema = *openapi3.NewStringSchema().WithEnum(traceroute.StateDone.String(), traceroute.StateExhausted.String())
	case reflect.TypeOf(traceroute.Hop{}):
		if schema.Properties == nil {
			schema.Properties = openapi3.Schemas{}
		}
		latency := openapi3.NewStringSchema()
		latency.Description = "Round trip time of the probe, e.g. 1.5ms"
		schema.Properties["latency"] = latency.NewRef()
	}
	return nil
}
