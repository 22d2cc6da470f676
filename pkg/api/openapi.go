// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/telekom/hoptrace/internal/logger"
	"gopkg.in/yaml.v3"
)

// Endpoint describes a route returning a JSON document for the OpenAPI document
type Endpoint struct {
	Path        string
	Method      string
	Name        string
	Description string
	// Schema returns the schema of the 200 response body
	Schema func() (*openapi3.SchemaRef, error)
	// NotFound documents a 404 response, e.g. before any data is available
	NotFound bool
}

// OpenAPI builds the OpenAPI document of the given endpoints
func OpenAPI(version string, endpoints ...Endpoint) (*openapi3.T, error) {
	doc := &openapi3.T{
		OpenAPI: "3.0.0",
		Info: &openapi3.Info{
			Title:       "hoptrace API",
			Description: "Results of the traceroute watch",
			Version:     version,
		},
		Paths: openapi3.NewPaths(),
	}

	for _, e := range endpoints {
		ref, err := e.Schema()
		if err != nil {
			return nil, ErrCreateOpenapiSchema{name: e.Name, err: err}
		}

		responses := openapi3.NewResponses(
			openapi3.WithStatus(http.StatusOK, &openapi3.ResponseRef{
				Value: openapi3.NewResponse().
					WithDescription(e.Description).
					WithJSONSchemaRef(ref),
			}),
		)
		if e.NotFound {
			responses.Set("404", &openapi3.ResponseRef{
				Value: openapi3.NewResponse().WithDescription("No data available yet"),
			})
		}

		op := &openapi3.Operation{
			OperationID: e.Name,
			Description: e.Description,
			Responses:   responses,
		}
		item := doc.Paths.Value(e.Path)
		if item == nil {
			item = &openapi3.PathItem{}
			doc.Paths.Set(e.Path, item)
		}
		item.SetOperation(e.Method, op)
	}

	return doc, nil
}

// OpenAPIHandler serves the document as YAML
func OpenAPIHandler(doc *openapi3.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())
		v, err := doc.MarshalYAML()
		if err != nil {
			log.ErrorContext(r.Context(), "Failed to marshal openapi document", "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		out, err := yaml.Marshal(v)
		if err != nil {
			log.ErrorContext(r.Context(), "Failed to encode openapi document", "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/x-yaml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(out)
	}
}
