// Package docs builds the Swagger 2.0 description of the API from the
// route table.
package docs

import (
	"net/http"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aanand-mishra/student-registry/internal/http/routes"
	"github.com/aanand-mishra/student-registry/internal/utils/response"
)

// Info is the static part of the document.
type Info struct {
	Title       string
	Description string
	Version     string
	Host        string
	BasePath    string
	Schemes     []string
}

// Document is a Swagger 2.0 document.
type Document struct {
	Swagger     string                          `json:"swagger"`
	Info        map[string]any                  `json:"info"`
	Host        string                          `json:"host,omitempty"`
	BasePath    string                          `json:"basePath"`
	Schemes     []string                        `json:"schemes"`
	Consumes    []string                        `json:"consumes"`
	Produces    []string                        `json:"produces"`
	Tags        []Tag                           `json:"tags"`
	Paths       map[string]map[string]Operation `json:"paths"`
	Definitions map[string]Schema               `json:"definitions"`
}

type Tag struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type Operation struct {
	Tags        []string            `json:"tags,omitempty"`
	Summary     string              `json:"summary,omitempty"`
	Description string              `json:"description,omitempty"`
	Parameters  []Parameter         `json:"parameters,omitempty"`
	Responses   map[string]Response `json:"responses"`
}

type Parameter struct {
	Name     string  `json:"name"`
	In       string  `json:"in"`
	Required bool    `json:"required"`
	Schema   *Schema `json:"schema,omitempty"`
}

type Response struct {
	Description string  `json:"description"`
	Schema      *Schema `json:"schema,omitempty"`
}

type Schema struct {
	Ref        string            `json:"$ref,omitempty"`
	Type       string            `json:"type,omitempty"`
	Format     string            `json:"format,omitempty"`
	Items      *Schema           `json:"items,omitempty"`
	Properties map[string]Schema `json:"properties,omitempty"`
	AllOf      []Schema          `json:"allOf,omitempty"`
}

// Build generates the document for the given modules.
func Build(info Info, modules ...routes.Module) Document {
	doc := Document{
		Swagger: "2.0",
		Info: map[string]any{
			"title":       info.Title,
			"description": info.Description,
			"version":     info.Version,
			"license":     map[string]string{"name": "MIT"},
		},
		Host:        info.Host,
		BasePath:    info.BasePath,
		Schemes:     info.Schemes,
		Consumes:    []string{"application/json"},
		Produces:    []string{"application/json"},
		Paths:       make(map[string]map[string]Operation),
		Definitions: baseDefinitions(),
	}

	for _, m := range modules {
		doc.Tags = append(doc.Tags, Tag{Name: m.Tag, Description: m.Description})

		for _, rt := range m.Routes {
			path := m.Path + rt.Path
			if doc.Paths[path] == nil {
				doc.Paths[path] = make(map[string]Operation)
			}
			doc.Paths[path][strings.ToLower(rt.Method)] = operation(m.Tag, rt)
		}
	}

	sort.Slice(doc.Tags, func(i, j int) bool { return doc.Tags[i].Name < doc.Tags[j].Name })

	return doc
}

func operation(tag string, rt routes.Route) Operation {
	status := rt.Status
	if status == 0 {
		status = http.StatusOK
	}

	success := Schema{Ref: "#/definitions/SuccessResponse"}
	if rt.Response != nil {
		success = Schema{AllOf: []Schema{
			{Ref: "#/definitions/SuccessResponse"},
			{Type: "object", Properties: map[string]Schema{"data": schemaOf(reflect.TypeOf(rt.Response))}},
		}}
	}

	errorRef := &Schema{Ref: "#/definitions/ErrorResponse"}

	op := Operation{
		Tags:        []string{tag},
		Summary:     rt.Summary,
		Description: rt.Description,
		Responses: map[string]Response{
			strconv.Itoa(status): {Description: http.StatusText(status), Schema: &success},
			"500":                {Description: http.StatusText(http.StatusInternalServerError), Schema: errorRef},
		},
	}

	if rt.Request != nil {
		body := schemaOf(reflect.TypeOf(rt.Request))
		op.Parameters = []Parameter{{Name: "body", In: "body", Required: true, Schema: &body}}
		op.Responses["400"] = Response{Description: http.StatusText(http.StatusBadRequest), Schema: errorRef}
	}

	return op
}

func baseDefinitions() map[string]Schema {
	return map[string]Schema{
		"SuccessResponse": schemaOf(reflect.TypeOf(response.Envelope{})),
		"ErrorResponse":   schemaOf(reflect.TypeOf(response.ErrorEnvelope{})),
	}
}

var timeType = reflect.TypeOf(time.Time{})

// schemaOf derives a schema from t using the json struct tags.
func schemaOf(t reflect.Type) Schema {
	if t == nil {
		return Schema{Type: "object"}
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t == timeType {
		return Schema{Type: "string", Format: "date-time"}
	}

	switch t.Kind() {
	case reflect.String:
		return Schema{Type: "string"}
	case reflect.Bool:
		return Schema{Type: "boolean"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Schema{Type: "integer"}
	case reflect.Float32, reflect.Float64:
		return Schema{Type: "number"}
	case reflect.Slice, reflect.Array:
		items := schemaOf(t.Elem())
		return Schema{Type: "array", Items: &items}
	case reflect.Struct:
		props := make(map[string]Schema)
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				continue
			}
			if name == "" {
				name = f.Name
			}
			props[name] = schemaOf(f.Type)
		}
		return Schema{Type: "object", Properties: props}
	default:
		return Schema{Type: "object"}
	}
}
