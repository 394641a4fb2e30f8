// Package routes describes the HTTP route table. The router mounts it
// and the API description at /api-docs is generated from it, so both
// always agree.
package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Route is one endpoint together with the metadata used for the API
// description.
type Route struct {
	Method      string
	Path        string
	Summary     string
	Description string

	// Request and Response are example values of the body types. They
	// only feed the API description and may be nil.
	Request  any
	Response any

	// Status is the status code of a successful response.
	Status int

	Handler http.HandlerFunc
}

// Module is a group of routes mounted under a common path, e.g. /users.
type Module struct {
	Path        string
	Tag         string
	Description string
	Routes      []Route
}

// Mount registers every route of every module on r.
func Mount(r chi.Router, modules ...Module) {
	for _, m := range modules {
		r.Route(m.Path, func(sub chi.Router) {
			for _, rt := range m.Routes {
				sub.Method(rt.Method, rt.Path, rt.Handler)
			}
		})
	}
}
