package chi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ServerInterface is the set of handlers the research API routes to.
type ServerInterface interface {
	// POST /research
	CreateResearch(w http.ResponseWriter, r *http.Request)
	// POST /research/batch
	BatchResearch(w http.ResponseWriter, r *http.Request)
	// GET /research
	ListResearch(w http.ResponseWriter, r *http.Request, params ListResearchParams)
	// GET /research/{researchId}
	GetResearch(w http.ResponseWriter, r *http.Request, researchID ResearchID)
	// DELETE /research/{researchId}
	DeleteResearch(w http.ResponseWriter, r *http.Request, researchID ResearchID)
	// POST /research/{researchId}/clustering
	RequestClustering(w http.ResponseWriter, r *http.Request, researchID ResearchID)
	// GET /research/{researchId}/clustering
	GetClusteringStatus(w http.ResponseWriter, r *http.Request, researchID ResearchID)
	// POST /research/{researchId}/personas
	SavePersona(w http.ResponseWriter, r *http.Request, researchID ResearchID)
	// GET /usage
	GetUsage(w http.ResponseWriter, r *http.Request, params GetUsageParams)
	// GET /health
	HealthCheck(w http.ResponseWriter, r *http.Request)
	// GET /metrics
	Metrics(w http.ResponseWriter, r *http.Request)
}

// MiddlewareFunc wraps a single route handler.
type MiddlewareFunc func(http.Handler) http.Handler

// InvalidParamFormatError reports a parameter that failed to bind.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

// ServerInterfaceWrapper binds path and query parameters before calling the handler.
type ServerInterfaceWrapper struct {
	Handler            ServerInterface
	HandlerMiddlewares []MiddlewareFunc
	ErrorHandlerFunc   func(w http.ResponseWriter, r *http.Request, err error)
}

func (siw *ServerInterfaceWrapper) serve(w http.ResponseWriter, r *http.Request, h http.Handler) {
	for _, middleware := range siw.HandlerMiddlewares {
		h = middleware(h)
	}
	h.ServeHTTP(w, r)
}

func (siw *ServerInterfaceWrapper) researchID(w http.ResponseWriter, r *http.Request) (ResearchID, bool) {
	var id ResearchID
	err := runtime.BindStyledParameterWithOptions("simple", "researchId", chi.URLParam(r, "researchId"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "researchId", Err: err})
		return "", false
	}
	return id, true
}

// CreateResearch operation middleware.
func (siw *ServerInterfaceWrapper) CreateResearch(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, http.HandlerFunc(siw.Handler.CreateResearch))
}

// BatchResearch operation middleware.
func (siw *ServerInterfaceWrapper) BatchResearch(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, http.HandlerFunc(siw.Handler.BatchResearch))
}

// ListResearch operation middleware.
func (siw *ServerInterfaceWrapper) ListResearch(w http.ResponseWriter, r *http.Request) {
	var params ListResearchParams

	if err := runtime.BindQueryParameter("form", true, false, "cursor", r.URL.Query(), &params.Cursor); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "cursor", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &params.Limit); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "limit", Err: err})
		return
	}

	siw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.ListResearch(w, r, params)
	}))
}

// GetResearch operation middleware.
func (siw *ServerInterfaceWrapper) GetResearch(w http.ResponseWriter, r *http.Request) {
	id, ok := siw.researchID(w, r)
	if !ok {
		return
	}
	siw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetResearch(w, r, id)
	}))
}

// DeleteResearch operation middleware.
func (siw *ServerInterfaceWrapper) DeleteResearch(w http.ResponseWriter, r *http.Request) {
	id, ok := siw.researchID(w, r)
	if !ok {
		return
	}
	siw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.DeleteResearch(w, r, id)
	}))
}

// RequestClustering operation middleware.
func (siw *ServerInterfaceWrapper) RequestClustering(w http.ResponseWriter, r *http.Request) {
	id, ok := siw.researchID(w, r)
	if !ok {
		return
	}
	siw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.RequestClustering(w, r, id)
	}))
}

// GetClusteringStatus operation middleware.
func (siw *ServerInterfaceWrapper) GetClusteringStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := siw.researchID(w, r)
	if !ok {
		return
	}
	siw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetClusteringStatus(w, r, id)
	}))
}

// SavePersona operation middleware.
func (siw *ServerInterfaceWrapper) SavePersona(w http.ResponseWriter, r *http.Request) {
	id, ok := siw.researchID(w, r)
	if !ok {
		return
	}
	siw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.SavePersona(w, r, id)
	}))
}

// GetUsage operation middleware.
func (siw *ServerInterfaceWrapper) GetUsage(w http.ResponseWriter, r *http.Request) {
	var params GetUsageParams

	if err := runtime.BindQueryParameter("form", true, false, "period", r.URL.Query(), &params.Period); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "period", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "resource", r.URL.Query(), &params.Resource); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "resource", Err: err})
		return
	}

	siw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetUsage(w, r, params)
	}))
}

// HealthCheck operation middleware.
func (siw *ServerInterfaceWrapper) HealthCheck(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, http.HandlerFunc(siw.Handler.HealthCheck))
}

// Metrics operation middleware.
func (siw *ServerInterfaceWrapper) Metrics(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, http.HandlerFunc(siw.Handler.Metrics))
}

// ChiServerOptions configures HandlerWithOptions.
type ChiServerOptions struct {
	BaseURL          string
	BaseRouter       chi.Router
	Middlewares      []MiddlewareFunc
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// Handler mounts si on a fresh chi router.
func Handler(si ServerInterface) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{})
}

// HandlerWithOptions mounts si on options.BaseRouter (a fresh router when nil).
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			WriteError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, err.Error())
		}
	}
	wrapper := ServerInterfaceWrapper{
		Handler:            si,
		HandlerMiddlewares: options.Middlewares,
		ErrorHandlerFunc:   options.ErrorHandlerFunc,
	}

	base := options.BaseURL
	r.Group(func(r chi.Router) {
		r.Post(base+"/research", wrapper.CreateResearch)
		r.Post(base+"/research/batch", wrapper.BatchResearch)
		r.Get(base+"/research", wrapper.ListResearch)
		r.Get(base+"/research/{researchId}", wrapper.GetResearch)
		r.Delete(base+"/research/{researchId}", wrapper.DeleteResearch)
		r.Post(base+"/research/{researchId}/clustering", wrapper.RequestClustering)
		r.Get(base+"/research/{researchId}/clustering", wrapper.GetClusteringStatus)
		r.Post(base+"/research/{researchId}/personas", wrapper.SavePersona)
		r.Get(base+"/usage", wrapper.GetUsage)
		r.Get(base+"/health", wrapper.HealthCheck)
		r.Get(base+"/metrics", wrapper.Metrics)
	})
	return r
}
