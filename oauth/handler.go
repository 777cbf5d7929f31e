package oauth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// IdentityResponder writes the response for a completed login.
type IdentityResponder interface {
	RespondIdentity(w http.ResponseWriter, r *http.Request, id *Identity)
}

// IdentityResponderFunc adapts a function to IdentityResponder.
type IdentityResponderFunc func(w http.ResponseWriter, r *http.Request, id *Identity)

// RespondIdentity implements IdentityResponder.
func (f IdentityResponderFunc) RespondIdentity(w http.ResponseWriter, r *http.Request, id *Identity) {
	f(w, r, id)
}

// JSONIdentity writes the identity itself as the JSON body.
var JSONIdentity = IdentityResponderFunc(func(w http.ResponseWriter, _ *http.Request, id *Identity) {
	WriteJSON(w, http.StatusOK, id)
})

// Handler serves GET /oauth/{provider} for one flow: the entry redirect and
// the provider callback share the same URL.
type Handler struct {
	flow         *Flow
	callbackBase string
	responder    IdentityResponder
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithCallbackBase fixes the base URL callbacks are built from. Without it
// the base is derived from the request.
func WithCallbackBase(base string) HandlerOption {
	return func(h *Handler) {
		h.callbackBase = strings.TrimRight(base, "/")
	}
}

// WithIdentityResponder replaces JSONIdentity.
func WithIdentityResponder(ir IdentityResponder) HandlerOption {
	return func(h *Handler) {
		if ir != nil {
			h.responder = ir
		}
	}
}

// NewHandler creates a handler for flow.
func NewHandler(flow *Flow, opts ...HandlerOption) *Handler {
	h := &Handler{
		flow:      flow,
		responder: JSONIdentity,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	code, state := q.Get("code"), q.Get("state")

	if code == "" || state == "" {
		h.begin(w, r)
		return
	}

	res, err := h.flow.CompleteLogin(r.Context(), CallbackRequest{
		Code:      code,
		State:     state,
		UserAgent: r.UserAgent(),
	})
	switch {
	case err != nil:
		WriteError(w, err)
	case res.Restart:
		h.begin(w, r)
	case res.Forward != "":
		http.Redirect(w, r, res.Forward, http.StatusFound)
	default:
		h.responder.RespondIdentity(w, r, res.Identity)
	}
}

func (h *Handler) begin(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	authURL, err := h.flow.BeginLogin(r.Context(), BeginRequest{
		CallbackBase: h.base(r),
		Redirect:     q.Get("redirect"),
		State:        q.Get("state"),
	})
	if err != nil {
		WriteError(w, err)
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

// base derives scheme://host/prefix from the request, where prefix is the
// path minus the trailing provider segment.
func (h *Handler) base(r *http.Request) string {
	if h.callbackBase != "" {
		return h.callbackBase
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
	}

	host := r.Host
	if fwd := r.Header.Get("X-Forwarded-Host"); fwd != "" {
		host = strings.TrimSpace(strings.Split(fwd, ",")[0])
	}

	path := strings.TrimSuffix(r.URL.Path, "/")
	path = strings.TrimSuffix(path, "/"+h.flow.provider.Name())
	return scheme + "://" + host + path
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// WriteError writes err as {"error": ..., "code"?: ...} with the status its
// kind maps to. Errors that are not *Error become a bare 500.
func WriteError(w http.ResponseWriter, err error) {
	var oe *Error
	if !errors.As(err, &oe) {
		WriteJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal Server Error"})
		return
	}
	WriteJSON(w, oe.HTTPStatus(), errorBody{Error: oe.PublicMessage(), Code: oe.Code})
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
