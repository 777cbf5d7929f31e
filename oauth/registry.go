package oauth

import (
	"net/http"
	"sort"
)

// Registry holds a Flow for every configured provider.
type Registry struct {
	flows map[string]*Flow
	opts  []FlowOption
}

// NewRegistry creates a registry from cfg, registering only providers whose
// credentials are complete. opts apply to every flow after the defaults
// derived from cfg.
func NewRegistry(cfg Config, opts ...FlowOption) *Registry {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	ua := cfg.ServerUserAgent
	if ua == "" {
		ua = DefaultServerUserAgent
	}

	base := []FlowOption{
		WithHTTPClient(&http.Client{Timeout: timeout}),
		WithServerUserAgent(ua),
	}
	r := NewEmptyRegistry(append(base, opts...)...)
	for _, p := range cfg.Providers() {
		r.Register(p)
	}
	return r
}

// NewEmptyRegistry returns a registry with no providers.
func NewEmptyRegistry(opts ...FlowOption) *Registry {
	return &Registry{
		flows: make(map[string]*Flow),
		opts:  opts,
	}
}

// Register adds p unless its Check fails. It reports whether p was added.
func (r *Registry) Register(p Provider) bool {
	f := NewFlow(p, r.opts...)
	if !p.Check() {
		f.logger.Debug("oauth provider disabled, credentials missing")
		return false
	}
	r.flows[p.Name()] = f
	f.logger.Info("oauth provider enabled", "origin", p.Info().Origin)
	return true
}

// Names lists registered providers in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.flows))
	for name := range r.flows {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Infos maps each registered provider to its Info.
func (r *Registry) Infos() map[string]Info {
	infos := make(map[string]Info, len(r.flows))
	for name, f := range r.flows {
		infos[name] = f.provider.Info()
	}
	return infos
}

// Flow returns the flow for name, or a KindConfigMissing error.
func (r *Registry) Flow(name string) (*Flow, error) {
	f, ok := r.flows[name]
	if !ok {
		return nil, &Error{Kind: KindConfigMissing, Provider: name, Message: "OAuth provider not found"}
	}
	return f, nil
}
