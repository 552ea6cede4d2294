package gateway

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sync/atomic"
)

// Pool balances requests across a fixed set of upstream replicas with a
// round-robin counter. Membership is fixed at startup; there is no health
// eviction, failed upstreams surface as 502s to the caller.
type Pool struct {
	name     string
	backends []*httputil.ReverseProxy
	urls     []*url.URL
	next     atomic.Uint64
}

// NewPool parses the upstream URLs and builds one reverse proxy per replica.
func NewPool(name string, rawURLs []string) (*Pool, error) {
	if len(rawURLs) == 0 {
		return nil, fmt.Errorf("pool %s: no upstreams configured", name)
	}
	p := &Pool{name: name}
	for _, raw := range rawURLs {
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("pool %s: parse upstream %q: %w", name, raw, err)
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("pool %s: upstream %q must be an absolute URL", name, raw)
		}
		p.urls = append(p.urls, u)
		p.backends = append(p.backends, httputil.NewSingleHostReverseProxy(u))
	}
	return p, nil
}

// Name returns the pool name for logging and metrics labels.
func (p *Pool) Name() string { return p.name }

// Size returns the number of replicas in the pool.
func (p *Pool) Size() int { return len(p.backends) }

// pick advances the round-robin counter and returns the selected replica.
func (p *Pool) pick() (*httputil.ReverseProxy, *url.URL) {
	idx := int((p.next.Add(1) - 1) % uint64(len(p.backends)))
	return p.backends[idx], p.urls[idx]
}

// ServeHTTP forwards the request to the next replica in rotation.
func (p *Pool) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	proxy, _ := p.pick()
	proxy.ServeHTTP(w, r)
}
