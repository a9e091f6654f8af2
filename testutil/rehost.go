// Package testutil holds helpers shared by package tests.
package testutil

import (
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/mcarch/mcarch-editor/internal/httpclient"
)

// RehostDoer sends every request to a test server while keeping the path and
// query, so code with a hard coded upstream (the Mojang manifest) can be
// pointed at httptest.
type RehostDoer struct {
	target *url.URL
	next   httpclient.Doer

	mu    sync.Mutex
	hosts []string
}

func NewRehostDoer(serverURL string, next httpclient.Doer) (*RehostDoer, error) {
	if next == nil {
		return nil, fmt.Errorf("next doer is nil")
	}
	target, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("server url %q must include scheme and host", serverURL)
	}
	return &RehostDoer{target: target, next: next}, nil
}

func MustNewRehostDoer(serverURL string, next httpclient.Doer) *RehostDoer {
	doer, err := NewRehostDoer(serverURL, next)
	if err != nil {
		panic(err)
	}
	return doer
}

func (d *RehostDoer) Do(req *http.Request) (*http.Response, error) {
	d.mu.Lock()
	d.hosts = append(d.hosts, req.URL.Host)
	d.mu.Unlock()

	rehosted := req.Clone(req.Context())
	rehosted.URL.Scheme = d.target.Scheme
	rehosted.URL.Host = d.target.Host
	rehosted.Host = d.target.Host
	return d.next.Do(rehosted)
}

// Hosts lists the hosts the requests were originally addressed to.
func (d *RehostDoer) Hosts() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.hosts...)
}
