package vcs

import (
	"fmt"
	"strings"
)

const defaultBackendName = "hg"

var registry = map[string]Backend{
	"hg":  HgBackend{},
	"sl":  SaplingBackend{},
	"git": GitBackend{},
}

// Registry exposes the available backends. Intended for internal inspection/tests.
func Registry() map[string]Backend {
	return registry
}

func Select(name string) (Backend, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = defaultBackendName
	}
	if backend, ok := registry[key]; ok {
		return backend, nil
	}
	return nil, fmt.Errorf("unsupported vcs %q", name)
}
