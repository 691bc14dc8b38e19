// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*
Package registry manages the configured upstream services and hands out
authenticated clients for them.

Services are identified by a stable slug. The registry caches one client
per slug; any mutation of a service through the store evicts the cached
client before the mutation becomes visible to new readers.
*/
package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/openbeheer/bff/core/upstream"
)

// Kind tags the family an upstream service belongs to.
type Kind string

// all supported service kinds
const (
	KindRecordTypes   Kind = "record-types"
	KindSelectionList Kind = "selection-list"
	KindObjectTypes   Kind = "object-types"
)

// ErrNotConfigured is returned when no service matches the requested
// slug or kind.
var ErrNotConfigured = errors.New("registry: service not configured")

// Service is the configuration of one upstream service.
type Service struct {
	Slug     string            `json:"slug"`
	Label    string            `json:"label"`
	Kind     Kind              `json:"kind"`
	APIRoot  string            `json:"api_root"`
	OASURL   string            `json:"oas_url,omitempty"`
	AuthType upstream.AuthType `json:"auth_type"`
	Header   string            `json:"header,omitempty"`
	APIKey   string            `json:"api_key,omitempty"`
	ClientID string            `json:"client_id,omitempty"`
	Secret   string            `json:"secret,omitempty"`
}

// Store is the service-configuration store the registry consumes.
// Mutable implementations must call every subscribed hook with the
// affected slug after the mutation is visible to readers and before
// the create, update or delete returns.
type Store interface {
	Get(ctx context.Context, slug string) (Service, error)
	List(ctx context.Context) ([]Service, error)
	Subscribe(hook func(slug string))
}

// Registry is the cached client factory over a service store.
type Registry struct {
	store   Store
	clients clientCache
}

// New creates a registry over the given store and subscribes for
// change-driven eviction.
func New(store Store) *Registry {
	r := &Registry{
		store:   store,
		clients: newClientCache(),
	}
	store.Subscribe(r.Evict)
	return r
}

// Service looks up a service by slug. An empty slug selects the first
// service of the required kind.
func (r *Registry) Service(ctx context.Context, slug string, kind Kind) (Service, error) {
	if slug == "" {
		services, err := r.store.List(ctx)
		if err != nil {
			return Service{}, err
		}
		for _, service := range services {
			if service.Kind == kind {
				return service, nil
			}
		}
		return Service{}, fmt.Errorf("no %s service: %w", kind, ErrNotConfigured)
	}
	service, err := r.store.Get(ctx, slug)
	if err != nil {
		return Service{}, err
	}
	if kind != "" && service.Kind != kind {
		return Service{}, fmt.Errorf("service %s is not of kind %s: %w", slug, kind, ErrNotConfigured)
	}
	return service, nil
}

// Services lists all configured services.
func (r *Registry) Services(ctx context.Context) ([]Service, error) {
	return r.store.List(ctx)
}

// Client returns the cached upstream client for a slug, building one on
// first use. An empty slug selects the first service of the required kind.
func (r *Registry) Client(ctx context.Context, slug string, kind Kind) (*upstream.Client, error) {
	// the first lookup only resolves the slug; the cache re-reads the
	// configuration inside the build, after capturing the slug's
	// eviction generation
	resolved, err := r.Service(ctx, slug, kind)
	if err != nil {
		return nil, err
	}
	return r.clients.get(resolved.Slug, func() (*upstream.Client, error) {
		service, err := r.Service(ctx, resolved.Slug, kind)
		if err != nil {
			return nil, err
		}
		return upstream.New(upstream.Config{
			Slug:      service.Slug,
			APIRoot:   service.APIRoot,
			OASURL:    service.OASURL,
			AuthType:  service.AuthType,
			Header:    service.Header,
			APIKey:    service.APIKey,
			ClientID:  service.ClientID,
			Secret:    service.Secret,
			AcceptCrs: service.Kind == KindRecordTypes,
		})
	})
}

// Evict drops the cached client for a slug. Readers already holding the
// old client finish safely; the next Client call builds a fresh one.
func (r *Registry) Evict(slug string) {
	r.clients.evict(slug)
}
