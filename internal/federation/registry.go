package federation

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"

	"github.com/rtCamp/onesearch/internal/scope"
	"github.com/rtCamp/onesearch/internal/store"
)

const (
	scopesKey      = "scopes"
	credentialsKey = "credentials"
)

func scopeKey(key scope.Key) string { return "scope:" + string(key) }

// brandEntry is the per-scope state the governing site persists.
type brandEntry struct {
	Secret      string      `json:"secret"`
	URL         string      `json:"url"`
	SearchScope SearchScope `json:"search_scope"`
	EntityMap   []string    `json:"entity_map"`
}

// Brand identifies one registered brand site for fan-out calls.
type Brand struct {
	Scope  scope.Key
	URL    string
	Secret string
}

// Registry is the governing site's view of all participating scopes,
// persisted through a ConfigStore so it survives restarts.
type Registry struct {
	Store store.ConfigStore
	Self  scope.Key
}

// NewRegistry builds a Registry for the governing scope.
func NewRegistry(st store.ConfigStore, self scope.Key) *Registry {
	return &Registry{Store: st, Self: self}
}

// Register adds or refreshes a brand scope and its shared secret.
func (r *Registry) Register(ctx context.Context, key scope.Key, url, secret string) error {
	entry, _ := r.entry(ctx, key)
	entry.Secret = secret
	entry.URL = url
	if err := r.putEntry(ctx, key, entry); err != nil {
		return err
	}

	keys, err := r.scopeList(ctx)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if k == key {
			return nil
		}
	}
	return r.putScopeList(ctx, append(keys, key))
}

// Brands lists every registered brand site.
func (r *Registry) Brands(ctx context.Context) ([]Brand, error) {
	keys, err := r.scopeList(ctx)
	if err != nil {
		return nil, err
	}
	brands := make([]Brand, 0, len(keys))
	for _, key := range keys {
		entry, err := r.entry(ctx, key)
		if err != nil {
			return nil, err
		}
		url := entry.URL
		if url == "" {
			url = string(key)
		}
		brands = append(brands, Brand{Scope: key, URL: url, Secret: entry.Secret})
	}
	return brands, nil
}

// AvailableScopes lists every scope participating in the federation,
// governing scope included.
func (r *Registry) AvailableScopes(ctx context.Context) ([]scope.Key, error) {
	keys, err := r.scopeList(ctx)
	if err != nil {
		return nil, err
	}
	return append([]scope.Key{r.Self}, keys...), nil
}

// VerifySecret checks a brand's shared secret in constant time.
func (r *Registry) VerifySecret(ctx context.Context, key scope.Key, secret string) bool {
	entry, err := r.entry(ctx, key)
	if err != nil || entry.Secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(entry.Secret), []byte(secret)) == 1
}

// SearchScopeFor returns the stored visibility configuration for a scope.
func (r *Registry) SearchScopeFor(ctx context.Context, key scope.Key) (SearchScope, error) {
	entry, err := r.entry(ctx, key)
	if err != nil {
		return SearchScope{}, err
	}
	return entry.SearchScope, nil
}

// SetSearchScope replaces a scope's visibility configuration.
func (r *Registry) SetSearchScope(ctx context.Context, key scope.Key, s SearchScope) error {
	entry, err := r.entry(ctx, key)
	if err != nil {
		return err
	}
	entry.SearchScope = s
	return r.putEntry(ctx, key, entry)
}

// EntityMapFor returns the content types indexable for a scope.
func (r *Registry) EntityMapFor(ctx context.Context, key scope.Key) ([]string, error) {
	entry, err := r.entry(ctx, key)
	if err != nil {
		return nil, err
	}
	return entry.EntityMap, nil
}

// SetEntityMap replaces a scope's indexable content types.
func (r *Registry) SetEntityMap(ctx context.Context, key scope.Key, types []string) error {
	entry, err := r.entry(ctx, key)
	if err != nil {
		return err
	}
	entry.EntityMap = types
	return r.putEntry(ctx, key, entry)
}

// Credentials returns the stored backend credentials.
func (r *Registry) Credentials(ctx context.Context) (Credentials, error) {
	raw, ok, err := r.Store.Get(ctx, credentialsKey)
	if err != nil {
		return Credentials{}, err
	}
	if !ok {
		return Credentials{}, nil
	}
	var creds Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return Credentials{}, fmt.Errorf("decode credentials: %w", err)
	}
	return creds, nil
}

// SetCredentials stores the backend credentials.
func (r *Registry) SetCredentials(ctx context.Context, creds Credentials) error {
	raw, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	return r.Store.Set(ctx, credentialsKey, raw, 0)
}

// BrandConfigFor assembles the full materialized config for one brand scope
// in a single response: search-side credentials, visibility scope, entity
// map and the available scope listing. The admin-side key never leaves the
// governing site.
func (r *Registry) BrandConfigFor(ctx context.Context, key scope.Key) (BrandConfig, error) {
	creds, err := r.Credentials(ctx)
	if err != nil {
		return BrandConfig{}, err
	}
	creds.AdminKey = ""

	searchScope, err := r.SearchScopeFor(ctx, key)
	if err != nil {
		return BrandConfig{}, err
	}
	entityMap, err := r.EntityMapFor(ctx, key)
	if err != nil {
		return BrandConfig{}, err
	}
	available, err := r.AvailableScopes(ctx)
	if err != nil {
		return BrandConfig{}, err
	}
	return BrandConfig{
		Credentials:     creds,
		SearchScope:     searchScope,
		IndexableTypes:  entityMap,
		AvailableScopes: available,
	}, nil
}

func (r *Registry) entry(ctx context.Context, key scope.Key) (brandEntry, error) {
	raw, ok, err := r.Store.Get(ctx, scopeKey(key))
	if err != nil {
		return brandEntry{}, err
	}
	if !ok {
		return brandEntry{}, nil
	}
	var entry brandEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return brandEntry{}, fmt.Errorf("decode scope entry %s: %w", key, err)
	}
	return entry, nil
}

func (r *Registry) putEntry(ctx context.Context, key scope.Key, entry brandEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return r.Store.Set(ctx, scopeKey(key), raw, 0)
}

func (r *Registry) scopeList(ctx context.Context) ([]scope.Key, error) {
	raw, ok, err := r.Store.Get(ctx, scopesKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var keys []scope.Key
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, fmt.Errorf("decode scope list: %w", err)
	}
	return keys, nil
}

func (r *Registry) putScopeList(ctx context.Context, keys []scope.Key) error {
	raw, err := json.Marshal(keys)
	if err != nil {
		return err
	}
	return r.Store.Set(ctx, scopesKey, raw, 0)
}
