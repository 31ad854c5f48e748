// Package credentials stores the per-provider API keys used by the
// generation gateway. Values are never logged; callers that need to show
// anything to a user should use Status.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Kind identifies which gateway call a credential authorizes.
type Kind string

const (
	KindTitle Kind = "title"
	KindBody  Kind = "body"
	KindImage Kind = "image"
)

// Kinds lists every kind in workflow order.
var Kinds = []Kind{KindTitle, KindBody, KindImage}

var ErrUnknownKind = errors.New("unknown credential kind")

func ParseKind(raw string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(raw)))
	switch k {
	case KindTitle, KindBody, KindImage:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, raw)
}

// Provider reads and writes credentials. Get returns ok=false when the
// credential is absent; err is reserved for storage failures.
type Provider interface {
	Get(ctx context.Context, kind Kind) (string, bool, error)
	Set(ctx context.Context, kind Kind, value string) error
}

// Status reports which kinds have a credential, without the values.
func Status(ctx context.Context, p Provider) (map[Kind]bool, error) {
	out := make(map[Kind]bool, len(Kinds))
	for _, k := range Kinds {
		_, ok, err := p.Get(ctx, k)
		if err != nil {
			return nil, err
		}
		out[k] = ok
	}
	return out, nil
}

// MemoryStore keeps credentials for the lifetime of the process.
type MemoryStore struct {
	mu     sync.Mutex
	values map[Kind]string
}

func NewMemoryStore(seed map[Kind]string) *MemoryStore {
	s := &MemoryStore{values: make(map[Kind]string, len(seed))}
	for k, v := range seed {
		if v = strings.TrimSpace(v); v != "" {
			s.values[k] = v
		}
	}
	return s
}

func (s *MemoryStore) Get(_ context.Context, kind Kind) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[kind]
	return v, ok, nil
}

// Set stores value for kind; an empty value clears it.
func (s *MemoryStore) Set(_ context.Context, kind Kind, value string) error {
	if _, err := ParseKind(string(kind)); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if value = strings.TrimSpace(value); value == "" {
		delete(s.values, kind)
		return nil
	}
	s.values[kind] = value
	return nil
}

// Chain consults providers in order; the first hit wins. Set writes to the
// first provider.
type Chain []Provider

func (c Chain) Get(ctx context.Context, kind Kind) (string, bool, error) {
	for _, p := range c {
		v, ok, err := p.Get(ctx, kind)
		if err != nil {
			return "", false, err
		}
		if ok {
			return v, true, nil
		}
	}
	return "", false, nil
}

func (c Chain) Set(ctx context.Context, kind Kind, value string) error {
	if len(c) == 0 {
		return errors.New("credentials: empty chain")
	}
	return c[0].Set(ctx, kind, value)
}
