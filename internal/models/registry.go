package models

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/cloudwego/eino/components/model"

	"github.com/dohr-michael/pairvox/internal/config"
)

// Registry maps provider names from config to chat models. A model is
// built the first time it is asked for; a build error is sticky.
type Registry struct {
	defaultName string
	providers   map[string]*lazyModel

	// create builds a model; tests swap it out.
	create func(context.Context, config.ProviderConfig) (model.BaseChatModel, error)
}

type lazyModel struct {
	cfg   config.ProviderConfig
	once  sync.Once
	model model.BaseChatModel
	err   error
}

func NewRegistry(cfg config.ModelsConfig) *Registry {
	r := &Registry{
		defaultName: cfg.Default,
		providers:   make(map[string]*lazyModel, len(cfg.Providers)),
		create:      CreateModel,
	}
	for name, pc := range cfg.Providers {
		r.providers[name] = &lazyModel{cfg: pc}
	}
	return r
}

// Get returns the named model. ctx is only used by the call that builds it.
func (r *Registry) Get(ctx context.Context, name string) (model.BaseChatModel, error) {
	lm, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("model provider %q not found", name)
	}
	lm.once.Do(func() {
		lm.model, lm.err = r.create(ctx, lm.cfg)
		if lm.err != nil {
			lm.err = fmt.Errorf("model provider %q: %w", name, lm.err)
		}
	})
	return lm.model, lm.err
}

// Resolve is Get with an empty name meaning the configured default. The
// resolved name is returned alongside the model.
func (r *Registry) Resolve(ctx context.Context, name string) (model.BaseChatModel, string, error) {
	if name == "" {
		name = r.defaultName
	}
	if name == "" {
		return nil, "", errors.New("no default model configured")
	}
	m, err := r.Get(ctx, name)
	return m, name, err
}

func (r *Registry) DefaultName() string { return r.defaultName }

// Names lists the configured providers in sorted order.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.providers))
}
