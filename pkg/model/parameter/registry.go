package parameter

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/gohornet/agora/pkg/model/storage"
	"github.com/gohornet/agora/pkg/utils"
	"github.com/iotaledger/hive.go/kvstore"
	"github.com/iotaledger/hive.go/logger"
	"github.com/iotaledger/hive.go/syncutils"
)

var (
	// ErrParameterNotFound is returned if a parameter is not part of the registry.
	ErrParameterNotFound = errors.New("parameter not found")
	// ErrInvalidValue is returned if a value is not one of the allowed options of a parameter.
	ErrInvalidValue = errors.New("value is not an allowed option")
	// ErrParameterExists is returned if a parameter is registered twice.
	ErrParameterExists = errors.New("parameter already exists")
	// ErrInvalidParameter is returned if a parameter definition is incomplete.
	ErrInvalidParameter = errors.New("invalid parameter definition")
)

// Snapshot is the persisted form of the registry: category -> name -> current value.
type Snapshot map[string]map[string]string

// Options define options for the Registry.
type Options struct {
	logger  *logger.Logger
	catalog []*Parameter
}

// Option is a function setting a Registry option.
type Option func(opts *Options)

// applies the given Option.
func (o *Options) apply(opts ...Option) {
	for _, opt := range opts {
		opt(o)
	}
}

var defaultOptions = []Option{
	WithLogger(nil),
	WithCatalog(DefaultCatalog()),
}

// WithLogger enables logging within the registry.
func WithLogger(logger *logger.Logger) Option {
	return func(opts *Options) {
		opts.logger = logger
	}
}

// WithCatalog sets the parameter definitions the registry boots with.
func WithCatalog(catalog []*Parameter) Option {
	return func(opts *Options) {
		opts.catalog = catalog
	}
}

// Registry holds all governed parameters.
// Options and descriptions come from the catalog; only current values are persisted.
type Registry struct {
	syncutils.RWMutex
	*utils.WrappedLogger

	slot *storage.Slot

	categories map[string]map[string]*Parameter
	// categories in registration order
	categoryOrder []string

	// persisted values of parameters registered after boot.
	restored Snapshot

	// mappers are keyed by parameter name.
	mappers      map[string]Mapper
	displayNames map[string]string
}

// NewRegistry creates a registry from the catalog and overlays the persisted current values.
func NewRegistry(store kvstore.KVStore, opts ...Option) (*Registry, error) {
	options := &Options{}
	options.apply(defaultOptions...)
	options.apply(opts...)

	r := &Registry{
		WrappedLogger: utils.NewWrappedLogger(options.logger),
		slot:          storage.NewSlot(store, storage.StorePrefixParameters, "snapshot"),
		categories:    make(map[string]map[string]*Parameter),
		restored:      make(Snapshot),
		mappers:       make(map[string]Mapper),
		displayNames:  make(map[string]string),
	}

	for _, p := range options.catalog {
		if err := r.register(p.clone()); err != nil {
			return nil, err
		}
	}

	r.load()

	return r, nil
}

func (r *Registry) load() {
	snapshot := make(Snapshot)
	found, err := r.slot.Load(&snapshot)
	if err != nil {
		r.LogWarnf("unable to load parameters, using defaults: %s", err)
		return
	}
	if !found {
		return
	}

	for category, params := range snapshot {
		for name, current := range params {
			p, exists := r.categories[category][name]
			if !exists {
				if r.restored[category] == nil {
					r.restored[category] = make(map[string]string)
				}
				r.restored[category][name] = current
				continue
			}
			if !p.HasOption(current) {
				r.LogWarnf("ignoring persisted value %q for %s: not an allowed option", current, p.Key())
				continue
			}
			p.Current = current
		}
	}
}

// Register adds a new governed parameter.
func (r *Registry) Register(p *Parameter) error {
	r.Lock()
	defer r.Unlock()

	return r.register(p.clone())
}

func (r *Registry) register(p *Parameter) error {
	if p.Category == "" || p.Name == "" || len(p.Options) == 0 {
		return errors.Wrapf(ErrInvalidParameter, "%s", p.Key())
	}
	if p.Current == "" {
		p.Current = p.Options[0]
	}
	if !p.HasOption(p.Current) {
		return errors.Wrapf(ErrInvalidValue, "%s: %s", p.Key(), p.Current)
	}

	params, exists := r.categories[p.Category]
	if !exists {
		params = make(map[string]*Parameter)
		r.categories[p.Category] = params
		r.categoryOrder = append(r.categoryOrder, p.Category)
	}
	if _, exists := params[p.Name]; exists {
		return errors.Wrapf(ErrParameterExists, "%s", p.Key())
	}
	params[p.Name] = p

	if current, exists := r.restored[p.Category][p.Name]; exists {
		delete(r.restored[p.Category], p.Name)
		if p.HasOption(current) {
			p.Current = current
		}
	}

	if p.DisplayName != "" {
		r.displayNames[p.Name] = p.DisplayName
	}
	if _, exists := r.mappers[p.Name]; !exists {
		r.mappers[p.Name] = chain(LabelMapper(p.Labels), OptionMapper(p.Options))
	}
	return nil
}

// Parameter returns a copy of the parameter.
func (r *Registry) Parameter(category string, name string) (*Parameter, error) {
	r.RLock()
	defer r.RUnlock()

	p, exists := r.categories[category][name]
	if !exists {
		return nil, errors.Wrapf(ErrParameterNotFound, "%s", Key(category, name))
	}
	return p.clone(), nil
}

// Has tells whether the registry contains the parameter.
func (r *Registry) Has(category string, name string) bool {
	r.RLock()
	defer r.RUnlock()

	_, exists := r.categories[category][name]
	return exists
}

// Current returns the current value of the parameter.
func (r *Registry) Current(category string, name string) (string, error) {
	r.RLock()
	defer r.RUnlock()

	p, exists := r.categories[category][name]
	if !exists {
		return "", errors.Wrapf(ErrParameterNotFound, "%s", Key(category, name))
	}
	return p.Current, nil
}

// CurrentOrDefault returns the current value of the parameter or def if it does not exist.
func (r *Registry) CurrentOrDefault(category string, name string, def string) string {
	value, err := r.Current(category, name)
	if err != nil {
		return def
	}
	return value
}

// SetCurrent changes the current value of a parameter and returns the previous one.
// The change is not persisted, see Persist.
func (r *Registry) SetCurrent(category string, name string, value string) (string, error) {
	r.Lock()
	defer r.Unlock()

	p, exists := r.categories[category][name]
	if !exists {
		return "", errors.Wrapf(ErrParameterNotFound, "%s", Key(category, name))
	}
	if !p.HasOption(value) {
		return "", errors.Wrapf(ErrInvalidValue, "%s: %s", p.Key(), value)
	}

	old := p.Current
	p.Current = value
	return old, nil
}

// Categories returns the category names in registration order.
func (r *Registry) Categories() []string {
	r.RLock()
	defer r.RUnlock()

	return append([]string(nil), r.categoryOrder...)
}

// Parameters returns copies of all parameters of a category, sorted by name.
func (r *Registry) Parameters(category string) []*Parameter {
	r.RLock()
	defer r.RUnlock()

	params := make([]*Parameter, 0, len(r.categories[category]))
	for _, p := range r.categories[category] {
		params = append(params, p.clone())
	}
	sort.Slice(params, func(i, j int) bool { return params[i].Name < params[j].Name })
	return params
}

// Snapshot returns the current values of all parameters.
func (r *Registry) Snapshot() Snapshot {
	r.RLock()
	defer r.RUnlock()

	snapshot := make(Snapshot, len(r.categories))
	for category, params := range r.categories {
		values := make(map[string]string, len(params))
		for name, p := range params {
			values[name] = p.Current
		}
		snapshot[category] = values
	}
	return snapshot
}

// Persist writes the current values to the store.
func (r *Registry) Persist() error {
	return r.PersistSnapshot(r.Snapshot())
}

// PersistSnapshot writes the given values to the store instead of the current ones.
// Persisted values of parameters that are not registered yet are kept.
func (r *Registry) PersistSnapshot(snapshot Snapshot) error {
	r.RLock()
	for category, values := range r.restored {
		for name, value := range values {
			if _, exists := snapshot[category][name]; exists {
				continue
			}
			if snapshot[category] == nil {
				snapshot[category] = make(map[string]string)
			}
			snapshot[category][name] = value
		}
	}
	r.RUnlock()

	return r.slot.Store(snapshot)
}

// Merge overlays the current values of a snapshot.
// Unknown parameters and values that are not allowed options are skipped.
// It returns the keys of the parameters that changed.
func (r *Registry) Merge(snapshot Snapshot) []string {
	r.Lock()
	defer r.Unlock()

	var changed []string
	for category, values := range snapshot {
		for name, value := range values {
			p, exists := r.categories[category][name]
			if !exists || p.Current == value {
				continue
			}
			if !p.HasOption(value) {
				r.LogWarnf("skipping merge of %s: %q is not an allowed option", p.Key(), value)
				continue
			}
			p.Current = value
			changed = append(changed, p.Key())
		}
	}
	sort.Strings(changed)
	return changed
}

// RegisterMapper sets the label mapper of a parameter name.
// The previous mapper is used for labels the new one does not know.
func (r *Registry) RegisterMapper(name string, mapper Mapper) {
	r.Lock()
	defer r.Unlock()

	r.mappers[name] = chain(mapper, r.mappers[name])
}

// RegisterLabels adds a label table to a parameter name.
func (r *Registry) RegisterLabels(name string, labels map[string]string) {
	r.RegisterMapper(name, LabelMapper(labels))
}

// RegisterDisplayName sets the display name of a parameter.
func (r *Registry) RegisterDisplayName(name string, displayName string) {
	r.Lock()
	defer r.Unlock()

	r.displayNames[name] = displayName
}

// ValueFromLabel maps an option label to the parameter value.
// Labels no mapper knows are passed through unchanged.
func (r *Registry) ValueFromLabel(name string, label string) string {
	r.RLock()
	mapper, exists := r.mappers[name]
	r.RUnlock()

	if exists {
		if value, ok := mapper(label); ok {
			return value
		}
	}
	return label
}

// DisplayName returns the human readable name of a parameter, falling back to the name itself.
func (r *Registry) DisplayName(name string) string {
	r.RLock()
	defer r.RUnlock()

	if displayName, exists := r.displayNames[name]; exists {
		return displayName
	}
	return name
}

// OptionLabels returns the display labels for the options of a parameter, in option order.
func (r *Registry) OptionLabels(category string, name string) ([]string, error) {
	p, err := r.Parameter(category, name)
	if err != nil {
		return nil, err
	}

	labels := make([]string, len(p.Options))
	for i, option := range p.Options {
		title := TitleLabel(option)
		if value, exists := p.Labels[title]; exists && value == option {
			labels[i] = title
			continue
		}

		// otherwise take the first label in lexical order that maps to the option
		candidates := make([]string, 0, 1)
		for label, value := range p.Labels {
			if value == option {
				candidates = append(candidates, label)
			}
		}
		if len(candidates) == 0 {
			labels[i] = title
			continue
		}
		sort.Strings(candidates)
		labels[i] = candidates[0]
	}
	return labels, nil
}
