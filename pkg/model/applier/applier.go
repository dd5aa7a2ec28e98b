package applier

import (
	"time"

	"github.com/pkg/errors"

	"github.com/gohornet/agora/pkg/model/consensus"
	"github.com/gohornet/agora/pkg/model/history"
	"github.com/gohornet/agora/pkg/model/parameter"
	"github.com/gohornet/agora/pkg/model/poll"
	"github.com/gohornet/agora/pkg/utils"
	"github.com/iotaledger/hive.go/logger"
	"github.com/iotaledger/hive.go/syncutils"
)

const (
	DefaultPreviewDuration = 3 * time.Second
)

var (
	// ErrNotParameterPoll is returned if a poll does not govern a parameter.
	ErrNotParameterPoll = errors.New("poll does not govern a parameter")
)

// Hook applies the side effects of the current values of a category.
// Hooks are called with the applier locked and must not call back into it.
type Hook func(category string, values map[string]string)

// Options define options for the Applier.
type Options struct {
	logger          *logger.Logger
	clock           func() time.Time
	previewDuration time.Duration
}

// Option is a function setting an Applier option.
type Option func(opts *Options)

// applies the given Option.
func (o *Options) apply(opts ...Option) {
	for _, opt := range opts {
		opt(o)
	}
}

var defaultOptions = []Option{
	WithLogger(nil),
	WithClock(time.Now),
	WithPreviewDuration(DefaultPreviewDuration),
}

// WithLogger enables logging within the applier.
func WithLogger(logger *logger.Logger) Option {
	return func(opts *Options) {
		opts.logger = logger
	}
}

// WithClock sets the time source of the applier.
func WithClock(clock func() time.Time) Option {
	return func(opts *Options) {
		opts.clock = clock
	}
}

// WithPreviewDuration sets how long a preview stays applied.
func WithPreviewDuration(duration time.Duration) Option {
	return func(opts *Options) {
		opts.previewDuration = duration
	}
}

type activePreview struct {
	Preview
	timer *time.Timer
}

// Applier turns decided polls into parameter values.
// A poll is applied at most once. Previews are reversible and never mark a poll executed.
type Applier struct {
	// lock used to serialize commits and previews.
	syncutils.Mutex
	*utils.WrappedLogger

	registry *parameter.Registry
	polls    *poll.Store
	ledger   *history.Ledger

	clock           func() time.Time
	previewDuration time.Duration

	hooks   map[string][]Hook
	preview *activePreview

	Events *Events
}

// New creates an Applier.
func New(registry *parameter.Registry, polls *poll.Store, ledger *history.Ledger, opts ...Option) *Applier {
	options := &Options{}
	options.apply(defaultOptions...)
	options.apply(opts...)

	return &Applier{
		WrappedLogger:   utils.NewWrappedLogger(options.logger),
		registry:        registry,
		polls:           polls,
		ledger:          ledger,
		clock:           options.clock,
		previewDuration: options.previewDuration,
		hooks:           make(map[string][]Hook),
		Events:          newEvents(),
	}
}

// PreviewDuration returns how long a preview stays applied.
func (a *Applier) PreviewDuration() time.Duration {
	return a.previewDuration
}

// RegisterHook adds a side effect hook for a category.
func (a *Applier) RegisterHook(category string, hook Hook) {
	a.Lock()
	defer a.Unlock()

	a.hooks[category] = append(a.hooks[category], hook)
}

// runHooks calls the hooks of a category. The applier must be locked.
// It returns false if the category has no hooks.
func (a *Applier) runHooks(category string) (map[string]string, bool) {
	values := a.registry.Snapshot()[category]
	hooks := a.hooks[category]
	for _, hook := range hooks {
		hook(category, values)
	}
	return values, len(hooks) > 0
}

// TargetValue returns the parameter value the leading option of a result stands for.
func (a *Applier) TargetValue(p *poll.Poll, result *consensus.Result) (string, bool) {
	if !p.IsParameterPoll || !result.HasLeader() {
		return "", false
	}
	return a.registry.ValueFromLabel(p.ParameterName, result.LeadingOption), true
}

// Apply commits the leading option of a result to the parameter governed by the poll.
// It returns false without error if there was nothing to do: the poll was executed already,
// there is no single leader, the value is already current, or the parameter is unknown.
func (a *Applier) Apply(p *poll.Poll, result *consensus.Result) (bool, error) {
	if !p.IsParameterPoll {
		return false, errors.Wrapf(ErrNotParameterPoll, "poll %s", p.ID)
	}

	value, ok := a.TargetValue(p, result)
	if !ok {
		return false, nil
	}

	a.Lock()

	// the passed poll may be stale, the store knows whether it was executed meanwhile
	stored, err := a.polls.Poll(p.ID)
	if err != nil {
		a.Unlock()
		return false, err
	}
	if stored.Executed {
		a.Unlock()
		return false, nil
	}

	param, err := a.registry.Parameter(p.ParameterCategory, p.ParameterName)
	if err != nil {
		a.Unlock()
		a.LogWarnf("cannot apply poll %s: %s", p.ID, err)
		return false, nil
	}
	if !param.HasOption(value) {
		a.Unlock()
		a.LogWarnf("cannot apply poll %s: %q is not an option of %s", p.ID, value, param.Key())
		return false, nil
	}

	var ended *Preview
	if a.preview != nil && a.preview.Category == param.Category && a.preview.Name == param.Name {
		ended = a.stopPreview()
	}

	current, err := a.registry.Current(param.Category, param.Name)
	if err != nil {
		a.Unlock()
		a.triggerPreviewEnded(ended)
		return false, err
	}
	if current == value {
		a.Unlock()
		a.triggerPreviewEnded(ended)
		return false, nil
	}

	marked, err := a.polls.MarkExecuted(p.ID)
	if err != nil || !marked {
		a.Unlock()
		a.triggerPreviewEnded(ended)
		return false, err
	}

	change, err := a.commit(param, value, stored)
	a.Unlock()

	a.triggerPreviewEnded(ended)
	if err != nil {
		return false, err
	}
	a.Events.ParameterChanged.Trigger(change)
	return true, nil
}

// commit writes the value, persists the registry, records the change and runs the hooks.
// The applier must be locked.
func (a *Applier) commit(param *parameter.Parameter, value string, p *poll.Poll) (*Change, error) {
	old, err := a.registry.SetCurrent(param.Category, param.Name, value)
	if err != nil {
		return nil, err
	}

	if err := a.registry.PersistSnapshot(a.committedSnapshot()); err != nil {
		a.LogErrorf("unable to persist parameters: %s", err)
	}

	a.ledger.Record(&history.ChangeRecord{
		Timestamp:   a.clock(),
		Category:    param.Category,
		ParamName:   param.Name,
		DisplayName: a.registry.DisplayName(param.Name),
		OldValue:    old,
		NewValue:    value,
		PollID:      p.ID,
		PollTitle:   p.Title,
	})

	if values, hooked := a.runHooks(param.Category); !hooked {
		a.Events.CategoryApplied.Trigger(param.Category, values)
	}

	a.LogInfof("applied %s: %s -> %s (poll %q)", param.Key(), old, value, p.Title)

	return &Change{
		Category:  param.Category,
		Name:      param.Name,
		OldValue:  old,
		NewValue:  value,
		PollID:    p.ID,
		PollTitle: p.Title,
	}, nil
}

// committedSnapshot returns the registry values with a running preview reverted.
// The applier must be locked.
func (a *Applier) committedSnapshot() parameter.Snapshot {
	snapshot := a.registry.Snapshot()
	if a.preview != nil {
		if values, exists := snapshot[a.preview.Category]; exists {
			values[a.preview.Name] = a.preview.Original
		}
	}
	return snapshot
}

// CommittedSnapshot returns the parameter values without the effect of a running preview.
func (a *Applier) CommittedSnapshot() parameter.Snapshot {
	a.Lock()
	defer a.Unlock()

	return a.committedSnapshot()
}

// ApplyAll runs the hooks of every category.
func (a *Applier) ApplyAll() {
	type unhooked struct {
		category string
		values   map[string]string
	}
	var fallbacks []unhooked

	a.Lock()
	for _, category := range a.registry.Categories() {
		if values, hooked := a.runHooks(category); !hooked {
			fallbacks = append(fallbacks, unhooked{category: category, values: values})
		}
	}
	a.Unlock()

	for _, f := range fallbacks {
		a.Events.CategoryApplied.Trigger(f.category, f.values)
	}
}

// Preview temporarily applies a value to a parameter.
// A running preview is reverted first. After the preview duration the original value is restored.
func (a *Applier) Preview(category string, name string, value string, pollID string) (*Preview, error) {
	a.Lock()

	param, err := a.registry.Parameter(category, name)
	if err != nil {
		a.Unlock()
		return nil, err
	}
	if !param.HasOption(value) {
		a.Unlock()
		return nil, errors.Wrapf(parameter.ErrInvalidValue, "%s: %s", param.Key(), value)
	}

	if a.preview != nil && a.preview.Category == category && a.preview.Name == name && a.preview.Value == value {
		running := a.preview.Preview
		a.Unlock()
		return &running, nil
	}

	ended := a.stopPreview()

	original, err := a.registry.SetCurrent(category, name, value)
	if err != nil {
		a.Unlock()
		a.triggerPreviewEnded(ended)
		return nil, err
	}
	a.runHooks(category)

	now := a.clock()
	state := &activePreview{
		Preview: Preview{
			Category:  category,
			Name:      name,
			Value:     value,
			Original:  original,
			PollID:    pollID,
			StartedAt: now,
			ExpiresAt: now.Add(a.previewDuration),
		},
	}
	state.timer = time.AfterFunc(a.previewDuration, func() { a.expirePreview(state) })
	a.preview = state
	started := state.Preview
	a.Unlock()

	a.triggerPreviewEnded(ended)
	a.Events.PreviewStarted.Trigger(&started)
	return &started, nil
}

// ActivePreview returns the running preview.
// A preview whose ExpiresAt has passed on the applier clock is reverted first.
func (a *Applier) ActivePreview() (*Preview, bool) {
	a.Lock()
	ended := a.stopDuePreview()
	var running *Preview
	if a.preview != nil {
		p := a.preview.Preview
		running = &p
	}
	a.Unlock()

	a.triggerPreviewEnded(ended)
	return running, running != nil
}

// ExpirePreview reverts the running preview if its ExpiresAt has passed on the applier clock.
// The timer started by Preview runs on wall time, so a clock that moves differently
// relies on this to end previews in time.
func (a *Applier) ExpirePreview() bool {
	a.Lock()
	ended := a.stopDuePreview()
	a.Unlock()

	a.triggerPreviewEnded(ended)
	return ended != nil
}

// stopDuePreview stops the running preview if it expired. The applier must be locked.
func (a *Applier) stopDuePreview() *Preview {
	if a.preview == nil || a.clock().Before(a.preview.ExpiresAt) {
		return nil
	}
	return a.stopPreview()
}

func (a *Applier) expirePreview(state *activePreview) {
	a.Lock()
	if a.preview != state {
		// superseded
		a.Unlock()
		return
	}
	ended := a.stopPreview()
	a.Unlock()

	a.triggerPreviewEnded(ended)
}

// stopPreview restores the original value of the running preview. The applier must be locked.
func (a *Applier) stopPreview() *Preview {
	if a.preview == nil {
		return nil
	}

	state := a.preview
	a.preview = nil
	state.timer.Stop()

	if _, err := a.registry.SetCurrent(state.Category, state.Name, state.Original); err != nil {
		a.LogWarnf("unable to restore %s after preview: %s", parameter.Key(state.Category, state.Name), err)
	}
	a.runHooks(state.Category)

	ended := state.Preview
	return &ended
}

func (a *Applier) triggerPreviewEnded(preview *Preview) {
	if preview != nil {
		a.Events.PreviewEnded.Trigger(preview)
	}
}

// CancelPreview reverts a running preview before its timeout.
func (a *Applier) CancelPreview() {
	a.Lock()
	ended := a.stopPreview()
	a.Unlock()

	a.triggerPreviewEnded(ended)
}

// CancelPollPreview reverts the running preview if it was started for the given poll.
func (a *Applier) CancelPollPreview(pollID string) bool {
	a.Lock()
	if a.preview == nil || a.preview.PollID != pollID {
		a.Unlock()
		return false
	}
	ended := a.stopPreview()
	a.Unlock()

	a.triggerPreviewEnded(ended)
	return true
}

// Shutdown reverts a running preview.
func (a *Applier) Shutdown() {
	a.CancelPreview()
}
