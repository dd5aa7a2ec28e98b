package history

import (
	"time"

	"github.com/google/uuid"

	"github.com/gohornet/agora/pkg/model/storage"
	"github.com/gohornet/agora/pkg/utils"
	"github.com/iotaledger/hive.go/events"
	"github.com/iotaledger/hive.go/kvstore"
	"github.com/iotaledger/hive.go/logger"
	"github.com/iotaledger/hive.go/syncutils"
)

const (
	DefaultMaxSize = 20
)

// ChangeRecord describes one transition of a parameter value.
type ChangeRecord struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Category    string    `json:"category"`
	ParamName   string    `json:"paramName"`
	DisplayName string    `json:"displayName,omitempty"`
	OldValue    string    `json:"oldValue"`
	NewValue    string    `json:"newValue"`
	PollID      string    `json:"pollId,omitempty"`
	PollTitle   string    `json:"pollTitle,omitempty"`
}

// ChangeRecordCaller is used to signal a recorded change.
func ChangeRecordCaller(handler interface{}, params ...interface{}) {
	handler.(func(*ChangeRecord))(params[0].(*ChangeRecord))
}

type Events struct {
	ChangeRecorded *events.Event
	Cleared        *events.Event
}

// Options define options for the Ledger.
type Options struct {
	logger  *logger.Logger
	clock   func() time.Time
	maxSize int
}

// Option is a function setting a Ledger option.
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
	WithMaxSize(DefaultMaxSize),
}

// WithLogger enables logging within the ledger.
func WithLogger(logger *logger.Logger) Option {
	return func(opts *Options) {
		opts.logger = logger
	}
}

// WithClock sets the time source for records without a timestamp.
func WithClock(clock func() time.Time) Option {
	return func(opts *Options) {
		opts.clock = clock
	}
}

// WithMaxSize sets the amount of records kept.
func WithMaxSize(maxSize int) Option {
	return func(opts *Options) {
		opts.maxSize = maxSize
	}
}

// Ledger is a bounded record of parameter changes, newest first.
type Ledger struct {
	syncutils.RWMutex
	*utils.WrappedLogger

	slot    *storage.Slot
	clock   func() time.Time
	maxSize int

	// records are ordered newest first.
	records []*ChangeRecord

	Events *Events
}

// NewLedger creates a ledger and loads the persisted records.
func NewLedger(store kvstore.KVStore, opts ...Option) *Ledger {
	options := &Options{}
	options.apply(defaultOptions...)
	options.apply(opts...)

	if options.maxSize < 1 {
		options.maxSize = DefaultMaxSize
	}

	l := &Ledger{
		WrappedLogger: utils.NewWrappedLogger(options.logger),
		slot:          storage.NewSlot(store, storage.StorePrefixHistory, "changes"),
		clock:         options.clock,
		maxSize:       options.maxSize,
		Events: &Events{
			ChangeRecorded: events.NewEvent(ChangeRecordCaller),
			Cleared:        events.NewEvent(events.VoidCaller),
		},
	}
	l.load()

	return l
}

func (l *Ledger) load() {
	var records []*ChangeRecord
	if _, err := l.slot.Load(&records); err != nil {
		l.LogWarnf("unable to load change history, starting empty: %s", err)
		return
	}

	for _, record := range records {
		if record != nil {
			l.records = append(l.records, record)
		}
	}
	if len(l.records) > l.maxSize {
		l.records = l.records[:l.maxSize]
	}
}

func (l *Ledger) persist() {
	if err := l.slot.Store(l.records); err != nil {
		l.LogErrorf("unable to persist change history: %s", err)
	}
}

// MaxSize returns the amount of records kept.
func (l *Ledger) MaxSize() int {
	return l.maxSize
}

// Record adds a change. It returns false if the change duplicates the latest record of the same parameter.
// Missing IDs and timestamps are filled in.
func (l *Ledger) Record(change *ChangeRecord) bool {
	l.Lock()

	if l.isDuplicate(change) {
		l.Unlock()
		l.LogDebugf("skipping duplicate change record for %s.%s -> %s", change.Category, change.ParamName, change.NewValue)
		return false
	}

	record := *change
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = l.clock()
	}

	l.records = append([]*ChangeRecord{&record}, l.records...)
	if len(l.records) > l.maxSize {
		// evict the oldest
		l.records = l.records[:l.maxSize]
	}
	l.persist()
	l.Unlock()

	recorded := record
	l.Events.ChangeRecorded.Trigger(&recorded)
	return true
}

// isDuplicate tells whether the newest record of the same parameter has the same new value.
func (l *Ledger) isDuplicate(change *ChangeRecord) bool {
	for _, record := range l.records {
		if record.Category == change.Category && record.ParamName == change.ParamName {
			return record.NewValue == change.NewValue
		}
	}
	return false
}

// List returns copies of all records, newest first.
func (l *Ledger) List() []*ChangeRecord {
	l.RLock()
	defer l.RUnlock()

	records := make([]*ChangeRecord, len(l.records))
	for i, record := range l.records {
		r := *record
		records[i] = &r
	}
	return records
}

// Clear removes all records.
func (l *Ledger) Clear() {
	l.Lock()
	l.records = nil
	l.persist()
	l.Unlock()

	l.Events.Cleared.Trigger()
}
