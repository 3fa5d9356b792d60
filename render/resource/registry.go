// Package resource tracks every GPU-side object a backend allocates — buffers,
// textures, shaders, programs, VAOs, framebuffers, renderbuffers — through a
// single type-bucketed ledger. It owns no GPU API itself; callers register a
// disposer closure at allocation time and the registry calls it back on
// release, exactly once, catching and logging any error rather than
// propagating it (a disposer must never bring down a frame).
package resource

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
)

// Type is the closed-ish set of resource kinds the registry buckets entries
// by. New backend object kinds can be added as new string tags without
// touching the registry itself.
type Type string

const (
	TypeBuffer       Type = "buffer"
	TypeTexture      Type = "texture"
	TypeShader       Type = "shader"
	TypeProgram      Type = "program"
	TypeVAO          Type = "vao"
	TypeFramebuffer  Type = "framebuffer"
	TypeRenderbuffer Type = "renderbuffer"
)

// Action distinguishes a history event as an allocation or a release.
type Action string

const (
	ActionAlloc Action = "alloc"
	ActionFree  Action = "free"
)

// Options carries the optional fields accompanying a Register call.
type Options struct {
	Bytes uint64
	Label string
}

// Entry is one tracked resource: its opaque handle, the disposer that frees
// it, and bookkeeping metadata.
type Entry struct {
	ID        uint64
	Type      Type
	Handle    any
	Label     string
	Bytes     uint64
	CreatedAt time.Time

	disposer func() error
}

// HistoryEvent is one entry in the trimmed alloc/free log used for
// diagnostics.
type HistoryEvent struct {
	Timestamp time.Time
	Type      Type
	Action    Action
	Bytes     uint64
	Label     string
}

// LeakEntry describes one resource that has lived longer than the
// detectLeaks age threshold.
type LeakEntry struct {
	Type  Type
	Label string
	Bytes uint64
	Age   time.Duration
	ID    uint64
}

// ByTypeStats is the set of stats tracked per resource Type.
type ByTypeStats struct {
	Current int
	Peak    int
}

// FrameDelta is the change in resource count/bytes since the last
// BeginFrame/EndFrame pair.
type FrameDelta struct {
	Resources int
	Bytes     int64
}

// Lifetime accumulates allocation/deallocation counts across the registry's
// entire life.
type Lifetime struct {
	TotalAllocations   uint64
	TotalDeallocations uint64
	Net                int64
}

// Diagnostics is the full stats snapshot returned by GetDiagnostics, mirroring
// the registry statistics record.
type Diagnostics struct {
	CurrentResources int
	CurrentBytes     uint64
	PeakResources    int
	PeakBytes        uint64
	PeakByType       map[Type]int
	FrameDelta       FrameDelta
	Lifetime         Lifetime
	DisposedTypes    []Type
}

const defaultHistoryLimit = 1000

// Registry is the mutex-guarded façade over the resource ledger. The zero
// value is not usable; construct with NewRegistry.
type Registry struct {
	mu sync.Mutex

	nextID uint64
	byType map[Type]map[any]*Entry

	currentResources int
	currentBytes     uint64
	peakResources    int
	peakBytes        uint64
	peakByType       map[Type]int

	frameStartResources int
	frameStartBytes     uint64
	frameDelta          FrameDelta

	totalAllocations   uint64
	totalDeallocations uint64

	history      []HistoryEvent
	historyLimit int
	disposedSet  map[Type]bool

	log *slog.Logger
}

// RegistryOption configures a Registry at construction time.
type RegistryOption func(*Registry)

// WithLogger overrides the registry's structured logger. Defaults to
// slog.Default().
func WithLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) { r.log = l }
}

// WithHistoryLimit overrides the trimmed history log's capacity. Defaults to
// 1000 events.
func WithHistoryLimit(n int) RegistryOption {
	return func(r *Registry) { r.historyLimit = n }
}

// NewRegistry constructs an empty Registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		byType:       make(map[Type]map[any]*Entry),
		peakByType:   make(map[Type]int),
		disposedSet:  make(map[Type]bool),
		historyLimit: defaultHistoryLimit,
		log:          slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a tracked resource. handle must be non-nil and comparable
// (usable as a map key); a nil handle is a no-op that returns nil, matching
// the failure semantics of a caller that forgot to allocate anything.
func (r *Registry) Register(typ Type, handle any, disposer func() error, opts Options) *Entry {
	if handle == nil || disposer == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	entry := &Entry{
		ID:        r.nextID,
		Type:      typ,
		Handle:    handle,
		Label:     opts.Label,
		Bytes:     opts.Bytes,
		CreatedAt: time.Now(),
		disposer:  disposer,
	}

	bucket, ok := r.byType[typ]
	if !ok {
		bucket = make(map[any]*Entry)
		r.byType[typ] = bucket
	}
	bucket[handle] = entry

	r.currentResources++
	r.currentBytes += entry.Bytes
	r.totalAllocations++
	if r.currentResources > r.peakResources {
		r.peakResources = r.currentResources
	}
	if r.currentBytes > r.peakBytes {
		r.peakBytes = r.currentBytes
	}
	if r.byType[typ] != nil && len(bucket) > r.peakByType[typ] {
		r.peakByType[typ] = len(bucket)
	}

	r.appendHistory(HistoryEvent{Timestamp: entry.CreatedAt, Type: typ, Action: ActionAlloc, Bytes: entry.Bytes, Label: entry.Label})
	return entry
}

// Release removes a tracked entry without invoking its disposer, for a
// caller that has already freed the underlying resource itself. Reports
// whether an entry was found.
func (r *Registry) Release(typ Type, handle any) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remove(typ, handle, false) != nil
}

// Dispose removes a tracked entry and invokes its disposer. A disposer error
// is logged, never propagated. Reports whether an entry was found.
func (r *Registry) Dispose(typ Type, handle any) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remove(typ, handle, true) != nil
}

// remove must be called with r.mu held.
func (r *Registry) remove(typ Type, handle any, invokeDisposer bool) *Entry {
	bucket, ok := r.byType[typ]
	if !ok {
		return nil
	}
	entry, ok := bucket[handle]
	if !ok {
		return nil
	}
	delete(bucket, handle)

	if invokeDisposer {
		if err := entry.disposer(); err != nil {
			r.log.Warn("resource disposer failed", slog.String("type", string(typ)), slog.String("label", entry.Label), slog.Any("error", err))
		}
	}

	r.currentResources--
	r.currentBytes -= entry.Bytes
	r.totalDeallocations++

	r.appendHistory(HistoryEvent{Timestamp: time.Now(), Type: typ, Action: ActionFree, Bytes: entry.Bytes, Label: entry.Label})
	return entry
}

// DisposeType disposes every entry of the given type and records the type as
// having been bulk-disposed. Returns the count disposed.
func (r *Registry) DisposeType(typ Type) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	bucket, ok := r.byType[typ]
	if !ok {
		return 0
	}
	handles := make([]any, 0, len(bucket))
	for h := range bucket {
		handles = append(handles, h)
	}
	for _, h := range handles {
		r.remove(typ, h, true)
	}
	r.disposedSet[typ] = true
	return len(handles)
}

// DisposeAll disposes every tracked entry across every type.
func (r *Registry) DisposeAll() {
	r.mu.Lock()
	types := make([]Type, 0, len(r.byType))
	for t := range r.byType {
		types = append(types, t)
	}
	r.mu.Unlock()

	for _, t := range types {
		r.DisposeType(t)
	}
}

// BeginFrame snapshots the current resource count/bytes as the frame's
// starting point.
func (r *Registry) BeginFrame() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frameStartResources = r.currentResources
	r.frameStartBytes = r.currentBytes
}

// EndFrame computes FrameDelta as the change since the matching BeginFrame.
func (r *Registry) EndFrame() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frameDelta = FrameDelta{
		Resources: r.currentResources - r.frameStartResources,
		Bytes:     int64(r.currentBytes) - int64(r.frameStartBytes),
	}
}

// DetectLeaks lists every entry older than ageThreshold, oldest first. A
// zero ageThreshold defaults to 60 seconds.
func (r *Registry) DetectLeaks(ageThreshold time.Duration) []LeakEntry {
	if ageThreshold <= 0 {
		ageThreshold = 60 * time.Second
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	var leaks []LeakEntry
	for typ, bucket := range r.byType {
		for _, entry := range bucket {
			age := now.Sub(entry.CreatedAt)
			if age >= ageThreshold {
				leaks = append(leaks, LeakEntry{Type: typ, Label: entry.Label, Bytes: entry.Bytes, Age: age, ID: entry.ID})
			}
		}
	}
	sort.Slice(leaks, func(i, j int) bool { return leaks[i].Age > leaks[j].Age })
	return leaks
}

// GetDiagnostics returns the full stats snapshot.
func (r *Registry) GetDiagnostics() Diagnostics {
	r.mu.Lock()
	defer r.mu.Unlock()

	peakByType := make(map[Type]int, len(r.peakByType))
	for t, v := range r.peakByType {
		peakByType[t] = v
	}
	disposed := make([]Type, 0, len(r.disposedSet))
	for t := range r.disposedSet {
		disposed = append(disposed, t)
	}
	sort.Slice(disposed, func(i, j int) bool { return disposed[i] < disposed[j] })

	return Diagnostics{
		CurrentResources: r.currentResources,
		CurrentBytes:     r.currentBytes,
		PeakResources:    r.peakResources,
		PeakBytes:        r.peakBytes,
		PeakByType:       peakByType,
		FrameDelta:       r.frameDelta,
		Lifetime: Lifetime{
			TotalAllocations:   r.totalAllocations,
			TotalDeallocations: r.totalDeallocations,
			Net:                int64(r.totalAllocations) - int64(r.totalDeallocations),
		},
		DisposedTypes: disposed,
	}
}

// HistoryFilter narrows GetHistory's result. A zero value matches
// everything.
type HistoryFilter struct {
	Type   Type
	Action Action
	Limit  int
}

// GetHistory returns history events newest-first, optionally filtered by
// type and/or action and capped at Limit entries (0 means unlimited).
func (r *Registry) GetHistory(filter HistoryFilter) []HistoryEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []HistoryEvent
	for i := len(r.history) - 1; i >= 0; i-- {
		ev := r.history[i]
		if filter.Type != "" && ev.Type != filter.Type {
			continue
		}
		if filter.Action != "" && ev.Action != filter.Action {
			continue
		}
		out = append(out, ev)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out
}

// appendHistory must be called with r.mu held.
func (r *Registry) appendHistory(ev HistoryEvent) {
	r.history = append(r.history, ev)
	if len(r.history) > r.historyLimit {
		r.history = r.history[len(r.history)-r.historyLimit:]
	}
}

// diagnosticsJSON mirrors Diagnostics but with string-keyed maps, since JSON
// object keys must be strings.
type diagnosticsJSON struct {
	CurrentResources int            `json:"currentResources"`
	CurrentBytes     uint64         `json:"currentBytes"`
	PeakResources    int            `json:"peakResources"`
	PeakBytes        uint64         `json:"peakBytes"`
	PeakByType       map[string]int `json:"peakByType"`
	FrameDelta       FrameDelta     `json:"frameDelta"`
	Lifetime         Lifetime       `json:"lifetime"`
	DisposedTypes    []string       `json:"disposedTypes"`
}

// ExportDiagnosticsJSON marshals GetDiagnostics to JSON for cross-process or
// FFI consumption.
func (r *Registry) ExportDiagnosticsJSON() ([]byte, error) {
	d := r.GetDiagnostics()
	peakByType := make(map[string]int, len(d.PeakByType))
	for t, v := range d.PeakByType {
		peakByType[string(t)] = v
	}
	disposed := make([]string, len(d.DisposedTypes))
	for i, t := range d.DisposedTypes {
		disposed[i] = string(t)
	}
	return json.Marshal(diagnosticsJSON{
		CurrentResources: d.CurrentResources,
		CurrentBytes:     d.CurrentBytes,
		PeakResources:    d.PeakResources,
		PeakBytes:        d.PeakBytes,
		PeakByType:       peakByType,
		FrameDelta:       d.FrameDelta,
		Lifetime:         d.Lifetime,
		DisposedTypes:    disposed,
	})
}

// GetSummaryString renders a single human-readable diagnostics line, in the
// same one-line style as a frame profiler's periodic log output.
func (r *Registry) GetSummaryString() string {
	d := r.GetDiagnostics()
	var types []string
	for t, peak := range d.PeakByType {
		types = append(types, fmt.Sprintf("%s:%d", t, peak))
	}
	sort.Strings(types)
	return fmt.Sprintf("[Resources] current: %d (%.2f MB) | peak: %d (%.2f MB) | net: %d | byType peak: {%s}",
		d.CurrentResources, float64(d.CurrentBytes)/1024/1024,
		d.PeakResources, float64(d.PeakBytes)/1024/1024,
		d.Lifetime.Net, strings.Join(types, ", "))
}
