// Package progress carries operation progress from the pipelines to whatever
// is displaying it. Sinks are passed explicitly to every operation.
package progress

import "sync"

type Stage string

const (
	StageDownload   Stage = "download"
	StageDiscover   Stage = "discover"
	StageCheckpoint Stage = "checkpoint"
	StageApply      Stage = "apply"
	StageCheck      Stage = "check"
	StageExtract    Stage = "extract"
	StageBackup     Stage = "backup"
	StageCopy       Stage = "copy"
	StageDone       Stage = "done"
)

// File statuses carried in Event.Status.
const (
	StatusStarted = "started"
	StatusRunning = "running"
	StatusDone    = "done"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Event is a single progress report. TotalBytes is -1 when unknown.
// Consumers must tolerate stages they do not recognise.
type Event struct {
	Stage           Stage  `json:"stage"`
	CurrentFile     string `json:"currentFile,omitempty"`
	FileIndex       int    `json:"fileIndex,omitempty"`
	FileCount       int    `json:"fileCount,omitempty"`
	DownloadedBytes int64  `json:"downloadedBytes,omitempty"`
	TotalBytes      int64  `json:"totalBytes,omitempty"`
	Status          string `json:"status,omitempty"`
}

type Sink interface {
	Report(Event)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(Event)

func (f SinkFunc) Report(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// Or returns s, or Discard when s is nil.
func Or(s Sink) Sink {
	if s == nil {
		return Discard
	}
	return s
}

// Multi fans events out to several sinks in order.
func Multi(sinks ...Sink) Sink {
	return SinkFunc(func(e Event) {
		for _, s := range sinks {
			if s != nil {
				s.Report(e)
			}
		}
	})
}

// Collector records events; it is used by tests and by callers that want a
// transcript of an operation.
type Collector struct {
	mu     sync.Mutex
	events []Event
}

func (c *Collector) Report(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

// Events returns a copy of everything reported so far.
func (c *Collector) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

// Stages returns the distinct stages in first-seen order.
func (c *Collector) Stages() []Stage {
	seen := map[Stage]bool{}
	var out []Stage
	for _, e := range c.Events() {
		if !seen[e.Stage] {
			seen[e.Stage] = true
			out = append(out, e.Stage)
		}
	}
	return out
}
