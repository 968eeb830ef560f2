package progress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestCollector(t *testing.T) {
	c := &Collector{}
	s := Multi(c, nil, Discard)
	s.Report(Event{Stage: StageDownload, CurrentFile: "a.jar", Status: StatusStarted})
	s.Report(Event{Stage: StageDownload, CurrentFile: "a.jar", Status: StatusDone})
	s.Report(Event{Stage: StageApply})

	assert.Len(t, c.Events(), 3)
	assert.Equal(t, []Stage{StageDownload, StageApply}, c.Stages())
}

func TestOr(t *testing.T) {
	assert.NotNil(t, Or(nil))
	c := &Collector{}
	assert.Equal(t, Sink(c), Or(c))
}

func TestLogSink(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := NewLog(zap.New(core))

	l.Report(Event{Stage: StageDownload, CurrentFile: "a.jar", Status: StatusRunning, DownloadedBytes: 10})
	l.Report(Event{Stage: StageDownload, CurrentFile: "a.jar", Status: StatusDone, DownloadedBytes: 2048})
	l.Report(Event{Stage: StageDownload, CurrentFile: "b.jar", Status: StatusFailed})

	entries := logs.All()
	assert.Len(t, entries, 2)
	assert.Equal(t, "2.0KiB", entries[0].ContextMap()["size"])
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
}

func TestBars(t *testing.T) {
	var buf bytes.Buffer
	b := NewBars(&buf)
	b.Report(Event{Stage: StageDownload, CurrentFile: "a.jar", FileIndex: 1, FileCount: 2, Status: StatusStarted})
	b.Report(Event{Stage: StageDownload, CurrentFile: "a.jar", FileIndex: 1, FileCount: 2, DownloadedBytes: 50, TotalBytes: 100, Status: StatusRunning})
	b.Report(Event{Stage: StageDownload, CurrentFile: "a.jar", FileIndex: 1, FileCount: 2, DownloadedBytes: 100, TotalBytes: 100, Status: StatusDone})
	b.Report(Event{Stage: StageDownload, CurrentFile: "b.jar", FileIndex: 2, FileCount: 2, DownloadedBytes: 5, TotalBytes: -1, Status: StatusRunning})
	b.Report(Event{Stage: StageDownload, CurrentFile: "b.jar", FileIndex: 2, FileCount: 2, Status: StatusFailed})
	b.Report(Event{Stage: StageApply, Status: StatusStarted})
	b.Wait()
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "1.0MiB", FormatBytes(1<<20))
}
