package progress

import (
	"github.com/dsnet/golib/unitconv"
	"go.uber.org/zap"
)

// Log writes status transitions to a logger. Byte-level updates are dropped.
type Log struct {
	log *zap.Logger
}

func NewLog(log *zap.Logger) *Log {
	return &Log{log: log.With(zap.String("component", "progress"))}
}

func (l *Log) Report(e Event) {
	if e.Status == "" || e.Status == StatusRunning {
		return
	}
	fields := []zap.Field{zap.String("stage", string(e.Stage)), zap.String("status", e.Status)}
	if e.CurrentFile != "" {
		fields = append(fields, zap.String("file", e.CurrentFile))
	}
	if e.FileCount > 0 {
		fields = append(fields, zap.Int("index", e.FileIndex), zap.Int("count", e.FileCount))
	}
	if e.DownloadedBytes > 0 {
		fields = append(fields, zap.String("size", FormatBytes(e.DownloadedBytes)))
	}
	if e.Status == StatusFailed {
		l.log.Warn("progress", fields...)
		return
	}
	l.log.Info("progress", fields...)
}

// FormatBytes renders n with an IEC prefix, e.g. "1.5MiB".
func FormatBytes(n int64) string {
	return unitconv.FormatPrefix(float64(n), unitconv.IEC, 1) + "B"
}
