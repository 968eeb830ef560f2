package progress

import (
	"fmt"
	"io"
	"sync"

	"github.com/vbauerster/mpb/v4"
	"github.com/vbauerster/mpb/v4/decor"
)

// Bars renders download events as terminal progress bars, one per file.
type Bars struct {
	mu      sync.Mutex
	p       *mpb.Progress
	bar     *mpb.Bar
	current string
}

func NewBars(w io.Writer) *Bars {
	return &Bars{p: mpb.New(mpb.WithOutput(w), mpb.WithWidth(40))}
}

func (b *Bars) Report(e Event) {
	if e.Stage != StageDownload || e.CurrentFile == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if e.CurrentFile != b.current || b.bar == nil {
		b.finish(false)
		name := e.CurrentFile
		if e.FileCount > 0 {
			name = fmt.Sprintf("[%d/%d] %s", e.FileIndex, e.FileCount, e.CurrentFile)
		}
		b.bar = b.p.AddBar(0,
			mpb.PrependDecorators(decor.Name(name, decor.WC{W: len(name) + 1, C: decor.DidentRight})),
			mpb.AppendDecorators(decor.CountersKibiByte("% .1f / % .1f")),
		)
		b.current = e.CurrentFile
	}

	switch e.Status {
	case StatusDone:
		b.bar.SetTotal(e.DownloadedBytes, true)
		b.bar = nil
		b.current = ""
	case StatusFailed:
		b.finish(true)
	default:
		total := e.TotalBytes
		if total < e.DownloadedBytes {
			total = e.DownloadedBytes + 1
		}
		b.bar.SetTotal(total, false)
		b.bar.SetCurrent(e.DownloadedBytes)
	}
}

func (b *Bars) finish(drop bool) {
	if b.bar != nil {
		b.bar.Abort(drop)
		b.bar = nil
		b.current = ""
	}
}

// Wait flushes the bars; call once the operation has returned.
func (b *Bars) Wait() {
	b.mu.Lock()
	b.finish(false)
	b.mu.Unlock()
	b.p.Wait()
}
