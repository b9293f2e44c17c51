// Package termview renders the detect monitor slots in a terminal.
package termview

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/detect-monitor/internal/logger"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/detect-monitor/internal/refresh"
)

// View is a tview screen backed by a refresh.MemorySurface. Every slot write
// redraws the panel; every image slot write probes the new image URL.
type View struct {
	app     *tview.Application
	panel   *tview.TextView
	footer  *tview.TextView
	surface *refresh.MemorySurface
	prober  *Prober
	log     *logger.ModuleLogger

	// queue runs fn on the UI goroutine.
	queue func(fn func())

	mu       sync.Mutex
	info     *ImageInfo
	probeErr error
	probeSeq uint64
	last     *refresh.Result
	failures int
}

// New builds a View whose image slot starts at imageSrc. A nil prober
// disables image probing.
func New(imageSrc string, prober *Prober) *View {
	panel := tview.NewTextView().SetDynamicColors(true).SetWrap(false)
	panel.SetBorder(true).SetTitle(" Detection Monitor ").SetTitleAlign(tview.AlignLeft)
	footer := tview.NewTextView().SetDynamicColors(true)
	footer.SetTextColor(tcell.ColorYellow)

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(panel, 0, 1, false).
		AddItem(footer, 1, 0, false)

	v := &View{
		app:     tview.NewApplication().SetRoot(layout, true).EnableMouse(false),
		panel:   panel,
		footer:  footer,
		surface: refresh.NewMemorySurface(imageSrc),
		prober:  prober,
		log:     logger.For("TermView"),
	}
	v.queue = func(fn func()) { v.app.QueueUpdateDraw(fn) }
	v.surface.OnWrite(v.onWrite)
	footer.SetText("q to quit")
	return v
}

// Surface is the DisplaySurface the refresh loop writes into.
func (v *View) Surface() refresh.DisplaySurface { return v.surface }

// Observe records a cycle outcome; pass it to refresh.WithObserver.
func (v *View) Observe(res refresh.Result) {
	v.mu.Lock()
	v.last = &res
	if !res.OK() {
		v.failures++
	}
	v.mu.Unlock()
	v.redraw()
}

// Run draws the screen until ctx is cancelled or the user quits.
func (v *View) Run(ctx context.Context, cancel context.CancelFunc) error {
	v.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEscape || event.Rune() == 'q' {
			cancel()
			return nil
		}
		return event
	})
	stop := context.AfterFunc(ctx, v.app.Stop)
	defer stop()

	v.redraw()
	return v.app.Run()
}

func (v *View) onWrite(w refresh.Write) {
	if w.Slot == refresh.SlotImage && v.prober != nil {
		v.mu.Lock()
		v.probeSeq++
		seq := v.probeSeq
		v.mu.Unlock()
		go v.probe(seq, w.Value)
	}
	v.redraw()
}

func (v *View) probe(seq uint64, url string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	info, err := v.prober.Probe(ctx, url)

	v.mu.Lock()
	if seq != v.probeSeq {
		// a newer image URL has been set meanwhile
		v.mu.Unlock()
		return
	}
	if err != nil {
		v.probeErr = err
		v.log.Debugf("Image probe failed: %v", err)
	} else {
		v.info = &info
		v.probeErr = nil
	}
	v.mu.Unlock()
	v.redraw()
}

func (v *View) redraw() {
	text := v.Text()
	v.queue(func() { v.panel.SetText(text) })
}

// Text returns the panel contents for the current state.
func (v *View) Text() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return renderPanel(v.surface.Fields(), v.surface.ImageSource(), v.info, v.probeErr, v.last, v.failures)
}

func renderPanel(f refresh.Fields, src string, info *ImageInfo, probeErr error, last *refresh.Result, failures int) string {
	var b strings.Builder
	row := func(label, value string) {
		if value == "" {
			value = "--"
		}
		fmt.Fprintf(&b, "[::b]%-16s[::-] %s\n", label, value)
	}

	row("Detected at", tview.Escape(f.Date))
	row("Entities", tview.Escape(f.EntityCount))
	row("Camera time", tview.Escape(f.CaptureLatency))
	row("Inference time", tview.Escape(f.InferenceLatency))
	b.WriteString("\n")
	row("Image", tview.Escape(src))

	switch {
	case probeErr != nil:
		row("Image info", "[red]"+tview.Escape(probeErr.Error())+"[-]")
	case info != nil:
		row("Image info", info.String()+", "+humanize.Time(info.FetchedAt))
	default:
		row("Image info", "")
	}

	if last != nil {
		b.WriteString("\n")
		status := "[green]ok[-]"
		if !last.OK() {
			status = "[red]" + tview.Escape(last.Err.Error()) + "[-] (showing previous values)"
		}
		fmt.Fprintf(&b, "[::b]%-16s[::-] %s in %s\n", "Last poll", status, last.Duration.Round(time.Millisecond))
		fmt.Fprintf(&b, "[::b]%-16s[::-] %s\n", "Failed polls", humanize.Comma(int64(failures)))
	}
	return b.String()
}
