package montecarlo

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/alkamid/quackle/move"
	"github.com/alkamid/quackle/tiles"
)

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

// A traceWriter owns the simulation XML log. Iterations arrive as
// complete fragments and are written under a lock, so interleaved
// workers cannot tear the document. The header is written lazily and
// the footer exactly once, including when a batch aborts mid-iteration.
type traceWriter struct {
	mu        sync.Mutex
	w         io.WriteCloser
	hasHeader bool
}

func (t *traceWriter) active() bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.w != nil
}

// writeIteration writes one complete <iteration> fragment, emitting the
// header first if this is the first write since the last footer.
func (t *traceWriter) writeIteration(fragment []byte) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.w == nil {
		return
	}
	if !t.hasHeader {
		io.WriteString(t.w, "<simulation>\n")
		t.hasHeader = true
	}
	t.w.Write(fragment)
}

// writeFooter closes the <simulation> element if one is open.
func (t *traceWriter) writeFooter() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.footerLocked()
}

func (t *traceWriter) footerLocked() {
	if t.w == nil || !t.hasHeader {
		return
	}
	io.WriteString(t.w, "</simulation>\n")
	t.hasHeader = false
}

// close writes any pending footer and releases the sink.
func (t *traceWriter) close() error {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.w == nil {
		return nil
	}
	t.footerLocked()
	err := t.w.Close()
	t.w = nil
	return err
}

// setFile points the writer at a new sink, closing any previous one.
func (t *traceWriter) setFile(w io.WriteCloser) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.w != nil {
		t.footerLocked()
		t.w.Close()
	}
	t.w = w
	t.hasHeader = false
}

func openTraceFile(path string, appendToFile bool) (io.WriteCloser, error) {
	flags := os.O_CREATE | os.O_WRONLY
	if appendToFile {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	return os.OpenFile(path, flags, 0644)
}

// A traceBuilder accumulates one iteration's XML fragment with
// tab-per-level indentation. Fragments start at one tab deep, inside
// the <simulation> root.
type traceBuilder struct {
	sb     strings.Builder
	indent int
}

func newTraceBuilder() *traceBuilder {
	return &traceBuilder{indent: 1}
}

func (b *traceBuilder) line(s string) {
	for i := 0; i < b.indent; i++ {
		b.sb.WriteByte('\t')
	}
	b.sb.WriteString(s)
	b.sb.WriteByte('\n')
}

func (b *traceBuilder) open(s string) {
	b.line(s)
	b.indent++
}

func (b *traceBuilder) closeElem(s string) {
	b.indent--
	b.line(s)
}

func (b *traceBuilder) beginIteration(index int) {
	b.open(fmt.Sprintf(`<iteration index="%d">`, index))
}

func (b *traceBuilder) endIteration() {
	b.closeElem("</iteration>")
}

func (b *traceBuilder) beginPlayahead() {
	b.open("<playahead>")
}

func (b *traceBuilder) endPlayahead() {
	b.closeElem("</playahead>")
}

func (b *traceBuilder) beginPly(index int) {
	b.open(fmt.Sprintf(`<ply index="%d">`, index))
}

func (b *traceBuilder) endPly() {
	b.closeElem("</ply>")
}

func (b *traceBuilder) rack(r tiles.Rack) {
	b.line(fmt.Sprintf(`<rack tiles="%s" />`, xmlEscaper.Replace(r.String())))
}

func (b *traceBuilder) move(m *move.Move) {
	var action string
	switch m.Action() {
	case move.MoveTypePlay:
		action = "place"
	case move.MoveTypePass:
		action = "pass"
	case move.MoveTypeExchange:
		action = "exchange"
	default:
		action = "nonmove"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, `<move action="%s"`, action)
	if coords := m.BoardCoords(); coords != "" {
		fmt.Fprintf(&sb, ` coords="%s"`, xmlEscaper.Replace(coords))
	}
	if len(m.Tiles()) > 0 {
		fmt.Fprintf(&sb, ` tiles="%s"`, xmlEscaper.Replace(m.Tiles().String()))
	}
	fmt.Fprintf(&sb, ` score="%d"`, m.Score())
	if m.BingoPlayed() {
		sb.WriteString(` bingo="true"`)
	}
	sb.WriteString(" />")
	b.line(sb.String())
}

func (b *traceBuilder) playerConsideration(v float64) {
	b.line(fmt.Sprintf(`<pc value="%g" />`, v))
}

func (b *traceBuilder) sharedConsideration(v float64) {
	b.line(fmt.Sprintf(`<sc value="%g" />`, v))
}

func (b *traceBuilder) gameOver(win float64) {
	b.line(fmt.Sprintf(`<gameover win="%g" />`, win))
}

func (b *traceBuilder) bytes() []byte {
	return []byte(b.sb.String())
}
