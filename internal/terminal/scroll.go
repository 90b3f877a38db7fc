// Package terminal implements a fixed-height scrolling status window for
// long-running interactive runs: recent lines cycle through the window while
// everything is retained for a plain replay once the run completes.
package terminal

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const defaultWidth = 100

var (
	dividerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	lineStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
)

// ScrollingBuffer shows a scrolling status window with displayed lines
// incrementally added and cycled out over time. A sticky header indicates the
// context of the current section of output, with a count of lines shown under
// it. Excessively long lines are truncated with an arrow character.
type ScrollingBuffer struct {
	out          io.Writer
	height       int
	width        int
	window       []string
	allLines     []string
	stickyHeader string
	sectionCount int
	start        time.Time
	started      bool
}

// NewScrollingBuffer creates a buffer of the given window height writing to
// stdout. The window width follows the COLUMNS environment variable when set.
func NewScrollingBuffer(height int) *ScrollingBuffer {
	return NewScrollingBufferTo(os.Stdout, height)
}

// NewScrollingBufferTo creates a buffer writing to an arbitrary writer.
func NewScrollingBufferTo(out io.Writer, height int) *ScrollingBuffer {
	width := defaultWidth
	if columns, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && columns > 10 {
		width = columns
	}
	return &ScrollingBuffer{
		out:    out,
		height: height,
		width:  width,
		start:  time.Now(),
	}
}

// AddLine appends a line to the window. A non-empty header replaces the sticky
// header and advances the section count.
func (b *ScrollingBuffer) AddLine(line string, header string) {
	if header != "" {
		b.stickyHeader = header
		b.sectionCount++
	}
	for _, part := range strings.Split(line, "\n") {
		b.allLines = append(b.allLines, part)
		b.window = append(b.window, part)
		if len(b.window) > b.height {
			b.window = b.window[1:]
		}
		b.render()
	}
}

// Close replays every retained line without formatting, for inspection after
// the run has completed.
func (b *ScrollingBuffer) Close() error {
	for _, line := range b.allLines {
		fmt.Fprintln(b.out, line)
	}
	return nil
}

func (b *ScrollingBuffer) render() {
	if b.started {
		b.clearWindow()
	}
	b.started = true

	b.divider(b.headerText())
	shown := 0
	for _, line := range b.window {
		fmt.Fprintln(b.out, lineStyle.Render(b.truncate(line)))
		shown++
	}
	for ; shown < b.height; shown++ {
		fmt.Fprintln(b.out)
	}
	elapsed := int(time.Since(b.start).Seconds())
	b.divider(fmt.Sprintf("%ds", elapsed))
}

func (b *ScrollingBuffer) headerText() string {
	if b.stickyHeader == "" {
		return ""
	}
	return fmt.Sprintf("%s (%d)", b.stickyHeader, b.sectionCount)
}

func (b *ScrollingBuffer) clearWindow() {
	fmt.Fprint(b.out, "\033[2K\r")
	fmt.Fprint(b.out, strings.Repeat("\033[A\033[2K\r", b.height+2))
}

func (b *ScrollingBuffer) divider(text string) {
	if text != "" {
		text = " " + text + " "
	}
	padding := ""
	if len(text) <= b.width-4 {
		padding = strings.Repeat("━", b.width-4-len(text))
	}
	fmt.Fprintln(b.out, "━━"+dividerStyle.Render(text)+padding)
}

func (b *ScrollingBuffer) truncate(line string) string {
	runes := []rune(line)
	if len(runes) > b.width {
		return string(runes[:b.width-1]) + "→"
	}
	return line
}
