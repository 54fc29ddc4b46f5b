package render

import (
	"context"
	"fmt"
	"image/color"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"git.lost.host/meutraa/rushline/internal/game"
	"git.lost.host/meutraa/rushline/internal/theme"
	"github.com/jonboulle/clockwork"
	"golang.org/x/term"
)

const (
	defaultRows     = 24
	defaultColumns  = 80
	judgementFrames = 30
	// Rows a note scrolls per second at speed 1
	rowsPerSecond = 8
)

type DefaultRenderer struct {
	out          io.Writer
	fd           int
	theme        theme.Theme
	rows, cols   uint16
	buffer       strings.Builder
	restoreState *term.State
	decorations  []*decoration
	previous     game.SessionState
}

type decoration struct {
	X, Y    uint16
	Content string
	Frames  int // remaining frames until removed
}

// NewDefaultRenderer draws to f, usually os.Stdout.
func NewDefaultRenderer(f *os.File, th theme.Theme) *DefaultRenderer {
	r := newRenderer(f, th, defaultRows, defaultColumns)
	r.fd = int(f.Fd())
	return r
}

func newRenderer(out io.Writer, th theme.Theme, rows, cols uint16) *DefaultRenderer {
	if nil == th {
		th = &theme.DefaultTheme{}
	}
	return &DefaultRenderer{out: out, fd: -1, theme: th, rows: rows, cols: cols}
}

func (r *DefaultRenderer) Init() error {
	if r.fd < 0 || !term.IsTerminal(r.fd) {
		return nil
	}
	if columns, rows, err := term.GetSize(r.fd); nil == err {
		r.rows, r.cols = uint16(rows), uint16(columns)
	}
	state, err := term.MakeRaw(r.fd)
	if nil != err {
		return fmt.Errorf("unable to make terminal raw: %w", err)
	}
	r.restoreState = state

	fmt.Fprintf(r.out, "%s%s%s",
		"\033[?1049h", // Enable alternate buffer
		"\033[?25l",   // Make the cursor invisible
		"\033[J",      // Clear the screen
	)
	return nil
}

func (r *DefaultRenderer) Deinit() error {
	if nil == r.restoreState {
		return nil
	}
	fmt.Fprintf(r.out, "%s%s",
		"\033[?1049l", // Disable alternate buffer
		"\033[?25h",   // Make the cursor visible
	)
	return term.Restore(r.fd, r.restoreState)
}

func (r *DefaultRenderer) AddDecoration(col, row uint16, content string, frames int) {
	r.decorations = append(r.decorations, &decoration{
		X:       col,
		Y:       row,
		Content: content,
		Frames:  frames,
	})
}

func (r *DefaultRenderer) tickDecorations() {
	nd := make([]*decoration, 0, len(r.decorations))
	for _, d := range r.decorations {
		if d.Frames == 0 {
			continue
		}
		r.Fill(d.Y, d.X, d.Content)
		nd = append(nd, d)
		d.Frames--
	}
	r.decorations = nd
}

func (r *DefaultRenderer) center(s string) uint16 {
	w := len([]rune(s))
	if w >= int(r.cols) {
		return 1
	}
	return uint16((int(r.cols)-w)/2) + 1
}

func (r *DefaultRenderer) line(row uint16, s string) {
	r.Fill(row, r.center(stripANSI(s)), s)
}

// Draw clears the screen and renders one frame of f.
func (r *DefaultRenderer) Draw(f Frame) {
	r.buffer.WriteString("\033[H\033[J")
	st := f.State
	r.line(2, "rushline")

	switch st.Phase {
	case game.Selection:
		r.drawSelection(f)
	case game.Countdown:
		r.line(4, r.theme.RenderPhase(st.Phase)+" "+st.Level.String())
		r.line(r.rows/2, strconv.Itoa(st.Countdown))
	case game.Playing:
		r.drawPlaying(f)
	case game.Finished, game.Result:
		r.drawResult(f)
	}

	r.previous = st
	r.tickDecorations()
	r.flush()
}

func (r *DefaultRenderer) drawSelection(f Frame) {
	r.line(4, r.theme.RenderPhase(game.Selection))
	for i, opt := range f.Levels {
		d := game.Difficulties[opt.Level]
		status := fmt.Sprintf("best %6d", f.Best.Get(d.ScoreField))
		if !opt.Unlocked {
			status = "locked"
		}
		r.line(uint16(6+i), fmt.Sprintf("%d) %-7v %s", i+1, d.Label, status))
	}
	r.line(r.rows-1, "1-3 select   q quit")
}

func (r *DefaultRenderer) drawPlaying(f Frame) {
	st := f.State
	r.line(4, fmt.Sprintf("SCORE %7d   COMBO %4d", st.Score, st.Combo))
	if st.Rush {
		r.line(5, r.theme.RenderRush(true))
	}

	bar := r.rows - 4
	mid := r.cols / 2
	r.Fill(bar, mid-2, "-----")
	speed := f.Speed
	if speed <= 0 {
		speed = 1
	}
	for _, ahead := range f.Upcoming {
		rows := int(ahead.Seconds() * speed * rowsPerSecond)
		row := int(bar) - rows
		if row <= 6 || row > int(r.rows) {
			continue
		}
		r.Fill(uint16(row), mid, r.theme.RenderNote(rows))
	}

	judged := st.Last != game.None && (st.Tally != r.previous.Tally || st.Score != r.previous.Score)
	if judged {
		content := r.theme.RenderJudgement(st.Last)
		r.decorations = r.decorations[:0]
		r.AddDecoration(r.center(stripANSI(content)), bar+2, content, judgementFrames)
	}
	r.line(r.rows-1, "space tap   esc exit")
}

func (r *DefaultRenderer) drawResult(f Frame) {
	st := f.State
	r.decorations = r.decorations[:0]
	r.line(4, r.theme.RenderPhase(st.Phase)+" "+st.Level.String())
	r.line(6, fmt.Sprintf("SCORE %d", st.Score))
	if "" != st.Rank {
		r.line(7, "RANK "+r.theme.RenderRank(st.Rank))
	}
	r.line(9, fmt.Sprintf("Perfect %d   Good %d   Miss %d", st.PerfectCount, st.GoodCount, st.MissCount))
	d := game.Difficulties[st.Level]
	r.line(11, fmt.Sprintf("BEST %d", f.Best.Get(d.ScoreField)))
	if st.NewBest {
		r.line(12, "NEW BEST")
	}
	if "" != st.Unlocked {
		r.line(13, fmt.Sprintf("%s unlocked", st.Unlocked))
	}
	r.line(r.rows-1, "r retry   b back   q quit")
}

func (r *DefaultRenderer) Fill(row, column uint16, message string) {
	r.buffer.WriteString("\033[")
	r.buffer.WriteString(strconv.FormatInt(int64(row), 10))
	r.buffer.WriteString(";")
	r.buffer.WriteString(strconv.FormatInt(int64(column), 10))
	r.buffer.WriteString("H")
	r.buffer.WriteString(message)
}

func (r *DefaultRenderer) FillColor(row, column uint16, c color.RGBA, message string) {
	r.buffer.WriteString("\033[")
	r.buffer.WriteString(strconv.FormatInt(int64(row), 10))
	r.buffer.WriteString(";")
	r.buffer.WriteString(strconv.FormatInt(int64(column), 10))
	r.buffer.WriteString("H\033[38;2;")
	r.buffer.WriteString(strconv.FormatInt(int64(c.R), 10))
	r.buffer.WriteString(";")
	r.buffer.WriteString(strconv.FormatInt(int64(c.G), 10))
	r.buffer.WriteString(";")
	r.buffer.WriteString(strconv.FormatInt(int64(c.B), 10))
	r.buffer.WriteString("m")
	r.buffer.WriteString(message)
	r.buffer.WriteString("\033[0m")
}

func (r *DefaultRenderer) flush() {
	io.WriteString(r.out, r.buffer.String())
	r.buffer.Reset()
}

// stripANSI drops escape sequences so centring uses the visible width.
func stripANSI(s string) string {
	var b strings.Builder
	esc := false
	for _, c := range s {
		switch {
		case c == '\033':
			esc = true
		case esc && ((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')):
			esc = false
		case !esc:
			b.WriteRune(c)
		}
	}
	return b.String()
}

// Loop redraws every period until ctx is done.
func (r *DefaultRenderer) Loop(ctx context.Context, c clockwork.Clock, period time.Duration, frame func() Frame) {
	t := c.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.Chan():
			r.Draw(frame())
		}
	}
}
