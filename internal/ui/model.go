// Package ui renders the Table View in a terminal with bubbletea.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/maxviazov/cve-catalog-service/internal/browser"
	"github.com/maxviazov/cve-catalog-service/internal/model"
)

// Fetcher loads one page; *client.Client satisfies it.
type Fetcher interface {
	ListRecords(ctx context.Context, page, limit int) (model.RecordPage, error)
}

type pageLoadedMsg struct {
	seq  uint64
	page model.RecordPage
}

type pageFailedMsg struct {
	seq uint64
	err error
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	activeStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57")).Padding(0, 1)
	inactiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Padding(0, 1)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// Columns is the table layout shared by the TUI and the plain renderer.
var Columns = []string{"Identifier", "Source Identifier", "Published Date", "Last Modified Date", "Status"}

type Model struct {
	state    browser.State
	table    table.Model
	help     help.Model
	fetcher  Fetcher
	log      zerolog.Logger
	parent   context.Context
	cancel   context.CancelFunc
	pending  tea.Cmd
	selected string
}

// New mounts the view: the first fetch is issued from Init.
func New(ctx context.Context, f Fetcher, state browser.State, log zerolog.Logger) Model {
	widths := []int{18, 28, 14, 18, 20}
	cols := make([]table.Column, len(Columns))
	for i, title := range Columns {
		cols[i] = table.Column{Title: title, Width: widths[i]}
	}
	t := table.New(
		table.WithColumns(cols),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	m := Model{
		table:   t,
		help:    help.New(),
		fetcher: f,
		log:     log.With().Str("module", "ui").Logger(),
		parent:  ctx,
	}
	st, req := state.Mount()
	m.state = st
	m.pending = m.issue(req)
	return m
}

func (m Model) Init() tea.Cmd { return m.pending }

// State is the current Table View snapshot.
func (m Model) State() browser.State { return m.state }

// Selected is the navigation target chosen with enter, empty if the user just quit.
func (m Model) Selected() string { return m.selected }

// issue cancels whatever fetch is still running and starts req.
func (m *Model) issue(req *browser.Request) tea.Cmd {
	if req == nil {
		return nil
	}
	if m.cancel != nil {
		m.cancel()
	}
	ctx, cancel := context.WithCancel(m.parent)
	m.cancel = cancel
	f, seq, page, size := m.fetcher, req.Seq, req.Page, req.Size
	return func() tea.Msg {
		defer cancel()
		out, err := f.ListRecords(ctx, page, size)
		if err != nil {
			return pageFailedMsg{seq: seq, err: err}
		}
		return pageLoadedMsg{seq: seq, page: out}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.table.SetWidth(msg.Width)
		if h := msg.Height - 10; h > 3 {
			m.table.SetHeight(h)
		}
		m.help.Width = msg.Width
		return m, nil

	case pageLoadedMsg:
		st, ok := m.state.Resolve(msg.seq, msg.page)
		if !ok {
			m.log.Debug().Uint64("seq", msg.seq).Uint64("latest", m.state.Seq()).Msg("stale page dropped")
			return m, nil
		}
		m.state = st
		m.refreshRows()
		return m, nil

	case pageFailedMsg:
		st, ok := m.state.Fail(msg.seq, msg.err)
		if !ok {
			return m, nil
		}
		m.state = st
		m.log.Error().Err(msg.err).Int("page", st.Page()).Int("page_size", st.PageSize()).Msg("fetch failed")
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.stop()
			return m, tea.Quit
		case key.Matches(msg, keys.Select):
			if path, ok := m.state.Select(m.table.Cursor()); ok {
				m.selected = path
				m.stop()
				return m, tea.Quit
			}
			return m, nil
		case key.Matches(msg, keys.Next):
			return m.apply(m.state.NextPage())
		case key.Matches(msg, keys.Prev):
			return m.apply(m.state.PrevPage())
		case key.Matches(msg, keys.Size):
			return m.apply(m.state.SetPageSize(m.nextSize()))
		case key.Matches(msg, keys.Size1, keys.Size2, keys.Size3):
			i, _ := strconv.Atoi(msg.String())
			sizes := m.state.PageSizes()
			if i >= 1 && i <= len(sizes) {
				return m.apply(m.state.SetPageSize(sizes[i-1]))
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) apply(st browser.State, req *browser.Request) (tea.Model, tea.Cmd) {
	m.state = st
	cmd := m.issue(req)
	return m, cmd
}

func (m *Model) stop() {
	if m.cancel != nil {
		m.cancel()
	}
}

func (m Model) nextSize() int {
	sizes := m.state.PageSizes()
	for i, s := range sizes {
		if s == m.state.PageSize() {
			return sizes[(i+1)%len(sizes)]
		}
	}
	return sizes[0]
}

func (m *Model) refreshRows() {
	recs := m.state.Records()
	rows := make([]table.Row, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, Row(r))
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
}

// Row formats a record the way every renderer shows it.
func Row(r model.VulnerabilityRecord) []string {
	return []string{r.ID, r.SourceIdentifier, FormatDate(r.Published), FormatDate(r.LastModified), r.VulnStatus}
}

// FormatDate renders a timestamp as YYYY-MM-DD, or nothing for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

func (m Model) View() string {
	st := m.state
	var b strings.Builder

	b.WriteString(titleStyle.Render("CVE LIST") + "\n")
	b.WriteString(fmt.Sprintf("Total Records: %d\n", st.Total()))

	b.WriteString("Results per page: ")
	for _, size := range st.PageSizes() {
		label := strconv.Itoa(size)
		if size == st.PageSize() {
			b.WriteString(activeStyle.Render(label))
		} else {
			b.WriteString(inactiveStyle.Render(label))
		}
	}
	b.WriteString("\n\n")

	b.WriteString(m.table.View() + "\n\n")

	b.WriteString(control("‹ Previous", st.CanPrev()) + "  " + control("Next ›", st.CanNext()))
	b.WriteString("  " + st.Label())
	switch st.Status() {
	case browser.Loading:
		b.WriteString("  " + mutedStyle.Render("loading…"))
	case browser.Errored:
		b.WriteString("  " + errorStyle.Render("fetch failed: "+describe(st.Err())))
	}
	b.WriteString("\n\n")

	b.WriteString(m.help.View(keys))
	return b.String()
}

func control(label string, enabled bool) string {
	if enabled {
		return inactiveStyle.Render(label)
	}
	return mutedStyle.Render(label)
}

func describe(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out"
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
