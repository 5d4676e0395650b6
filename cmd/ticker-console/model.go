package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"tickerboard/internal/chart"
	"tickerboard/internal/dashboard"
	"tickerboard/internal/domain"
	"tickerboard/internal/quotes"
)

const sparkWidth = 32

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("4"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("8"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6"))
	symbolStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	priceStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	gainStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	lossStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	errStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)

func deltaStyle(class string) lipgloss.Style {
	switch class {
	case dashboard.ClassUp:
		return gainStyle
	case dashboard.ClassDown:
		return lossStyle
	default:
		return dimStyle
	}
}

// Messages.
type tickMsg time.Time

type quotesMsg struct {
	snapshot domain.QuoteSnapshot
	err      error
	at       time.Time
}

type intradayMsg struct {
	ticker string
	series domain.IntradaySeries
	err    error
}

// Model.
type model struct {
	client   *quotes.Client
	interval time.Duration
	count    int
	now      func() time.Time

	snapshot domain.QuoteSnapshot
	gainers  domain.GainerSelection
	sparks   map[string]string
	updated  time.Time
	err      error
	cycles   int

	viewport viewport.Model
	ready    bool
	width    int
	height   int
}

func initialModel(client *quotes.Client, interval time.Duration, count int, now func() time.Time) model {
	return model{
		client:   client,
		interval: interval,
		count:    count,
		now:      now,
		sparks:   make(map[string]string),
	}
}

func (m model) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) fetchQuotesCmd() tea.Cmd {
	client, now := m.client, m.now
	return func() tea.Msg {
		snap, err := client.FetchQuotes(context.Background())
		return quotesMsg{snapshot: snap, err: err, at: now()}
	}
}

func (m model) fetchIntradayCmd(ticker string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		series, err := client.FetchIntraday(context.Background(), ticker)
		return intradayMsg{ticker: ticker, series: series, err: err}
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.fetchQuotesCmd(), m.tickCmd())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, m.fetchQuotesCmd()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpHeight := m.height - 2
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.MouseWheelEnabled = true
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}
		m.viewport.SetContent(m.renderContent())
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.fetchQuotesCmd(), m.tickCmd())

	case quotesMsg:
		m = m.applyQuotes(msg)
		cmds := make([]tea.Cmd, 0, len(m.gainers))
		if msg.err == nil {
			for _, g := range m.gainers {
				cmds = append(cmds, m.fetchIntradayCmd(g.Ticker))
			}
		}
		m.refreshView()
		return m, tea.Batch(cmds...)

	case intradayMsg:
		m = m.applyIntraday(msg)
		m.refreshView()
		return m, nil
	}

	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

// applyQuotes keeps the previous render when a fetch fails.
func (m model) applyQuotes(msg quotesMsg) model {
	m.cycles++
	if msg.err != nil {
		m.err = msg.err
		return m
	}
	m.err = nil
	m.snapshot = msg.snapshot
	m.gainers = dashboard.TopGainers(msg.snapshot, m.count)
	m.updated = msg.at

	sparks := make(map[string]string, len(m.gainers))
	for _, g := range m.gainers {
		if s, ok := m.sparks[g.Ticker]; ok {
			sparks[g.Ticker] = s
		}
	}
	m.sparks = sparks
	return m
}

// applyIntraday records a sparkline; failures and unplottable series leave
// the slot blank.
func (m model) applyIntraday(msg intradayMsg) model {
	if _, ok := m.sparks[msg.ticker]; !ok && !m.isGainer(msg.ticker) {
		return m
	}
	sparks := make(map[string]string, len(m.sparks)+1)
	for k, v := range m.sparks {
		sparks[k] = v
	}
	if msg.err != nil || !msg.series.Plottable() {
		delete(sparks, msg.ticker)
	} else {
		sparks[msg.ticker] = chart.Sparkline(msg.series.Prices, sparkWidth)
	}
	m.sparks = sparks
	return m
}

func (m model) isGainer(ticker string) bool {
	for _, g := range m.gainers {
		if g.Ticker == ticker {
			return true
		}
	}
	return false
}

func (m *model) refreshView() {
	if m.ready {
		m.viewport.SetContent(m.renderContent())
	}
}

func (m model) View() string {
	if !m.ready {
		return "loading..."
	}

	updated := "never"
	if !m.updated.IsZero() {
		updated = humanize.Time(m.updated)
	}
	header := headerStyle.Render(padOrTrunc(fmt.Sprintf(" tickerboard  %s    updated %s    cycles %d ",
		m.client.BaseURL(), updated, m.cycles), m.width))

	footerText := " q quit  r refresh  pgup/dn scroll"
	if m.err != nil {
		footerText += "    " + errStyle.Render("last fetch failed: "+m.err.Error())
	}
	footer := footerStyle.Render(padOrTrunc(footerText, m.width))

	return header + "\n" + m.viewport.View() + "\n" + footer
}

func (m model) renderContent() string {
	return renderBoard(m.snapshot, m.gainers, m.sparks)
}

// renderBoard lays out the quote list and the gainer panel.
func renderBoard(snapshot domain.QuoteSnapshot, gainers domain.GainerSelection, sparks map[string]string) string {
	var b strings.Builder

	b.WriteString(sectionStyle.Render(" QUOTES "))
	b.WriteString("\n")
	if len(snapshot) == 0 {
		b.WriteString(dimStyle.Render("  no quotes"))
		b.WriteString("\n")
	}
	for _, q := range snapshot {
		d := dashboard.FormatDelta(q.Change, q.ChangePct)
		fmt.Fprintf(&b, "  %s %s %s %s %s  %s\n",
			padOrTrunc(dashboard.CategoryIcon(q.Category), 2),
			symbolStyle.Render(padOrTrunc(q.Ticker, 9)),
			dimStyle.Render(padOrTrunc(q.Name, 22)),
			priceStyle.Render(fmt.Sprintf("%12s", dashboard.FormatPrice(q.Price))),
			padOrTrunc(dashboard.DisplayCurrency(q), 4),
			deltaStyle(d.Class).Render(d.Text),
		)
	}

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render(" TOP GAINERS "))
	b.WriteString("\n")
	if len(gainers) == 0 {
		b.WriteString(dimStyle.Render("  no gainers"))
		b.WriteString("\n")
	}
	for _, g := range gainers {
		spark := sparks[g.Ticker]
		if spark == "" {
			spark = dimStyle.Render(dashboard.Placeholder)
		}
		fmt.Fprintf(&b, "  %s %s  %s %s  %s\n",
			symbolStyle.Render(padOrTrunc(fmt.Sprintf("%s (%s)", g.Name, g.Ticker), 32)),
			gainStyle.Render(fmt.Sprintf("%9s", dashboard.FormatGain(g.ChangePct))),
			priceStyle.Render(fmt.Sprintf("%12s", dashboard.FormatPrice(g.Price))),
			padOrTrunc(dashboard.DisplayCurrency(g), 4),
			gainStyle.Render(spark),
		)
	}
	return b.String()
}

// padOrTrunc fits s to exactly width terminal cells.
func padOrTrunc(s string, width int) string {
	if width <= 0 {
		return s
	}
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, "…")
	}
	return runewidth.FillRight(s, width)
}
