package audit

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gupywatch/gupywatch/internal/ledger"
)

// Lines per entry in the list view (title + subtitle + blank separator).
const entryItemHeight = 3

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

var (
	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(lipgloss.Color("39"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	entryTitleStyle = lipgloss.NewStyle().
			Bold(true)

	entrySubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245"))

	selectedTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	selectedSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("24"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(14)

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				MarginBottom(1)
)

type auditModel struct {
	term     string
	entries  []ledger.Entry
	viewport viewport.Model
	cursor   int
	width    int
	height   int
	ready    bool

	view           viewState
	detailViewport viewport.Model

	wantQuit bool
}

func (m auditModel) Init() tea.Cmd {
	return nil
}

func (m auditModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		if m.view == viewDetail {
			m.detailViewport.Width = m.width - 4
			m.detailViewport.Height = m.height - 4
			m.detailViewport.SetContent(m.renderDetail())
		}
		return m, nil

	case tea.KeyMsg:
		if m.view == viewDetail {
			return m.updateDetailView(msg)
		}
		return m.updateListView(msg)
	}

	return m, nil
}

func (m auditModel) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "b":
		m.wantQuit = false
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "down", "j":
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "o":
		if e := m.selected(); e != nil && e.URL != "" {
			openURL(e.URL)
		}
		return m, nil
	case "enter":
		if m.selected() == nil {
			return m, nil
		}
		m.view = viewDetail
		m.detailViewport = viewport.New(m.width-4, m.height-4)
		m.detailViewport.SetContent(m.renderDetail())
		return m, nil
	}
	return m, nil
}

func (m auditModel) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "b":
		m.view = viewList
		return m, nil
	case "o":
		if e := m.selected(); e != nil && e.URL != "" {
			openURL(e.URL)
		}
		return m, nil
	default:
		var cmd tea.Cmd
		m.detailViewport, cmd = m.detailViewport.Update(msg)
		return m, cmd
	}
}

func (m *auditModel) selected() *ledger.Entry {
	if m.cursor < 0 || m.cursor >= len(m.entries) {
		return nil
	}
	return &m.entries[m.cursor]
}

func (m *auditModel) recalcLayout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	// Header, border, and status bar take 5 rows.
	vp := viewport.New(m.width-2, m.height-5)
	if m.ready {
		vp.YOffset = m.viewport.YOffset
	}
	m.viewport = vp
	m.ready = true
	m.recalcContent()
	m.ensureCursorVisible()
}

func (m *auditModel) recalcContent() {
	if !m.ready {
		return
	}
	var b strings.Builder
	for i, e := range m.entries {
		title := e.Title
		if title == "" {
			title = fmt.Sprintf("posting %d", e.GupyID)
		}
		subtitle := fmt.Sprintf("%s · %s · seen %s", e.Company, e.WorkModel, e.FirstSeen.Format("2006-01-02 15:04"))
		if i == m.cursor {
			b.WriteString(selectedTitleStyle.Render(" "+title+" ") + "\n")
			b.WriteString(selectedSubtitleStyle.Render(" "+subtitle+" ") + "\n\n")
		} else {
			b.WriteString(entryTitleStyle.Render(title) + "\n")
			b.WriteString(entrySubtitleStyle.Render(subtitle) + "\n\n")
		}
	}
	m.viewport.SetContent(b.String())
}

func (m *auditModel) ensureCursorVisible() {
	if !m.ready {
		return
	}
	top := m.cursor * entryItemHeight
	bottom := top + entryItemHeight
	if top < m.viewport.YOffset {
		m.viewport.SetYOffset(top)
	} else if bottom > m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(bottom - m.viewport.Height)
	}
}

func (m auditModel) renderDetail() string {
	e := m.selected()
	if e == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(detailTitleStyle.Render(e.Title) + "\n")

	row := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label) + value + "\n")
	}
	row("Gupy ID", fmt.Sprintf("%d", e.GupyID))
	row("Search term", e.SearchTitle)
	row("Company", e.Company)
	row("Work model", e.WorkModel)
	row("URL", e.URL)
	row("First seen", e.FirstSeen.Format("2006-01-02 15:04:05"))

	return b.String()
}

func (m auditModel) View() string {
	if !m.ready {
		return "loading..."
	}

	if m.view == viewDetail {
		header := headerStyle.Render("Posting detail")
		body := borderStyle.Width(m.width - 2).Height(m.height - 4).Render(m.detailViewport.View())
		status := statusBarStyle.Width(m.width).Render("esc/b back  o open in browser  q quit")
		return header + "\n" + body + "\n" + status
	}

	header := headerStyle.Render(fmt.Sprintf("Recorded postings — %s (%d)", m.term, len(m.entries)))
	body := borderStyle.Width(m.width - 2).Height(m.height - 4).Render(m.viewport.View())
	status := statusBarStyle.Width(m.width).Render("↑/↓/j/k navigate  enter detail  o open  esc/b back  q quit")
	return header + "\n" + body + "\n" + status
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// RunAuditTUI launches the interactive ledger browser for one term.
// Returns wantQuit=true if the user pressed q/ctrl+c, false if they pressed
// esc to return to the picker.
func RunAuditTUI(term string, entries []ledger.Entry) (bool, error) {
	m := auditModel{
		term:    term,
		entries: entries,
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return true, err
	}

	final := result.(auditModel)
	return final.wantQuit, nil
}
