package tui

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"unirag/internal/domain"
)

// RAGPort is the TUI-facing subset of the RAG engine.
type RAGPort interface {
	ProcessQuery(ctx context.Context, query string, k int) domain.QueryResult
	CheckStatus(ctx context.Context) domain.Status
}

type exchange struct {
	result  domain.QueryResult
	pending bool
	query   string
}

type answerMsg struct{ result domain.QueryResult }

type statusMsg struct{ status domain.Status }

// Model is the Bubble Tea model for the chat front-end.
type Model struct {
	ctx      context.Context
	service  RAGPort
	title    string
	topK     int
	input    textinput.Model
	viewport viewport.Model
	history  []exchange
	status   string
	health   *domain.Status
	busy     bool
	ready    bool
}

// New creates a new chat model. ctx bounds every query the model issues.
func New(ctx context.Context, service RAGPort, title string, topK int) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ihre Frage..."
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		ctx:      ctx,
		service:  service,
		title:    title,
		topK:     topK,
		input:    ti,
		viewport: vp,
		status:   "Systemstatus wird geprüft...",
	}
}

// Init starts the cursor blink and the status check.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.checkStatus())
}

func (m Model) checkStatus() tea.Cmd {
	return func() tea.Msg { return statusMsg{status: m.service.CheckStatus(m.ctx)} }
}

func (m Model) ask(q string) tea.Cmd {
	return func() tea.Msg { return answerMsg{result: m.service.ProcessQuery(m.ctx, q, m.topK)} }
}

// Update handles key, window and result events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		totalHeaderLines := 2                                    // title + health
		totalFooterLines := 1                                    // status
		reserved := totalHeaderLines + totalFooterLines + qh + 1 // 1 spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width-4)
		m.viewport.Height = max(3, vh-rh)
		m.refresh()
		return m, nil
	case statusMsg:
		st := msg.status
		m.health = &st
		if st.Healthy() {
			m.status = "Bereit. Stellen Sie Ihre Frage."
		} else {
			m.status = "Achtung: nicht alle Komponenten sind verfügbar."
		}
		return m, nil
	case answerMsg:
		m.busy = false
		if n := len(m.history); n > 0 {
			m.history[n-1] = exchange{query: m.history[n-1].query, result: msg.result}
		}
		if msg.result.Success {
			m.status = fmt.Sprintf("%d Textstellen verwendet.", msg.result.ContextCount)
		} else {
			m.status = "Keine passenden Dokumente gefunden."
		}
		m.refresh()
		m.viewport.GotoBottom()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.busy {
				return m, nil
			}
			m.busy = true
			m.history = append(m.history, exchange{query: q, pending: true})
			m.input.SetValue("")
			m.status = "Suche in den Dokumenten..."
			m.refresh()
			m.viewport.GotoBottom()
			return m, m.ask(q)
		case "up", "down", "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render(m.title)
	health := mutedStyle.Render(m.renderHealth())
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + health + "\n" + results + "\n" + input + "\n" + status
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderHistory())
}

func (m Model) renderHealth() string {
	if m.health == nil {
		return "Vektordatenbank ?  Embeddings ?  Ollama ?"
	}
	mark := func(ok bool) string {
		if ok {
			return "✓"
		}
		return "✗"
	}
	return fmt.Sprintf("Vektordatenbank %s (%d Einträge)  Embeddings %s  Ollama %s",
		mark(m.health.VectorStore), m.health.RecordCount, mark(m.health.Embedder), mark(m.health.Generator))
}

func (m Model) renderHistory() string {
	if len(m.history) == 0 {
		return "Stellen Sie eine Frage zu Studien- und Prüfungsordnungen."
	}
	width := m.viewport.Width
	var b strings.Builder
	for i, ex := range m.history {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(questionStyle.Render("Sie: ") + ex.query + "\n")
		if ex.pending {
			b.WriteString(mutedStyle.Render("Antwort wird erstellt..."))
			continue
		}
		answer := highlightBestSentence(ex.result.Answer, ex.query)
		if width > 0 {
			answer = lipgloss.NewStyle().Width(width).Render(answer)
		}
		b.WriteString(answer)
		if len(ex.result.Sources) > 0 {
			b.WriteString("\n" + mutedStyle.Render(fmt.Sprintf("Verwendete Quellen (%d):", len(ex.result.Sources))))
			for j, s := range ex.result.Sources {
				b.WriteString("\n" + mutedStyle.Render(fmt.Sprintf("  Quelle %d: %s - %s (Seite %d)", j+1, s.Filename, s.Title, s.PageNumber)))
			}
		}
	}
	return b.String()
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	questionStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	unicodeWordRe  = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe     = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

// highlightBestSentence emphasises the answer sentence sharing the most
// words with the question.
func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := splitSentences(text)
	qTokens := toTokenSet(query)
	if len(qTokens) == 0 {
		return strings.Join(sentences, " ")
	}
	bestIdx := 0
	bestScore := 0
	for i, s := range sentences {
		score := tokenOverlapScore(qTokens, s)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	for i := range sentences {
		sent := strings.TrimSpace(sentences[i])
		if i == bestIdx && bestScore > 0 {
			sentences[i] = highlightStyle.Render(sent)
		} else {
			sentences[i] = sent
		}
	}
	return strings.Join(sentences, " ")
}

// splitSentences keeps trailing text that lacks closing punctuation.
func splitSentences(text string) []string {
	var out []string
	end := 0
	for _, loc := range sentenceRe.FindAllStringIndex(text, -1) {
		out = append(out, text[loc[0]:loc[1]])
		end = loc[1]
	}
	if rest := strings.TrimSpace(text[end:]); rest != "" {
		out = append(out, rest)
	}
	return out
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	tokens := unicodeWordRe.FindAllString(strings.ToLower(sentence), -1)
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
