package caseconsole

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	domaintriage "fieldtriage/internal/domain/triage"
	"fieldtriage/internal/usecase/triage"
)

const maxShownTags = 6
const maxAuditLines = 8

type BoardOptions struct {
	PriorityFilter  string
	CategoryFilter  string
	ScopeFilter     string
	RefreshInterval time.Duration
}

type boardModel struct {
	ctx             context.Context
	engine          *triage.Service
	priorityFilter  string
	categoryFilter  string
	scopeFilter     string
	refreshInterval time.Duration

	cases          []domaintriage.Case
	queued         map[string]bool
	selectedIndex  int
	broadcastID    string
	broadcastSince time.Duration
	status         string
	auditLogs      []string
}

type casesLoadedMsg struct {
	items          []domaintriage.Case
	queuedIDs      []string
	broadcastID    string
	broadcastSince time.Duration
	err            error
}

type tickMsg struct{}

type actionDoneMsg struct {
	action string
	caseID string
	result string
	err    error
}

func NewBoardModel(ctx context.Context, engine *triage.Service, options BoardOptions) tea.Model {
	interval := options.RefreshInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}

	return &boardModel{
		ctx:             ctx,
		engine:          engine,
		priorityFilter:  strings.TrimSpace(strings.ToLower(options.PriorityFilter)),
		categoryFilter:  strings.TrimSpace(strings.ToLower(options.CategoryFilter)),
		scopeFilter:     normalizeScopeFilter(options.ScopeFilter),
		refreshInterval: interval,
		queued:          map[string]bool{},
		status:          "loading",
	}
}

func (m *boardModel) Init() tea.Cmd {
	return tea.Batch(m.loadCasesCmd(), m.tickCmd())
}

func (m *boardModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := message.(type) {
	case tickMsg:
		return m, tea.Batch(m.loadCasesCmd(), m.tickCmd())
	case casesLoadedMsg:
		if msg.err != nil {
			m.status = "refresh failed: " + msg.err.Error()
			return m, nil
		}
		m.cases = msg.items
		m.queued = map[string]bool{}
		for _, id := range msg.queuedIDs {
			m.queued[id] = true
		}
		m.broadcastID = msg.broadcastID
		m.broadcastSince = msg.broadcastSince
		if len(m.cases) == 0 {
			m.selectedIndex = 0
			m.status = "board is empty"
			return m, nil
		}
		if m.selectedIndex < 0 {
			m.selectedIndex = 0
		}
		if m.selectedIndex >= len(m.cases) {
			m.selectedIndex = len(m.cases) - 1
		}
		m.status = fmt.Sprintf("refreshed, %d cases", len(m.cases))
		return m, nil
	case actionDoneMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("%s failed: %v", msg.action, msg.err)
			m.appendAuditLog(msg.action, msg.caseID, "failed", msg.err)
		} else {
			m.status = fmt.Sprintf("%s done: %s", msg.action, msg.result)
			m.appendAuditLog(msg.action, msg.caseID, msg.result, nil)
		}
		return m, m.loadCasesCmd()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "g":
			m.status = "refreshing"
			return m, m.loadCasesCmd()
		case "up", "k":
			if m.selectedIndex > 0 {
				m.selectedIndex--
			}
			return m, nil
		case "down", "j":
			if m.selectedIndex < len(m.cases)-1 {
				m.selectedIndex++
			}
			return m, nil
		case "f":
			m.scopeFilter = nextScopeFilter(m.scopeFilter)
			m.status = "scope: " + m.scopeFilter
			return m, m.loadCasesCmd()
		case "r":
			return m, m.resolveCmd()
		case "c":
			return m, m.toggleConsultCmd()
		case "b":
			return m, m.toggleBroadcastCmd()
		}
	}
	return m, nil
}

func (m *boardModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true)
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("62"))

	var builder strings.Builder
	builder.WriteString(titleStyle.Render("Case Board"))
	builder.WriteString("\n")
	builder.WriteString(dimStyle.Render(fmt.Sprintf(
		"priority=%s category=%s scope=%s refresh=%s",
		firstNonEmpty(m.priorityFilter, "all"),
		firstNonEmpty(m.categoryFilter, "all"),
		m.scopeFilter,
		m.refreshInterval,
	)))
	builder.WriteString("\n\n")

	builder.WriteString(sectionStyle.Render("Cases"))
	builder.WriteString("\n")
	if len(m.cases) == 0 {
		builder.WriteString(dimStyle.Render("- no cases"))
		builder.WriteString("\n\n")
	} else {
		for index, item := range m.cases {
			line := formatBoardRow(item, m.queued[item.ID])
			if index == m.selectedIndex {
				builder.WriteString(selectedStyle.Render("> " + line))
			} else {
				builder.WriteString("  " + priorityStyle(item.Priority).Render(line))
			}
			builder.WriteString("\n")
		}
		builder.WriteString("\n")
	}

	builder.WriteString(sectionStyle.Render("Detail"))
	builder.WriteString("\n")
	if selected, ok := m.selectedCase(); ok {
		builder.WriteString(fmt.Sprintf("ID: %s\n", selected.ID))
		builder.WriteString(fmt.Sprintf("Category: %s\n", selected.Category))
		builder.WriteString(fmt.Sprintf("Priority: %s\n", selected.Priority))
		builder.WriteString(fmt.Sprintf("Created: %s\n", selected.CreatedAt.Format(time.RFC3339)))
		builder.WriteString(fmt.Sprintf("Subject: %s\n", subjectLabel(selected)))
		if len(selected.SymptomTags) > 0 {
			builder.WriteString(fmt.Sprintf("Symptoms: %s\n", joinCapped(selected.SymptomTags, maxShownTags)))
		}
		if len(selected.SupplyTags) > 0 {
			builder.WriteString(fmt.Sprintf("Supplies: %s\n", joinCapped(selected.SupplyTags, maxShownTags)))
		}
		if selected.LocationLabel != "" {
			builder.WriteString(fmt.Sprintf("Location: %s\n", selected.LocationLabel))
		}
		if selected.Coordinates != nil {
			builder.WriteString(fmt.Sprintf("Fix: %.5f,%.5f\n", selected.Coordinates.Lat, selected.Coordinates.Lng))
		}
		builder.WriteString(fmt.Sprintf("Resolved: %v\n", selected.Resolved))
		builder.WriteString(fmt.Sprintf("Queued: %v\n", m.queued[selected.ID]))
		if selected.Broadcasting {
			builder.WriteString(fmt.Sprintf("Broadcasting: yes (%s)\n", m.broadcastSince.Round(time.Second)))
		} else {
			builder.WriteString("Broadcasting: no\n")
		}
		builder.WriteString("\n")
	} else {
		builder.WriteString(dimStyle.Render("- no selection"))
		builder.WriteString("\n\n")
	}

	builder.WriteString(sectionStyle.Render("Status"))
	builder.WriteString("\n")
	builder.WriteString("- " + firstNonEmpty(m.status, "ready"))
	builder.WriteString("\n\n")

	builder.WriteString(sectionStyle.Render("Audit Log"))
	builder.WriteString("\n")
	if len(m.auditLogs) == 0 {
		builder.WriteString(dimStyle.Render("- no actions"))
		builder.WriteString("\n\n")
	} else {
		for _, line := range m.auditLogs {
			builder.WriteString("- " + line)
			builder.WriteString("\n")
		}
		builder.WriteString("\n")
	}

	builder.WriteString(dimStyle.Render("Keys: ↑/k ↓/j move  g refresh  f scope  r resolve  c consult  b broadcast  q quit"))
	return builder.String()
}

func (m *boardModel) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m *boardModel) loadCasesCmd() tea.Cmd {
	filter := triage.CaseFilter{
		Priority:   domaintriage.Priority(m.priorityFilter),
		Category:   domaintriage.Category(m.categoryFilter),
		Unresolved: m.scopeFilter == "unresolved",
		Resolved:   m.scopeFilter == "resolved",
	}
	return func() tea.Msg {
		items, err := m.engine.ListCasesFiltered(m.ctx, filter)
		if err != nil {
			return casesLoadedMsg{err: err}
		}
		queue, err := m.engine.ListConsultQueue(m.ctx)
		if err != nil {
			return casesLoadedMsg{err: err}
		}
		queuedIDs := make([]string, 0, len(queue))
		for _, queuedCase := range queue {
			queuedIDs = append(queuedIDs, queuedCase.ID)
		}
		loaded := casesLoadedMsg{items: sortBoard(items), queuedIDs: queuedIDs}
		if active, err := m.engine.CurrentBroadcast(m.ctx); err == nil && active != nil {
			loaded.broadcastID = active.ID
			if elapsed, ok, err := m.engine.BroadcastElapsed(m.ctx); err == nil && ok {
				loaded.broadcastSince = elapsed
			}
		}
		return loaded
	}
}

func (m *boardModel) resolveCmd() tea.Cmd {
	selected, ok := m.selectedCase()
	if !ok {
		m.status = "no case selected"
		return nil
	}
	caseID := selected.ID
	m.status = "resolving"
	return func() tea.Msg {
		if err := m.engine.ResolveCase(m.ctx, caseID); err != nil {
			return actionDoneMsg{action: "resolve", caseID: caseID, err: err}
		}
		return actionDoneMsg{action: "resolve", caseID: caseID, result: "resolved"}
	}
}

func (m *boardModel) toggleConsultCmd() tea.Cmd {
	selected, ok := m.selectedCase()
	if !ok {
		m.status = "no case selected"
		return nil
	}
	caseID := selected.ID
	isQueued := m.queued[caseID]
	m.status = "updating consult queue"
	return func() tea.Msg {
		if isQueued {
			if err := m.engine.DequeueConsult(m.ctx, caseID); err != nil {
				return actionDoneMsg{action: "dequeue", caseID: caseID, err: err}
			}
			return actionDoneMsg{action: "dequeue", caseID: caseID, result: "removed"}
		}
		if err := m.engine.EnqueueConsult(m.ctx, caseID); err != nil {
			return actionDoneMsg{action: "enqueue", caseID: caseID, err: err}
		}
		return actionDoneMsg{action: "enqueue", caseID: caseID, result: "queued"}
	}
}

func (m *boardModel) toggleBroadcastCmd() tea.Cmd {
	selected, ok := m.selectedCase()
	if !ok {
		m.status = "no case selected"
		return nil
	}
	caseID := selected.ID
	isActive := m.broadcastID == caseID
	m.status = "updating broadcast"
	return func() tea.Msg {
		if isActive {
			if err := m.engine.StopBroadcast(m.ctx); err != nil {
				return actionDoneMsg{action: "stop broadcast", caseID: caseID, err: err}
			}
			return actionDoneMsg{action: "stop broadcast", caseID: caseID, result: "stopped"}
		}
		if err := m.engine.StartBroadcast(m.ctx, caseID); err != nil {
			return actionDoneMsg{action: "start broadcast", caseID: caseID, err: err}
		}
		return actionDoneMsg{action: "start broadcast", caseID: caseID, result: "broadcasting"}
	}
}

func (m *boardModel) selectedCase() (domaintriage.Case, bool) {
	if len(m.cases) == 0 {
		return domaintriage.Case{}, false
	}
	if m.selectedIndex < 0 || m.selectedIndex >= len(m.cases) {
		return domaintriage.Case{}, false
	}
	return m.cases[m.selectedIndex], true
}

func (m *boardModel) appendAuditLog(action string, caseID string, result string, opErr error) {
	stamp := time.Now().Format("15:04:05")
	var line string
	if opErr != nil {
		line = fmt.Sprintf("%s %s %s: %v", stamp, action, shortID(caseID), opErr)
	} else {
		line = fmt.Sprintf("%s %s %s: %s", stamp, action, shortID(caseID), result)
	}
	m.auditLogs = append(m.auditLogs, line)
	if len(m.auditLogs) > maxAuditLines {
		m.auditLogs = m.auditLogs[len(m.auditLogs)-maxAuditLines:]
	}
}

// sortBoard orders rows red, blue, green, and newest first within a tier,
// which keeps the most actionable work at the top during an incident.
func sortBoard(items []domaintriage.Case) []domaintriage.Case {
	sorted := make([]domaintriage.Case, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		left, right := priorityRank(sorted[i].Priority), priorityRank(sorted[j].Priority)
		if left != right {
			return left < right
		}
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	return sorted
}

func priorityRank(priority domaintriage.Priority) int {
	switch priority {
	case domaintriage.PriorityRed:
		return 0
	case domaintriage.PriorityBlue:
		return 1
	default:
		return 2
	}
}

func priorityStyle(priority domaintriage.Priority) lipgloss.Style {
	switch priority {
	case domaintriage.PriorityRed:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	case domaintriage.PriorityBlue:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("40"))
	}
}

func formatBoardRow(item domaintriage.Case, queued bool) string {
	markers := make([]string, 0, 3)
	if item.Resolved {
		markers = append(markers, "resolved")
	}
	if item.Broadcasting {
		markers = append(markers, "broadcasting")
	}
	if queued {
		markers = append(markers, "queued")
	}
	marker := "-"
	if len(markers) > 0 {
		marker = strings.Join(markers, ",")
	}
	return fmt.Sprintf("%s [%s/%s] %s subject=%s", shortID(item.ID), item.Priority, item.Category, marker, subjectLabel(item))
}

func subjectLabel(item domaintriage.Case) string {
	if item.IsAnonymous {
		return "anonymous"
	}
	if name := strings.TrimSpace(item.SubjectName); name != "" {
		return name
	}
	return "-"
}

func normalizeScopeFilter(input string) string {
	switch strings.TrimSpace(strings.ToLower(input)) {
	case "unresolved":
		return "unresolved"
	case "resolved":
		return "resolved"
	default:
		return "all"
	}
}

func nextScopeFilter(current string) string {
	switch current {
	case "all":
		return "unresolved"
	case "unresolved":
		return "resolved"
	default:
		return "all"
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func joinCapped(values []string, limit int) string {
	if len(values) <= limit {
		return strings.Join(values, ",")
	}
	return strings.Join(values[:limit], ",") + fmt.Sprintf(",+%d", len(values)-limit)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
