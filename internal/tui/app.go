// Package tui provides the interactive Bubble Tea dashboard for subkill.
package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/theirongolddev/subkill/internal/controller"
	"github.com/theirongolddev/subkill/internal/pain"
	"github.com/theirongolddev/subkill/internal/state"
	"github.com/theirongolddev/subkill/internal/tui/components"
	"github.com/theirongolddev/subkill/internal/tui/theme"
	"github.com/theirongolddev/subkill/internal/view"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ToastOffline is shown when a mutation or reload is attempted in offline mode.
const ToastOffline = "Офлайн: изменения недоступны"

const (
	minTerminalWidth = 60
	maxContentWidth  = 120
	minContentHeight = 5

	toastTTL = 3 * time.Second
)

// ModalConfirmed approves every cancellation. The dashboard asks y/n inside
// the modal before it dispatches CancelSubscription.
var ModalConfirmed controller.Confirmer = controller.ConfirmFunc(func(string) bool { return true })

// actionDoneMsg carries the outcome of an action dispatched off the UI loop.
type actionDoneMsg struct {
	action controller.Action
	out    controller.Outcome
}

type painTickMsg struct{}

type toastExpiredMsg struct{ seq int }

// Options configures NewApp.
type Options struct {
	Offline     bool             // render the cached snapshot only
	ReloadEvery time.Duration    // 0 disables periodic reloads
	Now         func() time.Time // defaults to time.Now
}

// App is the root Bubble Tea model.
type App struct {
	ctl         *controller.Controller
	offline     bool
	reloadEvery time.Duration
	now         func() time.Time

	loaded     bool
	pending    int // dispatched actions not yet answered
	lastReload time.Time

	// UI state
	width    int
	height   int
	showHelp bool
	cursor   int // subscriptions list

	modal modalState
	add   addState

	toast    string
	toastSeq int

	spinner spinner.Model
}

// NewApp creates the dashboard over ctl. A store restored from cache is
// shown immediately; otherwise the loading screen stays up until the first
// reload answers.
func NewApp(ctl *controller.Controller, opts Options) App {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	snap := ctl.Store().Snapshot()
	a := App{
		ctl:         ctl,
		offline:     opts.Offline,
		reloadEvery: opts.ReloadEvery,
		now:         now,
		loaded:      opts.Offline || snap.Generation > 0,
		lastReload:  snap.LoadedAt,
		spinner:     sp,
	}
	if !a.offline {
		a.pending = 1 // initial reload from Init
	}
	return a
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnableMouseCellMotion,
		a.spinner.Tick,
		painTickCmd(),
	}
	if !a.offline {
		cmds = append(cmds, a.dispatch(controller.Reload{}))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.add.form != nil {
			a.add.form = a.add.form.WithWidth(a.formWidth())
		}
		return a, nil

	case tea.MouseMsg:
		return a.updateMouse(msg)

	case tea.KeyMsg:
		return a.updateKey(msg)

	case actionDoneMsg:
		return a.handleDone(msg)

	case painTickMsg:
		a.ctl.TickPain()
		cmds := []tea.Cmd{painTickCmd()}
		if a.reloadDue() {
			a.pending++
			cmds = append(cmds, a.dispatch(controller.Reload{}))
		}
		return a, tea.Batch(cmds...)

	case toastExpiredMsg:
		if msg.seq == a.toastSeq {
			a.toast = ""
		}
		return a, nil

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	// Forward unhandled messages to the add form (cursor blinks, etc.)
	if a.add.form != nil {
		return a.updateAddForm(msg)
	}
	return a, nil
}

func (a App) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if !a.loaded || a.showHelp || a.add.form != nil || a.modalOpen() {
		return a, nil
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		if a.ctl.Tab() == controller.TabSubscriptions && a.cursor > 0 {
			a.cursor--
		}
	case tea.MouseButtonWheelDown:
		if a.ctl.Tab() == controller.TabSubscriptions {
			a.cursor = min(a.cursor+1, max(a.subscriptionCount()-1, 0))
		}
	case tea.MouseButtonLeft:
		if msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				a.switchTab(tab)
			}
		}
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// Global: quit
	if key == "ctrl+c" {
		return a, tea.Quit
	}

	if !a.loaded {
		return a, nil
	}

	// The add form intercepts all keys
	if a.add.form != nil {
		if key == "esc" {
			a.ctl.SetForm(*a.add.vals)
			a.add.form = nil
			return a, nil
		}
		return a.updateAddForm(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	if a.modalOpen() {
		return a.updateModal(key)
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "r":
		return a.mutate(controller.Reload{})
	case "left":
		a.switchTab((a.tabIndex() - 1 + len(controller.Tabs)) % len(controller.Tabs))
		return a, nil
	case "right", "tab":
		a.switchTab((a.tabIndex() + 1) % len(controller.Tabs))
		return a, nil
	}

	if msg.Type == tea.KeyRunes && len(msg.Runes) == 1 {
		if idx := components.TabIdxByKey(msg.Runes[0]); idx >= 0 {
			a.switchTab(idx)
			return a, nil
		}
	}

	switch a.ctl.Tab() {
	case controller.TabSubscriptions:
		return a.updateSubscriptions(key)
	case controller.TabAdd:
		return a.updateAddGrid(key)
	}
	return a, nil
}

func (a App) handleDone(msg actionDoneMsg) (tea.Model, tea.Cmd) {
	a.pending = max(a.pending-1, 0)
	out := msg.out

	if out.Reloaded {
		a.loaded = true
		a.lastReload = a.now()
		a.cursor = min(a.cursor, max(a.subscriptionCount()-1, 0))
	}

	var cmds []tea.Cmd
	switch act := msg.action.(type) {
	case controller.FindAlternatives:
		if a.modal.altsFor == act.SubID && out.Alternatives != nil {
			a.modal.alts = out.Alternatives
		}
	case controller.SaveUsage, controller.CancelSubscription:
		a.modal.confirming = false
		if out.Err == nil {
			a.modal = modalState{}
		}
	case controller.Submit:
		if out.Err == nil {
			a.add = addState{}
		} else {
			cmds = append(cmds, a.openAddForm())
		}
	}

	cmds = append(cmds, a.setToast(out.Toast))
	return a, tea.Batch(cmds...)
}

// dispatch runs act off the UI loop and reports back with actionDoneMsg.
func (a App) dispatch(act controller.Action) tea.Cmd {
	ctl := a.ctl
	return func() tea.Msg {
		return actionDoneMsg{action: act, out: ctl.Dispatch(context.Background(), act)}
	}
}

// mutate dispatches an action that needs the backend.
func (a App) mutate(act controller.Action) (tea.Model, tea.Cmd) {
	if a.offline {
		return a, a.setToast(ToastOffline)
	}
	a.pending++
	return a, a.dispatch(act)
}

// apply runs a local, non-blocking action inline.
func (a App) apply(act controller.Action) {
	a.ctl.Dispatch(context.Background(), act)
}

func (a *App) setToast(s string) tea.Cmd {
	if s == "" {
		return nil
	}
	a.toastSeq++
	a.toast = s
	seq := a.toastSeq
	return tea.Tick(toastTTL, func(time.Time) tea.Msg {
		return toastExpiredMsg{seq: seq}
	})
}

func (a App) reloadDue() bool {
	if a.offline || a.reloadEvery <= 0 || a.pending > 0 || !a.loaded {
		return false
	}
	return a.now().Sub(a.lastReload) >= a.reloadEvery
}

func (a *App) switchTab(idx int) {
	if idx < 0 || idx >= len(controller.Tabs) {
		return
	}
	a.apply(controller.SwitchTab{Tab: controller.Tabs[idx]})
}

func (a App) tabIndex() int {
	return max(slices.Index(controller.Tabs, a.ctl.Tab()), 0)
}

func (a App) snapshot() state.Snapshot {
	return a.ctl.Store().Snapshot()
}

func (a App) modalOpen() bool {
	return a.snapshot().OpenSubscriptionID != 0
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}

	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}

	if !a.loaded {
		return a.viewLoading()
	}

	if a.showHelp {
		return a.viewHelp()
	}

	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)

	msg := fmt.Sprintf(
		"\n  Окно слишком узкое (%d колонок)\n\n  subkill нужно минимум %d.\n",
		a.width,
		minTerminalWidth,
	)

	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)

	logoStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.Surface).
		Bold(true)

	subtitleStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("🔪 SubKiller"))
	b.WriteString(subtitleStyle.Render(" · подписки под контролем"))
	b.WriteString("\n\n")
	b.WriteString(a.spinner.View())
	b.WriteString(subtitleStyle.Render(" Загружаю данные..."))

	card := cardStyle.Render(b.String())

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)

	titleStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.Surface).
		Bold(true)

	sectionStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface).
		Bold(true)

	keyStyle := lipgloss.NewStyle().
		Foreground(t.Saved).
		Background(t.Surface).
		Bold(true)

	descStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	dimStyle := lipgloss.NewStyle().
		Foreground(t.TextDim).
		Background(t.Surface)

	sections := []struct {
		title    string
		bindings []struct{ key, desc string }
	}{
		{"Навигация", []struct{ key, desc string }{
			{"1 2 3 4", "Перейти на вкладку"},
			{"← →", "Предыдущая / следующая вкладка"},
			{"j k", "Выбор в списке"},
			{"Enter", "Открыть подписку"},
		}},
		{"Подписка", []struct{ key, desc string }{
			{"j k Enter", "Выбрать и сохранить использование"},
			{"x", "Отменить подписку"},
			{"a", "Найти альтернативы"},
			{"Esc", "Закрыть"},
		}},
		{"Добавление", []struct{ key, desc string }{
			{"Enter", "Быстро добавить из каталога"},
			{"n", "Новая подписка"},
		}},
		{"Общее", []struct{ key, desc string }{
			{"r", "Обновить"},
			{"?", "Справка"},
			{"q", "Выход"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("🔪 Горячие клавиши"))
	b.WriteString("\n")
	for _, s := range sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(s.title))
		b.WriteString("\n")
		for _, bind := range s.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
				descStyle.Render(bind.desc))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Любая клавиша закроет справку"))

	card := cardStyle.Render(b.String())

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height
	snap := a.snapshot()

	header := components.RenderTabBar(a.tabIndex(), w)

	statusBar := components.RenderStatusBar(w, components.StatusInfo{
		Toast:    a.toast,
		Badge:    view.Badge(snap.User),
		DataAge:  dataAge(snap.LoadedAt),
		Busy:     a.pending > 0,
		Offline:  a.offline,
		KeyHints: a.keyHints(),
	})

	headerH := lipgloss.Height(header)
	statusH := lipgloss.Height(statusBar)
	contentH := max(h-headerH-statusH, minContentHeight)

	var content string
	if sub, ok := snap.OpenSubscription(); ok {
		content = a.renderModal(sub, cw)
	} else {
		switch a.ctl.Tab() {
		case controller.TabSubscriptions:
			content = a.renderSubscriptionsTab(snap, cw, contentH)
		case controller.TabAnalytics:
			content = a.renderAnalyticsTab(snap, cw)
		case controller.TabAdd:
			content = a.renderAddTab(snap, cw)
		case controller.TabAchievements:
			content = a.renderAchievementsTab(snap, cw)
		}
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)

	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) keyHints() string {
	switch {
	case a.add.form != nil:
		return "tab след. поле · enter далее · esc назад"
	case a.modalOpen():
		if a.modal.confirming {
			return "y отменить · n оставить"
		}
		return "j/k использование · enter сохранить · x отменить · a альтернативы · esc закрыть"
	}
	switch a.ctl.Tab() {
	case controller.TabSubscriptions:
		return "j/k выбор · enter открыть · r обновить · ? справка"
	case controller.TabAdd:
		return "hjkl выбор · enter добавить · n новая · ? справка"
	}
	return "1-4 вкладки · r обновить · ? справка · q выход"
}

// painBanner renders the live "money wasted today" line.
func (a App) painBanner(width int) string {
	t := theme.Active
	s := a.ctl.Pain()
	d := s.Display()

	style := lipgloss.NewStyle().Foreground(t.Waste).Background(t.Surface).Bold(true)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	line := style.Render("🔥 Утекает: "+d.Amount) + muted.Render("  "+d.Today)
	if s.Running {
		line += muted.Render(fmt.Sprintf("  +%.2f₽/сек", s.PerSecond()))
	}
	return lipgloss.NewStyle().Background(t.Surface).Width(width).Render(" " + line)
}

// ─── Helpers ────────────────────────────────────────────────────

func painTickCmd() tea.Cmd {
	return tea.Tick(pain.Interval, func(time.Time) tea.Msg {
		return painTickMsg{}
	})
}

func dataAge(loadedAt time.Time) string {
	if loadedAt.IsZero() {
		return ""
	}
	return "обновлено " + loadedAt.Local().Format("15:04")
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")

	var result strings.Builder
	for i, line := range lines {
		placed := lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
		result.WriteString(placed)
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

// ─── Mouse Support ──────────────────────────────────────────────

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes are derived from the same width rules used by RenderTabBar.
func (a App) tabAtX(x int) int {
	active := a.tabIndex()
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == active)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW

		// Separator is one column between tabs.
		if i < len(components.Tabs)-1 {
			pos++
		}
	}
	return -1
}
