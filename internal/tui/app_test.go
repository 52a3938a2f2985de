package tui

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/theirongolddev/subkill/internal/api"
	"github.com/theirongolddev/subkill/internal/config"
	"github.com/theirongolddev/subkill/internal/controller"
	"github.com/theirongolddev/subkill/internal/model"
	"github.com/theirongolddev/subkill/internal/state"
	"github.com/theirongolddev/subkill/internal/tui/components"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
)

func init() {
	// Force TrueColor output so ANSI codes are generated in tests
	lipgloss.SetColorProfile(termenv.TrueColor)
}

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type stubBackend struct {
	mu      sync.Mutex
	subs    []model.Subscription
	loads   int
	deleted []int64
	patches []model.SubscriptionPatch

	deadlines int // requests that arrived with a context deadline
}

func newStubBackend() *stubBackend {
	return &stubBackend{subs: []model.Subscription{
		{ID: 2, Name: "Spotify", Price: 199, MonthlyPrice: 199, Category: "music", Status: model.StatusCancelled},
		{ID: 1, Name: "Netflix", Price: 999, MonthlyPrice: 999, Category: "streaming",
			Status: model.StatusActive, UsageLevel: model.UsageHigh},
	}}
}

func (s *stubBackend) LoadAll(ctx context.Context, _ int64) *api.Bundle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	s.noteDeadline(ctx)
	return &api.Bundle{
		User:          &model.User{FirstName: "Аня", TotalSaved: 300},
		Subscriptions: slices.Clone(s.subs),
		Analytics: &model.Analytics{
			TotalMonthly:  999,
			WastedMonthly: 199,
			HealthScore:   70,
			Categories:    map[string]float64{"streaming": 999},
			PainCounter:   &model.PainCounter{PerMinute: 6, Today: 10},
		},
		Popular: &model.PopularCatalog{
			Subscriptions: []model.PopularSubscription{
				{Name: "Яндекс Плюс", Price: 399, Category: "streaming"},
				{Name: "Spotify", Price: 199, Category: "music"},
			},
			Categories: map[string]string{"streaming": "🎬 Стриминг", "music": "🎵 Музыка"},
		},
		Achievements: &model.Achievements{},
		FetchedAt:    fixedNow,
	}
}

func (s *stubBackend) AddSubscription(context.Context, int64, model.NewSubscription) (*model.CreateResult, error) {
	return &model.CreateResult{Status: "ok"}, nil
}

func (s *stubBackend) UpdateSubscription(ctx context.Context, _, _ int64, patch model.SubscriptionPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noteDeadline(ctx)
	s.patches = append(s.patches, patch)
	return nil
}

func (s *stubBackend) DeleteSubscription(_ context.Context, _, subID int64) (*model.CancelResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, subID)
	s.subs = slices.DeleteFunc(s.subs, func(sub model.Subscription) bool { return sub.ID == subID })
	return &model.CancelResult{Status: "ok", SavedMonthly: 999}, nil
}

func (s *stubBackend) noteDeadline(ctx context.Context) {
	if _, ok := ctx.Deadline(); ok {
		s.deadlines++
	}
}

func (s *stubBackend) FindAlternatives(context.Context, string) ([]model.Alternative, error) {
	return []model.Alternative{{Name: "Кинопоиск", Price: 299, Coverage: 80}}, nil
}

func newTestApp(t *testing.T, backend *stubBackend, offline bool) App {
	t.Helper()
	ctl := controller.New(backend, state.New(42),
		controller.WithConfirmer(ModalConfirmed),
		controller.WithClock(func() time.Time { return fixedNow }),
	)
	a := NewApp(ctl, Options{Offline: offline, Now: func() time.Time { return fixedNow }})
	a, _ = step(a, tea.WindowSizeMsg{Width: 100, Height: 30})
	return a
}

func loadedApp(t *testing.T, backend *stubBackend) App {
	t.Helper()
	a := newTestApp(t, backend, false)
	a, _ = step(a, a.dispatch(controller.Reload{})())
	if !a.loaded || a.pending != 0 {
		t.Fatalf("after first reload loaded=%v pending=%d", a.loaded, a.pending)
	}
	return a
}

func step(a App, msg tea.Msg) (App, tea.Cmd) {
	m, cmd := a.Update(msg)
	return m.(App), cmd
}

func keys(a App, ks ...string) App {
	for _, k := range ks {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		a, _ = step(a, msg)
	}
	return a
}

func TestTabAtXMatchesTabWidths(t *testing.T) {
	a := loadedApp(t, newStubBackend())

	for active := range components.Tabs {
		a.switchTab(active)
		pos := 0

		for i, tab := range components.Tabs {
			w := components.TabVisualWidth(tab, i == active)
			x := pos + w/2 // midpoint inside this tab
			if got := a.tabAtX(x); got != i {
				t.Fatalf("active=%d x=%d -> tab=%d, want %d", active, x, got, i)
			}
			pos += w + 1 // separator
		}
		if got := a.tabAtX(pos + 5); got != -1 {
			t.Fatalf("x past the last tab -> %d, want -1", got)
		}
	}
}

func TestLoadingScreenIgnoresKeys(t *testing.T) {
	a := newTestApp(t, newStubBackend(), false)

	if !strings.Contains(a.View(), "Загружаю") {
		t.Fatal("loading screen should be shown before the first reload")
	}
	a = keys(a, "2")
	if a.ctl.Tab() != controller.TabSubscriptions {
		t.Fatal("keys must be ignored while loading")
	}
}

func TestNumberKeysSwitchTabs(t *testing.T) {
	a := loadedApp(t, newStubBackend())

	for i, want := range controller.Tabs {
		a = keys(a, string(components.Tabs[i].Key))
		if a.ctl.Tab() != want {
			t.Fatalf("key %q -> tab %s, want %s", components.Tabs[i].Key, a.ctl.Tab(), want)
		}
	}
}

func TestViewShowsSortedSubscriptions(t *testing.T) {
	a := loadedApp(t, newStubBackend())
	out := ansi.Strip(a.View())

	for _, want := range []string{"Netflix", "999₽", "Spotify", "Аня"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if strings.Index(out, "Netflix") > strings.Index(out, "Spotify") {
		t.Error("active subscription should render before cancelled")
	}
}

func TestDispatchAddsNoDeadline(t *testing.T) {
	backend := newStubBackend()
	a := loadedApp(t, backend)

	a = keys(a, "enter", "j")
	_, cmd := step(a, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("saving usage should dispatch")
	}
	cmd()

	if len(backend.patches) != 1 {
		t.Fatalf("patches = %d, want 1", len(backend.patches))
	}
	if backend.deadlines != 0 {
		t.Fatalf("%d requests carried a deadline; only the client timeout may bound them", backend.deadlines)
	}
}

func TestEnterOpensModalAndEscCloses(t *testing.T) {
	a := loadedApp(t, newStubBackend())

	a = keys(a, "enter")
	if id := a.snapshot().OpenSubscriptionID; id != 1 {
		t.Fatalf("open subscription = %d, want 1 (first sorted card)", id)
	}
	if !strings.Contains(a.View(), "Как часто пользуешься?") {
		t.Fatal("modal body not rendered")
	}

	a = keys(a, "esc")
	if a.modalOpen() {
		t.Fatal("esc should close the modal")
	}
}

func TestSaveUsageFromModal(t *testing.T) {
	backend := newStubBackend()
	a := loadedApp(t, backend)

	a = keys(a, "enter", "j")
	a, cmd := step(a, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("saving usage should dispatch")
	}
	a, _ = step(a, cmd())

	if len(backend.patches) != 1 || *backend.patches[0].UsageLevel != model.UsageMedium {
		t.Fatalf("patches = %+v, want one medium usage patch", backend.patches)
	}
	if a.toast != controller.ToastSaved {
		t.Fatalf("toast = %q", a.toast)
	}
	if a.modalOpen() {
		t.Fatal("modal should close after a successful save")
	}
}

func TestCancelConfirmsInsideModal(t *testing.T) {
	backend := newStubBackend()
	a := loadedApp(t, backend)

	a = keys(a, "enter", "x")
	if !a.modal.confirming {
		t.Fatal("x should ask for confirmation")
	}
	a = keys(a, "n")
	if a.modal.confirming || len(backend.deleted) != 0 {
		t.Fatal("declining must not cancel")
	}

	a = keys(a, "x")
	a, cmd := step(a, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	if cmd == nil {
		t.Fatal("confirming should dispatch")
	}
	a, _ = step(a, cmd())

	if !slices.Equal(backend.deleted, []int64{1}) {
		t.Fatalf("deleted = %v, want [1]", backend.deleted)
	}
	if !strings.Contains(a.toast, "999₽") {
		t.Fatalf("toast = %q, want saved amount", a.toast)
	}
	if a.modalOpen() {
		t.Fatal("modal should close after cancelling")
	}
}

func TestAlternativesPanel(t *testing.T) {
	a := loadedApp(t, newStubBackend())

	a = keys(a, "enter")
	a, cmd := step(a, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	if a.modal.alts == nil || !strings.Contains(a.View(), "Ищу") {
		t.Fatal("alternatives should show a loading state")
	}
	a, _ = step(a, cmd())
	out := a.View()
	if !strings.Contains(out, "Кинопоиск") || !strings.Contains(out, "Покрытие: 80%") {
		t.Fatal("alternatives not rendered")
	}
}

func TestOfflineBlocksMutations(t *testing.T) {
	backend := newStubBackend()
	a := newTestApp(t, backend, true)

	if !a.loaded {
		t.Fatal("offline app should render immediately")
	}
	a = keys(a, "r")
	if a.toast != ToastOffline {
		t.Fatalf("toast = %q, want offline notice", a.toast)
	}
	if backend.loads != 0 {
		t.Fatalf("offline app issued %d loads", backend.loads)
	}
}

func TestToastExpiresBySequence(t *testing.T) {
	a := loadedApp(t, newStubBackend())

	a.setToast("first")
	stale := a.toastSeq
	a.setToast("second")

	a, _ = step(a, toastExpiredMsg{seq: stale})
	if a.toast != "second" {
		t.Fatal("a stale expiry must not clear a newer toast")
	}
	a, _ = step(a, toastExpiredMsg{seq: a.toastSeq})
	if a.toast != "" {
		t.Fatal("current expiry should clear the toast")
	}
}

func TestQuickAddOpensPrefilledForm(t *testing.T) {
	a := loadedApp(t, newStubBackend())

	a = keys(a, "3", "enter")
	if a.add.form == nil {
		t.Fatal("quick add should open the form")
	}
	if a.add.vals.Name != "Яндекс Плюс" || a.add.vals.Price != "399" {
		t.Fatalf("form prefilled with %+v", *a.add.vals)
	}

	a = keys(a, "esc")
	if a.add.form != nil {
		t.Fatal("esc should leave the form")
	}
	if a.ctl.Form().Name != "Яндекс Плюс" {
		t.Fatal("leaving the form should keep its values")
	}
}

func TestSubmitFailureReopensForm(t *testing.T) {
	a := loadedApp(t, newStubBackend())
	a = keys(a, "3")

	a, _ = step(a, actionDoneMsg{
		action: controller.Submit{},
		out:    controller.Outcome{Toast: controller.ToastFillForm, Err: errors.New("invalid")},
	})
	if a.add.form == nil {
		t.Fatal("form should reopen after a failed submit")
	}
	if a.toast != controller.ToastFillForm {
		t.Fatalf("toast = %q", a.toast)
	}
}

func TestPainTickAdvancesCounter(t *testing.T) {
	a := loadedApp(t, newStubBackend())

	a, _ = step(a, painTickMsg{})
	if got := a.ctl.Pain().Ticks; got != 1 {
		t.Fatalf("ticks = %d, want 1", got)
	}
	a = keys(a, "2")
	if !strings.Contains(a.View(), "10.10₽") {
		t.Fatal("analytics tab should show the ticking counter")
	}
}

func TestSetupValuesApply(t *testing.T) {
	cfg := config.DefaultConfig()
	SetupValues{
		APIURL:    "http://subkiller.local:8080/",
		LaunchURL: "https://t.me/app?user_id=77",
		Theme:     "telegram",
	}.Apply(&cfg)

	if cfg.Backend.URL != "http://subkiller.local:8080" {
		t.Errorf("backend url = %q", cfg.Backend.URL)
	}
	if cfg.General.UserID != 77 {
		t.Errorf("user id = %d, want 77 from launch url", cfg.General.UserID)
	}
	if cfg.Appearance.Theme != "telegram" {
		t.Errorf("theme = %q", cfg.Appearance.Theme)
	}

	if validateBaseURL("ftp://x") == nil || validateUserID("-3") == nil || validateDate("10.03.2026") == nil {
		t.Error("validators should reject malformed input")
	}
}
