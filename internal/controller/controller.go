// Package controller interprets dashboard actions against the backend and the
// state store. It is the store's only writer.
package controller

import (
	"context"
	"errors"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/theirongolddev/subkill/internal/api"
	"github.com/theirongolddev/subkill/internal/cli"
	"github.com/theirongolddev/subkill/internal/metrics"
	"github.com/theirongolddev/subkill/internal/model"
	"github.com/theirongolddev/subkill/internal/pain"
	"github.com/theirongolddev/subkill/internal/state"
	"github.com/theirongolddev/subkill/internal/view"
)

// Toast texts.
const (
	ToastLoadFailed    = "Ошибка загрузки данных"
	ToastSaved         = "✅ Сохранено!"
	ToastFailed        = "❌ Ошибка"
	ToastNetworkFailed = "❌ Ошибка сети"
	ToastAdded         = "✅ Подписка добавлена!"
	ToastFillForm      = "Заполни название и цену"
	ToastNoIdentity    = "Откройте через Telegram бота"
)

var errInvalidForm = errors.New("controller: name and price are required")

// Backend is the subset of the API client the controller needs.
type Backend interface {
	LoadAll(ctx context.Context, userID int64) *api.Bundle
	AddSubscription(ctx context.Context, userID int64, sub model.NewSubscription) (*model.CreateResult, error)
	UpdateSubscription(ctx context.Context, userID, subID int64, patch model.SubscriptionPatch) error
	DeleteSubscription(ctx context.Context, userID, subID int64) (*model.CancelResult, error)
	FindAlternatives(ctx context.Context, name string) ([]model.Alternative, error)
}

// Confirmer asks the user a yes/no question before destructive actions.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a func to Confirmer.
type ConfirmFunc func(prompt string) bool

// Confirm calls f.
func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Option configures a Controller.
type Option func(*Controller)

// WithConfirmer sets the confirmation prompt used before cancelling.
func WithConfirmer(c Confirmer) Option {
	return func(ctl *Controller) { ctl.confirm = c }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(ctl *Controller) { ctl.log = l }
}

// WithMetrics records reloads and the pain value.
func WithMetrics(m *metrics.Metrics) Option {
	return func(ctl *Controller) { ctl.metrics = m }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(ctl *Controller) { ctl.now = now }
}

// OnReload registers a hook run after every applied reload.
func OnReload(fn func(state.Snapshot, *api.Bundle)) Option {
	return func(ctl *Controller) { ctl.onReload = append(ctl.onReload, fn) }
}

// Controller dispatches actions. Dispatch is safe to call from several
// goroutines; store writes happen only here.
type Controller struct {
	backend  Backend
	store    *state.Store
	confirm  Confirmer
	log      logrus.FieldLogger
	metrics  *metrics.Metrics
	now      func() time.Time
	onReload []func(state.Snapshot, *api.Bundle)

	mu   sync.Mutex
	tab  Tab
	form Form
	pain pain.State
}

// New creates a controller writing to store.
func New(backend Backend, store *state.Store, opts ...Option) *Controller {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	c := &Controller{
		backend: backend,
		store:   store,
		log:     quiet,
		now:     time.Now,
		tab:     TabSubscriptions,
		form:    Form{Cycle: model.CycleMonthly},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store returns the store the controller writes to.
func (c *Controller) Store() *state.Store { return c.store }

// Tab returns the visible tab.
func (c *Controller) Tab() Tab {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tab
}

// Form returns the add form's current values.
func (c *Controller) Form() Form {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form
}

// SetForm replaces the add form's values as the user edits them.
func (c *Controller) SetForm(f Form) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form = f
}

// Pain returns the pain counter state.
func (c *Controller) Pain() pain.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pain
}

// TickPain advances the pain counter by one interval.
func (c *Controller) TickPain() pain.State {
	c.mu.Lock()
	c.pain = c.pain.Tick()
	s := c.pain
	c.mu.Unlock()

	c.metrics.SetPain(s.Accumulated(), s.PerMinute)
	return s
}

// Dispatch performs one action.
func (c *Controller) Dispatch(ctx context.Context, a Action) Outcome {
	log := c.log.WithField("action", a.action())

	switch a := a.(type) {
	case Reload:
		return c.reload(ctx)

	case SwitchTab:
		if !a.Tab.Valid() {
			return Outcome{}
		}
		c.mu.Lock()
		c.tab = a.Tab
		c.mu.Unlock()
		return Outcome{}

	case OpenModal:
		c.store.Open(a.SubID)
		return Outcome{}

	case CloseModal:
		c.store.Close()
		return Outcome{}

	case SaveUsage:
		patch := model.SubscriptionPatch{UsageLevel: &a.Level}
		err := c.backend.UpdateSubscription(ctx, c.userID(), a.SubID, patch)
		if err != nil {
			log.WithError(err).WithField("subscription_id", a.SubID).Warn("usage update failed")
			return Outcome{Toast: errorToast(err), Err: err}
		}
		c.store.Close()
		return c.afterMutation(ctx, ToastSaved)

	case CancelSubscription:
		sub, ok := c.store.Subscription(a.SubID)
		if !ok {
			return Outcome{}
		}
		if c.confirm == nil || !c.confirm.Confirm(view.CancelPrompt(sub)) {
			return Outcome{}
		}
		res, err := c.backend.DeleteSubscription(ctx, c.userID(), a.SubID)
		if err != nil {
			log.WithError(err).WithField("subscription_id", a.SubID).Warn("cancel failed")
			return Outcome{Toast: errorToast(err), Err: err}
		}
		c.store.Close()
		return c.afterMutation(ctx, CancelledToast(res.SavedMonthly))

	case FindAlternatives:
		alts, err := c.backend.FindAlternatives(ctx, a.Name)
		if err != nil {
			log.WithError(err).WithField("name", a.Name).Debug("alternatives lookup failed")
		}
		v := view.Alternatives(alts, err)
		return Outcome{Alternatives: &v, Err: err}

	case Submit:
		body, err := BuildSubscription(a.Form)
		if err != nil {
			c.SetForm(a.Form)
			return Outcome{Toast: ToastFillForm, Err: err}
		}
		if _, err := c.backend.AddSubscription(ctx, c.userID(), body); err != nil {
			log.WithError(err).WithField("name", body.Name).Warn("add failed")
			c.SetForm(a.Form)
			return Outcome{Toast: errorToast(err), Err: err}
		}
		c.mu.Lock()
		c.form = Form{Cycle: model.CycleMonthly}
		c.tab = TabSubscriptions
		c.mu.Unlock()
		return c.afterMutation(ctx, ToastAdded)

	case QuickAdd:
		c.mu.Lock()
		c.form = Form{
			Name:     a.Entry.Name,
			Price:    a.Entry.Price,
			Category: a.Entry.Category,
			Cycle:    model.CycleMonthly,
		}
		c.tab = TabAdd
		c.mu.Unlock()
		return Outcome{}
	}

	return Outcome{}
}

// CancelledToast is shown after a successful cancellation.
func CancelledToast(saved float64) string {
	return "✅ Отменена! Экономия: " + cli.FormatRubles(saved) + "/мес"
}

// BuildSubscription validates the add form and builds the request body.
func BuildSubscription(f Form) (model.NewSubscription, error) {
	name := strings.TrimSpace(f.Name)
	price, err := parsePrice(f.Price)
	if name == "" || err != nil || price == 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return model.NewSubscription{}, errInvalidForm
	}

	body := model.NewSubscription{
		Name:         name,
		Price:        price,
		Category:     f.Category,
		BillingCycle: f.Cycle,
		IsTrial:      f.Trial,
	}
	if body.Category == "" {
		body.Category = "other"
	}
	if body.BillingCycle == "" {
		body.BillingCycle = model.CycleMonthly
	}
	if date := strings.TrimSpace(f.Date); date != "" {
		body.NextBillingDate = &date
		if f.Trial {
			trialEnd := date
			body.TrialEndDate = &trialEnd
		}
	}
	return body, nil
}

var pricePrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// parsePrice reads the leading number of s, so "12 руб" is 12. A decimal
// comma is accepted.
func parsePrice(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	m := pricePrefix.FindString(s)
	if m == "" {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseFloat(m, 64)
}

func (c *Controller) afterMutation(ctx context.Context, toast string) Outcome {
	out := c.reload(ctx)
	if out.Toast == "" {
		out.Toast = toast
	}
	return out
}

func (c *Controller) reload(ctx context.Context) Outcome {
	start := c.now()
	b := c.backend.LoadAll(ctx, c.userID())
	c.store.Apply(b)

	if b.AnalyticsErr == nil && b.Analytics != nil {
		c.mu.Lock()
		c.pain = pain.Start(b.Analytics.PainCounter, c.now())
		s := c.pain
		c.mu.Unlock()
		c.metrics.SetPain(s.Accumulated(), s.PerMinute)
	}

	err := b.Err()
	c.metrics.RecordReload(err == nil)

	log := c.log.WithFields(logrus.Fields{
		"user_id":  c.userID(),
		"duration": c.now().Sub(start),
	})
	if err != nil {
		log.WithError(err).Warn("reload incomplete")
	} else {
		log.Debug("reload ok")
	}

	snap := c.store.Snapshot()
	for _, fn := range c.onReload {
		fn(snap, b)
	}

	out := Outcome{Reloaded: true, Err: err}
	if b.NetworkFailed() {
		out.Toast = ToastLoadFailed
	}
	return out
}

func (c *Controller) userID() int64 {
	return c.store.UserID()
}

func errorToast(err error) string {
	if api.IsNetwork(err) {
		return ToastNetworkFailed
	}
	return ToastFailed
}
