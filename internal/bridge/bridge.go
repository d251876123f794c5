// Package bridge connects the authenticated session to the realtime
// connection: it seeds the inbox from the REST API, listens for
// "notification" events and keeps the connection in step with the session.
package bridge

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/facilita/notifier/internal/auth"
	"github.com/facilita/notifier/internal/eventbus"
	"github.com/facilita/notifier/internal/inbox"
	"github.com/facilita/notifier/internal/model"
	"github.com/facilita/notifier/internal/socket"
	"github.com/facilita/notifier/internal/toast"
)

const (
	// NotificationEvent is the realtime event carrying a model.Event.
	NotificationEvent = "notification"
	// FetchLimit is the page size used to seed the inbox.
	FetchLimit = 50

	fetchTimeout = 15 * time.Second
)

// Fetcher loads the initial inbox state.
type Fetcher interface {
	ListNotifications(ctx context.Context, limit, offset int) ([]model.Notification, error)
	UnreadCount(ctx context.Context) (int, error)
}

// Config wires a Bridge. Session, Manager and Inbox are required.
type Config struct {
	Session *auth.Store
	Manager *socket.Manager
	Inbox   *inbox.Store
	Fetcher Fetcher

	// Toasts receives an info toast per inbound event when ForwardToasts
	// is set.
	Toasts        *toast.Notifier
	ForwardToasts bool

	// Updates is notified after every inbound event so open views reload.
	Updates *eventbus.Emitter

	Clock  clockwork.Clock
	NewID  func() string
	Logger *slog.Logger
}

// Bridge is the long-lived glue between session, connection and inbox.
type Bridge struct {
	cfg Config

	mu          sync.Mutex
	started     bool
	active      bool
	userID      string
	token       string
	conn        socket.Conn
	gen         int
	cancelFetch context.CancelFunc
	unsubscribe func()
	fetches     sync.WaitGroup
}

// New returns a stopped Bridge.
func New(cfg Config) *Bridge {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Bridge{cfg: cfg}
}

// Start subscribes to the session and applies its current state.
func (b *Bridge) Start() {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return
	}
	b.started = true
	b.mu.Unlock()

	unsub := b.cfg.Session.Subscribe(func(cur, _ auth.State) { b.apply(cur) })

	b.mu.Lock()
	b.unsubscribe = unsub
	b.mu.Unlock()

	b.apply(b.cfg.Session.Snapshot())
}

// Stop unsubscribes from the session and removes the event listener. The
// connection itself is left to the Manager.
func (b *Bridge) Stop() {
	b.mu.Lock()
	if !b.started {
		b.mu.Unlock()
		return
	}
	b.started = false
	unsub := b.unsubscribe
	b.unsubscribe = nil
	b.deactivateLocked()
	b.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	b.fetches.Wait()
}

// Active reports whether the bridge is listening for events.
func (b *Bridge) Active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

// Wait blocks until pending inbox fetches finish.
func (b *Bridge) Wait() {
	b.fetches.Wait()
}

func (b *Bridge) apply(st auth.State) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.started {
		return
	}

	if st.User == nil || st.AccessToken == "" {
		if b.active {
			b.cfg.Logger.Info("bridge: session ended, disconnecting")
		}
		b.deactivateLocked()
		b.cfg.Manager.Disconnect()
		return
	}

	switch {
	case !b.active:
		b.activateLocked(st)
	case st.User.ID != b.userID:
		b.cfg.Logger.Info("bridge: user changed, resetting", "user_id", st.User.ID)
		b.deactivateLocked()
		b.cfg.Inbox.Clear()
		b.cfg.Manager.Disconnect()
		b.activateLocked(st)
	case st.AccessToken != b.token:
		b.token = st.AccessToken
		if b.cfg.Manager.Current() != nil {
			b.cfg.Logger.Info("bridge: token refreshed, reconnecting")
			b.cfg.Manager.Reconnect()
		}
	}
}

func (b *Bridge) activateLocked(st auth.State) {
	b.active = true
	b.userID = st.User.ID
	b.token = st.AccessToken
	b.gen++

	b.conn = b.cfg.Manager.GetConnection()
	b.conn.On(NotificationEvent, b.handleEvent)

	if b.cfg.Fetcher != nil {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		b.cancelFetch = cancel
		gen := b.gen
		b.fetches.Add(1)
		go func() {
			defer b.fetches.Done()
			defer cancel()
			b.load(ctx, gen)
		}()
	}
}

func (b *Bridge) deactivateLocked() {
	if !b.active {
		return
	}
	b.active = false
	b.userID = ""
	b.token = ""
	if b.cancelFetch != nil {
		b.cancelFetch()
		b.cancelFetch = nil
	}
	if b.conn != nil {
		b.conn.Off(NotificationEvent)
		b.conn = nil
	}
}

// load seeds the inbox. Failures are logged and leave the inbox as it is.
func (b *Bridge) load(ctx context.Context, gen int) {
	in := b.cfg.Inbox
	in.SetLoading(true)
	defer in.SetLoading(false)

	var (
		wg      sync.WaitGroup
		list    []model.Notification
		count   int
		listErr error
		cntErr  error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		list, listErr = b.cfg.Fetcher.ListNotifications(ctx, FetchLimit, 0)
	}()
	go func() {
		defer wg.Done()
		count, cntErr = b.cfg.Fetcher.UnreadCount(ctx)
	}()
	wg.Wait()

	if listErr != nil || cntErr != nil {
		if ctx.Err() == nil {
			b.cfg.Logger.Error("bridge: failed to load notifications", "list_error", listErr, "count_error", cntErr)
		}
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.gen != gen || !b.active {
		return
	}
	in.Merge(list)
	in.SetUnreadCount(count)
}

func (b *Bridge) handleEvent(data json.RawMessage) {
	var ev model.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		b.cfg.Logger.Warn("bridge: dropping malformed notification", "error", err)
		return
	}

	id := ev.ID
	if id == "" {
		id = b.cfg.NewID()
	}
	n := model.Notification{
		ID:         id,
		Type:       ev.Type,
		EntityType: ev.EntityType,
		EntityID:   ev.EntityID,
		Title:      ev.Title,
		Message:    ev.Message,
		ActionURL:  ev.ActionURL,
		Metadata:   ev.Metadata,
		Read:       false,
		CreatedAt:  b.cfg.Clock.Now(),
	}
	if !b.cfg.Inbox.Add(n) {
		b.cfg.Logger.Debug("bridge: duplicate notification ignored", "id", id)
	}

	if b.cfg.ForwardToasts && b.cfg.Toasts != nil {
		b.cfg.Toasts.Info(n.Message, toast.WithTitle(n.Title))
	}
	if b.cfg.Updates != nil {
		b.cfg.Updates.Notify()
	}
}
