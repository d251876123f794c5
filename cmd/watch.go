package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/facilita/notifier/internal/bridge"
	"github.com/facilita/notifier/internal/config"
	"github.com/facilita/notifier/internal/eventbus"
	"github.com/facilita/notifier/internal/inbox"
	"github.com/facilita/notifier/internal/render"
	"github.com/facilita/notifier/internal/socket"
	"github.com/facilita/notifier/internal/toast"
)

// NewWatchCmd returns the "watch" subcommand: the live terminal client.
func NewWatchCmd(cfg *config.AppConfig) *cobra.Command {
	var (
		width  int
		toasts bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Show toasts and the notification bell live",
		Long: `Connect to the realtime gateway with the stored session and redraw the
notification bell and toast stack as events arrive.

Type a command and press Enter:
  r <n>   mark the n-th notification as read
  R       mark all as read
  d <n>   delete the n-th notification
  q       quit (Ctrl-C works too)`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("toasts") {
				cfg.ToastNotifications = toasts
			}
			return runWatch(cmd.Context(), cfg, width)
		},
	}

	cmd.Flags().IntVar(&width, "width", 64, "Render width in columns")
	cmd.Flags().BoolVar(&toasts, "toasts", cfg.ToastNotifications, "Also show each notification as a toast (overrides CLIENT_TOAST_NOTIFICATIONS)")
	return cmd
}

func runWatch(parent context.Context, cfg *config.AppConfig, width int) error {
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	env, err := openClientEnv(ctx, cfg)
	if err != nil {
		return err
	}
	defer env.Close()
	if err := env.requireLogin(); err != nil {
		return err
	}

	clock := clockwork.NewRealClock()
	toastStore := toast.NewStore(toast.WithClock(clock))
	dismisser := toast.NewDismisser(toastStore, clock)
	defer dismisser.Close()
	notifier := toast.NewNotifier(toastStore)
	connErrors := toast.NewChangeWatcher(toastStore, toast.VariantError, toast.WithTitle("Connection"))

	inboxStore := inbox.NewStore()
	updates := eventbus.NewEmitter(env.logger)

	manager := socket.NewManager(
		socket.NewClientFactory(socket.Options{ServerURL: cfg.ServerURL(), Logger: env.logger}),
		func() string { return env.session.Snapshot().AccessToken },
		env.logger,
	)
	defer manager.Disconnect()

	b := bridge.New(bridge.Config{
		Session:       env.session,
		Manager:       manager,
		Inbox:         inboxStore,
		Fetcher:       env.api,
		Toasts:        notifier,
		ForwardToasts: cfg.ToastNotifications,
		Updates:       updates,
		Clock:         clock,
		Logger:        env.logger,
	})

	// One pending redraw is enough; bursts collapse into it.
	dirty := make(chan struct{}, 1)
	markDirty := func() {
		select {
		case dirty <- struct{}{}:
		default:
		}
	}
	defer toastStore.Subscribe(func([]toast.Toast) { markDirty() })()
	defer inboxStore.Subscribe(func(inbox.State) { markDirty() })()
	defer updates.Subscribe(markDirty)()

	b.Start()
	defer b.Stop()

	actions := &bell{api: env.api, inbox: inboxStore}
	commands := readCommands(os.Stdin)

	out := termenv.NewOutput(os.Stdout)
	out.HideCursor()
	defer out.ShowCursor()

	var watched socket.Conn
	ticker := clock.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		// The bridge recreates the connection when the user changes; follow it.
		if conn := manager.Current(); conn != nil && conn != watched {
			watched = conn
			conn.On(socket.EventConnect, func(json.RawMessage) {
				connErrors.Observe("")
				markDirty()
			})
			conn.On(socket.EventDisconnect, func(json.RawMessage) { markDirty() })
			conn.On(socket.EventConnectError, func(data json.RawMessage) {
				var reason string
				_ = json.Unmarshal(data, &reason)
				connErrors.Observe("Realtime connection failed: " + reason)
			})
		}

		draw(out, env, manager, inboxStore, toastStore, width, clock.Now())

		select {
		case <-ctx.Done():
			out.ClearScreen()
			fmt.Fprintln(out, "Bye.")
			return nil
		case line, ok := <-commands:
			if !ok {
				commands = nil
				continue
			}
			msg, err := actions.run(ctx, line)
			switch {
			case errors.Is(err, errQuit):
				out.ClearScreen()
				return nil
			case err != nil:
				env.logger.Warn("watch: command failed", "command", line, "error", err)
				notifier.Error(err.Error())
			case msg != "":
				notifier.Success(msg)
			}
		case <-dirty:
		case <-ticker.Chan():
		}
	}
}

func draw(out *termenv.Output, env *clientEnv, manager *socket.Manager, in *inbox.Store, ts *toast.Store, width int, now time.Time) {
	connected, transport := false, ""
	if conn := manager.Current(); conn != nil {
		connected = conn.Connected()
		if c, ok := conn.(*socket.Client); ok {
			transport = c.Transport()
		}
	}
	user := ""
	if u := env.session.Snapshot().User; u != nil {
		user = u.Email
	}

	screen := render.Screen(render.Status(connected, transport, user), in.Snapshot(), ts.List(), width, now)
	out.ClearScreen()
	fmt.Fprintln(out, screen)
}

// readCommands delivers the lines typed on r. The channel is closed at EOF.
func readCommands(r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			ch <- sc.Text()
		}
	}()
	return ch
}
