package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"stories/internal/clock"
	"stories/internal/eventloop"
	"stories/internal/remote"
	"stories/internal/service"
	"stories/internal/slideshow"
)

// errQuit ends an interactive session.
var errQuit = errors.New("quit")

// terminal receives the slideshow gesture bindings so typed keys can drive
// them.
type terminal struct {
	hold slideshow.HoldHandler
	nav  slideshow.Navigator
}

func (t *terminal) BindHold(h slideshow.HoldHandler)     { t.hold = h }
func (t *terminal) BindNavigation(n slideshow.Navigator) { t.nav = n }

// session is a slideshow owned by an event loop and driven by text commands.
type session struct {
	loop    *eventloop.Loop
	show    *slideshow.Slideshow
	term    *terminal
	entries []service.Entry
	out     io.Writer
}

func printHooks(out io.Writer, entries []service.Entry) slideshow.Hooks {
	return slideshow.Hooks{
		OnActivate: func(i int, _ slideshow.Item) {
			e := entries[i]
			fmt.Fprintf(out, "[%d/%d] %s (%s)\n", i+1, len(entries), e.Path, e.Kind)
		},
		OnAutoplayDurationSet: func(_ int, d time.Duration) {
			fmt.Fprintf(out, "  showing for %s\n", d)
		},
		OnPause:  func() { fmt.Fprintln(out, "  paused") },
		OnResume: func() { fmt.Fprintln(out, "  resumed") },
	}
}

// newSession builds the slideshow on the loop. The loop must be running.
func newSession(ctx context.Context, loop *eventloop.Loop, clk clock.Clock, entries []service.Entry, out io.Writer, extra slideshow.Hooks) (*session, error) {
	s := &session{loop: loop, term: &terminal{}, entries: entries, out: out}
	var err error
	doErr := loop.Do(ctx, func() {
		s.show, err = slideshow.New(slideshow.Config{
			Items:     service.BuildItems(entries, clk, nil),
			Container: s.term,
			Controls:  s.term,
			Duration:  cfg.Duration,
			HoldDelay: cfg.HoldDelay,
			Clock:     clk,
			Hooks:     printHooks(out, entries).Then(extra),
			Logger:    func(msg string) { fmt.Fprintf(out, "  %s\n", msg) },
		})
	})
	if doErr != nil {
		return nil, doErr
	}
	return s, err
}

// handle runs one command line. It returns errQuit for q.
func (s *session) handle(ctx context.Context, line string) error {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return nil
	}
	var err error
	doErr := s.loop.Do(ctx, func() {
		switch fields[0] {
		case "n", "next":
			s.term.nav.OnNavigateNext()
		case "p", "prev":
			s.term.nav.OnNavigatePrev()
		case "h", "hold":
			s.term.hold.OnHoldStart()
		case "r", "release":
			s.term.hold.OnHoldEnd(slideshow.None)
		case "t", "toggle":
			s.show.TogglePlayPause()
		case "s", "status":
			s.printStatus()
		case "q", "quit":
			s.show.Stop()
			err = errQuit
		case "?", "help":
			printPlayHelp(s.out)
		default:
			err = fmt.Errorf("unknown command %q", fields[0])
		}
	})
	if doErr != nil {
		return doErr
	}
	return err
}

func (s *session) printStatus() {
	state := "playing"
	switch {
	case s.show.Holding():
		state = "holding"
	case s.show.Paused():
		state = "paused"
	}
	i := s.show.Index()
	fmt.Fprintf(s.out, "%d/%d %s  %s  %s left\n", i+1, s.show.Len(), filepath.Base(s.entries[i].Path),
		state, s.show.Remaining().Round(100*time.Millisecond))
}

func printPlayHelp(out io.Writer) {
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  n, next      next item")
	fmt.Fprintln(out, "  p, prev      previous item")
	fmt.Fprintln(out, "  h, hold      press and hold")
	fmt.Fprintln(out, "  r, release   release the hold")
	fmt.Fprintln(out, "  t, toggle    pause or resume")
	fmt.Fprintln(out, "  s, status    show position and time left")
	fmt.Fprintln(out, "  q, quit      stop and exit")
}

func newPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play [directory]",
		Short: "Play a directory as a slideshow in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := loadPlaylist(args[0])
			if err != nil {
				return err
			}

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          "stories> ",
				InterruptPrompt: "^C",
				EOFPrompt:       "quit",
			})
			if err != nil {
				return fmt.Errorf("failed to create readline: %w", err)
			}
			defer rl.Close()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			loop := eventloop.New(0)
			go loop.Run(ctx)

			out := rl.Stdout()
			printPlayHelp(out)
			s, err := newSession(ctx, loop, clock.NewSystem(loop.Dispatch), entries, out, slideshow.Hooks{})
			if err != nil {
				return err
			}

			for {
				line, err := rl.Readline()
				if err != nil {
					if err == readline.ErrInterrupt {
						continue
					}
					return s.handle(ctx, "q")
				}
				switch err := s.handle(ctx, line); {
				case errors.Is(err, errQuit):
					return nil
				case err != nil:
					fmt.Fprintln(out, err)
				}
			}
		},
	}
}

func newServeCmd() *cobra.Command {
	var (
		listen    string
		advertise bool
	)
	serveCmd := &cobra.Command{
		Use:   "serve [directory]",
		Short: "Run a headless slideshow controlled over HTTP and WebSocket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := loadPlaylist(args[0])
			if err != nil {
				return err
			}
			if listen == "" {
				listen = cfg.Listen
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			loop := eventloop.New(0)
			go loop.Run(ctx)

			hub := remote.NewHub(cliLogger)
			s, err := newSession(ctx, loop, clock.NewSystem(loop.Dispatch), entries, cmd.OutOrStdout(), hub.Hooks())
			if err != nil {
				return err
			}
			srv := remote.NewServer(loop, s.show, hub, cliLogger)
			if advertise {
				ad, err := remote.Advertise(instanceName(), listen)
				if err != nil {
					cliLogger(fmt.Sprintf("mDNS announcement failed: %v", err))
				} else {
					defer ad.Shutdown()
				}
			}
			if err := srv.ListenAndServe(ctx, listen); err != nil {
				return err
			}
			cmd.Println("Stopped.")
			return nil
		},
	}
	serveCmd.Flags().StringVar(&listen, "listen", "", "Address to serve on (defaults to the settings file)")
	serveCmd.Flags().BoolVar(&advertise, "advertise", false, "Announce the remote control over mDNS")
	return serveCmd
}

func instanceName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "stories"
	}
	return "stories on " + host
}
