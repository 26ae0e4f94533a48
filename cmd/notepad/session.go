package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/spf13/cobra"

	"github.com/aretw0/notepad"
	lcadapter "github.com/aretw0/notepad/pkg/adapters/lifecycle"
	"github.com/aretw0/notepad/pkg/core"
	"github.com/aretw0/notepad/pkg/toast"
)

const sessionHelp = `commands:
  add <title> [content...]     add a note ("quoted titles" may contain spaces)
  delete <id|prefix>           delete a note
  list [glob]                  list notes, optionally filtered by title
  login <user> <pass>          log in
  logout                       log out
  toast <severity> <message>   show a notification (success|error|warning|info)
  prompt <label> <message>     show a notification with an action
  action                       run the active notification's action
  dismiss                      dismiss the active notification
  theme [dark|light|toggle]    show or change the theme
  fail <add|delete|list|all|off>  inject store failures
  wait <duration>              sleep, e.g. wait 500ms
  state                        print all screen states as JSON
  quit                         leave the session`

var sessionScript string

// sessionCmd represents the session command
var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Drive the app line by line from stdin or a script",
	Long: `Starts a notepad and reads one command per line. Notifications are
printed as they are shown and dismissed. Type "help" for the command list.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		in := cmd.InOrStdin()
		if sessionScript != "" {
			f, err := os.Open(sessionScript)
			if err != nil {
				fatal("Failed to open script", err)
			}
			defer f.Close()
			in = f
		}

		app, err := openApp(ctx)
		if err != nil {
			fatal("Error initializing notepad", err)
		}
		defer app.Close(context.Background())

		if err := runSession(ctx, app, in, cmd.OutOrStdout()); err != nil {
			fatal("Session failed", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.Flags().StringVar(&sessionScript, "script", "", "Read commands from a file instead of stdin")
}

// syncWriter serializes writes from the command loop and the toast printer.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, format, args...)
}

type session struct {
	app *notepad.App
	out *syncWriter
}

var errQuit = errors.New("quit")

func runSession(ctx context.Context, app *notepad.App, in io.Reader, out io.Writer) error {
	s := &session{app: app, out: &syncWriter{w: out}}

	printerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	events, err := app.Toasts.Subscribe(printerCtx)
	if err != nil {
		return fmt.Errorf("subscribe to notifications: %w", err)
	}
	source := lcadapter.NewToastSource(events)
	if err := source.Start(printerCtx); err != nil {
		return fmt.Errorf("start notification source: %w", err)
	}

	printed := make(chan struct{})
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(printed)
		for e := range source.Events() {
			s.out.printf("[toast] %s\n", e)
		}
		return nil
	})

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		err := s.exec(ctx, splitArgs(line))
		if errors.Is(err, errQuit) {
			break
		}
		if err != nil {
			s.out.printf("error: %v\n", err)
		}
	}

	cancel()
	<-printed
	return scanner.Err()
}

func (s *session) exec(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return nil
	}
	name, args := args[0], args[1:]

	switch name {
	case "help":
		s.out.printf("%s\n", sessionHelp)
	case "quit", "exit":
		return errQuit
	case "add":
		if len(args) == 0 {
			return errors.New("usage: add <title> [content...]")
		}
		note, err := s.app.Notes.AddNote(ctx, args[0], strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		s.out.printf("added %s\n", note.ID)
	case "delete":
		if len(args) != 1 {
			return errors.New("usage: delete <id>")
		}
		id, err := s.resolveID(args[0])
		if err != nil {
			return err
		}
		if err := s.app.Notes.DeleteNote(ctx, id); err != nil {
			return err
		}
		s.out.printf("deleted %s\n", id)
	case "list":
		pattern := ""
		if len(args) > 0 {
			pattern = args[0]
		}
		notes, err := s.app.FindNotes(pattern)
		if err != nil {
			return err
		}
		for _, n := range notes {
			s.out.printf("%s  %s  %s  %s\n", shortID(n.ID), n.Created().Format(time.DateTime), n.Title, n.Content)
		}
		s.out.printf("%d note(s)\n", len(notes))
	case "login":
		if len(args) != 2 {
			return errors.New("usage: login <user> <pass>")
		}
		ok, err := s.app.Login.Login(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		s.out.printf("logged in: %t\n", ok)
	case "logout":
		return s.app.Login.Logout(ctx)
	case "toast":
		if len(args) < 2 {
			return errors.New("usage: toast <severity> <message>")
		}
		sev, err := toast.ParseSeverity(args[0])
		if err != nil {
			return err
		}
		s.app.Toasts.Show(toast.Notification{Severity: sev, Message: strings.Join(args[1:], " ")})
	case "prompt":
		if len(args) < 2 {
			return errors.New("usage: prompt <label> <message>")
		}
		label := args[0]
		s.app.Toasts.ShowInfo(strings.Join(args[1:], " "), toast.WithAction(label, func() {
			s.out.printf("action %s ran\n", label)
		}))
	case "action":
		if !s.app.Toasts.TriggerAction() {
			s.out.printf("no action\n")
		}
	case "dismiss":
		if !s.app.Toasts.Dismiss() {
			s.out.printf("nothing to dismiss\n")
		}
	case "theme":
		return s.theme(args)
	case "fail":
		return s.fail(args)
	case "wait":
		if len(args) != 1 {
			return errors.New("usage: wait <duration>")
		}
		d, err := time.ParseDuration(args[0])
		if err != nil {
			return err
		}
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return ctx.Err()
		}
	case "state":
		return s.state()
	default:
		return fmt.Errorf("unknown command %q (try help)", name)
	}
	return nil
}

func (s *session) theme(args []string) error {
	if len(args) > 0 {
		switch args[0] {
		case "dark":
			s.app.Theme.SetDarkMode(true)
		case "light":
			s.app.Theme.SetDarkMode(false)
		case "toggle":
			s.app.Theme.Toggle()
		default:
			return fmt.Errorf("unknown theme %q", args[0])
		}
	}
	if s.app.Theme.DarkMode() {
		s.out.printf("theme: dark\n")
	} else {
		s.out.printf("theme: light\n")
	}
	return nil
}

func (s *session) fail(args []string) error {
	if s.app.Store == nil {
		return errors.New("fault injection needs the in-memory store")
	}
	if len(args) != 1 {
		return errors.New("usage: fail <add|delete|list|all|off>")
	}

	var ops map[core.Op]bool
	switch args[0] {
	case "off":
		s.app.Store.SetFault(nil)
		s.out.printf("faults cleared\n")
		return nil
	case "all":
		ops = map[core.Op]bool{core.OpAdd: true, core.OpDelete: true, core.OpList: true, core.OpSubscribe: true}
	case "add":
		ops = map[core.Op]bool{core.OpAdd: true}
	case "delete":
		ops = map[core.Op]bool{core.OpDelete: true}
	case "list":
		ops = map[core.Op]bool{core.OpList: true}
	default:
		return fmt.Errorf("unknown operation %q", args[0])
	}

	s.app.Store.SetFault(func(op core.Op) error {
		if ops[op] {
			return errors.New("injected failure")
		}
		return nil
	})
	s.out.printf("failing %s\n", args[0])
	return nil
}

func (s *session) state() error {
	cur, active := s.app.Toasts.Current()
	view := struct {
		Notes  any  `json:"notes"`
		Login  any  `json:"login"`
		Toast  any  `json:"toast,omitempty"`
		Dark   bool `json:"dark_mode"`
		Config any  `json:"config"`
	}{
		Notes:  s.app.Notes.Current(),
		Login:  s.app.Login.Current(),
		Dark:   s.app.Theme.DarkMode(),
		Config: s.app.Config(),
	}
	if active {
		view.Toast = map[string]any{
			"severity": cur.Severity,
			"message":  cur.Message,
			"action":   cur.HasAction(),
		}
	}

	data, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return err
	}
	s.out.printf("%s\n", data)
	return nil
}

// resolveID accepts a full ID or a unique prefix of one.
func (s *session) resolveID(prefix string) (string, error) {
	var match string
	for _, n := range s.app.Notes.Notes() {
		if n.ID == prefix {
			return n.ID, nil
		}
		if strings.HasPrefix(n.ID, prefix) {
			if match != "" {
				return "", fmt.Errorf("ambiguous id %q", prefix)
			}
			match = n.ID
		}
	}
	if match == "" {
		// Unknown IDs are passed through; deleting them is a no-op.
		return prefix, nil
	}
	return match, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// splitArgs splits on whitespace, keeping double-quoted runs together.
func splitArgs(line string) []string {
	var (
		args    []string
		cur     strings.Builder
		quoted  bool
		started bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
			started = true
		case (r == ' ' || r == '\t') && !quoted:
			if started {
				args = append(args, cur.String())
				cur.Reset()
				started = false
			}
		default:
			cur.WriteRune(r)
			started = true
		}
	}
	if started {
		args = append(args, cur.String())
	}
	return args
}
