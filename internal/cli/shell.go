package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockroom/internal/domain/models"
	"github.com/mamadbah2/stockroom/internal/gate"
	"github.com/mamadbah2/stockroom/pkg/clients/inventoryapi"
)

const shellHelp = `Commands:
  signin <email> <password>     sign in
  signup <email> <password>     create an account
  signout                       end the session
  add [-c <category>] <name>    add one unit, creating the item when missing
  remove <name|id>              remove one unit
  search [term]                 filter by name, empty clears
  category [name|all]           filter by category
  help                          show this text
  quit                          leave the shell`

var errQuit = errors.New("quit")

// NewShellCommand creates the interactive shell command.
func NewShellCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "shell",
		Short:         "Interactive inventory screen",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd.Context(), rootOpts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// persistingBackend mirrors session changes into the session file.
type persistingBackend struct {
	*inventoryapi.Client
	sessions *SessionStore
	log      *zap.Logger
}

func (b *persistingBackend) SignIn(ctx context.Context, creds models.Credentials) (*models.Session, error) {
	return b.keep(b.Client.SignIn(ctx, creds))
}

func (b *persistingBackend) SignUp(ctx context.Context, creds models.Credentials) (*models.Session, error) {
	return b.keep(b.Client.SignUp(ctx, creds))
}

func (b *persistingBackend) SignOut(ctx context.Context) error {
	err := b.Client.SignOut(ctx)
	if clearErr := b.sessions.Clear(); clearErr != nil {
		b.log.Warn("failed to clear session file", zap.Error(clearErr))
	}
	return err
}

func (b *persistingBackend) keep(session *models.Session, err error) (*models.Session, error) {
	if err != nil {
		return nil, err
	}
	if err := b.sessions.Save(session); err != nil {
		b.log.Warn("failed to persist session", zap.Error(err))
	}
	return session, nil
}

// lockedWriter serialises writes from the input reader and the gate loop.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) print(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprint(l.w, s)
}

func runShell(ctx context.Context, opts *RootOptions, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sessions := opts.sessions()
	backend := &persistingBackend{Client: opts.client(), sessions: sessions, log: opts.logger()}

	notifier := gate.NewNotifier()
	defer notifier.Close()

	g := gate.New(backend, notifier, opts.logger().Named("gate"))
	w := &lockedWriter{w: out}

	stored, err := sessions.Load()
	if err != nil {
		opts.logger().Warn("ignoring unreadable session file", zap.Error(err))
	}
	if stored != nil {
		backend.SetToken(stored.Token)
		g.Restore(ctx, stored)
	}
	w.print(gate.Render(g.State()) + "\n")

	actions := make(chan gate.Event)
	go func() {
		defer close(actions)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			line := scanner.Text()
			if isHelp(line) {
				w.print(shellHelp + "\n")
				continue
			}
			ev, err := parseShellLine(line)
			if errors.Is(err, errQuit) {
				return
			}
			if err != nil {
				w.print(err.Error() + "\n")
				continue
			}
			if ev == nil {
				continue
			}
			select {
			case actions <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return g.Run(ctx, actions, func(s gate.State) {
		w.print(gate.Render(s) + "\n")
	})
}

func isHelp(line string) bool {
	command, _ := cutField(line)
	command = strings.ToLower(command)
	return command == "help" || command == "?"
}

// cutField splits off the first whitespace-separated word. The remainder keeps
// its inner spacing and is only trimmed at the ends.
func cutField(s string) (head, tail string) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i:])
}

// parseShellLine turns one input line into a gate event. Blank lines yield nil.
// Item names are taken verbatim from the rest of the line.
func parseShellLine(line string) (gate.Event, error) {
	command, rest := cutField(line)
	if command == "" {
		return nil, nil
	}
	command = strings.ToLower(command)

	switch command {
	case "quit", "exit":
		return nil, errQuit
	case "help", "?":
		return nil, nil
	case "signin", "signup":
		args := strings.Fields(rest)
		if len(args) != 2 {
			return nil, fmt.Errorf("usage: %s <email> <password>", command)
		}
		creds := models.Credentials{Email: args[0], Password: args[1]}
		if command == "signup" {
			return gate.SignUp{Credentials: creds}, nil
		}
		return gate.SignIn{Credentials: creds}, nil
	case "signout":
		return gate.SignOut{}, nil
	case "add":
		var category models.Category
		if flag, tail := cutField(rest); flag == "-c" || flag == "--category" {
			name, remainder := cutField(tail)
			c, err := models.ParseCategory(name)
			if err != nil {
				return nil, err
			}
			category, rest = c, remainder
		}
		if rest == "" {
			return nil, errors.New("usage: add [-c <category>] <name>")
		}
		return gate.AddItem{Identifier: rest, Category: category}, nil
	case "remove", "rm":
		if rest == "" {
			return nil, errors.New("usage: remove <name|id>")
		}
		return gate.RemoveItem{Identifier: rest}, nil
	case "search":
		return gate.Search{Term: rest}, nil
	case "category":
		name, _ := cutField(rest)
		if name == "" || strings.EqualFold(name, "all") {
			return gate.SelectCategory{Category: models.CategoryNone}, nil
		}
		c, err := models.ParseCategory(name)
		if err != nil {
			return nil, err
		}
		return gate.SelectCategory{Category: c}, nil
	default:
		return nil, fmt.Errorf("unknown command %q, type help", command)
	}
}
