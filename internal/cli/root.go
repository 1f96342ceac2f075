package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockroom/pkg/clients/inventoryapi"
	"github.com/mamadbah2/stockroom/pkg/logger"
)

// ErrNotSignedIn is returned by item commands without a stored session.
var ErrNotSignedIn = errors.New("not signed in, run `inventoryctl signin` first")

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose     bool
	Format      string // "json" | "text"
	Server      string
	SessionFile string
	Timeout     time.Duration

	log *zap.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command of inventoryctl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "inventoryctl",
		Short: "Track your inventory from the terminal",
		Long:  "inventoryctl signs in to a stockroom server and adds, removes and lists inventory items.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			l, err := logger.NewConsole(opts.Verbose)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			opts.log = l
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Server, "server", envOr("STOCKROOM_SERVER", "http://localhost:8080"), "stockroom server URL")
	cmd.PersistentFlags().StringVar(&opts.SessionFile, "session-file", defaultSessionFile(), "where the session token is kept")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 15*time.Second, "request timeout")

	cmd.AddCommand(NewSignUpCommand(opts))
	cmd.AddCommand(NewSignInCommand(opts))
	cmd.AddCommand(NewSignOutCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewSummaryCommand(opts))
	cmd.AddCommand(NewShellCommand(opts))

	return cmd
}

func (o *RootOptions) logger() *zap.Logger {
	if o.log == nil {
		return zap.NewNop()
	}
	return o.log
}

func (o *RootOptions) sessions() *SessionStore {
	return &SessionStore{Path: o.SessionFile}
}

func (o *RootOptions) client() *inventoryapi.Client {
	return inventoryapi.NewClient(inventoryapi.Config{BaseURL: o.Server, Timeout: o.Timeout})
}

// authorizedClient returns a client carrying the stored session token.
func (o *RootOptions) authorizedClient() (*inventoryapi.Client, error) {
	session, err := o.sessions().Load()
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrNotSignedIn
	}

	c := o.client()
	c.SetToken(session.Token)
	return c, nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".stockroom-session.json"
	}
	return filepath.Join(dir, "stockroom", "session.json")
}
