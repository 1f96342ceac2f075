package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockroom/internal/domain/models"
)

// errAuthFailed is what the user sees for any rejected sign-in or sign-up.
var errAuthFailed = errors.New("authentication failed")

// AuthOptions holds flags for signup and signin.
type AuthOptions struct {
	*RootOptions
	Email    string
	Password string
}

// NewSignUpCommand creates the signup command.
func NewSignUpCommand(rootOpts *RootOptions) *cobra.Command {
	return newAuthCommand(rootOpts, "signup", "Create an account and sign in")
}

// NewSignInCommand creates the signin command.
func NewSignInCommand(rootOpts *RootOptions) *cobra.Command {
	return newAuthCommand(rootOpts, "signin", "Sign in with email and password")
}

func newAuthCommand(rootOpts *RootOptions, use, short string) *cobra.Command {
	opts := &AuthOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           use,
		Short:         short,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return authenticate(cmd, opts, use == "signup")
		},
	}

	cmd.Flags().StringVarP(&opts.Email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&opts.Password, "password", "p", "", "account password (read from stdin when omitted)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func authenticate(cmd *cobra.Command, opts *AuthOptions, signUp bool) error {
	password := opts.Password
	if password == "" {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
	defer cancel()

	client := opts.client()
	creds := models.Credentials{Email: opts.Email, Password: password}

	var (
		session *models.Session
		err     error
	)
	if signUp {
		session, err = client.SignUp(ctx, creds)
	} else {
		session, err = client.SignIn(ctx, creds)
	}
	if err != nil {
		opts.logger().Warn("authentication failed", zap.String("email", opts.Email), zap.Error(err))
		return errAuthFailed
	}

	if err := opts.sessions().Save(session); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", session.Principal.Email)
	return nil
}

// NewSignOutCommand creates the signout command.
func NewSignOutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "signout",
		Short:         "End the current session",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := rootOpts.authorizedClient()
			if errors.Is(err, ErrNotSignedIn) {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
				return nil
			}
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), rootOpts.Timeout)
			defer cancel()

			if err := client.SignOut(ctx); err != nil {
				rootOpts.logger().Warn("server sign-out failed", zap.Error(err))
			}
			if err := rootOpts.sessions().Clear(); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}
