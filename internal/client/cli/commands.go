package cli

import (
	"time"

	"github.com/dmitrijs2005/gophauth/internal/client/config"
	"github.com/spf13/cobra"
)

// flagValues are the global flags. Zero values leave the config untouched.
type flagValues struct {
	configFile string
	serverURL  string
	timeout    time.Duration
	retries    uint64
	tokenFile  string
}

func (f *flagValues) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(f.configFile)
	if err != nil {
		return nil, err
	}

	if f.serverURL != "" {
		cfg.ServerURL = f.serverURL
	}
	if f.timeout != 0 {
		cfg.RequestTimeout = f.timeout
	}
	if cmd.Flags().Changed("retries") {
		cfg.Retries = f.retries
	}
	if f.tokenFile != "" {
		cfg.TokenFile = f.tokenFile
	}
	return cfg, nil
}

// NewRootCmd creates the root command of the gophauth CLI.
func NewRootCmd() *cobra.Command {
	var flags flagValues
	app := &App{}

	cmd := &cobra.Command{
		Use:          "gophauth",
		Short:        "Command-line client for the gophauth server",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			client, err := newAPI(cfg)
			if err != nil {
				return err
			}
			*app = *NewApp(cfg, client, cmd.InOrStdin(), cmd.OutOrStdout())
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.configFile, "config", "c", "", "path to JSON settings file")
	pf.StringVarP(&flags.serverURL, "server", "a", "", "server base URL, e.g. http://127.0.0.1:8080")
	pf.DurationVarP(&flags.timeout, "timeout", "t", 0, "request timeout")
	pf.Uint64Var(&flags.retries, "retries", 0, "retries when the server cannot be reached")
	pf.StringVar(&flags.tokenFile, "token-file", "", "where the session token is kept")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "register",
			Short: "Create an account",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return app.Register(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "login",
			Short: "Sign in with email and password",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return app.Login(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "me",
			Short: "Show the signed-in account",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return app.Me(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "logout",
			Short: "Forget the session token",
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				return app.Logout()
			},
		},
		&cobra.Command{
			Use:   "ping",
			Short: "Check that the server answers",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return app.Ping(cmd.Context())
			},
		},
	)

	return cmd
}
