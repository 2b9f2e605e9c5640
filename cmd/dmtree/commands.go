package main

import (
	"github.com/spf13/cobra"
)

// commandSpec binds a command id to its constructor.
type commandSpec struct {
	ID  string
	New func(a *app) *cobra.Command
}

// commandTable lists every subcommand. Each constructor must return a command
// named ID.
var commandTable = []commandSpec{
	{ID: "tree", New: newTreeCommand},
	{ID: "explore", New: newExploreCommand},
	{ID: "set-access-key", New: newSetAccessKeyCommand},
	{ID: "connections", New: newConnectionsCommand},
	{ID: "delete-connection", New: newDeleteConnectionCommand},
	{ID: "reset", New: newResetCommand},
	{ID: "create-account", New: newCreateAccountCommand},
	{ID: "gen-dev-certs", New: newGenDevCertsCommand},
}

type globalFlags struct {
	baseURL    string
	http3      bool
	dataDir    string
	secretPath string
	backend    string
	logLevel   string
	debug      bool
}

func newRootCommand(a *app) *cobra.Command {
	var gf globalFlags

	root := &cobra.Command{
		Use:           appName,
		Short:         "Browse device management connections, devices and resources",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			path := a.configPath
			explicit := cmd.Flags().Changed("config")
			if !explicit {
				path = defaultConfigPath()
			}
			cfg, err := loadConfig(path, explicit)
			if err != nil {
				return err
			}
			applyFlags(cmd, &cfg, gf)
			if err := cfg.validate(); err != nil {
				return err
			}
			a.cfg = cfg

			a.log, err = newLogger(cfg.Log)
			return err
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/dmtree/config.yaml)")
	pf.StringVar(&gf.baseURL, "base-url", "", "device management API root")
	pf.BoolVar(&gf.http3, "http3", false, "use HTTP/3 for API requests")
	pf.StringVar(&gf.dataDir, "data-dir", "", "directory holding the connection registry")
	pf.StringVar(&gf.secretPath, "secret-path", "", "access key store location")
	pf.StringVar(&gf.backend, "secret-backend", "", "access key store: config or file (default platform store)")
	pf.StringVar(&gf.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	pf.BoolVar(&gf.debug, "debug", false, "debug logging")

	for _, spec := range commandTable {
		root.AddCommand(spec.New(a))
	}
	return root
}

// applyFlags overrides cfg with the flags set on the command line.
func applyFlags(cmd *cobra.Command, cfg *Config, gf globalFlags) {
	f := cmd.Flags()
	if f.Changed("base-url") {
		cfg.API.BaseURL = gf.baseURL
	}
	if f.Changed("http3") {
		cfg.API.HTTP3 = gf.http3
	}
	if f.Changed("data-dir") {
		cfg.Store.DataDir = gf.dataDir
	}
	if f.Changed("secret-backend") {
		cfg.Store.Backend = gf.backend
	}
	if f.Changed("secret-path") {
		cfg.Store.SecretPath = gf.secretPath
	}
	if f.Changed("log-level") {
		cfg.Log.Level = gf.logLevel
	}
	if f.Changed("debug") {
		cfg.Log.Debug = gf.debug
	}
}
