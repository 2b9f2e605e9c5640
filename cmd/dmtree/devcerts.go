package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/kardianos/dmtree/dmdef"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// devCertsCommand builds the credential generator invocation. The access key
// is passed as an argument and must never be logged.
func devCertsCommand(ctx context.Context, cfg DevCertsConfig, conn dmdef.Connection, baseURL string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, cfg.Script,
		"with-credentials",
		"-a", conn.AccessKey,
		"-u", strings.TrimSuffix(baseURL, "/"),
	)
	cmd.Dir = cfg.Dir
	return cmd
}

// logLines writes each line read from r to log until r is exhausted.
func logLines(log zerolog.Logger, r io.Reader, done chan<- struct{}) {
	defer close(done)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		log.Info().Msg(sc.Text())
	}
}

func newGenDevCertsCommand(a *app) *cobra.Command {
	var connID string
	cmd := &cobra.Command{
		Use:   "gen-dev-certs",
		Short: "Generate developer credentials for a connection",
		Long: "Run the example project's credential generator with a connection's\n" +
			"access key. Without --connection the oldest connection is used.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.tree()
			if err != nil {
				return err
			}
			conn, err := p.ResolveConnection(connID)
			if err != nil {
				return err
			}

			log := a.log.With().Str("component", "dev-certs").Str("connection", conn.ID).Logger()
			c := devCertsCommand(cmd.Context(), a.cfg.DevCerts, conn, a.cfg.API.BaseURL)
			pr, pw := io.Pipe()
			c.Stdout = pw
			c.Stderr = pw

			log.Info().Str("script", a.cfg.DevCerts.Script).Str("dir", a.cfg.DevCerts.Dir).Msg("generating developer certificates")
			done := make(chan struct{})
			go logLines(log, pr, done)
			err = c.Run()
			pw.Close()
			<-done
			if err != nil {
				return fmt.Errorf("generate developer certificates: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "developer certificates generated in", a.cfg.DevCerts.Dir)
			return nil
		},
	}
	cmd.Flags().StringVar(&connID, "connection", "", "connection id (default oldest)")
	return cmd
}
