package main

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
)

// browserCommand returns the platform command that opens url.
func browserCommand(ctx context.Context, goos, url string) *exec.Cmd {
	switch goos {
	case "windows":
		return exec.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		return exec.CommandContext(ctx, "open", url)
	default:
		return exec.CommandContext(ctx, "xdg-open", url)
	}
}

func newCreateAccountCommand(a *app) *cobra.Command {
	var noBrowser bool
	cmd := &cobra.Command{
		Use:   "create-account",
		Short: "Open the trial account sign-up page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			url := a.cfg.SignupURL
			out := cmd.OutOrStdout()

			if err := clipboard.WriteAll(url); err != nil {
				a.log.Debug().Err(err).Msg("copy sign-up url")
			} else {
				fmt.Fprintln(out, "sign-up URL copied to clipboard")
			}
			if !noBrowser {
				if err := browserCommand(cmd.Context(), runtime.GOOS, url).Start(); err != nil {
					a.log.Warn().Err(err).Msg("open browser")
				}
			}
			fmt.Fprintln(out, url)
			return nil
		},
	}
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "only print the URL")
	return cmd
}
