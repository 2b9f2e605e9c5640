package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newConnectionsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "connections",
		Short: "List registered connections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.tree()
			if err != nil {
				return err
			}
			reg := p.Registry()
			conns, err := reg.List()
			if err != nil {
				return err
			}
			ids, err := reg.IDs()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tLABEL\tCREATED\tKEY")
			for _, id := range ids {
				info := conns[id]
				created := "-"
				if !info.CreatedAt.IsZero() {
					created = info.CreatedAt.Local().Format(time.DateTime)
				}
				key := "stored"
				if _, err := reg.ResolveSecret(id); err != nil {
					key = "missing"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", id, info.Label, created, key)
			}
			return tw.Flush()
		},
	}
}

func newDeleteConnectionCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-connection ID",
		Short: "Remove a connection and its access key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.tree()
			if err != nil {
				return err
			}
			if err := p.DeleteConnection(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "connection %s deleted\n", args[0])
			return nil
		},
	}
}

func newResetCommand(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Remove every connection and access key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("reset removes every stored access key; pass --yes to confirm")
			}
			p, err := a.tree()
			if err != nil {
				return err
			}
			if err := p.Reset(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "all connections removed")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm removal")
	return cmd
}
