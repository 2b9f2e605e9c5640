package main

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/kardianos/dmtree"
	"github.com/spf13/cobra"
)

// treeSource is the part of *dmtree.Provider the printers use.
type treeSource interface {
	GetTreeItem(node dmtree.Node) dmtree.TreeItem
	GetChildren(ctx context.Context, node dmtree.Node) []dmtree.Node
}

var (
	styleRoot   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	styleDevice = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleInfo   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("9"))
	styleDesc   = lipgloss.NewStyle().Faint(true)
)

func labelStyle(icon string) lipgloss.Style {
	switch icon {
	case dmtree.IconRoot:
		return styleRoot
	case dmtree.IconMicrocontroller:
		return styleDevice
	case dmtree.IconInfo:
		return styleInfo
	default:
		return lipgloss.NewStyle()
	}
}

type treePrinter struct {
	src   treeSource
	w     io.Writer
	depth int
	plain bool
}

func (p *treePrinter) paint(s lipgloss.Style, text string) string {
	if p.plain {
		return text
	}
	return s.Render(text)
}

func (p *treePrinter) line(prefix string, item dmtree.TreeItem) error {
	text := prefix + p.paint(labelStyle(item.Icon), item.Label)
	if item.Description != "" {
		text += "  " + p.paint(styleDesc, item.Description)
	}
	_, err := fmt.Fprintln(p.w, text)
	return err
}

// print writes nodes and their descendants down to p.depth levels. A depth
// of zero or less means no limit.
func (p *treePrinter) print(ctx context.Context, nodes []dmtree.Node, indent string, level int) error {
	for i, n := range nodes {
		if err := ctx.Err(); err != nil {
			return err
		}
		last := i == len(nodes)-1
		branch, next := "├── ", "│   "
		if last {
			branch, next = "└── ", "    "
		}
		prefix := indent + branch
		if level == 1 {
			prefix, next = "", ""
		}

		item := p.src.GetTreeItem(n)
		if err := p.line(prefix, item); err != nil {
			return err
		}
		if item.Collapsible == dmtree.None || (p.depth > 0 && level >= p.depth) {
			continue
		}
		children := p.src.GetChildren(ctx, n)
		if err := p.print(ctx, children, indent+next, level+1); err != nil {
			return err
		}
	}
	return nil
}

func printTree(ctx context.Context, w io.Writer, src treeSource, depth int, plain bool) error {
	roots := src.GetChildren(ctx, nil)
	if len(roots) == 0 {
		_, err := fmt.Fprintln(w, "no connections; run \"dmtree set-access-key\" to add one")
		return err
	}
	p := &treePrinter{src: src, w: w, depth: depth, plain: plain}
	return p.print(ctx, roots, "", 1)
}

func newTreeCommand(a *app) *cobra.Command {
	var (
		depth int
		plain bool
	)
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print connections, devices and resources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.tree()
			if err != nil {
				return err
			}
			return printTree(cmd.Context(), cmd.OutOrStdout(), p, depth, plain)
		},
	}
	cmd.Flags().IntVar(&depth, "depth", 3, "levels to print, 0 for all")
	cmd.Flags().BoolVar(&plain, "plain", false, "disable colors")
	return cmd
}
