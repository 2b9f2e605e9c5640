package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/kardianos/dmtree/dmdef"
	"github.com/spf13/cobra"
)

var errCanceled = errors.New("canceled")

const (
	fieldLabel = iota
	fieldKey
)

// keyForm asks for a connection label and an access key.
type keyForm struct {
	inputs [2]textinput.Model
	focus  int
	err    string

	done     bool
	canceled bool
}

var (
	stylePrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	styleError  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func newKeyForm(label string) *keyForm {
	li := textinput.New()
	li.Prompt = "Label: "
	li.Placeholder = dmdef.DefaultLabel
	li.PromptStyle = stylePrompt
	li.CharLimit = 64
	li.SetValue(label)
	li.Focus()

	ki := textinput.New()
	ki.Prompt = "Access key: "
	ki.Placeholder = "ak_..."
	ki.PromptStyle = stylePrompt
	ki.EchoMode = textinput.EchoPassword
	ki.EchoCharacter = '•'

	return &keyForm{inputs: [2]textinput.Model{li, ki}}
}

func (*keyForm) Init() tea.Cmd {
	return textinput.Blink
}

func (f *keyForm) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			f.canceled = true
			return f, tea.Quit
		case tea.KeyEnter:
			return f.next()
		case tea.KeyTab, tea.KeyShiftTab:
			f.setFocus(1 - f.focus)
			return f, textinput.Blink
		}
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}

func (f *keyForm) next() (tea.Model, tea.Cmd) {
	if f.focus == fieldLabel {
		f.setFocus(fieldKey)
		return f, textinput.Blink
	}
	if f.accessKey() == "" {
		f.err = "access key must not be empty"
		return f, nil
	}
	f.done = true
	return f, tea.Quit
}

func (f *keyForm) setFocus(i int) {
	f.inputs[f.focus].Blur()
	f.focus = i
	f.inputs[f.focus].Focus()
}

func (f *keyForm) label() string {
	return strings.TrimSpace(f.inputs[fieldLabel].Value())
}

func (f *keyForm) accessKey() string {
	return strings.TrimSpace(f.inputs[fieldKey].Value())
}

func (f *keyForm) View() string {
	if f.done || f.canceled {
		return ""
	}
	var b strings.Builder
	b.WriteString("Add a device management connection\n\n")
	for _, in := range f.inputs {
		b.WriteString(in.View() + "\n")
	}
	if f.err != "" {
		b.WriteString("\n" + styleError.Render(f.err) + "\n")
	}
	b.WriteString("\n" + styleHelp.Render("enter next  tab switch  esc cancel"))
	return b.String()
}

// promptAccessKey runs the form and returns the entered label and key.
func promptAccessKey(cmd *cobra.Command, label string) (string, string, error) {
	form := newKeyForm(label)
	prog := tea.NewProgram(form,
		tea.WithContext(cmd.Context()),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.ErrOrStderr()),
	)
	if _, err := prog.Run(); err != nil {
		return "", "", err
	}
	if !form.done {
		return "", "", errCanceled
	}
	return form.label(), form.accessKey(), nil
}

func newSetAccessKeyCommand(a *app) *cobra.Command {
	var label, accessKey string
	cmd := &cobra.Command{
		Use:   "set-access-key",
		Short: "Add a connection with its access key",
		Long: "Add a connection. Without --access-key the label and key are\n" +
			"prompted for; the key is never echoed.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("access-key") {
				var err error
				if label, accessKey, err = promptAccessKey(cmd, label); err != nil {
					return err
				}
			}
			if strings.TrimSpace(accessKey) == "" {
				return dmdef.ErrAccessKeyEmpty
			}

			p, err := a.tree()
			if err != nil {
				return err
			}
			id, err := p.SetConnection(strings.TrimSpace(label), strings.TrimSpace(accessKey))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "connection %s added\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&label, "label", "", "connection label (default \"default\")")
	cmd.Flags().StringVar(&accessKey, "access-key", "", "access key; prompted for when omitted")
	return cmd
}
