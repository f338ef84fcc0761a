// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// ErrPromptAborted is returned when the user cancels a prompt.
var ErrPromptAborted = errors.New("prompt aborted")

type (
	// Prompter asks the user for input. The add command is its only caller.
	Prompter interface {
		// Input edits value in place; validate may be nil.
		Input(title, description string, value *string, validate func(string) error) error
		Confirm(title string) (bool, error)
	}

	huhPrompter struct {
		output io.Writer
	}
)

func newHuhPrompter(output io.Writer) *huhPrompter {
	return &huhPrompter{output: output}
}

func (p *huhPrompter) Input(title, description string, value *string, validate func(string) error) error {
	input := huh.NewInput().
		Title(title).
		Description(description).
		Value(value)
	if validate != nil {
		input = input.Validate(validate)
	}
	return p.run(huh.NewForm(huh.NewGroup(input)))
}

func (p *huhPrompter) Confirm(title string) (bool, error) {
	var ok bool
	confirm := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&ok)
	if err := p.run(huh.NewForm(huh.NewGroup(confirm))); err != nil {
		return false, err
	}
	return ok, nil
}

// run shows the form on stderr so stdout stays clean for scripts. Without a
// terminal on stdin, or with ACCESSIBLE set, huh falls back to plain prompts.
func (p *huhPrompter) run(form *huh.Form) error {
	accessible := !term.IsTerminal(int(os.Stdin.Fd())) || os.Getenv("ACCESSIBLE") != ""
	err := form.
		WithTheme(huh.ThemeCharm()).
		WithAccessible(accessible).
		WithOutput(p.output).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return ErrPromptAborted
	}
	return err
}
