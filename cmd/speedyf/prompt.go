package main

import (
	"errors"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// errAborted signals the user cancelled a prompt (Ctrl+C).
var errAborted = errors.New("aborted")

// prompter abstracts the interactive prompts so fill runs can be driven by
// a script in tests.
type prompter interface {
	Input(message, help string) (string, error)
	Select(message string, options []string) (string, error)
	Confirm(message string) (bool, error)
}

// surveyPrompter asks on the terminal.
type surveyPrompter struct{}

func (surveyPrompter) Input(message, help string) (string, error) {
	var out string
	err := survey.AskOne(&survey.Input{Message: message, Help: help}, &out)
	return out, translateSurveyErr(err)
}

func (surveyPrompter) Select(message string, options []string) (string, error) {
	var out string
	err := survey.AskOne(&survey.Select{Message: message, Options: options}, &out)
	return out, translateSurveyErr(err)
}

func (surveyPrompter) Confirm(message string) (bool, error) {
	var out bool
	err := survey.AskOne(&survey.Confirm{Message: message}, &out)
	return out, translateSurveyErr(err)
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return errAborted
	}
	return err
}
