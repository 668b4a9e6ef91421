package entity

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Action string

const (
	ActionNavigate  Action = "navigate"
	ActionFill      Action = "fill"
	ActionClick     Action = "click"
	ActionExpectURL Action = "expect_url"
	ActionLogURL    Action = "log_url"
)

// URLExpectation is checked by polling the current URL. Contains must appear
// before the timeout; NotContains must stay absent for the whole Hold window.
type URLExpectation struct {
	Contains    string
	NotContains string
	Hold        time.Duration
}

type Step struct {
	Action  Action
	Label   string
	Path    string
	Locator Locator
	Value   string
	Expect  URLExpectation
	Timeout time.Duration
}

func Navigate(path string) Step {
	return Step{Action: ActionNavigate, Path: path}
}

func Fill(loc Locator, value string) Step {
	return Step{Action: ActionFill, Locator: loc, Value: value}
}

func Click(loc Locator) Step {
	return Step{Action: ActionClick, Locator: loc}
}

func ExpectURLContains(marker string) Step {
	return Step{Action: ActionExpectURL, Expect: URLExpectation{Contains: marker}}
}

func ExpectURLNotContains(marker string, hold time.Duration) Step {
	return Step{Action: ActionExpectURL, Expect: URLExpectation{NotContains: marker, Hold: hold}}
}

func LogURL(label string) Step {
	return Step{Action: ActionLogURL, Label: label}
}

func (s Step) WithLabel(label string) Step {
	s.Label = label
	return s
}

func (s Step) WithTimeout(d time.Duration) Step {
	s.Timeout = d
	return s
}

func (s Step) Validate() error {
	switch s.Action {
	case ActionNavigate:
		if strings.TrimSpace(s.Path) == "" {
			return errors.New("navigate step needs a path")
		}
	case ActionFill, ActionClick:
		if err := s.Locator.Validate(); err != nil {
			return fmt.Errorf("%s step: %w", s.Action, err)
		}
	case ActionExpectURL:
		if s.Expect.Contains == "" && s.Expect.NotContains == "" {
			return errors.New("expect_url step needs contains or not_contains")
		}
		if s.Expect.NotContains != "" && s.Expect.Hold <= 0 {
			return errors.New("expect_url not_contains needs a positive hold window")
		}
	case ActionLogURL:
	default:
		return fmt.Errorf("unknown action %q", s.Action)
	}
	if s.Timeout < 0 {
		return errors.New("negative step timeout")
	}
	return nil
}

// Describe renders a one-line human summary used in reports and logs.
func (s Step) Describe() string {
	if s.Label != "" {
		return s.Label
	}
	switch s.Action {
	case ActionNavigate:
		return "navigate to " + s.Path
	case ActionFill:
		return fmt.Sprintf("fill %s", s.Locator)
	case ActionClick:
		return fmt.Sprintf("click %s", s.Locator)
	case ActionExpectURL:
		var parts []string
		if s.Expect.NotContains != "" {
			parts = append(parts, fmt.Sprintf("url stays without %q for %s", s.Expect.NotContains, s.Expect.Hold))
		}
		if s.Expect.Contains != "" {
			parts = append(parts, fmt.Sprintf("url contains %q", s.Expect.Contains))
		}
		return strings.Join(parts, ", ")
	case ActionLogURL:
		return "log current url"
	}
	return string(s.Action)
}

// Scenario is one self-contained UI verification flow. It owns no state
// between runs; the runner gives every run its own browser session.
type Scenario struct {
	Name        string
	Description string
	Tags        []string
	Source      string
	Steps       []Step
}

func (sc Scenario) Validate() error {
	if strings.TrimSpace(sc.Name) == "" {
		return errors.New("scenario has no name")
	}
	if len(sc.Steps) == 0 {
		return fmt.Errorf("scenario %s has no steps", sc.Name)
	}
	for i, step := range sc.Steps {
		if err := step.Validate(); err != nil {
			return fmt.Errorf("scenario %s step %d: %w", sc.Name, i+1, err)
		}
	}
	return nil
}

func (sc Scenario) HasTag(tag string) bool {
	for _, t := range sc.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
