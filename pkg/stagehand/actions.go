package stagehand

import (
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

// DefaultActionTimeout bounds a single locator action.
const DefaultActionTimeout = 15 * time.Second

// actionTarget is the subset of playwright.Locator that actions use.
type actionTarget interface {
	Click(options ...playwright.LocatorClickOptions) error
	Fill(value string, options ...playwright.LocatorFillOptions) error
	PressSequentially(text string, options ...playwright.LocatorPressSequentiallyOptions) error
	Press(key string, options ...playwright.LocatorPressOptions) error
	Hover(options ...playwright.LocatorHoverOptions) error
	ScrollIntoViewIfNeeded(options ...playwright.LocatorScrollIntoViewIfNeededOptions) error
	SelectOption(values playwright.SelectOptionValues, options ...playwright.LocatorSelectOptionOptions) ([]string, error)
	Check(options ...playwright.LocatorCheckOptions) error
	Uncheck(options ...playwright.LocatorUncheckOptions) error
}

// performAction calls method on target. Method names are matched
// case-insensitively; "type" enters text key by key.
func performAction(target actionTarget, method string, args []string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultActionTimeout
	}
	ms := playwright.Float(float64(timeout.Milliseconds()))

	arg := func() (string, error) {
		if len(args) == 0 {
			return "", fmt.Errorf("method %s requires an argument", method)
		}
		return args[0], nil
	}

	switch strings.ToLower(method) {
	case "click", "":
		return target.Click(playwright.LocatorClickOptions{Timeout: ms})
	case "fill":
		v, err := arg()
		if err != nil {
			return err
		}
		return target.Fill(v, playwright.LocatorFillOptions{Timeout: ms})
	case "type":
		v, err := arg()
		if err != nil {
			return err
		}
		return target.PressSequentially(v, playwright.LocatorPressSequentiallyOptions{Timeout: ms})
	case "press":
		v, err := arg()
		if err != nil {
			return err
		}
		return target.Press(v, playwright.LocatorPressOptions{Timeout: ms})
	case "hover":
		return target.Hover(playwright.LocatorHoverOptions{Timeout: ms})
	case "scrollintoview", "scroll", "scrollintoviewifneeded":
		return target.ScrollIntoViewIfNeeded(playwright.LocatorScrollIntoViewIfNeededOptions{Timeout: ms})
	case "selectoption", "select":
		if len(args) == 0 {
			return fmt.Errorf("method %s requires an argument", method)
		}
		values := append([]string(nil), args...)
		if _, err := target.SelectOption(playwright.SelectOptionValues{Values: &values}, playwright.LocatorSelectOptionOptions{Timeout: ms}); err == nil {
			return nil
		}
		_, err := target.SelectOption(playwright.SelectOptionValues{Labels: &values}, playwright.LocatorSelectOptionOptions{Timeout: ms})
		return err
	case "check":
		return target.Check(playwright.LocatorCheckOptions{Timeout: ms})
	case "uncheck":
		return target.Uncheck(playwright.LocatorUncheckOptions{Timeout: ms})
	default:
		return fmt.Errorf("unsupported method %q", method)
	}
}

func describeAction(method string, args []string, description string) string {
	if method == "" {
		method = "click"
	}
	s := method
	if description != "" {
		s += " on " + description
	}
	if len(args) > 0 && method != "fill" && method != "type" {
		s += " with " + strings.Join(args, ", ")
	}
	return s
}
