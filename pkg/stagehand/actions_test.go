package stagehand

import (
	"errors"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingTarget records the locator calls made on it.
type recordingTarget struct {
	actionTarget

	calls     []string
	values    []string
	timeout   float64
	selectErr error
}

func (r *recordingTarget) record(name string, t *float64, values ...string) {
	r.calls = append(r.calls, name)
	r.values = append(r.values, values...)
	if t != nil {
		r.timeout = *t
	}
}

func (r *recordingTarget) Click(o ...playwright.LocatorClickOptions) error {
	r.record("click", o[0].Timeout)
	return nil
}

func (r *recordingTarget) Fill(v string, o ...playwright.LocatorFillOptions) error {
	r.record("fill", o[0].Timeout, v)
	return nil
}

func (r *recordingTarget) PressSequentially(v string, o ...playwright.LocatorPressSequentiallyOptions) error {
	r.record("type", o[0].Timeout, v)
	return nil
}

func (r *recordingTarget) Press(k string, o ...playwright.LocatorPressOptions) error {
	r.record("press", o[0].Timeout, k)
	return nil
}

func (r *recordingTarget) Hover(o ...playwright.LocatorHoverOptions) error {
	r.record("hover", o[0].Timeout)
	return nil
}

func (r *recordingTarget) ScrollIntoViewIfNeeded(o ...playwright.LocatorScrollIntoViewIfNeededOptions) error {
	r.record("scroll", o[0].Timeout)
	return nil
}

func (r *recordingTarget) SelectOption(v playwright.SelectOptionValues, o ...playwright.LocatorSelectOptionOptions) ([]string, error) {
	switch {
	case v.Values != nil:
		r.record("select-values", o[0].Timeout, *v.Values...)
		if r.selectErr != nil {
			return nil, r.selectErr
		}
	case v.Labels != nil:
		r.record("select-labels", o[0].Timeout, *v.Labels...)
	}
	return nil, nil
}

func (r *recordingTarget) Check(o ...playwright.LocatorCheckOptions) error {
	r.record("check", o[0].Timeout)
	return nil
}

func (r *recordingTarget) Uncheck(o ...playwright.LocatorUncheckOptions) error {
	r.record("uncheck", o[0].Timeout)
	return nil
}

func TestPerformAction(t *testing.T) {
	tests := []struct {
		method     string
		args       []string
		wantCalls  []string
		wantValues []string
	}{
		{"click", nil, []string{"click"}, nil},
		{"", nil, []string{"click"}, nil},
		{"Fill", []string{"hello"}, []string{"fill"}, []string{"hello"}},
		{"type", []string{"abc"}, []string{"type"}, []string{"abc"}},
		{"press", []string{"Enter"}, []string{"press"}, []string{"Enter"}},
		{"hover", nil, []string{"hover"}, nil},
		{"scrollIntoView", nil, []string{"scroll"}, nil},
		{"selectOption", []string{"us"}, []string{"select-values"}, []string{"us"}},
		{"check", nil, []string{"check"}, nil},
		{"uncheck", nil, []string{"uncheck"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			target := &recordingTarget{}
			require.NoError(t, performAction(target, tt.method, tt.args, 0))
			assert.Equal(t, tt.wantCalls, target.calls)
			assert.Equal(t, tt.wantValues, target.values)
			assert.Equal(t, float64(DefaultActionTimeout.Milliseconds()), target.timeout)
		})
	}
}

func TestPerformAction_Errors(t *testing.T) {
	target := &recordingTarget{}

	err := performAction(target, "fill", nil, 0)
	assert.EqualError(t, err, "method fill requires an argument")

	err = performAction(target, "select", nil, 0)
	assert.Error(t, err)

	err = performAction(target, "teleport", nil, 0)
	assert.EqualError(t, err, `unsupported method "teleport"`)
	assert.Empty(t, target.calls)
}

func TestPerformAction_SelectFallsBackToLabels(t *testing.T) {
	target := &recordingTarget{selectErr: errors.New("no option with value")}
	require.NoError(t, performAction(target, "selectOption", []string{"United States"}, time.Second))
	assert.Equal(t, []string{"select-values", "select-labels"}, target.calls)
	assert.Equal(t, float64(1000), target.timeout)
}

func TestDescribeAction(t *testing.T) {
	assert.Equal(t, "click", describeAction("", nil, ""))
	assert.Equal(t, "click on Search button", describeAction("click", nil, "Search button"))
	assert.Equal(t, "fill on email field", describeAction("fill", []string{"secret"}, "email field"))
	assert.Equal(t, "press on input with Enter", describeAction("press", []string{"Enter"}, "input"))
}
