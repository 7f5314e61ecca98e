package browsertest

import (
	"fmt"
	"time"

	"github.com/xkilldash9x/staywright/internal/browser"
)

// Locator is a fake browser.Locator. Unknown child keys resolve to an empty,
// invisible locator.
type Locator struct {
	Key      string
	Text     string
	Value    string
	Attrs    map[string]string
	Visible  bool
	Disabled bool
	Children map[string]*Locator
	Items    []*Locator

	ClickErr error
	WaitErr  error
	TextErr  error
	AllErr   error
	OnClick  func()
	OnFill   func(value string)

	Clicks int
	Fills  []string
}

func (l *Locator) child(key string) browser.Locator {
	if c, ok := l.Children[key]; ok {
		return c
	}
	return &Locator{Key: l.Key + " >> " + key}
}

func (l *Locator) Locator(selector string) browser.Locator { return l.child(selector) }
func (l *Locator) GetByLabel(text string) browser.Locator  { return l.child("label=" + text) }
func (l *Locator) GetByRole(role, name string) browser.Locator {
	return l.child("role=" + role + "[" + name + "]")
}
func (l *Locator) GetByTestID(id string) browser.Locator { return l.child("testid=" + id) }
func (l *Locator) GetByText(text string) browser.Locator { return l.child("text=" + text) }

func (l *Locator) Filter(hasText string) browser.Locator {
	for _, it := range l.Items {
		if it.Text == hasText {
			return it
		}
	}
	return l.child("has-text=" + hasText)
}

func (l *Locator) First() browser.Locator {
	if len(l.Items) > 0 {
		return l.Items[0]
	}
	return l
}

func (l *Locator) Nth(i int) browser.Locator {
	if i >= 0 && i < len(l.Items) {
		return l.Items[i]
	}
	return &Locator{Key: fmt.Sprintf("%s >> nth=%d", l.Key, i)}
}

func (l *Locator) All() ([]browser.Locator, error) {
	if l.AllErr != nil {
		return nil, l.AllErr
	}
	out := make([]browser.Locator, 0, len(l.Items))
	for _, it := range l.Items {
		out = append(out, it)
	}
	return out, nil
}

func (l *Locator) Count() (int, error) { return len(l.Items), nil }

func (l *Locator) Click() error {
	if l.ClickErr != nil {
		return l.ClickErr
	}
	l.Clicks++
	if l.OnClick != nil {
		l.OnClick()
	}
	return nil
}

func (l *Locator) Fill(value string) error {
	l.Fills = append(l.Fills, value)
	l.Value = value
	if l.OnFill != nil {
		l.OnFill(value)
	}
	return nil
}

func (l *Locator) InputValue() (string, error) { return l.Value, nil }

func (l *Locator) TextContent() (string, error) {
	if l.TextErr != nil {
		return "", l.TextErr
	}
	return l.Text, nil
}

func (l *Locator) Attribute(name string) (string, error) { return l.Attrs[name], nil }
func (l *Locator) IsVisible() (bool, error)              { return l.Visible, nil }
func (l *Locator) IsEnabled() (bool, error)              { return !l.Disabled, nil }

func (l *Locator) WaitVisible(timeout time.Duration) error {
	if l.WaitErr != nil {
		return l.WaitErr
	}
	if !l.Visible {
		return fmt.Errorf("%w: %s not visible after %s", browser.ErrTimeout, l.Key, timeout)
	}
	return nil
}

func (l *Locator) ScrollIntoView() error { return nil }
