// Package browser drives a Chrome page through go-rod.
//
// A Session owns one browser and one page. It is opened with Open and must
// be released with Close; nothing in this package holds global state.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

const navigateAttempts = 3

// Config holds browser settings
type Config struct {
	Headless          bool
	Bin               string
	DebuggerURL       string
	NavigationTimeout time.Duration
	WaitTimeout       time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Headless:          true,
		NavigationTimeout: 30 * time.Second,
		WaitTimeout:       10 * time.Second,
	}
}

// Session is an open browser with a single page
type Session struct {
	cfg      Config
	log      *zap.Logger
	launcher *launcher.Launcher // nil when attached to an existing Chrome
	browser  *rod.Browser
	page     *rod.Page
}

// Open connects to cfg.DebuggerURL or launches a new Chrome and opens a blank page
func Open(ctx context.Context, cfg Config, log *zap.Logger) (*Session, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 30 * time.Second
	}
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = 10 * time.Second
	}

	s := &Session{cfg: cfg, log: log}

	controlURL := cfg.DebuggerURL
	if controlURL == "" {
		l := launcher.New().Headless(cfg.Headless)
		if cfg.Bin != "" {
			l = l.Bin(cfg.Bin)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch chrome: %w", err)
		}
		s.launcher = l
		controlURL = u
		log.Debug("Launched chrome", zap.String("control_url", u))
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}
	s.browser = b

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("create page: %w", err)
	}
	s.page = page

	return s, nil
}

// Close closes the page and the browser and removes a launched Chrome
func (s *Session) Close() error {
	var errs []error
	if s.page != nil {
		if err := s.page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close page: %w", err))
		}
		s.page = nil
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
		s.browser = nil
	}
	s.cleanup()
	return errors.Join(errs...)
}

func (s *Session) cleanup() {
	if s.launcher != nil {
		s.launcher.Cleanup()
		s.launcher = nil
	}
}

// Navigate loads url, retrying with backoff on failure
func (s *Session) Navigate(ctx context.Context, url string) error {
	err := retry.Do(
		func() error {
			p := s.page.Context(ctx).Timeout(s.cfg.NavigationTimeout)
			if err := p.Navigate(url); err != nil {
				return err
			}
			return p.WaitLoad()
		},
		retry.Context(ctx),
		retry.Attempts(navigateAttempts),
		retry.DelayType(retry.BackOffDelay),
		retry.Delay(500*time.Millisecond),
		retry.OnRetry(func(n uint, err error) {
			s.log.Warn("Navigation failed", zap.String("url", url), zap.Uint("attempt", n+1), zap.Error(err))
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// element waits up to the configured timeout for selector to appear
func (s *Session) element(ctx context.Context, selector string) (*rod.Element, error) {
	el, err := s.page.Context(ctx).Timeout(s.cfg.WaitTimeout).Element(selector)
	if err != nil {
		return nil, fmt.Errorf("wait for %s: %w", selector, err)
	}
	return el, nil
}

func (s *Session) elements(ctx context.Context, selector string) (rod.Elements, error) {
	els, err := s.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", selector, err)
	}
	return els, nil
}

// WaitClickable blocks until selector is present, visible and enabled
func (s *Session) WaitClickable(ctx context.Context, selector string) error {
	el, err := s.element(ctx, selector)
	if err != nil {
		return err
	}
	if err := el.WaitVisible(); err != nil {
		return fmt.Errorf("wait visible %s: %w", selector, err)
	}
	if err := el.WaitEnabled(); err != nil {
		return fmt.Errorf("wait enabled %s: %w", selector, err)
	}
	return nil
}

// Click clicks the first element matching selector
func (s *Session) Click(ctx context.Context, selector string) error {
	el, err := s.element(ctx, selector)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

// ClickNth clicks the i-th element matching selector, or its first descendant
// matching sub when sub is not empty
func (s *Session) ClickNth(ctx context.Context, selector string, i int, sub string) error {
	els, err := s.elements(ctx, selector)
	if err != nil {
		return err
	}
	if i < 0 || i >= len(els) {
		return fmt.Errorf("click %s[%d]: only %d matches", selector, i, len(els))
	}
	target := els[i]
	if sub != "" {
		if target, err = target.Element(sub); err != nil {
			return fmt.Errorf("find %s in %s[%d]: %w", sub, selector, i, err)
		}
	}
	return target.Click(proto.InputMouseButtonLeft, 1)
}

// Clear empties a text input
func (s *Session) Clear(ctx context.Context, selector string) error {
	el, err := s.element(ctx, selector)
	if err != nil {
		return err
	}
	if err := el.SelectAllText(); err != nil {
		return fmt.Errorf("select %s: %w", selector, err)
	}
	return el.Input("")
}

// Input types text into an element
func (s *Session) Input(ctx context.Context, selector, text string) error {
	el, err := s.element(ctx, selector)
	if err != nil {
		return err
	}
	return el.Input(text)
}

// PressEnter sends the Enter key to an element
func (s *Session) PressEnter(ctx context.Context, selector string) error {
	el, err := s.element(ctx, selector)
	if err != nil {
		return err
	}
	return el.Type(input.Enter)
}

// Texts returns the text of every element matching selector, without waiting
func (s *Session) Texts(ctx context.Context, selector string) ([]string, error) {
	els, err := s.elements(ctx, selector)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(els))
	for _, el := range els {
		text, err := el.Text()
		if err != nil {
			return nil, fmt.Errorf("text of %s: %w", selector, err)
		}
		out = append(out, text)
	}
	return out, nil
}

// Attrs returns attribute name of every element matching selector ("" when unset)
func (s *Session) Attrs(ctx context.Context, selector, name string) ([]string, error) {
	els, err := s.elements(ctx, selector)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(els))
	for _, el := range els {
		v, err := el.Attribute(name)
		if err != nil {
			return nil, fmt.Errorf("attribute %s of %s: %w", name, selector, err)
		}
		if v == nil {
			out = append(out, "")
			continue
		}
		out = append(out, *v)
	}
	return out, nil
}

// Grid returns, for each element matching rowSelector, the texts of its
// descendants matching cellSelector
func (s *Session) Grid(ctx context.Context, rowSelector, cellSelector string) ([][]string, error) {
	rows, err := s.elements(ctx, rowSelector)
	if err != nil {
		return nil, err
	}
	out := make([][]string, 0, len(rows))
	for i, row := range rows {
		cells, err := row.Elements(cellSelector)
		if err != nil {
			return nil, fmt.Errorf("query %s in %s[%d]: %w", cellSelector, rowSelector, i, err)
		}
		texts := make([]string, 0, len(cells))
		for _, c := range cells {
			text, err := c.Text()
			if err != nil {
				return nil, fmt.Errorf("text of %s in %s[%d]: %w", cellSelector, rowSelector, i, err)
			}
			texts = append(texts, text)
		}
		out = append(out, texts)
	}
	return out, nil
}
