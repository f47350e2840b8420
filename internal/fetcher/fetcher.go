package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/pbaille/gemrank/internal/phrases"
	"golang.org/x/net/html"
)

// ErrNoMoonSign is returned when a moon calendar page names no zodiac sign
var ErrNoMoonSign = errors.New("no moon sign on page")

const (
	userAgent      = "gemrank/1.0"
	maxBody        = 5 * 1024 * 1024
	fetchAttempts  = 3
	astroSymbolCls = "astro_symbol"
)

// MoonPageURL returns the moon calendar page of date under base
func MoonPageURL(base string, date time.Time) string {
	return fmt.Sprintf("%s/moon-phase-day-%s-%s-%s",
		strings.TrimRight(base, "/"),
		date.Format("02"),
		strings.ToLower(date.Format("January")),
		date.Format("2006"))
}

// MoonSign fetches the moon calendar page of date and returns its moon sign, lowercased
func MoonSign(ctx context.Context, client *http.Client, base string, date time.Time) (string, error) {
	var body string
	err := retry.Do(
		func() error {
			var err error
			body, err = Fetch(ctx, client, MoonPageURL(base, date))
			return err
		},
		retry.Context(ctx),
		retry.Attempts(fetchAttempts),
		retry.DelayType(retry.BackOffDelay),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return "", err
	}

	sign := phrases.FirstSign(extractAlts(body, astroSymbolCls))
	if sign == "" {
		return "", ErrNoMoonSign
	}
	return sign, nil
}

// Fetch retrieves a page body
func Fetch(ctx context.Context, client *http.Client, rawURL string) (string, error) {
	// Validate URL
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", retry.Unrecoverable(fmt.Errorf("unsupported scheme: %s", u.Scheme))
	}

	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return "", retry.Unrecoverable(err)
		}
		return "", err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(body), nil
}

// extractAlts returns the alt text of every img carrying class, in document order
func extractAlts(htmlContent, class string) []string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil
	}

	var alts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "img" && hasClass(n, class) {
			alts = append(alts, attr(n, "alt"))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return alts
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	return slices.Contains(strings.Fields(attr(n, "class")), class)
}
