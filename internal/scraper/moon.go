package scraper

import (
	"context"
	"time"

	"github.com/pbaille/gemrank/internal/fetcher"
	"github.com/pbaille/gemrank/internal/phrases"
)

const selAstroSymbol = ".astro_symbol"

// MoonSign reads the moon sign of date from the moon calendar rendered in page
func MoonSign(ctx context.Context, page Page, baseURL string, date time.Time) (string, error) {
	if err := page.Navigate(ctx, fetcher.MoonPageURL(baseURL, date)); err != nil {
		return "", err
	}
	if err := page.WaitClickable(ctx, selAstroSymbol); err != nil {
		return "", err
	}
	alts, err := page.Attrs(ctx, selAstroSymbol, "alt")
	if err != nil {
		return "", err
	}
	sign := phrases.FirstSign(alts)
	if sign == "" {
		return "", fetcher.ErrNoMoonSign
	}
	return sign, nil
}
