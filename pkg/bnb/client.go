// Package bnb fetches monthly BGN exchange rates from the Bulgarian National
// Bank statistics pages.
package bnb

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/fx"
)

// DefaultBaseURL is the BNB exchange-rate search page.
const DefaultBaseURL = "https://www.bnb.bg/Statistics/StExternalSector/StExchangeRates/StERForeignCurrencies/index.htm"

// ClientConfig represents the configuration for the BNB client.
type ClientConfig struct {
	BaseURL  string        // Default: DefaultBaseURL
	Timeout  time.Duration // Default: 30 seconds
	Interval time.Duration // Minimum delay between requests. Default: 100ms
	Logger   *slog.Logger
}

// Client queries the BNB exchange-rate search page.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a new BNB client.
func NewClient(config ClientConfig) *Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	interval := config.Interval
	if interval == 0 {
		interval = 100 * time.Millisecond
	}
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		limiter:    rate.NewLimiter(rate.Every(interval), 1),
		logger:     logger,
	}
}

// MonthlyRate returns the BGN rate of one unit of currency at the start of
// month (the first published day of the month). ok is false when BNB has
// no rates for that month.
func (c *Client) MonthlyRate(ctx context.Context, currency string, month time.Time) (value decimal.Decimal, ok bool, err error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return decimal.Zero, false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL(currency, month), nil)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, false, parseError(resp)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("failed to parse response: %w", err)
	}

	return firstRowRate(doc)
}

// FetchRates fetches the monthly rate of every currency for each month from
// from to to, inclusive. A currency stops at the first month without data.
func (c *Client) FetchRates(ctx context.Context, currencies []string, from, to time.Time) ([]fx.Rate, error) {
	var rates []fx.Rate

	for _, currency := range currencies {
		for month := fx.MonthOf(from); !month.After(to); month = month.AddDate(0, 1, 0) {
			value, ok, err := c.MonthlyRate(ctx, currency, month)
			if err != nil {
				return nil, fmt.Errorf("failed to fetch %s rate for %s: %w", currency, month.Format("2006-01"), err)
			}
			if !ok {
				c.logger.Info("No rates published, stopping", "currency", currency, "month", month.Format("2006-01"))
				break
			}

			c.logger.Debug("Fetched rate", "currency", currency, "month", month.Format("2006-01"), "rate", value.String())
			rates = append(rates, fx.Rate{Currency: currency, Day: month, Value: value})
		}
	}

	return rates, nil
}

func (c *Client) searchURL(currency string, month time.Time) string {
	m := strconv.Itoa(int(month.Month()))
	y := strconv.Itoa(month.Year())

	q := url.Values{}
	q.Set("downloadOper", "")
	q.Set("group1", "second")
	q.Set("periodStartDays", "01")
	q.Set("periodStartMonths", m)
	q.Set("periodStartYear", y)
	q.Set("periodEndDays", "10")
	q.Set("periodEndMonths", m)
	q.Set("periodEndYear", y)
	q.Set("valutes", currency)
	q.Set("search", "true")

	return c.baseURL + "?" + q.Encode()
}

// firstRowRate reads the first row of the first table body. The row has the
// multiplier in the cell classed "right" and the rate for that many units in
// the cell classed "last right".
func firstRowRate(doc *html.Node) (decimal.Decimal, bool, error) {
	tbody := findElement(doc, "tbody")
	if tbody == nil {
		return decimal.Zero, false, nil
	}
	row := findElement(tbody, "tr")
	if row == nil {
		return decimal.Zero, false, nil
	}

	var multiplier, value string
	for cell := row.FirstChild; cell != nil; cell = cell.NextSibling {
		if cell.Type != html.ElementNode || cell.Data != "td" {
			continue
		}
		switch attr(cell, "class") {
		case "right":
			multiplier = strings.TrimSpace(text(cell))
		case "last right":
			value = strings.TrimSpace(text(cell))
		}
	}
	if multiplier == "" || value == "" {
		return decimal.Zero, false, nil
	}

	m, err := decimal.NewFromString(multiplier)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("invalid multiplier %q: %w", multiplier, err)
	}
	if !m.IsPositive() {
		return decimal.Zero, false, fmt.Errorf("invalid multiplier %q", multiplier)
	}
	v, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("invalid rate %q: %w", value, err)
	}

	return v.Div(m), true, nil
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findElement(child, tag); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func text(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return sb.String()
}

// parseError builds an error from a non-200 response.
func parseError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 512))
	if err != nil {
		return fmt.Errorf("BNB error (status %d): failed to read error response", resp.StatusCode)
	}
	return fmt.Errorf("BNB error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
