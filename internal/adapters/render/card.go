// Package render turns quotes into chat-platform neutral cards. Adapters
// map a Card onto their own message format.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/FrancoRivero2025/stock-alert-bot/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	ColorGreen     = 0x2ecc71
	ColorRed       = 0xe74c3c
	ColorBlue      = 0x3498db
	ColorLightGray = 0x979c9f

	AlertContent = "@everyone **Market alert!**"
	ListContent  = "@everyone **Tracked stock prices**"
)

// Style carries what a card needs besides the quote: the alert threshold in
// percent and the name of the price provider shown in the footer.
type Style struct {
	ThresholdPct decimal.Decimal
	Source       string
}

type Field struct {
	Name   string
	Value  string
	Inline bool
}

type Card struct {
	Title       string
	Description string
	Color       int
	Fields      []Field
	Footer      string
	Timestamp   time.Time
}

func Money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func signed(d decimal.Decimal, suffix string) string {
	sign := ""
	if !d.IsNegative() {
		sign = "+"
	}
	return sign + d.StringFixed(2) + suffix
}

// Direction classifies a quote against the alert threshold (in percent).
func Direction(q domain.PriceQuote, thresholdPct decimal.Decimal) (label string, color int) {
	switch {
	case q.PercentChange.GreaterThanOrEqual(thresholdPct):
		return "🟢 Up", ColorGreen
	case q.PercentChange.LessThanOrEqual(thresholdPct.Neg()):
		return "🔴 Down", ColorRed
	default:
		return "⚪ Stable", ColorBlue
	}
}

func QuoteCard(q domain.PriceQuote, style Style) Card {
	label, color := Direction(q, style.ThresholdPct)
	ts := q.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return Card{
		Title:       fmt.Sprintf("⚠️ Stock price alert: %s", q.Ticker),
		Description: "Significant price change detected!",
		Color:       color,
		Fields: []Field{
			{Name: "Current price", Value: "**" + Money(q.CurrentPrice) + "**", Inline: true},
			{Name: "Previous close", Value: Money(q.PrevClose), Inline: true},
			{Name: "Change", Value: fmt.Sprintf("%s %s (%s)", label,
				signed(q.Change, ""), signed(q.PercentChange, "%"))},
		},
		Footer:    footer(style.Source, q.Ticker),
		Timestamp: ts.UTC(),
	}
}

func footer(source string, t domain.Ticker) string {
	if source == "" {
		return fmt.Sprintf("Ticker: %s", t)
	}
	return fmt.Sprintf("Watched via %s | Ticker: %s", source, t)
}

func PlaceholderCard(t domain.Ticker, prevClose decimal.NullDecimal) Card {
	value := "N/A"
	if prevClose.Valid {
		value = Money(prevClose.Decimal)
	}
	return Card{
		Title:       fmt.Sprintf("⚠️ Stock data: %s (no live data yet)", t),
		Description: "Live price not cached yet. Try again after the next one-minute check.",
		Color:       ColorLightGray,
		Fields:      []Field{{Name: "Previous close", Value: value}},
	}
}

// PlainText renders the card for platforms without rich embeds.
func (c Card) PlainText() string {
	var b strings.Builder
	b.WriteString(c.Title)
	if c.Description != "" {
		b.WriteString("\n")
		b.WriteString(c.Description)
	}
	for _, f := range c.Fields {
		fmt.Fprintf(&b, "\n%s: %s", f.Name, strings.ReplaceAll(f.Value, "**", ""))
	}
	if c.Footer != "" {
		b.WriteString("\n")
		b.WriteString(c.Footer)
	}
	return b.String()
}
