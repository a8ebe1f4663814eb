package notifier

import (
	"fmt"
	"strings"

	"github.com/ervin-khamoido/saga-telegram-bot/internal/scraper"
)

// fieldOrder lists the detail fields included in a message, in display
// order. The labels are the ones SAGA uses on its detail pages.
var fieldOrder = []string{
	"Objektnummer",
	"Netto-Kaltmiete",
	"Betriebskosten",
	"Heizkosten",
	"Gesamtmiete",
	"Wohnfläche ca.",
	"Zimmer",
	"Etage",
	"Verfügbar ab",
}

var fieldEmoji = map[string]string{
	"Objektnummer":    "🆔",
	"Netto-Kaltmiete": "💵",
	"Betriebskosten":  "💡",
	"Heizkosten":      "🔥",
	"Gesamtmiete":     "💰",
	"Wohnfläche ca.":  "📐",
	"Zimmer":          "🛏️",
	"Etage":           "🏢",
	"Verfügbar ab":    "📅",
}

// BuildMessage formats a listing and its detail fields as a Markdown
// message. details may be nil when the detail page could not be fetched;
// the message then falls back to the search-page data.
func BuildMessage(listing scraper.Listing, details *scraper.Details) string {
	var lines []string

	title := listing.Title
	if details != nil && details.Title != "" {
		title = details.Title
	}
	if title == "" {
		title = "N/A"
	}
	lines = append(lines, fmt.Sprintf("🏠 *%s*\n", title))

	if details != nil {
		for _, key := range fieldOrder {
			value := details.Fields[key]
			if value == "" {
				continue
			}
			emoji := fieldEmoji[key]
			lines = append(lines, fmt.Sprintf("%s *%s:* %s", emoji, key, value))
		}
	}

	if listing.Price != "" && (details == nil || details.Fields["Gesamtmiete"] == "") {
		lines = append(lines, fmt.Sprintf("💰 *Preis:* %s", listing.Price))
	}

	if details != nil && details.Description != "" {
		lines = append(lines, fmt.Sprintf("📝 %s", details.Description))
	}

	lines = append(lines, fmt.Sprintf("🔗 %s", listing.URL))

	return strings.Join(lines, "\n")
}
