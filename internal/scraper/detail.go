package scraper

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ervin-khamoido/saga-telegram-bot/pkg/errors"
)

// ParseDetails extracts the title, the key/value fields and the free-text
// description from a listing detail page. Detail pages mix definition
// lists, tables and a keyfacts list, so all three are walked.
func ParseDetails(body io.Reader) (*Details, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, errors.NewParsing("detail", "failed to parse detail page", err)
	}

	d := &Details{
		Fields: make(map[string]string),
	}

	if h1 := doc.Find("h1").First(); h1.Length() > 0 {
		d.Title = collapseWhitespace(h1.Text())
	}

	// dt/dd pairs in description lists
	doc.Find("dl").Each(func(i int, dl *goquery.Selection) {
		dts := dl.Find("dt")
		dds := dl.Find("dd")
		n := dts.Length()
		if dds.Length() < n {
			n = dds.Length()
		}
		for j := 0; j < n; j++ {
			key := fieldKey(dts.Eq(j).Text())
			val := collapseWhitespace(dds.Eq(j).Text())
			if key != "" && val != "" {
				d.Fields[key] = val
			}
		}
	})

	// Tabular data, either th/td rows or two-td rows
	doc.Find("table tr").Each(func(i int, tr *goquery.Selection) {
		th := tr.Find("th").First()
		td := tr.Find("td").First()
		if th.Length() > 0 && td.Length() > 0 {
			key := fieldKey(th.Text())
			val := collapseWhitespace(td.Text())
			if key != "" && val != "" {
				d.Fields[key] = val
			}
			return
		}

		tds := tr.Find("td")
		if tds.Length() == 2 {
			key := fieldKey(tds.Eq(0).Text())
			val := collapseWhitespace(tds.Eq(1).Text())
			if key != "" && val != "" {
				d.Fields[key] = val
			}
		}
	})

	// Keyfacts list items shaped as "Key: Value"
	doc.Find(".keyfacts-list li").Each(func(i int, li *goquery.Selection) {
		text := strings.TrimSpace(li.Text())
		if k, v, ok := strings.Cut(text, ":"); ok {
			key := fieldKey(k)
			val := collapseWhitespace(v)
			if key != "" && val != "" {
				d.Fields[key] = val
			}
		}
	})

	desc := doc.Find("#text-description").First()
	if desc.Length() == 0 {
		desc = doc.Find(".description").First()
	}
	if desc.Length() > 0 {
		d.Description = collapseWhitespace(desc.Text())
	}

	return d, nil
}

// fieldKey normalizes a field label by trimming whitespace and a
// trailing colon
func fieldKey(s string) string {
	return strings.TrimSuffix(collapseWhitespace(s), ":")
}
