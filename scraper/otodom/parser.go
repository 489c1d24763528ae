package otodom

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/bartlomiej-milosz/warsaw-property-analysis/config"
	"github.com/bartlomiej-milosz/warsaw-property-analysis/models"
)

const (
	listingLinkSelector = `a[data-cy="listing-item-link"]`
	priceSelector       = `strong[data-cy="adPageHeaderPrice"]`
	locationSelector    = `a[data-sentry-element="StyledLink"][data-sentry-source-file="MapLink.tsx"]`
	itemGridSelector    = `div[data-sentry-element="ItemGridContainer"][data-sentry-source-file="AdDetailItem.tsx"]`
	itemLabelSelector   = `div[data-sentry-element="Item"][data-sentry-source-file="AdDetailItem.tsx"]`

	featureSeparator = " | "
)

// Parser extracts listing links and detail fields from site HTML.
// It is stateless and safe for concurrent use.
type Parser struct {
	base          *url.URL
	labels        []config.DetailLabel
	featuresLabel string
}

// NewParser creates a Parser resolving relative links against baseURL.
func NewParser(baseURL string, dict config.Dictionary) (*Parser, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("otodom: invalid base url %q: %w", baseURL, err)
	}
	return &Parser{base: base, labels: dict.DetailLabels, featuresLabel: dict.FeaturesLabel}, nil
}

// ListingLinks returns the absolute detail-page URLs on a results page in
// document order. Anchors without an href are skipped.
func (p *Parser) ListingLinks(content []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("otodom: parse results page: %w", err)
	}

	var links []string
	doc.Find(listingLinkSelector).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		links = append(links, p.base.ResolveReference(ref).String())
	})
	return links, nil
}

// DetailFields extracts the raw field values of one listing page. Fields
// that are not on the page are left out of the record.
func (p *Parser) DetailFields(link string, content []byte) (models.RawProperty, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return models.RawProperty{}, fmt.Errorf("otodom: parse detail page %s: %w", link, err)
	}

	raw := models.NewRawProperty(link)

	if price := doc.Find(priceSelector).First(); price.Length() > 0 {
		raw.Set(models.FieldPrice, normaliseText(price.Text()))
	}
	if loc := doc.Find(locationSelector).First(); loc.Length() > 0 {
		raw.Set(models.FieldLocation, normaliseText(loc.Text()))
	}

	doc.Find(itemGridSelector).Each(func(_ int, container *goquery.Selection) {
		label := container.Find(itemLabelSelector).First()
		if label.Length() == 0 {
			return
		}
		labelText := label.Text()
		value := label.NextAllFiltered("div").First()

		if p.featuresLabel != "" && strings.Contains(labelText, p.featuresLabel) {
			if _, seen := raw.Fields[models.FieldAdditionalFeatures]; !seen && value.Length() > 0 {
				if features := featureList(value); features != "" {
					raw.Set(models.FieldAdditionalFeatures, features)
				}
			}
			return
		}

		for _, l := range p.labels {
			if !strings.Contains(labelText, l.Label) {
				continue
			}
			if _, seen := raw.Fields[l.Field]; !seen && value.Length() > 0 {
				raw.Set(l.Field, normaliseText(value.Text()))
			}
			return
		}
	})

	return raw, nil
}

// featureList joins the text of the innermost spans under sel.
func featureList(sel *goquery.Selection) string {
	var features []string
	sel.Find("span").Each(func(_ int, s *goquery.Selection) {
		if s.Find("span").Length() > 0 {
			return
		}
		if text := normaliseText(s.Text()); text != "" {
			features = append(features, text)
		}
	})
	if len(features) == 0 {
		return normaliseText(sel.Text())
	}
	return strings.Join(features, featureSeparator)
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
