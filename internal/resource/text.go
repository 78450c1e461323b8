package resource

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"support-finder/internal/apperrors"
)

// PlainText strips markup from rich-text descriptions and collapses whitespace.
func PlainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	doc.Find("script, style").Remove()
	// Block elements would otherwise glue adjacent words together.
	doc.Find("br, p, li, div").Each(func(_ int, sel *goquery.Selection) {
		sel.AfterHtml(" ")
	})
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// ValidateCoordinates accepts no coordinates at all, or a lat/lng pair within range.
func ValidateCoordinates(lat, lng *float64) error {
	if lat == nil && lng == nil {
		return nil
	}
	if lat == nil || lng == nil {
		return apperrors.InvalidInput("coordinates must be set together", "")
	}
	if !finite(*lat) || !finite(*lng) {
		return apperrors.InvalidInput("coordinates must be finite numbers", fmt.Sprintf("%f,%f", *lat, *lng))
	}
	if *lat < -90 || *lat > 90 {
		return apperrors.InvalidInput("latitude out of range", fmt.Sprintf("%f", *lat))
	}
	if *lng < -180 || *lng > 180 {
		return apperrors.InvalidInput("longitude out of range", fmt.Sprintf("%f", *lng))
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ParseID parses a path identifier. Malformed ids are invalid input, not "not found".
func ParseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.InvalidInput("invalid id", raw)
	}
	return uint(id), nil
}
