package data

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// DefaultLang is used for chapters stored without a language tag.
const DefaultLang = "FR"

// flexNumber accepts JSON numbers, numeric strings and null.
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*n = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			*n = 0
			return nil
		}
		*n = flexNumber(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*n = flexNumber(f)
	return nil
}

// flexBool accepts booleans, "true"/"false" strings and numbers.
type flexBool bool

func (v *flexBool) UnmarshalJSON(b []byte) error {
	switch s := strings.Trim(string(bytes.TrimSpace(b)), `"`); s {
	case "true", "1":
		*v = true
	default:
		*v = false
	}
	return nil
}

// flexTags accepts either a JSON array of strings or a comma separated string.
type flexTags []string

func (t *flexTags) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*t = nil
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = splitTags(s)
		return nil
	}
	var arr []string
	if err := json.Unmarshal(b, &arr); err != nil {
		return err
	}
	*t = cleanTags(arr)
	return nil
}

type rawSeries struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Name        string            `json:"name"`
	Slug        string            `json:"slug"`
	Tags        flexTags          `json:"tags"`
	Description string            `json:"description"`
	Cover       string            `json:"cover"`
	Views       flexNumber        `json:"views"`
	Hot         flexBool          `json:"hot"`
	CreatedAt   flexNumber        `json:"createdAt"`
	Chapters    []json.RawMessage `json:"chapters"`
}

type rawChapter struct {
	ID          string     `json:"id"`
	SeriesID    string     `json:"seriesId"`
	SerieID     string     `json:"serieId"`
	Name        string     `json:"name"`
	Title       string     `json:"title"`
	Number      flexNumber `json:"number"`
	Lang        string     `json:"lang"`
	Language    string     `json:"language"`
	ReleaseDate string     `json:"releaseDate"`
	Date        string     `json:"date"`
	Pages       []string   `json:"pages"`
}

// NormalizeSeries decodes a stored series list into the canonical shape.
// Chapters embedded in legacy records are split out and returned separately
// with their parent reference set. Malformed input yields empty results.
func NormalizeSeries(raw []byte) ([]Series, []Chapter) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, nil
	}
	series := make([]Series, 0, len(items))
	var chapters []Chapter
	for _, item := range items {
		var r rawSeries
		if err := json.Unmarshal(item, &r); err != nil {
			continue
		}
		title := strings.TrimSpace(r.Title)
		if title == "" {
			title = strings.TrimSpace(r.Name)
		}
		if r.ID == "" || title == "" {
			continue
		}
		series = append(series, Series{
			ID:          r.ID,
			Title:       title,
			Slug:        r.Slug,
			Tags:        []string(r.Tags),
			Description: r.Description,
			Cover:       ImageRef(r.Cover),
			Views:       int(r.Views),
			Hot:         bool(r.Hot),
			CreatedAt:   int64(r.CreatedAt),
		})
		for _, c := range r.Chapters {
			if ch, ok := normalizeChapter(c, r.ID); ok {
				chapters = append(chapters, ch)
			}
		}
	}
	return series, chapters
}

// NormalizeChapters decodes a stored chapter list into the canonical shape.
func NormalizeChapters(raw []byte) []Chapter {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	chapters := make([]Chapter, 0, len(items))
	for _, item := range items {
		if ch, ok := normalizeChapter(item, ""); ok {
			chapters = append(chapters, ch)
		}
	}
	return chapters
}

func normalizeChapter(raw json.RawMessage, parentID string) (Chapter, bool) {
	var r rawChapter
	if err := json.Unmarshal(raw, &r); err != nil || r.ID == "" {
		return Chapter{}, false
	}
	seriesID := firstNonEmpty(r.SeriesID, r.SerieID, parentID)
	if seriesID == "" {
		return Chapter{}, false
	}
	pages := make([]ImageRef, 0, len(r.Pages))
	for _, p := range r.Pages {
		if p != "" {
			pages = append(pages, ImageRef(p))
		}
	}
	return Chapter{
		ID:          r.ID,
		SeriesID:    seriesID,
		Name:        firstNonEmpty(r.Name, r.Title),
		Number:      float64(r.Number),
		Lang:        firstNonEmpty(strings.TrimSpace(r.Lang), strings.TrimSpace(r.Language), DefaultLang),
		ReleaseDate: normalizeDate(firstNonEmpty(r.ReleaseDate, r.Date)),
		Pages:       pages,
	}, true
}

// normalizeDate keeps the calendar day of ISO timestamps.
func normalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 10 && s[4] == '-' && s[7] == '-' {
		return s[:10]
	}
	return s
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func splitTags(s string) []string {
	return cleanTags(strings.Split(s, ","))
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// ParseTags splits a comma separated tag list, dropping blanks.
func ParseTags(s string) []string {
	return splitTags(s)
}
