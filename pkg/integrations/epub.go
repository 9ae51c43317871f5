package integrations

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/YungFritz/kyys-letters/pkg/data"
	"github.com/go-shiori/go-epub"
	"github.com/vincent-petithory/dataurl"
)

type EPubBuilder struct {
	outputDir string
	images    ImageSource
}

func NewEPubBuilder(outputDir string, images ImageSource) *EPubBuilder {
	return &EPubBuilder{outputDir: outputDir, images: images}
}

// CreateEPub compiles the chapters of a series into a single EPub file
func (p *EPubBuilder) CreateEPub(ctx context.Context, series data.Series, chapters []data.Chapter) (string, error) {
	if len(chapters) == 0 {
		return "", fmt.Errorf("no chapters to compile")
	}

	if err := os.MkdirAll(p.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	sorted := make([]data.Chapter, len(chapters))
	copy(sorted, chapters)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Number < sorted[j].Number
	})

	e, err := epub.NewEpub(series.Title)
	if err != nil {
		return "", fmt.Errorf("failed to create EPub: %w", err)
	}

	e.SetAuthor("Kyy's Letters")
	if series.Description != "" {
		e.SetDescription(series.Description)
	}
	e.SetLang(strings.ToLower(sorted[0].Lang))

	added := 0
	for _, chapter := range sorted {
		if len(chapter.Pages) == 0 {
			continue
		}
		if err := p.addChapter(ctx, e, chapter); err != nil {
			return "", fmt.Errorf("failed to add chapter %s: %w", formatNumber(chapter.Number), err)
		}
		added++
	}
	if added == 0 {
		return "", fmt.Errorf("no chapter has pages")
	}

	outputPath := filepath.Join(p.outputDir, sanitizeFilename(series.Slug)+".epub")
	if err := e.Write(outputPath); err != nil {
		return "", fmt.Errorf("failed to write EPub: %w", err)
	}

	return outputPath, nil
}

// addChapter adds a single chapter's pages to the EPub
func (p *EPubBuilder) addChapter(ctx context.Context, e *epub.Epub, chapter data.Chapter) error {
	title := fmt.Sprintf("Chapitre %s", formatNumber(chapter.Number))
	if chapter.Name != "" {
		title = fmt.Sprintf("%s: %s", title, chapter.Name)
	}

	var body strings.Builder
	body.WriteString(fmt.Sprintf("<h1>%s</h1>\n", title))

	for i, ref := range chapter.Pages {
		source := string(ref)
		ext := ".jpg"
		if !ref.IsInline() {
			content, contentType, err := p.images.OpenImage(ctx, ref)
			if err != nil {
				return fmt.Errorf("failed to load page %d: %w", i+1, err)
			}
			if content == nil {
				continue
			}
			if !strings.Contains(contentType, "/") {
				contentType = "image/jpeg"
			}
			source = dataurl.New(content, contentType).String()
			if contentType == "image/png" {
				ext = ".png"
			}
		}

		name := fmt.Sprintf("%s-%03d%s", sanitizeFilename(chapter.ID), i+1, ext)
		internalPath, err := e.AddImage(source, name)
		if err != nil {
			return fmt.Errorf("failed to add page %d: %w", i+1, err)
		}

		body.WriteString(fmt.Sprintf(
			`<div class="page"><img src="%s" alt="Page %d" style="width:100%%;height:auto;"/></div>%s`,
			internalPath, i+1, "\n",
		))
	}

	if _, err := e.AddSection(body.String(), title, "", ""); err != nil {
		return fmt.Errorf("failed to add section: %w", err)
	}
	return nil
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// sanitizeFilename removes characters that are invalid in filenames
func sanitizeFilename(name string) string {
	invalid := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"}
	result := name
	for _, char := range invalid {
		result = strings.ReplaceAll(result, char, "_")
	}
	result = strings.TrimSpace(result)
	result = strings.Trim(result, ".")
	if result == "" {
		result = "series"
	}
	return result
}
