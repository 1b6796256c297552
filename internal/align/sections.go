package align

import (
	"fmt"
	"strings"

	"guiderag/internal/guide"
)

// Section kinds, in canonical document order.
const (
	KindHeader       = "header"
	KindIntroduction = "introduction"
	KindStep         = "step"
	KindConclusion   = "conclusion"
	KindParts        = "parts"
	KindTools        = "tools"
)

// Section is one structural unit of a guide before size-based splitting.
// The text and image sequences built from a document are index-aligned:
// both sides apply the same inclusion predicate per kind.
type Section struct {
	Kind   string
	Text   string
	Images []string
}

// buildSections renders the canonical section sequence:
// header, [introduction], steps, [conclusion], [parts], [tools].
// Only step sections carry images.
func buildSections(doc *guide.Document) []Section {
	var sections []Section

	// Header is always present, even when every field is empty.
	header := fmt.Sprintf("Guide: %s\nCategory: %s\nDifficulty: %s\nSummary: %s",
		doc.Title, doc.Category, doc.Difficulty, stripMarkup(doc.Summary))
	sections = append(sections, Section{Kind: KindHeader, Text: header})

	if intro := stripMarkup(doc.Introduction); intro != "" {
		sections = append(sections, Section{
			Kind: KindIntroduction,
			Text: "Introduction:\n" + intro,
		})
	}

	for _, step := range doc.Steps {
		// The "Step N:" prefix makes step text non-empty by construction,
		// so every step appears in both sequences.
		sections = append(sections, Section{
			Kind:   KindStep,
			Text:   renderStep(step),
			Images: stepImages(step),
		})
	}

	if conclusion := stripMarkup(doc.Conclusion); conclusion != "" {
		sections = append(sections, Section{
			Kind: KindConclusion,
			Text: "Conclusion:\n" + conclusion,
		})
	}

	if len(doc.Parts) > 0 {
		sections = append(sections, Section{
			Kind: KindParts,
			Text: renderItemList("Required Parts:", doc.Parts),
		})
	}

	if len(doc.Tools) > 0 {
		sections = append(sections, Section{
			Kind: KindTools,
			Text: renderItemList("Required Tools:", doc.Tools),
		})
	}

	return sections
}

func renderStep(step guide.Step) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Step %d: %s\n", step.OrderBy, step.Title)
	for _, line := range step.Lines {
		if text := stripMarkup(line.Text); text != "" {
			sb.WriteString("- ")
			sb.WriteString(text)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func renderItemList(heading string, items []guide.Item) string {
	var sb strings.Builder
	sb.WriteString(heading)
	sb.WriteString("\n")
	for _, item := range items {
		sb.WriteString("- ")
		sb.WriteString(item.Text)
		sb.WriteString("\n")
	}
	return sb.String()
}

// stepImages collects image URLs from a step's media block. The stable-size
// standard rendition is preferred; signed original URLs expire, so they are
// only used when no standard URL exists.
func stepImages(step guide.Step) []string {
	if step.Media.Type != "image" {
		return nil
	}
	var urls []string
	for _, item := range step.Media.Data {
		switch {
		case item.Standard != "":
			urls = append(urls, item.Standard)
		case item.Original != "":
			urls = append(urls, item.Original)
		}
	}
	return urls
}
