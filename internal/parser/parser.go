// Package parser extracts plain text from uploaded documents. Paged formats
// yield one segment per page (or slide/sheet); plain formats yield a single
// segment with page 0, and the chunker assigns synthetic page numbers.
package parser

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"

	"document-qa/internal/models"
)

// Supported reports whether the file extension can be extracted.
func Supported(ext string) bool {
	switch strings.ToLower(ext) {
	case ".txt", ".md", ".docx", ".pdf", ".pptx", ".xlsx", ".ods":
		return true
	}
	return false
}

// Extract reads the document at path and returns its text segments and the
// number of pages (0 for formats without pages).
func Extract(path string) ([]models.Segment, int, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		return extractPDF(path)
	case ".docx":
		return extractDOCX(path)
	case ".pptx":
		return extractPPTX(path)
	case ".xlsx":
		return extractXLSX(path)
	case ".ods":
		return extractODS(path)
	case ".md":
		return extractMarkdown(path)
	case ".txt":
		return extractText(path)
	default:
		return nil, 0, fmt.Errorf("unsupported file format: %s", ext)
	}
}

func extractPDF(path string) ([]models.Segment, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, 0, err
	}
	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, 0, err
	}

	numPages := reader.NumPage()
	var segments []models.Segment
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return nil, 0, fmt.Errorf("pdf page %d: %w", i, err)
		}
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		segments = append(segments, models.Segment{Text: pageText, Page: i})
	}
	return segments, numPages, nil
}

func extractDOCX(path string) ([]models.Segment, int, error) {
	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return nil, 0, err
	}
	defer r.Close()

	content := r.Editable().GetContent()
	text := extractTagText(content, "<w:t", "</w:t>")
	if strings.TrimSpace(text) == "" {
		return nil, 0, nil
	}
	return []models.Segment{{Text: text, Page: 0}}, 0, nil
}

func extractPPTX(path string) ([]models.Segment, int, error) {
	f, err := zip.OpenReader(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	var segments []models.Segment
	slide := 0
	for _, file := range f.File {
		if !strings.HasPrefix(file.Name, "ppt/slides/slide") {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		slide++
		text := extractTagText(string(data), "<a:t", "</a:t>")
		if strings.TrimSpace(text) == "" {
			continue
		}
		segments = append(segments, models.Segment{Text: text, Page: slide})
	}
	return segments, slide, nil
}

func extractXLSX(path string) ([]models.Segment, int, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, 0, err
	}

	var segments []models.Segment
	for sheetNum, sheet := range f.Sheets {
		var text strings.Builder
		text.WriteString("Sheet " + sheet.Name + ". ")
		for _, row := range sheet.Rows {
			for _, cell := range row.Cells {
				if v := cell.String(); v != "" {
					text.WriteString(v + " ")
				}
			}
			text.WriteString("\n")
		}
		if strings.TrimSpace(strings.TrimPrefix(text.String(), "Sheet "+sheet.Name+". ")) == "" {
			continue
		}
		segments = append(segments, models.Segment{Text: text.String(), Page: sheetNum + 1})
	}
	return segments, len(f.Sheets), nil
}

func extractODS(path string) ([]models.Segment, int, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	var segments []models.Segment
	for sheetNum, sheetName := range sheets {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}
		var text strings.Builder
		text.WriteString("Sheet " + sheetName + ". ")
		for _, row := range rows {
			for _, cell := range row {
				if cell != "" {
					text.WriteString(cell + " ")
				}
			}
			text.WriteString("\n")
		}
		if strings.TrimSpace(strings.TrimPrefix(text.String(), "Sheet "+sheetName+". ")) == "" {
			continue
		}
		segments = append(segments, models.Segment{Text: text.String(), Page: sheetNum + 1})
	}
	return segments, len(sheets), nil
}

func extractText(path string) ([]models.Segment, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, 0, nil
	}
	return []models.Segment{{Text: string(data), Page: 0}}, 0, nil
}

// extractMarkdown walks the goldmark AST and collects text nodes so markup
// characters do not leak into chunks.
func extractMarkdown(path string) ([]models.Segment, int, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}

	md := goldmark.New()
	doc := md.Parser().Parse(gmtext.NewReader(src))

	var sb strings.Builder
	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte('\n')
			}
		case *ast.Paragraph, *ast.Heading, *ast.ListItem, *ast.Blockquote:
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, 0, err
	}
	if strings.TrimSpace(sb.String()) == "" {
		return nil, 0, nil
	}
	return []models.Segment{{Text: sb.String(), Page: 0}}, 0, nil
}

// extractTagText pulls the text runs between open/close tag pairs out of raw
// Office XML.
func extractTagText(xmlContent, openTag, closeTag string) string {
	var text strings.Builder
	rest := xmlContent
	for {
		i := strings.Index(rest, openTag)
		if i < 0 {
			break
		}
		rest = rest[i+len(openTag):]
		// openTag is a tag-name prefix; skip longer names like <w:tbl>
		if len(rest) > 0 && rest[0] != '>' && rest[0] != ' ' && rest[0] != '/' {
			continue
		}
		gt := strings.IndexByte(rest, '>')
		if gt < 0 {
			break
		}
		if gt > 0 && rest[gt-1] == '/' {
			rest = rest[gt+1:]
			continue
		}
		rest = rest[gt+1:]
		end := strings.Index(rest, closeTag)
		if end < 0 {
			break
		}
		text.WriteString(rest[:end] + " ")
		rest = rest[end+len(closeTag):]
	}
	return text.String()
}
