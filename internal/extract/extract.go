// Package extract turns uploaded lecture documents into plain text.
package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/lecturelab/examgen/internal/model"
)

var slideNameRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// Extract dispatches on the declared format and returns the flattened
// text content of the document. The format enum is the only dispatch
// input; the buffer is never sniffed. A document that decodes to no
// text at all is an error, since generating an exam from nothing is
// meaningless.
func Extract(data []byte, format model.Format) (string, error) {
	var (
		text string
		err  error
	)
	switch format {
	case model.FormatPDF:
		text, err = pdfText(data)
	case model.FormatModernSlide:
		text, err = slideText(data)
	case model.FormatWord:
		text, err = wordText(data)
	case model.FormatLegacySlide:
		return "", model.Errf(model.KindExtraction,
			"legacy slide decks must be converted to the modern format before extraction")
	default:
		return "", model.Errf(model.KindExtraction, "unsupported document format %q", format)
	}
	if err != nil {
		return "", model.E(model.KindExtraction, fmt.Sprintf("decode %s document", format), err)
	}
	if text == "" {
		return "", model.Errf(model.KindExtraction, "document contains no extractable text")
	}
	return text, nil
}

// pdfText concatenates the plain text of every page.
func pdfText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	var parts []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		parts = append(parts, text)
	}
	return flatten(strings.Join(parts, " ")), nil
}

// slideText concatenates the text runs of every slide, in slide order.
// Slides are ordered numerically so slide2 precedes slide10.
func slideText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	type slideFile struct {
		num  int
		file *zip.File
	}
	var slides []slideFile
	for _, f := range zr.File {
		m := slideNameRe.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		slides = append(slides, slideFile{num: n, file: f})
	}
	if len(slides) == 0 {
		return "", errors.New("no slides found in archive")
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	var parts []string
	for _, s := range slides {
		text, err := partText(s.file)
		if err != nil {
			return "", fmt.Errorf("slide %d: %w", s.num, err)
		}
		parts = append(parts, text)
	}
	return flatten(strings.Join(parts, " ")), nil
}

// wordText concatenates paragraph text in document order.
func wordText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			text, err := partText(f)
			if err != nil {
				return "", err
			}
			return flatten(text), nil
		}
	}
	return "", errors.New("word/document.xml not found in archive")
}

// partText collects the character data of every text run in one OOXML
// part. WordprocessingML (w:t) and DrawingML (a:t) both use the local
// name "t" for runs and "p" for paragraphs; runs concatenate directly,
// paragraph ends become separators.
func partText(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	dec := xml.NewDecoder(rc)
	var sb strings.Builder
	inRun := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inRun = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inRun = false
			case "p":
				sb.WriteString(" ")
			}
		case xml.CharData:
			if inRun {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}

// flatten collapses runs of whitespace into single spaces.
func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
