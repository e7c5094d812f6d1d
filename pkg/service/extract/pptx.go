package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/secmon-lab/docrev/pkg/utils/safe"
)

var slidePathPattern = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// extractSlideText extracts text runs from a PPTX archive in slide
// order. Legacy binary .ppt files are not zip archives and fail the
// open step, which the caller reports as an extraction failure.
func extractSlideText(ctx context.Context, data []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", goerr.Wrap(err, "failed to open presentation archive")
	}

	type slide struct {
		num  int
		file *zip.File
	}
	var slides []slide
	for _, f := range archive.File {
		m := slidePathPattern.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		num, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		slides = append(slides, slide{num: num, file: f})
	}
	if len(slides) == 0 {
		return "", goerr.New("presentation contains no slides")
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	var sb strings.Builder
	for _, s := range slides {
		text, err := readSlideXML(ctx, s.file)
		if err != nil {
			return "", goerr.Wrap(err, "failed to read slide", goerr.V("slide", s.num))
		}
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(text)
	}

	return sb.String(), nil
}

// readSlideXML pulls the character data of <a:t> text-run elements
// in document order
func readSlideXML(ctx context.Context, f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", goerr.Wrap(err, "failed to open slide entry")
	}
	defer safe.Close(ctx, rc)

	decoder := xml.NewDecoder(rc)
	var sb strings.Builder
	inTextRun := false
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", goerr.Wrap(err, "failed to decode slide XML")
		}

		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inTextRun = true
			}
		case xml.EndElement:
			if t.Name.Local == "t" {
				inTextRun = false
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inTextRun {
				sb.Write(t)
			}
		}
	}

	return strings.TrimSpace(sb.String()), nil
}
