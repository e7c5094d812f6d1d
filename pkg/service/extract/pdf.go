package extract

import (
	"bytes"
	"io"

	"github.com/ledongthuc/pdf"
	"github.com/m-mizutani/goerr/v2"
)

// extractPDFText extracts plain text from raw PDF bytes
func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", goerr.Wrap(err, "failed to open PDF")
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", goerr.Wrap(err, "failed to extract PDF text")
	}

	text, err := io.ReadAll(plain)
	if err != nil {
		return "", goerr.Wrap(err, "failed to read PDF text")
	}

	return string(text), nil
}
