/*
Package extract pulls plain text out of uploaded documents. Only the text is
handed to the analysis agents; document bytes never leave this package.
*/
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// MaxDocumentSize bounds an uploaded document.
const MaxDocumentSize = 10 << 20

var (
	// ErrNoText means the document parsed but contained no extractable text.
	ErrNoText = errors.New("could not extract text from PDF")
	// ErrUnreadable means the bytes are not a readable PDF.
	ErrUnreadable = errors.New("unreadable PDF document")
)

// PDFText reads every page of a PDF and returns its plain text.
func PDFText(r io.Reader) (text string, err error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxDocumentSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read document: %w", err)
	}
	if len(data) > MaxDocumentSize {
		return "", fmt.Errorf("%w: document exceeds %d bytes", ErrUnreadable, MaxDocumentSize)
	}

	// The parser panics on some malformed inputs.
	defer func() {
		if p := recover(); p != nil {
			text, err = "", fmt.Errorf("%w: %v", ErrUnreadable, p)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	var buf strings.Builder
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	text = buf.String()
	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}
	return text, nil
}
