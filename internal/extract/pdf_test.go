package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPDFTextRejectsNonPDF(t *testing.T) {
	_, err := PDFText(strings.NewReader("this is not a pdf"))
	assert.ErrorIs(t, err, ErrUnreadable)
}

func TestPDFTextRejectsEmptyInput(t *testing.T) {
	_, err := PDFText(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrUnreadable)
}
