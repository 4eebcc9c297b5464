package biz

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errno "github.com/kart-io/medextract/pkg/utils/errors"
)

// buildPDF writes a minimal PDF with one empty page per width. Page heights
// are fixed so widths identify pages after a split.
func buildPDF(t *testing.T, widths ...int) []byte {
	t.Helper()
	var buf bytes.Buffer
	offsets := make([]int, 0, len(widths)+2)
	object := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")
	kids := make([]string, len(widths))
	for i := range widths {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
	}
	object("<< /Type /Catalog /Pages 2 0 R >>")
	object(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(widths)))
	for _, w := range widths {
		object(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d 500] /Resources << >> >>", w))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

func pageWidth(t *testing.T, data []byte) float64 {
	t.Helper()
	dims, err := api.PageDims(bytes.NewReader(data), pdfmodel.NewDefaultConfiguration())
	require.NoError(t, err)
	require.Len(t, dims, 1)
	return dims[0].Width
}

func TestSplitPDF(t *testing.T) {
	pages, err := SplitPDF("lab report.pdf", buildPDF(t, 200, 300, 400))
	require.NoError(t, err)
	require.Len(t, pages, 3)

	for i, page := range pages {
		assert.Equal(t, fmt.Sprintf("lab report-page-%d.pdf", i+1), page.Name)
		assert.Equal(t, MIMETypePDF, page.MIMEType)
		assert.True(t, bytes.HasPrefix(page.Data, []byte("%PDF-")))
		assert.InDelta(t, float64(200+100*i), pageWidth(t, page.Data), 0.01)
	}
}

func TestSplitPDFSinglePage(t *testing.T) {
	pages, err := SplitPDF("scan.pdf", buildPDF(t, 612))
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "scan-page-1.pdf", pages[0].Name)
	assert.InDelta(t, 612.0, pageWidth(t, pages[0].Data), 0.01)
}

func TestSplitPDFRejectsInvalidInput(t *testing.T) {
	_, err := SplitPDF("broken.pdf", []byte("not a pdf at all"))
	assert.ErrorIs(t, err, errno.ErrPDFSplit)
}
