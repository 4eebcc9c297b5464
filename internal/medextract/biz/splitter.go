package biz

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	errno "github.com/kart-io/medextract/pkg/utils/errors"
)

// MIME types accepted by the extraction pipeline.
const (
	MIMETypePDF  = "application/pdf"
	MIMETypePNG  = "image/png"
	MIMETypeJPEG = "image/jpeg"
)

// SplitPDF splits a PDF into single-page PDFs, in page order. Each returned
// upload is named "<base>-page-<n>.pdf".
func SplitPDF(name string, data []byte) ([]Upload, error) {
	dir, err := os.MkdirTemp("", "medextract-split-*")
	if err != nil {
		return nil, errno.ErrPDFSplit.WithCause(err)
	}
	defer os.RemoveAll(dir)

	source := filepath.Join(dir, "source.pdf")
	if err := os.WriteFile(source, data, 0o600); err != nil {
		return nil, errno.ErrPDFSplit.WithCause(err)
	}
	optimized := filepath.Join(dir, "optimized.pdf")
	cfg := pdfmodel.NewDefaultConfiguration()
	cfg.ValidationMode = pdfmodel.ValidationRelaxed
	if err := api.OptimizeFile(source, optimized, cfg); err != nil {
		return nil, errno.ErrPDFSplit.WithCause(fmt.Errorf("validate pdf: %w", err))
	}

	pageCount, err := api.PageCountFile(optimized)
	if err != nil {
		return nil, errno.ErrPDFSplit.WithCause(fmt.Errorf("page count: %w", err))
	}
	if err := api.SplitFile(optimized, dir, 1, cfg); err != nil {
		return nil, errno.ErrPDFSplit.WithCause(fmt.Errorf("split: %w", err))
	}

	base := strings.TrimSuffix(name, filepath.Ext(name))
	pages := make([]Upload, 0, pageCount)
	for i := 1; i <= pageCount; i++ {
		b, err := os.ReadFile(filepath.Join(dir, fmt.Sprintf("optimized_%d.pdf", i)))
		if err != nil {
			return nil, errno.ErrPDFSplit.WithCause(fmt.Errorf("page %d: %w", i, err))
		}
		pages = append(pages, Upload{
			Name:     fmt.Sprintf("%s-page-%d.pdf", base, i),
			MIMEType: MIMETypePDF,
			Data:     b,
		})
	}
	return pages, nil
}
