package biz

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/kart-io/logger"
	"github.com/xuri/excelize/v2"

	"github.com/kart-io/medextract/internal/model"
	errno "github.com/kart-io/medextract/pkg/utils/errors"
)

// Workbook sheet names.
const (
	SheetFields      = "Fields"
	SheetLabResults  = "Lab Results"
	SheetMedications = "Medications"
)

// XLSXContentType is the media type of exported workbooks.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Export is a rendered workbook.
type Export struct {
	FileName string
	Data     []byte
}

type sheetSpec struct {
	name    string
	headers []string
	widths  []float64
	rows    [][]any
}

// Export renders a stored document as an XLSX workbook.
func (s *DocumentService) Export(ctx context.Context, id string) (*Export, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errno.ErrMissingDocumentID
	}
	start := time.Now()
	doc, err := s.documents.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	data, err := renderWorkbook(doc)
	if err != nil {
		return nil, errno.ErrExportFailed.WithCause(err)
	}
	logger.Infow("document exported", "document_id", doc.ID, "bytes", len(data), "elapsed_ms", time.Since(start).Milliseconds())

	base := strings.TrimSuffix(doc.FileName, filepath.Ext(doc.FileName))
	if base == "" {
		base = doc.ID
	}
	return &Export{FileName: SanitizeFileName(base) + ".xlsx", Data: data}, nil
}

func renderWorkbook(doc *model.Document) ([]byte, error) {
	var labs []model.LabResult
	var meds []model.Medication
	if merged := doc.StructuredData.Data; merged != nil {
		labs = merged.Medical.LabResults
		meds = merged.Medical.Medications
	}

	fields := sheetSpec{name: SheetFields, headers: []string{"Field", "Value"}, widths: []float64{28, 80}}
	for _, f := range doc.ParsedFields.Data {
		fields.rows = append(fields.rows, []any{f.Label, f.Value})
	}
	labSheet := sheetSpec{
		name:    SheetLabResults,
		headers: []string{"Test", "Value", "Unit", "Reference Range", "Status", "Method", "Notes"},
		widths:  []float64{28, 14, 12, 22, 12, 18, 40},
	}
	for _, l := range labs {
		labSheet.rows = append(labSheet.rows, []any{
			l.Test.String(), l.MeasuredValue.String(), l.Unit.String(), l.ReferenceRange.String(),
			l.Status.String(), l.Method.String(), l.Notes.String(),
		})
	}
	medSheet := sheetSpec{
		name:    SheetMedications,
		headers: []string{"Name", "Dosage", "Frequency", "Duration"},
		widths:  []float64{32, 18, 22, 18},
	}
	for _, m := range meds {
		medSheet.rows = append(medSheet.rows, []any{m.Name.String(), m.Dosage.String(), m.Frequency.String(), m.Duration.String()})
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := f.SetSheetName(f.GetSheetName(0), SheetFields); err != nil {
		return nil, err
	}
	for _, sheet := range []sheetSpec{fields, labSheet, medSheet} {
		if err := writeSheet(f, sheet); err != nil {
			return nil, fmt.Errorf("sheet %q: %w", sheet.name, err)
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet sheetSpec) error {
	if index, _ := f.GetSheetIndex(sheet.name); index == -1 {
		if _, err := f.NewSheet(sheet.name); err != nil {
			return err
		}
	}
	for col, h := range sheet.headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet.name, cell, h); err != nil {
			return err
		}
	}
	for r, row := range sheet.rows {
		for col, v := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, r+2)
			if err := f.SetCellValue(sheet.name, cell, v); err != nil {
				return err
			}
		}
	}
	for col, w := range sheet.widths {
		name, _ := excelize.ColumnNumberToName(col + 1)
		_ = f.SetColWidth(sheet.name, name, name, w)
	}
	return nil
}
