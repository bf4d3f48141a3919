package appraisal

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// SummaryPDF renders a completed appraisal as a printable summary. The same
// read guard as Get applies, and incomplete appraisals have no summary.
func (s *Service) SummaryPDF(ctx context.Context, tenantID string, actor Actor, id string) ([]byte, error) {
	a, err := s.Get(ctx, tenantID, actor, id)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusComplete {
		return nil, fmt.Errorf("%w: summary is only available once the appraisal is complete", ErrInvalidState)
	}

	appraisee := s.nameOrID(ctx, tenantID, a.AppraiseeID)
	appraiser := s.nameOrID(ctx, tenantID, a.AppraiserID)
	reviewer := s.nameOrID(ctx, tenantID, a.ReviewerID)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Performance Appraisal Summary")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, fmt.Sprintf("Appraisee: %s", appraisee))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Appraiser: %s", appraiser))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Reviewer: %s", reviewer))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Period: %s to %s", a.PeriodStart.Format("2006-01-02"), a.PeriodEnd.Format("2006-01-02")))
	pdf.Ln(10)

	for i, g := range a.Goals {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.MultiCell(0, 6, fmt.Sprintf("Goal %d: %s (%d%%)", i+1, g.Title, g.Weightage), "", "L", false)
		pdf.SetFont("Helvetica", "", 10)
		if g.Description != "" {
			pdf.MultiCell(0, 5, g.Description, "", "L", false)
		}
		writePair(pdf, "Self", g.Self)
		writePair(pdf, "Appraiser", g.Appraiser)
		pdf.Ln(4)
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Overall")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	writePair(pdf, "Appraiser", a.AppraiserOverall)
	writePair(pdf, "Reviewer", a.ReviewerOverall)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render summary pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *Service) nameOrID(ctx context.Context, tenantID, employeeID string) string {
	name, err := s.store.EmployeeName(ctx, tenantID, employeeID)
	if err != nil || name == "" {
		return employeeID
	}
	return name
}

func writePair(pdf *gofpdf.Fpdf, label string, p EvaluationPair) {
	if p.Rating == nil {
		return
	}
	pdf.MultiCell(0, 5, fmt.Sprintf("%s: %d/%d - %s", label, *p.Rating, RatingMax, p.Comment), "", "L", false)
}
