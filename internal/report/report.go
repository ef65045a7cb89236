// Package report renders an onboarding summary as a PDF.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/iotplatform/device-onboarding/internal/models"
)

// Write renders a one-page onboarding summary to w.
func Write(w io.Writer, draft models.DeviceDraft, result models.OnboardingResult) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Device Onboarding Summary")
	pdf.Ln(14)

	pdf.SetFont("Helvetica", "", 11)
	rows := [][2]string{
		{"Device ID", result.DeviceID},
		{"Device name", result.DeviceName},
		{"Type", string(draft.NormalizedType())},
		{"Manufacturer", draft.Manufacturer},
		{"Model", draft.Model},
		{"Location", draft.Location},
		{"Protocol", string(draft.Protocol)},
		{"Documentation", result.DocumentName},
		{"Artifact source", string(result.ArtifactSource)},
		{"Rules generated", fmt.Sprintf("%d", result.RulesGenerated)},
		{"Maintenance items", fmt.Sprintf("%d", result.MaintenanceItems)},
		{"Safety precautions", fmt.Sprintf("%d", result.SafetyPrecautions)},
		{"Processing time", result.ProcessingTime.Round(time.Millisecond).String()},
	}

	for _, row := range rows {
		if row[1] == "" {
			continue
		}
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(50, 8, row[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 8, row[1], "", 1, "L", false, 0, "")
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.Cell(0, 6, fmt.Sprintf("Generated %s", time.Now().Format(time.RFC1123)))

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render onboarding report: %w", err)
	}
	return nil
}
