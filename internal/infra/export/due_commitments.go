package export

import (
	"fmt"
	"io"
	"time"

	"commitment_notifier/internal/app"
	"commitment_notifier/internal/domain/commitment"

	"github.com/xuri/excelize/v2"
)

const (
	SheetName = "Vencimientos"
	// HeadingRow holds the column headings; data starts on the row below.
	HeadingRow = 7
	// ContentType is the MIME type of the generated workbook.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

const (
	colorPrimary   = "0D47A1"
	colorSecondary = "263238"
	colorSubHeader = "E3F2FD"
	colorBorder    = "E0E0E0"
	currencyFormat = `"$"#,##0`
)

var headings = []string{"ID", "Concepto", "Beneficiario", "Valor", "Vencimiento", "Días", "Estado", "Prioridad"}

var columnWidths = []float64{8, 35, 28, 18, 14, 8, 14, 12}

var priorityColors = map[commitment.Priority]string{
	commitment.PriorityCritical: "C62828",
	commitment.PriorityHigh:     "E65100",
	commitment.PriorityMedium:   "1976D2",
	commitment.PriorityLow:      "2E7D32",
}

var statusLabels = map[commitment.AttentionStatus]string{
	commitment.AttentionOverdue:  "Vencido",
	commitment.AttentionDueSoon:  "Por vencer",
	commitment.AttentionUpcoming: "Próximo",
}

type styles struct {
	title, subtitle, metrics, generated, heading, cell, amount int
	status                                                     map[commitment.Priority]int
}

// WriteDueCommitments writes the active commitment list as an .xlsx workbook.
// Dates are shown in the location of generatedAt.
func WriteDueCommitments(w io.Writer, list []app.ActiveCommitment, stats app.DueStats, generatedAt time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	st, err := newStyles(f)
	if err != nil {
		return err
	}

	lastCol, _ := excelize.ColumnNumberToName(len(headings))
	loc := generatedAt.Location()

	header := []struct {
		text  string
		style int
	}{
		{"DR GROUP - Compromisos financieros", st.title},
		{"Compromisos vencidos y próximos a vencer (7 días)", st.subtitle},
		{fmt.Sprintf("Total: %d | Vencidos: %d (%s) | Por vencer: %d | Próximos: %d | Valor total: %s",
			stats.Total, stats.Overdue, app.FormatCOP(stats.OverdueAmount), stats.DueSoon, stats.Upcoming, app.FormatCOP(stats.TotalAmount)), st.metrics},
		{"Generado: " + generatedAt.Format("02/01/2006 15:04"), st.generated},
	}
	for i, h := range header {
		row := i + 1
		first, last := fmt.Sprintf("A%d", row), fmt.Sprintf("%s%d", lastCol, row)
		if err := f.MergeCell(SheetName, first, last); err != nil {
			return fmt.Errorf("failed to merge header row %d: %w", row, err)
		}
		if err := f.SetCellValue(SheetName, first, h.text); err != nil {
			return err
		}
		if err := f.SetCellStyle(SheetName, first, last, h.style); err != nil {
			return err
		}
	}
	if err := f.SetRowHeight(SheetName, 1, 32); err != nil {
		return err
	}
	// Rows 5 and 6 stay empty as spacers.

	headingRow := make([]any, len(headings))
	for i, h := range headings {
		headingRow[i] = h
	}
	if err := f.SetSheetRow(SheetName, fmt.Sprintf("A%d", HeadingRow), &headingRow); err != nil {
		return fmt.Errorf("failed to write headings: %w", err)
	}
	if err := f.SetCellStyle(SheetName, fmt.Sprintf("A%d", HeadingRow), fmt.Sprintf("%s%d", lastCol, HeadingRow), st.heading); err != nil {
		return err
	}

	for i, a := range list {
		row := HeadingRow + 1 + i
		c := a.Commitment
		values := []any{
			c.ID,
			c.Concept,
			c.Beneficiary,
			c.Amount.InexactFloat64(),
			a.DueDate.In(loc).Format("02/01/2006"),
			a.Classification.DaysUntilDue,
			statusLabels[a.Classification.Status],
			string(a.Classification.Priority),
		}
		if err := f.SetSheetRow(SheetName, fmt.Sprintf("A%d", row), &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", row, err)
		}
		if err := f.SetCellStyle(SheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("%s%d", lastCol, row), st.cell); err != nil {
			return err
		}
		if err := f.SetCellStyle(SheetName, fmt.Sprintf("D%d", row), fmt.Sprintf("D%d", row), st.amount); err != nil {
			return err
		}
		if id, ok := st.status[a.Classification.Priority]; ok {
			if err := f.SetCellStyle(SheetName, fmt.Sprintf("G%d", row), fmt.Sprintf("H%d", row), id); err != nil {
				return err
			}
		}
	}

	for i, width := range columnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return err
		}
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      HeadingRow,
		TopLeftCell: fmt.Sprintf("A%d", HeadingRow+1),
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze headings: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func border(color string) []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: color, Style: 1},
		{Type: "top", Color: color, Style: 1},
		{Type: "right", Color: color, Style: 1},
		{Type: "bottom", Color: color, Style: 1},
	}
}

func newStyles(f *excelize.File) (*styles, error) {
	currency := currencyFormat
	center := &excelize.Alignment{Horizontal: "center", Vertical: "center"}

	st := &styles{status: map[commitment.Priority]int{}}
	defs := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&st.title, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 18, Color: "FFFFFF", Family: "Segoe UI"},
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{colorPrimary}},
			Alignment: center,
		}},
		{&st.subtitle, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 13, Color: colorSecondary, Family: "Segoe UI"},
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{colorSubHeader}},
			Alignment: center,
		}},
		{&st.metrics, &excelize.Style{
			Font:      &excelize.Font{Size: 11, Color: colorSecondary, Family: "Segoe UI"},
			Alignment: center,
		}},
		{&st.generated, &excelize.Style{
			Font:      &excelize.Font{Italic: true, Size: 9, Color: "757575", Family: "Segoe UI"},
			Alignment: &excelize.Alignment{Horizontal: "right"},
		}},
		{&st.heading, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF", Family: "Segoe UI"},
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{colorPrimary}},
			Alignment: center,
			Border:    border("FFFFFF"),
		}},
		{&st.cell, &excelize.Style{
			Font:   &excelize.Font{Size: 11, Color: colorSecondary, Family: "Segoe UI"},
			Border: border(colorBorder),
		}},
		{&st.amount, &excelize.Style{
			Font:         &excelize.Font{Size: 11, Color: colorSecondary, Family: "Segoe UI"},
			Border:       border(colorBorder),
			CustomNumFmt: &currency,
		}},
	}
	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return nil, fmt.Errorf("failed to create style: %w", err)
		}
		*d.dst = id
	}

	for p, color := range priorityColors {
		id, err := f.NewStyle(&excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF", Family: "Segoe UI"},
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}},
			Alignment: center,
			Border:    border(colorBorder),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create %s style: %w", p, err)
		}
		st.status[p] = id
	}
	return st, nil
}
