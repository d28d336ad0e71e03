// Пакет export — выгрузка результатов сопоставления в XLSX.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/bigkaa/skillmatch/internal/domain/model"
)

// Имена листов отчёта.
const (
	MatchesSheet = "Matches"
	SummarySheet = "Summary"
)

// ContentType — MIME-тип XLSX.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var matchHeaders = []string{"Candidate", "Job", "Score", "Rationale", "Matched at", "Candidate ID", "Job ID"}

// WriteMatches формирует XLSX-отчёт по сопоставлениям и пишет его в w.
// Лист Matches содержит строки в переданном порядке, лист Summary — сводку.
func WriteMatches(w io.Writer, matches []*model.MatchDetail, generatedAt time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", MatchesSheet); err != nil {
		return fmt.Errorf("переименование листа: %w", err)
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("создание листа %s: %w", SummarySheet, err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("создание стиля: %w", err)
	}

	if err := writeMatchesSheet(f, matches, headerStyle); err != nil {
		return fmt.Errorf("лист %s: %w", MatchesSheet, err)
	}
	if err := writeSummarySheet(f, matches, generatedAt, headerStyle); err != nil {
		return fmt.Errorf("лист %s: %w", SummarySheet, err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("запись XLSX: %w", err)
	}
	return nil
}

func writeMatchesSheet(f *excelize.File, matches []*model.MatchDetail, headerStyle int) error {
	widths := map[string]float64{"A": 25, "B": 30, "C": 10, "D": 45, "E": 22, "F": 38, "G": 38}
	for col, width := range widths {
		if err := f.SetColWidth(MatchesSheet, col, col, width); err != nil {
			return err
		}
	}

	for i, h := range matchHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(MatchesSheet, cell, h); err != nil {
			return err
		}
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(matchHeaders), 1)
	if err := f.SetCellStyle(MatchesSheet, "A1", lastHeader, headerStyle); err != nil {
		return err
	}

	scoreStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2}) // 0.00
	if err != nil {
		return err
	}

	for i, m := range matches {
		row := i + 2
		values := []any{
			m.CandidateName,
			m.JobTitle,
			m.Score,
			m.Rationale,
			m.MatchedAt.UTC().Format(time.RFC3339),
			m.CandidateID,
			m.JobID,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(MatchesSheet, cell, v); err != nil {
				return err
			}
		}
		scoreCell := fmt.Sprintf("C%d", row)
		if err := f.SetCellStyle(MatchesSheet, scoreCell, scoreCell, scoreStyle); err != nil {
			return err
		}
	}
	return nil
}

func writeSummarySheet(f *excelize.File, matches []*model.MatchDetail, generatedAt time.Time, headerStyle int) error {
	if err := f.SetColWidth(SummarySheet, "A", "A", 25); err != nil {
		return err
	}
	if err := f.SetColWidth(SummarySheet, "B", "B", 30); err != nil {
		return err
	}

	var total, best float64
	candidates := make(map[string]struct{})
	jobs := make(map[string]struct{})
	for _, m := range matches {
		total += m.Score
		best = max(best, m.Score)
		candidates[m.CandidateID] = struct{}{}
		jobs[m.JobID] = struct{}{}
	}
	var avg float64
	if len(matches) > 0 {
		avg = total / float64(len(matches))
	}

	rows := [][2]any{
		{"Match report", ""},
		{"Generated", generatedAt.UTC().Format(time.RFC3339)},
		{"Matches", len(matches)},
		{"Candidates", len(candidates)},
		{"Jobs", len(jobs)},
		{"Average score", avg},
		{"Best score", best},
	}
	for i, r := range rows {
		if err := f.SetCellValue(SummarySheet, fmt.Sprintf("A%d", i+1), r[0]); err != nil {
			return err
		}
		if err := f.SetCellValue(SummarySheet, fmt.Sprintf("B%d", i+1), r[1]); err != nil {
			return err
		}
	}
	return f.SetCellStyle(SummarySheet, "A1", "B1", headerStyle)
}
