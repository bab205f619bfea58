// Package report renders a user's course progress as an xlsx workbook for
// download from the export endpoint.
package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ai-academy/academy-server/internal/catalog"
	"github.com/ai-academy/academy-server/internal/progress"
)

const (
	lessonsSheet = "Lessons"
	badgesSheet  = "Badges"
)

// Builder assembles progress workbooks.
type Builder struct {
	catalog *catalog.Catalog
	queries *progress.Queries
}

// NewBuilder creates a workbook builder over the catalog and the progress
// query helpers.
func NewBuilder(cat *catalog.Catalog, queries *progress.Queries) (*Builder, error) {
	if cat == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if queries == nil {
		return nil, fmt.Errorf("queries are required")
	}
	return &Builder{catalog: cat, queries: queries}, nil
}

// WriteProgress writes the user's progress workbook to w.
func (b *Builder) WriteProgress(ctx context.Context, userID string, w io.Writer) error {
	f, err := b.build(ctx, userID)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func (b *Builder) build(ctx context.Context, userID string) (*excelize.File, error) {
	byOrder, err := b.queries.ProgressByOrder(ctx, userID)
	if err != nil {
		return nil, err
	}
	badges, err := b.queries.Badges(ctx, userID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", lessonsSheet); err != nil {
		return nil, fmt.Errorf("naming lessons sheet: %w", err)
	}
	if _, err := f.NewSheet(badgesSheet); err != nil {
		return nil, fmt.Errorf("creating badges sheet: %w", err)
	}

	if err := b.fillLessons(f, byOrder); err != nil {
		return nil, err
	}
	if err := b.fillBadges(f, badges); err != nil {
		return nil, err
	}
	return f, nil
}

func (b *Builder) fillLessons(f *excelize.File, byOrder map[int]progress.LessonProgress) error {
	header := []any{"Lesson", "Module", "Title", "Status", "Passed", "Best Score", "Last Score", "Attempts", "Completed At"}
	if err := setRow(f, lessonsSheet, 1, header); err != nil {
		return err
	}
	if err := boldRow(f, lessonsSheet, 1, len(header)); err != nil {
		return err
	}

	moduleTitles := make(map[int]string)
	for _, m := range b.catalog.Modules() {
		moduleTitles[m.OrderIndex] = m.Title
	}

	for i, lesson := range b.catalog.Lessons() {
		p, ok := byOrder[lesson.OrderIndex]
		status := progress.StatusLocked
		if ok {
			status = p.Status
		}

		row := []any{
			lesson.OrderIndex,
			moduleTitles[lesson.ModuleOrderIndex],
			lesson.Title,
			string(status),
			p.Passed,
			p.BestScore,
			p.LastScore,
			p.Attempts,
			formatTime(p.CompletedAt),
		}
		if err := setRow(f, lessonsSheet, i+2, row); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(lessonsSheet, "B", "C", 40); err != nil {
		return fmt.Errorf("sizing columns: %w", err)
	}
	return nil
}

func (b *Builder) fillBadges(f *excelize.File, badges []progress.UserBadge) error {
	header := []any{"Badge", "Earned At"}
	if err := setRow(f, badgesSheet, 1, header); err != nil {
		return err
	}
	if err := boldRow(f, badgesSheet, 1, len(header)); err != nil {
		return err
	}

	for i, badge := range badges {
		earned := badge.EarnedAt
		row := []any{string(badge.Code), formatTime(&earned)}
		if err := setRow(f, badgesSheet, i+2, row); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(badgesSheet, "A", "B", 26); err != nil {
		return fmt.Errorf("sizing columns: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("setting %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

func boldRow(f *excelize.File, sheet string, row, cols int) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	first, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(cols, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetCellStyle(sheet, first, last, style); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}
	return nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
