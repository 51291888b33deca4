package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/export"
)

// Export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

var weekdayHeaders = []string{"Mon", "Tue", "Wed", "Thu", "Fri"}

type exportClassReader interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

type exportSlotReader interface {
	ListByClass(ctx context.Context, termID, classID string) ([]models.TimetableSlot, error)
}

type exportRenderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

// ExportFile is a rendered timetable ready for download.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// TimetableExportService renders a class's weekly timetable as CSV or PDF.
type TimetableExportService struct {
	terms     timetableTermReader
	classes   exportClassReader
	subjects  scopeSubjectReader
	slots     exportSlotReader
	renderers map[string]exportRenderer
	logger    *zap.Logger
}

// NewTimetableExportService constructs the export service. Nil renderers fall back to the
// built-in CSV and PDF exporters.
func NewTimetableExportService(terms timetableTermReader, classes exportClassReader, subjects scopeSubjectReader, slots exportSlotReader, logger *zap.Logger, csv, pdf exportRenderer) *TimetableExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &TimetableExportService{
		terms:    terms,
		classes:  classes,
		subjects: subjects,
		slots:    slots,
		renderers: map[string]exportRenderer{
			ExportFormatCSV: csv,
			ExportFormatPDF: pdf,
		},
		logger: logger,
	}
}

// ExportClass renders the class timetable for the term, or the current term when
// termID is blank, in the requested format.
func (s *TimetableExportService) ExportClass(ctx context.Context, actor models.Actor, termID, classID, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnsupportedMedia, fmt.Sprintf("unsupported export format %q", format))
	}

	term, err := resolveTerm(ctx, s.terms, actor, termID)
	if err != nil {
		return nil, err
	}
	termID = term.ID
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if class.SchoolID != actor.SchoolID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "class belongs to another school")
	}

	slots, err := s.slots.ListByClass(ctx, termID, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	codes, err := s.subjectCodes(ctx, actor.SchoolID, slots)
	if err != nil {
		return nil, err
	}

	dataset := buildClassDataset(slots, codes)
	dataset.Title = fmt.Sprintf("Timetable %s", class.Name)
	dataset.Subtitle = fmt.Sprintf("%d term %d", term.AcademicYear, term.TermNumber)

	content, err := renderer.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable")
	}
	s.logger.Debug("timetable exported",
		zap.String("term_id", termID),
		zap.String("class_id", classID),
		zap.String("format", format),
		zap.Int("slots", len(slots)),
	)
	return &ExportFile{
		Filename:    fmt.Sprintf("timetable_%s_%s.%s", sanitizeFilename(class.Name), sanitizeFilename(termID), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Content:     content,
	}, nil
}

func (s *TimetableExportService) subjectCodes(ctx context.Context, schoolID string, slots []models.TimetableSlot) (map[string]string, error) {
	var ids []string
	for _, slot := range slots {
		if !containsString(ids, slot.SubjectID) {
			ids = append(ids, slot.SubjectID)
		}
	}
	codes := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return codes, nil
	}
	subjects, err := s.subjects.FindByIDs(ctx, nil, schoolID, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	for _, subject := range subjects {
		codes[subject.ID] = subject.Code
	}
	return codes, nil
}

// buildClassDataset lays slots out as one row per distinct time range and one column per day.
// Slots sharing a cell, which only rows written outside the conflict checks can produce, are
// listed together in label order separated by " / ".
func buildClassDataset(slots []models.TimetableSlot, codes map[string]string) export.Dataset {
	type timeRange struct{ start, end string }
	cells := make(map[timeRange][][]string)
	var ranges []timeRange
	for _, slot := range slots {
		if slot.DayOfWeek < 1 || slot.DayOfWeek > len(weekdayHeaders) {
			continue
		}
		key := timeRange{start: slot.StartTime, end: slot.EndTime}
		days, ok := cells[key]
		if !ok {
			days = make([][]string, len(weekdayHeaders))
			cells[key] = days
			ranges = append(ranges, key)
		}
		label := codes[slot.SubjectID]
		if label == "" {
			label = slot.SubjectID
		}
		if slot.Room != nil {
			label = fmt.Sprintf("%s (%s)", label, *slot.Room)
		}
		days[slot.DayOfWeek-1] = append(days[slot.DayOfWeek-1], label)
	}
	sort.Slice(ranges, func(i, j int) bool {
		if ranges[i].start == ranges[j].start {
			return ranges[i].end < ranges[j].end
		}
		return ranges[i].start < ranges[j].start
	})

	rows := make([][]string, 0, len(ranges))
	for i, key := range ranges {
		row := []string{strconv.Itoa(i + 1), key.start + "-" + key.end}
		for _, labels := range cells[key] {
			sort.Strings(labels)
			row = append(row, strings.Join(labels, " / "))
		}
		rows = append(rows, row)
	}
	return export.Dataset{
		Headers:      append([]string{"Period", "Time"}, weekdayHeaders...),
		Rows:         rows,
		LabelColumns: 2,
	}
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
