package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

// Grid limits shared by both day templates.
const (
	MinPeriodsPerDay = 1
	MaxPeriodsPerDay = 12
	MinPeriodMinutes = 20
	MaxPeriodMinutes = 120

	minutesPerDay = 24 * 60
)

// dayBlock is an instructional window of a fixed day template.
type dayBlock struct {
	Start string
	End   string
}

// kenyaFixedBlocks are separated by the 10:30 break and the 13:00 lunch.
var kenyaFixedBlocks = []dayBlock{
	{Start: "07:30", End: "10:30"},
	{Start: "11:00", End: "13:00"},
	{Start: "14:00", End: "16:00"},
}

// BuildTimeGrid returns the ordered periods of one teaching day.
func BuildTimeGrid(cfg dto.GridConfig) ([]dto.TimeSlotRange, error) {
	switch cfg.Template {
	case dto.TemplateContinuous:
		return buildContinuousGrid(cfg.StartTime, cfg.PeriodsPerDay, cfg.PeriodMinutes)
	case dto.TemplateKenyaFixed:
		return buildBlockGrid(kenyaFixedBlocks, cfg.PeriodMinutes)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown day template %q", cfg.Template))
	}
}

func buildContinuousGrid(start string, periods, length int) ([]dto.TimeSlotRange, error) {
	if periods < MinPeriodsPerDay || periods > MaxPeriodsPerDay {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("periodsPerDay must be between %d and %d", MinPeriodsPerDay, MaxPeriodsPerDay))
	}
	if err := validatePeriodLength(length); err != nil {
		return nil, err
	}
	begin, err := parseClock(start)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "startTime must be HH:MM")
	}
	if begin+periods*length >= minutesPerDay {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teaching day must end before midnight")
	}

	grid := make([]dto.TimeSlotRange, 0, periods)
	for p := 0; p < periods; p++ {
		from := begin + p*length
		grid = append(grid, dto.TimeSlotRange{
			Period:    p + 1,
			StartTime: formatClock(from),
			EndTime:   formatClock(from + length),
		})
	}
	return grid, nil
}

// buildBlockGrid fits whole periods into each block and drops the remainder.
func buildBlockGrid(blocks []dayBlock, length int) ([]dto.TimeSlotRange, error) {
	if err := validatePeriodLength(length); err != nil {
		return nil, err
	}

	var grid []dto.TimeSlotRange
	previousEnd := -1
	for i, block := range blocks {
		from, errStart := parseClock(block.Start)
		to, errEnd := parseClock(block.End)
		if errStart != nil || errEnd != nil {
			return nil, appErrors.Clone(appErrors.ErrInvalidTemplate, fmt.Sprintf("block %d has an unparseable time", i+1))
		}
		if to <= from {
			return nil, appErrors.Clone(appErrors.ErrInvalidTemplate, fmt.Sprintf("block %d ends before it starts", i+1))
		}
		if from < previousEnd {
			return nil, appErrors.Clone(appErrors.ErrInvalidTemplate, fmt.Sprintf("block %d overlaps the previous block", i+1))
		}
		previousEnd = to

		count := (to - from) / length
		for p := 0; p < count; p++ {
			start := from + p*length
			grid = append(grid, dto.TimeSlotRange{
				Period:    len(grid) + 1,
				StartTime: formatClock(start),
				EndTime:   formatClock(start + length),
			})
		}
	}

	if len(grid) == 0 || len(grid) > MaxPeriodsPerDay {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("period length %d yields %d periods, expected 1 to %d", length, len(grid), MaxPeriodsPerDay))
	}
	return grid, nil
}

func validatePeriodLength(length int) error {
	if length < MinPeriodMinutes || length > MaxPeriodMinutes {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("periodMinutes must be between %d and %d", MinPeriodMinutes, MaxPeriodMinutes))
	}
	return nil
}

// parseClock converts a zero padded "HH:MM" into minutes after midnight.
func parseClock(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) != 5 || raw[2] != ':' {
		return 0, fmt.Errorf("invalid clock %q", raw)
	}
	hours, err := strconv.Atoi(raw[:2])
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("invalid hour in %q", raw)
	}
	minutes, err := strconv.Atoi(raw[3:])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid minute in %q", raw)
	}
	return hours*60 + minutes, nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
