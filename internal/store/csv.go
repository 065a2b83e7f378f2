package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"carespace-backend/config"
	"carespace-backend/internal/model"
	"carespace-backend/internal/parse"
)

// Column names of the data files.
var (
	doctorHeader   = []string{"Id", "Name", "Specialty", "Email", "Dedicated Space in Office", "Home Office", "Office Id"}
	spaceHeader    = []string{"Space ID", "SpaceName", "Category", "Capacity (people)", "Area (sqm)", "Bookable", "Specialized Equipment", "uses"}
	calendarHeader = []string{"DoctorID", "Date", "Time", "Activity", "Location", "Notes"}
	bookingHeader  = []string{"Booking ID", "Space ID", "Doctor ID", "Start Timestamp", "End Timestamp", "Duration (hours)", "Activity", "Notes", "Status", "Created At"}
)

// row gives by-name access to a CSV record.
type row struct {
	cols   map[string]int
	record []string
}

func (r row) get(name string) string {
	i, ok := r.cols[name]
	if !ok || i >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[i])
}

// readTable reads a headed CSV file into rows. Blank lines are skipped.
// Columns of expected that the header lacks are returned as missing.
func readTable(path string, expected []string) (rows []row, missing []string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, name := range expected {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		rows = append(rows, row{cols: cols, record: record})
	}
	return rows, missing, nil
}

// LoadReference reads doctors, spaces and calendars from the data directory.
// A file that cannot be read is logged and yields an empty collection.
func LoadReference(cfg config.DataConfig, logger *zap.Logger) ReferenceData {
	if logger == nil {
		logger = zap.NewNop()
	}
	var ref ReferenceData

	if rows, ok := loadTable(cfg.DataPath(cfg.DoctorsFile), doctorHeader, "doctors", logger); ok {
		ref.Doctors = doctorsFromRows(rows)
	}
	if rows, ok := loadTable(cfg.DataPath(cfg.SpacesFile), spaceHeader, "spaces", logger); ok {
		ref.Spaces = spacesFromRows(rows)
	}
	if rows, ok := loadTable(cfg.DataPath(cfg.CalendarsFile), calendarHeader, "doctor calendars", logger); ok {
		ref.Schedules = schedulesFromRows(rows)
	}

	return ref
}

func loadTable(path string, expected []string, what string, logger *zap.Logger) ([]row, bool) {
	rows, missing, err := readTable(path, expected)
	if err != nil {
		logger.Error("failed to load "+what+", continuing with none", zap.String("file", path), zap.Error(err))
		return nil, false
	}
	if len(missing) > 0 {
		logger.Warn("data file is missing columns", zap.String("file", path), zap.Strings("columns", missing))
	}
	return rows, true
}

func doctorsFromRows(rows []row) []model.Doctor {
	doctors := make([]model.Doctor, 0, len(rows))
	for _, r := range rows {
		id := r.get("Id")
		if id == "" {
			continue
		}
		doctors = append(doctors, model.Doctor{
			ID:                 id,
			Name:               r.get("Name"),
			Specialty:          r.get("Specialty"),
			Email:              r.get("Email"),
			HasDedicatedOffice: parse.Bool(r.get("Dedicated Space in Office")),
			HasHomeOffice:      parse.Bool(r.get("Home Office")),
			OfficeID:           r.get("Office Id"),
		})
	}
	return doctors
}

func spacesFromRows(rows []row) []model.Space {
	spaces := make([]model.Space, 0, len(rows))
	for _, r := range rows {
		id := r.get("Space ID")
		if id == "" {
			continue
		}
		capacity := parse.Int(r.get("Capacity (people)"))
		if capacity < 0 {
			capacity = 0
		}
		spaces = append(spaces, model.Space{
			ID:        id,
			Name:      r.get("SpaceName"),
			Category:  r.get("Category"),
			Capacity:  capacity,
			AreaSqm:   parse.Float(r.get("Area (sqm)")),
			Bookable:  parse.Bool(r.get("Bookable")),
			Equipment: r.get("Specialized Equipment"),
			Uses:      r.get("uses"),
		})
	}
	return spaces
}

func schedulesFromRows(rows []row) []model.ScheduleEntry {
	entries := make([]model.ScheduleEntry, 0, len(rows))
	for _, r := range rows {
		if r.get("DoctorID") == "" {
			continue
		}
		entries = append(entries, model.ScheduleEntry{
			DoctorID: r.get("DoctorID"),
			Date:     r.get("Date"),
			Time:     r.get("Time"),
			Activity: r.get("Activity"),
			Location: r.get("Location"),
			Notes:    r.get("Notes"),
		})
	}
	return entries
}

func bookingsFromRows(rows []row, loc *time.Location, logger *zap.Logger) []model.Booking {
	bookings := make([]model.Booking, 0, len(rows))
	for _, r := range rows {
		id := r.get("Booking ID")
		start, err := parse.Timestamp(r.get("Start Timestamp"), loc)
		if err != nil {
			logger.Warn("skipping booking with bad start", zap.String("booking_id", id), zap.Error(err))
			continue
		}
		end, err := parse.Timestamp(r.get("End Timestamp"), loc)
		if err != nil {
			logger.Warn("skipping booking with bad end", zap.String("booking_id", id), zap.Error(err))
			continue
		}
		duration := parse.Float(r.get("Duration (hours)"))
		if duration <= 0 {
			duration = end.Sub(start).Hours()
		}
		created, _ := parse.Timestamp(r.get("Created At"), loc)
		doctorID := r.get("Doctor ID")
		if strings.EqualFold(doctorID, "null") {
			doctorID = ""
		}
		bookings = append(bookings, model.Booking{
			ID:            id,
			SpaceID:       r.get("Space ID"),
			DoctorID:      doctorID,
			Start:         start,
			End:           end,
			DurationHours: duration,
			Activity:      r.get("Activity"),
			Notes:         r.get("Notes"),
			Status:        r.get("Status"),
			CreatedAt:     created,
		})
	}
	return bookings
}

func bookingRecord(b model.Booking, loc *time.Location) []string {
	return []string{
		b.ID,
		b.SpaceID,
		b.DoctorID,
		parse.FormatTimestamp(b.Start, loc),
		parse.FormatTimestamp(b.End, loc),
		strconv.FormatFloat(b.DurationHours, 'f', -1, 64),
		b.Activity,
		b.Notes,
		b.Status,
		b.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// writeTableAtomic writes header and records to a temporary file beside path
// and renames it over path, so a crash never leaves a partial file behind.
func writeTableAtomic(path string, header []string, records [][]string) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err := tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("failed to set temp file mode: %w", err)
	}

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write records: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
