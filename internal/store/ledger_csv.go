package store

import (
	"context"
	"errors"
	"io/fs"
	"time"

	"go.uber.org/zap"

	"carespace-backend/internal/model"
)

// CSVLedger keeps bookings in a single CSV file that is rewritten in full on
// every save.
type CSVLedger struct {
	path   string
	loc    *time.Location
	logger *zap.Logger
}

// NewCSVLedger creates a ledger over the file at path.
func NewCSVLedger(path string, loc *time.Location, logger *zap.Logger) *CSVLedger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CSVLedger{path: path, loc: loc, logger: logger}
}

// Load reads every booking in the file. A missing file is an empty ledger.
func (l *CSVLedger) Load(ctx context.Context) ([]model.Booking, error) {
	rows, missing, err := readTable(l.path, bookingHeader)
	if errors.Is(err, fs.ErrNotExist) {
		l.logger.Info("booking file not found, starting empty", zap.String("file", l.path))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		l.logger.Warn("booking file is missing columns", zap.String("file", l.path), zap.Strings("columns", missing))
	}
	return bookingsFromRows(rows, l.loc, l.logger), nil
}

// Save rewrites the file with all bookings via a temp file and rename.
func (l *CSVLedger) Save(ctx context.Context, all []model.Booking, _ model.Booking) error {
	records := make([][]string, 0, len(all))
	for _, b := range all {
		records = append(records, bookingRecord(b, l.loc))
	}
	return writeTableAtomic(l.path, bookingHeader, records)
}
