package store

import (
	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ErrInvalidDatabase is returned by Validate for files that can not serve as the names database.
var ErrInvalidDatabase = errors.New("not a names database")

// Validate checks that the file at path is a SQLite database whose names table,
// if present, has the id and name columns. A database without the table is valid,
// EnsureSchema creates it on open.
func Validate(path string) error {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: gormlogger.Discard})
	if err != nil {
		return errors.Wrap(ErrInvalidDatabase, err.Error())
	}

	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get sql handle")
	}

	defer sqlDB.Close() //nolint:errcheck

	// sqlite reads the header lazily, this is the first statement touching the file
	rows, err := db.Raw("SELECT name FROM pragma_table_info('names')").Rows()
	if err != nil {
		return errors.Wrap(ErrInvalidDatabase, err.Error())
	}

	defer rows.Close() //nolint:errcheck

	var columns []string

	for rows.Next() {
		var c string
		if err = rows.Scan(&c); err != nil {
			return errors.Wrap(ErrInvalidDatabase, err.Error())
		}

		columns = append(columns, c)
	}

	if err = rows.Err(); err != nil {
		return errors.Wrap(ErrInvalidDatabase, err.Error())
	}

	if len(columns) == 0 {
		return nil
	}

	found := map[string]bool{}
	for _, c := range columns {
		found[c] = true
	}

	if !found["id"] || !found["name"] {
		return errors.Wrapf(ErrInvalidDatabase, "names table has columns %v", columns)
	}

	return nil
}
