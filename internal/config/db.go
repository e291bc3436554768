package config

import "path/filepath"

// DB holds the embedded database settings.
type DB struct {
	Directory string // private storage directory holding the database file
	File      string // database file name inside Directory
}

// Path returns the full path of the database file.
func (d DB) Path() string {
	return filepath.Join(d.Directory, d.File)
}
