package config

import (
	"github.com/namesdb/namesdb/internal/logger"
)

const (
	// ExportModeShare hands the database file to the client as a download.
	ExportModeShare = "share"

	// ExportModeDirectory writes the database file into Export.Directory.
	ExportModeDirectory = "directory"

	// DefaultExportFileName is the name exported database files get.
	DefaultExportFileName = "example.db"
)

// Export holds the database export settings.
type Export struct {
	Mode      string // share or directory
	Directory string // target directory used in directory mode, empty denies the export
	FileName  string // name of the exported file, independent of DB.File
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Export    Export
	Log       logger.Log
	Title     string
	Webserver Webserver
}

// Webserver implement webserver settings.
type Webserver struct {
	BrowseStatic   bool   // enable static file browsing (for development purposes only)
	DisableRecover bool   // disable recover middleware
	Host           string // listening host, empty listens on all interfaces
	Port           int    // listening port for the webserver
	ShutDownTime   int    // wait time for shutdown
	URL            string // base url for the webserver
	MaxUploadSize  int    // maximum accepted import size in bytes, 0 uses fiber's default
}
