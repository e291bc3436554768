package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("toml config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrEmptyDBFile error if config db.file is empty.
	ErrEmptyDBFile = errors.New("toml config db.file can not be empty")

	// ErrUnknownExportMode error if config export.mode is neither share nor directory.
	ErrUnknownExportMode = errors.New("toml config export.mode must be share or directory")
)
