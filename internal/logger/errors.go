package logger

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrAppNameIsEmpty is returned if Log.AppName was not defined.
	ErrAppNameIsEmpty = errors.New("config log.appname can not be empty")

	// ErrServiceNameIsEmpty is returned if Log.ServiceName was not defined.
	ErrServiceNameIsEmpty = errors.New("config log.servicename can not be empty")
)

// ErrorHandler is called by zerolog when an event could not be written to any output.
func ErrorHandler(err error) {
	_, _ = fmt.Fprintf(os.Stderr, "namesdb: could not write log event: %v\n", err)
}
