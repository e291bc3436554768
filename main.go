package main

import (
	"os"

	"github.com/namesdb/namesdb/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
