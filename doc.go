// Package main provides the entry point of namesdb.
// It keeps a list of names in an embedded SQLite database file and serves a
// web page to add and delete names and to import and export the database file.
// The same operations are available as commands of the namesdb binary.
package main
