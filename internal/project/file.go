// Package project reads and writes critpath project files and turns their
// raw records into scheduling inputs.
//
// A project file is TOML:
//
//	name = "Riverside tower"
//
//	[calendar]
//	exclude_weekends = true
//	holidays = ["2024-12-25"]
//
//	[[tasks]]
//	id = "foundation"
//	start = "2024-06-03"
//	end = "2024-06-07"
//
//	[[dependencies]]
//	from = "foundation"
//	to = "framing"
//	type = "FS"
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// Sentinel errors for project files.
var (
	// ErrInvalidDate indicates a date string that is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date")
	// ErrMissingField indicates a required task field is empty.
	ErrMissingField = errors.New("required field missing")
	// ErrFileExists indicates Write refused to replace an existing file.
	ErrFileExists = errors.New("project file already exists")
)

// File is the on-disk shape of a project.
type File struct {
	Name         string           `toml:"name"`
	Calendar     CalendarSpec     `toml:"calendar"`
	Tasks        []TaskSpec       `toml:"tasks"`
	Dependencies []DependencySpec `toml:"dependencies,omitempty"`
}

// CalendarSpec is the [calendar] table. A missing exclude_weekends falls
// back to the configured default.
type CalendarSpec struct {
	ExcludeWeekends *bool    `toml:"exclude_weekends,omitempty"`
	ExcludeHolidays bool     `toml:"exclude_holidays,omitempty"`
	Holidays        []string `toml:"holidays,omitempty"`
}

// TaskSpec is one [[tasks]] entry. Duration is optional; when zero it is
// derived from start and end.
type TaskSpec struct {
	ID       string `toml:"id"`
	Name     string `toml:"name,omitempty"`
	Start    string `toml:"start"`
	End      string `toml:"end,omitempty"`
	Duration int    `toml:"duration,omitempty"`
}

// DependencySpec is one [[dependencies]] entry. Type defaults to FS.
type DependencySpec struct {
	From string `toml:"from"`
	To   string `toml:"to"`
	Type string `toml:"type,omitempty"`
	Lag  int    `toml:"lag,omitempty"`
}

// Load reads and parses a project file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading project file: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if f.Name == "" {
		f.Name = trimExt(filepath.Base(path))
	}
	return f, nil
}

// Parse decodes TOML project data.
func Parse(data []byte) (*File, error) {
	var f File
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing project TOML: %w", err)
	}
	return &f, nil
}

// Marshal encodes f as TOML.
func Marshal(f *File) ([]byte, error) {
	data, err := toml.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("marshaling project: %w", err)
	}
	return data, nil
}

// Write marshals f to path. Unless overwrite is set an existing file is
// left alone. The file is written to a temporary sibling and renamed into
// place so readers never see a partial project.
func Write(f *File, path string, overwrite bool) error {
	if _, err := os.Stat(path); err == nil && !overwrite {
		return fmt.Errorf("%w: %s", ErrFileExists, path)
	}
	data, err := Marshal(f)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming %s: %w", tmp, err)
	}
	return nil
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}
