package output

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"

	"github.com/iulianpascalau/air-quality-fetcher/services/fetcher/common"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("output")

type csvWriter struct {
	path string
}

// NewCSVWriter creates a writer that overwrites the file found at the provided path
func NewCSVWriter(path string) (*csvWriter, error) {
	if path == "" {
		return nil, errors.New("empty output path")
	}

	return &csvWriter{
		path: path,
	}, nil
}

// Write serializes the table with a header row. Any error leaves the destination in an undefined state.
func (w *csvWriter) Write(table common.Table) error {
	if table == nil {
		return errors.New("nil table")
	}

	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("failed to create output file '%s': %w", w.path, err)
	}

	err = writeRecords(f, table)
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write output file '%s': %w", w.path, err)
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("failed to close output file '%s': %w", w.path, err)
	}

	log.Debug("output file written", "path", w.path)

	return nil
}

func writeRecords(f *os.File, table common.Table) error {
	cw := csv.NewWriter(f)

	err := cw.Write(table.Header())
	if err != nil {
		return err
	}

	return cw.WriteAll(table.Records())
}

// Path returns the destination path
func (w *csvWriter) Path() string {
	return w.path
}

// IsInterfaceNil returns true if the value under the interface is nil
func (w *csvWriter) IsInterfaceNil() bool {
	return w == nil
}
