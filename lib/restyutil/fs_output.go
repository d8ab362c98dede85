// Package restyutil dumps full request/response exchanges to disk while
// debugging scrapes against markup that keeps shifting underneath us.
package restyutil

import (
	"log/slog"
	"os"
	"path/filepath"
)

// DumpOutput receives one formatted HTTP exchange per request id.
type DumpOutput interface {
	Write(id string, contents string)
}

type FilesystemOutput struct {
	directory string
}

// NewFilesystemOutput wipes and recreates dir, one file per exchange.
func NewFilesystemOutput(dir string) FilesystemOutput {
	os.RemoveAll(dir)
	err := os.MkdirAll(dir, 0777)
	if err != nil {
		panic(err)
	}
	return FilesystemOutput{directory: dir}
}

func (o FilesystemOutput) Write(id string, contents string) {
	err := os.WriteFile(filepath.Join(o.directory, id), []byte(contents), 0600)
	if err != nil {
		slog.Warn("failed to write http dump file", "id", id, "err", err)
	}
}
