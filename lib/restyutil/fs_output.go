package restyutil

import (
	"log/slog"
	"os"
	"path/filepath"
	devenv "purchase-automation/dev/env"
)

// FilesystemOutput writes every instrumented message into its own file
// under a directory which is cleared on creation. The directory may start
// with `<dev_state>`.
type FilesystemOutput struct {
	directory string
}

func NewFilesystemOutput(dir string) (FilesystemOutput, error) {
	resolved, err := devenv.ResolvePath(dir)
	if err != nil {
		return FilesystemOutput{}, err
	}
	err = os.RemoveAll(resolved)
	if err != nil {
		return FilesystemOutput{}, err
	}
	err = os.MkdirAll(resolved, 0777)
	if err != nil {
		return FilesystemOutput{}, err
	}
	return FilesystemOutput{directory: resolved}, nil
}

func (o FilesystemOutput) Write(id string, contents string) {
	err := os.WriteFile(filepath.Join(o.directory, id), []byte(contents), 0600)
	if err != nil {
		slog.Warn("failed to write message info file", "id", id, "err", err)
	}
}
