package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// writeOutput marshals output to JSON and writes it to filename. The data goes to a temporary file in the
// same directory first and is renamed into place, so a failed write never leaves a partial file behind.
func writeOutput(output interface{}, filename string) error {
	//	Convert the output struct to json
	jsonOutput, err := json.Marshal(output)
	if err != nil {
		return errors.Wrap(err, "marshal output")
	}

	dir := filepath.Dir(filename)
	file, err := os.CreateTemp(dir, "."+filepath.Base(filename)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tmp := file.Name()
	defer func() {
		// No-op once the rename succeeded
		_ = os.Remove(tmp)
	}()

	if _, err := file.Write(jsonOutput); err != nil {
		_ = file.Close()
		return errors.Wrapf(err, "write %s", tmp)
	}
	if err := file.Close(); err != nil {
		return errors.Wrapf(err, "close %s", tmp)
	}
	if err := os.Rename(tmp, filename); err != nil {
		return errors.Wrapf(err, "rename to %s", filename)
	}
	return nil
}
