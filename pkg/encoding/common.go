package encoding

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/watchgraph/watchgraphd/pkg/logging"
	"github.com/watchgraph/watchgraphd/pkg/must"
)

// LoadAndUnmarshal provides the underlying loading and unmarshaling
// functionality for the encoding package. It reads the data at the specified
// path and then invokes the specified unmarshaling callback (usually a closure)
// to decode the data.
func LoadAndUnmarshal(path string, unmarshal func([]byte) error) error {
	// Grab the file contents.
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return err
		}
		return fmt.Errorf("unable to load file: %w", err)
	}

	// Perform the unmarshaling.
	if err := unmarshal(data); err != nil {
		return fmt.Errorf("unable to unmarshal data: %w", err)
	}

	// Success.
	return nil
}

// MarshalAndSave provides the underlying marshaling and saving functionality
// for the encoding package. It invokes the specified marshaling callback
// (usually a closure) and writes the result atomically to the specified
// path, via a temporary file created alongside it and renamed into place so
// a reader never observes a partially written file. The data is saved with
// read/write permissions for the user only. logger is used to report a
// failure to clean up the temporary file after an error; it may be nil.
func MarshalAndSave(path string, logger *logging.Logger, marshal func() ([]byte, error)) error {
	// Marshal the message.
	data, err := marshal()
	if err != nil {
		return fmt.Errorf("unable to marshal message: %w", err)
	}

	// Create the temporary file in the same directory as the destination so
	// the final rename is guaranteed to stay on the same device.
	directory := filepath.Dir(path)
	temporary, err := os.CreateTemp(directory, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("unable to create temporary file: %w", err)
	}
	temporaryPath := temporary.Name()

	var succeeded bool
	defer func() {
		if !succeeded {
			must.OSRemove(temporaryPath, logger)
		}
	}()

	if err := temporary.Chmod(0600); err != nil {
		must.Close(temporary, logger)
		return fmt.Errorf("unable to set temporary file permissions: %w", err)
	}
	if _, err := temporary.Write(data); err != nil {
		must.Close(temporary, logger)
		return fmt.Errorf("unable to write message data: %w", err)
	}
	if err := temporary.Sync(); err != nil {
		must.Close(temporary, logger)
		return fmt.Errorf("unable to flush message data: %w", err)
	}
	if err := temporary.Close(); err != nil {
		return fmt.Errorf("unable to close temporary file: %w", err)
	}

	if err := os.Rename(temporaryPath, path); err != nil {
		return fmt.Errorf("unable to rename temporary file into place: %w", err)
	}
	succeeded = true

	// Success.
	return nil
}
