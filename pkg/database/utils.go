package database

import (
	"fmt"

	"github.com/gohornet/agora/pkg/utils"
)

// Exists checks if the database folder exists and is not empty.
func Exists(dbPath string) (bool, error) {

	dirExists, err := utils.PathExists(dbPath)
	if err != nil {
		return false, fmt.Errorf("unable to check database path (%s): %w", dbPath, err)
	}
	if !dirExists {
		return false, nil
	}

	// the directory may exist without holding a database (e.g. docker volumes)
	dirEmpty, err := utils.DirectoryEmpty(dbPath)
	if err != nil {
		return false, fmt.Errorf("unable to check database path (%s): %w", dbPath, err)
	}

	return !dirEmpty, nil
}
