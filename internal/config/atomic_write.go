package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/afero"
)

const siblingInfix = ".mcarch"

// writeFileAtomic writes next to the target and renames into place, so a
// crash never leaves a half written config behind.
func writeFileAtomic(fs afero.Fs, targetPath string, data []byte, perm os.FileMode) error {
	tempPath, err := nextSiblingPath(fs, targetPath, ".tmp")
	if err != nil {
		return err
	}
	backupPath, err := nextSiblingPath(fs, targetPath, ".bak")
	if err != nil {
		return err
	}

	if err := afero.WriteFile(fs, tempPath, data, perm); err != nil {
		return err
	}

	exists, err := afero.Exists(fs, targetPath)
	if err != nil {
		return cleanupTempOnError(fs, tempPath, err)
	}
	if !exists {
		if err := fs.Rename(tempPath, targetPath); err != nil {
			return cleanupTempOnError(fs, tempPath, err)
		}
		return nil
	}

	return replaceExistingFile(fs, tempPath, targetPath, backupPath)
}

func nextSiblingPath(fs afero.Fs, targetPath string, suffix string) (string, error) {
	base := targetPath + siblingInfix + suffix

	candidate := base
	for i := 0; i < 100; i++ {
		exists, err := afero.Exists(fs, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s.%d", base, i+1)
	}

	return "", errors.New("cannot allocate sibling path")
}

func removePathIfExists(fs afero.Fs, path string) error {
	removeErr := fs.Remove(path)
	if removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
		return removeErr
	}
	return nil
}

func cleanupTempOnError(fs afero.Fs, tempPath string, originalErr error) error {
	if cleanupErr := removePathIfExists(fs, tempPath); cleanupErr != nil {
		return errors.Join(originalErr, fmt.Errorf("failed to remove temp file %s: %w", tempPath, cleanupErr))
	}
	return originalErr
}

// replaceExistingFile tries a plain overwrite first and falls back to moving
// the old file aside, restoring it if the swap fails.
func replaceExistingFile(fs afero.Fs, tempPath string, targetPath string, backupPath string) error {
	if err := fs.Rename(tempPath, targetPath); err == nil {
		return nil
	}

	if err := fs.Rename(targetPath, backupPath); err != nil {
		return cleanupTempOnError(fs, tempPath, err)
	}

	if err := fs.Rename(tempPath, targetPath); err != nil {
		swapErr := cleanupTempOnError(fs, tempPath, err)
		if rollbackErr := fs.Rename(backupPath, targetPath); rollbackErr != nil {
			swapErr = errors.Join(swapErr, fmt.Errorf("failed to restore backup %s: %w", backupPath, rollbackErr))
		}
		return swapErr
	}

	if err := removePathIfExists(fs, backupPath); err != nil {
		return fmt.Errorf("failed to remove backup file %s: %w", backupPath, err)
	}
	return nil
}
