package config

import "fmt"

type FileInvalidError struct {
	Err error
}

type FileNotFoundError struct {
	Path string
	Err  error
}

func (e *FileInvalidError) Error() string {
	return fmt.Sprintf("Configuration file is invalid: %s", e.Err)
}

func (e *FileInvalidError) Unwrap() error {
	return e.Err
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("Configuration file not found: %s", e.Path)
}
