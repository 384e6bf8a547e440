package ports

// FileSystem is where post files are read from and images are written to.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)

	// WriteFile stores data at path, creating parent directories. A reader
	// sees either the previous content or all of data.
	WriteFile(path string, data []byte) error

	// MkdirAll creates path and any missing parents.
	MkdirAll(path string) error
}
