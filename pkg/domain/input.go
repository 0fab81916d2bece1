package domain

import (
	"bytes"
	"io"
)

// Input is the raw user submission handed to a node: free text plus any
// files picked in the host UI.
type Input struct {
	Text  string
	Files []File
}

// TextInput builds an Input carrying only text.
func TextInput(text string) Input {
	return Input{Text: text}
}

// File describes an uploaded file. Content is read lazily through Open so
// validation (which only needs name and size) never touches the bytes.
type File struct {
	Name        string
	ContentType string
	Size        int64

	// Open returns the file content. Each call returns a fresh reader.
	Open func() (io.ReadCloser, error)
}

// FileFromBytes builds a File backed by an in-memory buffer.
func FileFromBytes(name, contentType string, data []byte) File {
	return File{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}
