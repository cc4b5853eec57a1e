package importer

import "io"

// ImageSource yields receipt photos one at a time, typically a phone
// camera upload batch or a directory of saved pictures.
type ImageSource interface {
	Next() bool
	Current() io.Reader
	Err() error
}
