package models

import (
	"fmt"
	"io"
	"time"
)

// ReceiptImage is one user-submitted receipt photo, before extraction.
type ReceiptImage struct {
	Reader     io.ReadSeeker
	UploadId   string
	SequenceId int
	UploadTime time.Time
}

func (r ReceiptImage) Id() string {
	return fmt.Sprintf("%s_%d", r.UploadId, r.SequenceId)
}
