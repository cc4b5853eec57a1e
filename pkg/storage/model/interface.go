package model

import "github.com/fiscotrack/cupom-backend/pkg/models"

type Storer interface {
	Store(models.ReceiptImage) error
}

type Retriever interface {
	Retrieve(uploadId string, sequenceId int) (*models.ReceiptImage, error)
}

type RWStorage interface {
	Storer
	Retriever
}
