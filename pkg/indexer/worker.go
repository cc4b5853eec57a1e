package indexer

import (
	"sync"

	"github.com/fiscotrack/cupom-backend/pkg/models"
)

type Worker struct {
	id  int
	ch  chan models.ReceiptImage
	idx *Indexer
}

func NewWorker(id int, ch chan models.ReceiptImage) Worker {
	return Worker{id: id, ch: ch}
}

func (w *Worker) do(img models.ReceiptImage) {
	log.Debugf("[W%d]: processing %s", w.id, img.Id())

	// Process image
	err := w.idx.Index(img)
	if err != nil {
		log.Errorf("[W%d]: %s cannot be processed: %v", w.id, img.Id(), err)
	}

	log.Debugf("[W%d]: done processing %s", w.id, img.Id())
}

func (w *Worker) Start(wg *sync.WaitGroup) {
	if w.idx == nil {
		log.Errorf("unable to start worker: w.idx is nil")
		return
	}
	for v := range w.ch {
		w.do(v)
	}
	log.Infof("done processing all")
	wg.Done()
}

func (w *Worker) SetIndexer(idx *Indexer) {
	w.idx = idx
}
