package controller

import (
	"net/http"

	"niederschlag-server/internal/modules/precipitation/repository"
)

type RecordController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type recordControllerImpl struct {
	repository repository.RecordRepository
}

func NewRecordController(repository repository.RecordRepository) RecordController {
	return &recordControllerImpl{repository: repository}
}

func (c *recordControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", c.handleRecords)
	mux.HandleFunc("GET /raw", c.handleRawRecords)
}
