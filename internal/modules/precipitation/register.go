package precipitation

import (
	"net/http"

	"github.com/jmoiron/sqlx"

	"niederschlag-server/internal/modules/precipitation/controller"
	"niederschlag-server/internal/modules/precipitation/repository"
)

// RegisterFeature mounts the record routes and returns the repository so
// the caller can seed it before serving.
func RegisterFeature(mux *http.ServeMux, db *sqlx.DB) repository.RecordRepository {
	recordRepository := repository.NewRepository(db)
	recordController := controller.NewRecordController(recordRepository)
	recordController.RegisterRoutes(mux)
	return recordRepository
}
