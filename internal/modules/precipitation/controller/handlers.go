package controller

import (
	"log/slog"
	"net/http"

	"niederschlag-server/internal/modules/precipitation/types"
	"niederschlag-server/internal/utils"
)

func (c *recordControllerImpl) handleRecords(w http.ResponseWriter, r *http.Request) {
	records, err := c.repository.FindAll(r.Context())
	if err != nil {
		slog.Error("records: find all failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load records")
		return
	}
	writeCollection(w, types.NewRecordDTOs(records), len(records))
}

func (c *recordControllerImpl) handleRawRecords(w http.ResponseWriter, r *http.Request) {
	records, err := c.repository.FindAll(r.Context())
	if err != nil {
		slog.Error("raw records: find all failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load records")
		return
	}
	if records == nil {
		records = []types.Record{}
	}
	writeCollection(w, records, len(records))
}
