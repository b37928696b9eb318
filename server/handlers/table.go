package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ebogdum/kvtable/core"
	"github.com/ebogdum/kvtable/internal/render"
)

// TableResponse represents one converted bucket
type TableResponse struct {
	Backend string       `json:"backend"`
	Bucket  string       `json:"bucket"`
	Count   int          `json:"count"`
	Rows    []render.Row `json:"rows"`
}

// V1GetTable handles GET /v1/table requests. Without a bucket parameter the
// first bucket is converted. format=ndjson streams one row per line.
// @Summary Convert a bucket into (bucket, key, value) rows
// @Param bucket query string false "Bucket name, defaults to the first bucket"
// @Param format query string false "json (default) or ndjson"
// @Success 200 {object} TableResponse
// @Failure 404 {object} ErrorResponse "Not Found"
// @Failure 422 {object} ErrorResponse "Unprocessable Entity"
// @Router /v1/table [get]
func V1GetTable(engine *core.Engine, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		bucket := r.URL.Query().Get("bucket")
		if bucket == "" {
			first, err := engine.FirstBucket(ctx)
			if err != nil {
				SendErrorResponse(w, logger, err, http.StatusInternalServerError)
				return
			}
			bucket = first
		}

		rec, err := engine.Convert(ctx, bucket)
		if err != nil {
			SendErrorResponse(w, logger, err, http.StatusInternalServerError)
			return
		}
		defer rec.Release()

		if r.URL.Query().Get("format") == "ndjson" {
			w.Header().Set("Content-Type", "application/x-ndjson")
			if err := render.JSON(w, rec); err != nil {
				logger.Error("Failed to stream table", zap.Error(err))
			}
			return
		}

		rows, err := render.Rows(rec)
		if err != nil {
			SendErrorResponse(w, logger, err, http.StatusInternalServerError)
			return
		}

		SendJSONResponse(w, TableResponse{
			Backend: engine.BackendType(),
			Bucket:  bucket,
			Count:   len(rows),
			Rows:    rows,
		})
	}
}
