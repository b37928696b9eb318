package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ebogdum/kvtable/core"
)

// BucketListResponse represents the response for bucket listing
type BucketListResponse struct {
	Backend string   `json:"backend"`
	Count   int      `json:"count"`
	Buckets []string `json:"buckets"`
}

// KeyListResponse represents the response for key listing
type KeyListResponse struct {
	Bucket string   `json:"bucket"`
	Count  int      `json:"count"`
	Keys   []string `json:"keys"`
}

// V1ListBuckets handles GET /v1/buckets requests
// @Summary List buckets
// @Param refresh query bool false "Bypass the listing cache"
// @Success 200 {object} BucketListResponse
// @Router /v1/buckets [get]
func V1ListBuckets(engine *core.Engine, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("refresh") == "true" {
			engine.InvalidateListings()
		}

		buckets, err := engine.ListBuckets(r.Context())
		if err != nil {
			SendErrorResponse(w, logger, err, http.StatusInternalServerError)
			return
		}

		SendJSONResponse(w, BucketListResponse{
			Backend: engine.BackendType(),
			Count:   len(buckets),
			Buckets: nonNil(buckets),
		})
	}
}

// V1ListKeys handles GET /v1/keys?bucket= requests
// @Summary List the keys of one bucket
// @Param bucket query string true "Bucket name"
// @Success 200 {object} KeyListResponse
// @Failure 404 {object} ErrorResponse "Not Found"
// @Router /v1/keys [get]
func V1ListKeys(engine *core.Engine, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bucket := r.URL.Query().Get("bucket")
		if bucket == "" {
			SendErrorResponse(w, logger, errMissingBucket, http.StatusBadRequest)
			return
		}

		keys, err := engine.ListKeys(r.Context(), bucket)
		if err != nil {
			SendErrorResponse(w, logger, err, http.StatusInternalServerError)
			return
		}

		SendJSONResponse(w, KeyListResponse{
			Bucket: bucket,
			Count:  len(keys),
			Keys:   nonNil(keys),
		})
	}
}

func nonNil(names []string) []string {
	if names == nil {
		return []string{}
	}
	return names
}
