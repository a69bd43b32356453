package controllers

import (
	"net/http"

	"github.com/felixfletscher/ollo-dev12/api/responses"
	"github.com/felixfletscher/ollo-dev12/api/validators"
	"github.com/felixfletscher/ollo-dev12/internal/intervals"
	"github.com/felixfletscher/ollo-dev12/pkg/logger"
)

type resolveIntervalRequest struct {
	Name string `json:"name" validate:"required,max=50"`
}

// ListIntervals returns all known billing intervals.
func ListIntervals(svc intervals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		items, err := svc.List(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// ResolveInterval looks up an interval by display name, creating it when
// unknown.
func ResolveInterval(svc intervals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var req resolveIntervalRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		interval, err := svc.Resolve(ctx, req.Name)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, interval)
	}
}
