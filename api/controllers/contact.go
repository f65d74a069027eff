package controllers

import (
	"net/http"

	"github.com/swayaa-dev/storefront-backend/api/responses"
	"github.com/swayaa-dev/storefront-backend/api/validators"
	"github.com/swayaa-dev/storefront-backend/internal/contact"
	pkgerrors "github.com/swayaa-dev/storefront-backend/pkg/errors"
	"github.com/swayaa-dev/storefront-backend/pkg/logger"
)

// ContactSubmit accepts a contact form submission and queues it for delivery.
func ContactSubmit(svc contact.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "contact service unavailable"))
			return
		}

		var body contact.SubmitRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Submit(r.Context(), body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusAccepted, contact.SubmitResponse{Status: "queued"})
	}
}
