package controllers

import (
	"net/http"

	"github.com/swayaa-dev/storefront-backend/api/responses"
	checkoutsvc "github.com/swayaa-dev/storefront-backend/internal/checkout"
	pkgerrors "github.com/swayaa-dev/storefront-backend/pkg/errors"
	"github.com/swayaa-dev/storefront-backend/pkg/logger"
)

// Checkout converts the caller's cart into an order.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := callerUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.PlaceOrder(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}
