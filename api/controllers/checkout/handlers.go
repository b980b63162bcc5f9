package checkout

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/midlandoil/storefront/api/responses"
	"github.com/midlandoil/storefront/api/validators"
	checkoutsvc "github.com/midlandoil/storefront/internal/checkout"
	pkgerrors "github.com/midlandoil/storefront/pkg/errors"
	"github.com/midlandoil/storefront/pkg/logger"
)

type sessionAction func(ctx context.Context, id uuid.UUID) (*checkoutsvc.Session, error)

func unavailable(svc checkoutsvc.Service, logg *logger.Logger, w http.ResponseWriter, r *http.Request) bool {
	if svc != nil {
		return false
	}
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
	return true
}

// runAction parses the session id, applies one transition and writes the
// resulting view.
func runAction(logg *logger.Logger, w http.ResponseWriter, r *http.Request, action sessionAction) {
	id, err := validators.ParseUUIDParam(r, "id")
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	ctx := r.Context()
	if logg != nil {
		ctx = logg.WithSessionID(ctx, id.String())
	}
	sess, err := action(ctx, id)
	if err != nil {
		responses.WriteError(ctx, logg, w, err)
		return
	}
	responses.WriteSuccess(w, newSessionView(sess))
}

func simple(svc checkoutsvc.Service, logg *logger.Logger, pick func(checkoutsvc.Service) sessionAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if unavailable(svc, logg, w, r) {
			return
		}
		runAction(logg, w, r, pick(svc))
	}
}

// CreateSession starts a checkout for a product. The session comes back open
// on the size picker.
func CreateSession(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if unavailable(svc, logg, w, r) {
			return
		}

		var payload createSessionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sess, err := svc.Create(r.Context(), validators.SanitizeLine(payload.ProductSlug, 200))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newSessionView(sess))
	}
}

func GetSession(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return simple(svc, logg, func(s checkoutsvc.Service) sessionAction { return s.Get })
}

// DeleteSession tears the session down.
func DeleteSession(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if unavailable(svc, logg, w, r) {
			return
		}
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func OpenSession(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return simple(svc, logg, func(s checkoutsvc.Service) sessionAction { return s.Open })
}

func CloseSession(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return simple(svc, logg, func(s checkoutsvc.Service) sessionAction { return s.Close })
}

func ChooseSize(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if unavailable(svc, logg, w, r) {
			return
		}
		var payload chooseSizeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		label := validators.SanitizeLine(payload.Label, maxLabelLen)
		runAction(logg, w, r, func(ctx context.Context, id uuid.UUID) (*checkoutsvc.Session, error) {
			return svc.ChooseSize(ctx, id, label)
		})
	}
}

func SetPendingQuantity(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if unavailable(svc, logg, w, r) {
			return
		}
		var payload quantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		runAction(logg, w, r, func(ctx context.Context, id uuid.UUID) (*checkoutsvc.Session, error) {
			return svc.SetPendingQuantity(ctx, id, payload.Quantity)
		})
	}
}

func ConfirmAdd(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return simple(svc, logg, func(s checkoutsvc.Service) sessionAction { return s.ConfirmAdd })
}

func ViewBasket(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return simple(svc, logg, func(s checkoutsvc.Service) sessionAction { return s.ViewBasket })
}

func AddAnother(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return simple(svc, logg, func(s checkoutsvc.Service) sessionAction { return s.AddAnother })
}

func UpdateLine(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if unavailable(svc, logg, w, r) {
			return
		}
		label, err := validators.ParseStringParam(r, "label", maxLabelLen)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload quantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		runAction(logg, w, r, func(ctx context.Context, id uuid.UUID) (*checkoutsvc.Session, error) {
			return svc.UpdateLineQuantity(ctx, id, label, payload.Quantity)
		})
	}
}

func RemoveLine(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if unavailable(svc, logg, w, r) {
			return
		}
		label, err := validators.ParseStringParam(r, "label", maxLabelLen)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		runAction(logg, w, r, func(ctx context.Context, id uuid.UUID) (*checkoutsvc.Session, error) {
			return svc.RemoveLine(ctx, id, label)
		})
	}
}

func Continue(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return simple(svc, logg, func(s checkoutsvc.Service) sessionAction { return s.Continue })
}

func Back(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return simple(svc, logg, func(s checkoutsvc.Service) sessionAction { return s.Back })
}

func UpdateDetails(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if unavailable(svc, logg, w, r) {
			return
		}
		var payload detailsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		details := payload.toDetails()
		runAction(logg, w, r, func(ctx context.Context, id uuid.UUID) (*checkoutsvc.Session, error) {
			return svc.UpdateDetails(ctx, id, details)
		})
	}
}

// Submit sends the basket to the order sink. A rejected order still answers
// 200: the view carries the message and the form stays editable.
func Submit(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return simple(svc, logg, func(s checkoutsvc.Service) sessionAction { return s.Submit })
}
