package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/HasashiDaaku/ledger-tycoon-erp/api/responses"
	"github.com/HasashiDaaku/ledger-tycoon-erp/api/validators"
	"github.com/HasashiDaaku/ledger-tycoon-erp/internal/game"
	pkgerrors "github.com/HasashiDaaku/ledger-tycoon-erp/pkg/errors"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/logger"
)

type PurchaseInventoryBody struct {
	CompanyID int64   `json:"company_id" validate:"required,gt=0"`
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	Quantity  int     `json:"quantity" validate:"required,gt=0"`
	UnitCost  float64 `json:"unit_cost" validate:"gte=0"`
}

type SetPriceBody struct {
	CompanyID int64   `json:"company_id" validate:"required,gt=0"`
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	Price     float64 `json:"price"`
}

type DecideBody struct {
	CompanyID int64  `json:"company_id" validate:"required,gt=0"`
	ChoiceID  string `json:"choice_id" validate:"required,min=1,max=16"`
}

func GameStart(svc game.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID, err := svc.InitializeGame(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"player_company_id": playerID,
		})
	}
}

func GameState(svc game.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		state, err := svc.LoadState(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		companies, err := svc.CompanySummaries(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"month":     state.CurrentMonth,
			"year":      state.CurrentYear,
			"companies": companies,
		})
	}
}

func GameProcessTurn(svc game.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.ProcessTurn(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func GamePurchaseInventory(svc game.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body PurchaseInventoryBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.PurchaseInventory(r.Context(), body.CompanyID, body.ProductID, body.Quantity, body.UnitCost); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"company_id": body.CompanyID,
			"product_id": body.ProductID,
			"quantity":   body.Quantity,
		})
	}
}

func GameSetPrice(svc game.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body SetPriceBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.SetPrice(r.Context(), body.CompanyID, body.ProductID, body.Price); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"company_id": body.CompanyID,
			"product_id": body.ProductID,
			"price":      body.Price,
		})
	}
}

func GamePendingDecisions(svc game.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pending, err := svc.PendingDecisionEvents(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pending)
	}
}

func GameDecide(svc game.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID, err := strconv.ParseInt(chi.URLParam(r, "eventID"), 10, 64)
		if err != nil || eventID <= 0 {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "event id must be a positive integer"))
			return
		}
		var body DecideBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		outcomes, err := svc.Decide(r.Context(), eventID, body.ChoiceID, body.CompanyID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"event_id": eventID,
			"choice":   body.ChoiceID,
			"effects":  outcomes,
		})
	}
}
