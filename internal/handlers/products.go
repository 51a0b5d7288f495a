package handlers

import (
	"errors"
	"net/http"

	"github.com/shopkit/shopkit/internal/repositories"
	"github.com/shopkit/shopkit/internal/services"
	"github.com/shopkit/shopkit/internal/util"
	"github.com/shopkit/shopkit/models"
)

type ProductHandler struct {
	products *services.ProductService
	logger   models.Logger
}

func NewProductHandler(products *services.ProductService, logger models.Logger) *ProductHandler {
	return &ProductHandler{
		products: products,
		logger:   logger,
	}
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.products.List(r.Context(), models.GetTenantIDFromContext(r.Context()))
	if err != nil {
		h.logger.Error("failed to list products", "error", err)
		util.ErrorResponse(w, http.StatusInternalServerError, "failed to list products", internalError)
		return
	}

	util.SuccessResponse(w, http.StatusOK, "", list)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.products.Get(r.Context(), models.GetTenantIDFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			util.ErrorResponse(w, http.StatusNotFound, err.Error(), notFoundError)
			return
		}
		h.logger.Error("failed to load product", "error", err)
		util.ErrorResponse(w, http.StatusInternalServerError, "failed to load product", internalError)
		return
	}

	util.SuccessResponse(w, http.StatusOK, "", product)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload services.CreateProductInput
	if err := util.ParseJSON(r, &payload); err != nil {
		util.ErrorResponse(w, http.StatusBadRequest, "invalid request body", badRequestError)
		return
	}
	if err := util.ValidateStruct(payload); err != nil {
		util.ErrorResponse(w, http.StatusUnprocessableEntity, err.Error(), validationFailedError)
		return
	}

	product, err := h.products.Create(r.Context(), models.GetTenantIDFromContext(r.Context()), payload)
	if err != nil {
		if errors.Is(err, services.ErrDuplicateSKU) {
			util.ErrorResponse(w, http.StatusConflict, err.Error(), conflictError)
			return
		}
		h.logger.Error("failed to create product", "error", err)
		util.ErrorResponse(w, http.StatusInternalServerError, "failed to create product", internalError)
		return
	}

	util.SuccessResponse(w, http.StatusCreated, "product created", product)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	var payload services.UpdateProductInput
	if err := util.ParseJSON(r, &payload); err != nil {
		util.ErrorResponse(w, http.StatusBadRequest, "invalid request body", badRequestError)
		return
	}
	if err := util.ValidateStruct(payload); err != nil {
		util.ErrorResponse(w, http.StatusUnprocessableEntity, err.Error(), validationFailedError)
		return
	}

	product, err := h.products.Update(r.Context(), models.GetTenantIDFromContext(r.Context()), r.PathValue("id"), payload)
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			util.ErrorResponse(w, http.StatusNotFound, err.Error(), notFoundError)
			return
		}
		h.logger.Error("failed to update product", "error", err)
		util.ErrorResponse(w, http.StatusInternalServerError, "failed to update product", internalError)
		return
	}

	util.SuccessResponse(w, http.StatusOK, "product updated", product)
}

type AdjustStockPayload struct {
	Delta int `json:"delta" validate:"required"`
}

func (h *ProductHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	var payload AdjustStockPayload
	if err := util.ParseJSON(r, &payload); err != nil {
		util.ErrorResponse(w, http.StatusBadRequest, "invalid request body", badRequestError)
		return
	}
	if err := util.ValidateStruct(payload); err != nil {
		util.ErrorResponse(w, http.StatusUnprocessableEntity, err.Error(), validationFailedError)
		return
	}

	product, err := h.products.AdjustStock(r.Context(), models.GetTenantIDFromContext(r.Context()), r.PathValue("id"), payload.Delta)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrProductNotFound):
			util.ErrorResponse(w, http.StatusNotFound, err.Error(), notFoundError)
		case errors.Is(err, repositories.ErrInsufficientStock):
			util.ErrorResponse(w, http.StatusConflict, err.Error(), conflictError)
		default:
			h.logger.Error("failed to adjust stock", "error", err)
			util.ErrorResponse(w, http.StatusInternalServerError, "failed to adjust stock", internalError)
		}
		return
	}

	util.SuccessResponse(w, http.StatusOK, "stock adjusted", product)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.products.Delete(r.Context(), models.GetTenantIDFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			util.ErrorResponse(w, http.StatusNotFound, err.Error(), notFoundError)
			return
		}
		h.logger.Error("failed to delete product", "error", err)
		util.ErrorResponse(w, http.StatusInternalServerError, "failed to delete product", internalError)
		return
	}

	util.SuccessResponse(w, http.StatusOK, "product deleted", nil)
}
