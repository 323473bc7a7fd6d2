package handlers

import (
	"net/http"

	"finances-api/internal/dto"
	"finances-api/internal/errors"
	"finances-api/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// CategoryHandler handles the shared category list
type CategoryHandler struct {
	categoryService services.CategoryServiceInterface
}

func NewCategoryHandler(categoryService services.CategoryServiceInterface) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	requester, err := requesterFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	var req dto.CategoryRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	category, err := h.categoryService.CreateCategory(c.Request().Context(), requester, &req)
	if err != nil {
		return SendServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, category)
}

func (h *CategoryHandler) GetCategory(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return sendInvalidID(c, "category")
	}

	category, err := h.categoryService.GetCategory(c.Request().Context(), id)
	if err != nil {
		return SendServiceError(c, err)
	}

	return c.JSON(http.StatusOK, category)
}

func (h *CategoryHandler) ListCategories(c echo.Context) error {
	categories, err := h.categoryService.ListCategories(c.Request().Context())
	if err != nil {
		return SendServiceError(c, err)
	}

	return sendList(c, "categories", categories)
}

// UpdateCategory renames a category (admin only)
func (h *CategoryHandler) UpdateCategory(c echo.Context) error {
	requester, err := requesterFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return sendInvalidID(c, "category")
	}

	var req dto.CategoryRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	category, err := h.categoryService.UpdateCategory(c.Request().Context(), requester, id, &req)
	if err != nil {
		return SendServiceError(c, err)
	}

	return c.JSON(http.StatusOK, category)
}

// DeleteCategory removes a category with its budgets and transactions (admin only)
func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	requester, err := requesterFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return sendInvalidID(c, "category")
	}

	if err := h.categoryService.DeleteCategory(c.Request().Context(), requester, id); err != nil {
		return SendServiceError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}
