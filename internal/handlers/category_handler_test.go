package handlers

import (
	"context"
	"net/http"
	"testing"

	"finances-api/internal/dto"
	"finances-api/internal/errors"
	"finances-api/internal/models"
	"finances-api/internal/repositories"
	"finances-api/internal/services"
	"finances-api/internal/services/service_mocks"
	"finances-api/internal/validation"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"
)

type CategoryHandlerSuite struct {
	suite.Suite
	ctrl        *gomock.Controller
	mockService *service_mocks.MockCategoryServiceInterface
	handler     *CategoryHandler
	echo        *echo.Echo
}

func TestCategoryHandlerSuite(t *testing.T) {
	suite.Run(t, new(CategoryHandlerSuite))
}

func (s *CategoryHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockService = service_mocks.NewMockCategoryServiceInterface(s.ctrl)
	s.handler = NewCategoryHandler(s.mockService)
	s.echo = newTestEcho()
}

func (s *CategoryHandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *CategoryHandlerSuite) TestCreateCategory() {
	name := gofakeit.ProductCategory()
	s.mockService.EXPECT().
		CreateCategory(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ services.Requester, req *dto.CategoryRequest) (*models.Category, error) {
			s.Equal(name, req.Name)
			return &models.Category{ID: uuid.New(), Name: req.Name}, nil
		})

	c, rec := newRequestContext(s.echo, http.MethodPost, "/api/categories", dto.CategoryRequest{Name: name})
	authenticate(c, uuid.New(), false)

	s.NoError(s.handler.CreateCategory(c))
	s.Equal(http.StatusCreated, rec.Code)
}

func (s *CategoryHandlerSuite) TestCreateCategory_Duplicate() {
	s.mockService.EXPECT().CreateCategory(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, validation.ErrCategoryExists)

	c, rec := newRequestContext(s.echo, http.MethodPost, "/api/categories", dto.CategoryRequest{Name: "Groceries"})
	authenticate(c, uuid.New(), false)

	s.NoError(s.handler.CreateCategory(c))
	s.Equal(http.StatusConflict, rec.Code)
	s.Equal(string(errors.CategoryAlreadyExists), decodeErrorResponse(rec).Error.Code)
}

func (s *CategoryHandlerSuite) TestCreateCategory_NameTooLong() {
	c, rec := newRequestContext(s.echo, http.MethodPost, "/api/categories", dto.CategoryRequest{Name: gofakeit.LetterN(101)})
	authenticate(c, uuid.New(), false)

	s.NoError(s.handler.CreateCategory(c))
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *CategoryHandlerSuite) TestGetAndList() {
	id := uuid.New()
	s.mockService.EXPECT().GetCategory(gomock.Any(), id).Return(&models.Category{ID: id, Name: "Rent"}, nil)
	s.mockService.EXPECT().ListCategories(gomock.Any()).Return([]models.Category{}, nil)

	c, rec := newRequestContext(s.echo, http.MethodGet, "/api/categories/"+id.String(), nil)
	withPathParams(c, map[string]string{"id": id.String()})
	s.NoError(s.handler.GetCategory(c))
	s.Equal(http.StatusOK, rec.Code)

	c, rec = newRequestContext(s.echo, http.MethodGet, "/api/categories", nil)
	s.NoError(s.handler.ListCategories(c))
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"message":"There are no registered categories."}`, rec.Body.String())
}

func (s *CategoryHandlerSuite) TestUpdateCategory() {
	testCases := []struct {
		name       string
		err        error
		expectCode int
	}{
		{"renamed", nil, http.StatusOK},
		{"not admin", services.ErrForbidden, http.StatusForbidden},
		{"missing", repositories.ErrCategoryNotFound, http.StatusNotFound},
		{"name taken", validation.ErrCategoryExists, http.StatusConflict},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			id := uuid.New()
			var category *models.Category
			if tc.err == nil {
				category = &models.Category{ID: id, Name: "Utilities"}
			}
			s.mockService.EXPECT().UpdateCategory(gomock.Any(), gomock.Any(), id, &dto.CategoryRequest{Name: "Utilities"}).Return(category, tc.err)

			c, rec := newRequestContext(s.echo, http.MethodPut, "/api/categories/"+id.String(), dto.CategoryRequest{Name: "Utilities"})
			authenticate(c, uuid.New(), true)
			withPathParams(c, map[string]string{"id": id.String()})

			s.NoError(s.handler.UpdateCategory(c))
			s.Equal(tc.expectCode, rec.Code)
		})
	}
}

func (s *CategoryHandlerSuite) TestDeleteCategory() {
	id := uuid.New()
	s.mockService.EXPECT().DeleteCategory(gomock.Any(), gomock.Any(), id).Return(nil)

	c, rec := newRequestContext(s.echo, http.MethodDelete, "/api/categories/"+id.String(), nil)
	authenticate(c, uuid.New(), true)
	withPathParams(c, map[string]string{"id": id.String()})

	s.NoError(s.handler.DeleteCategory(c))
	s.Equal(http.StatusNoContent, rec.Code)
}
