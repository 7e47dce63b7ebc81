package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nutriguide/nutriguide/internal/domain/entities"
	"github.com/nutriguide/nutriguide/internal/domain/errors"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubMealService struct {
	meal        *entities.Meal
	meals       []*entities.Meal
	err         error
	filename    string
	description string
}

func (s *stubMealService) UploadMeal(ctx context.Context, filename, description string, content io.Reader) (*entities.Meal, error) {
	s.filename = filename
	s.description = description
	if s.err != nil {
		return nil, s.err
	}
	return s.meal, nil
}

func (s *stubMealService) ListMeals(ctx context.Context) ([]*entities.Meal, error) {
	return s.meals, s.err
}

func (s *stubMealService) GetMeal(ctx context.Context, id int) (*entities.Meal, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.meal, nil
}

func newMealServer(svc *stubMealService) *echo.Echo {
	e := echo.New()
	NewMealController(zap.NewNop(), svc).RegisterRoutes(e)
	return e
}

func multipartUpload(t *testing.T, filename, description string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	if description != "" {
		require.NoError(t, writer.WriteField("description", description))
	}
	require.NoError(t, writer.Close())
	return &body, writer.FormDataContentType()
}

func TestMealController_Upload(t *testing.T) {
	svc := &stubMealService{meal: &entities.Meal{
		ID:        3,
		Name:      "lunch.jpg",
		ImagePath: "uploads/meals/meals_3.jpg",
		Analysis:  "Grilled chicken salad, roughly 420 kcal.",
	}}
	e := newMealServer(svc)

	body, contentType := multipartUpload(t, "lunch.jpg", "my lunch", []byte("image bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Contains(t, resp.Detail, "ID: 3")
	assert.Equal(t, "uploads/meals/meals_3.jpg", resp.DocumentPath)
	assert.Contains(t, resp.Analysis, "420 kcal")
	assert.Equal(t, "lunch.jpg", svc.filename)
	assert.Equal(t, "my lunch", svc.description)
}

func TestMealController_UploadWithoutFile(t *testing.T) {
	e := newMealServer(&stubMealService{})

	body, contentType := multipartUpload(t, "", "only a description", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "file")
}

func TestMealController_UploadValidationFailure(t *testing.T) {
	svc := &stubMealService{err: errors.ValidationErrorf("unsupported file extension '.txt'")}
	e := newMealServer(svc)

	body, contentType := multipartUpload(t, "notes.txt", "", []byte("plain text"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported file extension")
}

func TestMealController_UploadPersistenceFailure(t *testing.T) {
	svc := &stubMealService{err: errors.InternalErrorf("failed to write meals file")}
	e := newMealServer(svc)

	body, contentType := multipartUpload(t, "lunch.jpg", "", []byte("image bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestMealController_ListMeals(t *testing.T) {
	svc := &stubMealService{meals: []*entities.Meal{
		{ID: 1, Name: "breakfast.jpg"},
		{ID: 2, Name: "lunch.jpg"},
	}}
	e := newMealServer(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/meals", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var meals []*entities.Meal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &meals))
	require.Len(t, meals, 2)
	assert.Equal(t, "breakfast.jpg", meals[0].Name)
}

func TestMealController_GetMeal(t *testing.T) {
	svc := &stubMealService{meal: &entities.Meal{ID: 7, Name: "dinner.jpg"}}
	e := newMealServer(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/meals/7", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var meal entities.Meal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &meal))
	assert.Equal(t, 7, meal.ID)
}

func TestMealController_GetMealNotFound(t *testing.T) {
	svc := &stubMealService{err: errors.NotFoundErrorf("meal with id 42 not found")}
	e := newMealServer(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/meals/42", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMealController_GetMealBadID(t *testing.T) {
	e := newMealServer(&stubMealService{})

	req := httptest.NewRequest(http.MethodGet, "/api/meals/abc", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
