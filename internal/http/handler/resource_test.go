package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"libraryapi/internal/model"
	"libraryapi/internal/repository"
	repoMocks "libraryapi/internal/repository/mocks"
)

type bookRepo = repoMocks.MockRepository[model.Book, model.BookPatch]

func newBookApp(t *testing.T) (*fiber.App, *bookRepo, *observer.ObservedLogs) {
	t.Helper()
	mockRepo := new(bookRepo)
	core, logs := observer.New(zap.InfoLevel)
	res := NewResource(model.Books, mockRepo, zap.New(core))

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	RegisterRoutes(app, func(context.Context) error { return nil }, res)
	return app, mockRepo, logs
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeError(t *testing.T, resp *http.Response) errorPayload {
	t.Helper()
	var res errorPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	return res
}

func TestResource_Create(t *testing.T) {
	app, mockRepo, logs := newBookApp(t)
	id := repository.NewID()
	year := 1965

	t.Run("success", func(t *testing.T) {
		mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(b *model.Book) bool {
			return b.Title == "Dune" && b.YearPublished != nil && *b.YearPublished == 1965
		})).Return(&model.Book{ID: id, Title: "Dune", Author: "Herbert", Genre: "sci-fi", YearPublished: &year, Type: "fiction"}, nil).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/books",
			`{"title":"Dune","author":"Herbert","genre":"sci-fi","yearPublished":1965,"type":"fiction"}`))

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		var out map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		assert.Equal(t, id.Hex(), out["id"])
		assert.Equal(t, "Dune", out["title"])
		mockRepo.AssertExpectations(t)
	})

	t.Run("validation error is 400", func(t *testing.T) {
		mockRepo.On("Create", mock.Anything, mock.Anything).
			Return(nil, repository.Invalid("schema check failed", repository.FieldError{Field: "author", Rule: "required"})).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/books", `{"title":"Dune"}`))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		res := decodeError(t, resp)
		assert.Equal(t, "Error creating book", res.Message)
		assert.Equal(t, "VALIDATION_ERROR", res.Error.Code)
		assert.Equal(t, []repository.FieldError{{Field: "author", Rule: "required"}}, res.Error.Fields)
		mockRepo.AssertExpectations(t)
	})

	t.Run("malformed body never reaches the repository", func(t *testing.T) {
		app, untouched, _ := newBookApp(t)

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/books", `{"title":`))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "VALIDATION_ERROR", decodeError(t, resp).Error.Code)
		untouched.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("wrong field type names the field", func(t *testing.T) {
		app, untouched, _ := newBookApp(t)

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/books", `{"title":"Dune","yearPublished":"1965"}`))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		res := decodeError(t, resp)
		require.Len(t, res.Error.Fields, 1)
		assert.Equal(t, "yearPublished", res.Error.Fields[0].Field)
		untouched.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("repository failure is 500 and logged", func(t *testing.T) {
		mockRepo.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("socket closed")).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/books",
			`{"title":"Dune","author":"Herbert","genre":"sci-fi","yearPublished":1965,"type":"fiction"}`))

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		res := decodeError(t, resp)
		assert.Equal(t, "Error creating book", res.Message)
		assert.Equal(t, "INTERNAL_ERROR", res.Error.Code)
		assert.Empty(t, res.Error.Detail)
		assert.Equal(t, 1, logs.FilterMessage("repository_failure").Len())
		mockRepo.AssertExpectations(t)
	})
}

func TestResource_List(t *testing.T) {
	app, mockRepo, _ := newBookApp(t)

	t.Run("success", func(t *testing.T) {
		mockRepo.On("List", mock.Anything).Return([]model.Book{{ID: repository.NewID(), Title: "Dune"}}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/books", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var out []model.Book
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		assert.Len(t, out, 1)
		mockRepo.AssertExpectations(t)
	})

	t.Run("empty is an array", func(t *testing.T) {
		mockRepo.On("List", mock.Anything).Return([]model.Book{}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/books", nil))

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, "[]", string(body))
	})

	t.Run("repository failure", func(t *testing.T) {
		mockRepo.On("List", mock.Anything).Return(nil, errors.New("timeout")).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/books", nil))

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "Error fetching books", decodeError(t, resp).Message)
	})
}

func TestResource_Get(t *testing.T) {
	app, mockRepo, _ := newBookApp(t)
	id := repository.NewID()

	t.Run("success", func(t *testing.T) {
		mockRepo.On("FindByID", mock.Anything, id.Hex()).Return(&model.Book{ID: id, Title: "Dune"}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/books/"+id.Hex(), nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var out model.Book
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		assert.Equal(t, id, out.ID)
		mockRepo.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		mockRepo.On("FindByID", mock.Anything, "missing").Return(nil, repository.ErrNotFound).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/books/missing", nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		res := decodeError(t, resp)
		assert.Equal(t, "Book not found", res.Message)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
		mockRepo.AssertExpectations(t)
	})

	t.Run("repository failure", func(t *testing.T) {
		mockRepo.On("FindByID", mock.Anything, id.Hex()).Return(nil, errors.New("db error")).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/books/"+id.Hex(), nil))

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "Error fetching book", decodeError(t, resp).Message)
	})
}

func TestResource_Update(t *testing.T) {
	app, mockRepo, _ := newBookApp(t)
	id := repository.NewID()

	t.Run("passes only the provided fields", func(t *testing.T) {
		mockRepo.On("UpdateByID", mock.Anything, id.Hex(), mock.MatchedBy(func(p *model.BookPatch) bool {
			return p.Genre != nil && *p.Genre == "classic" && p.Title == nil && p.Type == nil
		})).Return(&model.Book{ID: id, Title: "Dune", Genre: "classic"}, nil).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPut, "/books/"+id.Hex(), `{"genre":"classic","id":"ignored"}`))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockRepo.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		mockRepo.On("UpdateByID", mock.Anything, id.Hex(), mock.Anything).Return(nil, repository.ErrNotFound).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPut, "/books/"+id.Hex(), `{"genre":"classic"}`))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "Book not found", decodeError(t, resp).Message)
	})

	t.Run("duplicate is 409", func(t *testing.T) {
		mockRepo.On("UpdateByID", mock.Anything, id.Hex(), mock.Anything).Return(nil, repository.Duplicate("email")).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPut, "/books/"+id.Hex(), `{"genre":"classic"}`))

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		res := decodeError(t, resp)
		assert.Equal(t, "Error updating book", res.Message)
		assert.Equal(t, "DUPLICATE", res.Error.Code)
	})
}

func TestResource_Delete(t *testing.T) {
	app, mockRepo, _ := newBookApp(t)
	id := repository.NewID()

	t.Run("success", func(t *testing.T) {
		mockRepo.On("DeleteByID", mock.Anything, id.Hex()).Return(nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/books/"+id.Hex(), nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var out map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		assert.Equal(t, "Book deleted successfully", out["message"])
		mockRepo.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		mockRepo.On("DeleteByID", mock.Anything, id.Hex()).Return(repository.ErrNotFound).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/books/"+id.Hex(), nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "Book not found", decodeError(t, resp).Message)
	})

	t.Run("repository failure", func(t *testing.T) {
		mockRepo.On("DeleteByID", mock.Anything, id.Hex()).Return(errors.New("delete error")).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/books/"+id.Hex(), nil))

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "Error deleting book", decodeError(t, resp).Message)
	})
}
