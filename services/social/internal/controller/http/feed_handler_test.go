package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"chronofeed/pkg/apperror"
	"chronofeed/pkg/pagination"
	"chronofeed/services/social/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestFeedHandler_GetFeed(t *testing.T) {
	mockUseCase := new(MockFeedUseCase)
	handler := NewFeedHandler(mockUseCase, testPaging, testLogger)

	router := setupTestRouter()
	router.GET("/api/feed", asUser("alice@example.com"), handler.GetFeed)

	page := &entity.FeedPage{
		Posts:      []entity.FeedItem{{Post: entity.Post{ID: "text_1_a", Type: entity.PostTypeText}}},
		Pagination: pagination.New(1, 2, 5),
	}
	mockUseCase.On("GetFeed", mock.Anything, "bob", 2, 5).Return(page, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/feed?username=bob&page=2&limit=5", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body["posts"], 1)
	meta := body["pagination"].(map[string]interface{})
	assert.Equal(t, float64(2), meta["page"])
	assert.Equal(t, float64(5), meta["limit"])
	mockUseCase.AssertExpectations(t)
}

func TestFeedHandler_GetFeed_PagingDefaults(t *testing.T) {
	mockUseCase := new(MockFeedUseCase)
	handler := NewFeedHandler(mockUseCase, testPaging, testLogger)

	router := setupTestRouter()
	router.GET("/api/feed", handler.GetFeed)

	mockUseCase.On("GetFeed", mock.Anything, "bob", 1, 20).Return(&entity.FeedPage{Posts: []entity.FeedItem{}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/feed?username=bob&page=-3&limit=1000", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockUseCase.AssertExpectations(t)
}

func TestFeedHandler_GetFeed_MissingUsername(t *testing.T) {
	mockUseCase := new(MockFeedUseCase)
	handler := NewFeedHandler(mockUseCase, testPaging, testLogger)

	router := setupTestRouter()
	router.GET("/api/feed", handler.GetFeed)

	req := httptest.NewRequest(http.MethodGet, "/api/feed", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockUseCase.AssertNotCalled(t, "GetFeed")
}

func TestFeedHandler_GetFeed_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"not found", apperror.NotFound("user"), http.StatusNotFound, "user not found"},
		{"upstream hidden", apperror.Upstream("read post index", errors.New("dial tcp: refused")), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUseCase := new(MockFeedUseCase)
			handler := NewFeedHandler(mockUseCase, testPaging, testLogger)

			router := setupTestRouter()
			router.GET("/api/feed", handler.GetFeed)

			mockUseCase.On("GetFeed", mock.Anything, "ghost", 1, 20).Return(nil, tt.err)

			req := httptest.NewRequest(http.MethodGet, "/api/feed?username=ghost", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantError, body["error"])
		})
	}
}

func TestFeedHandler_GetLatestPosts(t *testing.T) {
	mockUseCase := new(MockFeedUseCase)
	handler := NewFeedHandler(mockUseCase, testPaging, testLogger)

	router := setupTestRouter()
	router.GET("/api/latest-posts", handler.GetLatestPosts)

	mockUseCase.On("GetLatestPosts", mock.Anything, 3, 10).Return(&entity.FeedPage{Posts: []entity.FeedItem{}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/latest-posts?page=3&limit=10", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockUseCase.AssertExpectations(t)
}
