package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"chronofeed/pkg/apperror"
	"chronofeed/services/social/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCommentHandler_GetComments(t *testing.T) {
	mockUseCase := new(MockCommentUseCase)
	handler := NewCommentHandler(mockUseCase, testLogger)

	router := setupTestRouter()
	router.GET("/api/comments", handler.GetComments)

	comments := []*entity.Comment{{ID: "comment_1_a", PostID: "text_1_a", Content: "hi"}}
	mockUseCase.On("ListComments", mock.Anything, "text_1_a", "").Return(comments, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/comments?postId=text_1_a", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "text_1_a", body[0]["postId"])
}

func TestCommentHandler_CreateComment(t *testing.T) {
	mockUseCase := new(MockCommentUseCase)
	handler := NewCommentHandler(mockUseCase, testLogger)

	router := setupTestRouter()
	router.POST("/api/comments", asUser("bob@example.com"), handler.CreateComment)

	comment := &entity.Comment{ID: "comment_1_a", PostID: "text_1_a", Content: "nice"}
	mockUseCase.On("CreateComment", mock.Anything, "bob@example.com", "text_1_a", "nice").Return(comment, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/comments", bytes.NewBufferString(`{"postId":"text_1_a","content":"nice"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockUseCase.AssertExpectations(t)
}

func TestCommentHandler_CreateComment_MissingPostID(t *testing.T) {
	mockUseCase := new(MockCommentUseCase)
	handler := NewCommentHandler(mockUseCase, testLogger)

	router := setupTestRouter()
	router.POST("/api/comments", asUser("bob@example.com"), handler.CreateComment)

	req := httptest.NewRequest(http.MethodPost, "/api/comments", bytes.NewBufferString(`{"content":"nice"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockUseCase.AssertNotCalled(t, "CreateComment")
}

func TestCommentHandler_DeleteComment_Forbidden(t *testing.T) {
	mockUseCase := new(MockCommentUseCase)
	handler := NewCommentHandler(mockUseCase, testLogger)

	router := setupTestRouter()
	router.DELETE("/api/comments", asUser("alice@example.com"), handler.DeleteComment)

	mockUseCase.On("DeleteComment", mock.Anything, "comment_1_a", "alice@example.com").
		Return(apperror.Forbidden("You can only delete your own comments"))

	req := httptest.NewRequest(http.MethodDelete, "/api/comments?id=comment_1_a", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	mockUseCase.AssertExpectations(t)
}
