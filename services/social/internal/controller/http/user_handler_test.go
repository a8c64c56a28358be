package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"chronofeed/pkg/apperror"
	"chronofeed/services/social/internal/entity"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newUserRouter(mockUseCase *MockProfileUseCase, email string) *gin.Engine {
	handler := NewUserHandler(mockUseCase, 1<<10, testLogger)
	router := setupTestRouter()
	api := router.Group("/api", asUser(email))
	api.GET("/user", handler.GetUser)
	api.POST("/user", handler.CreateUser)
	api.PATCH("/user", handler.UpdateUser)
	api.PUT("/user", handler.FollowUser)
	api.POST("/user/avatar", handler.UploadAvatar)
	api.GET("/user/following", handler.GetFollowing)
	api.GET("/user/followers", handler.GetFollowers)
	return router
}

func TestUserHandler_GetUser(t *testing.T) {
	mockUseCase := new(MockProfileUseCase)
	router := newUserRouter(mockUseCase, "bob@example.com")

	view := &entity.ProfileView{
		Profile:     &entity.UserProfile{Username: "alice", Email: "alice@example.com"},
		Followers:   3,
		IsFollowing: true,
	}
	mockUseCase.On("GetProfile", mock.Anything, "alice", "", "bob@example.com").Return(view, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/user?username=alice", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["isFollowing"])
	assert.Equal(t, float64(3), body["followers"])
	assert.Nil(t, body["settings"])
}

func TestUserHandler_CreateUser_Conflict(t *testing.T) {
	mockUseCase := new(MockProfileUseCase)
	router := newUserRouter(mockUseCase, "alice@example.com")

	mockUseCase.On("CreateProfile", mock.Anything, "alice@example.com", "alice", "hi").
		Return(nil, apperror.Conflict("Username is already taken"))

	req := httptest.NewRequest(http.MethodPost, "/api/user", bytes.NewBufferString(`{"username":"alice","bio":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	mockUseCase.AssertExpectations(t)
}

func TestUserHandler_UpdateUser(t *testing.T) {
	mockUseCase := new(MockProfileUseCase)
	router := newUserRouter(mockUseCase, "alice@example.com")

	mockUseCase.On("UpdateProfile", mock.Anything, "alice@example.com", mock.MatchedBy(func(p entity.ProfilePatch) bool {
		return p.Bio != nil && *p.Bio == "new" && p.Settings != nil && *p.Settings.Theme == entity.ThemeLight
	})).Return(&entity.ProfileView{Profile: &entity.UserProfile{Username: "alice"}}, nil)

	req := httptest.NewRequest(http.MethodPatch, "/api/user", bytes.NewBufferString(`{"bio":"new","settings":{"theme":"light"}}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockUseCase.AssertExpectations(t)
}

func TestUserHandler_FollowUser(t *testing.T) {
	mockUseCase := new(MockProfileUseCase)
	router := newUserRouter(mockUseCase, "alice@example.com")

	mockUseCase.On("Follow", mock.Anything, "alice@example.com", "bob").Return(nil)
	mockUseCase.On("Unfollow", mock.Anything, "alice@example.com", "bob").Return(nil)

	for _, action := range []string{"follow", "unfollow"} {
		req := httptest.NewRequest(http.MethodPut, "/api/user", bytes.NewBufferString(`{"action":"`+action+`","targetUsername":"bob"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	req := httptest.NewRequest(http.MethodPut, "/api/user", bytes.NewBufferString(`{"action":"block","targetUsername":"bob"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	mockUseCase.AssertExpectations(t)
}

func TestUserHandler_UploadAvatar(t *testing.T) {
	mockUseCase := new(MockProfileUseCase)
	router := newUserRouter(mockUseCase, "alice@example.com")

	data := []byte("avatar bytes")
	mockUseCase.On("UploadAvatar", mock.Anything, "alice@example.com", entity.Upload{Filename: "photo.png", Data: data}).
		Return(&entity.UserProfile{Username: "alice", ProfilePicture: "https://blobs.test/avatars/alice/x.png"}, nil)

	body, contentType := multipartBody(t, "file", data, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/user/avatar", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockUseCase.AssertExpectations(t)
}

func TestUserHandler_FollowLists(t *testing.T) {
	mockUseCase := new(MockProfileUseCase)
	router := newUserRouter(mockUseCase, "")

	mockUseCase.On("ListFollowing", mock.Anything, "alice").Return([]*entity.UserProfile{{Username: "bob"}}, nil)
	mockUseCase.On("ListFollowers", mock.Anything, "alice").Return(nil, apperror.NotFound("User"))

	req := httptest.NewRequest(http.MethodGet, "/api/user/following?username=alice", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string][]map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body["following"], 1)
	assert.Equal(t, "bob", body["following"][0]["username"])

	req = httptest.NewRequest(http.MethodGet, "/api/user/followers?username=alice", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
