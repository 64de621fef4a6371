package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	clientsgithub "ghdash/clients/github"
	"ghdash/core"
	"ghdash/logger"
	"ghdash/metrics"
	"ghdash/middleware"
	"ghdash/models"
	"ghdash/models/api"
	"ghdash/services/installations"
	"ghdash/services/sessions"
	"ghdash/testutils"
)

var (
	testInstallations = []models.AppInstallation{
		{ID: 1, Account: models.InstallationAccount{Login: "acme", Type: models.AccountTypeOrganization}, AppSlug: "ghdash"},
		{ID: 3, Account: models.InstallationAccount{Login: "octocat", Type: models.AccountTypeUser}, AppSlug: "ghdash"},
	}

	testRepositories = map[int64][]models.GitHubRepository{
		1: {{ID: 100, Name: "api", FullName: "acme/api"}},
		3: {{ID: 300, Name: "dotfiles", FullName: "octocat/dotfiles"}},
	}
)

func newTestSession(installationID mo.Option[int64]) *models.Session {
	return &models.Session{
		ID:             "sess_test",
		UserLogin:      "octocat",
		AccessToken:    mo.Some("gho_user"),
		InstallationID: installationID,
		ExpiresAt:      time.Now().Add(time.Hour),
	}
}

func newTestDashboardHandler(githubClient *clientsgithub.MockGitHubClient) *DashboardHTTPHandler {
	apiHandler := NewDashboardAPIHandler(
		githubClient,
		installations.NewResolver(logger.Discard(), metrics.Noop{}),
		installations.DefaultOptions(),
		logger.Discard(),
	)
	return NewDashboardHTTPHandler(apiHandler, CookieSettings{
		InstallationCookieName: installations.DefaultCookieName,
		MaxAge:                 time.Hour,
		Secure:                 false,
	}, logger.Discard(), metrics.Noop{})
}

func serveWithSession(handlerFunc http.HandlerFunc, session *models.Session, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if session != nil {
		req = req.WithContext(testutils.CreateTestContext(session))
	}
	rr := httptest.NewRecorder()
	handlerFunc(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) api.ErrorResponse {
	t.Helper()
	var body api.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, rr.Header().Get(middleware.RequestIDHeader), body.RequestID)
	return body
}

func TestDashboardHTTPHandler_HandleGetMe(t *testing.T) {
	handler := newTestDashboardHandler(new(clientsgithub.MockGitHubClient))

	t.Run("returns the signed-in user", func(t *testing.T) {
		rr := serveWithSession(handler.HandleGetMe, newTestSession(mo.Some(int64(3))), "/api/me")

		assert.Equal(t, http.StatusOK, rr.Code)
		var user api.UserModel
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &user))
		assert.Equal(t, "octocat", user.Login)
		require.NotNil(t, user.InstallationID)
		assert.Equal(t, int64(3), *user.InstallationID)
		assert.NotContains(t, rr.Body.String(), "gho_user")
	})

	t.Run("no session in context", func(t *testing.T) {
		rr := serveWithSession(handler.HandleGetMe, nil, "/api/me")

		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.True(t, decodeError(t, rr).SignOutRequired)
	})
}

func TestDashboardHTTPHandler_HandleListInstallations(t *testing.T) {
	testCases := []struct {
		name           string
		session        *models.Session
		setupMock      func(g *clientsgithub.MockGitHubClient)
		expectedStatus int
		expectedCode   api.ErrorCode
		expectedCount  int
	}{
		{
			name:    "lists installations",
			session: newTestSession(mo.None[int64]()),
			setupMock: func(g *clientsgithub.MockGitHubClient) {
				g.On("ListUserInstallations", mock.Anything, "gho_user").Return(testInstallations, nil)
			},
			expectedStatus: http.StatusOK,
			expectedCount:  2,
		},
		{
			name: "session without token",
			session: &models.Session{
				ID:             "sess_no_token",
				UserLogin:      "octocat",
				AccessToken:    mo.None[string](),
				InstallationID: mo.None[int64](),
			},
			setupMock:      func(g *clientsgithub.MockGitHubClient) {},
			expectedStatus: http.StatusForbidden,
			expectedCode:   api.ErrorCodeToken,
		},
		{
			name:    "revoked token",
			session: newTestSession(mo.None[int64]()),
			setupMock: func(g *clientsgithub.MockGitHubClient) {
				g.On("ListUserInstallations", mock.Anything, "gho_user").
					Return(nil, &core.AuthError{Message: "GitHub token is invalid or expired"})
			},
			expectedStatus: http.StatusForbidden,
			expectedCode:   api.ErrorCodeToken,
		},
		{
			name:    "rate limited",
			session: newTestSession(mo.None[int64]()),
			setupMock: func(g *clientsgithub.MockGitHubClient) {
				g.On("ListUserInstallations", mock.Anything, "gho_user").
					Return(nil, &core.RateLimitError{Message: "GitHub API rate limit exceeded", ResetAt: time.Now().Add(2 * time.Minute)})
			},
			expectedStatus: http.StatusTooManyRequests,
			expectedCode:   api.ErrorCodeRateLimit,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			githubClient := new(clientsgithub.MockGitHubClient)
			tc.setupMock(githubClient)
			handler := newTestDashboardHandler(githubClient)

			rr := serveWithSession(handler.HandleListInstallations, tc.session, "/api/installations")

			assert.Equal(t, tc.expectedStatus, rr.Code)
			if tc.expectedStatus != http.StatusOK {
				assert.Equal(t, tc.expectedCode, decodeError(t, rr).Code)
				return
			}
			var response api.InstallationsResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
			assert.Len(t, response.Installations, tc.expectedCount)
			assert.Equal(t, "acme", response.Installations[0].AccountLogin)
		})
	}
}

func TestDashboardHTTPHandler_HandleResolveInstallation(t *testing.T) {
	testCases := []struct {
		name           string
		target         string
		session        *models.Session
		expectedID     *int64
		expectedSource string
		expectedValid  bool
		expectCookie   bool
	}{
		{
			name:           "authorized query id is remembered",
			target:         "/api/installations/resolve?installation_id=3",
			session:        newTestSession(mo.None[int64]()),
			expectedID:     ptr(int64(3)),
			expectedSource: "query",
			expectedValid:  true,
			expectCookie:   true,
		},
		{
			name:           "unauthorized query id",
			target:         "/api/installations/resolve?installation_id=7",
			session:        newTestSession(mo.Some(int64(1))),
			expectedID:     ptr(int64(7)),
			expectedSource: "query",
			expectedValid:  false,
		},
		{
			name:           "session id is not written to the cookie",
			target:         "/api/installations/resolve",
			session:        newTestSession(mo.Some(int64(1))),
			expectedID:     ptr(int64(1)),
			expectedSource: "session",
			expectedValid:  true,
		},
		{
			name:           "malformed query id",
			target:         "/api/installations/resolve?installation_id=abc",
			session:        newTestSession(mo.Some(int64(1))),
			expectedID:     nil,
			expectedSource: "query",
			expectedValid:  false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			githubClient := new(clientsgithub.MockGitHubClient)
			githubClient.On("ListUserInstallations", mock.Anything, "gho_user").Return(testInstallations, nil)
			handler := newTestDashboardHandler(githubClient)

			rr := serveWithSession(handler.HandleResolveInstallation, tc.session, tc.target)

			assert.Equal(t, http.StatusOK, rr.Code)
			var resolution api.ResolutionModel
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resolution))
			assert.Equal(t, tc.expectedID, resolution.ID)
			assert.Equal(t, tc.expectedSource, resolution.Source)
			assert.Equal(t, tc.expectedValid, resolution.IsValid)
			if !tc.expectedValid {
				assert.NotEmpty(t, resolution.Error)
			}

			cookie := findCookie(rr, installations.DefaultCookieName)
			if tc.expectCookie {
				require.NotNil(t, cookie)
				assert.Equal(t, "3", cookie.Value)
			} else {
				assert.Nil(t, cookie)
			}
		})
	}
}

func TestDashboardHTTPHandler_HandleListRepositories(t *testing.T) {
	t.Run("lists repositories of the session installation", func(t *testing.T) {
		githubClient := new(clientsgithub.MockGitHubClient)
		githubClient.On("ListUserInstallations", mock.Anything, "gho_user").Return(testInstallations, nil)
		githubClient.On("ListInstallationRepositories", mock.Anything, int64(3)).Return(testRepositories[3], nil)
		handler := newTestDashboardHandler(githubClient)

		rr := serveWithSession(handler.HandleListRepositories, newTestSession(mo.Some(int64(3))), "/api/repositories")

		assert.Equal(t, http.StatusOK, rr.Code)
		var response api.RepositoriesResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
		assert.Equal(t, []int64{3}, response.InstallationIDs)
		require.Len(t, response.Repositories, 1)
		assert.Equal(t, "octocat/dotfiles", response.Repositories[0].FullName)
		assert.Equal(t, int64(3), response.Repositories[0].InstallationID)
	})

	t.Run("no installation available", func(t *testing.T) {
		githubClient := new(clientsgithub.MockGitHubClient)
		githubClient.On("ListUserInstallations", mock.Anything, "gho_user").Return([]models.AppInstallation{}, nil)
		handler := newTestDashboardHandler(githubClient)

		rr := serveWithSession(handler.HandleListRepositories, newTestSession(mo.None[int64]()), "/api/repositories")

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		body := decodeError(t, rr)
		assert.Equal(t, api.ErrorCodeInstallationRequired, body.Code)
		assert.True(t, body.NeedsInstallation)
		assert.False(t, body.SignOutRequired)
		githubClient.AssertNotCalled(t, "ListInstallationRepositories", mock.Anything, mock.Anything)
	})

	t.Run("unauthorized query id is never used", func(t *testing.T) {
		githubClient := new(clientsgithub.MockGitHubClient)
		githubClient.On("ListUserInstallations", mock.Anything, "gho_user").Return(testInstallations, nil)
		handler := newTestDashboardHandler(githubClient)

		rr := serveWithSession(handler.HandleListRepositories, newTestSession(mo.Some(int64(1))), "/api/repositories?installation_id=7")

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, api.ErrorCodeInstallationRequired, decodeError(t, rr).Code)
		githubClient.AssertNotCalled(t, "ListInstallationRepositories", mock.Anything, int64(7))
	})

	t.Run("query id is not used when the user reaches no installation", func(t *testing.T) {
		githubClient := new(clientsgithub.MockGitHubClient)
		githubClient.On("ListUserInstallations", mock.Anything, "gho_user").Return([]models.AppInstallation{}, nil)
		handler := newTestDashboardHandler(githubClient)

		rr := serveWithSession(handler.HandleListRepositories, newTestSession(mo.None[int64]()), "/api/repositories?installation_id=99")

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.True(t, decodeError(t, rr).NeedsInstallation)
		githubClient.AssertNotCalled(t, "ListInstallationRepositories", mock.Anything, mock.Anything)
	})

	t.Run("app not configured", func(t *testing.T) {
		githubClient := new(clientsgithub.MockGitHubClient)
		githubClient.On("ListUserInstallations", mock.Anything, "gho_user").Return(testInstallations, nil)
		githubClient.On("ListInstallationRepositories", mock.Anything, int64(1)).
			Return(nil, &core.ConfigError{Missing: []string{"GITHUB_APP_ID", "GITHUB_APP_PRIVATE_KEY"}})
		handler := newTestDashboardHandler(githubClient)

		rr := serveWithSession(handler.HandleListRepositories, newTestSession(mo.Some(int64(1))), "/api/repositories")

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, api.ErrorCodeAppConfig, decodeError(t, rr).Code)
	})
}

func TestDashboardHTTPHandler_HandleListRepositoriesMulti(t *testing.T) {
	t.Run("drops malformed and unauthorized ids", func(t *testing.T) {
		githubClient := new(clientsgithub.MockGitHubClient)
		githubClient.On("ListUserInstallations", mock.Anything, "gho_user").Return(testInstallations, nil)
		githubClient.On("ListInstallationRepositories", mock.Anything, int64(1)).Return(testRepositories[1], nil)
		githubClient.On("ListInstallationRepositories", mock.Anything, int64(3)).Return(testRepositories[3], nil)
		handler := newTestDashboardHandler(githubClient)

		rr := serveWithSession(handler.HandleListRepositoriesMulti, newTestSession(mo.None[int64]()), "/api/repositories/multi?installation_id=1,abc,7,3")

		assert.Equal(t, http.StatusOK, rr.Code)
		var response api.RepositoriesResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
		assert.Equal(t, []int64{1, 3}, response.InstallationIDs)
		assert.Equal(t, "query", response.Source)
		assert.Len(t, response.Repositories, 2)
		githubClient.AssertNotCalled(t, "ListInstallationRepositories", mock.Anything, int64(7))
	})

	t.Run("ids are not used when the user reaches no installation", func(t *testing.T) {
		githubClient := new(clientsgithub.MockGitHubClient)
		githubClient.On("ListUserInstallations", mock.Anything, "gho_user").Return([]models.AppInstallation{}, nil)
		handler := newTestDashboardHandler(githubClient)

		rr := serveWithSession(handler.HandleListRepositoriesMulti, newTestSession(mo.None[int64]()), "/api/repositories/multi?installation_id=5,6")

		assert.Equal(t, http.StatusOK, rr.Code)
		var response api.RepositoriesResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
		assert.Empty(t, response.InstallationIDs)
		githubClient.AssertNotCalled(t, "ListInstallationRepositories", mock.Anything, mock.Anything)
	})

	t.Run("nothing selected is an empty result", func(t *testing.T) {
		githubClient := new(clientsgithub.MockGitHubClient)
		githubClient.On("ListUserInstallations", mock.Anything, "gho_user").Return([]models.AppInstallation{}, nil)
		handler := newTestDashboardHandler(githubClient)

		rr := serveWithSession(handler.HandleListRepositoriesMulti, newTestSession(mo.None[int64]()), "/api/repositories/multi")

		assert.Equal(t, http.StatusOK, rr.Code)
		var response api.RepositoriesResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
		assert.Empty(t, response.InstallationIDs)
		assert.NotNil(t, response.Repositories)
	})
}

func TestDashboardHTTPHandler_SetupEndpoints(t *testing.T) {
	githubClient := new(clientsgithub.MockGitHubClient)
	sessionsService := new(sessions.MockSessionsService)
	sessionsService.On("GetSession", mock.Anything, "sess_test").Return(mo.Some(newTestSession(mo.None[int64]())), nil)
	authMiddleware := middleware.NewSessionAuthMiddleware(sessionsService, "ghdash_session", logger.Discard(), metrics.Noop{})

	router := mux.NewRouter()
	newTestDashboardHandler(githubClient).SetupEndpoints(router, authMiddleware)

	t.Run("authenticated request reaches the handler", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.AddCookie(&http.Cookie{Name: "ghdash_session", Value: "sess_test"})
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("anonymous request is rejected with 403", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/repositories", nil))

		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.True(t, decodeError(t, rr).SignOutRequired)
	})
}

func ptr[T any](value T) *T {
	return &value
}
