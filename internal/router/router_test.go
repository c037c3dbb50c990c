package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/venkatnanaji21/Life-line-blood/internal/auth"
	"github.com/venkatnanaji21/Life-line-blood/internal/controller"
	"github.com/venkatnanaji21/Life-line-blood/internal/db/memstore"
	"github.com/venkatnanaji21/Life-line-blood/internal/db/storage"
	"github.com/venkatnanaji21/Life-line-blood/internal/ipchecker"
	"github.com/venkatnanaji21/Life-line-blood/internal/logger"
	"github.com/venkatnanaji21/Life-line-blood/internal/mockstore"
	"github.com/venkatnanaji21/Life-line-blood/internal/models"
	"github.com/venkatnanaji21/Life-line-blood/internal/service"
	"github.com/venkatnanaji21/Life-line-blood/internal/toasts"
	"github.com/venkatnanaji21/Life-line-blood/internal/views"
)

const (
	testCookieName = "lifeline_auth"
)

var testSigningKey = []byte("test-signing-key")

type mockAuth struct{}

func (m *mockAuth) AuthenticateUser(h http.Handler) http.Handler { return h }

func (m *mockAuth) RequireUser(h http.Handler) http.Handler { return h }

func (m *mockAuth) IssueCookie(response http.ResponseWriter, userID string) error { return nil }

func (m *mockAuth) DropCookie(response http.ResponseWriter) {}

type mockAlertsDispatcher struct {
	jobs []*models.DonorAlertJob
}

func (m *mockAlertsDispatcher) EnqueueJob(job *models.DonorAlertJob) {
	m.jobs = append(m.jobs, job)
}

type initOption func(*initOptions)

type initOptions struct {
	mockAuth      bool
	mockStorage   storage.Storage
	trustedSubnet string
}

func withMockStorage(db storage.Storage) initOption {
	return func(options *initOptions) {
		options.mockStorage = db
	}
}

func withMockAuth(value bool) initOption {
	return func(options *initOptions) {
		options.mockAuth = value
	}
}

func withTrustedSubnet(subnet string) initOption {
	return func(options *initOptions) {
		options.trustedSubnet = subnet
	}
}

type testEnv struct {
	server *httptest.Server
	db     storage.Storage
	router *chi.Mux
	svc    *service.Service
	toasts *toasts.Buffer
	alerts *mockAlertsDispatcher
}

func setupTestRouter(t *testing.T, optionsProto ...initOption) *testEnv {
	t.Helper()

	options := &initOptions{}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	require.NoError(t, logger.Init("debug"))

	var db storage.Storage
	var err error
	if options.mockStorage != nil {
		db = options.mockStorage
	} else {
		db, err = memstore.New()
		require.NoError(t, err)
	}

	svc := service.New(db)
	toastsBuffer := toasts.New()
	alertsDispatcher := &mockAlertsDispatcher{}
	ctrl := controller.New(svc, toastsBuffer, alertsDispatcher, time.Millisecond)

	viewsRenderer, err := views.New()
	require.NoError(t, err)

	ipChecker, err := ipchecker.New(options.trustedSubnet)
	require.NoError(t, err)

	var authMiddleware authenticator
	if options.mockAuth {
		authMiddleware = &mockAuth{}
	} else {
		authMiddleware = auth.New(db, testCookieName, testSigningKey)
	}

	theRouter := New(
		svc,
		ctrl,
		viewsRenderer,
		authMiddleware,
		alertsDispatcher,
		ipChecker,
		toastsBuffer,
	)

	return &testEnv{
		server: httptest.NewServer(theRouter),
		db:     db,
		router: theRouter,
		svc:    svc,
		toasts: toastsBuffer,
		alerts: alertsDispatcher,
	}
}

func registerViaAPI(t *testing.T, env *testEnv, phone string) (*resty.Response, models.User) {
	t.Helper()

	var created models.User
	resp, err := resty.New().R().
		SetHeader("Content-Type", "application/json").
		SetBody(fmt.Sprintf(`{"name":"Asha","phone":"%s","bloodGroup":"O+","role":"donor"}`, phone)).
		SetResult(&created).
		Post(env.server.URL + "/api/register")
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode())

	return resp, created
}

func TestPostApiregister(t *testing.T) {
	env := setupTestRouter(t)
	defer env.server.Close()

	tests := []struct {
		name         string
		body         string
		expectedCode int
	}{
		{
			name:         "positive",
			body:         `{"name":"Asha","phone":"1112223333","bloodGroup":"O+","role":"donor"}`,
			expectedCode: http.StatusCreated,
		},
		{
			name:         "duplicate phone",
			body:         `{"name":"Somebody Else","phone":"1112223333"}`,
			expectedCode: http.StatusConflict,
		},
		{
			name:         "missing name",
			body:         `{"phone":"4445556666"}`,
			expectedCode: http.StatusUnprocessableEntity,
		},
		{
			name:         "unknown blood group",
			body:         `{"name":"Asha","phone":"4445556666","bloodGroup":"Z+"}`,
			expectedCode: http.StatusUnprocessableEntity,
		},
		{
			name:         "malformed JSON",
			body:         `{"name":`,
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := resty.New().R().
				SetHeader("Content-Type", "application/json").
				SetBody(tt.body).
				Post(env.server.URL + "/api/register")
			require.NoError(t, err)
			assert.Equal(t, tt.expectedCode, resp.StatusCode())

			if tt.expectedCode == http.StatusCreated {
				assert.NotEmpty(t, resp.Header().Get("Set-Cookie"))
				assert.Contains(t, string(resp.Body()), `"id"`)
			}
			if tt.expectedCode == http.StatusUnprocessableEntity {
				assert.Contains(t, resp.String(), models.ErrValidation.Error())
			}
		})
	}
}

func TestPostApilogin(t *testing.T) {
	env := setupTestRouter(t)
	defer env.server.Close()

	registerViaAPI(t, env, "1112223333")
	require.NoError(t, env.svc.Logout(context.Background()))

	tests := []struct {
		name         string
		body         string
		expectedCode int
	}{
		{
			name:         "positive",
			body:         `{"phone":"1112223333","otp":"1234"}`,
			expectedCode: http.StatusOK,
		},
		{
			name:         "malformed OTP",
			body:         `{"phone":"1112223333","otp":"12"}`,
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "unregistered phone",
			body:         `{"phone":"0000000000","otp":"1234"}`,
			expectedCode: http.StatusNotFound,
		},
		{
			name:         "missing fields",
			body:         `{}`,
			expectedCode: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := resty.New().R().
				SetHeader("Content-Type", "application/json").
				SetBody(tt.body).
				Post(env.server.URL + "/api/login")
			require.NoError(t, err)
			assert.Equal(t, tt.expectedCode, resp.StatusCode())
			if tt.expectedCode == http.StatusUnprocessableEntity {
				assert.Contains(t, resp.String(), models.ErrValidation.Error())
			}
		})
	}
}

func TestPostApilogout(t *testing.T) {
	env := setupTestRouter(t)
	defer env.server.Close()

	registerViaAPI(t, env, "1112223333")

	resp, err := resty.New().R().Post(env.server.URL + "/api/logout")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode())

	_, found, err := env.svc.GetCurrentUser(context.Background())
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetApiuser(t *testing.T) {
	env := setupTestRouter(t)
	defer env.server.Close()

	registerResp, created := registerViaAPI(t, env, "1112223333")

	t.Run("authenticated", func(t *testing.T) {
		var fetched models.User
		resp, err := resty.New().R().
			SetCookies(registerResp.Cookies()).
			SetResult(&fetched).
			Get(env.server.URL + "/api/user")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode())
		assert.Equal(t, created.ID, fetched.ID)
	})

	t.Run("anonymous", func(t *testing.T) {
		resp, err := resty.New().R().Get(env.server.URL + "/api/user")
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode())
	})
}

func TestPatchApiuser(t *testing.T) {
	env := setupTestRouter(t)
	defer env.server.Close()

	registerResp, _ := registerViaAPI(t, env, "1112223333")

	t.Run("patch role", func(t *testing.T) {
		var patched models.User
		resp, err := resty.New().R().
			SetCookies(registerResp.Cookies()).
			SetHeader("Content-Type", "application/json").
			SetBody(`{"role":"seeker"}`).
			SetResult(&patched).
			Patch(env.server.URL + "/api/user")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode())
		assert.Equal(t, models.RoleSeeker, patched.Role)
		assert.Equal(t, "Asha", patched.Name)
	})

	t.Run("unknown role", func(t *testing.T) {
		resp, err := resty.New().R().
			SetCookies(registerResp.Cookies()).
			SetHeader("Content-Type", "application/json").
			SetBody(`{"role":"vampire"}`).
			Patch(env.server.URL + "/api/user")
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode())
		assert.Contains(t, resp.String(), models.ErrValidation.Error())
	})

	t.Run("unknown blood group", func(t *testing.T) {
		resp, err := resty.New().R().
			SetCookies(registerResp.Cookies()).
			SetHeader("Content-Type", "application/json").
			SetBody(`{"bloodGroup":"Z+"}`).
			Patch(env.server.URL + "/api/user")
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode())
		assert.Contains(t, resp.String(), models.ErrValidation.Error())
	})
}

func TestRequestsLifecycle(t *testing.T) {
	env := setupTestRouter(t, withMockAuth(true))
	defer env.server.Close()

	_, err := env.svc.RegisterUser(context.Background(), service.RegisterData{
		Name:       "Ravi",
		Phone:      "9876543210",
		BloodGroup: models.BloodGroupBNegative,
		Role:       models.RoleSeeker,
	})
	require.NoError(t, err)

	var raised models.Request
	resp, err := resty.New().R().
		SetHeader("Content-Type", "application/json").
		SetBody(`{"hospital":"City Hospital","units":2}`).
		SetResult(&raised).
		Post(env.server.URL + "/api/requests")
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode())

	assert.True(t, strings.HasPrefix(raised.ID, "REQ-"))
	assert.Equal(t, models.RequestStatusPending, raised.Status)
	assert.Equal(t, "Ravi", raised.SeekerName)
	assert.Equal(t, models.BloodGroupBNegative, raised.BloodGroup)
	assert.Equal(t, "Current Location", raised.Location)

	require.Len(t, env.alerts.jobs, 1)
	assert.Equal(t, raised.ID, env.alerts.jobs[0].RequestID)

	var listed []models.Request
	resp, err = resty.New().R().
		SetResult(&listed).
		Get(env.server.URL + "/api/requests")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())
	require.Len(t, listed, 1)

	var accepted models.Request
	resp, err = resty.New().R().
		SetResult(&accepted).
		Post(env.server.URL + "/api/requests/" + raised.ID + "/accept")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, models.RequestStatusAccepted, accepted.Status)

	var completed models.Request
	resp, err = resty.New().R().
		SetResult(&completed).
		Post(env.server.URL + "/api/requests/" + raised.ID + "/complete")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, models.RequestStatusCompleted, completed.Status)

	// A completed request does not move again.
	resp, err = resty.New().R().
		Post(env.server.URL + "/api/requests/" + raised.ID + "/accept")
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode())

	// An unknown id is a miss, not an error.
	resp, err = resty.New().R().
		Post(env.server.URL + "/api/requests/REQ-UNKNOWN/accept")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode())
}

func TestGetApirequestsEmpty(t *testing.T) {
	env := setupTestRouter(t)
	defer env.server.Close()

	resp, err := resty.New().R().Get(env.server.URL + "/api/requests")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.JSONEq(t, `[]`, string(resp.Body()))
}

func TestPostApirequestsWithoutSession(t *testing.T) {
	env := setupTestRouter(t, withMockAuth(true))
	defer env.server.Close()

	resp, err := resty.New().R().
		SetHeader("Content-Type", "application/json").
		SetBody(`{"hospital":"City Hospital","units":2}`).
		Post(env.server.URL + "/api/requests")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode())
}

func TestPostApirequestsValidation(t *testing.T) {
	env := setupTestRouter(t, withMockAuth(true))
	defer env.server.Close()

	tests := []struct {
		name string
		body string
	}{
		{name: "missing hospital", body: `{"units":2}`},
		{name: "zero units", body: `{"hospital":"City Hospital","units":0}`},
		{name: "negative units", body: `{"hospital":"City Hospital","units":-1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := resty.New().R().
				SetHeader("Content-Type", "application/json").
				SetBody(tt.body).
				Post(env.server.URL + "/api/requests")
			require.NoError(t, err)
			assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode())
			assert.Contains(t, resp.String(), models.ErrValidation.Error())
		})
	}
}

func TestGetPing(t *testing.T) {
	env := setupTestRouter(t)
	defer env.server.Close()

	resp, err := resty.New().R().Get(env.server.URL + "/ping")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
}

func TestGetApiinternalstats(t *testing.T) {
	t.Run("no trusted subnet configured", func(t *testing.T) {
		env := setupTestRouter(t)
		defer env.server.Close()

		resp, err := resty.New().R().Get(env.server.URL + "/api/internal/stats")
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode())
	})

	t.Run("caller inside the subnet", func(t *testing.T) {
		env := setupTestRouter(t, withTrustedSubnet("192.168.1.0/24"))
		defer env.server.Close()

		registerViaAPI(t, env, "1112223333")

		var stats models.InternalStats
		resp, err := resty.New().R().
			SetHeader("X-Real-IP", "192.168.1.50").
			SetResult(&stats).
			Get(env.server.URL + "/api/internal/stats")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode())
		assert.Equal(t, int64(1), stats.Users)
	})

	t.Run("caller outside the subnet", func(t *testing.T) {
		env := setupTestRouter(t, withTrustedSubnet("192.168.1.0/24"))
		defer env.server.Close()

		resp, err := resty.New().R().
			SetHeader("X-Real-IP", "10.0.0.1").
			Get(env.server.URL + "/api/internal/stats")
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode())
	})
}

func TestAppSurface(t *testing.T) {
	env := setupTestRouter(t)
	defer env.server.Close()

	t.Run("initial view is the splash", func(t *testing.T) {
		var view models.ViewResponse
		resp, err := resty.New().R().
			SetResult(&view).
			Get(env.server.URL + "/app/view")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode())
		assert.Equal(t, "splash", view.View)
		assert.Contains(t, view.Fragment, "Every drop counts")
	})

	t.Run("navigation action switches the view", func(t *testing.T) {
		var view models.ViewResponse
		resp, err := resty.New().R().
			SetHeader("Content-Type", "application/json").
			SetBody(`{"action":"goto-login"}`).
			SetResult(&view).
			Post(env.server.URL + "/app/action")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode())
		assert.Equal(t, "login", view.View)
		assert.Contains(t, view.Fragment, "Welcome Back")
	})

	t.Run("register action returns a toast", func(t *testing.T) {
		var view models.ViewResponse
		resp, err := resty.New().R().
			SetHeader("Content-Type", "application/json").
			SetBody(`{"action":"submit-register","form":{"name":"Asha","phone":"5556667777","bloodGroup":"O+"}}`).
			SetResult(&view).
			Post(env.server.URL + "/app/action")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode())
		assert.Equal(t, "role-selection", view.View)
		require.NotEmpty(t, view.Toasts)
		assert.Equal(t, "Registration successful!", view.Toasts[0].Message)
	})

	t.Run("missing action name", func(t *testing.T) {
		resp, err := resty.New().R().
			SetHeader("Content-Type", "application/json").
			SetBody(`{"form":{}}`).
			Post(env.server.URL + "/app/action")
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode())
		assert.Contains(t, resp.String(), models.ErrValidation.Error())
	})
}

func TestStorageErrorsSurfaceAsInternalErrors(t *testing.T) {
	db := new(mockstore.StorageMock)
	env := setupTestRouter(t, withMockAuth(true), withMockStorage(db))
	defer env.server.Close()

	db.On("ListRequests", mock.Anything).
		Return([]models.Request(nil), errors.New("db error"))

	resp, err := resty.New().R().Get(env.server.URL + "/api/requests")
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode())

	db.On("Ping", mock.Anything).Return(errors.New("db error"))

	resp, err = resty.New().R().Get(env.server.URL + "/ping")
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode())

	db.AssertExpectations(t)
}
