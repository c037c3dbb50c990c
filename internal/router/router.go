// Package router wires the HTTP surface: the JSON record-store API, the
// controller-driven app surface that serves view fragments, and the
// service endpoints (ping, internal stats).
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	validator "github.com/go-playground/validator/v10"

	"github.com/venkatnanaji21/Life-line-blood/internal/auth"
	"github.com/venkatnanaji21/Life-line-blood/internal/controller"
	"github.com/venkatnanaji21/Life-line-blood/internal/ipchecker"
	"github.com/venkatnanaji21/Life-line-blood/internal/logger"
	"github.com/venkatnanaji21/Life-line-blood/internal/models"
	"github.com/venkatnanaji21/Life-line-blood/internal/service"
	"github.com/venkatnanaji21/Life-line-blood/internal/toasts"
	"github.com/venkatnanaji21/Life-line-blood/internal/views"
)

const compressionLevel = 5

type recordStore interface {
	RegisterUser(ctx context.Context, data service.RegisterData) (*models.User, error)

	LoginUser(ctx context.Context, phone, otp string) (*models.User, error)

	GetCurrentUser(ctx context.Context) (*models.User, bool, error)

	UpdateUser(ctx context.Context, patch models.UserPatch) (*models.User, error)

	Logout(ctx context.Context) error

	CreateRequest(ctx context.Context, data service.RequestData) (*models.Request, error)

	GetRequests(ctx context.Context) ([]models.Request, error)

	UpdateRequestStatus(
		ctx context.Context,
		requestID string,
		status models.RequestStatus,
		donorID string,
	) (*models.Request, bool, error)

	GetInternalStats(ctx context.Context) (models.InternalStats, error)

	Ping(ctx context.Context) error
}

type authenticator interface {
	AuthenticateUser(h http.Handler) http.Handler
	RequireUser(h http.Handler) http.Handler
	IssueCookie(response http.ResponseWriter, userID string) error
	DropCookie(response http.ResponseWriter)
}

type alertsEnqueuer interface {
	EnqueueJob(job *models.DonorAlertJob)
}

type appController interface {
	CurrentView() controller.View
	User() *models.User
	Dispatch(ctx context.Context, action controller.Action, form map[string]string) controller.View
}

// Router holds the handler dependencies. Handlers are exported so tests
// can mount them individually.
type Router struct {
	svc       recordStore
	ctrl      appController
	views     *views.Renderer
	auth      authenticator
	alerts    alertsEnqueuer
	ipChecker *ipchecker.IPChecker
	toasts    *toasts.Buffer
	validate  *validator.Validate
}

func newValidator() *validator.Validate {
	v := validator.New()
	// Registration failure is only possible for a non-function argument.
	_ = v.RegisterValidation("bloodgroup", func(fieldLevel validator.FieldLevel) bool {
		return models.BloodGroup(fieldLevel.Field().String()).IsValid()
	})

	return v
}

// New assembles the chi mux with logging, compression, and authentication
// middleware around the full route table.
func New(
	svc recordStore,
	ctrl appController,
	viewsRenderer *views.Renderer,
	theAuth authenticator,
	alertsDispatcher alertsEnqueuer,
	ipChecker *ipchecker.IPChecker,
	toastsBuffer *toasts.Buffer,
) *chi.Mux {
	myRouter := &Router{
		svc:       svc,
		ctrl:      ctrl,
		views:     viewsRenderer,
		auth:      theAuth,
		alerts:    alertsDispatcher,
		ipChecker: ipChecker,
		toasts:    toastsBuffer,
		validate:  newValidator(),
	}

	router := chi.NewRouter()
	router.Use(
		logger.WithLoggingHTTPMiddleware,
		chimiddleware.Compress(compressionLevel, "application/json", "text/html"),
		theAuth.AuthenticateUser,
	)

	router.Post(`/api/register`, myRouter.PostApiregister)
	router.Post(`/api/login`, myRouter.PostApilogin)
	router.Post(`/api/logout`, myRouter.PostApilogout)
	router.With(theAuth.RequireUser).Get(`/api/user`, myRouter.GetApiuser)
	router.With(theAuth.RequireUser).Patch(`/api/user`, myRouter.PatchApiuser)
	router.Get(`/api/requests`, myRouter.GetApirequests)
	router.With(theAuth.RequireUser).Post(`/api/requests`, myRouter.PostApirequests)
	router.With(theAuth.RequireUser).Post(`/api/requests/{requestID}/accept`, myRouter.PostApirequestsaccept)
	router.With(theAuth.RequireUser).Post(`/api/requests/{requestID}/complete`, myRouter.PostApirequestscomplete)
	router.Get(`/api/internal/stats`, myRouter.GetApiinternalstats)
	router.Get(`/ping`, myRouter.GetPing)
	router.Get(`/app/view`, myRouter.GetAppview)
	router.Post(`/app/action`, myRouter.PostAppaction)

	return router
}

// validatePayload runs the struct validators and folds a failure into
// models.ErrValidation so callers and tests can match it.
func (r *Router) validatePayload(payload any) error {
	if err := r.validate.Struct(payload); err != nil {
		return fmt.Errorf("%w: %v", models.ErrValidation, err)
	}

	return nil
}

func writeJSON(response http.ResponseWriter, statusCode int, payload any) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(statusCode)
	if err := json.NewEncoder(response).Encode(payload); err != nil {
		logger.Log.Debugln("Error encoding the response payload:", err)
	}
}

// PostApiregister creates a user record and issues the session cookie.
// A taken phone number answers 409.
func (r *Router) PostApiregister(response http.ResponseWriter, request *http.Request) {
	var payload models.RegisterRequest
	if err := json.NewDecoder(request.Body).Decode(&payload); err != nil {
		http.Error(response, err.Error(), http.StatusBadRequest)
		return
	}
	if err := r.validatePayload(payload); err != nil {
		http.Error(response, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	usr, err := r.svc.RegisterUser(request.Context(), service.RegisterData{
		Name:       payload.Name,
		Phone:      payload.Phone,
		BloodGroup: payload.BloodGroup,
		Role:       payload.Role,
	})
	if errors.Is(err, models.ErrDuplicatePhone) {
		http.Error(response, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		http.Error(response, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := r.auth.IssueCookie(response, usr.ID); err != nil {
		http.Error(response, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(response, http.StatusCreated, usr)
}

// PostApilogin authenticates by phone and mock OTP and issues the session
// cookie. A malformed OTP answers 401, an unknown phone 404.
func (r *Router) PostApilogin(response http.ResponseWriter, request *http.Request) {
	var payload models.LoginRequest
	if err := json.NewDecoder(request.Body).Decode(&payload); err != nil {
		http.Error(response, err.Error(), http.StatusBadRequest)
		return
	}
	if err := r.validatePayload(payload); err != nil {
		http.Error(response, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	usr, err := r.svc.LoginUser(request.Context(), payload.Phone, payload.OTP)
	if errors.Is(err, models.ErrInvalidOTP) {
		http.Error(response, err.Error(), http.StatusUnauthorized)
		return
	}
	if errors.Is(err, models.ErrUserNotFound) {
		http.Error(response, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(response, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := r.auth.IssueCookie(response, usr.ID); err != nil {
		http.Error(response, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(response, http.StatusOK, usr)
}

// PostApilogout clears the session pointer and expires the cookie.
func (r *Router) PostApilogout(response http.ResponseWriter, request *http.Request) {
	if err := r.svc.Logout(request.Context()); err != nil {
		http.Error(response, err.Error(), http.StatusInternalServerError)
		return
	}

	r.auth.DropCookie(response)
	response.WriteHeader(http.StatusNoContent)
}

// GetApiuser returns the session user, or 204 when nobody is logged in.
func (r *Router) GetApiuser(response http.ResponseWriter, request *http.Request) {
	usr, found, err := r.svc.GetCurrentUser(request.Context())
	if err != nil {
		http.Error(response, err.Error(), http.StatusInternalServerError)
		return
	}
	if !found {
		response.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(response, http.StatusOK, usr)
}

// PatchApiuser applies a partial update to the session user. Only the
// fixed schema fields are patchable; unknown values answer 422.
func (r *Router) PatchApiuser(response http.ResponseWriter, request *http.Request) {
	var patch models.UserPatch
	if err := json.NewDecoder(request.Body).Decode(&patch); err != nil {
		http.Error(response, err.Error(), http.StatusBadRequest)
		return
	}
	if patch.BloodGroup != nil && !patch.BloodGroup.IsValid() {
		err := fmt.Errorf("%w: unknown blood group", models.ErrValidation)
		http.Error(response, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if patch.Role != nil && !patch.Role.IsValid() {
		err := fmt.Errorf("%w: unknown role", models.ErrValidation)
		http.Error(response, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	usr, err := r.svc.UpdateUser(request.Context(), patch)
	if err != nil {
		http.Error(response, err.Error(), http.StatusInternalServerError)
		return
	}
	if usr == nil {
		response.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(response, http.StatusOK, usr)
}

// GetApirequests lists every request, newest first.
func (r *Router) GetApirequests(response http.ResponseWriter, request *http.Request) {
	requests, err := r.svc.GetRequests(request.Context())
	if err != nil {
		http.Error(response, err.Error(), http.StatusInternalServerError)
		return
	}
	if requests == nil {
		requests = []models.Request{}
	}

	writeJSON(response, http.StatusOK, requests)
}

// PostApirequests raises an emergency request on behalf of the session
// user and enqueues the donor alert job.
func (r *Router) PostApirequests(response http.ResponseWriter, request *http.Request) {
	var payload models.RaiseRequestRequest
	if err := json.NewDecoder(request.Body).Decode(&payload); err != nil {
		http.Error(response, err.Error(), http.StatusBadRequest)
		return
	}
	if err := r.validatePayload(payload); err != nil {
		http.Error(response, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	usr, found, err := r.svc.GetCurrentUser(request.Context())
	if err != nil {
		http.Error(response, err.Error(), http.StatusInternalServerError)
		return
	}
	if !found {
		response.WriteHeader(http.StatusUnauthorized)
		return
	}

	bloodGroup := payload.BloodGroup
	if bloodGroup == "" {
		bloodGroup = usr.BloodGroup
	}
	location := payload.Location
	if location == "" {
		location = "Current Location"
	}

	req, err := r.svc.CreateRequest(request.Context(), service.RequestData{
		SeekerName:  usr.Name,
		SeekerPhone: usr.Phone,
		BloodGroup:  bloodGroup,
		Hospital:    payload.Hospital,
		Units:       payload.Units,
		Location:    location,
	})
	if err != nil {
		http.Error(response, err.Error(), http.StatusInternalServerError)
		return
	}

	r.alerts.EnqueueJob(&models.DonorAlertJob{
		RequestID:  req.ID,
		BloodGroup: req.BloodGroup,
	})

	writeJSON(response, http.StatusCreated, req)
}

// PostApirequestsaccept moves a request to ACCEPTED and records the
// accepting user as the donor.
func (r *Router) PostApirequestsaccept(response http.ResponseWriter, request *http.Request) {
	donorID, _ := request.Context().Value(auth.UserIDKey).(string)
	r.updateRequestStatus(response, request, models.RequestStatusAccepted, donorID)
}

// PostApirequestscomplete moves a request to COMPLETED.
func (r *Router) PostApirequestscomplete(response http.ResponseWriter, request *http.Request) {
	r.updateRequestStatus(response, request, models.RequestStatusCompleted, "")
}

func (r *Router) updateRequestStatus(
	response http.ResponseWriter,
	request *http.Request,
	status models.RequestStatus,
	donorID string,
) {
	requestID := chi.URLParam(request, "requestID")

	req, found, err := r.svc.UpdateRequestStatus(request.Context(), requestID, status, donorID)
	if errors.Is(err, models.ErrInvalidStatusTransition) {
		http.Error(response, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		http.Error(response, err.Error(), http.StatusInternalServerError)
		return
	}
	if !found {
		response.WriteHeader(http.StatusNotFound)
		return
	}

	writeJSON(response, http.StatusOK, req)
}

// GetApiinternalstats reports collection sizes to callers from the
// trusted subnet only.
func (r *Router) GetApiinternalstats(response http.ResponseWriter, request *http.Request) {
	if r.ipChecker.IsTrustedSubnetEmpty() {
		response.WriteHeader(http.StatusForbidden)
		return
	}

	clientIP, err := r.ipChecker.GetClientIP(request)
	if err != nil {
		http.Error(response, err.Error(), http.StatusInternalServerError)
		return
	}
	if !r.ipChecker.Check(clientIP) {
		response.WriteHeader(http.StatusForbidden)
		return
	}

	stats, err := r.svc.GetInternalStats(request.Context())
	if err != nil {
		http.Error(response, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(response, http.StatusOK, stats)
}

// GetPing checks storage health.
func (r *Router) GetPing(response http.ResponseWriter, request *http.Request) {
	if err := r.svc.Ping(request.Context()); err != nil {
		http.Error(response, err.Error(), http.StatusInternalServerError)
		return
	}

	response.WriteHeader(http.StatusOK)
}

// GetAppview renders the controller's current view.
func (r *Router) GetAppview(response http.ResponseWriter, request *http.Request) {
	r.renderView(response, request, r.ctrl.CurrentView())
}

// PostAppaction dispatches a client action through the controller and
// renders the resulting view.
func (r *Router) PostAppaction(response http.ResponseWriter, request *http.Request) {
	var payload models.DispatchActionRequest
	if err := json.NewDecoder(request.Body).Decode(&payload); err != nil {
		http.Error(response, err.Error(), http.StatusBadRequest)
		return
	}
	if err := r.validatePayload(payload); err != nil {
		http.Error(response, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	view := r.ctrl.Dispatch(request.Context(), controller.Action(payload.Action), payload.Form)
	r.renderView(response, request, view)
}

func (r *Router) renderView(response http.ResponseWriter, request *http.Request, view controller.View) {
	data := views.Data{User: r.ctrl.User()}

	if view == controller.ViewRequests {
		requests, err := r.svc.GetRequests(request.Context())
		if err != nil {
			http.Error(response, err.Error(), http.StatusInternalServerError)
			return
		}
		data.Requests = requests
	}

	fragment, err := r.views.Render(string(view), data)
	if err != nil {
		http.Error(response, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(response, http.StatusOK, models.ViewResponse{
		View:     string(view),
		Fragment: fragment,
		Toasts:   r.toasts.Drain(),
	})
}
