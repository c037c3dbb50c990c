// Package controller implements the client-side application state machine:
// it holds the current view and a cached snapshot of the session user,
// routes user actions to the record store, and selects the next view.
// Every store failure is caught at the dispatch boundary and surfaced as a
// transient notification, so no action fails past the controller.
package controller

import (
	"context"
	"strconv"
	"time"

	"github.com/venkatnanaji21/Life-line-blood/internal/logger"
	"github.com/venkatnanaji21/Life-line-blood/internal/models"
	"github.com/venkatnanaji21/Life-line-blood/internal/service"
)

// View is a named UI mode the controller can render.
type View string

// The fixed set of views. Splash is transient and time-boxed; it dismisses
// itself into either login or home depending on session presence.
const (
	ViewSplash        View = "splash"
	ViewLogin         View = "login"
	ViewRegister      View = "register"
	ViewRoleSelection View = "role-selection"
	ViewHome          View = "home"
	ViewRequests      View = "requests"
	ViewProfile       View = "profile"
)

// Action is a user-triggered event routed through Dispatch.
type Action string

// The action dispatch table of the client.
const (
	ActionGotoRegister   Action = "goto-register"
	ActionGotoLogin      Action = "goto-login"
	ActionGotoHome       Action = "goto-home"
	ActionGotoRequests   Action = "goto-requests"
	ActionGotoProfile    Action = "goto-profile"
	ActionSubmitLogin    Action = "submit-login"
	ActionSubmitRegister Action = "submit-register"
	ActionSelectRole     Action = "select-role"
	ActionLogout         Action = "logout"
	ActionRaiseRequest   Action = "raise-request"
	ActionAcceptRequest  Action = "accept-request"
)

// Notifier is the toast surface: it accepts a message and a severity
// ("info", "success", or "error").
type Notifier interface {
	Notify(message, severity string)
}

type recordStoreService interface {
	RegisterUser(ctx context.Context, data service.RegisterData) (*models.User, error)

	LoginUser(ctx context.Context, phone, otp string) (*models.User, error)

	GetCurrentUser(ctx context.Context) (*models.User, bool, error)

	UpdateUser(ctx context.Context, patch models.UserPatch) (*models.User, error)

	Logout(ctx context.Context) error

	CreateRequest(ctx context.Context, data service.RequestData) (*models.Request, error)

	UpdateRequestStatus(
		ctx context.Context,
		requestID string,
		status models.RequestStatus,
		donorID string,
	) (*models.Request, bool, error)
}

type alertEnqueuer interface {
	EnqueueJob(job *models.DonorAlertJob)
}

// Controller is the application state machine. It is single-threaded by
// design: it is reentered only by discrete user events and the one startup
// timer, so it carries no locking.
type Controller struct {
	svc         recordStoreService
	notifier    Notifier
	alerts      alertEnqueuer
	splashDelay time.Duration

	currentView View
	user        *models.User
}

// New returns a Controller parked on the splash view.
func New(
	svc recordStoreService,
	notifier Notifier,
	alerts alertEnqueuer,
	splashDelay time.Duration,
) *Controller {
	return &Controller{
		svc:         svc,
		notifier:    notifier,
		alerts:      alerts,
		splashDelay: splashDelay,
		currentView: ViewSplash,
	}
}

// CurrentView returns the view the controller would render now.
func (c *Controller) CurrentView() View {
	return c.currentView
}

// User returns the cached session user snapshot, or nil.
func (c *Controller) User() *models.User {
	return c.user
}

// Start loads the session snapshot and schedules the splash dismissal
// after the fixed delay. The timer is not cancellable once scheduled; it
// is the only time-based transition in the system.
func (c *Controller) Start(ctx context.Context) {
	usr, found, err := c.svc.GetCurrentUser(ctx)
	if err != nil {
		logger.Log.Debugln("Error calling the `c.svc.GetCurrentUser()`:", err)
	}
	if found {
		c.user = usr
	}

	time.AfterFunc(c.splashDelay, func() {
		c.DismissSplash()
	})
}

// DismissSplash leaves the splash view: home when a session user exists,
// login otherwise. A no-op once the splash is gone.
func (c *Controller) DismissSplash() {
	if c.currentView != ViewSplash {
		return
	}
	if c.user != nil {
		c.currentView = ViewHome
	} else {
		c.currentView = ViewLogin
	}
}

// Dispatch routes a user action. Form fields are keyed the way the client
// forms name them (phone, otp, name, bloodGroup, role, hospital, units,
// requestId). The returned view is the one to render next; failures leave
// the view unchanged and surface through the notifier.
func (c *Controller) Dispatch(ctx context.Context, action Action, form map[string]string) View {
	switch action {
	case ActionGotoRegister:
		c.currentView = ViewRegister

	case ActionGotoLogin:
		c.currentView = ViewLogin

	case ActionGotoHome:
		c.currentView = ViewHome

	case ActionGotoRequests:
		c.currentView = ViewRequests

	case ActionGotoProfile:
		c.currentView = ViewProfile

	case ActionSubmitLogin:
		c.submitLogin(ctx, form)

	case ActionSubmitRegister:
		c.submitRegister(ctx, form)

	case ActionSelectRole:
		c.selectRole(ctx, form)

	case ActionLogout:
		c.logout(ctx)

	case ActionRaiseRequest:
		c.raiseRequest(ctx, form)

	case ActionAcceptRequest:
		c.acceptRequest(ctx, form)

	default:
		logger.Log.Debugln("unknown action:", string(action))
	}

	return c.currentView
}

func (c *Controller) submitLogin(ctx context.Context, form map[string]string) {
	usr, err := c.svc.LoginUser(ctx, form["phone"], form["otp"])
	if err != nil {
		c.notifier.Notify(err.Error(), "error")
		return
	}

	c.user = usr
	c.currentView = ViewHome
	c.notifier.Notify("Welcome back, "+usr.Name+"!", "success")
}

func (c *Controller) submitRegister(ctx context.Context, form map[string]string) {
	name := form["name"]
	phone := form["phone"]
	bloodGroup := models.BloodGroup(form["bloodGroup"])

	if name == "" || phone == "" || !bloodGroup.IsValid() {
		c.notifier.Notify("Please fill all fields", "error")
		return
	}

	usr, err := c.svc.RegisterUser(ctx, service.RegisterData{
		Name:       name,
		Phone:      phone,
		BloodGroup: bloodGroup,
		// The role stays provisional until the role-selection step.
		Role: models.RoleDonor,
	})
	if err != nil {
		c.notifier.Notify(err.Error(), "error")
		return
	}

	c.user = usr
	c.currentView = ViewRoleSelection
	c.notifier.Notify("Registration successful!", "success")
}

func (c *Controller) selectRole(ctx context.Context, form map[string]string) {
	role := models.Role(form["role"])
	if role == "" || !role.IsValid() {
		c.notifier.Notify("Please choose a role", "error")
		return
	}

	usr, err := c.svc.UpdateUser(ctx, models.UserPatch{Role: &role})
	if err != nil {
		c.notifier.Notify(err.Error(), "error")
		return
	}
	if usr != nil {
		c.user = usr
	}

	c.currentView = ViewHome
}

func (c *Controller) logout(ctx context.Context) {
	if err := c.svc.Logout(ctx); err != nil {
		c.notifier.Notify(err.Error(), "error")
		return
	}

	c.user = nil
	c.currentView = ViewLogin
	c.notifier.Notify("Logged out successfully", "info")
}

func (c *Controller) raiseRequest(ctx context.Context, form map[string]string) {
	if c.user == nil {
		c.notifier.Notify("Please log in first", "error")
		return
	}

	hospital := form["hospital"]
	units, err := strconv.Atoi(form["units"])
	if hospital == "" || err != nil || units <= 0 {
		c.notifier.Notify("Please fill all fields", "error")
		return
	}

	location := form["location"]
	if location == "" {
		location = "Current Location"
	}

	req, err := c.svc.CreateRequest(ctx, service.RequestData{
		SeekerName:  c.user.Name,
		SeekerPhone: c.user.Phone,
		BloodGroup:  c.user.BloodGroup,
		Hospital:    hospital,
		Units:       units,
		Location:    location,
	})
	if err != nil {
		c.notifier.Notify(err.Error(), "error")
		return
	}

	c.alerts.EnqueueJob(&models.DonorAlertJob{
		RequestID:  req.ID,
		BloodGroup: req.BloodGroup,
	})
	c.notifier.Notify("Emergency Request Raised! Notifying Donors...", "success")
}

func (c *Controller) acceptRequest(ctx context.Context, form map[string]string) {
	if c.user == nil {
		c.notifier.Notify("Please log in first", "error")
		return
	}

	req, found, err := c.svc.UpdateRequestStatus(
		ctx,
		form["requestId"],
		models.RequestStatusAccepted,
		c.user.ID,
	)
	if err != nil {
		c.notifier.Notify(err.Error(), "error")
		return
	}
	if !found {
		c.notifier.Notify("This request is no longer available", "error")
		return
	}

	c.notifier.Notify("Thank you! The seeker at "+req.Hospital+" has been informed.", "success")
}
