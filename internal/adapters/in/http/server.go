// Package http exposes the dispatch operations over REST. Handlers bind
// and validate request DTOs, translate them into commands and queries,
// and map the error taxonomy onto status codes:
//
//	validation failures    400
//	unknown object         404
//	lost acceptance race   409
//	window expired         410
//	over rate budget       429
//	infrastructure down    503
package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/task"
	"dispatch/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// BroadcastDefaults supplies the base radius and window applied when an
// open-broadcast request leaves them out.
type BroadcastDefaults struct {
	RadiusKm       float64
	Window         time.Duration
	CandidateLimit int
}

// SweepSettings configures the manually triggered sweep endpoint.
type SweepSettings struct {
	Policy     commands.SweepPolicy
	BatchLimit int
}

// Server coordinates between HTTP handlers and application use cases.
type Server struct {
	createTaskHandler     commands.CreateTaskCommandHandler
	openBroadcastHandler  commands.OpenBroadcastCommandHandler
	acceptTaskHandler     commands.AcceptTaskCommandHandler
	sweepHandler          commands.SweepExpiredCommandHandler
	forceCloseHandler     commands.ForceCloseBroadcastCommandHandler
	cancelTaskHandler     commands.CancelTaskCommandHandler
	createCourierHandler  commands.CreateCourierCommandHandler
	reportLocationHandler commands.ReportLocationCommandHandler
	reportProgressHandler commands.ReportProgressCommandHandler

	getOpenBroadcastsHandler queries.GetOpenBroadcastsQueryHandler
	getStatsHandler          queries.GetBroadcastStatsQueryHandler

	broadcastDefaults BroadcastDefaults
	sweepSettings     SweepSettings

	generalLimiter *RateLimiter
	acceptLimiter  *RateLimiter
}

// NewServer creates the HTTP server over the given use case handlers.
// acceptLimiter is keyed per courier; generalLimiter per client IP.
func NewServer(
	createTaskHandler commands.CreateTaskCommandHandler,
	openBroadcastHandler commands.OpenBroadcastCommandHandler,
	acceptTaskHandler commands.AcceptTaskCommandHandler,
	sweepHandler commands.SweepExpiredCommandHandler,
	forceCloseHandler commands.ForceCloseBroadcastCommandHandler,
	cancelTaskHandler commands.CancelTaskCommandHandler,
	createCourierHandler commands.CreateCourierCommandHandler,
	reportLocationHandler commands.ReportLocationCommandHandler,
	reportProgressHandler commands.ReportProgressCommandHandler,
	getOpenBroadcastsHandler queries.GetOpenBroadcastsQueryHandler,
	getStatsHandler queries.GetBroadcastStatsQueryHandler,
	broadcastDefaults BroadcastDefaults,
	sweepSettings SweepSettings,
	generalLimiter *RateLimiter,
	acceptLimiter *RateLimiter,
) *Server {
	return &Server{
		createTaskHandler:        createTaskHandler,
		openBroadcastHandler:     openBroadcastHandler,
		acceptTaskHandler:        acceptTaskHandler,
		sweepHandler:             sweepHandler,
		forceCloseHandler:        forceCloseHandler,
		cancelTaskHandler:        cancelTaskHandler,
		createCourierHandler:     createCourierHandler,
		reportLocationHandler:    reportLocationHandler,
		reportProgressHandler:    reportProgressHandler,
		getOpenBroadcastsHandler: getOpenBroadcastsHandler,
		getStatsHandler:          getStatsHandler,
		broadcastDefaults:        broadcastDefaults,
		sweepSettings:            sweepSettings,
		generalLimiter:           generalLimiter,
		acceptLimiter:            acceptLimiter,
	}
}

// RegisterRoutes wires all endpoints onto the echo instance.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.Validator = NewRequestValidator()

	e.GET("/health", s.Health)

	api := e.Group("/api/v1")
	api.POST("/tasks", s.CreateTask)
	api.POST("/tasks/:id/broadcast", s.OpenBroadcast)
	api.POST("/tasks/:id/accept", s.AcceptTask)
	api.POST("/tasks/:id/force-close", s.ForceCloseBroadcast)
	api.POST("/tasks/:id/cancel", s.CancelTask)
	api.POST("/tasks/:id/progress", s.ReportProgress)

	// Only the poll carries the general budget; an over-polling client
	// must never burn the budget an accept or open needs.
	api.GET("/broadcasts", s.GetOpenBroadcasts, s.generalLimiter.Middleware(courierKey))
	api.POST("/sweep", s.Sweep)
	api.GET("/stats", s.GetStats)
	api.POST("/couriers", s.CreateCourier)
	api.PUT("/couriers/:id/location", s.ReportLocation)
}

// Health handles GET /health.
func (s *Server) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// CreateTask handles POST /api/v1/tasks.
func (s *Server) CreateTask(ctx echo.Context) error {
	var req createTaskRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "invalid request body")
	}
	if err := ctx.Validate(&req); err != nil {
		return err
	}

	pickup, err := req.Pickup.toGeoPoint()
	if err != nil {
		return badRequest(ctx, "pickup: "+err.Error())
	}

	dropoff, err := req.Dropoff.toGeoPoint()
	if err != nil {
		return badRequest(ctx, "dropoff: "+err.Error())
	}

	taskID := kernel.NewUUID()
	cmd, err := commands.NewCreateTaskCommand(taskID, pickup, dropoff, req.FeeCents, req.Priority)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	if err = s.createTaskHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.mapError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, createTaskResponse{TaskID: taskID.String()})
}

// OpenBroadcast handles POST /api/v1/tasks/:id/broadcast.
func (s *Server) OpenBroadcast(ctx echo.Context) error {
	taskID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return badRequest(ctx, "invalid task id")
	}

	var req openBroadcastRequest
	if err = ctx.Bind(&req); err != nil {
		return badRequest(ctx, "invalid request body")
	}
	if err = ctx.Validate(&req); err != nil {
		return err
	}

	radiusKm := req.RadiusKm
	if radiusKm == 0 {
		radiusKm = s.broadcastDefaults.RadiusKm
	}
	window := time.Duration(req.WindowSeconds) * time.Second
	if window == 0 {
		window = s.broadcastDefaults.Window
	}

	cmd, err := commands.NewOpenBroadcastCommand(taskID, radiusKm, window, s.broadcastDefaults.CandidateLimit)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	if err = s.openBroadcastHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.mapError(ctx, err)
	}

	return ctx.NoContent(http.StatusAccepted)
}

// AcceptTask handles POST /api/v1/tasks/:id/accept. The rate budget is
// keyed by the claiming courier, and a throttled claim is rejected before
// it ever reaches the arbiter.
func (s *Server) AcceptTask(ctx echo.Context) error {
	taskID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return badRequest(ctx, "invalid task id")
	}

	var req acceptTaskRequest
	if err = ctx.Bind(&req); err != nil {
		return badRequest(ctx, "invalid request body")
	}
	if err = ctx.Validate(&req); err != nil {
		return err
	}

	courierID, err := kernel.UUIDFromString(req.CourierID)
	if err != nil {
		return badRequest(ctx, "invalid courier id")
	}

	if allowed, retryAfter := s.acceptLimiter.Allow(courierID.String()); !allowed {
		ctx.Response().Header().Set("Retry-After", retryAfterSeconds(retryAfter))
		return ctx.JSON(http.StatusTooManyRequests, errorResponse{
			Code:    http.StatusTooManyRequests,
			Message: "accept rate limit exceeded",
		})
	}

	cmd, err := commands.NewAcceptTaskCommand(taskID, courierID)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	if err = s.acceptTaskHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.mapError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, acceptTaskResponse{
		TaskID:    taskID.String(),
		CourierID: courierID.String(),
		Status:    "assigned",
	})
}

// ForceCloseBroadcast handles POST /api/v1/tasks/:id/force-close.
func (s *Server) ForceCloseBroadcast(ctx echo.Context) error {
	taskID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return badRequest(ctx, "invalid task id")
	}

	cmd, err := commands.NewForceCloseBroadcastCommand(taskID)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	if err = s.forceCloseHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.mapError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// GetOpenBroadcasts handles GET /api/v1/broadcasts, the poll contract.
func (s *Server) GetOpenBroadcasts(ctx echo.Context) error {
	query, err := queries.NewGetOpenBroadcastsQuery(0)
	if err != nil {
		return s.mapError(ctx, err)
	}

	broadcasts, err := s.getOpenBroadcastsHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.mapError(ctx, err)
	}

	response := make([]broadcastView, len(broadcasts))
	for i, b := range broadcasts {
		response[i] = broadcastView{
			TaskID:   b.TaskID.String(),
			Pickup:   latLng{Lat: b.Pickup.Lat(), Lng: b.Pickup.Lng()},
			Dropoff:  latLng{Lat: b.Dropoff.Lat(), Lng: b.Dropoff.Lng()},
			FeeCents: b.FeeCents,
			Priority: b.Priority,
			EndsAt:   b.EndsAt,
		}
	}

	return ctx.JSON(http.StatusOK, response)
}

// Sweep handles POST /api/v1/sweep, the manual sweep trigger.
func (s *Server) Sweep(ctx echo.Context) error {
	cmd, err := commands.NewSweepExpiredCommand(s.sweepSettings.Policy, s.sweepSettings.BatchLimit)
	if err != nil {
		return s.mapError(ctx, err)
	}

	report, err := s.sweepHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.mapError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, sweepResponse{
		Scanned:  report.Scanned,
		Expired:  report.Expired,
		Requeued: report.Requeued,
		Skipped:  report.Skipped,
	})
}

// GetStats handles GET /api/v1/stats. The optional ?since parameter is an
// RFC 3339 timestamp bounding task creation time.
func (s *Server) GetStats(ctx echo.Context) error {
	var since time.Time
	if raw := ctx.QueryParam("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return badRequest(ctx, "invalid since timestamp")
		}
		since = parsed
	}

	stats, err := s.getStatsHandler.Handle(ctx.Request().Context(), queries.NewGetBroadcastStatsQuery(since))
	if err != nil {
		return s.mapError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, statsResponse{
		Broadcasting: stats.Broadcasting,
		Assigned:     stats.Assigned,
		Expired:      stats.Expired,
		Idle:         stats.Idle,
		Completed:    stats.Completed,
	})
}

// CreateCourier handles POST /api/v1/couriers.
func (s *Server) CreateCourier(ctx echo.Context) error {
	var req createCourierRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "invalid request body")
	}
	if err := ctx.Validate(&req); err != nil {
		return err
	}

	courierID := kernel.NewUUID()
	cmd, err := commands.NewCreateCourierCommand(courierID, req.Name)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	if err = s.createCourierHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.mapError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, createCourierResponse{CourierID: courierID.String()})
}

// ReportLocation handles PUT /api/v1/couriers/:id/location.
func (s *Server) ReportLocation(ctx echo.Context) error {
	courierID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return badRequest(ctx, "invalid courier id")
	}

	var req reportLocationRequest
	if err = ctx.Bind(&req); err != nil {
		return badRequest(ctx, "invalid request body")
	}
	if err = ctx.Validate(&req); err != nil {
		return err
	}

	location, err := kernel.NewGeoPoint(req.Lat, req.Lng)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	cmd, err := commands.NewReportLocationCommand(courierID, location)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	if err = s.reportLocationHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.mapError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// CancelTask handles POST /api/v1/tasks/:id/cancel.
func (s *Server) CancelTask(ctx echo.Context) error {
	taskID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return badRequest(ctx, "invalid task id")
	}

	cmd, err := commands.NewCancelTaskCommand(taskID)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	if err = s.cancelTaskHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.mapError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// ReportProgress handles POST /api/v1/tasks/:id/progress.
func (s *Server) ReportProgress(ctx echo.Context) error {
	taskID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return badRequest(ctx, "invalid task id")
	}

	var req reportProgressRequest
	if err = ctx.Bind(&req); err != nil {
		return badRequest(ctx, "invalid request body")
	}
	if err = ctx.Validate(&req); err != nil {
		return err
	}

	courierID, err := kernel.UUIDFromString(req.CourierID)
	if err != nil {
		return badRequest(ctx, "invalid courier id")
	}

	target, err := task.StatusFromString(req.Status)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	cmd, err := commands.NewReportProgressCommand(taskID, courierID, target)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	if err = s.reportProgressHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.mapError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// mapError translates domain errors onto the HTTP status taxonomy.
func (s *Server) mapError(ctx echo.Context, err error) error {
	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		return respond(ctx, http.StatusNotFound, err)
	case errors.Is(err, errs.ErrConflict):
		return respond(ctx, http.StatusConflict, err)
	case errors.Is(err, errs.ErrExpired):
		return respond(ctx, http.StatusGone, err)
	case errors.Is(err, errs.ErrTransientInfra):
		return respond(ctx, http.StatusServiceUnavailable, err)
	case errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsOutOfRange):
		return respond(ctx, http.StatusBadRequest, err)
	default:
		return respond(ctx, http.StatusInternalServerError, err)
	}
}

func respond(ctx echo.Context, code int, err error) error {
	return ctx.JSON(code, errorResponse{Code: code, Message: err.Error()})
}

func badRequest(ctx echo.Context, message string) error {
	return ctx.JSON(http.StatusBadRequest, errorResponse{
		Code:    http.StatusBadRequest,
		Message: message,
	})
}

func retryAfterSeconds(wait time.Duration) string {
	return strconv.Itoa(int(wait.Seconds()) + 1)
}
