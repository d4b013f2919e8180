package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/tracker/internal/domain/entities"
	"github.com/taskmaster/tracker/internal/infrastructure/logger"
	"github.com/taskmaster/tracker/internal/ports"
)

const userContextKey = "user"

// SetCurrentUser stores the authenticated user on the request context
func SetCurrentUser(c echo.Context, user *entities.User) {
	c.Set(userContextKey, user)
}

// CurrentUser returns the authenticated user, or nil
func CurrentUser(c echo.Context) *entities.User {
	user, _ := c.Get(userContextKey).(*entities.User)
	return user
}

// UserHandler handles user-related requests
type UserHandler struct {
	userService ports.UserService
	logger      *logger.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService ports.UserService, logger *logger.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger.WithComponent("user_handler"),
	}
}

// GetCurrentUser handles getting current user info
func (h *UserHandler) GetCurrentUser(c echo.Context) error {
	user := CurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}

	return c.JSON(http.StatusOK, user)
}

// ListUsers handles listing users
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.userService.ListUsers(c.Request().Context())
	if err != nil {
		h.logger.Errorw("List users failed", "error", err)
		return echo.NewHTTPError(http.StatusServiceUnavailable, ErrorResponse{Error: "Failed to retrieve users"})
	}

	return c.JSON(http.StatusOK, ListResponse[*entities.User]{Data: users, Total: len(users)})
}

// GetUser handles looking up one user by code
func (h *UserHandler) GetUser(c echo.Context) error {
	code, err := strconv.Atoi(c.Param("code"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user code")
	}

	user, err := h.userService.GetUser(c.Request().Context(), code)
	switch {
	case errors.Is(err, entities.ErrUserNotFound):
		return echo.NewHTTPError(http.StatusNotFound, ErrorResponse{Error: "User not found"})
	case err != nil:
		h.logger.Errorw("Get user failed", "error", err, "user_code", code)
		return echo.NewHTTPError(http.StatusServiceUnavailable, ErrorResponse{Error: "Failed to retrieve user"})
	}

	return c.JSON(http.StatusOK, user)
}

// TaskHandler handles task-related requests
type TaskHandler struct {
	taskService ports.TaskService
	logger      *logger.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService ports.TaskService, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		logger:      logger.WithComponent("task_handler"),
	}
}

// ListTasks handles listing every task
func (h *TaskHandler) ListTasks(c echo.Context) error {
	views, err := h.taskService.ListAll(c.Request().Context(), CurrentUser(c))
	if err != nil {
		return h.toHTTPError(err, "Failed to retrieve tasks")
	}

	return c.JSON(http.StatusOK, ListResponse[ports.TaskView]{Data: views, Total: len(views)})
}

// CreateTask handles task creation
func (h *TaskHandler) CreateTask(c echo.Context) error {
	var req ports.CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := h.taskService.Create(c.Request().Context(), req, CurrentUser(c)); err != nil {
		return h.toHTTPError(err, "Failed to create task")
	}

	return c.JSON(http.StatusCreated, MessageResponse{Message: "Task created"})
}

// ChangeStatus handles advancing a task's status
func (h *TaskHandler) ChangeStatus(c echo.Context) error {
	code, err := taskCodeParam(c)
	if err != nil {
		return err
	}

	var body StatusRequest
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	req := ports.ChangeStatusRequest{Code: code, Status: body.Status}
	if err := h.taskService.ChangeStatus(c.Request().Context(), req, CurrentUser(c)); err != nil {
		return h.toHTTPError(err, "Failed to change task status")
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "Status changed"})
}

// GetHistory handles listing the change log of one task
func (h *TaskHandler) GetHistory(c echo.Context) error {
	code, err := taskCodeParam(c)
	if err != nil {
		return err
	}

	entries, err := h.taskService.History(c.Request().Context(), code)
	if err != nil {
		return h.toHTTPError(err, "Failed to retrieve history")
	}

	data := make([]LogEntryResponse, 0, len(entries))
	for _, e := range entries {
		data = append(data, LogEntryResponse{
			TaskCode:       e.TaskCode,
			ChangeUserCode: e.ChangeUserCode,
			Status:         e.Status,
			StatusLabel:    e.Status.Label(),
			ChangeDate:     e.ChangeDate.Format(entities.DateLayout),
		})
	}

	return c.JSON(http.StatusOK, ListResponse[LogEntryResponse]{Data: data, Total: len(data)})
}

// DeleteTask handles task deletion, which the record files do not support
func (h *TaskHandler) DeleteTask(c echo.Context) error {
	code, err := taskCodeParam(c)
	if err != nil {
		return err
	}

	if err := h.taskService.Delete(c.Request().Context(), code); err != nil {
		return h.toHTTPError(err, "Failed to delete task")
	}

	return c.NoContent(http.StatusNoContent)
}

// toHTTPError maps service errors to responses
func (h *TaskHandler) toHTTPError(err error, fallback string) error {
	var ve *entities.ValidationError
	switch {
	case errors.As(err, &ve):
		return echo.NewHTTPError(http.StatusBadRequest, ErrorResponse{Error: ve.Message, Field: ve.Field})
	case errors.Is(err, entities.ErrUnauthorized):
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	case errors.Is(err, entities.ErrOperationNotSupported):
		return echo.NewHTTPError(http.StatusNotImplemented, ErrorResponse{Error: err.Error()})
	case ports.IsStorageError(err):
		h.logger.Errorw(fallback, "error", err)
		return echo.NewHTTPError(http.StatusServiceUnavailable, ErrorResponse{Error: fallback})
	default:
		h.logger.Errorw(fallback, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, ErrorResponse{Error: fallback})
	}
}

func taskCodeParam(c echo.Context) (int, error) {
	code, err := strconv.Atoi(c.Param("code"))
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid task code")
	}
	return code, nil
}

// Request/Response types

type StatusRequest struct {
	Status entities.TaskStatus `json:"status"`
}

type LogEntryResponse struct {
	TaskCode       int                 `json:"task_code"`
	ChangeUserCode int                 `json:"change_user_code"`
	Status         entities.TaskStatus `json:"status"`
	StatusLabel    string              `json:"status_label"`
	ChangeDate     string              `json:"change_date"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

type ListResponse[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
}
