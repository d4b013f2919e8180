package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/tracker/internal/domain/entities"
	"github.com/taskmaster/tracker/internal/infrastructure/logger"
	"github.com/taskmaster/tracker/internal/ports"
)

type stubTaskService struct {
	err     error
	got     ports.ChangeStatusRequest
	gotUser *entities.User
}

func (s *stubTaskService) ListAll(ctx context.Context, currentUser *entities.User) ([]ports.TaskView, error) {
	return nil, s.err
}

func (s *stubTaskService) Create(ctx context.Context, req ports.CreateTaskRequest, currentUser *entities.User) error {
	return s.err
}

func (s *stubTaskService) ChangeStatus(ctx context.Context, req ports.ChangeStatusRequest, currentUser *entities.User) error {
	s.got = req
	s.gotUser = currentUser
	return s.err
}

func (s *stubTaskService) History(ctx context.Context, code int) ([]*entities.LogEntry, error) {
	return nil, s.err
}

func (s *stubTaskService) Delete(ctx context.Context, code int) error {
	return entities.ErrOperationNotSupported
}

type stubUserService struct {
	users map[int]*entities.User
	err   error
}

func (s *stubUserService) ListUsers(ctx context.Context) ([]*entities.User, error) {
	return nil, s.err
}

func (s *stubUserService) GetUser(ctx context.Context, code int) (*entities.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if u, ok := s.users[code]; ok {
		return u, nil
	}
	return nil, entities.ErrUserNotFound
}

func serve(h echo.HandlerFunc, method, target, body string, user *entities.User, params ...string) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if len(params) > 0 {
		c.SetParamNames(params[0])
		c.SetParamValues(params[1])
	}
	if user != nil {
		SetCurrentUser(c, user)
	}
	return rec, h(c)
}

func httpCode(t *testing.T, err error) int {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	return he.Code
}

func TestTaskHandler_ChangeStatusPassesPathAndUser(t *testing.T) {
	svc := &stubTaskService{}
	h := NewTaskHandler(svc, logger.NewNop())
	user := &entities.User{Code: 2, Name: "Tanaka"}

	rec, err := serve(h.ChangeStatus, http.MethodPatch, "/api/v1/tasks/5/status", `{"status":2}`, user, "code", "5")
	if err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if svc.got.Code != 5 || svc.got.Status != entities.TaskStatusDone || svc.gotUser != user {
		t.Fatalf("unexpected call %+v by %+v", svc.got, svc.gotUser)
	}
}

func TestTaskHandler_ChangeStatusNegativeCode(t *testing.T) {
	svc := &stubTaskService{}
	h := NewTaskHandler(svc, logger.NewNop())

	rec, err := serve(h.ChangeStatus, http.MethodPatch, "/api/v1/tasks/-1/status", `{"status":1}`, &entities.User{Code: 1}, "code", "-1")
	if err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}
	if rec.Code != http.StatusOK || svc.got.Code != -1 {
		t.Fatalf("status = %d, call %+v", rec.Code, svc.got)
	}
}

func TestTaskHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", entities.NewValidationError("code", entities.MsgUnknownTask), http.StatusBadRequest},
		{"unauthorized", entities.ErrUnauthorized, http.StatusUnauthorized},
		{"storage", &ports.StorageError{Store: "tasks", Op: "update", Err: context.DeadlineExceeded}, http.StatusServiceUnavailable},
		{"other", context.Canceled, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewTaskHandler(&stubTaskService{err: tc.err}, logger.NewNop())
			_, err := serve(h.ChangeStatus, http.MethodPatch, "/api/v1/tasks/1/status", `{"status":1}`, nil, "code", "1")
			if got := httpCode(t, err); got != tc.want {
				t.Fatalf("code = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestTaskHandler_RejectsBadInput(t *testing.T) {
	h := NewTaskHandler(&stubTaskService{}, logger.NewNop())

	_, err := serve(h.GetHistory, http.MethodGet, "/api/v1/tasks/x/history", "", nil, "code", "x")
	if got := httpCode(t, err); got != http.StatusBadRequest {
		t.Fatalf("code = %d, want 400", got)
	}

	_, err = serve(h.CreateTask, http.MethodPost, "/api/v1/tasks", `{"code":`, nil)
	if got := httpCode(t, err); got != http.StatusBadRequest {
		t.Fatalf("code = %d, want 400", got)
	}
}

func TestTaskHandler_DeleteNotImplemented(t *testing.T) {
	h := NewTaskHandler(&stubTaskService{}, logger.NewNop())

	_, err := serve(h.DeleteTask, http.MethodDelete, "/api/v1/tasks/1", "", nil, "code", "1")
	if got := httpCode(t, err); got != http.StatusNotImplemented {
		t.Fatalf("code = %d, want 501", got)
	}
}

func TestUserHandler_GetUser(t *testing.T) {
	svc := &stubUserService{users: map[int]*entities.User{2: {Code: 2, Name: "Tanaka"}}}
	h := NewUserHandler(svc, logger.NewNop())

	rec, err := serve(h.GetUser, http.MethodGet, "/api/v1/users/2", "", nil, "code", "2")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"name":"Tanaka"`) {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}

	_, err = serve(h.GetUser, http.MethodGet, "/api/v1/users/9", "", nil, "code", "9")
	if got := httpCode(t, err); got != http.StatusNotFound {
		t.Fatalf("code = %d, want 404", got)
	}

	_, err = serve(h.GetUser, http.MethodGet, "/api/v1/users/x", "", nil, "code", "x")
	if got := httpCode(t, err); got != http.StatusBadRequest {
		t.Fatalf("code = %d, want 400", got)
	}

	svc.err = &ports.StorageError{Store: "users", Op: "read", Err: context.DeadlineExceeded}
	_, err = serve(h.GetUser, http.MethodGet, "/api/v1/users/2", "", nil, "code", "2")
	if got := httpCode(t, err); got != http.StatusServiceUnavailable {
		t.Fatalf("code = %d, want 503", got)
	}
}
