package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/taskpad/taskpad-go/internal/middleware"
	"github.com/taskpad/taskpad-go/internal/model"
	"github.com/taskpad/taskpad-go/internal/service"
)

// TaskHandler handles HTTP requests for task operations. The acting user
// comes from the request context, set by either JWTAuth or GuestIdentity.
type TaskHandler struct {
	service *service.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(svc *service.TaskService) *TaskHandler {
	return &TaskHandler{service: svc}
}

// Routes mounts the task endpoints on r.
func (h *TaskHandler) Routes(r chi.Router) {
	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	r.Delete("/completed", h.HandleDeleteCompleted)
	r.Get("/calendar", h.HandleCalendar)
	r.Get("/overdue", h.HandleOverdue)
	r.Get("/today", h.HandleToday)
	r.Put("/{id}", h.HandleUpdateText)
	r.Patch("/{id}/toggle", h.HandleToggle)
	r.Patch("/{id}/due-date", h.HandleUpdateDueDate)
	r.Delete("/{id}", h.HandleDelete)
}

// HandleList handles GET /tasks requests.
func (h *TaskHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	tasks, err := h.service.ListTasks(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tasks)
}

// HandleCreate handles POST /tasks requests.
func (h *TaskHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.CreateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	task, err := h.service.CreateTask(r.Context(), userID, req.Text, req.DueDate)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

// HandleToggle handles PATCH /tasks/{id}/toggle requests.
func (h *TaskHandler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := requireUserAndTask(w, r)
	if !ok {
		return
	}

	task, err := h.service.ToggleStatus(r.Context(), taskID, userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// HandleUpdateText handles PUT /tasks/{id} requests.
func (h *TaskHandler) HandleUpdateText(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := requireUserAndTask(w, r)
	if !ok {
		return
	}

	var req model.UpdateTaskTextRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	task, err := h.service.UpdateText(r.Context(), taskID, userID, req.Text)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// HandleUpdateDueDate handles PATCH /tasks/{id}/due-date requests.
func (h *TaskHandler) HandleUpdateDueDate(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := requireUserAndTask(w, r)
	if !ok {
		return
	}

	var req model.UpdateDueDateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	task, err := h.service.UpdateDueDate(r.Context(), taskID, userID, req.DueDate)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// HandleDelete handles DELETE /tasks/{id} requests.
func (h *TaskHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := requireUserAndTask(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteTask(r.Context(), taskID, userID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleDeleteCompleted handles DELETE /tasks/completed requests.
func (h *TaskHandler) HandleDeleteCompleted(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	n, err := h.service.DeleteCompleted(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, model.DeleteCompletedResponse{Deleted: n})
}

// HandleCalendar handles GET /tasks/calendar?start=&end= requests.
func (h *TaskHandler) HandleCalendar(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	tasks, err := h.service.TasksDueBetween(r.Context(), userID, q.Get("start"), q.Get("end"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tasks)
}

// HandleOverdue handles GET /tasks/overdue requests.
func (h *TaskHandler) HandleOverdue(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	tasks, err := h.service.OverdueTasks(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tasks)
}

// HandleToday handles GET /tasks/today requests.
func (h *TaskHandler) HandleToday(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	tasks, err := h.service.TodayTasks(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tasks)
}

func requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return 0, false
	}
	return userID, true
}

func requireUserAndTask(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	userID, ok := requireUser(w, r)
	if !ok {
		return 0, 0, false
	}

	taskID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || taskID <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid task id"))
		return 0, 0, false
	}
	return userID, taskID, true
}
