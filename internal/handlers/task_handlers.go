package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"wwtpDashboard/internal/handlers/dto"
	"wwtpDashboard/internal/logger"
	"wwtpDashboard/internal/spreadsheet"

	"go.uber.org/zap"
)

const (
	maxJSONBody   = 1 << 20
	maxUploadBody = 32 << 20
)

type TaskHandler struct {
	TaskService TaskService
}

func NewTaskHandler(taskService TaskService) *TaskHandler {
	return &TaskHandler{
		TaskService: taskService,
	}
}

func (h *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP: Health check")

	healthCheck(w, h.TaskService.HealthCheck(r.Context()))
}

func (h *TaskHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	tasks, err := h.TaskService.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err, "list_tasks")
		return
	}

	logger.Info("HTTP_OUT: tasks listed",
		zap.Int("count", len(tasks)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) PostTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if !checkContentType(r, "application/json") {
		logger.Warn("HTTP: wrong content type",
			zap.String("expected", "application/json"),
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}

	var request dto.CreateTaskRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&request); err != nil {
		logger.Warn("HTTP: failed to decode JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.TaskService.Create(r.Context(), request.ToInput())
	if err != nil {
		handleServiceError(w, r, err, "create_task")
		return
	}

	logger.Info("HTTP_OUT: task created",
		zap.Int64("task_id", created.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithJSON(w, http.StatusCreated, created)
}

func (h *TaskHandler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := parseID(r)
	if !ok {
		logger.Warn("HTTP: invalid id", zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "id must be a positive integer")
		return
	}

	t, err := h.TaskService.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err, "get_task")
		return
	}

	logger.Info("HTTP_OUT: task fetched",
		zap.Int64("task_id", id),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, t)
}

// UpdateTaskByID answers with the stored task, or null when no task has
// the id.
func (h *TaskHandler) UpdateTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := parseID(r)
	if !ok {
		logger.Warn("HTTP: invalid id", zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "id must be a positive integer")
		return
	}

	if !checkContentType(r, "application/json") {
		logger.Warn("HTTP: wrong content type",
			zap.String("expected", "application/json"),
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}

	var request dto.UpdateTaskRequest
	defer r.Body.Close()
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&request); err != nil {
		logger.Warn("HTTP: failed to decode JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.TaskService.Update(r.Context(), id, request.ToInput())
	if err != nil {
		handleServiceError(w, r, err, "update_task")
		return
	}

	logger.Info("HTTP_OUT: task updated",
		zap.Int64("task_id", id),
		zap.Bool("found", updated != nil),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, updated)
}

func (h *TaskHandler) DeleteTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := parseID(r)
	if !ok {
		logger.Warn("HTTP: invalid id", zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "id must be a positive integer")
		return
	}

	if err := h.TaskService.Delete(r.Context(), id); err != nil {
		handleServiceError(w, r, err, "delete_task")
		return
	}

	logger.Info("HTTP_OUT: task deleted",
		zap.Int64("task_id", id),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, dto.DeleteResponse{OK: true})
}

// ImportTasks accepts a JSON array of records or a multipart upload with
// an xlsx workbook in the "file" field.
func (h *TaskHandler) ImportTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	var records []map[string]any
	switch {
	case checkContentType(r, "application/json"):
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUploadBody)).Decode(&records); err != nil {
			logger.Warn("HTTP: failed to decode JSON",
				zap.Error(err),
				zap.String("client_ip", r.RemoteAddr))

			responseWithError(w, http.StatusBadRequest, "expected a JSON array of records")
			return
		}

	case checkContentType(r, "multipart/form-data"):
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
		file, _, err := r.FormFile("file")
		if err != nil {
			logger.Warn("HTTP: missing upload", zap.Error(err), zap.String("client_ip", r.RemoteAddr))
			responseWithError(w, http.StatusBadRequest, "expected an xlsx file in field 'file'")
			return
		}
		defer file.Close()

		records, err = spreadsheet.ReadRecords(file)
		if err != nil {
			logger.Warn("HTTP: unreadable workbook", zap.Error(err), zap.String("client_ip", r.RemoteAddr))
			responseWithError(w, http.StatusBadRequest, "could not read workbook")
			return
		}

	default:
		logger.Warn("HTTP: wrong content type",
			zap.String("expected", "application/json or multipart/form-data"),
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json or multipart/form-data")
		return
	}

	inserted, err := h.TaskService.Import(r.Context(), records)
	if err != nil {
		handleServiceError(w, r, err, "import_tasks")
		return
	}

	logger.Info("HTTP_OUT: tasks imported",
		zap.Int("records", len(records)),
		zap.Int("inserted", inserted),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, dto.ImportResponse{Success: true, Inserted: inserted})
}

func (h *TaskHandler) GetUpcoming(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	items, err := h.TaskService.Upcoming(r.Context())
	if err != nil {
		handleServiceError(w, r, err, "upcoming_tasks")
		return
	}

	logger.Info("HTTP_OUT: notifications listed",
		zap.Int("count", len(items)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, items)
}
