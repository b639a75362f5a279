package handlers

import (
	"mime"
	"net/http"
	"strconv"
	"time"

	"wwtpDashboard/internal/logger"
	"wwtpDashboard/internal/spreadsheet"

	"go.uber.org/zap"
)

type ExportHandler struct {
	ExportService ExportService
}

func NewExportHandler(exportService ExportService) *ExportHandler {
	return &ExportHandler{ExportService: exportService}
}

func (h *ExportHandler) ExportSensors(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	q := r.URL.Query()
	file, err := h.ExportService.Sensors(r.Context(), q.Get("table"), q.Get("start"), q.Get("end"))
	if err != nil {
		handleServiceError(w, r, err, "export_sensors")
		return
	}

	writeAttachment(w, file)
	logger.Info("HTTP_OUT: sensor export sent",
		zap.String("filename", file.Filename),
		zap.Int("bytes", len(file.Data)),
		zap.Duration("ms", time.Since(start)))
}

func (h *ExportHandler) ExportTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	q := r.URL.Query()
	file, err := h.ExportService.Tasks(r.Context(), q.Get("start"), q.Get("end"))
	if err != nil {
		handleServiceError(w, r, err, "export_tasks")
		return
	}

	writeAttachment(w, file)
	logger.Info("HTTP_OUT: task export sent",
		zap.String("filename", file.Filename),
		zap.Int("bytes", len(file.Data)),
		zap.Duration("ms", time.Since(start)))
}

func writeAttachment(w http.ResponseWriter, file *spreadsheet.File) {
	w.Header().Set("Content-Type", spreadsheet.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Data); err != nil {
		logger.Warn("HTTP: failed to write attachment", zap.Error(err))
	}
}
