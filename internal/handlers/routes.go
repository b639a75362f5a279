package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type Handlers struct {
	Tasks   *TaskHandler
	Sensors *SensorHandler
	Exports *ExportHandler
}

// NewRouter mounts the REST surface behind the given middleware chain.
func NewRouter(h Handlers, middlewares ...func(http.Handler) http.Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middlewares...)

	r.Get("/health", h.Tasks.HealthCheck)

	r.Route("/sensors", func(r chi.Router) {
		r.Get("/latest", h.Sensors.GetLatest)     // GET /sensors/latest?table=&agoHours=
		r.Get("/series", h.Sensors.GetSeries)     // GET /sensors/series?table=&start=&end=
		r.Get("/recent", h.Sensors.GetRecent)     // GET /sensors/recent?table=&limit=
		r.Get("/export", h.Exports.ExportSensors) // GET /sensors/export?table=&start=&end=
	})

	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", h.Tasks.GetTasks)
		r.Post("/", h.Tasks.PostTask)
		r.Get("/export", h.Exports.ExportTasks)
		r.Post("/import", h.Tasks.ImportTasks)
		r.Get("/upcoming", h.Tasks.GetUpcoming)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Tasks.GetTaskByID)
			r.Put("/", h.Tasks.UpdateTaskByID)
			r.Delete("/", h.Tasks.DeleteTaskByID)
		})
	})

	return r
}
