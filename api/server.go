/*
server.go - HTTP router and middleware configuration

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request, echoed in request logs
  2. RealIP
  3. Logger:     zap request log (warn >= 400, error >= 500)
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS

ROUTES (all under /api/tenants/{tenantID}):
  /shifts          List, create, get, patch, retire, suggest
  /staff-shifts    Assign, bulk assign, list, check-in, check-out, correct
  /attendances     Record, update, list, get, calculate (preview)
  /salaries        Upsert and read per staff member
  /settings        Read (with defaults) and upsert
  /periods         Create, reschedule, finalize, calculate, details, export
  /details         Read, bonus, deduction, pay, adjustment history

SECURITY NOTE:
  No authentication middleware. Tenant isolation relies on the tenantID
  path segment; put the service behind an authenticating gateway.

SEE ALSO:
  - handlers.go: Handler construction and shift endpoints
  - payroll.go:  Payroll endpoints
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// NewRouter creates a router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(h.log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Actor"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/tenants/{tenantID}", func(r chi.Router) {
		r.Route("/shifts", func(r chi.Router) {
			r.Get("/", h.ListShifts)
			r.Post("/", h.CreateShift)
			r.Post("/suggest", h.SuggestShift)
			r.Get("/{shiftID}", h.GetShift)
			r.Patch("/{shiftID}", h.UpdateShift)
			r.Delete("/{shiftID}", h.RetireShift)
		})

		r.Route("/staff-shifts", func(r chi.Router) {
			r.Get("/", h.ListAssignments)
			r.Post("/", h.AssignShift)
			r.Post("/bulk", h.AssignShiftsBulk)
			r.Get("/{assignmentID}", h.GetAssignment)
			r.Post("/{assignmentID}/check-in", h.CheckIn)
			r.Post("/{assignmentID}/check-out", h.CheckOut)
			r.Post("/{assignmentID}/correct", h.CorrectAssignment)
		})

		r.Route("/attendances", func(r chi.Router) {
			r.Get("/", h.ListAttendance)
			r.Post("/", h.RecordAttendance)
			r.Post("/calculate", h.CalculateAttendance)
			r.Get("/{attendanceID}", h.GetAttendance)
			r.Put("/{attendanceID}", h.UpdateAttendance)
		})

		r.Route("/salaries", func(r chi.Router) {
			r.Get("/", h.ListSalaries)
			r.Get("/{staffID}", h.GetSalary)
			r.Put("/{staffID}", h.PutSalary)
		})

		r.Get("/settings", h.GetSetting)
		r.Put("/settings", h.PutSetting)

		r.Route("/periods", func(r chi.Router) {
			r.Get("/", h.ListPeriods)
			r.Post("/", h.CreatePeriod)
			r.Get("/{periodID}", h.GetPeriod)
			r.Put("/{periodID}", h.ReschedulePeriod)
			r.Post("/{periodID}/finalize", h.FinalizePeriod)
			r.Post("/{periodID}/calculate", h.CalculatePeriod)
			r.Get("/{periodID}/details", h.ListDetails)
			r.Get("/{periodID}/export.xlsx", h.ExportPeriod)
		})

		r.Route("/details/{detailID}", func(r chi.Router) {
			r.Get("/", h.GetDetail)
			r.Post("/bonus", h.AddBonus)
			r.Post("/deduction", h.AddDeduction)
			r.Post("/pay", h.PayDetail)
			r.Get("/adjustments", h.ListAdjustments)
		})
	})

	return r
}

// RequestLogger logs one line per request at a level chosen by status.
func RequestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			fields := []zap.Field{
				zap.Int("status", ww.Status()),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("query", r.URL.RawQuery),
				zap.String("ip", r.RemoteAddr),
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("latency", time.Since(start)),
			}
			switch status := ww.Status(); {
			case status >= 500:
				log.Error("request failed", fields...)
			case status >= 400:
				log.Warn("request rejected", fields...)
			default:
				log.Info("request completed", fields...)
			}
		})
	}
}
