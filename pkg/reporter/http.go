package reporter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/operator-framework/usage-reporter/pkg/report"
	"github.com/operator-framework/usage-reporter/pkg/usage"
	"github.com/operator-framework/usage-reporter/pkg/util/slice"
)

const (
	APIV1RunEndpoint          = "/api/v1/run"
	APIV1LatestReportEndpoint = "/api/v1/report/latest"
)

var reportFormats = []string{report.FormatTabular, "tabular", report.FormatCSV, report.FormatJSON}

type server struct {
	// ctx is the process lifetime context runs started over the API use, so
	// a client going away doesn't abort a run other triggers may be sharing.
	ctx      context.Context
	logger   log.FieldLogger
	reporter *Reporter
}

type requestLogger struct {
	log.FieldLogger
}

func (l *requestLogger) Print(v ...interface{}) {
	l.FieldLogger.Info(v...)
}

// NewRouter returns the HTTP API served in schedule mode.
func NewRouter(ctx context.Context, logger log.FieldLogger, reporter *Reporter) chi.Router {
	router := chi.NewRouter()
	logger = logger.WithField("component", "api")
	requestLogger := middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: &requestLogger{logger}})
	router.Use(requestLogger)

	srv := &server{
		ctx:      ctx,
		logger:   logger,
		reporter: reporter,
	}

	router.HandleFunc("/healthy", srv.healthinessHandler)
	router.HandleFunc("/ready", srv.readinessHandler)
	router.Handle("/metrics", promhttp.Handler())
	router.Post(APIV1RunEndpoint, srv.runHandler)
	router.Get(APIV1LatestReportEndpoint, srv.latestReportHandler)

	return router
}

func newRequestLogger(logger log.FieldLogger, r *http.Request) log.FieldLogger {
	return logger.WithFields(log.Fields{
		"method": r.Method,
		"url":    r.URL.String(),
		"logID":  uuid.New().String(),
	})
}

type statusResponse struct {
	Status  string      `json:"status"`
	Details interface{} `json:"details,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Step  Step   `json:"step,omitempty"`
	Kind  Kind   `json:"kind,omitempty"`
}

type runResponse struct {
	RunID     string `json:"runID"`
	RunDate   string `json:"runDate"`
	Window    string `json:"window"`
	Skipped   bool   `json:"skipped"`
	Added     int    `json:"added"`
	MessageID string `json:"messageID,omitempty"`
	// Shared is true when the request joined a run that was already going.
	Shared bool `json:"shared"`
}

func (srv *server) healthinessHandler(w http.ResponseWriter, r *http.Request) {
	logger := newRequestLogger(srv.logger, r)
	writeResponseAsJSON(logger, w, http.StatusOK, statusResponse{Status: "ok"})
}

// readinessHandler reports not ready while the last run is failed, so the
// failure is visible to whatever is probing the process.
func (srv *server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	logger := newRequestLogger(srv.logger, r)
	step := srv.reporter.Step()
	if step == StepFailed {
		writeResponseAsJSON(logger, w, http.StatusInternalServerError,
			statusResponse{
				Status:  "not ready",
				Details: "last report run failed",
			})
		return
	}
	writeResponseAsJSON(logger, w, http.StatusOK, statusResponse{Status: "ok", Details: step})
}

func (srv *server) runHandler(w http.ResponseWriter, r *http.Request) {
	logger := newRequestLogger(srv.logger, r)
	result, shared, err := srv.reporter.Trigger(srv.ctx)
	if err != nil {
		resp := errorResponse{Error: err.Error()}
		if runErr, ok := err.(*RunError); ok {
			resp.Step = runErr.Step
			resp.Kind = runErr.Kind
		}
		writeResponseAsJSON(logger, w, http.StatusInternalServerError, resp)
		return
	}

	writeResponseAsJSON(logger, w, http.StatusOK, runResponse{
		RunID:     result.RunID,
		RunDate:   result.RunDate.Format(usage.DateLayout),
		Window:    result.Window.String(),
		Skipped:   result.Skipped,
		Added:     result.Added,
		MessageID: result.MessageID,
		Shared:    shared,
	})
}

func (srv *server) latestReportHandler(w http.ResponseWriter, r *http.Request) {
	logger := newRequestLogger(srv.logger, r)
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = report.FormatJSON
	}
	if !slice.ContainsString(reportFormats, format) {
		writeErrorResponse(logger, w, http.StatusBadRequest, "format must be one of: csv, json or tabular")
		return
	}

	latest := srv.reporter.Latest()
	if latest == nil || latest.Report == nil {
		writeErrorResponse(logger, w, http.StatusNotFound, "no report has been generated yet")
		return
	}

	name := fmt.Sprintf("usage-report-%s", latest.RunDate.Format(usage.DateLayout))
	ext := format
	if format == "tabular" || format == report.FormatTabular {
		ext = "tsv"
	}
	w.Header().Set("Content-Type", report.ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment;filename=%s.%s", name, ext))
	w.WriteHeader(http.StatusOK)
	if err := report.Write(w, format, latest.Report); err != nil {
		logger.WithError(err).Error("failed writing report")
	}
}

func writeErrorResponse(logger log.FieldLogger, w http.ResponseWriter, status int, message string, args ...interface{}) {
	msg := fmt.Sprintf(message, args...)
	writeResponseAsJSON(logger, w, status, errorResponse{Error: msg})
}

// writeResponseAsJSON attempts to marshal an arbitrary thing to JSON then write
// it to the http.ResponseWriter
func writeResponseAsJSON(logger log.FieldLogger, w http.ResponseWriter, code int, resp interface{}) {
	enc, err := json.Marshal(resp)
	if err != nil {
		logger.WithError(err).Error("failed JSON-encoding HTTP response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err = w.Write(enc); err != nil {
		logger.WithError(err).Error("failed writing HTTP response")
	}
}
