package http

import (
	"context"
	"database/sql"
	"net/http"
	"strings"

	"github.com/family-health-keeper/backend/internal/ai"
	"github.com/family-health-keeper/backend/internal/appointment"
	"github.com/family-health-keeper/backend/internal/auth"
	"github.com/family-health-keeper/backend/internal/config"
	"github.com/family-health-keeper/backend/internal/document"
	"github.com/family-health-keeper/backend/internal/mail"
	"github.com/family-health-keeper/backend/internal/medicalhistory"
	"github.com/family-health-keeper/backend/internal/medication"
	"github.com/family-health-keeper/backend/internal/messaging"
	"github.com/family-health-keeper/backend/internal/patient"
	"github.com/family-health-keeper/backend/internal/report"
	"github.com/family-health-keeper/backend/internal/respond"
	"github.com/family-health-keeper/backend/internal/users"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
)

// Route group prefixes under the API prefix, with their tags.
const (
	PrefixAuth           = "/auth"
	PrefixUsers          = "/users"
	PrefixHealthRecords  = "/health-records"
	PrefixMedicalHistory = "/medical-history"
	PrefixMedications    = "/medications"
	PrefixAppointments   = "/appointments"
	PrefixDocuments      = "/documents"
	PrefixReports        = "/reports"
	PrefixAI             = "/ai"
)

// Metrics is everything the router and middleware record.
type Metrics interface {
	HTTPMetricsRecorder
	auth.MetricsRecorder
	auth.PermissionMetricsRecorder
	ai.MetricsRecorder
	RecordOperation(ctx context.Context, resource, operation string)
}

// Dependencies are the process-wide resources the API is built from.
type Dependencies struct {
	Settings    *config.Settings
	DB          *sql.DB
	Redis       redis.UniversalClient
	Tokens      *auth.TokenManager
	Permissions auth.Permissions
	Publisher   messaging.PublisherInterface
	Mailer      mail.Sender
	Storage     document.Storage
	AI          ai.Generator
	Metrics     Metrics
	Logger      zerolog.Logger
}

// Handlers groups one handler per resource.
type Handlers struct {
	Users          *users.Handler
	Patients       *patient.Handler
	MedicalHistory *medicalhistory.Handler
	Medications    *medication.Handler
	Appointments   *appointment.Handler
	Documents      *document.Handler
	Reports        *report.Handler
	AI             *ai.Handler
}

// RouterConfig carries the settings the router reads.
type RouterConfig struct {
	APIPrefix   string
	Version     string
	ServiceName string
}

// SetupRouter builds every repository, service and handler from deps and
// registers them.
func SetupRouter(deps Dependencies) *mux.Router {
	s := deps.Settings
	logger := deps.Logger

	patientRepo := patient.NewRepository(deps.DB)
	userRepo := users.NewRepository(deps.DB)

	userService := users.NewService(userRepo, deps.Tokens, deps.Publisher, logger)
	patientService := patient.NewService(patientRepo, deps.Publisher, logger)
	historyService := medicalhistory.NewService(medicalhistory.NewRepository(deps.DB), patientRepo, deps.Publisher, logger)
	medicationService := medication.NewService(medication.NewRepository(deps.DB), patientRepo, deps.Publisher, logger)
	appointmentService := appointment.NewService(appointment.NewRepository(deps.DB), patientRepo, userRepo,
		deps.Mailer, deps.Publisher, s.ProjectName, logger)
	documentService := document.NewService(document.NewRepository(deps.DB), patientRepo, deps.Storage,
		deps.Publisher, s.MaxFileSize, logger)
	reportService := report.NewService(report.NewRepository(deps.DB), patientRepo, logger)

	var aiMetrics ai.MetricsRecorder
	if deps.Metrics != nil {
		aiMetrics = deps.Metrics
	}

	handlers := Handlers{
		Users:          users.NewHandler(userService, logger),
		Patients:       patient.NewHandler(patientService, logger),
		MedicalHistory: medicalhistory.NewHandler(historyService, logger),
		Medications:    medication.NewHandler(medicationService, logger),
		Appointments:   appointment.NewHandler(appointmentService, logger),
		Documents:      document.NewHandler(documentService, s.MaxFileSize, logger),
		Reports:        report.NewHandler(reportService, logger),
		AI:             ai.NewHandler(deps.AI, aiMetrics, logger),
	}

	checks := []ReadinessCheck{{Name: "database", Check: deps.DB.PingContext}}
	if deps.Redis != nil {
		checks = append(checks, ReadinessCheck{Name: "redis", Check: func(ctx context.Context) error {
			return deps.Redis.Ping(ctx).Err()
		}})
	}

	cfg := RouterConfig{APIPrefix: s.APIV1Str, Version: s.Version, ServiceName: s.OTelServiceName}
	return NewRouter(cfg, handlers, deps.Tokens, deps.Permissions, deps.Metrics, checks, logger)
}

// routeGroup registers the routes of one resource group.
type routeGroup struct {
	router  *mux.Router
	tag     string
	ver     auth.Verifier
	perms   auth.Permissions
	metrics Metrics
	logger  zerolog.Logger
}

// handle registers an authenticated route. An empty perm only requires a
// valid token. The collection path "/" is also served without the slash.
func (g routeGroup) handle(method, path, name, perm string, h http.HandlerFunc) {
	var handler http.Handler = h
	var authMetrics auth.MetricsRecorder
	var permMetrics auth.PermissionMetricsRecorder
	if g.metrics != nil {
		authMetrics, permMetrics = g.metrics, g.metrics
	}
	if perm != "" {
		handler = auth.RequirePermissionWithMetrics(perm, g.perms, permMetrics)(handler)
	}
	handler = auth.MiddlewareWithMetrics(g.ver, g.logger, authMetrics)(handler)
	g.register(method, path, name, handler)
}

// public registers a route that needs no token.
func (g routeGroup) public(method, path, name string, h http.HandlerFunc) {
	g.register(method, path, name, h)
}

func (g routeGroup) register(method, path, name string, h http.Handler) {
	wrapped := g.track(name, h)
	if path == "/" {
		g.router.Handle("", wrapped).Methods(method)
	}
	g.router.Handle(path, wrapped).Methods(method).Name(g.tag + "." + name)
}

// track tags the request for logging and counts successful writes.
func (g routeGroup) track(name string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if info := infoFromContext(r.Context()); info != nil {
			info.tag = g.tag
			info.route = g.tag + "." + name
		}
		if g.metrics == nil || r.Method == http.MethodGet || r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.Status() < 400 {
			g.metrics.RecordOperation(r.Context(), g.tag, name)
		}
	})
}

var (
	notFound = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respond.Error(w, http.StatusNotFound, "Not Found")
	})
	methodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respond.Error(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
)

// withJSONErrors sets the JSON 404 and 405 handlers on r. Subrouters do
// not inherit them, so a method mismatch under a group prefix would
// otherwise surface as a plain 404.
func withJSONErrors(r *mux.Router) *mux.Router {
	r.NotFoundHandler = notFound
	r.MethodNotAllowedHandler = methodNotAllowed
	return r
}

// NewRouter registers every route group under cfg.APIPrefix, plus the
// unauthenticated /health and /ready probes.
func NewRouter(cfg RouterConfig, h Handlers, ver auth.Verifier, perms auth.Permissions, metrics Metrics,
	checks []ReadinessCheck, logger zerolog.Logger) *mux.Router {
	r := mux.NewRouter()
	if cfg.ServiceName != "" {
		r.Use(otelmux.Middleware(cfg.ServiceName))
	}
	withJSONErrors(r)

	r.HandleFunc("/health", HealthHandler(cfg.Version)).Methods(http.MethodGet).Name("health")
	r.HandleFunc("/ready", ReadyHandler(checks, logger)).Methods(http.MethodGet).Name("ready")

	api := withJSONErrors(r.PathPrefix(strings.TrimRight(cfg.APIPrefix, "/")).Subrouter())
	group := func(prefix, tag string) routeGroup {
		return routeGroup{
			router:  withJSONErrors(api.PathPrefix(prefix).Subrouter()),
			tag:     tag,
			ver:     ver,
			perms:   perms,
			metrics: metrics,
			logger:  logger,
		}
	}

	authn := group(PrefixAuth, "authentication")
	authn.public(http.MethodPost, "/register", "register", h.Users.Register)
	authn.public(http.MethodPost, "/login", "login", h.Users.Login)
	authn.handle(http.MethodPost, "/logout", "logout", "", h.Users.Logout)

	u := group(PrefixUsers, "users")
	u.handle(http.MethodGet, "/me", "get_me", "", h.Users.GetMe)
	u.handle(http.MethodPut, "/me", "update_me", "", h.Users.UpdateMe)
	u.handle(http.MethodGet, "/", "list", auth.PermUserView, h.Users.ListUsers)
	u.handle(http.MethodGet, "/{id}", "get", auth.PermUserView, h.Users.GetUser)
	u.handle(http.MethodPatch, "/{id}", "update", auth.PermUserManage, h.Users.UpdateUser)

	p := group(PrefixHealthRecords, "health-records")
	p.handle(http.MethodPost, "/", "create", auth.PermRecordWrite, h.Patients.CreatePatient)
	p.handle(http.MethodGet, "/", "list", auth.PermRecordRead, h.Patients.ListPatients)
	p.handle(http.MethodGet, "/{id}", "get", auth.PermRecordRead, h.Patients.GetPatient)
	p.handle(http.MethodPut, "/{id}", "update", auth.PermRecordWrite, h.Patients.UpdatePatient)
	p.handle(http.MethodDelete, "/{id}", "delete", auth.PermRecordWrite, h.Patients.DeletePatient)

	mh := group(PrefixMedicalHistory, "medical-history")
	mh.handle(http.MethodPost, "/", "create", auth.PermRecordWrite, h.MedicalHistory.CreateEntry)
	mh.handle(http.MethodGet, "/", "list", auth.PermRecordRead, h.MedicalHistory.ListEntries)
	mh.handle(http.MethodGet, "/{id}", "get", auth.PermRecordRead, h.MedicalHistory.GetEntry)
	mh.handle(http.MethodPut, "/{id}", "update", auth.PermRecordWrite, h.MedicalHistory.UpdateEntry)
	mh.handle(http.MethodDelete, "/{id}", "delete", auth.PermRecordWrite, h.MedicalHistory.DeleteEntry)

	med := group(PrefixMedications, "medications")
	med.handle(http.MethodPost, "/", "create", auth.PermRecordWrite, h.Medications.CreateMedication)
	med.handle(http.MethodGet, "/", "list", auth.PermRecordRead, h.Medications.ListMedications)
	med.handle(http.MethodGet, "/{id}", "get", auth.PermRecordRead, h.Medications.GetMedication)
	med.handle(http.MethodPut, "/{id}", "update", auth.PermRecordWrite, h.Medications.UpdateMedication)
	med.handle(http.MethodDelete, "/{id}", "delete", auth.PermRecordWrite, h.Medications.DeleteMedication)

	appt := group(PrefixAppointments, "appointments")
	appt.handle(http.MethodPost, "/", "create", auth.PermRecordWrite, h.Appointments.CreateAppointment)
	appt.handle(http.MethodGet, "/", "list", auth.PermRecordRead, h.Appointments.ListAppointments)
	appt.handle(http.MethodGet, "/{id}", "get", auth.PermRecordRead, h.Appointments.GetAppointment)
	appt.handle(http.MethodPut, "/{id}", "update", auth.PermRecordWrite, h.Appointments.UpdateAppointment)
	appt.handle(http.MethodDelete, "/{id}", "delete", auth.PermRecordWrite, h.Appointments.DeleteAppointment)

	docs := group(PrefixDocuments, "documents")
	docs.handle(http.MethodPost, "/", "upload", auth.PermRecordWrite, h.Documents.UploadDocument)
	docs.handle(http.MethodGet, "/", "list", auth.PermRecordRead, h.Documents.ListDocuments)
	docs.handle(http.MethodGet, "/{id}", "get", auth.PermRecordRead, h.Documents.GetDocument)
	docs.handle(http.MethodGet, "/{id}/download", "download", auth.PermRecordRead, h.Documents.DownloadDocument)
	docs.handle(http.MethodDelete, "/{id}", "delete", auth.PermRecordWrite, h.Documents.DeleteDocument)

	rep := group(PrefixReports, "reports")
	rep.handle(http.MethodGet, "/patients/{id}/summary", "patient_summary", auth.PermReportView, h.Reports.PatientSummary)
	rep.handle(http.MethodGet, "/overview", "overview", auth.PermReportView, h.Reports.Overview)

	aiGroup := group(PrefixAI, "ai")
	aiGroup.handle(http.MethodPost, "/generate-insights", "generate_insights", auth.PermAIUse, h.AI.GenerateInsights)
	aiGroup.handle(http.MethodPost, "/summarize-history", "summarize_history", auth.PermAIUse, h.AI.SummarizeHistory)

	return r
}

// Handler wraps the router in the fixed middleware chain. From the
// outside in: custom CORS, trusted host, CORS, error recovery, request
// logging.
func Handler(s *config.Settings, router http.Handler, metrics HTTPMetricsRecorder, logger zerolog.Logger) http.Handler {
	var h http.Handler = router
	h = Logging(logger, metrics)(h)
	h = Recovery(logger)(h)
	h = CORS(s.BackendCORSOrigins)(h)
	h = TrustedHost(s.AllowedHosts)(h)
	return CustomCORS(h)
}
