package server

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"carelink/internal/booking"
	"carelink/internal/donations"
	"carelink/internal/extract"
	"carelink/internal/metrics"
	"carelink/internal/requirements"
	"carelink/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/gorilla/securecookie"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type RequirementsService interface {
	Categories(ctx context.Context) ([]*types.DonationCategory, error)
	CreateCategory(ctx context.Context, name, description string) (*types.DonationCategory, error)
	UpdateCategory(ctx context.Context, id, name, description string) (*types.DonationCategory, error)
	DeleteCategory(ctx context.Context, id string) error

	Item(ctx context.Context, itemID string) (*types.DonationItem, error)
	Items(ctx context.Context, filter types.ItemFilter) ([]*types.DonationItem, error)
	CreateItem(ctx context.Context, input requirements.CreateItemInput, actorID string) (*types.DonationItem, error)
	UpdateItem(ctx context.Context, itemID string, patch types.ItemPatch) (*types.DonationItem, error)
	DeleteItem(ctx context.Context, itemID string) error
	BulkCreate(ctx context.Context, input requirements.BulkCreateInput) (*requirements.BulkCreateResult, error)
	Batches(ctx context.Context) ([]*types.DonationBatch, error)

	Inventory(ctx context.Context) ([]*types.InventoryRow, error)
	Report(ctx context.Context) (*types.Report, error)
	CorrectInventory(ctx context.Context, itemID string, qty decimal.Decimal, actorID string) (*types.Inventory, error)
}

type DonationsService interface {
	Create(ctx context.Context, userID string, input donations.CreateInput) (*types.Donation, error)
	Verify(ctx context.Context, donationID, verifierID string) (*types.Donation, error)
	List(ctx context.Context, identity types.Identity, filter types.DonationFilter) ([]*types.Donation, error)
}

type BookingService interface {
	Schedule(ctx context.Context, scheduleID string) (*types.VisitingSchedule, error)
	Schedules(ctx context.Context, filter types.ScheduleFilter) ([]*types.VisitingSchedule, error)
	CreateSchedule(ctx context.Context, input booking.CreateScheduleInput, actorID string) (*types.VisitingSchedule, error)
	UpdateSchedule(ctx context.Context, scheduleID string, input booking.UpdateScheduleInput) (*types.VisitingSchedule, error)
	DeleteSchedule(ctx context.Context, scheduleID string) error
	DailySummary(ctx context.Context, date string) (*types.DailySummary, error)

	Book(ctx context.Context, userID string, input booking.BookInput) (*types.Appointment, error)
	UpdateStatus(ctx context.Context, appointmentID string, input booking.ReviewInput, reviewerID string) (*types.Appointment, error)
	Cancel(ctx context.Context, appointmentID, userID string) (*types.Appointment, error)
	AdminCancel(ctx context.Context, appointmentID string) (*types.Appointment, error)
	Appointment(ctx context.Context, identity types.Identity, appointmentID string) (*types.Appointment, error)
	Appointments(ctx context.Context, identity types.Identity, filter types.AppointmentFilter) ([]*types.Appointment, error)
}

// DocumentArchive keeps uploaded requirement documents. Put returns an empty
// key when archiving is disabled.
type DocumentArchive interface {
	Put(ctx context.Context, filename, contentType string, data []byte) (string, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Service struct {
	logger *logrus.Logger
	config *types.Config

	requirements RequirementsService
	donations    DonationsService
	booking      BookingService

	archive  DocumentArchive
	metrics  *metrics.Collector
	gatherer prometheus.Gatherer
	db       Pinger

	cognitoClient cognitoAuthenticator
	cookie        *securecookie.SecureCookie
	verifier      IdentityVerifier

	pdfText func([]byte) (string, error)

	handler http.Handler
	server  *http.Server
}

func New(
	config *types.Config,
	logger *logrus.Logger,
	requirementsService RequirementsService,
	donationsService DonationsService,
	bookingService BookingService,
	verifier IdentityVerifier,
	cognitoClient cognitoAuthenticator,
	archive DocumentArchive,
	collector *metrics.Collector,
	gatherer prometheus.Gatherer,
	db Pinger,
) (*Service, error) {
	switch {
	case requirementsService == nil, donationsService == nil, bookingService == nil:
		return nil, errors.New("server: services are required")
	case verifier == nil:
		return nil, errors.New("server: identity verifier is required")
	}

	hashKey, err := base64.StdEncoding.DecodeString(config.CookieHashKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode cookie hash key: %w", err)
	}
	blockKey, err := base64.StdEncoding.DecodeString(config.CookieBlockKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode cookie block key: %w", err)
	}
	if len(hashKey) == 0 {
		hashKey = securecookie.GenerateRandomKey(32)
		logger.Warn("COOKIE_HASH_KEY not set, session cookies will not survive a restart")
	}
	if len(blockKey) == 0 {
		blockKey = nil
	}

	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	mux := flow.New()

	s := &Service{
		logger: logger,
		config: config,

		requirements: requirementsService,
		donations:    donationsService,
		booking:      bookingService,

		archive:  archive,
		metrics:  collector,
		gatherer: gatherer,
		db:       db,

		cognitoClient: cognitoClient,
		cookie:        securecookie.New(hashKey, blockKey),
		verifier:      verifier,

		handler: mux,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.ServerPort),
			Handler:           mux,
			ReadTimeout:       time.Duration(config.ReadTimeoutSec) * time.Second,
			ReadHeaderTimeout: time.Duration(config.ReadTimeoutSec) * time.Second,
			WriteTimeout:      time.Duration(config.WriteTimeoutSec) * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
	}
	s.pdfText = extract.PDFText

	s.buildRouter(mux)

	return s, nil
}

func (s *Service) Start() error {
	return s.server.ListenAndServe()
}

func (s *Service) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Service) Handler() http.Handler {
	return s.handler
}

func (s *Service) buildRouter(r *flow.Mux) {
	r.Use(s.StripTrailingSlash)
	r.Use(s.LoggingMiddleware)

	r.HandleFunc("/healthz", s.handleHealth, http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}), http.MethodGet)

	r.HandleFunc("/api/auth/login", s.handlePostLogin, http.MethodPost)
	r.HandleFunc("/api/auth/logout", s.handlePostLogout, http.MethodPost)

	r.Group(func(r *flow.Mux) {
		r.Use(s.RequireAuth)

		r.HandleFunc("/api/categories", s.handleListCategories, http.MethodGet)

		r.HandleFunc("/api/items", s.handleListItems, http.MethodGet)
		r.HandleFunc("/api/items/:id", s.handleGetItem, http.MethodGet)

		r.HandleFunc("/api/inventory", s.handleListInventory, http.MethodGet)
		r.HandleFunc("/api/inventory/report", s.handleInventoryReport, http.MethodGet)

		r.HandleFunc("/api/donations", s.handleListDonations, http.MethodGet)
		r.HandleFunc("/api/donations", s.handleCreateDonation, http.MethodPost)

		r.HandleFunc("/api/schedules", s.handleListSchedules, http.MethodGet)

		r.HandleFunc("/api/appointments", s.handleListAppointments, http.MethodGet)
		r.HandleFunc("/api/appointments", s.handleBookAppointment, http.MethodPost)
		r.HandleFunc("/api/appointments/:id", s.handleGetAppointment, http.MethodGet)
		r.HandleFunc("/api/appointments/:id/cancel", s.handleCancelAppointment, http.MethodPost)

		r.Group(func(r *flow.Mux) {
			r.Use(s.RequireAdmin)

			r.HandleFunc("/api/categories", s.handleCreateCategory, http.MethodPost)
			r.HandleFunc("/api/categories/:id", s.handleUpdateCategory, http.MethodPut)
			r.HandleFunc("/api/categories/:id", s.handleDeleteCategory, http.MethodDelete)

			r.HandleFunc("/api/items/extract", s.handleExtractItems, http.MethodPost)
			r.HandleFunc("/api/items/bulk", s.handleBulkCreateItems, http.MethodPost)
			r.HandleFunc("/api/items", s.handleCreateItem, http.MethodPost)
			r.HandleFunc("/api/items/:id", s.handleUpdateItem, http.MethodPut)
			r.HandleFunc("/api/items/:id", s.handleDeleteItem, http.MethodDelete)

			r.HandleFunc("/api/batches", s.handleListBatches, http.MethodGet)

			r.HandleFunc("/api/inventory/:itemID", s.handleCorrectInventory, http.MethodPut)

			r.HandleFunc("/api/donations/:id/verify", s.handleVerifyDonation, http.MethodPost)

			r.HandleFunc("/api/schedules/summary", s.handleDailySummary, http.MethodGet)
			r.HandleFunc("/api/schedules", s.handleCreateSchedule, http.MethodPost)
			r.HandleFunc("/api/schedules/:id", s.handleUpdateSchedule, http.MethodPut)
			r.HandleFunc("/api/schedules/:id", s.handleDeleteSchedule, http.MethodDelete)

			r.HandleFunc("/api/appointments/:id/status", s.handleReviewAppointment, http.MethodPut)
		})

		r.HandleFunc("/api/schedules/:id", s.handleGetSchedule, http.MethodGet)
	})
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := s.db.Ping(ctx); err != nil {
			s.logger.WithError(err).Error("health check failed")
			s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Service) currentIdentity(r *http.Request) types.Identity {
	identity, _ := identityFromContext(r.Context())
	return identity
}
