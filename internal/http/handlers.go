package httpapi

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/motorambos/internal/config"
	"github.com/example/motorambos/internal/dispatch"
	"github.com/example/motorambos/internal/geo"
	"github.com/example/motorambos/internal/ingest"
	"github.com/example/motorambos/internal/models"
	"github.com/example/motorambos/internal/observability"
	"github.com/example/motorambos/internal/payments"
	"github.com/example/motorambos/internal/storage"
)

// Server is the service side of the help-request flow: it implements
// the collaborator endpoints the wizard consumes, plus the provider
// ingest and admin surfaces.
type Server struct {
	Geo      geo.Geo
	Store    storage.RequestStore
	Kafka    *ingest.KafkaProducer
	WSReg    *dispatch.WSRegistry
	Payments *payments.StripeClient

	lookupLimit    int
	dispatchOffers bool
	logger         *slog.Logger
	mux            *mux.Router
}

// NewServer wires the server from configuration, backing off to
// in-memory implementations when no external address is configured.
func NewServer(cfg config.ServerConfig, logger *slog.Logger) *Server {
	var ggeo geo.Geo
	if cfg.RedisAddr != "" {
		rg := geo.NewRedisGeo(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisPrefix)
		rg.SearchRadiusKm = cfg.SearchRadiusKm
		ggeo = rg
	} else {
		ggeo = geo.NewIndex()
	}

	var store storage.RequestStore
	if cfg.PGDSN != "" {
		if ps, err := storage.NewPostgresStore(cfg.PGDSN); err == nil {
			store = ps
		} else {
			logger.Warn("postgres unavailable, using memory store", "error", err)
		}
	}
	if store == nil {
		store = storage.NewMemoryStore()
	}

	var kp *ingest.KafkaProducer
	if len(cfg.KafkaBrokers) > 0 {
		kp = ingest.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	}

	s := &Server{
		Geo:            ggeo,
		Store:          store,
		Kafka:          kp,
		WSReg:          dispatch.NewWSRegistry(logger),
		lookupLimit:    cfg.LookupLimit,
		dispatchOffers: cfg.DispatchOffers,
		logger:         logger,
		mux:            mux.NewRouter(),
	}
	s.registerMiddleware()
	s.routes()
	return s
}

// newServer is the test seam: explicit dependencies, no env wiring.
func newServer(g geo.Geo, store storage.RequestStore, wsreg *dispatch.WSRegistry, logger *slog.Logger, lookupLimit int) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		Geo:         g,
		Store:       store,
		WSReg:       wsreg,
		lookupLimit: lookupLimit,
		logger:      logger,
		mux:         mux.NewRouter(),
	}
	s.registerMiddleware()
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/v1/requests", s.handleCreateRequest).Methods("POST")
	s.mux.HandleFunc("/api/v1/requests", s.handleListRequests).Methods("GET")
	s.mux.HandleFunc("/api/v1/requests/{id}/accept", s.handleAcceptRequest).Methods("POST")
	s.mux.HandleFunc("/api/v1/requests/{id}/complete", s.handleCompleteRequest).Methods("POST")
	s.mux.HandleFunc("/api/v1/providers/nearby", s.handleNearbyProviders).Methods("GET")
	s.mux.HandleFunc("/api/v1/reviews", s.handleSubmitReview).Methods("POST")
	s.mux.HandleFunc("/api/v1/reviews/{id}/context", s.handleReviewContext).Methods("GET")
	s.mux.HandleFunc("/internal/provider/locations", s.handleProviderLocation).Methods("POST")
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) }).Methods("GET")
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/ws/{provider_id}", s.handleWS)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

type createRequestPayload struct {
	Service    string  `json:"service"`
	HelpType   string  `json:"help_type"`
	DriverName string  `json:"driver_name"`
	Phone      string  `json:"phone"`
	Details    string  `json:"details"`
	Address    string  `json:"address"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Status     string  `json:"status"`
}

func (s *Server) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	var p createRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ht := models.HelpType(p.HelpType)
	if !ht.Valid() {
		http.Error(w, "unknown help type", http.StatusBadRequest)
		return
	}
	now := time.Now()
	req := &models.HelpRequest{
		ID:         newID(),
		HelpType:   ht,
		DriverName: p.DriverName,
		Phone:      p.Phone,
		Details:    p.Details,
		Address:    p.Address,
		Loc:        models.Coord{Lat: p.Lat, Lon: p.Lon},
		Status:     "pending",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.Store.SaveRequest(req); err != nil {
		s.logger.Error("save request failed", "error", err)
		http.Error(w, "could not record request", http.StatusInternalServerError)
		return
	}
	observability.RequestsCreated.WithLabelValues(string(ht)).Inc()

	if s.dispatchOffers && s.WSReg != nil {
		s.offerToNearby(r, req)
	}

	writeJSON(w, http.StatusCreated, models.SubmittedRequestRef{ID: req.ID})
}

// offerToNearby pushes the new request to connected providers in range.
// Best-effort: a provider without a session just doesn't get the push.
func (s *Server) offerToNearby(r *http.Request, req *models.HelpRequest) {
	cands, err := s.Geo.Nearby(r.Context(), req.HelpType, req.Loc.Lat, req.Loc.Lon, s.lookupLimit)
	if err != nil {
		s.logger.Warn("offer dispatch lookup failed", "error", err)
		return
	}
	for _, c := range cands {
		offer := dispatch.JobOffer{
			RequestID:  req.ID,
			HelpType:   req.HelpType,
			DistanceKm: c.DistanceKm,
			Loc:        req.Loc,
			Details:    req.Details,
		}
		if err := s.WSReg.Offer(c.ID, offer); err != nil {
			observability.OffersDispatched.WithLabelValues("no_session").Inc()
			continue
		}
		observability.OffersDispatched.WithLabelValues("sent").Inc()
	}
}

func (s *Server) handleNearbyProviders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ht := models.HelpType(q.Get("help_type"))
	if !ht.Valid() {
		http.Error(w, "unknown help type", http.StatusBadRequest)
		return
	}
	lat, err1 := strconv.ParseFloat(q.Get("lat"), 64)
	lon, err2 := strconv.ParseFloat(q.Get("lon"), 64)
	if err1 != nil || err2 != nil {
		http.Error(w, "lat and lon are required", http.StatusBadRequest)
		return
	}
	cands, err := s.Geo.Nearby(r.Context(), ht, lat, lon, s.lookupLimit)
	if err != nil {
		s.logger.Error("nearby lookup failed", "error", err)
		http.Error(w, "lookup failed", http.StatusInternalServerError)
		return
	}
	if cands == nil {
		cands = []models.ProviderCandidate{}
	}
	observability.ProviderLookups.Inc()
	observability.ProvidersReturned.Observe(float64(len(cands)))
	writeJSON(w, http.StatusOK, cands)
}

type reviewPayload struct {
	RequestID     string `json:"request_id"`
	Rating        int    `json:"rating"`
	ReviewText    string `json:"review_text"`
	ReviewerPhone string `json:"reviewer_phone"`
	Outcome       string `json:"outcome"`
}

func (s *Server) handleSubmitReview(w http.ResponseWriter, r *http.Request) {
	var p reviewPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if p.RequestID == "" {
		http.Error(w, "request_id is required", http.StatusBadRequest)
		return
	}
	if p.Rating < 1 || p.Rating > 5 {
		http.Error(w, "rating must be between 1 and 5", http.StatusBadRequest)
		return
	}
	rv := &models.Review{
		RequestID:     p.RequestID,
		Rating:        p.Rating,
		Text:          p.ReviewText,
		ReviewerPhone: p.ReviewerPhone,
		Outcome:       p.Outcome,
		CreatedAt:     time.Now(),
	}
	if err := s.Store.SaveReview(rv); err != nil {
		s.logger.Error("save review failed", "request_id", p.RequestID, "error", err)
		http.Error(w, "could not record review", http.StatusInternalServerError)
		return
	}
	observability.ReviewsSubmitted.Inc()
	w.WriteHeader(http.StatusNoContent)
}

// helpTypeDisplay is the service display copy for review screens.
var helpTypeDisplay = map[models.HelpType]string{
	models.HelpBattery: "Battery jumpstart",
	models.HelpTire:    "Tire change",
	models.HelpOil:     "Oil top-up",
	models.HelpTow:     "Towing",
	models.HelpRescue:  "Roadside rescue",
	models.HelpFuel:    "Fuel delivery",
}

func (s *Server) handleReviewContext(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	req, err := s.Store.GetRequest(id)
	if err != nil {
		http.Error(w, "request not found", http.StatusNotFound)
		return
	}
	out := struct {
		ProviderName string `json:"provider_name"`
		ServiceName  string `json:"service_name"`
	}{ServiceName: helpTypeDisplay[req.HelpType]}
	if req.ProviderID != "" {
		if dir, ok := s.Geo.(geo.ProviderDirectory); ok {
			if p, found := dir.Get(r.Context(), req.ProviderID); found {
				out.ProviderName = p.Name
			}
		}
	}
	writeJSON(w, http.StatusOK, out)
}

type acceptPayload struct {
	ProviderID string `json:"provider_id"`
	CustomerID string `json:"customer_id"`
	FeeMinor   int64  `json:"fee_minor"`
	Currency   string `json:"currency"`
}

func (s *Server) handleAcceptRequest(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var p acceptPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if p.ProviderID == "" {
		http.Error(w, "provider_id is required", http.StatusBadRequest)
		return
	}
	if err := s.Store.UpdateStatus(id, p.ProviderID, "accepted"); err != nil {
		http.Error(w, "request not found", http.StatusNotFound)
		return
	}
	resp := map[string]any{"id": id, "status": "accepted"}
	if s.Payments != nil && p.FeeMinor > 0 {
		currency := p.Currency
		if currency == "" {
			currency = "ghs"
		}
		if piID, err := s.Payments.HoldCalloutFee(r.Context(), p.FeeMinor, currency, p.CustomerID); err == nil {
			resp["payment_intent"] = piID
		} else {
			s.logger.Warn("callout fee hold failed", "request_id", id, "error", err)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCompleteRequest(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var p struct {
		PaymentIntent string `json:"payment_intent"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&p)
	}
	if err := s.Store.UpdateStatus(id, "", "completed"); err != nil {
		http.Error(w, "request not found", http.StatusNotFound)
		return
	}
	if s.Payments != nil && p.PaymentIntent != "" {
		if err := s.Payments.Capture(r.Context(), p.PaymentIntent); err != nil {
			s.logger.Warn("callout fee capture failed", "request_id", id, "error", err)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "status": "completed"})
}

func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 50
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	reqs, err := s.Store.ListRequests(q.Get("status"), limit)
	if err != nil {
		s.logger.Error("list requests failed", "error", err)
		http.Error(w, "listing failed", http.StatusInternalServerError)
		return
	}
	if reqs == nil {
		reqs = []*models.HelpRequest{}
	}
	writeJSON(w, http.StatusOK, reqs)
}

func (s *Server) handleProviderLocation(w http.ResponseWriter, r *http.Request) {
	var p models.Provider
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if p.ID == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}
	p.Online = true
	// publish to kafka if configured; the consumer folds it into the index
	if s.Kafka != nil {
		if err := s.Kafka.PublishProvider(p); err != nil {
			s.logger.Warn("kafka publish failed, updating index directly", "provider_id", p.ID, "error", err)
		}
	}
	if err := s.Geo.Upsert(r.Context(), p); err != nil {
		s.logger.Error("geo upsert failed", "provider_id", p.ID, "error", err)
		http.Error(w, "update failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

var upgrader = websocket.Upgrader{}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["provider_id"]
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "upgrade failed", http.StatusBadRequest)
		return
	}
	s.WSReg.Add(id, conn)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newID() string { b := make([]byte, 8); _, _ = rand.Read(b); return hex.EncodeToString(b) }
