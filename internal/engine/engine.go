// Package engine coordinates the triage, ambulance, and hospital domains
// into a single dispatch pipeline. It owns the priority queue and the
// emergency records, and delegates bed inventory to the hospital manager.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/lifeline/go-ems/internal/clinical"
	"github.com/lifeline/go-ems/internal/domain/ambulance"
	"github.com/lifeline/go-ems/internal/domain/hospital"
	"github.com/lifeline/go-ems/internal/domain/triage"
	"github.com/lifeline/go-ems/internal/observability/metrics"
	"github.com/lifeline/go-ems/pkg/riskclient"
)

// Config tunes dispatch decisions.
type Config struct {
	// TrafficFactor scales the raw travel time estimate.
	TrafficFactor float64

	// AvgSpeedKMH is the assumed ambulance speed.
	AvgSpeedKMH float64

	// ReservationTTL is how long a reserved bed is held before the hold
	// may be considered stale.
	ReservationTTL time.Duration
}

// DefaultConfig returns the standard dispatch tuning.
func DefaultConfig() Config {
	return Config{
		TrafficFactor:  ambulance.DefaultTrafficFactor,
		AvgSpeedKMH:    ambulance.DefaultAvgSpeedKMH,
		ReservationTTL: 30 * time.Minute,
	}
}

// Location is a WGS84 coordinate.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// IntakeRequest is a reported emergency before triage.
type IntakeRequest struct {
	PatientID string
	Vitals    triage.Vitals
	History   triage.History
	Symptoms  string
	Location  Location
}

// Record is a triaged emergency tracked by the engine.
type Record struct {
	EmergencyID string           `json:"emergency_id"`
	PatientID   string           `json:"patient_id"`
	Vitals      triage.Vitals    `json:"vitals"`
	History     triage.History   `json:"history"`
	Symptoms    string           `json:"symptoms"`
	Location    Location         `json:"location"`
	AIRisk      float64          `json:"ai_risk"`
	Severity    int              `json:"severity"`
	Breakdown   triage.Breakdown `json:"breakdown"`
	ReceivedAt  time.Time        `json:"received_at"`
}

// Dispatch is the outcome of sending an ambulance for the highest-priority
// emergency and staging a hospital bed for its arrival.
type Dispatch struct {
	Record        *Record                    `json:"record"`
	AmbulanceType ambulance.Type             `json:"ambulance_type"`
	Profile       ambulance.Profile          `json:"profile"`
	DistanceKM    float64                    `json:"distance_km"`
	ETAMinutes    int                        `json:"eta_minutes"`
	Reservation   hospital.ReservationResult `json:"reservation"`
	Findings      []clinical.Finding         `json:"findings,omitempty"`
	CrewAlert     clinical.Alert             `json:"crew_alert"`
	HospitalAlert clinical.Alert             `json:"hospital_alert"`
}

// Engine is the dispatch coordinator. All methods are safe for concurrent
// use.
type Engine struct {
	cfg     Config
	queue   *triage.Queue
	beds    *hospital.BedManager
	risk    *riskclient.Client
	metrics *metrics.Metrics
	logger  *zap.Logger
	tracer  trace.Tracer

	mu      sync.RWMutex
	records map[string]*Record
}

// New creates an engine. A nil bed manager gets the default hospital
// layout; a nil risk client disables AI scoring and every emergency is
// triaged on vitals and history alone.
func New(cfg Config, beds *hospital.BedManager, risk *riskclient.Client, m *metrics.Metrics, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if beds == nil {
		beds = hospital.NewBedManager(nil, logger)
	}
	if m == nil {
		m = metrics.New(prometheus.NewRegistry())
	}
	if cfg.TrafficFactor <= 0 {
		cfg.TrafficFactor = ambulance.DefaultTrafficFactor
	}
	if cfg.AvgSpeedKMH <= 0 {
		cfg.AvgSpeedKMH = ambulance.DefaultAvgSpeedKMH
	}
	if cfg.ReservationTTL <= 0 {
		cfg.ReservationTTL = 30 * time.Minute
	}

	e := &Engine{
		cfg:     cfg,
		queue:   triage.NewQueue(),
		beds:    beds,
		risk:    risk,
		metrics: m,
		logger:  logger,
		tracer:  otel.Tracer("dispatch-engine"),
		records: make(map[string]*Record),
	}
	e.refreshBedGauges()
	return e
}

// ScoreSeverity triages a patient into a 1..10 severity with a full
// component breakdown.
func (e *Engine) ScoreSeverity(vitals triage.Vitals, history triage.History, aiRisk float64) (int, triage.Breakdown) {
	severity, breakdown := triage.Score(vitals, history, aiRisk)
	e.metrics.EmergenciesScored.Inc()
	e.metrics.SeverityScores.Observe(float64(severity))
	return severity, breakdown
}

// Intake triages a reported emergency and places it on the dispatch queue.
// The returned record carries the assigned emergency id.
func (e *Engine) Intake(ctx context.Context, req IntakeRequest) (*Record, error) {
	ctx, span := e.tracer.Start(ctx, "engine.intake")
	defer span.End()

	rec := &Record{
		EmergencyID: uuid.NewString(),
		PatientID:   req.PatientID,
		Vitals:      req.Vitals,
		History:     req.History,
		Symptoms:    req.Symptoms,
		Location:    req.Location,
		ReceivedAt:  time.Now(),
	}
	if e.risk != nil {
		rec.AIRisk = e.risk.Score(ctx, req.PatientID, req.Vitals)
	}
	rec.Severity, rec.Breakdown = e.ScoreSeverity(req.Vitals, req.History, rec.AIRisk)

	e.mu.Lock()
	e.records[rec.EmergencyID] = rec
	e.mu.Unlock()

	e.queue.Add(rec.Severity, rec.ReceivedAt, rec.EmergencyID)
	e.metrics.EmergenciesQueued.Inc()
	e.metrics.QueueDepth.Set(float64(e.queue.Size()))

	span.SetAttributes(
		attribute.String("emergency.id", rec.EmergencyID),
		attribute.Int("emergency.severity", rec.Severity),
	)
	e.logger.Info("emergency queued",
		zap.String("emergency_id", rec.EmergencyID),
		zap.String("patient_id", rec.PatientID),
		zap.Int("severity", rec.Severity),
		zap.Float64("ai_risk", rec.AIRisk),
		zap.Int("queue_depth", e.queue.Size()),
	)
	return rec, nil
}

// EnqueueEmergency places an already-scored emergency on the queue and
// returns its tie-breaking sequence number.
func (e *Engine) EnqueueEmergency(severity int, enqueuedAt time.Time, payload any) uint64 {
	seq := e.queue.Add(severity, enqueuedAt, payload)
	e.metrics.EmergenciesQueued.Inc()
	e.metrics.QueueDepth.Set(float64(e.queue.Size()))
	return seq
}

// DequeueNext removes and returns the highest-priority emergency.
func (e *Engine) DequeueNext() (triage.Emergency, bool) {
	em, ok := e.queue.Next()
	if ok {
		e.metrics.QueueDepth.Set(float64(e.queue.Size()))
	}
	return em, ok
}

// PeekNext returns the highest-priority emergency without removing it.
func (e *Engine) PeekNext() (triage.Emergency, bool) {
	return e.queue.Peek()
}

// QueueSize returns the number of pending emergencies.
func (e *Engine) QueueSize() int {
	return e.queue.Size()
}

// Record returns the tracked emergency for an id.
func (e *Engine) Record(emergencyID string) (*Record, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	rec, ok := e.records[emergencyID]
	return rec, ok
}

// SelectAmbulance picks the ambulance type for an emergency and returns
// its equipment and crew profile.
func (e *Engine) SelectAmbulance(severity int, vitals triage.Vitals, symptoms string) (ambulance.Type, ambulance.Profile) {
	t := ambulance.ChooseType(severity, vitals, symptoms)
	return t, ambulance.ProfileFor(t)
}

// DistanceKM returns the great-circle distance between two coordinates.
func (e *Engine) DistanceKM(from, to Location) float64 {
	return ambulance.DistanceKM(from.Lat, from.Lon, to.Lat, to.Lon)
}

// ETAMinutes estimates travel time over a distance using the configured
// traffic factor and average speed.
func (e *Engine) ETAMinutes(distanceKM float64) int {
	return ambulance.ETAMinutes(distanceKM, e.cfg.TrafficFactor, e.cfg.AvgSpeedKMH)
}

// BedAvailability reports the counters for one bed type.
func (e *Engine) BedAvailability(t hospital.BedType) hospital.Availability {
	return e.beds.Availability(t)
}

// AllBedAvailability reports the counters for every provisioned bed type.
func (e *Engine) AllBedAvailability() []hospital.Availability {
	return e.beds.AllAvailability()
}

// ReserveBed holds a bed of the requested type for an emergency, falling
// back to a clinically adjacent type when the pool is exhausted.
func (e *Engine) ReserveBed(t hospital.BedType, patientID, emergencyID string) hospital.ReservationResult {
	res := e.beds.Reserve(t, patientID, emergencyID, e.cfg.ReservationTTL)
	e.metrics.Reservations.WithLabelValues(reservationOutcome(res)).Inc()
	e.refreshBedGauges()
	return res
}

// ConfirmAdmission converts a reservation into an admission.
func (e *Engine) ConfirmAdmission(emergencyID string) bool {
	ok := e.beds.ConfirmAdmission(emergencyID)
	if ok {
		e.metrics.Admissions.Inc()
		e.refreshBedGauges()
	}
	return ok
}

// ReleaseBed frees the bed held by an emergency.
func (e *Engine) ReleaseBed(emergencyID string) bool {
	ok := e.beds.Release(emergencyID)
	if ok {
		e.refreshBedGauges()
	}
	return ok
}

// DispatchNext pulls the highest-priority emergency, assigns an ambulance,
// estimates its arrival at the hospital, and stages a bed. It returns
// false when the queue is empty.
func (e *Engine) DispatchNext(ctx context.Context, hospitalLoc Location) (*Dispatch, bool) {
	_, span := e.tracer.Start(ctx, "engine.dispatch")
	defer span.End()
	start := time.Now()

	em, ok := e.queue.Next()
	if !ok {
		return nil, false
	}
	e.metrics.QueueDepth.Set(float64(e.queue.Size()))

	emergencyID, _ := em.Payload.(string)
	rec, ok := e.Record(emergencyID)
	if !ok {
		// Entry enqueued through EnqueueEmergency with a foreign payload;
		// dispatch it with an empty record so the queue still drains.
		rec = &Record{EmergencyID: emergencyID, Severity: em.Severity, ReceivedAt: em.EnqueuedAt}
	}

	ambType, profile := e.SelectAmbulance(rec.Severity, rec.Vitals, rec.Symptoms)
	distance := e.DistanceKM(rec.Location, hospitalLoc)
	eta := e.ETAMinutes(distance)

	bedType := clinical.RecommendBedType(rec.Severity)
	res := e.ReserveBed(bedType, rec.PatientID, rec.EmergencyID)
	findings := clinical.CriticalVitals(rec.Vitals)

	d := &Dispatch{
		Record:        rec,
		AmbulanceType: ambType,
		Profile:       profile,
		DistanceKM:    distance,
		ETAMinutes:    eta,
		Reservation:   res,
		Findings:      findings,
		CrewAlert:     clinical.BuildCrewAlert(rec.Severity, eta, ambType),
		HospitalAlert: clinical.BuildHospitalAlert(rec.Severity, eta, bedType, clinical.RequiredSpecialists(rec.Vitals, rec.History)),
	}

	e.metrics.Dispatches.Inc()
	e.metrics.DispatchDuration.Observe(time.Since(start).Seconds())
	span.SetAttributes(
		attribute.String("emergency.id", rec.EmergencyID),
		attribute.String("ambulance.type", string(ambType)),
		attribute.Int("eta.minutes", eta),
		attribute.Bool("bed.reserved", res.Success),
	)
	e.logger.Info("emergency dispatched",
		zap.String("emergency_id", rec.EmergencyID),
		zap.Int("severity", rec.Severity),
		zap.String("ambulance_type", string(ambType)),
		zap.Float64("distance_km", distance),
		zap.Int("eta_minutes", eta),
		zap.String("bed_id", res.BedID),
		zap.Bool("bed_reserved", res.Success),
	)
	return d, true
}

func (e *Engine) refreshBedGauges() {
	for _, av := range e.beds.AllAvailability() {
		e.metrics.BedsAvailable.WithLabelValues(string(av.BedType)).Set(float64(av.Available))
	}
}

func reservationOutcome(res hospital.ReservationResult) string {
	switch {
	case res.AlreadyReserved:
		return metrics.OutcomeDuplicate
	case res.Success && res.Alternative:
		return metrics.OutcomeAlternative
	case res.Success:
		return metrics.OutcomeReserved
	default:
		return metrics.OutcomeWaitlisted
	}
}
