// Package attendance implements the clock-in/clock-out state machine. One
// Flow instance is one terminal session; transitions are driven by the HTTP
// transport and by the results of the flow's own asynchronous side effects
// (position query, verification, upload).
package attendance

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"timeclock/internal/domain"
	"timeclock/internal/evidence"
	"timeclock/internal/geo"
	"timeclock/internal/incident"
	"timeclock/internal/platform/metrics"
	"timeclock/internal/verify"
	"timeclock/pkg/domainerrors"
	"timeclock/pkg/requestcontext"
)

// State names one screen of the attendance flow.
type State string

const (
	StateCredentials        State = "credentials"
	StateStoreSelection     State = "store_selection"
	StateCheckingLocation   State = "checking_location"
	StateClockSelection     State = "clock_selection"
	StateCamera             State = "camera"
	StateVerifying          State = "verifying"
	StateUploading          State = "uploading"
	StateVerificationFailed State = "verification_failed"
	StateSuccessEntry       State = "success_entry"
	StateSuccessExit        State = "success_exit"
	// StateAuthenticated is the post-entry resting state: the employee is
	// inside the app and may start another clock action or log out.
	StateAuthenticated State = "authenticated"
)

// Config holds the flow timings. Zero values take the production defaults;
// tests shrink them.
type Config struct {
	// LocateTimeout bounds the single-shot position query.
	LocateTimeout time.Duration
	// EntryDwell is how long the entry success screen shows before
	// advancing to the authenticated state.
	EntryDwell time.Duration
	// ExitDwell is how long the exit success screen shows before the full
	// session reset.
	ExitDwell time.Duration
}

func (c Config) withDefaults() Config {
	if c.LocateTimeout == 0 {
		c.LocateTimeout = 10 * time.Second
	}
	if c.EntryDwell == 0 {
		c.EntryDwell = 6 * time.Second
	}
	if c.ExitDwell == 0 {
		c.ExitDwell = 5 * time.Second
	}
	return c
}

// Deps are the flow's injected ports. Events and Metrics may be nil.
type Deps struct {
	Credentials CredentialGate
	Stores      StoreSource
	Logs        LogSink
	Verifier    Verifier
	Evidence    evidence.Uploader
	Locator     Locator
	Camera      Camera
	Events      EventSink
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
}

// Flow is the per-session state machine. Safe for concurrent use: all state
// lives behind one mutex, and every external call happens outside it. Each
// transition bumps a generation counter; the result of an in-flight external
// call is applied only if the generation it started under is still current,
// so late responses from a superseded screen are discarded rather than
// corrupting the session.
type Flow struct {
	deps   Deps
	cfg    Config
	tracer trace.Tracer

	mu         sync.Mutex
	state      State
	gen        uint64
	user       domain.User
	store      domain.Store
	location   geo.Evaluation
	action     domain.ClockType
	selfie     verify.InlineImage
	capturedAt time.Time
	camera     CameraHandle
	verdict    verify.Verdict
	lastLog    *domain.TimeLog
	timer      *time.Timer
}

func NewFlow(deps Deps, cfg Config) *Flow {
	return &Flow{
		deps:   deps,
		cfg:    cfg.withDefaults(),
		tracer: otel.Tracer("timeclock/attendance"),
		state:  StateCredentials,
	}
}

// Snapshot is a consistent read of the session for the transport layer.
type Snapshot struct {
	State    State
	User     domain.User
	Store    domain.Store
	Location geo.Evaluation
	Verdict  verify.Verdict
	LastLog  *domain.TimeLog
}

func (f *Flow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Snapshot{
		State:    f.state,
		User:     f.user.Sanitized(),
		Store:    f.store,
		Location: f.location,
		Verdict:  f.verdict,
		LastLog:  f.lastLog,
	}
}

// State returns the current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Login authenticates and enters store selection. Admins skip the clock flow
// and land directly in the authenticated state; users with no assigned stores
// cannot clock at all.
func (f *Flow) Login(ctx context.Context, username, password string) error {
	ctx, span := f.tracer.Start(ctx, "attendance.login")
	defer span.End()

	user, err := f.deps.Credentials.Authenticate(ctx, username, password)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateCredentials {
		return errInvalidState(f.state)
	}
	if user.Role == domain.RoleAdmin {
		f.user = user
		f.transitionLocked(StateAuthenticated)
		return nil
	}
	if !user.CanClock() {
		return domainerrors.New(domainerrors.CodeForbidden,
			"Sin tiendas asignadas. Contacte al administrador.")
	}
	f.user = user
	f.transitionLocked(StateStoreSelection)
	return nil
}

// SelectStore picks a store from the user's assigned subset and kicks off the
// location check. The check is asynchronous and degrade-only: whatever its
// outcome, the flow advances to clock selection.
func (f *Flow) SelectStore(ctx context.Context, storeID string) error {
	ctx, span := f.tracer.Start(ctx, "attendance.select_store")
	defer span.End()

	st, err := f.deps.Stores.Store(ctx, storeID)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeNotFound, "Tienda inexistente.")
	}

	f.mu.Lock()
	if f.state != StateStoreSelection {
		f.mu.Unlock()
		return errInvalidState(f.state)
	}
	if !f.user.IsAssigned(storeID) {
		f.mu.Unlock()
		return domainerrors.New(domainerrors.CodeForbidden, "Tienda no asignada.")
	}
	f.store = st
	f.location = geo.Evaluation{}
	f.transitionLocked(StateCheckingLocation)
	gen := f.gen
	f.mu.Unlock()

	go f.checkLocation(context.WithoutCancel(ctx), gen, st)
	return nil
}

// checkLocation performs the single-shot position query and applies its
// evaluation if the session has not moved on.
func (f *Flow) checkLocation(ctx context.Context, gen uint64, st domain.Store) {
	ctx, span := f.tracer.Start(ctx, "attendance.check_location")
	defer span.End()

	lctx, cancel := context.WithTimeout(ctx, f.cfg.LocateTimeout)
	defer cancel()

	var eval geo.Evaluation
	pos, err := f.deps.Locator.Locate(lctx)
	if err != nil {
		eval = geo.Unavailable(locateReason(err))
	} else {
		eval = geo.Evaluate(pos, st)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gen != gen || f.state != StateCheckingLocation {
		return
	}
	f.location = eval
	f.transitionLocked(StateClockSelection)
}

func locateReason(err error) geo.ErrorReason {
	var pe *PositionError
	if errors.As(err, &pe) {
		return pe.Reason
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return geo.ReasonTimeout
	}
	return geo.ReasonPositionUnavailable
}

// SelectAction chooses entry or exit. The gate is soft last-log-wins: the
// newest log decides which action is available, with no pairing validation
// behind it.
func (f *Flow) SelectAction(ctx context.Context, action domain.ClockType) error {
	ctx, span := f.tracer.Start(ctx, "attendance.select_action")
	defer span.End()

	f.mu.Lock()
	if f.state != StateClockSelection {
		f.mu.Unlock()
		return errInvalidState(f.state)
	}
	clockedIn := f.deps.Logs.IsClockedIn(f.user.Username)
	if clockedIn && action == domain.ClockIn {
		f.mu.Unlock()
		return domainerrors.New(domainerrors.CodeConflict,
			"Ya registraste un INGRESO. Debés registrar un EGRESO.")
	}
	if !clockedIn && action == domain.ClockOut {
		f.mu.Unlock()
		return domainerrors.New(domainerrors.CodeConflict,
			"No hay un INGRESO previo. Debés registrar un INGRESO.")
	}
	f.action = action
	gen := f.gen
	f.mu.Unlock()

	handle, err := f.deps.Camera.Acquire(ctx)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeUnavailable,
			"No se pudo acceder a la cámara.")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gen != gen || f.state != StateClockSelection {
		handle.Release()
		return errInvalidState(f.state)
	}
	f.camera = handle
	f.transitionLocked(StateCamera)
	return nil
}

// Capture takes the selfie, releases the camera, and starts verification.
func (f *Flow) Capture(ctx context.Context, selfie verify.InlineImage) error {
	ctx, span := f.tracer.Start(ctx, "attendance.capture")
	defer span.End()

	f.mu.Lock()
	if f.state != StateCamera {
		f.mu.Unlock()
		return errInvalidState(f.state)
	}
	f.releaseCameraLocked()
	f.selfie = selfie
	f.capturedAt = requestcontext.Now(ctx)
	f.verdict = verify.Verdict{}
	user := f.user
	f.transitionLocked(StateVerifying)
	gen := f.gen
	f.mu.Unlock()

	go f.verifyAndFinalize(context.WithoutCancel(ctx), gen, selfie, user)
	return nil
}

func (f *Flow) verifyAndFinalize(ctx context.Context, gen uint64, selfie verify.InlineImage, user domain.User) {
	ctx, span := f.tracer.Start(ctx, "attendance.verify")
	defer span.End()

	mode := verify.ResolveMode(user.PhotoURL)
	verdict := f.deps.Verifier.Verify(ctx, selfie, mode, user.RequiredUniform)

	f.mu.Lock()
	if f.gen != gen || f.state != StateVerifying {
		f.mu.Unlock()
		return
	}
	f.verdict = verdict
	if !verdict.Verified {
		f.deps.Metrics.IncVerificationFailure()
		f.transitionLocked(StateVerificationFailed)
		f.mu.Unlock()
		return
	}
	f.transitionLocked(StateUploading)
	gen = f.gen
	f.mu.Unlock()

	f.finalize(ctx, gen)
}

// Retry re-enters the camera after a failed verification.
func (f *Flow) Retry(ctx context.Context) error {
	f.mu.Lock()
	if f.state != StateVerificationFailed {
		f.mu.Unlock()
		return errInvalidState(f.state)
	}
	gen := f.gen
	f.mu.Unlock()

	handle, err := f.deps.Camera.Acquire(ctx)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeUnavailable,
			"No se pudo acceder a la cámara.")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gen != gen || f.state != StateVerificationFailed {
		handle.Release()
		return errInvalidState(f.state)
	}
	f.camera = handle
	f.verdict = verify.Verdict{}
	f.transitionLocked(StateCamera)
	return nil
}

// ForceAccept persists the failed verdict as-is. The incident classifier
// turns the failing verdict into an identity incident on the resulting log.
func (f *Flow) ForceAccept(ctx context.Context) error {
	f.mu.Lock()
	if f.state != StateVerificationFailed {
		f.mu.Unlock()
		return errInvalidState(f.state)
	}
	f.deps.Metrics.IncForcedAccept()
	f.transitionLocked(StateUploading)
	gen := f.gen
	f.mu.Unlock()

	go f.finalize(context.WithoutCancel(ctx), gen)
	return nil
}

// finalize uploads the evidence photo and appends the log. Upload and insert
// fail independently: a failed upload falls back to embedding the image
// inline, and a failed insert still leaves the local echo.
func (f *Flow) finalize(ctx context.Context, gen uint64) {
	ctx, span := f.tracer.Start(ctx, "attendance.finalize")
	defer span.End()

	f.mu.Lock()
	if f.gen != gen || f.state != StateUploading {
		f.mu.Unlock()
		return
	}
	user := f.user
	st := f.store
	action := f.action
	selfie := f.selfie
	capturedAt := f.capturedAt
	verdict := f.verdict
	location := f.location
	f.mu.Unlock()

	photoURL := "data:" + selfie.MimeType + ";base64," + selfie.Base64
	if data, err := base64.StdEncoding.DecodeString(selfie.Base64); err == nil {
		key := evidence.ObjectKey(user.Username, capturedAt)
		if url, uerr := f.deps.Evidence.Upload(ctx, key, selfie.MimeType, data); uerr != nil {
			f.deps.Logger.Warn("evidence upload failed, embedding image inline",
				"user_id", user.Username, "error", uerr)
		} else {
			photoURL = url
		}
	}

	report := incident.Classify(verdict, location)

	log := domain.TimeLog{
		ID:             uuid.NewString(),
		UserID:         user.Username,
		UserFullName:   user.FullName,
		UserPhotoURL:   photoURL,
		StoreID:        st.ID,
		StoreName:      st.Name,
		Type:           action,
		Timestamp:      capturedAt,
		HasIncident:    report.HasIncident,
		IncidentDetail: report.Detail,
		IdentityScore:  verdict.IdentityScore,
		UniformOK:      verdict.UniformOK,
		UniformDetails: verdict.UniformDetails,
	}
	if location.Position != nil {
		pos := *location.Position
		dist := location.Distance
		allowed := location.Allowed()
		log.Location = &pos
		log.DistanceToStore = &dist
		log.LocationAllowed = &allowed
	}

	// The logbook guarantees the local echo, so this error is degraded
	// operation, not a lost event.
	_ = f.deps.Logs.Append(ctx, log)

	if action == domain.ClockIn {
		f.deps.Metrics.IncClockIn()
	} else {
		f.deps.Metrics.IncClockOut()
	}
	if report.HasIncident {
		f.deps.Metrics.IncIncident()
	}
	if f.deps.Events != nil {
		f.deps.Events.ClockEvent(ctx, log)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gen != gen || f.state != StateUploading {
		// The session was reset mid-upload; the event is persisted but the
		// screen no longer exists.
		return
	}
	f.lastLog = &log
	if action == domain.ClockIn {
		f.transitionLocked(StateSuccessEntry)
		f.scheduleLocked(f.cfg.EntryDwell, func() {
			f.transitionLocked(StateAuthenticated)
		})
	} else {
		f.transitionLocked(StateSuccessExit)
		f.scheduleLocked(f.cfg.ExitDwell, func() {
			f.resetLocked()
		})
	}
}

// StartClock leaves the authenticated resting state for another clock action.
func (f *Flow) StartClock() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateAuthenticated {
		return errInvalidState(f.state)
	}
	f.transitionLocked(StateStoreSelection)
	return nil
}

// Back navigates one screen backwards, releasing the camera if held. From the
// failure screen it discards the capture and the failed verdict and returns to
// clock selection.
func (f *Flow) Back() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.state {
	case StateVerificationFailed:
		f.selfie = verify.InlineImage{}
		f.capturedAt = time.Time{}
		f.verdict = verify.Verdict{}
		f.transitionLocked(StateClockSelection)
	case StateCamera:
		f.releaseCameraLocked()
		f.transitionLocked(StateClockSelection)
	case StateClockSelection:
		f.transitionLocked(StateStoreSelection)
	case StateStoreSelection:
		f.resetLocked()
	default:
		return errInvalidState(f.state)
	}
	return nil
}

// Cancel resets the session from any state. In-flight external calls find
// the generation changed and discard their results.
func (f *Flow) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetLocked()
}

// transitionLocked moves to the next state and invalidates every in-flight
// external call and pending timer. Caller holds f.mu.
func (f *Flow) transitionLocked(next State) {
	f.state = next
	f.gen++
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
}

// scheduleLocked arms the terminal auto-advance. The callback runs under f.mu
// and only if no transition happened in the meantime. Caller holds f.mu.
func (f *Flow) scheduleLocked(d time.Duration, fn func()) {
	gen := f.gen
	f.timer = time.AfterFunc(d, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.gen != gen {
			return
		}
		fn()
	})
}

func (f *Flow) releaseCameraLocked() {
	if f.camera != nil {
		f.camera.Release()
		f.camera = nil
	}
}

func (f *Flow) resetLocked() {
	f.releaseCameraLocked()
	f.transitionLocked(StateCredentials)
	f.user = domain.User{}
	f.store = domain.Store{}
	f.location = geo.Evaluation{}
	f.action = ""
	f.selfie = verify.InlineImage{}
	f.capturedAt = time.Time{}
	f.verdict = verify.Verdict{}
	f.lastLog = nil
}

func errInvalidState(s State) error {
	return domainerrors.New(domainerrors.CodeConflict, "Acción no disponible en el estado "+string(s)+".")
}
