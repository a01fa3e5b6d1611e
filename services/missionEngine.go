package services

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"studyquest/helpers"
	"studyquest/models"
)

var (
	ErrMissionNotFound   = errors.New("mission not found")
	ErrMissionInactive   = errors.New("mission is not active")
	ErrProgressNotFound  = errors.New("mission not started")
	ErrProgressNotActive = errors.New("mission progress is not active")
	ErrNoPardonOrCoins   = errors.New("no pardon token and not enough coins")
)

// WithdrawCoinCost is charged when a withdrawing user has no pardon token.
const WithdrawCoinCost = 50

// ProgressStore persists MissionProgress records, one per (user, mission).
type ProgressStore interface {
	// CreateIfAbsent atomically inserts rec unless a record already exists
	// for its (user, mission) pair; it returns the stored record and whether
	// this call created it. An existing record is returned unchanged —
	// snapshots are never reset.
	CreateIfAbsent(ctx context.Context, rec *models.MissionProgress) (*models.MissionProgress, bool, error)
	// Get returns ErrProgressNotFound when no record exists.
	Get(ctx context.Context, userID, missionID string) (*models.MissionProgress, error)
	ListByUser(ctx context.Context, userID string) ([]models.MissionProgress, error)
	// CASStatus transitions the record's status from one value to another
	// only if it still holds the old value at write time, reporting whether
	// this writer won.
	CASStatus(ctx context.Context, userID, missionID, from, to string, at time.Time) (bool, error)
	Delete(ctx context.Context, userID, missionID string) error
}

// ExperienceLedger appends immutable XP entries and keeps the user's running
// total in step. Amounts may be negative.
type ExperienceLedger interface {
	Award(ctx context.Context, userID string, amount int, source, note string) error
	// ApplyOnce is Award keyed by an idempotency key: it reports false with a
	// nil error when an entry under the same key was already written, in
	// which case the running total is left untouched.
	ApplyOnce(ctx context.Context, key, userID string, amount int, source, note string) (bool, error)
}

// CounterReader exposes the user's aggregate counters maintained by the
// session subsystem.
type CounterReader interface {
	Counters(ctx context.Context, userID string) (models.UserCounters, error)
}

// SessionReader exposes the user's qualifying study sessions: completed and
// at least models.MinValidSessionMinutes long.
type SessionReader interface {
	CountValidSessions(ctx context.Context, userID string) (int, error)
	// ListSessionsSince returns start instants of qualifying sessions that
	// began at or after since.
	ListSessionsSince(ctx context.Context, userID string, since time.Time) ([]time.Time, error)
}

// MissionCatalog is the read-only mission definition store.
type MissionCatalog interface {
	// Mission returns ErrMissionNotFound when no definition exists.
	Mission(ctx context.Context, missionID string) (*models.Mission, error)
	MissionsByIDs(ctx context.Context, missionIDs []string) (map[string]models.Mission, error)
	ActiveMissions(ctx context.Context) ([]models.Mission, error)
}

// PardonWallet spends the withdrawal cost: one pardon token if the user has
// any, otherwise WithdrawCoinCost coins, otherwise ErrNoPardonOrCoins.
type PardonWallet interface {
	SpendPardonOrCoins(ctx context.Context, userID string) error
}

// MissionEngine drives the mission lifecycle: accepting missions with
// baseline snapshots, judging completion against IST calendar boundaries,
// and expiring stale progress with de-duplicated XP penalties.
type MissionEngine struct {
	store    ProgressStore
	ledger   ExperienceLedger
	counters CounterReader
	sessions SessionReader
	catalog  MissionCatalog
	wallet   PardonWallet
	now      func() time.Time
}

func NewMissionEngine(store ProgressStore, ledger ExperienceLedger, counters CounterReader, sessions SessionReader, catalog MissionCatalog, wallet PardonWallet) *MissionEngine {
	return &MissionEngine{
		store:    store,
		ledger:   ledger,
		counters: counters,
		sessions: sessions,
		catalog:  catalog,
		wallet:   wallet,
		now:      time.Now,
	}
}

// StartMission accepts a mission for the user, snapshotting their current
// counters as the baseline the mission will be judged against. Starting an
// already-ACTIVE mission is a no-op that returns the existing record with
// its original snapshots.
func (e *MissionEngine) StartMission(ctx context.Context, userID, missionID string) (*models.MissionProgress, error) {
	mission, err := e.catalog.Mission(ctx, missionID)
	if err != nil {
		return nil, err
	}
	if !mission.Active {
		return nil, ErrMissionInactive
	}
	counters, err := e.counters.Counters(ctx, userID)
	if err != nil {
		return nil, err
	}
	validSessions, err := e.sessions.CountValidSessions(ctx, userID)
	if err != nil {
		return nil, err
	}
	rec := &models.MissionProgress{
		UserID:            userID,
		MissionID:         missionID,
		StartedAt:         e.now(),
		StartTotalMinutes: counters.TotalMinutes,
		StartSessionCount: validSessions,
		StartStreak:       counters.StreakDays,
		Status:            models.ProgressActive,
	}
	stored, created, err := e.store.CreateIfAbsent(ctx, rec)
	if err != nil {
		return nil, err
	}
	if created {
		log.Printf("user %s started mission %s (%s)", userID, missionID, mission.Title)
	}
	return stored, nil
}

// CheckCompletion evaluates the user's progress on one mission and, when the
// target is met, transitions the record to COMPLETED and credits the reward.
// The transition is a CAS on status, so a concurrent checker or reconcile
// pass cannot double-award.
func (e *MissionEngine) CheckCompletion(ctx context.Context, userID, missionID string) (bool, error) {
	rec, err := e.store.Get(ctx, userID, missionID)
	if err != nil {
		return false, err
	}
	if rec.Completed {
		return true, nil
	}
	mission, err := e.catalog.Mission(ctx, missionID)
	if err != nil {
		return false, err
	}
	target := ParseCriteria(mission.Criteria)
	if target.IsZero() {
		log.Printf("mission %s has unrecognized criteria %q; treating as unsatisfiable", missionID, mission.Criteria)
		return false, nil
	}
	met, err := e.targetMet(ctx, target, rec)
	if err != nil || !met {
		return false, err
	}
	// The reward is written before the status flip, keyed per acceptance,
	// so no order of failure loses XP: a failed ledger write leaves the
	// record ACTIVE for a clean retry, and a crash after the write is
	// healed on the next check when the ledger refuses the duplicate key.
	applied, err := e.ledger.ApplyOnce(ctx, rewardKey(rec), userID, mission.XpReward, models.XpSourceMission, "Completed mission: "+mission.Title)
	if err != nil {
		return false, err
	}
	if !applied {
		log.Printf("reward for mission %s already credited to user %s; retrying status flip", missionID, userID)
	}
	won, err := e.store.CASStatus(ctx, userID, missionID, models.ProgressActive, models.ProgressCompleted, e.now())
	if err != nil {
		return false, err
	}
	if !won {
		// Lost the race: a concurrent check completed it, or reconcile
		// expired it. Report whatever state won.
		current, err := e.store.Get(ctx, userID, missionID)
		if err != nil {
			if errors.Is(err, ErrProgressNotFound) {
				return false, nil
			}
			return false, err
		}
		return current.Completed, nil
	}
	return true, nil
}

// rewardKey derives the idempotency key for one acceptance's reward: stable
// across retries of the same acceptance, distinct for a later re-acceptance
// of the same mission.
func rewardKey(rec *models.MissionProgress) string {
	seed := rec.UserID + "|" + rec.MissionID + "|" + rec.StartedAt.UTC().Format(time.RFC3339Nano)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("studyquest:reward:"+seed)).String()
}

// targetMet gathers only the inputs the target actually needs before
// delegating to EvaluateTarget.
func (e *MissionEngine) targetMet(ctx context.Context, target Target, rec *models.MissionProgress) (bool, error) {
	counters, err := e.counters.Counters(ctx, rec.UserID)
	if err != nil {
		return false, err
	}
	validSessions := 0
	if target.Sessions > 0 {
		validSessions, err = e.sessions.CountValidSessions(ctx, rec.UserID)
		if err != nil {
			return false, err
		}
	}
	var starts []time.Time
	if target.UniqueDays > 0 || target.WeekendSessions > 0 {
		starts, err = e.sessions.ListSessionsSince(ctx, rec.UserID, rec.StartedAt)
		if err != nil {
			return false, err
		}
	}
	return EvaluateTarget(target, rec, counters, validSessions, starts), nil
}

// EvaluateTarget decides completion for one progress record. It is a pure
// any-of disjunction: each populated dimension is checked independently and
// the first satisfied one wins. Delta dimensions (minutes, sessions, streak)
// diff live counters against the acceptance snapshot; xpThreshold is an
// absolute check on total experience.
func EvaluateTarget(target Target, rec *models.MissionProgress, counters models.UserCounters, validSessions int, sessionStarts []time.Time) bool {
	if target.Minutes > 0 && counters.TotalMinutes-rec.StartTotalMinutes >= target.Minutes {
		return true
	}
	if target.Sessions > 0 && validSessions-rec.StartSessionCount >= target.Sessions {
		return true
	}
	if target.Streak > 0 && counters.StreakDays-rec.StartStreak >= target.Streak {
		return true
	}
	if target.UniqueDays > 0 {
		days := make(map[string]struct{})
		for _, ts := range sessionStarts {
			days[helpers.DayKeyIST(ts)] = struct{}{}
		}
		if len(days) >= target.UniqueDays {
			return true
		}
	}
	if target.WeekendSessions > 0 {
		weekend := 0
		for _, ts := range sessionStarts {
			if helpers.IsWeekendIST(ts) {
				weekend++
			}
		}
		if weekend >= target.WeekendSessions {
			return true
		}
	}
	if target.XpThreshold > 0 && counters.TotalXp >= target.XpThreshold {
		return true
	}
	return false
}

// Withdraw abandons an active mission without penalty. It consumes one
// pardon token, or WithdrawCoinCost coins when the user has none; with
// neither available the record is left untouched. Only ACTIVE progress can
// be withdrawn — a completed record costs nothing to keep, reconcile will
// delete it for free.
func (e *MissionEngine) Withdraw(ctx context.Context, userID, missionID string) error {
	rec, err := e.store.Get(ctx, userID, missionID)
	if err != nil {
		return err
	}
	if rec.Status != models.ProgressActive {
		return ErrProgressNotActive
	}
	if err := e.wallet.SpendPardonOrCoins(ctx, userID); err != nil {
		return err
	}
	return e.store.Delete(ctx, userID, missionID)
}

// ReconcileResult summarizes one expiration pass.
type ReconcileResult struct {
	ResetCount   int `json:"reset_count"`
	PenaltyCount int `json:"penalty_count"`
	TotalPenalty int `json:"total_penalty"`
}

// Reconcile expires the user's stale mission progress. A record is expired
// when its acceptance instant precedes the current IST period for its
// mission type: today's start for DAILY, this week's Monday for WEEKLY;
// LONG_TERM missions never expire. Expired incomplete missions are penalized
// half their reward, rounded up, de-duplicated by mission, charged as one
// consolidated negative ledger entry — then every expired record, completed
// or not, is deleted.
//
// The penalty is written before the deletions under a deterministic
// idempotency key, so a crash between the two steps re-runs safely: the
// retry finds the same expired set, the ledger refuses the duplicate key,
// and deletion proceeds without a second charge.
func (e *MissionEngine) Reconcile(ctx context.Context, userID string) (ReconcileResult, error) {
	records, err := e.store.ListByUser(ctx, userID)
	if err != nil {
		return ReconcileResult{}, err
	}
	if len(records) == 0 {
		return ReconcileResult{}, nil
	}

	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.MissionID)
	}
	missions, err := e.catalog.MissionsByIDs(ctx, ids)
	if err != nil {
		return ReconcileResult{}, err
	}

	now := e.now()
	dayStart := helpers.StartOfDayIST(now)
	weekStart := helpers.StartOfWeekIST(now)

	var expired []models.MissionProgress
	penalized := make(map[string]models.Mission)
	for _, rec := range records {
		mission, known := missions[rec.MissionID]
		if !known {
			// Orphaned record: its mission was removed from the catalog.
			// Expire it without penalty — there is no reward to halve.
			log.Printf("progress for user %s references unknown mission %s; expiring without penalty", userID, rec.MissionID)
			expired = append(expired, rec)
			continue
		}
		var boundary time.Time
		switch mission.Type {
		case models.MissionDaily:
			boundary = dayStart
		case models.MissionWeekly:
			boundary = weekStart
		default:
			continue
		}
		if rec.StartedAt.Before(boundary) {
			expired = append(expired, rec)
			if !rec.Completed {
				penalized[rec.MissionID] = mission
			}
		}
	}
	if len(expired) == 0 {
		return ReconcileResult{}, nil
	}

	penalizedIDs := make([]string, 0, len(penalized))
	for id := range penalized {
		penalizedIDs = append(penalizedIDs, id)
	}
	sort.Strings(penalizedIDs)

	totalPenalty := 0
	titles := make([]string, 0, len(penalizedIDs))
	for _, id := range penalizedIDs {
		mission := penalized[id]
		totalPenalty += (mission.XpReward + 1) / 2
		titles = append(titles, mission.Title)
	}

	if totalPenalty > 0 {
		key := penaltyKey(userID, dayStart, penalizedIDs)
		note := "Missed missions: " + strings.Join(titles, ", ")
		applied, err := e.ledger.ApplyOnce(ctx, key, userID, -totalPenalty, models.XpSourceMission, note)
		if err != nil {
			// Abort before deleting anything so a retry re-evaluates cleanly.
			return ReconcileResult{}, err
		}
		if !applied {
			log.Printf("penalty already charged for user %s (key %s); finishing interrupted pass", userID, key)
		}
	}

	for _, rec := range expired {
		if err := e.store.Delete(ctx, rec.UserID, rec.MissionID); err != nil {
			return ReconcileResult{}, err
		}
	}

	return ReconcileResult{
		ResetCount:   len(expired),
		PenaltyCount: len(penalizedIDs),
		TotalPenalty: totalPenalty,
	}, nil
}

// penaltyKey derives the idempotency key for one consolidated penalty:
// stable across retries within the same IST day for the same expired set.
func penaltyKey(userID string, boundary time.Time, missionIDs []string) string {
	seed := userID + "|" + boundary.Format("2006-01-02") + "|" + strings.Join(missionIDs, ",")
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("studyquest:penalty:"+seed)).String()
}

// MissionView is one row of the mission board: the definition joined with
// the user's progress state.
type MissionView struct {
	models.Mission
	State    string                  `json:"state"` // AVAILABLE | ACTIVE | COMPLETED
	Progress *models.MissionProgress `json:"progress,omitempty"`
}

// MissionBoard lists every active mission with the user's current state on
// it. Callers run Reconcile first (throttle permitting) so the board never
// shows stale expired progress.
func (e *MissionEngine) MissionBoard(ctx context.Context, userID string) ([]MissionView, error) {
	missions, err := e.catalog.ActiveMissions(ctx)
	if err != nil {
		return nil, err
	}
	records, err := e.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	byMission := make(map[string]*models.MissionProgress, len(records))
	for i := range records {
		byMission[records[i].MissionID] = &records[i]
	}
	views := make([]MissionView, 0, len(missions))
	for _, mission := range missions {
		view := MissionView{Mission: mission, State: "AVAILABLE"}
		if rec, ok := byMission[mission.MissionID]; ok {
			view.Progress = rec
			view.State = rec.Status
		}
		views = append(views, view)
	}
	return views, nil
}
