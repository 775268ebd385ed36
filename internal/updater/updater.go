// Package updater runs one complete status refresh: inference call, record
// extraction, document writes, archival, notification fan-out, and run
// history.
package updater

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/FlagWatch/FlagWatch/internal/flagstatus"
	"github.com/FlagWatch/FlagWatch/internal/inference"
	"github.com/FlagWatch/FlagWatch/internal/notify"
	"github.com/FlagWatch/FlagWatch/internal/runlog"
	"github.com/FlagWatch/FlagWatch/internal/store"
)

// Options wires the updater's collaborators. Store and Client are
// required; Notifier and RunLog may be nil.
type Options struct {
	Store    store.Store
	Client   inference.Client
	Notifier *notify.Dispatcher
	RunLog   *runlog.Service
	Now      func() time.Time
}

// Updater executes update passes.
type Updater struct {
	store    store.Store
	client   inference.Client
	notifier *notify.Dispatcher
	runlog   *runlog.Service
	now      func() time.Time
}

// Result summarizes one completed pass.
type Result struct {
	Status         string
	Reason         string
	ProclamationID string
	LastUpdated    string
	Strategy       flagstatus.ParseStrategy
	Changed        bool
	Archived       bool
	Usage          inference.Usage
}

func New(opts Options) *Updater {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Updater{
		store:    opts.Store,
		client:   opts.Client,
		notifier: opts.Notifier,
		runlog:   opts.RunLog,
		now:      now,
	}
}

// Run executes one update pass. An inference failure or a failed write of
// current.json or index.json aborts the pass with the store otherwise
// untouched by the failing step; archival, notification, and run history
// are best-effort.
func (u *Updater) Run(ctx context.Context) (*Result, error) {
	run := runlog.NewRun()
	if u.runlog != nil {
		if err := u.runlog.RecordStart(run); err != nil {
			slog.Warn("Run log start failed", "error", err)
		}
	}
	res, err := u.run(ctx, run)
	if u.runlog != nil {
		if err != nil {
			run.Outcome = runlog.OutcomeError
			run.ErrorText = err.Error()
		} else {
			run.Outcome = runlog.OutcomeOK
		}
		if rlErr := u.runlog.RecordFinish(run); rlErr != nil {
			slog.Warn("Run log finish failed", "error", rlErr)
		}
	}
	return res, err
}

func (u *Updater) run(ctx context.Context, run *runlog.Run) (*Result, error) {
	slog.Info("Starting flag status update")

	resp, err := u.client.SearchProclamations(ctx)
	if err != nil {
		return nil, fmt.Errorf("search proclamations: %w", err)
	}
	run.InputTokens = resp.Usage.InputTokens
	run.OutputTokens = resp.Usage.OutputTokens

	now := u.now()
	st, strategy := flagstatus.ParseInference(resp.TextBlocks(), now)
	if strategy == flagstatus.ParseDefault {
		slog.Warn("Could not parse flag status, storing safe default")
	}
	st.Normalize(now)

	prev, err := u.previousStatus(ctx)
	if err != nil {
		return nil, err
	}

	if err := u.putJSON(ctx, store.KeyCurrent, &st); err != nil {
		return nil, fmt.Errorf("update current status: %w", err)
	}
	slog.Info("Updated current status", "status", st.Status, "reason", st.Reason)

	ix, err := u.loadIndex(ctx)
	if err != nil {
		return nil, err
	}
	ix.Apply(st)
	if err := u.putJSON(ctx, store.KeyIndex, &ix); err != nil {
		return nil, fmt.Errorf("update index: %w", err)
	}

	archived := false
	switch {
	case st.HalfStaff() && st.ProclamationID != "":
		key := store.ProclamationKey(now.UTC().Year(), st.ProclamationID)
		if err := u.putJSON(ctx, key, &st); err != nil {
			slog.Warn("Archive write failed", "key", key, "error", err)
		} else {
			archived = true
			slog.Info("Archived proclamation", "key", key)
		}
	case st.HalfStaff():
		slog.Warn("Half-staff record has no proclamation id, skipping archive")
	}

	changed := statusChanged(prev, st)
	if changed && u.notifier != nil && u.notifier.Len() > 0 {
		u.notifier.Dispatch(ctx, notify.Event{Previous: prev, Current: st})
	}

	run.Status = st.Status
	run.Reason = st.Reason
	run.ProclamationID = st.ProclamationID
	run.ParseStrategy = string(strategy)
	run.Changed = changed
	run.Archived = archived

	return &Result{
		Status:         st.Status,
		Reason:         st.Reason,
		ProclamationID: st.ProclamationID,
		LastUpdated:    st.LastUpdated,
		Strategy:       strategy,
		Changed:        changed,
		Archived:       archived,
		Usage:          resp.Usage,
	}, nil
}

// previousStatus loads the record about to be replaced. A corrupt stored
// record is treated as absent so one bad write cannot wedge every later
// run.
func (u *Updater) previousStatus(ctx context.Context) (*flagstatus.FlagStatus, error) {
	data, err := u.store.Get(ctx, store.KeyCurrent)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read previous status: %w", err)
	}
	var prev flagstatus.FlagStatus
	if err := json.Unmarshal(data, &prev); err != nil {
		slog.Warn("Previous status unreadable, treating as absent", "error", err)
		return nil, nil
	}
	return &prev, nil
}

// loadIndex starts from an empty index when the stored one is missing or
// corrupt. Backend read failures abort the run instead.
func (u *Updater) loadIndex(ctx context.Context) (flagstatus.ProclamationIndex, error) {
	data, err := u.store.Get(ctx, store.KeyIndex)
	if errors.Is(err, store.ErrNotFound) {
		return flagstatus.NewIndex(), nil
	}
	if err != nil {
		return flagstatus.ProclamationIndex{}, fmt.Errorf("read index: %w", err)
	}
	var ix flagstatus.ProclamationIndex
	if err := json.Unmarshal(data, &ix); err != nil {
		slog.Warn("Index corrupt, rebuilding", "error", err)
		return flagstatus.NewIndex(), nil
	}
	return ix, nil
}

func (u *Updater) putJSON(ctx context.Context, key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return u.store.Put(ctx, key, data)
}

// statusChanged reports whether the stored record meaningfully differs
// from its predecessor: a status flip, the first half-staff ever seen, or
// a different proclamation while staying at half-staff.
func statusChanged(prev *flagstatus.FlagStatus, cur flagstatus.FlagStatus) bool {
	if prev == nil {
		return cur.HalfStaff()
	}
	if prev.Status != cur.Status {
		return true
	}
	if cur.HalfStaff() && prev.ProclamationID != cur.ProclamationID {
		return true
	}
	return false
}
