package updater

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/FlagWatch/FlagWatch/internal/flagstatus"
	"github.com/FlagWatch/FlagWatch/internal/inference"
	"github.com/FlagWatch/FlagWatch/internal/notify"
	"github.com/FlagWatch/FlagWatch/internal/runlog"
	"github.com/FlagWatch/FlagWatch/internal/store"
)

var testNow = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

type fakeClient struct {
	resp  *inference.Response
	err   error
	calls int
}

func (f *fakeClient) SearchProclamations(ctx context.Context) (*inference.Response, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func textResponse(blocks ...string) *inference.Response {
	r := &inference.Response{
		StopReason: "end_turn",
		Usage:      inference.Usage{InputTokens: 100, OutputTokens: 40},
	}
	for _, b := range blocks {
		r.Content = append(r.Content, inference.ContentBlock{Type: "text", Text: b})
	}
	return r
}

func newUpdater(s store.Store, c inference.Client) *Updater {
	return New(Options{
		Store:  s,
		Client: c,
		Now:    func() time.Time { return testNow },
	})
}

func getJSON(t *testing.T, s store.Store, key string, v any) {
	t.Helper()
	data, err := s.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("Get(%s): %v", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("unmarshal %s: %v", key, err)
	}
}

func TestRunHalfStaff(t *testing.T) {
	s := store.NewMemoryStore()
	client := &fakeClient{resp: textResponse(
		"Checking whitehouse.gov for active proclamations.",
		`Found one: {"status":"half_staff","reason":"Honoring former President X","proclamation_id":"2025-01-x","proclamation_url":"https://whitehouse.gov/p/1","start_date":"2025-01-01","end_date":"2025-01-30","duration_days":30,"trigger_type":"death"}`,
	)}
	u := newUpdater(s, client)

	res, err := u.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Status != flagstatus.StatusHalfStaff || res.ProclamationID != "2025-01-x" {
		t.Errorf("result = %+v", res)
	}
	if res.Strategy != flagstatus.ParseEmbedded {
		t.Errorf("strategy = %q", res.Strategy)
	}
	if !res.Changed || !res.Archived {
		t.Errorf("changed = %v archived = %v", res.Changed, res.Archived)
	}
	if res.Usage.InputTokens != 100 {
		t.Errorf("usage = %+v", res.Usage)
	}

	var cur flagstatus.FlagStatus
	getJSON(t, s, store.KeyCurrent, &cur)
	if cur.Status != flagstatus.StatusHalfStaff {
		t.Errorf("current status = %q", cur.Status)
	}
	if cur.LastUpdated != "2025-01-02T03:04:05Z" {
		t.Errorf("last_updated = %q", cur.LastUpdated)
	}

	var ix flagstatus.ProclamationIndex
	getJSON(t, s, store.KeyIndex, &ix)
	if len(ix.ActiveProclamations) != 1 || ix.ActiveProclamations[0] != "2025-01-x" {
		t.Errorf("active = %v", ix.ActiveProclamations)
	}
	if len(ix.RecentProclamations) != 1 {
		t.Errorf("recent = %v", ix.RecentProclamations)
	}

	var arch flagstatus.FlagStatus
	getJSON(t, s, "proclamations/2025/2025-01-x.json", &arch)
	if arch.ProclamationID != "2025-01-x" {
		t.Errorf("archived = %+v", arch)
	}
}

func TestRunStoresPrettyJSON(t *testing.T) {
	s := store.NewMemoryStore()
	client := &fakeClient{resp: textResponse(`{"status":"full_staff","reason":"No active proclamations"}`)}
	u := newUpdater(s, client)
	if _, err := u.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	data, err := s.Get(context.Background(), store.KeyCurrent)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "\n  \"status\"") {
		t.Errorf("current.json not indented: %s", data)
	}
}

func TestRunFullStaffSkipsArchive(t *testing.T) {
	s := store.NewMemoryStore()
	client := &fakeClient{resp: textResponse(`{"status":"full_staff","reason":"No active proclamations"}`)}
	u := newUpdater(s, client)

	res, err := u.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Archived {
		t.Error("full staff run should not archive")
	}
	keys, err := s.List(context.Background(), store.PrefixProclamations)
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 0 {
		t.Errorf("archive keys = %v", keys)
	}
	var ix flagstatus.ProclamationIndex
	getJSON(t, s, store.KeyIndex, &ix)
	if len(ix.ActiveProclamations) != 0 {
		t.Errorf("active = %v", ix.ActiveProclamations)
	}
}

func TestRunParseFailureStoresSafeDefault(t *testing.T) {
	s := store.NewMemoryStore()
	client := &fakeClient{resp: textResponse("I could not find structured data, sorry.")}
	u := newUpdater(s, client)

	res, err := u.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Strategy != flagstatus.ParseDefault {
		t.Errorf("strategy = %q", res.Strategy)
	}
	var cur flagstatus.FlagStatus
	getJSON(t, s, store.KeyCurrent, &cur)
	if cur.Status != flagstatus.StatusFullStaff {
		t.Errorf("status = %q", cur.Status)
	}
	if cur.Reason != flagstatus.ReasonParseFailure {
		t.Errorf("reason = %q", cur.Reason)
	}
	if cur.ProclamationURL != nil {
		t.Errorf("proclamation_url = %v, want null", *cur.ProclamationURL)
	}
}

func TestRunInferenceFailureLeavesStoreUntouched(t *testing.T) {
	s := store.NewMemoryStore()
	client := &fakeClient{err: errors.New("model unavailable")}
	u := newUpdater(s, client)

	_, err := u.Run(context.Background())
	if err == nil {
		t.Fatal("want error")
	}
	if s.Len() != 0 {
		t.Errorf("store has %d documents after failed run", s.Len())
	}
}

type faultStore struct {
	*store.MemoryStore
	failPrefix string
}

func (f *faultStore) Put(ctx context.Context, key string, data []byte) error {
	if strings.HasPrefix(key, f.failPrefix) {
		return errors.New("backend down")
	}
	return f.MemoryStore.Put(ctx, key, data)
}

func TestRunCurrentWriteFailureAborts(t *testing.T) {
	s := &faultStore{MemoryStore: store.NewMemoryStore(), failPrefix: store.KeyCurrent}
	client := &fakeClient{resp: textResponse(`{"status":"full_staff"}`)}
	u := newUpdater(s, client)

	_, err := u.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "update current status") {
		t.Fatalf("err = %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("store has %d documents", s.Len())
	}
}

func TestRunIndexWriteFailureAborts(t *testing.T) {
	s := &faultStore{MemoryStore: store.NewMemoryStore(), failPrefix: store.KeyIndex}
	client := &fakeClient{resp: textResponse(`{"status":"full_staff"}`)}
	u := newUpdater(s, client)

	_, err := u.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "update index") {
		t.Fatalf("err = %v", err)
	}
}

func TestRunArchiveFailureIsNonFatal(t *testing.T) {
	s := &faultStore{MemoryStore: store.NewMemoryStore(), failPrefix: store.PrefixProclamations}
	client := &fakeClient{resp: textResponse(`{"status":"half_staff","reason":"Honoring X","proclamation_id":"2025-01-x"}`)}
	u := newUpdater(s, client)

	res, err := u.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Archived {
		t.Error("archived reported true despite write failure")
	}
	var cur flagstatus.FlagStatus
	getJSON(t, s, store.KeyCurrent, &cur)
	if cur.Status != flagstatus.StatusHalfStaff {
		t.Errorf("current status = %q", cur.Status)
	}
}

type recNotifier struct {
	events []notify.Event
}

func (r *recNotifier) Name() string { return "rec" }

func (r *recNotifier) Notify(ctx context.Context, ev notify.Event) error {
	r.events = append(r.events, ev)
	return nil
}

func TestRunNotifiesOnTransitionsOnly(t *testing.T) {
	s := store.NewMemoryStore()
	client := &fakeClient{resp: textResponse(`{"status":"full_staff","reason":"No active proclamations"}`)}
	rec := &recNotifier{}
	u := New(Options{
		Store:    s,
		Client:   client,
		Notifier: notify.NewDispatcher(rec),
		Now:      func() time.Time { return testNow },
	})
	ctx := context.Background()

	// First run lands at full staff: nothing to announce.
	if _, err := u.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if len(rec.events) != 0 {
		t.Fatalf("events after full staff first run = %d", len(rec.events))
	}

	// Flags lowered.
	client.resp = textResponse(`{"status":"half_staff","reason":"Honoring X","proclamation_id":"id-a"}`)
	if _, err := u.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if len(rec.events) != 1 || !rec.events[0].Lowered() {
		t.Fatalf("events = %+v", rec.events)
	}

	// Same proclamation again: no event.
	if _, err := u.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if len(rec.events) != 1 {
		t.Fatalf("events after repeat run = %d", len(rec.events))
	}

	// A different proclamation while still at half-staff.
	client.resp = textResponse(`{"status":"half_staff","reason":"Honoring Y","proclamation_id":"id-b"}`)
	if _, err := u.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if len(rec.events) != 2 {
		t.Fatalf("events after new proclamation = %d", len(rec.events))
	}

	// Flags raised.
	client.resp = textResponse(`{"status":"full_staff","reason":"No active proclamations"}`)
	if _, err := u.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if len(rec.events) != 3 || !rec.events[2].Raised() {
		t.Fatalf("events = %+v", rec.events)
	}
}

func TestRunIndexAccumulatesAcrossRuns(t *testing.T) {
	s := store.NewMemoryStore()
	client := &fakeClient{resp: textResponse(`{"status":"half_staff","reason":"A","proclamation_id":"id-a"}`)}
	u := newUpdater(s, client)
	ctx := context.Background()

	if _, err := u.Run(ctx); err != nil {
		t.Fatal(err)
	}
	client.resp = textResponse(`{"status":"half_staff","reason":"B","proclamation_id":"id-b"}`)
	if _, err := u.Run(ctx); err != nil {
		t.Fatal(err)
	}

	var ix flagstatus.ProclamationIndex
	getJSON(t, s, store.KeyIndex, &ix)
	if len(ix.RecentProclamations) != 2 || ix.RecentProclamations[0] != "id-b" {
		t.Errorf("recent = %v", ix.RecentProclamations)
	}
}

func TestRunRecordsHistory(t *testing.T) {
	rl, err := runlog.Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer rl.Close()

	s := store.NewMemoryStore()
	client := &fakeClient{resp: textResponse(`{"status":"half_staff","reason":"Honoring X","proclamation_id":"2025-01-x"}`)}
	u := New(Options{
		Store:  s,
		Client: client,
		RunLog: rl,
		Now:    func() time.Time { return testNow },
	})
	if _, err := u.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	last, err := rl.LastRun()
	if err != nil {
		t.Fatal(err)
	}
	if last == nil {
		t.Fatal("no run recorded")
	}
	if last.Outcome != runlog.OutcomeOK || last.Status != "half_staff" {
		t.Errorf("last = %+v", last)
	}
	if last.ParseStrategy != "embedded" || !last.Archived {
		t.Errorf("last = %+v", last)
	}
	if last.InputTokens != 100 {
		t.Errorf("input tokens = %d", last.InputTokens)
	}

	// A failing run is recorded with its error.
	client.err = errors.New("model unavailable")
	if _, err := u.Run(context.Background()); err == nil {
		t.Fatal("want error")
	}
	last, err = rl.LastRun()
	if err != nil {
		t.Fatal(err)
	}
	if last.Outcome != runlog.OutcomeError || !strings.Contains(last.ErrorText, "model unavailable") {
		t.Errorf("last = %+v", last)
	}
}
