package app

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"commitment_notifier/internal/domain/commitment"
	"commitment_notifier/internal/domain/company"
	"commitment_notifier/internal/domain/messaging"
	"commitment_notifier/internal/domain/notification"
	"commitment_notifier/internal/domain/user"
	idb "commitment_notifier/internal/infra/database"

	"gopkg.in/telebot.v3"
)

type fakeCommitmentRepo struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]*commitment.Commitment
	err    error
}

func newFakeCommitmentRepo(list ...*commitment.Commitment) *fakeCommitmentRepo {
	r := &fakeCommitmentRepo{items: map[int64]*commitment.Commitment{}, nextID: 100}
	for _, c := range list {
		r.items[c.ID] = c
	}
	return r
}

func (r *fakeCommitmentRepo) sorted() []*commitment.Commitment {
	out := make([]*commitment.Commitment, 0, len(r.items))
	for _, c := range r.items {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *fakeCommitmentRepo) Create(_ context.Context, c *commitment.Commitment) error {
	return r.CreateBatch(context.Background(), []*commitment.Commitment{c})
}

func (r *fakeCommitmentRepo) CreateBatch(_ context.Context, list []*commitment.Commitment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	for _, c := range list {
		r.nextID++
		c.ID = r.nextID
		r.items[c.ID] = c
	}
	return nil
}

func (r *fakeCommitmentRepo) GetByID(_ context.Context, id int64) (*commitment.Commitment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.items[id]
	if !ok {
		return nil, idb.ErrCommitmentNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCommitmentRepo) ListAll(_ context.Context) ([]*commitment.Commitment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(), r.err
}

func (r *fakeCommitmentRepo) ListByStatuses(_ context.Context, statuses []commitment.Status) ([]*commitment.Commitment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []*commitment.Commitment
	for _, c := range r.sorted() {
		for _, s := range statuses {
			if c.Status == s && !c.Orphaned {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func (r *fakeCommitmentRepo) ListUnpaidDueBetween(_ context.Context, from, to time.Time) ([]*commitment.Commitment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []*commitment.Commitment
	for _, c := range r.sorted() {
		if !c.DueDate.Valid || c.Status == commitment.StatusPaid || c.Orphaned {
			continue
		}
		if !c.DueDate.Time.Before(from) && c.DueDate.Time.Before(to) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCommitmentRepo) MarkPaid(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.items[id]
	if !ok {
		return idb.ErrCommitmentNotFound
	}
	c.Status = commitment.StatusPaid
	return nil
}

func (r *fakeCommitmentRepo) MarkOrphaned(_ context.Context, ids []int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, id := range ids {
		if c, ok := r.items[id]; ok {
			c.Orphaned = true
			n++
		}
	}
	return n, nil
}

func (r *fakeCommitmentRepo) ResetToPending(_ context.Context, ids []int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, id := range ids {
		if c, ok := r.items[id]; ok && c.Status == commitment.StatusPaid {
			c.Status = commitment.StatusPending
			n++
		}
	}
	return n, nil
}

type fakePaymentRepo struct {
	nextID int64
	items  []*commitment.Payment
}

func (r *fakePaymentRepo) Create(_ context.Context, p *commitment.Payment) error {
	r.nextID++
	p.ID = r.nextID
	r.items = append(r.items, p)
	return nil
}

func (r *fakePaymentRepo) ListByCommitment(_ context.Context, id int64) ([]*commitment.Payment, error) {
	var out []*commitment.Payment
	for _, p := range r.items {
		if p.CommitmentID == id {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) ListAll(_ context.Context) ([]*commitment.Payment, error) {
	return r.items, nil
}

func (r *fakePaymentRepo) Delete(_ context.Context, ids []int64) (int64, error) {
	del := map[int64]bool{}
	for _, id := range ids {
		del[id] = true
	}
	kept := r.items[:0]
	var n int64
	for _, p := range r.items {
		if del[p.ID] {
			n++
			continue
		}
		kept = append(kept, p)
	}
	r.items = kept
	return n, nil
}

type fakeCompanyRepo struct {
	items []*company.Company
}

func (r *fakeCompanyRepo) GetByID(_ context.Context, id int64) (*company.Company, error) {
	for _, c := range r.items {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, idb.ErrCompanyNotFound
}

func (r *fakeCompanyRepo) ListAll(_ context.Context) ([]*company.Company, error) {
	return r.items, nil
}

func (r *fakeCompanyRepo) ListWithContracts(_ context.Context) ([]*company.Company, error) {
	var out []*company.Company
	for _, c := range r.items {
		if c.ContractExpiration.Valid {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeUserRepo struct {
	items []*user.User
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*user.User, error) {
	for _, u := range r.items {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, idb.ErrUserNotFound
}

func (r *fakeUserRepo) ListWithNotificationChannels(_ context.Context) ([]*user.User, error) {
	var out []*user.User
	for _, u := range r.items {
		if u.IsActive && u.HasNotificationChannel() {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) ListSubscribedToNewCommitments(_ context.Context) ([]*user.User, error) {
	var out []*user.User
	for _, u := range r.items {
		if u.IsActive && u.NotificationSettings.NewCommitments {
			out = append(out, u)
		}
	}
	return out, nil
}

type fakeNotifRepo struct {
	mu   sync.Mutex
	logs []*notification.Log
	runs []*notification.Run
}

func (r *fakeNotifRepo) CreateLog(_ context.Context, l *notification.Log) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l.ID = int64(len(r.logs) + 1)
	r.logs = append(r.logs, l)
	return nil
}

func (r *fakeNotifRepo) ListLogsByRecipient(_ context.Context, recipient string, _ int) ([]*notification.Log, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*notification.Log
	for _, l := range r.logs {
		if l.Recipient == recipient {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *fakeNotifRepo) CreateRun(_ context.Context, run *notification.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if run.Kind == notification.RunKindDailyCheck {
		for _, existing := range r.runs {
			if existing.Kind == run.Kind && existing.RunDate.Equal(run.RunDate) {
				return idb.ErrRunAlreadyExists
			}
		}
	}
	run.ID = int64(len(r.runs) + 1)
	run.StartedAt = time.Now()
	r.runs = append(r.runs, run)
	return nil
}

func (r *fakeNotifRepo) FinishRun(_ context.Context, run *notification.Run) error {
	run.FinishedAt.Time, run.FinishedAt.Valid = time.Now(), true
	return nil
}

func (r *fakeNotifRepo) GetRunByDateAndKind(_ context.Context, runDate time.Time, kind notification.RunKind) (*notification.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.runs) - 1; i >= 0; i-- {
		run := r.runs[i]
		if run.Kind == kind && run.RunDate.Equal(runDate) {
			return run, nil
		}
	}
	return nil, idb.ErrRunNotFound
}

// fakeRelay scripts the relay's answers per route.
type fakeRelay struct {
	sendErr  map[messaging.Route]error
	initial  map[messaging.Route]string
	final    map[messaging.Route]string
	codes    map[messaging.Route]string
	sent     []messaging.Request
	fetches  int
	sidRoute map[string]messaging.Route
}

func newFakeRelay() *fakeRelay {
	return &fakeRelay{
		sendErr:  map[messaging.Route]error{},
		initial:  map[messaging.Route]string{},
		final:    map[messaging.Route]string{},
		codes:    map[messaging.Route]string{},
		sidRoute: map[string]messaging.Route{},
	}
}

func (f *fakeRelay) Send(_ context.Context, req messaging.Request) (*messaging.Message, error) {
	f.sent = append(f.sent, req)
	if err := f.sendErr[req.Route]; err != nil {
		return nil, err
	}
	sid := fmt.Sprintf("SM%d", len(f.sent))
	f.sidRoute[sid] = req.Route
	status := f.initial[req.Route]
	if status == "" {
		status = messaging.StatusQueued
	}
	return &messaging.Message{SID: sid, Status: status, To: req.To}, nil
}

func (f *fakeRelay) Fetch(_ context.Context, sid string) (*messaging.Message, error) {
	f.fetches++
	route := f.sidRoute[sid]
	status := f.final[route]
	if status == "" {
		status = messaging.StatusDelivered
	}
	return &messaging.Message{SID: sid, Status: status, ErrorCode: f.codes[route]}, nil
}

// fakeWhatsApp records dispatched WhatsApp messages and fails for listed phones.
type fakeWhatsApp struct {
	mu     sync.Mutex
	fail   map[string]bool
	sent   []sentMessage
	routes []messaging.Route
}

type sentMessage struct {
	To   string
	Type string
	Body string
}

func (f *fakeWhatsApp) SendText(_ context.Context, phone, body, typeID string) (*DeliveryResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{To: phone, Type: typeID, Body: body})
	if f.fail[phone] {
		return nil, ErrDeliveryFailed
	}
	return &DeliveryResult{To: phone, Route: messaging.RoutePrimary, Delivered: true}, nil
}

func (f *fakeWhatsApp) SendTemplate(_ context.Context, phone, contentSID string, _ map[string]string) (*DeliveryResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{To: phone, Type: notification.TypeTemplate, Body: contentSID})
	return &DeliveryResult{To: phone, Delivered: true}, nil
}

func (f *fakeWhatsApp) SendVia(_ context.Context, route messaging.Route, phone, body, typeID string) (*DeliveryResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes = append(f.routes, route)
	f.sent = append(f.sent, sentMessage{To: phone, Type: typeID, Body: body})
	return &DeliveryResult{To: phone, Route: route, Delivered: true}, nil
}

func (f *fakeWhatsApp) count(typeID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.sent {
		if m.Type == typeID {
			n++
		}
	}
	return n
}

type fakeTelegram struct {
	chats []int64
	err   error
}

func (f *fakeTelegram) SendMessage(chatID int64, _ string, _ *telebot.SendOptions) error {
	f.chats = append(f.chats, chatID)
	return f.err
}

type fakeMailer struct {
	to       []string
	subjects []string
}

func (f *fakeMailer) Send(_ context.Context, to, subject, _ string) error {
	f.to = append(f.to, to)
	f.subjects = append(f.subjects, subject)
	return nil
}
