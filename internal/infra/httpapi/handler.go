package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"commitment_notifier/internal/app"
	"commitment_notifier/internal/domain/commitment"
	"commitment_notifier/internal/domain/notification"
	idb "commitment_notifier/internal/infra/database"
	"commitment_notifier/internal/infra/export"
	"commitment_notifier/internal/infra/whatsapp"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// DueLister lists the commitments that need attention.
type DueLister interface {
	ListActive(ctx context.Context, now time.Time) ([]app.ActiveCommitment, error)
	Location() *time.Location
}

type CommitmentWriter interface {
	Create(ctx context.Context, in app.CreateCommitmentInput) ([]*commitment.Commitment, error)
	RegisterPayment(ctx context.Context, commitmentID int64, p *commitment.Payment) (*commitment.Commitment, error)
}

// MessageSender sends manual WhatsApp messages.
type MessageSender interface {
	SendTest(ctx context.Context, phone, message string, forceFallback bool) (*app.DeliveryResult, error)
	SendTemplate(ctx context.Context, phone, contentSID string, variables map[string]string) (*app.DeliveryResult, error)
}

// RunTrigger starts a dispatch run immediately.
type RunTrigger interface {
	RunNow(ctx context.Context) (*notification.Run, error)
}

// Handler serves the dashboard API.
type Handler struct {
	due         DueLister
	commitments CommitmentWriter
	sender      MessageSender
	runs        RunTrigger
	logger      *logrus.Entry
	now         func() time.Time
}

func NewHandler(due DueLister, commitments CommitmentWriter, sender MessageSender, runs RunTrigger, logger *logrus.Entry) *Handler {
	return &Handler{
		due:         due,
		commitments: commitments,
		sender:      sender,
		runs:        runs,
		logger:      logger,
		now:         time.Now,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// fail maps service errors to HTTP statuses.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, app.ErrInvalidCommitment),
		errors.Is(err, app.ErrInvalidPayment),
		errors.Is(err, app.ErrInvalidNotificationRequest),
		errors.Is(err, whatsapp.ErrInvalidPhone):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, idb.ErrCommitmentNotFound), errors.Is(err, idb.ErrCompanyNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrCommitmentAlreadyPaid):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrDeliveryFailed):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		h.logger.WithError(err).WithField("request_id", RequestIDFromContext(r.Context())).Error("Unhandled API error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type commitmentView struct {
	ID           int64           `json:"id"`
	CompanyID    int64           `json:"companyId"`
	Concept      string          `json:"concept"`
	Beneficiary  string          `json:"beneficiary,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	DueDate      *time.Time      `json:"dueDate"`
	Status       string          `json:"status"`
	Priority     string          `json:"priority"`
	Periodicity  string          `json:"periodicity"`
	Instance     int             `json:"instance,omitempty"`
	Instances    int             `json:"instances,omitempty"`
	Attention    string          `json:"attentionStatus,omitempty"`
	DaysUntilDue *int            `json:"daysUntilDue,omitempty"`
}

func toView(c *commitment.Commitment) commitmentView {
	v := commitmentView{
		ID:          c.ID,
		CompanyID:   c.CompanyID,
		Concept:     c.Concept,
		Beneficiary: c.Beneficiary,
		Amount:      c.Amount,
		Status:      string(c.Status),
		Priority:    string(c.Priority),
		Periodicity: string(c.Periodicity),
		Instance:    c.InstanceNumber,
		Instances:   c.TotalInstances,
	}
	if c.DueDate.Valid {
		t := c.DueDate.Time
		v.DueDate = &t
	}
	return v
}

type statsView struct {
	Total         int             `json:"total"`
	Overdue       int             `json:"overdue"`
	DueSoon       int             `json:"dueSoon"`
	Upcoming      int             `json:"upcoming"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	OverdueAmount decimal.Decimal `json:"overdueAmount"`
	AverageAmount decimal.Decimal `json:"averageAmount"`
}

func (h *Handler) activeList(r *http.Request) ([]app.ActiveCommitment, error) {
	list, err := h.due.ListActive(r.Context(), h.now())
	if err != nil {
		return nil, err
	}
	q := r.URL.Query()
	list = app.ByPriority(list, q.Get("priority"))
	return app.ByStatus(list, q.Get("status")), nil
}

// ListDue returns the active commitments and their statistics.
func (h *Handler) ListDue(w http.ResponseWriter, r *http.Request) {
	list, err := h.activeList(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	views := make([]commitmentView, 0, len(list))
	for _, a := range list {
		v := toView(a.Commitment)
		// The effective priority replaces the stored one in this view.
		v.Priority = string(a.Classification.Priority)
		v.Attention = string(a.Classification.Status)
		days := a.Classification.DaysUntilDue
		v.DaysUntilDue = &days
		views = append(views, v)
	}
	st := app.Stats(list)
	writeJSON(w, http.StatusOK, map[string]any{
		"commitments": views,
		"stats":       statsView(st),
	})
}

// ExportDue streams the active list as an .xlsx workbook.
func (h *Handler) ExportDue(w http.ResponseWriter, r *http.Request) {
	list, err := h.activeList(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	generatedAt := h.now().In(h.due.Location())

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=vencimientos_%s.xlsx", generatedAt.Format("2006-01-02")))
	if err := export.WriteDueCommitments(w, list, app.Stats(list), generatedAt); err != nil {
		h.logger.WithError(err).Error("Failed to write export")
	}
}

type createCommitmentRequest struct {
	CompanyID    int64           `json:"companyId"`
	Concept      string          `json:"concept"`
	Beneficiary  string          `json:"beneficiary"`
	Amount       decimal.Decimal `json:"amount"`
	DueDate      string          `json:"dueDate"`
	Periodicity  string          `json:"periodicity"`
	Priority     string          `json:"priority"`
	Category     string          `json:"category"`
	Observations string          `json:"observations"`
	Instances    int             `json:"instances"`
}

// parseDueDate reads dates without a zone in loc.
func parseDueDate(s string, loc *time.Location) (time.Time, error) {
	return commitment.ParseDueDate(s, loc)
}

func (h *Handler) CreateCommitment(w http.ResponseWriter, r *http.Request) {
	var req createCommitmentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	due, err := parseDueDate(req.DueDate, h.due.Location())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.commitments.Create(r.Context(), app.CreateCommitmentInput{
		CompanyID:    req.CompanyID,
		Concept:      req.Concept,
		Beneficiary:  req.Beneficiary,
		Amount:       req.Amount,
		DueDate:      due,
		Periodicity:  commitment.Periodicity(req.Periodicity),
		Priority:     commitment.Priority(req.Priority),
		Category:     req.Category,
		Observations: req.Observations,
		Instances:    req.Instances,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	views := make([]commitmentView, 0, len(created))
	for _, c := range created {
		views = append(views, toView(c))
	}
	h.logger.WithFields(logrus.Fields{
		"subject": SubjectFromContext(r.Context()),
		"count":   len(created),
	}).Info("Commitments created")
	writeJSON(w, http.StatusCreated, map[string]any{"commitments": views})
}

type paymentRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method"`
	Reference   string          `json:"reference"`
	Attachments []string        `json:"attachments"`
	Notes       string          `json:"notes"`
	PaidAt      *time.Time      `json:"paidAt"`
}

func (h *Handler) RegisterPayment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid commitment id")
		return
	}
	var req paymentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p := &commitment.Payment{
		Amount:      req.Amount,
		Method:      req.Method,
		Reference:   req.Reference,
		Attachments: req.Attachments,
		Notes:       req.Notes,
	}
	if req.PaidAt != nil {
		p.PaidAt = *req.PaidAt
	}
	updated, err := h.commitments.RegisterPayment(r.Context(), id, p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"paymentId":  p.ID,
		"commitment": toView(updated),
	})
}

type testMessageRequest struct {
	PhoneNumber   string `json:"phoneNumber"`
	Message       string `json:"message"`
	ForceFallback bool   `json:"forceFallback"`
}

type templateMessageRequest struct {
	PhoneNumber string            `json:"phoneNumber"`
	ContentSID  string            `json:"contentSid"`
	Variables   map[string]string `json:"variables"`
}

type deliveryView struct {
	Success       bool   `json:"success"`
	To            string `json:"to,omitempty"`
	Route         string `json:"route,omitempty"`
	MessageSID    string `json:"messageSid,omitempty"`
	InitialStatus string `json:"initialStatus,omitempty"`
	FinalStatus   string `json:"finalStatus,omitempty"`
	ErrorCode     string `json:"errorCode,omitempty"`
	UsedFallback  bool   `json:"usedFallback"`
	Error         string `json:"error,omitempty"`
}

func toDeliveryView(res *app.DeliveryResult, err error) deliveryView {
	v := deliveryView{Success: err == nil}
	if res != nil {
		v.To = res.To
		v.Route = string(res.Route)
		v.MessageSID = res.MessageSID
		v.InitialStatus = res.InitialStatus
		v.FinalStatus = res.FinalStatus
		v.ErrorCode = res.ErrorCode
		v.UsedFallback = res.UsedFallback
	}
	if err != nil {
		v.Error = err.Error()
	}
	return v
}

// writeDelivery reports a failed delivery with its details when the relay was reached.
func (h *Handler) writeDelivery(w http.ResponseWriter, r *http.Request, res *app.DeliveryResult, err error) {
	if err != nil && (res == nil || !errors.Is(err, app.ErrDeliveryFailed)) {
		h.fail(w, r, err)
		return
	}
	status := http.StatusOK
	if err != nil {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, toDeliveryView(res, err))
}

func (h *Handler) SendTestMessage(w http.ResponseWriter, r *http.Request) {
	var req testMessageRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.sender.SendTest(r.Context(), req.PhoneNumber, req.Message, req.ForceFallback)
	h.writeDelivery(w, r, res, err)
}

func (h *Handler) SendTemplateMessage(w http.ResponseWriter, r *http.Request) {
	var req templateMessageRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.sender.SendTemplate(r.Context(), req.PhoneNumber, req.ContentSID, req.Variables)
	h.writeDelivery(w, r, res, err)
}

func (h *Handler) RunNotifications(w http.ResponseWriter, r *http.Request) {
	run, err := h.runs.RunNow(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	resp := map[string]any{
		"id":        run.ID,
		"kind":      run.Kind,
		"runDate":   run.RunDate.Format("2006-01-02"),
		"sent":      run.Sent,
		"failed":    run.Failed,
		"startedAt": run.StartedAt,
	}
	if run.FinishedAt.Valid {
		resp["finishedAt"] = run.FinishedAt.Time
	}
	writeJSON(w, http.StatusOK, resp)
}
