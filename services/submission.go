package services

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/NIN31/hdattendance/models"
	"github.com/NIN31/hdattendance/utils"
)

const maxNameLength = 100

// Status is the overall result of a submission.
type Status int

const (
	StatusAccepted Status = iota + 1
	StatusDenied
)

func (s Status) String() string {
	switch s {
	case StatusAccepted:
		return "accepted"
	case StatusDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// SubmitRequest is one attendance event as received from a client.
type SubmitRequest struct {
	Name      string
	Action    string
	ClientIP  string
	Token     string // raw cooldown cookie value
	BrowserID string
	Bypass    bool // the requester holds a restriction reset
	Gated     bool // apply the IP allow-list
}

// Outcome reports what happened to a submission. NewToken is set only for
// accepted sign-ins; BypassConsumed tells the caller to clear the reset flag.
type Outcome struct {
	Status         Status
	Reason         Reason
	Record         models.Attendance
	NewToken       CooldownToken
	BypassConsumed bool
}

// SubmissionService is the single entry point for both submission endpoints.
type SubmissionService struct {
	gate   *AccessGate
	policy *CooldownPolicy
	store  *RecordStore
}

// NewSubmissionService wires the gate, policy and store together.
func NewSubmissionService(gate *AccessGate, policy *CooldownPolicy, store *RecordStore) *SubmissionService {
	return &SubmissionService{gate: gate, policy: policy, store: store}
}

// Submit processes one event. Expected refusals come back as a Denied outcome;
// an error means the name was invalid or the store failed.
func (s *SubmissionService) Submit(ctx context.Context, req SubmitRequest) (Outcome, error) {
	if req.Gated && !s.gate.IsAllowed(req.ClientIP) {
		utils.Logger.Info("submission refused by allow-list", zap.String("client_ip", req.ClientIP))
		return s.deny("", ReasonIPNotAllowed), nil
	}

	name, err := normalizeName(req.Name)
	if err != nil {
		return Outcome{}, err
	}

	action, err := models.ParseAction(req.Action)
	if err != nil {
		utils.Logger.Info("submission with unknown action", zap.String("action", req.Action))
	}

	token := s.resolveToken(ctx, action, req)
	decision := s.policy.Evaluate(action, token, req.Bypass)
	if !decision.Permit {
		return s.deny(action, decision.Reason), nil
	}

	now := s.policy.now()
	rec := models.Attendance{
		Name:      name,
		Action:    action,
		Timestamp: now,
		BrowserID: req.BrowserID,
		ClientIP:  req.ClientIP,
	}
	if err := s.store.CreateSubmission(ctx, &rec, decision.IssueToken); err != nil {
		utils.SubmissionsTotal.WithLabelValues(actionLabel(action), "error").Inc()
		return Outcome{}, err
	}

	out := Outcome{Status: StatusAccepted, Record: rec, BypassConsumed: decision.BypassConsumed}
	if decision.IssueToken {
		out.NewToken = s.policy.IssueToken(now)
	}
	utils.SubmissionsTotal.WithLabelValues(actionLabel(action), StatusAccepted.String()).Inc()
	utils.Logger.Info("attendance recorded",
		zap.Uint("id", rec.ID),
		zap.String("action", string(action)),
		zap.Bool("bypass", decision.BypassConsumed),
		zap.Bool("gated", req.Gated),
	)
	return out, nil
}

// resolveToken parses the cookie and drops it when unreadable or cleared by an admin.
func (s *SubmissionService) resolveToken(ctx context.Context, action models.Action, req SubmitRequest) CooldownToken {
	if action != models.ActionSignIn {
		return CooldownToken{}
	}
	token, err := ParseCooldownToken(req.Token)
	if err != nil {
		utils.Logger.Warn("ignoring cooldown token", zap.Error(err))
		return CooldownToken{}
	}
	if token.IsZero() || req.BrowserID == "" {
		return token
	}
	r, err := s.store.Restriction(ctx, req.BrowserID)
	switch {
	case errors.Is(err, ErrRestrictionNotFound):
		return token
	case err != nil:
		utils.Logger.Warn("restriction lookup failed", zap.String("browser_id", req.BrowserID), zap.Error(err))
		return token
	case r.Overrides(token.IssuedAt):
		return CooldownToken{}
	}
	return token
}

func (s *SubmissionService) deny(action models.Action, reason Reason) Outcome {
	utils.SubmissionsTotal.WithLabelValues(actionLabel(action), string(reason)).Inc()
	return Outcome{Status: StatusDenied, Reason: reason}
}

func normalizeName(raw string) (string, error) {
	name := utils.SanitizeText(raw)
	if n := utf8.RuneCountInString(name); n == 0 || n > maxNameLength {
		return "", fmt.Errorf("%w: got %d", ErrInvalidName, n)
	}
	return name, nil
}

func actionLabel(a models.Action) string {
	switch a {
	case models.ActionSignIn:
		return "sign_in"
	case models.ActionSignOut:
		return "sign_out"
	default:
		return "invalid"
	}
}
