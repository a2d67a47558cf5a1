package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/NIN31/hdattendance/models"
)

// DefaultCooldown is the minimum interval between accepted sign-ins from one browser.
const DefaultCooldown = 8 * time.Hour

// Reason explains a denied submission.
type Reason string

const (
	ReasonNone           Reason = ""
	ReasonIPNotAllowed   Reason = "ip-not-allowed"
	ReasonCooldownActive Reason = "cooldown-active"
	ReasonInvalidAction  Reason = "invalid-action"
)

// CooldownToken is the client-held proof of the last accepted sign-in.
// The zero value means no token.
type CooldownToken struct {
	IssuedAt time.Time
}

// IsZero reports whether the token is absent.
func (t CooldownToken) IsZero() bool {
	return t.IssuedAt.IsZero()
}

// String encodes the token as fractional seconds since the epoch.
func (t CooldownToken) String() string {
	if t.IsZero() {
		return ""
	}
	secs := float64(t.IssuedAt.UnixNano()) / float64(time.Second)
	return strconv.FormatFloat(secs, 'f', 6, 64)
}

// ParseCooldownToken decodes a cookie value. An empty value yields the zero
// token; anything that is not a finite, non-negative number is ErrMalformedToken.
func ParseCooldownToken(raw string) (CooldownToken, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return CooldownToken{}, nil
	}
	secs, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(secs) || math.IsInf(secs, 0) || secs < 0 {
		return CooldownToken{}, fmt.Errorf("%w: %q", ErrMalformedToken, raw)
	}
	whole, frac := math.Modf(secs)
	return CooldownToken{IssuedAt: time.Unix(int64(whole), int64(frac*float64(time.Second)))}, nil
}

// Decision is the outcome of a cooldown evaluation.
type Decision struct {
	Permit         bool
	Reason         Reason
	IssueToken     bool
	BypassConsumed bool
}

// CooldownPolicy throttles sign-ins per client token.
type CooldownPolicy struct {
	Window time.Duration
	Now    func() time.Time
}

// NewCooldownPolicy returns a policy with the given window, falling back to DefaultCooldown.
func NewCooldownPolicy(window time.Duration) *CooldownPolicy {
	if window <= 0 {
		window = DefaultCooldown
	}
	return &CooldownPolicy{Window: window, Now: time.Now}
}

func (p *CooldownPolicy) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

// Evaluate decides whether action may proceed. Sign-outs are never throttled.
// A sign-in is permitted when bypass is set (consuming it), when there is no
// token, or when at least Window has elapsed since the token was issued.
func (p *CooldownPolicy) Evaluate(action models.Action, token CooldownToken, bypass bool) Decision {
	switch action {
	case models.ActionSignOut:
		return Decision{Permit: true}
	case models.ActionSignIn:
		if bypass {
			return Decision{Permit: true, IssueToken: true, BypassConsumed: true}
		}
		if token.IsZero() {
			return Decision{Permit: true, IssueToken: true}
		}
		elapsedHours := p.now().Sub(token.IssuedAt).Seconds() / 3600
		if elapsedHours >= p.Window.Hours() {
			return Decision{Permit: true, IssueToken: true}
		}
		return Decision{Reason: ReasonCooldownActive}
	default:
		return Decision{Reason: ReasonInvalidAction}
	}
}

// IssueToken stamps a fresh token at now.
func (p *CooldownPolicy) IssueToken(now time.Time) CooldownToken {
	return CooldownToken{IssuedAt: now}
}
