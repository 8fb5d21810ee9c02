package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/unneeks/stewardagent/pkg/reasoning"
)

// NoRisksSentinel is the reply that means "nothing found".
const NoRisksSentinel = "NO RISKS"

const promptTemplate = `You are a data governance assistant. Analyze the following SQL query for data quality or semantic risks.
Look only for:
1. Use of CAST() which might lose precision or hide invalid types.
2. Use of COALESCE() or IFNULL() which might silently mask NULL values from downstream rules.
3. Use of JOINs without deduplication which might cause row fan-out or duplicate entries.

SQL:
` + "```sql\n%s\n```" + `

For each risk found, return exactly one of these lines:
- ` + MsgUnsafeCast + `
- ` + MsgNullMasking + `
- ` + MsgUnsafeJoin + `
If there are no risks, return exactly "` + NoRisksSentinel + `".`

// errMalformedReply marks a reply with neither recognizable findings nor
// the sentinel.
var errMalformedReply = errors.New("reply contained no recognizable findings")

// Delegating asks an external reasoning service for findings and falls
// back to the heuristic scanner on any failure.
type Delegating struct {
	completer  reasoning.Completer
	fallback   *Heuristic
	timeout    time.Duration
	onFallback func(reason string)
	logger     *slog.Logger
}

// DelegatingOption configures a Delegating scanner.
type DelegatingOption func(*Delegating)

// WithTimeout bounds the reasoning call.
func WithTimeout(d time.Duration) DelegatingOption {
	return func(s *Delegating) { s.timeout = d }
}

// WithFallbackHook is called with a short reason whenever the heuristic
// fallback is used.
func WithFallbackHook(fn func(reason string)) DelegatingOption {
	return func(s *Delegating) { s.onFallback = fn }
}

// NewDelegating creates a Delegating scanner. A nil completer always falls
// back.
func NewDelegating(c reasoning.Completer, opts ...DelegatingOption) *Delegating {
	s := &Delegating{
		completer: c,
		fallback:  NewHeuristic(),
		timeout:   15 * time.Second,
		logger:    slog.Default().With("component", "scanner"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan never returns an error: reasoning failures degrade to heuristics.
func (s *Delegating) Scan(ctx context.Context, artifactText string) ([]string, error) {
	if s.completer == nil {
		return s.fallbackScan(artifactText, "no_client", nil), nil
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reply, err := s.completer.Complete(callCtx, fmt.Sprintf(promptTemplate, artifactText))
	if err != nil {
		reason := "error"
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			reason = "timeout"
		}
		var te *reasoning.TimeoutError
		if errors.As(err, &te) {
			reason = "timeout"
		}
		return s.fallbackScan(artifactText, reason, err), nil
	}

	findings, err := ParseReply(reply)
	if err != nil {
		return s.fallbackScan(artifactText, "malformed", err), nil
	}

	s.logger.Debug("delegated scan completed", "findings", len(findings))
	return findings, nil
}

func (s *Delegating) fallbackScan(text, reason string, cause error) []string {
	if cause != nil {
		s.logger.Warn("reasoning service unavailable, using heuristics", "reason", reason, "error", cause)
	} else {
		s.logger.Debug("no reasoning client configured, using heuristics")
	}
	if s.onFallback != nil {
		s.onFallback(reason)
	}
	return s.fallback.scan(text)
}

// ParseReply maps a service reply to canonical findings. A reply carrying
// the sentinel yields no findings; lines outside the three categories are
// ignored, and a reply with no recognizable line is malformed.
func ParseReply(reply string) ([]string, error) {
	if strings.Contains(reply, NoRisksSentinel) {
		return []string{}, nil
	}
	found := map[string]struct{}{}
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(strings.Trim(strings.TrimSpace(line), "-*•"))
		if line == "" {
			continue
		}
		upper := strings.ToUpper(line)
		switch {
		case strings.Contains(upper, "CAST"):
			found[MsgUnsafeCast] = struct{}{}
		case strings.Contains(upper, "COALESCE") || strings.Contains(upper, "IFNULL"):
			found[MsgNullMasking] = struct{}{}
		case strings.Contains(upper, "JOIN"):
			found[MsgUnsafeJoin] = struct{}{}
		}
	}
	if len(found) == 0 {
		return nil, errMalformedReply
	}
	return sortedKeys(found), nil
}
