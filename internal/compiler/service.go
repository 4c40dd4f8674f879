package compiler

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"identity-compiler/internal/common/logger"
	"identity-compiler/internal/common/metrics"
	"identity-compiler/internal/common/observability"
	"identity-compiler/internal/intake"
)

// Request is one compile cycle. Form is optional; when set its problems are
// reported in Result.FormWarnings and never stop the cycle.
type Request struct {
	Mode Mode
	Text string
	Form *intake.Form
}

// Result is a successful cycle. Response carries the normalized verdict.
type Result struct {
	CycleID  string
	Response *CompilerResponse
	Verdict  string
	ApplyNow bool
	Duration time.Duration

	// FormWarnings lists intake fields that would be rejected by /prompt.
	FormWarnings []string
}

// Service runs compile cycles with logging, metrics and tracing around the
// pure pipeline in CompileText.
type Service struct {
	logger        logger.Logger
	obs           *observability.Observability
	keyConfigured bool
}

type ServiceOption func(*Service)

func WithObservability(obs *observability.Observability) ServiceOption {
	return func(s *Service) { s.obs = obs }
}

// WithAPIKeyConfigured records whether a GEMINI_API_KEY is present. It only
// changes the message of the API mode error.
func WithAPIKeyConfigured(configured bool) ServiceOption {
	return func(s *Service) { s.keyConfigured = configured }
}

func NewService(log logger.Logger, opts ...ServiceOption) *Service {
	s := &Service{logger: logger.ForComponent(log, "compiler")}
	for _, opt := range opts {
		opt(s)
	}
	if s.obs == nil {
		s.obs = &observability.Observability{}
	}
	return s
}

// CompileText parses, validates and normalizes one document.
func CompileText(text string) (*CompilerResponse, error) {
	doc, err := Parse(text)
	if err != nil {
		return nil, err
	}
	resp, err := Validate(doc)
	if err != nil {
		return nil, err
	}
	gate := &resp.Outputs.ReadinessGate
	gate.Verdict = NormalizeVerdict(gate.Verdict)
	return resp, nil
}

// Compile runs one cycle: mode check, optional form check, then CompileText.
func (s *Service) Compile(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	cycleID := uuid.NewString()
	mode := req.Mode
	if mode == "" {
		mode = ModePaste
	}

	log := s.logger.WithFields(map[string]interface{}{
		"cycleId": cycleID,
		"mode":    string(mode),
	})
	ctx, span := s.obs.StartSpan(ctx, "compiler.compile",
		attribute.String("cycle.id", cycleID),
		attribute.String("mode", string(mode)),
	)
	defer span.End()

	log.Debug("compile cycle started", map[string]interface{}{"inputBytes": len(req.Text)})

	resp, warnings, err := s.run(mode, req)
	duration := time.Since(start)
	outcome := Outcome(err)

	metrics.CompilerCycles.WithLabelValues(outcome).Inc()
	metrics.CompilerCycleDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	s.obs.RecordCycle(ctx, outcome, duration)
	span.SetAttributes(attribute.String("outcome", outcome))

	if err != nil {
		var schemaErr *SchemaError
		if errors.As(err, &schemaErr) {
			metrics.CompilerSchemaViolations.Add(float64(len(schemaErr.Violations)))
			span.SetAttributes(attribute.Int("violations", len(schemaErr.Violations)))
			log.Warn("compiler document failed schema validation", map[string]interface{}{
				"violationCount": len(schemaErr.Violations),
				"violations":     schemaErr.Messages(),
				"durationMs":     duration.Milliseconds(),
			})
		} else {
			log.Warn("compile cycle failed", map[string]interface{}{
				"outcome":    outcome,
				"error":      err,
				"durationMs": duration.Milliseconds(),
			})
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		return nil, err
	}

	verdict := resp.Outputs.ReadinessGate.Verdict
	metrics.CompilerVerdicts.WithLabelValues(metrics.VerdictLabel(verdict)).Inc()
	span.SetAttributes(attribute.String("verdict", verdict))

	if len(warnings) > 0 {
		span.SetAttributes(attribute.Int("form.warnings", len(warnings)))
		log.Warn("intake form has problems", map[string]interface{}{"fields": warnings})
	}

	log.Info("compile cycle succeeded", map[string]interface{}{
		"verdict":    verdict,
		"score":      resp.Outputs.ReadinessGate.SignalCredibilityScore,
		"weeks":      len(resp.Outputs.Questline),
		"durationMs": duration.Milliseconds(),
	})

	return &Result{
		CycleID:      cycleID,
		Response:     resp,
		Verdict:      verdict,
		ApplyNow:     verdict == VerdictApplyNow,
		Duration:     duration,
		FormWarnings: warnings,
	}, nil
}

func (s *Service) run(mode Mode, req Request) (*CompilerResponse, []string, error) {
	if err := checkMode(mode, s.keyConfigured); err != nil {
		return nil, nil, err
	}

	var warnings []string
	if req.Form != nil {
		if err := intake.Validate(*req.Form); err != nil {
			var intakeErr *intake.ValidationError
			if !errors.As(err, &intakeErr) {
				return nil, nil, err
			}
			warnings = intakeErr.Messages()
		}
	}

	resp, err := CompileText(req.Text)
	if err != nil {
		return nil, nil, err
	}
	return resp, warnings, nil
}

// Outcome classifies a cycle error for metrics labels.
func Outcome(err error) string {
	var (
		parseErr  *ParseError
		schemaErr *SchemaError
		intakeErr *intake.ValidationError
	)
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.As(err, &parseErr):
		return metrics.OutcomeParseError
	case errors.As(err, &schemaErr):
		return metrics.OutcomeSchemaError
	case errors.Is(err, ErrAPIModeDisabled):
		return metrics.OutcomeModeDisabled
	case errors.As(err, &intakeErr):
		return metrics.OutcomeIntakeError
	default:
		return metrics.OutcomeError
	}
}
