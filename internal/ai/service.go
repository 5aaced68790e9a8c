package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"scoutlens/pkg/contracts/domain"
)

// ErrEnhancementMalformed marks an enhancement response that could not
// be parsed as JSON. Callers fall back to the unenhanced draft, but can
// distinguish a malformed response from a legitimately unchanged one.
var ErrEnhancementMalformed = errors.New("enhancement returned malformed JSON")

// maxSampleRows bounds how many raw rows are included in prompts.
const maxSampleRows = 5

// Service exposes the pipeline's generative capabilities on top of a
// Completer. All methods are stateless and safe for concurrent use.
type Service struct {
	completer Completer
	logger    *slog.Logger
	calls     metric.Int64Counter
}

// NewService creates an AI service.
func NewService(completer Completer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	calls, err := otel.Meter("scoutlens/ai").Int64Counter("ai_calls_total",
		metric.WithDescription("Generative AI calls by capability and outcome"))
	if err != nil {
		logger.Warn("ai call metrics disabled", slog.String("error", err.Error()))
	}
	return &Service{completer: completer, logger: logger, calls: calls}
}

func (s *Service) recordCall(ctx context.Context, capability string, err error) {
	if s.calls == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	s.calls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("capability", capability),
		attribute.String("outcome", outcome)))
}

// InterpretColumns infers the semantic meaning of every column. The
// result is treated as ground truth downstream; a failure here fails the
// whole pipeline.
func (s *Service) InterpretColumns(ctx context.Context, req InterpretRequest) (_ *domain.ColumnInterpretationResult, err error) {
	defer func() { s.recordCall(ctx, "interpret_columns", err) }()
	req.SampleRows = truncateRows(req.SampleRows)

	raw, err := s.completer.Complete(ctx, interpretSystemPrompt, buildInterpretPrompt(req))
	if err != nil {
		return nil, fmt.Errorf("column interpretation call failed: %w", err)
	}

	payload, err := ExtractJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("column interpretation returned non-JSON output: %w", err)
	}

	var result domain.ColumnInterpretationResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("column interpretation returned malformed JSON: %w", err)
	}
	if len(result.Columns) == 0 {
		return nil, fmt.Errorf("column interpretation returned no columns")
	}

	s.logger.InfoContext(ctx, "columns interpreted",
		slog.String("domain", result.Domain),
		slog.Float64("confidence", result.Confidence),
		slog.Int("columns", len(result.Columns)))

	return &result, nil
}

// GenerateInsights produces typed findings from aggregates, benchmarks
// and interpretations. Failures are surfaced to the caller, who treats
// them as non-fatal.
func (s *Service) GenerateInsights(ctx context.Context, req InsightRequest) (_ []domain.Insight, err error) {
	defer func() { s.recordCall(ctx, "generate_insights", err) }()
	req.SampleRows = truncateRows(req.SampleRows)

	raw, err := s.completer.Complete(ctx, insightSystemPrompt, buildInsightPrompt(req))
	if err != nil {
		return nil, fmt.Errorf("insight generation call failed: %w", err)
	}

	payload, err := ExtractJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("insight generation returned non-JSON output: %w", err)
	}

	var envelope struct {
		Insights []domain.Insight `json:"insights"`
	}
	if err := json.Unmarshal([]byte(payload), &envelope); err != nil {
		return nil, fmt.Errorf("insight generation returned malformed JSON: %w", err)
	}

	insights := make([]domain.Insight, 0, len(envelope.Insights))
	for _, ins := range envelope.Insights {
		if !ins.Type.Valid() {
			ins.Type = domain.InsightRecommendation
		}
		if ins.Confidence < 0 {
			ins.Confidence = 0
		}
		if ins.Confidence > 1 {
			ins.Confidence = 1
		}
		insights = append(insights, ins)
	}
	return insights, nil
}

// GenerateReport drafts a structured report. The prompt differs by
// category: own-team reports frame development, opponent reports frame
// exploitation.
func (s *Service) GenerateReport(ctx context.Context, req ReportRequest) (_ *domain.Report, err error) {
	defer func() { s.recordCall(ctx, "generate_report", err) }()
	systemPrompt := ownTeamReportSystemPrompt
	if req.Category == domain.CategoryOpponent {
		systemPrompt = opponentReportSystemPrompt
	}

	raw, err := s.completer.Complete(ctx, systemPrompt, buildReportPrompt(req))
	if err != nil {
		return nil, fmt.Errorf("report generation call failed: %w", err)
	}

	payload, err := ExtractJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("report generation returned non-JSON output: %w", err)
	}

	var report domain.Report
	if err := json.Unmarshal([]byte(payload), &report); err != nil {
		return nil, fmt.Errorf("report generation returned malformed JSON: %w", err)
	}
	return &report, nil
}

// EnhanceProse rewrites a drafted report's natural language while
// preserving its structure. The returned report is always usable: on any
// failure a copy of the draft comes back together with a non-nil error
// describing what went wrong, so callers can mutate the result freely.
func (s *Service) EnhanceProse(ctx context.Context, draft *domain.Report) (_ *domain.Report, err error) {
	defer func() { s.recordCall(ctx, "enhance_prose", err) }()
	raw, err := s.completer.Complete(ctx, enhanceSystemPrompt, mustJSON(draft))
	if err != nil {
		return draft.Clone(), fmt.Errorf("prose enhancement call failed: %w", err)
	}

	payload, err := ExtractJSON(raw)
	if err != nil {
		s.logger.WarnContext(ctx, "prose enhancement produced non-JSON output, keeping draft",
			slog.String("error", err.Error()))
		return draft.Clone(), fmt.Errorf("%w: %v", ErrEnhancementMalformed, err)
	}

	var enhanced domain.Report
	if err := json.Unmarshal([]byte(payload), &enhanced); err != nil {
		s.logger.WarnContext(ctx, "prose enhancement produced malformed JSON, keeping draft",
			slog.String("error", err.Error()))
		return draft.Clone(), fmt.Errorf("%w: %v", ErrEnhancementMalformed, err)
	}
	return &enhanced, nil
}

func truncateRows(rows []domain.Row) []domain.Row {
	if len(rows) > maxSampleRows {
		return rows[:maxSampleRows]
	}
	return rows
}
