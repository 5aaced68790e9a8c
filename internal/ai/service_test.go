package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scoutlens/pkg/contracts/domain"
)

type stubCompleter struct {
	response    string
	err         error
	calls       []string
	userPrompts []string
}

func (s *stubCompleter) Complete(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	s.calls = append(s.calls, systemPrompt)
	s.userPrompts = append(s.userPrompts, userPrompt)
	return s.response, s.err
}

func newTestService(stub *stubCompleter) *Service {
	return NewService(stub, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestInterpretColumns_Success(t *testing.T) {
	stub := &stubCompleter{response: `{
		"domain": "baseball",
		"confidence": 0.92,
		"columns": [
			{"header": "hits", "name": "Hits", "type": "number", "key_metric": true},
			{"header": "date", "name": "Game Date", "type": "date", "key_metric": false}
		]
	}`}

	result, err := newTestService(stub).InterpretColumns(context.Background(), InterpretRequest{
		Headers:  []string{"hits", "date"},
		Category: domain.CategoryOwnTeam,
	})
	require.NoError(t, err)
	assert.Equal(t, "baseball", result.Domain)
	assert.Equal(t, "date", result.DateColumn())
}

func TestInterpretColumns_NetworkErrorIsFatal(t *testing.T) {
	stub := &stubCompleter{err: errors.New("connection refused")}

	_, err := newTestService(stub).InterpretColumns(context.Background(), InterpretRequest{
		Headers: []string{"hits"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestInterpretColumns_NonJSONIsFatal(t *testing.T) {
	stub := &stubCompleter{response: "I am not sure what these columns mean."}

	_, err := newTestService(stub).InterpretColumns(context.Background(), InterpretRequest{
		Headers: []string{"hits"},
	})
	assert.Error(t, err)
}

func TestGenerateInsights_CoercesInvalidTypeAndClampsConfidence(t *testing.T) {
	stub := &stubCompleter{response: `{"insights": [
		{"insight_type": "strength", "title": "Great contact hitter", "confidence": 0.9},
		{"insight_type": "miracle", "title": "Unclassifiable", "confidence": 1.7}
	]}`}

	insights, err := newTestService(stub).GenerateInsights(context.Background(), InsightRequest{})
	require.NoError(t, err)
	require.Len(t, insights, 2)
	assert.Equal(t, domain.InsightStrength, insights[0].Type)
	assert.Equal(t, domain.InsightRecommendation, insights[1].Type)
	assert.Equal(t, 1.0, insights[1].Confidence)
}

func TestGenerateInsights_MalformedOutputIsError(t *testing.T) {
	stub := &stubCompleter{response: "no structured findings"}

	_, err := newTestService(stub).GenerateInsights(context.Background(), InsightRequest{})
	assert.Error(t, err)
}

func TestGenerateReport_CategorySelectsPrompt(t *testing.T) {
	report := `{"executive_summary": "Solid season.", "sections": [], "key_metrics": []}`

	own := &stubCompleter{response: report}
	_, err := newTestService(own).GenerateReport(context.Background(), ReportRequest{
		Category: domain.CategoryOwnTeam,
	})
	require.NoError(t, err)
	require.Len(t, own.calls, 1)
	assert.Contains(t, own.calls[0], "development")

	opp := &stubCompleter{response: report}
	_, err = newTestService(opp).GenerateReport(context.Background(), ReportRequest{
		Category: domain.CategoryOpponent,
	})
	require.NoError(t, err)
	require.Len(t, opp.calls, 1)
	assert.Contains(t, opp.calls[0], "game plan")
}

func TestGenerateReport_PromptListsTrackedMetrics(t *testing.T) {
	stub := &stubCompleter{response: `{"executive_summary": "Solid season.", "sections": [], "key_metrics": []}`}
	_, err := newTestService(stub).GenerateReport(context.Background(), ReportRequest{
		Category: domain.CategoryOwnTeam,
		Interpretation: &domain.ColumnInterpretationResult{
			Columns: []domain.ColumnInterpretation{
				{Header: "hits", Name: "Hits"},
				{Header: "at_bats", Name: "At Bats"},
			},
		},
	})
	require.NoError(t, err)
	require.Len(t, stub.userPrompts, 1)
	assert.Contains(t, stub.userPrompts[0], "Tracked metrics: Hits, At Bats")
}

func TestEnhanceProse_Success(t *testing.T) {
	stub := &stubCompleter{response: `{"executive_summary": "A sharper summary.", "sections": [], "key_metrics": []}`}

	draft := &domain.Report{ExecutiveSummary: "A plain summary."}
	enhanced, err := newTestService(stub).EnhanceProse(context.Background(), draft)
	require.NoError(t, err)
	assert.Equal(t, "A sharper summary.", enhanced.ExecutiveSummary)
}

func TestEnhanceProse_FallbackIdentity(t *testing.T) {
	draft := &domain.Report{
		ExecutiveSummary: "Draft summary.",
		Sections: []domain.ReportSection{
			{Type: "overview", Title: "Overview", Content: "..."},
		},
	}

	tests := []struct {
		name     string
		response string
	}{
		{"truncated text", `{"executive_summary": "half a`},
		{"missing braces", "The report looks fine as written."},
		{"empty response", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubCompleter{response: tt.response}
			got, err := newTestService(stub).EnhanceProse(context.Background(), draft)

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrEnhancementMalformed)
			// Fallback returns the draft exactly.
			assert.Equal(t, draft, got)
		})
	}
}

func TestEnhanceProse_CallFailureReturnsDraft(t *testing.T) {
	stub := &stubCompleter{err: fmt.Errorf("dial tcp: timeout")}

	draft := &domain.Report{ExecutiveSummary: "Draft summary."}
	got, err := newTestService(stub).EnhanceProse(context.Background(), draft)

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEnhancementMalformed)
	assert.Equal(t, draft, got)
}

func TestEnhanceProse_FallbackIsIndependentCopy(t *testing.T) {
	stub := &stubCompleter{err: fmt.Errorf("dial tcp: timeout")}

	draft := &domain.Report{
		ExecutiveSummary: "Draft summary.",
		Sections: []domain.ReportSection{
			{Type: "overview", Title: "Overview", Content: "..."},
		},
	}
	got, err := newTestService(stub).EnhanceProse(context.Background(), draft)
	require.Error(t, err)

	// Callers may edit the fallback without touching the draft.
	got.ExecutiveSummary = "Edited by caller."
	got.Sections[0].Title = "Rewritten"
	assert.Equal(t, "Draft summary.", draft.ExecutiveSummary)
	assert.Equal(t, "Overview", draft.Sections[0].Title)
}
