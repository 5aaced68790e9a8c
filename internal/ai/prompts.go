package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"scoutlens/pkg/contracts/domain"
)

const interpretSystemPrompt = `You are a sports analytics expert. You receive the column headers and a few sample rows of a performance spreadsheet and infer what each column means. Respond with JSON only, matching this shape exactly:
{
  "domain": "<sport, e.g. baseball, basketball, soccer, or unknown>",
  "confidence": <0..1>,
  "columns": [
    {"header": "<original header>", "name": "<semantic name>", "type": "date|number|text|boolean", "description": "<one sentence>", "key_metric": <bool>, "sample_values": ["..."]}
  ],
  "derived_metrics": ["..."],
  "data_quality_notes": ["..."],
  "suggested_sections": ["..."]
}`

const insightSystemPrompt = `You are a sports performance analyst producing actionable coaching findings. Respond with JSON only:
{
  "insights": [
    {"insight_type": "strength|weakness|trend|recommendation|tendency|alert", "title": "...", "description": "...", "confidence": <0..1>, "supporting_data": {}, "action_items": ["..."]}
  ]
}
Order insights by importance, most important first.`

const reportSchema = `{
  "executive_summary": "...",
  "sections": [{"type": "...", "title": "...", "content": "...", "key_points": ["..."]}],
  "key_metrics": [{"name": "...", "value": "...", "benchmark": "...", "assessment": "..."}],
  "strengths": ["..."],
  "areas_for_development": ["..."],
  "action_plan": ["..."],
  "additional_observations": "..."
}`

const ownTeamReportSystemPrompt = `You are a player development analyst writing an internal performance report about one of your own players. Emphasize the player's strengths, the weaknesses holding them back, and a concrete development action plan. Respond with JSON only, matching this shape exactly:
` + reportSchema

const opponentReportSystemPrompt = `You are an advance scout writing a scouting report on an upcoming opponent. Emphasize exploitable tendencies, matchup vulnerabilities, and a strategic game plan for beating them. Respond with JSON only, matching this shape exactly:
` + reportSchema

const enhanceSystemPrompt = `You are an editor improving the prose of a sports report. You receive a report as JSON and must return JSON of the exact same shape and field names, with the same sections in the same order, rewriting only the natural-language content to be clearer and more engaging. Do not add, remove or reorder fields. Respond with JSON only.`

func buildInterpretPrompt(req InterpretRequest) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Category: %s\n", req.Category)
	if req.SubjectName != "" {
		fmt.Fprintf(&sb, "Subject: %s\n", req.SubjectName)
	}
	fmt.Fprintf(&sb, "Headers: %s\n", mustJSON(req.Headers))
	fmt.Fprintf(&sb, "Sample rows:\n%s\n", mustJSON(req.SampleRows))
	sb.WriteString("Interpret every header listed above.")
	return sb.String()
}

func buildInsightPrompt(req InsightRequest) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Category: %s\n", req.Category)
	if req.SubjectName != "" {
		fmt.Fprintf(&sb, "Subject: %s\n", req.SubjectName)
	}
	fmt.Fprintf(&sb, "Total rows analyzed: %d\n", req.RowCount)
	fmt.Fprintf(&sb, "Column interpretations:\n%s\n", mustJSON(req.Interpretation))
	fmt.Fprintf(&sb, "Aggregate statistics:\n%s\n", mustJSON(req.Aggregates))
	if len(req.Benchmarks) > 0 {
		fmt.Fprintf(&sb, "Benchmark comparisons:\n%s\n", mustJSON(req.Benchmarks))
	}
	if len(req.SampleRows) > 0 {
		fmt.Fprintf(&sb, "Sample rows:\n%s\n", mustJSON(req.SampleRows))
	}
	if req.Category == domain.CategoryOpponent {
		sb.WriteString("Focus on tendencies and alerts our team can exploit.")
	} else {
		sb.WriteString("Focus on strengths to build on and weaknesses to correct.")
	}
	return sb.String()
}

func buildReportPrompt(req ReportRequest) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Category: %s\n", req.Category)
	if req.SubjectName != "" {
		fmt.Fprintf(&sb, "Subject: %s\n", req.SubjectName)
	}
	if req.DateRange != "" {
		fmt.Fprintf(&sb, "Date range: %s\n", req.DateRange)
	}
	if len(req.FocusAreas) > 0 {
		fmt.Fprintf(&sb, "Focus areas: %s\n", strings.Join(req.FocusAreas, ", "))
	}
	if names := req.Interpretation.ColumnNames(); len(names) > 0 {
		fmt.Fprintf(&sb, "Tracked metrics: %s\n", strings.Join(names, ", "))
	}
	fmt.Fprintf(&sb, "Column interpretations:\n%s\n", mustJSON(req.Interpretation))
	fmt.Fprintf(&sb, "Aggregate statistics:\n%s\n", mustJSON(req.Aggregates))
	if len(req.Insights) > 0 {
		fmt.Fprintf(&sb, "Previously generated insights:\n%s\n", mustJSON(req.Insights))
	}
	sb.WriteString("Write the full report.")
	return sb.String()
}

func mustJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
