package domain

// ReportSection is one dynamic section of a scouting report. KeyPoints are
// ordered by importance, most important first.
type ReportSection struct {
	Type      string   `json:"type"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	KeyPoints []string `json:"key_points,omitempty"`
}

// ReportMetric is one row of the report's key-metrics table.
type ReportMetric struct {
	Name       string `json:"name"`
	Value      string `json:"value"`
	Benchmark  string `json:"benchmark,omitempty"`
	Assessment string `json:"assessment,omitempty"`
}

// Report is the composed analytical document. It exists in two states,
// AI-drafted and AI-prose-enhanced; only the enhanced form (or the draft
// when enhancement fails) is persisted as final.
type Report struct {
	ExecutiveSummary       string          `json:"executive_summary"`
	Sections               []ReportSection `json:"sections"`
	KeyMetrics             []ReportMetric  `json:"key_metrics"`
	Strengths              []string        `json:"strengths,omitempty"`
	AreasForDevelopment    []string        `json:"areas_for_development,omitempty"`
	ActionPlan             []string        `json:"action_plan,omitempty"`
	AdditionalObservations string          `json:"additional_observations,omitempty"`
}

// Clone returns a deep copy of the report.
func (r *Report) Clone() *Report {
	if r == nil {
		return nil
	}
	out := &Report{
		ExecutiveSummary:       r.ExecutiveSummary,
		AdditionalObservations: r.AdditionalObservations,
	}
	if r.Sections != nil {
		out.Sections = make([]ReportSection, len(r.Sections))
		for i, s := range r.Sections {
			out.Sections[i] = s
			out.Sections[i].KeyPoints = append([]string(nil), s.KeyPoints...)
		}
	}
	if r.KeyMetrics != nil {
		out.KeyMetrics = append([]ReportMetric(nil), r.KeyMetrics...)
	}
	out.Strengths = append([]string(nil), r.Strengths...)
	out.AreasForDevelopment = append([]string(nil), r.AreasForDevelopment...)
	out.ActionPlan = append([]string(nil), r.ActionPlan...)
	return out
}
