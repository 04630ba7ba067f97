package client

import (
	"fmt"

	"github.com/agrisage-labs/agrisage-go/models"
)

// Placeholder rows shown when the server returned no items for a category.
const (
	noOrganicPlaceholder    = "No organic treatment available"
	noChemicalPlaceholder   = "No chemical treatment available"
	noPreventionPlaceholder = "Standard prevention practices apply"
)

// ResultView is the display-ready projection of an analysis result: the
// formatted confidence text, the confidence bar width and the treatment
// lists with placeholders filled in.
type ResultView struct {
	Disease        string
	ConfidenceText string
	BarWidthPct    float64
	Organic        []string
	Chemical       []string
	Prevention     []string
}

// BuildResultView maps an analysis result onto its view model. A nil result
// yields nil, meaning the results section stays hidden.
func BuildResultView(res *models.AnalysisResult) *ResultView {
	if res == nil {
		return nil
	}

	view := &ResultView{
		Disease:        res.Disease,
		ConfidenceText: fmt.Sprintf("%.1f%% Confidence", res.Confidence),
		BarWidthPct:    clampPercent(res.Confidence),
	}

	if res.Treatment != nil {
		view.Organic = append(view.Organic, res.Treatment.Organic...)
		view.Chemical = append(view.Chemical, res.Treatment.Chemical...)
		view.Prevention = append(view.Prevention, res.Treatment.Prevention...)
	}
	if len(view.Organic) == 0 {
		view.Organic = []string{noOrganicPlaceholder}
	}
	if len(view.Chemical) == 0 {
		view.Chemical = []string{noChemicalPlaceholder}
	}
	if len(view.Prevention) == 0 {
		view.Prevention = []string{noPreventionPlaceholder}
	}
	return view
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
