package models

// Treatment holds the three recommendation categories returned for a
// detected disease. Empty slices are meaningful: the renderer substitutes
// per-category placeholder text for them.
type Treatment struct {
	Organic    []string `json:"organic"`
	Chemical   []string `json:"chemical"`
	Prevention []string `json:"prevention"`
}

// AnalysisResult is the classifier output for the most recently analyzed
// image. Confidence is a percentage in [0, 100].
type AnalysisResult struct {
	Disease    string     `json:"disease"`
	Confidence float64    `json:"confidence"`
	Treatment  *Treatment `json:"treatment"`
	Language   string     `json:"language,omitempty"`
}

// Detection is the raw provider-level detection before treatment lookup and
// translation are applied.
type Detection struct {
	Disease    string
	Confidence float64
	Pathogen   string
	Symptoms   []string
	Severity   string
	Crop       string
	Provider   string
}
