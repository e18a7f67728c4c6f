package models

// PageMeta is the summary of a document's head and body identity.
type PageMeta struct {
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description,omitempty"`
	Canonical   string            `json:"canonical,omitempty"`
	OG          map[string]string `json:"og,omitempty"`
	BodyID      string            `json:"bodyId,omitempty"`
	H1          string            `json:"h1,omitempty"`
}

// Viewport is the window size and pointer capability installers size
// themselves against.
type Viewport struct {
	Width     int  `json:"width" yaml:"width" koanf:"width"`
	Height    int  `json:"height" yaml:"height" koanf:"height"`
	TouchOnly bool `json:"touchOnly" yaml:"touch_only" koanf:"touch_only"`
}

// ScrollPosition is where the last scroll request left the page.
type ScrollPosition struct {
	Anchor string `json:"anchor,omitempty"`
	Top    bool   `json:"top"`
	Smooth bool   `json:"smooth"`
}

// Snapshot is the externally visible state of a page session.
type Snapshot struct {
	ID           string         `json:"id,omitempty"`
	Location     string         `json:"location"`
	Normalized   string         `json:"normalized"`
	InFlight     bool           `json:"inFlight"`
	Meta         PageMeta       `json:"meta"`
	Theme        string         `json:"theme,omitempty"`
	MenuOpen     bool           `json:"menuOpen"`
	History      []string       `json:"history"`
	HistoryIndex int            `json:"historyIndex"`
	Scroll       ScrollPosition `json:"scroll"`
	HookRuns     int            `json:"hookRuns"`
	ContentHTML  string         `json:"contentHtml,omitempty"`
}

// Step is one scripted user action against a session.
type Step struct {
	Action string `json:"action"`
	Target string `json:"target,omitempty"`
}

// StepResult is the NDJSON record written for each executed step.
type StepResult struct {
	Step     Step     `json:"step"`
	Outcome  string   `json:"outcome,omitempty"`
	Snapshot Snapshot `json:"snapshot"`
	Markdown string   `json:"markdown,omitempty"`
	Error    string   `json:"error,omitempty"`
}
