package reconcile

// Action is what the reconciler did with one manifest line.
type Action string

const (
	ActionSkipBlank     Action = "skip-blank"
	ActionSkipComment   Action = "skip-comment"
	ActionSkipDirective Action = "skip-directive"
	ActionParseError    Action = "parse-error"
	ActionMarkerFalse   Action = "marker-false"
	ActionMarkerError   Action = "marker-error"
	ActionVersionError  Action = "version-error"
	ActionSatisfied     Action = "satisfied"
	ActionInstall       Action = "install"
	ActionInstallFailed Action = "install-failed"
)

// Skipped reports whether the line never reached the environment.
func (a Action) Skipped() bool {
	switch a {
	case ActionSkipBlank, ActionSkipComment, ActionSkipDirective, ActionMarkerFalse:
		return true
	}
	return false
}

// Decision records the outcome for one manifest line.
type Decision struct {
	Line        int
	Raw         string
	Name        string
	Action      Action
	Installed   string // installed version, empty when absent or not queried
	Reason      string
	Description string // installer description; set for install actions
}

// Summary collects the decisions of one pass.
type Summary struct {
	Decisions []Decision
	DryRun    bool
	counts    map[Action]int
}

func (s *Summary) add(d Decision) {
	if s.counts == nil {
		s.counts = make(map[Action]int)
	}
	s.Decisions = append(s.Decisions, d)
	s.counts[d.Action]++
}

// Count returns how many lines ended with action a.
func (s *Summary) Count(a Action) int {
	return s.counts[a]
}

// Problems counts lines that were reported as diagnostics.
func (s *Summary) Problems() int {
	return s.counts[ActionParseError] + s.counts[ActionMarkerError] + s.counts[ActionVersionError]
}
