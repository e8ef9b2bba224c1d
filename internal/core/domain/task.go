package domain

// Action identifies which executor runs a task's body.
type Action string

const (
	// ActionNone marks a task that only groups its prerequisite stages.
	ActionNone Action = ""
	// ActionSite runs the external site generator.
	ActionSite Action = "site"
	// ActionStylesheet runs the stylesheet transform.
	ActionStylesheet Action = "stylesheet"
	// ActionScripts runs the vendor and application script bundles.
	ActionScripts Action = "scripts"
	// ActionImages runs the image transform.
	ActionImages Action = "images"
	// ActionReload broadcasts a live-reload signal to connected browsers.
	ActionReload Action = "reload"
	// ActionCommand runs a user-defined shell command.
	ActionCommand Action = "command"
)

// Task represents a named unit of build work.
// Stages are run in order before the task body; the names inside a single
// stage run concurrently.
type Task struct {
	Name        InternedString
	Description string
	Action      Action
	Stages      [][]InternedString

	// Profile selects the site generator configuration for ActionSite tasks.
	Profile Environment

	// Command, Environment and WorkingDir apply to ActionCommand tasks.
	Command     []string
	Environment map[string]string
	WorkingDir  InternedString
}

// Dependencies returns every prerequisite of the task across all stages.
func (t *Task) Dependencies() []InternedString {
	var deps []InternedString
	for _, stage := range t.Stages {
		deps = append(deps, stage...)
	}
	return deps
}

// Stage builds a single concurrent stage from task names.
func Stage(names ...string) []InternedString {
	return InternStrings(names)
}
