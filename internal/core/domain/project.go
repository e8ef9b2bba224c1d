package domain

import "time"

// QualityRange is the accepted lossy compression quality, in percent.
type QualityRange struct {
	Min int
	Max int
}

// SiteOptions configures the external site generator.
type SiteOptions struct {
	Command  []string
	Profiles SiteProfiles
	Env      map[string]string
}

// StylesheetOptions configures the stylesheet transform.
type StylesheetOptions struct {
	Entry string
}

// ScriptOptions configures the script bundles.
type ScriptOptions struct {
	VendorBundle string
	AppBundle    string
	LintRules    []string
}

// ImageOptions configures the image transform.
type ImageOptions struct {
	Quality QualityRange
}

// ServeOptions configures the development server and watch loop.
type ServeOptions struct {
	Host       string
	Port       int
	Debounce   time.Duration
	LiveReload bool
}

// LogFormat is the configured encoding of log output.
type LogFormat string

const (
	// LogFormatAuto picks JSON when stderr is not a terminal or CI is set.
	LogFormatAuto LogFormat = ""
	// LogFormatPretty forces human-readable output.
	LogFormatPretty LogFormat = "pretty"
	// LogFormatJSON forces JSON output.
	LogFormatJSON LogFormat = "json"
)

// LogOptions configures log output.
type LogOptions struct {
	Format LogFormat
}

// Project is the loaded configuration of a site. It is immutable after loading.
type Project struct {
	Paths       PathMap
	Site        SiteOptions
	Stylesheets StylesheetOptions
	Scripts     ScriptOptions
	Images      ImageOptions
	Serve       ServeOptions
	Log         LogOptions

	// Watch replaces the default watch rules when non-empty.
	Watch []WatchRule
	// Tasks are user-defined command tasks loaded from the tasks directory.
	Tasks []Task
}
