package domain

// Environment is the site build profile selected by an environment tag.
type Environment string

const (
	// Development is the default profile.
	Development Environment = "development"
	// Production selects the production configuration.
	Production Environment = "production"
)

// ParseEnvironment maps a tag to an Environment.
// Only the exact tag "production" selects Production.
func ParseEnvironment(tag string) Environment {
	if tag == string(Production) {
		return Production
	}
	return Development
}

// String returns the tag of the environment.
func (e Environment) String() string {
	if e == "" {
		return string(Development)
	}
	return string(e)
}

// SiteProfiles maps each environment to its site generator config file.
type SiteProfiles struct {
	Development string
	Production  string
}

// ConfigFor returns the configuration file for the given environment.
func (p SiteProfiles) ConfigFor(env Environment) string {
	if env == Production {
		return p.Production
	}
	return p.Development
}
