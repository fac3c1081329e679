package core

import "strings"

// Environment is the deployment stage the server runs in.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Testing     Environment = "testing"
	Production  Environment = "production"
)

func (e Environment) String() string {
	return string(e)
}

// IsProduction reports whether logs and responses should be production shaped.
func (e Environment) IsProduction() bool {
	return e == Production
}

// ParseEnvironment maps ENVIRONMENT values (case-insensitive, "prod"/"dev" accepted)
// onto a known Environment. Anything unrecognised is treated as Development.
func ParseEnvironment(v string) Environment {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "production", "prod":
		return Production
	case "staging":
		return Staging
	case "testing", "test":
		return Testing
	default:
		return Development
	}
}
