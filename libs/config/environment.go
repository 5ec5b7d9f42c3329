package config

import "strings"

// Environment is one of the fixed deployment targets the console can talk to.
type Environment string

const (
	PRD   Environment = "PRD"
	DEV   Environment = "DEV"
	DEVBP Environment = "DEV_BP"
	PRDBP Environment = "PRD_BP"
	LOCAL Environment = "LOCAL"
)

// DefaultEnvironment is used whenever a tag is missing or unrecognized. It must
// never be a production target.
const DefaultEnvironment = DEV

// Environments lists every known environment in display order.
var Environments = []Environment{PRD, DEV, DEVBP, PRDBP, LOCAL}

// ParseEnvironment maps a tag to a known Environment, case-insensitively.
// Anything unrecognized resolves to DefaultEnvironment.
func ParseEnvironment(tag string) Environment {
	env, _ := LookupEnvironment(tag)
	return env
}

// LookupEnvironment is ParseEnvironment that also reports whether tag was recognized.
func LookupEnvironment(tag string) (Environment, bool) {
	t := Environment(strings.ToUpper(strings.TrimSpace(tag)))
	for _, e := range Environments {
		if e == t {
			return e, true
		}
	}
	return DefaultEnvironment, false
}

func (e Environment) String() string { return string(e) }

// Key returns the per-environment variable name, e.g. DEV.Key("LIVEKIT_URL") is "DEV_LIVEKIT_URL".
func (e Environment) Key(suffix string) string {
	return string(e) + "_" + suffix
}
