package adminapi

import "strings"

// DefaultBaseURL is the admin API origin used when none is configured.
const DefaultBaseURL = "http://localhost:8000"

// BaseURLEnv lists the environment variables consulted for the admin API
// origin, in priority order.
var BaseURLEnv = []string{"MARINE_API_URL", "API_URL"}

// ResolveBaseURL picks the admin API origin. An explicit value wins, then the
// first non-empty variable from BaseURLEnv, then DefaultBaseURL. lookup is
// usually os.Getenv.
func ResolveBaseURL(explicit string, lookup func(string) string) string {
	if v := strings.TrimSpace(explicit); v != "" {
		return strings.TrimRight(v, "/")
	}
	if lookup != nil {
		for _, name := range BaseURLEnv {
			if v := strings.TrimSpace(lookup(name)); v != "" {
				return strings.TrimRight(v, "/")
			}
		}
	}
	return DefaultBaseURL
}
