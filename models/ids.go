package models

import (
	"strings"

	"github.com/google/uuid"
)

var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("smartmoneytrader/signals"))

// DeterministicID derives a name-based UUID from parts, so recomputing a
// signal or replaying a backtest yields the same identifiers
func DeterministicID(parts ...string) string {
	return uuid.NewSHA1(idNamespace, []byte(strings.Join(parts, "|"))).String()
}
