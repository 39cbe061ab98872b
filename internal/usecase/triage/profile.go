package triage

import (
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	domaintriage "fieldtriage/internal/domain/triage"
	"fieldtriage/internal/errs"
)

type protocolProfile struct {
	Version  int                 `toml:"version"`
	Protocol protocolProfileTags `toml:"protocol"`
}

type protocolProfileTags struct {
	CriticalTags []string `toml:"critical_tags"`
	UrgentTags   []string `toml:"urgent_tags"`
}

// LoadProtocolProfile reads an optional triage protocol override. An empty
// path selects the built-in protocol; a profile that names no tags for a set
// keeps the built-in set, so a partial override stays safe.
func LoadProtocolProfile(profileFile string) (domaintriage.Protocol, error) {
	path := strings.TrimSpace(profileFile)
	if path == "" {
		return domaintriage.DefaultProtocol(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return domaintriage.Protocol{}, errs.Wrapf(err, "read protocol profile %q", path)
	}

	var profile protocolProfile
	if err := toml.Unmarshal(raw, &profile); err != nil {
		return domaintriage.Protocol{}, errs.Wrapf(err, "parse protocol profile %q", path)
	}

	defaults := domaintriage.DefaultProtocol()
	critical := profile.Protocol.CriticalTags
	if len(critical) == 0 {
		critical = defaults.CriticalTags()
	}
	urgent := profile.Protocol.UrgentTags
	if len(urgent) == 0 {
		urgent = defaults.UrgentTags()
	}

	return domaintriage.NewProtocol(critical, urgent), nil
}
