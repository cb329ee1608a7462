package checker

import (
	"slices"
	"strings"

	"github.com/DarkFirexs/Parser/internal/model"
)

// Score weights. A descriptor that meets every condition scores MaxScore.
const (
	scoreSecurity  = 50
	scoreServer    = 30
	scoreTransport = 20
	scoreFlow      = 10

	MaxScore = scoreSecurity + scoreServer + scoreTransport + scoreFlow
)

// Policy is the immutable set of rules a descriptor is gated and scored by.
type Policy struct {
	// Security is the only accepted security mode, compared exactly.
	Security string
	// AllowedServerNames are matched as case-insensitive substrings of the SNI.
	AllowedServerNames []string
	// PreferredTransports earn a bonus but never gate.
	PreferredTransports []string
	// FlowMarker earns a bonus when found in the flow value, ignoring case.
	FlowMarker string
}

var DefaultAllowedServerNames = []string{
	"yandex.ru", "ya.ru", "vk.com", "mail.ru", "login.vk.com",
	"sberbank.ru", "cdn.tbank.ru", "ozon.ru", "wildberries.ru",
	"avito.st", "gosuslugi.ru", "max.ru", "web.max.ru",
	"speedload.ru", "ign.com", "ign.dev", "snowfall.top",
	"userapi.com", "rutube.ru", "ok.ru", "dzen.ru",
}

var DefaultPreferredTransports = []string{"xhttp", "grpc", "ws"}

// DefaultPolicy returns the Reality + allow-listed SNI policy.
func DefaultPolicy() Policy {
	return Policy{
		Security:            "reality",
		AllowedServerNames:  slices.Clone(DefaultAllowedServerNames),
		PreferredTransports: slices.Clone(DefaultPreferredTransports),
		FlowMarker:          "vision",
	}
}

// clone returns a copy that shares no slices with p, lowercasing the
// allow-list once up front.
func (p Policy) clone() Policy {
	out := p
	out.AllowedServerNames = make([]string, 0, len(p.AllowedServerNames))
	for _, d := range p.AllowedServerNames {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			out.AllowedServerNames = append(out.AllowedServerNames, d)
		}
	}
	out.PreferredTransports = slices.Clone(p.PreferredTransports)
	return out
}

// AllowsServerName reports whether sni contains one of the allow-listed domains.
func (p Policy) AllowsServerName(sni string) bool {
	if sni == "" {
		return false
	}
	sni = strings.ToLower(sni)
	for _, domain := range p.AllowedServerNames {
		if strings.Contains(sni, strings.ToLower(domain)) {
			return true
		}
	}
	return false
}

// Score is an additive quality heuristic in [0, MaxScore]. It never gates.
func (p Policy) Score(d model.Descriptor) int {
	score := 0

	if d.Security != "" && d.Security == p.Security {
		score += scoreSecurity
	}
	if p.AllowsServerName(d.ServerName) {
		score += scoreServer
	}
	if slices.Contains(p.PreferredTransports, d.Transport) {
		score += scoreTransport
	}
	if p.FlowMarker != "" && strings.Contains(strings.ToLower(d.Flow), strings.ToLower(p.FlowMarker)) {
		score += scoreFlow
	}

	return score
}
