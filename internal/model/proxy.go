package model

import (
	"strconv"
	"time"
)

// ProtocolVLESS is the only descriptor dialect the parser understands.
const ProtocolVLESS = "vless"

// DefaultTransport is used when a descriptor carries no "type" parameter.
const DefaultTransport = "tcp"

// UnknownCountry is reported when geolocation fails.
const UnknownCountry = "unknown"

// Descriptor is a parsed connection descriptor such as:
//
//	vless://<identity>@<host>:<port>?security=reality&sni=...&type=grpc&flow=...#tag
//
// Optional fields are empty when the parameter was absent.
type Descriptor struct {
	Protocol   string `json:"type"`
	Identity   string `json:"uuid"`
	Host       string `json:"server"`
	Port       int    `json:"port"`
	ServerName string `json:"sni,omitempty"`
	Security   string `json:"security,omitempty"`
	Transport  string `json:"transport"`
	Flow       string `json:"flow,omitempty"`
	Raw        string `json:"raw"` // original line, written to the output files
}

// Key is the identity used for deduplication: identity@host:port.
func (d Descriptor) Key() string {
	return d.Identity + "@" + d.Host + ":" + strconv.Itoa(d.Port)
}

// ValidatedDescriptor is a descriptor that passed every gate and the
// reachability probe.
type ValidatedDescriptor struct {
	Descriptor
	Country      string `json:"country"`
	QualityScore int    `json:"quality_score"`
}

// RunStatistics aggregates summary analytics for an entire run.
type RunStatistics struct {
	Timestamp         time.Time      `json:"timestamp"`
	DurationMinutes   float64        `json:"duration_minutes"`
	Collected         int            `json:"collected_vless"`
	DuplicatesRemoved int            `json:"duplicates_removed"`
	Unique            int            `json:"unique"`
	Passed            int            `json:"perfect_configs"`
	Failed            int            `json:"filtered_out"`
	PassRatePct       float64        `json:"pass_rate"`
	AvgQualityScore   float64        `json:"avg_quality_score"`
	Transports        map[string]int `json:"transports"`
	Countries         map[string]int `json:"countries"`

	Elapsed time.Duration `json:"-"`
}
