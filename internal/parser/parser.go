package parser

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/DarkFirexs/Parser/internal/model"
)

// Scheme is the prefix every supported descriptor starts with.
const Scheme = model.ProtocolVLESS + "://"

// LoadFromFile reads a local descriptor list and returns the raw lines that
// parse. Empty lines and lines starting with '#' are ignored.
func LoadFromFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input file: %w", err)
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	// subscription lines can be long
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, ok := Parse(line); !ok {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan input file: %w", err)
	}
	return out, nil
}

// Parse parses a single vless:// descriptor. It returns false for anything
// that is not a well-formed descriptor of the supported scheme.
//
// Identity, host and port come from the part before any '?' or '#'.
// Parameters are scanned over the whole raw string, so a parameter placed
// after the fragment delimiter is still picked up.
func Parse(raw string) (model.Descriptor, bool) {
	if !strings.HasPrefix(raw, Scheme) {
		return model.Descriptor{}, false
	}

	rest := raw[len(Scheme):]
	rest, _, _ = strings.Cut(rest, "#")
	rest, _, _ = strings.Cut(rest, "?")

	// anything after a second '@' is dropped, so "a@b@h:1" has no port
	parts := strings.Split(rest, "@")
	if len(parts) < 2 || parts[0] == "" {
		return model.Descriptor{}, false
	}
	identity, hostport := parts[0], parts[1]

	host, port, err := splitHostPort(hostport)
	if err != nil {
		return model.Descriptor{}, false
	}

	transport := Param(raw, "type")
	if transport == "" {
		transport = model.DefaultTransport
	}

	return model.Descriptor{
		Protocol:   model.ProtocolVLESS,
		Identity:   identity,
		Host:       host,
		Port:       port,
		ServerName: Param(raw, "sni"),
		Security:   Param(raw, "security"),
		Transport:  transport,
		Flow:       Param(raw, "flow"),
		Raw:        raw,
	}, true
}

// splitHostPort splits on the last ':'. Hosts that still contain a colon
// (IPv6 literals) are rejected.
func splitHostPort(s string) (string, int, error) {
	i := strings.LastIndexByte(s, ':')
	if i < 0 {
		return "", 0, fmt.Errorf("missing port: %q", s)
	}
	host, portStr := s[:i], s[i+1:]
	if host == "" || strings.Contains(host, ":") {
		return "", 0, fmt.Errorf("invalid host: %q", host)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port %q", portStr)
	}
	if port < 1 || port > 65535 {
		return "", 0, fmt.Errorf("port out of range: %d", port)
	}
	return host, port, nil
}

var paramPatterns = map[string][2]*regexp.Regexp{}

func init() {
	for _, key := range []string{"sni", "security", "type", "flow"} {
		paramPatterns[key] = compileParam(key)
	}
}

func compileParam(key string) [2]*regexp.Regexp {
	// the key may appear anywhere, including inside another key
	prefix := `(?i)` + regexp.QuoteMeta(key)
	return [2]*regexp.Regexp{
		regexp.MustCompile(prefix + `=([^&\s#]+)`),
		regexp.MustCompile(prefix + `:([^&\s#]+)`),
	}
}

// Param returns the percent-decoded value of key in raw, trying key=value
// before key:value. It returns "" when the key is absent.
func Param(raw, key string) string {
	patterns, ok := paramPatterns[strings.ToLower(key)]
	if !ok {
		patterns = compileParam(key)
	}
	for _, re := range patterns {
		m := re.FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		return unquote(m[1])
	}
	return ""
}

// unquote decodes every valid %XX escape and keeps malformed ones as
// written. Bytes that do not form UTF-8 become U+FFFD.
func unquote(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}

	buf := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
			b, _ := strconv.ParseUint(s[i+1:i+3], 16, 8)
			buf = append(buf, byte(b))
			i += 2
			continue
		}
		buf = append(buf, s[i])
	}
	if utf8.Valid(buf) {
		return string(buf)
	}

	var sb strings.Builder
	for _, r := range string(buf) {
		sb.WriteRune(r)
	}
	return sb.String()
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
