package collector

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/DarkFirexs/Parser/internal/parser"
)

const DefaultTimeout = 15 * time.Second

// DefaultSources are public subscription lists of VLESS descriptors.
var DefaultSources = []string{
	"https://raw.githubusercontent.com/whoahaow/rjsxrd/refs/heads/main/githubmirror/bypass/bypass-all.txt",
	"https://raw.githubusercontent.com/igareck/vpn-configs-for-russia/refs/heads/main/WHITE-CIDR-RU-all.txt",
	"https://raw.githubusercontent.com/zieng2/wl/main/vless_lite.txt",
	"https://raw.githubusercontent.com/AvenCores/goida-vpn-configs/refs/heads/main/githubmirror/26.txt",
}

// Collector downloads subscription lists and extracts raw descriptors.
type Collector struct {
	sources []string
	client  *http.Client
	log     *slog.Logger
}

func New(sources []string, timeout time.Duration, log *slog.Logger) *Collector {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &Collector{
		sources: append([]string(nil), sources...),
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

// Collect fetches every source in order. A failing source is logged and
// skipped; it does not affect the others.
func (c *Collector) Collect(ctx context.Context) []string {
	var all []string

	for _, src := range c.sources {
		body, err := c.fetch(ctx, src)
		if err != nil {
			c.log.Warn("source fetch failed", "source", src, "err", err)
			continue
		}

		lines := Extract(body)
		c.log.Info("source collected", "source", src, "descriptors", len(lines))
		all = append(all, lines...)
	}

	c.log.Info("collection finished", "sources", len(c.sources), "descriptors", len(all))
	return all
}

func (c *Collector) fetch(ctx context.Context, src string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// Extract decodes a subscription body (base64 or plain text) and returns
// the trimmed lines that start with the vless:// scheme.
func Extract(body []byte) []string {
	text := Decode(body)

	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, parser.Scheme) {
			out = append(out, line)
		}
	}
	return out
}

var encodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.RawStdEncoding,
	base64.URLEncoding,
	base64.RawURLEncoding,
}

// Decode returns the base64-decoded body when it decodes to valid UTF-8,
// and the body unchanged otherwise.
func Decode(body []byte) string {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, string(body))

	if compact != "" {
		for _, enc := range encodings {
			decoded, err := enc.DecodeString(compact)
			if err == nil && utf8.Valid(decoded) {
				return string(decoded)
			}
		}
	}
	return string(body)
}

// File reads descriptors from a local list instead of remote sources.
type File struct {
	Path string
	Log  *slog.Logger
}

func (f File) Collect(context.Context) []string {
	log := f.Log
	if log == nil {
		log = slog.Default()
	}
	lines, err := parser.LoadFromFile(f.Path)
	if err != nil {
		log.Warn("input file unreadable", "path", f.Path, "err", err)
		return nil
	}
	log.Info("input file loaded", "path", f.Path, "descriptors", len(lines))
	return lines
}
