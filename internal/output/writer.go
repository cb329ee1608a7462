package output

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/DarkFirexs/Parser/internal/model"
	"github.com/DarkFirexs/Parser/internal/pipeline"
)

// File names written into the output directory.
const (
	FileAll       = "configs.txt"
	FileAllB64    = "configs_b64.txt"
	FileTop       = "configs_top100.txt"
	FileTopB64    = "configs_top100_b64.txt"
	FileStatsJSON = "stats.json"
)

// Criteria describes the selection rules in stats.json.
var Criteria = map[string]string{
	"protocol":      "VLESS only",
	"security":      "Reality required",
	"sni":           "allow-listed domains",
	"check":         "TCP reachability",
	"quality_score": "reality +50, sni +30, transport +20, vision flow +10",
}

// WriteAll writes the descriptor lists and the summary into dir and returns
// the paths it wrote.
func WriteAll(dir string, report pipeline.Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	var written []string
	writeLists := func(plainName, b64Name string, list []model.ValidatedDescriptor) error {
		joined := JoinRaw(list)
		for name, content := range map[string]string{
			plainName: joined,
			b64Name:   base64.StdEncoding.EncodeToString([]byte(joined)),
		} {
			path := filepath.Join(dir, name)
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", name, err)
			}
			written = append(written, path)
		}
		return nil
	}

	if err := writeLists(FileAll, FileAllB64, report.Valid); err != nil {
		return written, err
	}
	if report.Top != nil {
		if err := writeLists(FileTop, FileTopB64, report.Top); err != nil {
			return written, err
		}
	}

	statsPath := filepath.Join(dir, FileStatsJSON)
	if err := WriteStatsFile(statsPath, report.Stats); err != nil {
		return written, err
	}
	written = append(written, statsPath)

	return written, nil
}

// JoinRaw joins the raw descriptor strings with newlines.
func JoinRaw(list []model.ValidatedDescriptor) string {
	raws := make([]string, 0, len(list))
	for _, v := range list {
		raws = append(raws, v.Raw)
	}
	return strings.Join(raws, "\n")
}

// WriteStatsFile writes stats plus the criteria block as indented JSON.
func WriteStatsFile(path string, stats model.RunStatistics) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := writeStatsJSON(f, stats); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeStatsJSON(w io.Writer, stats model.RunStatistics) error {
	payload := struct {
		model.RunStatistics
		Criteria map[string]string `json:"criteria"`
	}{
		RunStatistics: stats,
		Criteria:      Criteria,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(payload)
}
