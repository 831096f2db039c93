package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
)

// Prober reports the playback duration of a local media file in seconds.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// FFProbe shells out to ffprobe.
type FFProbe struct {
	Binary string
}

type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func (p FFProbe) Duration(ctx context.Context, path string) (float64, error) {
	bin := p.Binary
	if bin == "" {
		bin = "ffprobe"
	}

	cmd := exec.CommandContext(ctx, bin, "-v", "error", "-print_format", "json", "-show_format", path)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	return parseDuration(out.Bytes())
}

func parseDuration(b []byte) (float64, error) {
	var data ffprobeOutput
	if err := json.Unmarshal(b, &data); err != nil {
		return 0, fmt.Errorf("ffprobe output: %w", err)
	}
	if data.Format.Duration == "" {
		return 0, fmt.Errorf("ffprobe output: no duration")
	}
	return strconv.ParseFloat(data.Format.Duration, 64)
}
