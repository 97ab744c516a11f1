package meta

import (
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
)

// ErrProbeUnavailable means ffprobe is not installed. Extraction
// degrades to tag-only metadata in that case.
var ErrProbeUnavailable = errors.New("ffprobe not found in PATH")

// ProbeInfo is the parsed ffprobe JSON output
type ProbeInfo struct {
	Streams []ProbeStream `json:"streams"`
	Format  *ProbeFormat  `json:"format"`
}

// AudioStream returns the first audio stream, or nil
func (p *ProbeInfo) AudioStream() *ProbeStream {
	for i := range p.Streams {
		if p.Streams[i].CodecType == "audio" {
			return &p.Streams[i]
		}
	}
	if len(p.Streams) > 0 {
		return &p.Streams[0]
	}
	return nil
}

// laxInt unmarshals integers that ffprobe emits as either numbers or
// strings, treating "N/A" and garbage as zero.
type laxInt struct {
	Value int
}

func (i *laxInt) UnmarshalJSON(data []byte) error {
	var intVal int
	if err := json.Unmarshal(data, &intVal); err == nil {
		i.Value = intVal
		return nil
	}

	var strVal string
	if err := json.Unmarshal(data, &strVal); err != nil {
		return err
	}
	parsed, err := strconv.Atoi(strVal)
	if err != nil {
		i.Value = 0
		return nil
	}
	i.Value = parsed
	return nil
}

// ProbeStream is one stream entry from ffprobe
type ProbeStream struct {
	Index            int    `json:"index"`
	CodecName        string `json:"codec_name"`
	CodecType        string `json:"codec_type"`
	SampleRate       int    `json:"sample_rate,string"`
	Channels         int    `json:"channels"`
	ChannelLayout    string `json:"channel_layout"`
	BitsPerSample    laxInt `json:"bits_per_sample"`
	BitsPerRawSample laxInt `json:"bits_per_raw_sample"`
	Duration         string `json:"duration"`
	BitRate          string `json:"bit_rate"`
}

// ProbeFormat is the container-level entry from ffprobe
type ProbeFormat struct {
	Filename   string            `json:"filename"`
	FormatName string            `json:"format_name"`
	Duration   string            `json:"duration"`
	Size       string            `json:"size"`
	BitRate    string            `json:"bit_rate"`
	Tags       map[string]string `json:"tags"`
}

// Probe runs ffprobe on path and parses its JSON output
func Probe(path string) (*ProbeInfo, error) {
	if !ProbeAvailable() {
		return nil, ErrProbeUnavailable
	}

	cmd := exec.Command("ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%w: ffprobe: %s", ErrCorruptStream, string(exitErr.Stderr))
		}
		return nil, fmt.Errorf("ffprobe execution failed: %w", err)
	}

	var info ProbeInfo
	if err := json.Unmarshal(output, &info); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	return &info, nil
}

// ProbeAvailable reports whether ffprobe is installed
func ProbeAvailable() bool {
	_, err := exec.LookPath("ffprobe")
	return err == nil
}
