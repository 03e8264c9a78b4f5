package video

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// containerArgs maps an output extension to its ffmpeg encoder arguments.
var containerArgs = map[string][]string{
	".mp4":  {"-c:v", "libx264", "-preset", "medium", "-crf", "20", "-pix_fmt", "yuv420p", "-movflags", "+faststart"},
	".mov":  {"-c:v", "libx264", "-preset", "medium", "-crf", "20", "-pix_fmt", "yuv420p", "-movflags", "+faststart"},
	".mkv":  {"-c:v", "libx264", "-preset", "medium", "-crf", "20", "-pix_fmt", "yuv420p"},
	".webm": {"-c:v", "libvpx-vp9", "-b:v", "0", "-crf", "32", "-pix_fmt", "yuv420p"},
	".gif":  {"-filter_complex", "[0:v]split[a][b];[a]palettegen=stats_mode=diff[p];[b][p]paletteuse", "-loop", "0"},
}

// Containers returns the supported output extensions.
func Containers() []string {
	return []string{".gif", ".mkv", ".mov", ".mp4", ".webm"}
}

// encodeArgs builds the ffmpeg command line that reads raw RGBA frames of
// the given size from stdin and writes them to output.
func encodeArgs(output string, width, height, fps int) ([]string, error) {
	ext := strings.ToLower(filepath.Ext(output))
	codec, ok := containerArgs[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: %s)",
			ErrUnsupportedContainer, ext, strings.Join(Containers(), ", "))
	}

	args := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", width, height),
		"-r", strconv.Itoa(fps),
		"-i", "pipe:0",
	}
	args = append(args, codec...)
	return append(args, output), nil
}
