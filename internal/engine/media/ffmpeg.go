package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/legacyprojects/ytapi/internal/engine"
)

// convertSem bounds concurrent ffmpeg codec conversions. Transcoding to
// mpeg4/h263 is CPU heavy; four at a time keeps the box responsive.
var convertSem = semaphore.NewWeighted(4)

const ffmpegHeaders = "Referer: https://www.youtube.com\r\nOrigin: https://www.youtube.com"

func ffmpegInputArgs(userAgent, inputURL string) []string {
	return []string{
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-reconnect_at_eof", "1",
		"-reconnect_delay_max", "10",
		"-user_agent", userAgent,
		"-headers", ffmpegHeaders,
		"-i", inputURL,
	}
}

func ffmpegBaseArgs() []string {
	return []string{"-hide_banner", "-loglevel", "error", "-nostdin"}
}

// MergeHLSToFile runs ffmpeg over an HLS video playlist (and optional audio
// playlist) and writes a fragmented mp4 to dest. The write goes through a
// .tmp file and rename so readers never see a partial file.
func MergeHLSToFile(ctx context.Context, videoURL, audioURL, dest, userAgent string) error {
	engine.IncrFfmpeg()
	tmp := dest + ".tmp"

	args := ffmpegBaseArgs()
	args = append(args, ffmpegInputArgs(userAgent, videoURL)...)
	if audioURL != "" {
		args = append(args, ffmpegInputArgs(userAgent, audioURL)...)
		args = append(args,
			"-map", "0:v:0", "-map", "1:a:0",
			"-c:v", "copy", "-c:a", "aac", "-b:a", "160k",
		)
	} else {
		args = append(args, "-c", "copy")
	}
	args = append(args, "-movflags", "frag_keyframe+empty_moov", "-f", "mp4", "-y", tmp)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("ffmpeg hls merge: %w: %s", err, stderr.String())
	}
	if err := os.Rename(tmp, dest); err != nil {
		return fmt.Errorf("rename merge output: %w", err)
	}
	return nil
}

// ConvertToTemp transcodes a stream for legacy players and returns the path
// of the produced temp file. codec is "mpeg4" (mp4 container) or "h263"
// (3gp, 352x288 with AMR audio). The caller removes the file when done;
// the periodic cleanup sweeps anything left behind.
func ConvertToTemp(ctx context.Context, sourceURL, userAgent, codec string) (string, error) {
	if err := convertSem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer convertSem.Release(1)
	engine.IncrFfmpeg()

	ext := "3gp"
	if codec == "mpeg4" {
		ext = "mp4"
	}
	dest := filepath.Join(TempDir(), fmt.Sprintf("yt_api_video_%d_%d.%s",
		time.Now().UnixMilli(), os.Getpid(), ext))

	args := ffmpegBaseArgs()
	args = append(args, ffmpegInputArgs(userAgent, sourceURL)...)
	if codec == "mpeg4" {
		args = append(args,
			"-c:v", "mpeg4", "-vtag", "mp4v", "-b:v", "501k",
			"-brand", "isom", "-pix_fmt", "yuv420p",
			"-c:a", "copy", "-f", "mp4",
		)
	} else {
		args = append(args,
			"-c:v", "h263", "-vf", "scale=352:288",
			"-c:a", "libopencore_amrnb", "-ar", "8000", "-ac", "1",
			"-f", "3gp",
		)
	}
	args = append(args, "-y", dest)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("ffmpeg conversion: %w: %s", err, stderr.String())
	}
	return dest, nil
}

// StreamMerged pipes an ffmpeg merge of separate video and audio streams
// straight to w as fragmented mp4. Used when no pre-muxed rendition covers
// the requested height.
func StreamMerged(ctx context.Context, w io.Writer, videoURL, audioURL, userAgent string) error {
	engine.IncrFfmpeg()

	args := ffmpegBaseArgs()
	args = append(args, ffmpegInputArgs(userAgent, videoURL)...)
	args = append(args, ffmpegInputArgs(userAgent, audioURL)...)
	args = append(args,
		"-map", "0:v:0", "-map", "1:a:0",
		"-c:v", "copy", "-c:a", "aac", "-b:a", "160k",
		"-movflags", "frag_keyframe+empty_moov",
		"-f", "mp4", "-",
	)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stdout = w
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg merge stream: %w: %s", err, stderr.String())
	}
	return nil
}
