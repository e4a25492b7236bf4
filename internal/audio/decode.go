package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/wav"

	"github.com/cesargomez89/resonate/internal/constants"
)

var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Supported reports whether the file extension can be decoded.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case constants.ExtMP3, constants.ExtFLAC, constants.ExtWAV:
		return true
	}
	return false
}

// Open decodes the file at path. The caller closes the returned streamer,
// which also closes the file.
func Open(path string) (beep.StreamSeekCloser, beep.Format, error) {
	if !Supported(path) {
		return nil, beep.Format{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, err
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case constants.ExtMP3:
		streamer, format, err = mp3.Decode(f)
	case constants.ExtFLAC:
		streamer, format, err = flac.Decode(f)
	default:
		streamer, format, err = wav.Decode(f)
	}
	if err != nil {
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return streamer, format, nil
}

// Duration probes the playing time of an audio file.
func Duration(path string) (time.Duration, error) {
	streamer, format, err := Open(path)
	if err != nil {
		return 0, err
	}
	defer streamer.Close()

	return format.SampleRate.D(streamer.Len()), nil
}
