// Package beep provides the audio adapters backed by github.com/gopxl/beep.
// It implements the AudioSink and TrackLoader ports.
package beep

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	"github.com/chasetripleseven/attention/internal/domain"
)

// container identifies a decoder.
type container int

const (
	containerUnknown container = iota
	containerMP3
	containerFLAC
	containerWAV
	containerVorbis
)

func (c container) String() string {
	switch c {
	case containerMP3:
		return "mp3"
	case containerFLAC:
		return "flac"
	case containerWAV:
		return "wav"
	case containerVorbis:
		return "vorbis"
	default:
		return "unknown"
	}
}

// headerSize is how many bytes sniffContainer needs.
const headerSize = 12

// sniffContainer guesses the container from the first bytes of a file.
func sniffContainer(header []byte) container {
	switch {
	case bytes.HasPrefix(header, []byte("fLaC")):
		return containerFLAC
	case bytes.HasPrefix(header, []byte("OggS")):
		return containerVorbis
	case len(header) >= 12 && bytes.HasPrefix(header, []byte("RIFF")) && bytes.Equal(header[8:12], []byte("WAVE")):
		return containerWAV
	case bytes.HasPrefix(header, []byte("ID3")):
		return containerMP3
	case len(header) >= 2 && header[0] == 0xFF && header[1]&0xE0 == 0xE0:
		// MPEG frame sync
		return containerMP3
	}
	return containerUnknown
}

// containerFromExt is the fallback when sniffing fails.
func containerFromExt(path string) container {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return containerMP3
	case ".flac":
		return containerFLAC
	case ".wav", ".wave":
		return containerWAV
	case ".ogg", ".oga":
		return containerVorbis
	}
	return containerUnknown
}

// decodeFile opens path and returns a seekable stream for it.
// The caller owns the returned stream and must close it.
func decodeFile(path string) (beep.StreamSeekCloser, beep.Format, error) {
	if path == "" {
		return nil, beep.Format{}, domain.ErrInvalidFilePath
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, beep.Format{}, domain.NewAudioError("open", path, domain.ErrFileNotFound)
		}
		return nil, beep.Format{}, domain.NewAudioError("open", path, err)
	}

	kind, err := detectContainer(f, path)
	if err != nil {
		_ = f.Close()
		return nil, beep.Format{}, domain.NewAudioError("probe", path, err)
	}

	var (
		stream beep.StreamSeekCloser
		format beep.Format
	)
	switch kind {
	case containerMP3:
		stream, format, err = mp3.Decode(f)
	case containerFLAC:
		stream, format, err = flac.Decode(f)
	case containerWAV:
		stream, format, err = wav.Decode(f)
	case containerVorbis:
		stream, format, err = vorbis.Decode(f)
	default:
		_ = f.Close()
		return nil, beep.Format{}, domain.NewAudioError("decode", path, domain.ErrUnsupportedFormat)
	}
	if err != nil {
		_ = f.Close()
		return nil, beep.Format{}, domain.NewAudioError("decode", path,
			fmt.Errorf("%w: %s: %v", domain.ErrUnsupportedFormat, kind, err))
	}

	return &fileStream{StreamSeekCloser: stream, file: f}, format, nil
}

func detectContainer(f *os.File, path string) (container, error) {
	header := make([]byte, headerSize)
	n, err := io.ReadFull(f, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return containerUnknown, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return containerUnknown, err
	}

	if kind := sniffContainer(header[:n]); kind != containerUnknown {
		return kind, nil
	}
	return containerFromExt(path), nil
}

// fileStream makes sure the file is closed with the decoder, whether or
// not the decoder closes its reader itself.
type fileStream struct {
	beep.StreamSeekCloser
	file *os.File
}

func (s *fileStream) Close() error {
	err := s.StreamSeekCloser.Close()
	if cerr := s.file.Close(); err == nil && !errors.Is(cerr, os.ErrClosed) {
		err = cerr
	}
	return err
}
