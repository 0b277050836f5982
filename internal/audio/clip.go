package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Clip is one finished, encodable unit of captured or uploaded audio.
type Clip struct {
	Bytes []byte
	MIME  string
}

// Empty reports whether the clip carries no audio payload.
func (c Clip) Empty() bool {
	return len(c.Bytes) == 0
}

// ClipFromPCM wraps raw s16le PCM in a WAV container ready for transport.
func ClipFromPCM(pcm []byte, sampleRate int, channels int) Clip {
	if len(pcm) == 0 {
		return Clip{}
	}
	return Clip{Bytes: encodeWAV(pcm, sampleRate, channels), MIME: "audio/wav"}
}

// ClipFromFile reads a user-supplied audio file as an alternate clip source,
// bypassing capture entirely.
func ClipFromFile(path string) (Clip, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Clip{}, fmt.Errorf("read audio file %q: %w", path, err)
	}

	mime, err := mimeForExtension(filepath.Ext(path))
	if err != nil {
		return Clip{}, fmt.Errorf("audio file %q: %w", path, err)
	}
	return Clip{Bytes: data, MIME: mime}, nil
}

func mimeForExtension(ext string) (string, error) {
	switch strings.ToLower(ext) {
	case ".wav":
		return "audio/wav", nil
	case ".webm":
		return "audio/webm", nil
	case ".ogg", ".oga":
		return "audio/ogg", nil
	case ".mp3":
		return "audio/mpeg", nil
	case ".m4a", ".aac":
		return "audio/aac", nil
	case ".flac":
		return "audio/flac", nil
	default:
		return "", fmt.Errorf("unrecognized audio extension %q", ext)
	}
}

// encodeWAV prefixes raw little-endian PCM bytes with a minimal WAV header.
func encodeWAV(pcm []byte, sampleRate int, channels int) []byte {
	if channels <= 0 {
		channels = 1
	}
	const bitsPerSample = 16
	byteRate := sampleRate * channels * (bitsPerSample / 8)
	blockAlign := channels * (bitsPerSample / 8)

	var buf bytes.Buffer
	buf.Grow(44 + len(pcm))

	header := make([]byte, 44)
	copy(header[0:4], []byte("RIFF"))
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+len(pcm)))
	copy(header[8:12], []byte("WAVE"))
	copy(header[12:16], []byte("fmt "))
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], bitsPerSample)
	copy(header[36:40], []byte("data"))
	binary.LittleEndian.PutUint32(header[40:44], uint32(len(pcm)))

	buf.Write(header)
	buf.Write(pcm)
	return buf.Bytes()
}
