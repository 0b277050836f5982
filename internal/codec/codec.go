// Package codec converts captured audio bytes to transport base64 and
// synthesized base64 PCM back to normalized float samples for playback.
package codec

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// ErrDecode reports malformed base64 payloads from the synthesis gateway.
var ErrDecode = errors.New("malformed audio payload")

// EncodeForTransport encodes clip bytes for embedding in a JSON request.
func EncodeForTransport(clip []byte) string {
	return base64.StdEncoding.EncodeToString(clip)
}

// DecodeForPlayback decodes base64 s16le PCM into samples normalized to
// [-1.0, 1.0]. A partial trailing sample is truncated; truncated reports it
// so callers can log a warning.
func DecodeForPlayback(encoded string) (samples []float32, truncated bool, err error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	if len(raw)%2 != 0 {
		raw = raw[:len(raw)-1]
		truncated = true
	}

	samples = make([]float32, len(raw)/2)
	for i := range samples {
		sample := int16(uint16(raw[2*i]) | uint16(raw[2*i+1])<<8)
		samples[i] = float32(sample) / 32768.0
	}
	return samples, truncated, nil
}
