// Package audio provides the small amount of audio plumbing Verbalis needs:
// RIFF/WAVE container parsing, duration probing, PCM format conversion to the
// recognizer's expected format (16 kHz mono), and WAV encoding for synthesis
// backends that return raw PCM.
//
// Everything here operates on 16-bit little-endian PCM. Compressed or float
// WAV payloads are rejected at parse time.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Info holds the format metadata extracted from a RIFF/WAVE header.
type Info struct {
	// DataOffset is the byte offset of the first PCM sample.
	DataOffset int

	// DataLen is the length of the PCM payload in bytes.
	DataLen int

	// SampleRate in samples per second (e.g., 16000, 22050, 48000).
	SampleRate int

	// Channels: 1 = mono, 2 = stereo.
	Channels int

	// BitsPerSample is the sample width. Only 16 is supported downstream.
	BitsPerSample int
}

// Parse scans the RIFF/WAVE container in wav and returns the location and
// format of its PCM payload. Walking the chunk list is more robust than
// assuming a fixed 44-byte header because the fmt chunk size may vary and
// encoders often insert LIST or fact chunks before the data chunk.
//
// Returns an error if wav is not a valid RIFF/WAVE container or the fmt or
// data chunk cannot be located.
func Parse(wav []byte) (Info, error) {
	if len(wav) < 12 {
		return Info{}, errors.New("audio: too short to be a RIFF file")
	}
	if string(wav[0:4]) != "RIFF" {
		return Info{}, errors.New("audio: missing RIFF header")
	}
	if string(wav[8:12]) != "WAVE" {
		return Info{}, errors.New("audio: missing WAVE identifier")
	}

	var info Info
	foundFmt := false

	offset := 12
	for offset+8 <= len(wav) {
		chunkID := string(wav[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(wav[offset+4 : offset+8]))

		switch chunkID {
		case "fmt ":
			if chunkSize >= 16 && offset+8+16 <= len(wav) {
				fmtData := wav[offset+8:]
				info.Channels = int(binary.LittleEndian.Uint16(fmtData[2:4]))
				info.SampleRate = int(binary.LittleEndian.Uint32(fmtData[4:8]))
				info.BitsPerSample = int(binary.LittleEndian.Uint16(fmtData[14:16]))
				foundFmt = true
			}
		case "data":
			if !foundFmt {
				return Info{}, errors.New("audio: data chunk precedes fmt chunk")
			}
			info.DataOffset = offset + 8
			info.DataLen = chunkSize
			if info.DataOffset+info.DataLen > len(wav) {
				info.DataLen = len(wav) - info.DataOffset
			}
			return info, nil
		}

		// Chunks are word-aligned: pad by 1 if the size is odd.
		offset += 8 + chunkSize
		if chunkSize%2 != 0 {
			offset++
		}
	}
	return Info{}, errors.New("audio: missing data chunk")
}

// Duration returns the play time of the WAV container in seconds.
func Duration(wav []byte) (float64, error) {
	info, err := Parse(wav)
	if err != nil {
		return 0, err
	}
	if info.SampleRate <= 0 || info.Channels <= 0 || info.BitsPerSample <= 0 {
		return 0, fmt.Errorf("audio: invalid format %dHz/%dch/%dbit", info.SampleRate, info.Channels, info.BitsPerSample)
	}
	bytesPerSecond := info.SampleRate * info.Channels * info.BitsPerSample / 8
	return float64(info.DataLen) / float64(bytesPerSecond), nil
}

// Encode wraps raw 16-bit little-endian PCM in a minimal RIFF/WAVE container.
// Used for synthesis backends that return headerless PCM and in tests.
func Encode(pcm []byte, sampleRate, channels int) []byte {
	const headerLen = 44
	byteRate := sampleRate * channels * 2
	out := make([]byte, headerLen+len(pcm))

	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+len(pcm)))
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(out[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:34], uint16(channels*2))
	binary.LittleEndian.PutUint16(out[34:36], 16)
	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(len(pcm)))
	copy(out[44:], pcm)
	return out
}
