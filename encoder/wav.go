package encoder

import (
	"bytes"
	"encoding/binary"
)

const wavHeaderSize = 44

// WavEncoder buffers raw little-endian PCM and stamps the RIFF header on
// Close, once the data length is known.
type WavEncoder struct {
	meter
	buf bytes.Buffer
}

func NewWav() *WavEncoder {
	e := &WavEncoder{}
	e.buf.Write(make([]byte, wavHeaderSize))
	return e
}

func (e *WavEncoder) EncodeBlock(block []int16) error {
	b := make([]byte, len(block)*2)
	for i, s := range block {
		binary.LittleEndian.PutUint16(b[i*2:], uint16(s))
	}
	e.buf.Write(b)
	e.addFrames(len(block))
	return nil
}

func (e *WavEncoder) Close() error {
	b := e.buf.Bytes()
	dataLen := uint32(len(b) - wavHeaderSize)

	copy(b[0:4], "RIFF")
	binary.LittleEndian.PutUint32(b[4:8], 36+dataLen)
	copy(b[8:12], "WAVE")
	copy(b[12:16], "fmt ")
	binary.LittleEndian.PutUint32(b[16:20], 16)
	binary.LittleEndian.PutUint16(b[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(b[22:24], Channels)
	binary.LittleEndian.PutUint32(b[24:28], SampleRate)
	binary.LittleEndian.PutUint32(b[28:32], SampleRate*Channels*BitsPerSample/8)
	binary.LittleEndian.PutUint16(b[32:34], Channels*BitsPerSample/8)
	binary.LittleEndian.PutUint16(b[34:36], BitsPerSample)
	copy(b[36:40], "data")
	binary.LittleEndian.PutUint32(b[40:44], dataLen)
	return nil
}

func (e *WavEncoder) Bytes() []byte {
	return e.buf.Bytes()
}
