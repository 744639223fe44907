package memmap

import (
	"encoding/binary"
	"testing"
)

func encodeMemTag(sizeBytes, startAddr uint32) []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:], 4) // tagSize in words
	binary.LittleEndian.PutUint32(buf[4:], uint32(atagMem))
	binary.LittleEndian.PutUint32(buf[8:], sizeBytes)
	binary.LittleEndian.PutUint32(buf[12:], startAddr)
	return buf
}

func TestProbeFindsMemTag(t *testing.T) {
	raw := encodeMemTag(256*1024*1024, 0)
	none := make([]byte, 8)
	binary.LittleEndian.PutUint32(none[0:], 2)
	binary.LittleEndian.PutUint32(none[4:], uint32(atagNone))
	raw = append(raw, none...)

	r := Probe(raw)
	if r.Start != 0 || r.End != 256*1024*1024 {
		t.Fatalf("Probe = %+v", r)
	}
}

func TestProbeFallsBackWithoutAtags(t *testing.T) {
	r := Probe(nil)
	if r.End != fallbackRAMSize {
		t.Fatalf("Probe(nil).End = %d, want %d", r.End, fallbackRAMSize)
	}
}
