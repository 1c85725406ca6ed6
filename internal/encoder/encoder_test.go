package encoder

import (
	"testing"

	"github.com/rawblock/universe-engine/internal/codec"
	"github.com/rawblock/universe-engine/pkg/models"
)

func sampleSnapshot(n int) models.Snapshot {
	var buf []byte
	for i := 0; i < n; i++ {
		v := codec.Vertex28{
			Lead: uint32(i), Meta32: uint32(i * 2),
			X: 0.1, Y: 0.2, Z: 0.3, Fidelity: 0.5, Spin: 0.1,
		}
		packed, _ := v.Pack()
		buf = append(buf, packed[:]...)
	}
	assets := make([]models.UniverseAsset, n)
	return models.Snapshot{Assets: assets, VertexBytes: buf, Tier: models.TierSovereign}
}

func TestEncodeVertex28RoundTrip(t *testing.T) {
	snap := sampleSnapshot(20)
	resp, err := Encode(snap, FormatVertex28, CompressionNone)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if len(resp.Body) != 20*codec.VertexStride {
		t.Errorf("len(Body) = %d, want %d", len(resp.Body), 20*codec.VertexStride)
	}
	if resp.Headers["X-Asset-Count"] != "20" {
		t.Errorf("X-Asset-Count = %q, want 20", resp.Headers["X-Asset-Count"])
	}
	if resp.Headers["X-Source-Tier"] != "Sovereign" {
		t.Errorf("X-Source-Tier = %q, want Sovereign", resp.Headers["X-Source-Tier"])
	}
}

func TestEncodeColumnarPassesContractCheck(t *testing.T) {
	snap := sampleSnapshot(37)
	resp, err := Encode(snap, FormatColumnar, CompressionNone)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if len(resp.Body) == 0 {
		t.Fatal("columnar body is empty")
	}
}

func TestEncodeFlatbufferPassesContractCheck(t *testing.T) {
	snap := sampleSnapshot(15)
	if _, err := Encode(snap, FormatFlatbuffer, CompressionNone); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
}

func TestEncodeZstdRoundTrips(t *testing.T) {
	snap := sampleSnapshot(50)
	resp, err := Encode(snap, FormatVertex28, CompressionZstd)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if resp.Headers["Content-Encoding"] != "zstd" {
		t.Errorf("Content-Encoding = %q, want zstd", resp.Headers["Content-Encoding"])
	}
	decompressed, err := decompressZstd(resp.Body)
	if err != nil {
		t.Fatalf("decompressZstd() error = %v", err)
	}
	if len(decompressed) != 50*codec.VertexStride {
		t.Errorf("decompressed length = %d, want %d", len(decompressed), 50*codec.VertexStride)
	}
}

func TestEncodeUnknownFormatIsCapabilityMissing(t *testing.T) {
	snap := sampleSnapshot(5)
	if _, err := Encode(snap, Format("wireframe"), CompressionNone); err == nil {
		t.Fatal("Encode() error = nil, want ErrCapabilityMissing")
	}
}

func TestEncodeUnknownCompressionIsCapabilityMissing(t *testing.T) {
	snap := sampleSnapshot(5)
	if _, err := Encode(snap, FormatVertex28, Compression("brotli")); err == nil {
		t.Fatal("Encode() error = nil, want ErrCapabilityMissing")
	}
}

func TestEncodeEmptySnapshot(t *testing.T) {
	snap := models.Snapshot{Tier: models.TierSentinel}
	resp, err := Encode(snap, FormatVertex28, CompressionNone)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if len(resp.Body) != 0 {
		t.Errorf("len(Body) = %d, want 0 for empty snapshot", len(resp.Body))
	}
}
