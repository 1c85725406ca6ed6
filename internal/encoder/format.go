package encoder

import (
	"fmt"

	"github.com/rawblock/universe-engine/pkg/models"
)

// Format names a wire layout for a Snapshot's vertex data.
type Format string

const (
	FormatVertex28   Format = "vertex28"
	FormatColumnar   Format = "columnar"
	FormatFlatbuffer Format = "flatbuffer"
)

// Compression names a wire compression scheme.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionZstd Compression = "zstd"
)

// Response is an encoded snapshot payload plus the header values the
// API layer must attach to the HTTP response.
type Response struct {
	Body    []byte
	Headers map[string]string
}

// Encode renders snap in the requested format and compression,
// running the contract sample check before returning. Requesting a
// format or compression this build does not implement fails with
// ErrCapabilityMissing rather than silently falling back to another
// one.
func Encode(snap models.Snapshot, format Format, compression Compression) (Response, error) {
	var body []byte
	var err error

	switch format {
	case FormatVertex28:
		body = encodeVertex28(snap)
	case FormatColumnar:
		body, err = encodeColumnar(snap)
	case FormatFlatbuffer:
		body, err = encodeFlatbuffer(snap)
	default:
		return Response{}, fmt.Errorf("%w: format=%q", ErrCapabilityMissing, format)
	}
	if err != nil {
		return Response{}, err
	}

	if err := sampleCheck(snap, format, body); err != nil {
		return Response{}, err
	}

	headers := map[string]string{
		"X-Vertex-Stride":   "28",
		"X-Asset-Count":     fmt.Sprintf("%d", len(snap.Assets)),
		"X-Source-Tier":     string(snap.Tier),
		"X-Taxonomy-Layout": "canonical",
		"Cache-Control":     "no-store",
	}

	switch compression {
	case CompressionNone:
	case CompressionZstd:
		body, err = compressZstd(body)
		if err != nil {
			return Response{}, err
		}
		headers["Content-Encoding"] = "zstd"
	default:
		return Response{}, fmt.Errorf("%w: compression=%q", ErrCapabilityMissing, compression)
	}

	return Response{Body: body, Headers: headers}, nil
}

func encodeVertex28(snap models.Snapshot) []byte {
	out := make([]byte, len(snap.VertexBytes))
	copy(out, snap.VertexBytes)
	return out
}
