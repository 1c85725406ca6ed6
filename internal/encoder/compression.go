package encoder

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// compressZstd compresses body at the best-compression encoder level;
// snapshot payloads are built once and read by many clients, so the
// extra encode time is worth the smaller transfer.
func compressZstd(body []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return nil, fmt.Errorf("encoder: zstd writer: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(body, make([]byte, 0, len(body))), nil
}

// decompressZstd reverses compressZstd. Only exercised by tests —
// production clients decode the zstd frame themselves.
func decompressZstd(body []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("encoder: zstd reader: %w", err)
	}
	defer dec.Close()
	out, err := dec.DecodeAll(body, nil)
	if err != nil {
		return nil, fmt.Errorf("encoder: zstd decode: %w", err)
	}
	return out, nil
}
