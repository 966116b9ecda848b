package cache

import (
	"encoding/binary"
	"errors"
	"time"
)

// Durable-tier entries carry their expiry with them so a cache reopened
// after a restart can still refuse stale data. The on-disk layout is an
// 8-byte big-endian unix-millisecond expiry followed by the raw payload;
// a zero expiry means the entry never expires.
const entryHeaderLen = 8

var errCorruptEntry = errors.New("cache: corrupt entry")

// encodeEntry prepends the absolute expiry to the payload.
func encodeEntry(expiresAt time.Time, payload []byte) []byte {
	buf := make([]byte, entryHeaderLen+len(payload))
	if !expiresAt.IsZero() {
		binary.BigEndian.PutUint64(buf, uint64(expiresAt.UnixMilli()))
	}
	copy(buf[entryHeaderLen:], payload)
	return buf
}

// decodeEntry splits a durable-tier entry into expiry and payload.
func decodeEntry(data []byte) (time.Time, []byte, error) {
	if len(data) < entryHeaderLen {
		return time.Time{}, nil, errCorruptEntry
	}
	millis := binary.BigEndian.Uint64(data)
	var expiresAt time.Time
	if millis != 0 {
		expiresAt = time.UnixMilli(int64(millis))
	}
	return expiresAt, data[entryHeaderLen:], nil
}
