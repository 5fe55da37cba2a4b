// Package oid generates and parses 12-byte BSON ObjectIds.
//
// An id is the big-endian concatenation of four fields:
//
//	+---+---+---+---+---+---+---+---+---+---+---+---+
//	|     time      |  machine  |  pid  |  counter  |
//	+---+---+---+---+---+---+---+---+---+---+---+---+
//	  0   1   2   3   4   5   6   7   8   9  10  11
//
// time is seconds since the Unix epoch, machine is the first three bytes of
// the MD5 digest of the hostname, pid is the low 16 bits of the process id,
// and counter is a randomly seeded counter incremented once per id, wrapping
// modulo 2^24.
package oid

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/arloliu/bsonkit/errs"
)

// RawLen is the byte length of an ObjectId.
const RawLen = 12

// hexLen is the length of the hexadecimal string form.
const hexLen = 24

// ID is a 12-byte BSON ObjectId.
type ID [RawLen]byte

// counter is incremented atomically once per generated id. Only the low
// 24 bits reach the wire, which wraps it modulo 2^24 regardless of the
// host word size.
var counter uint32

// machineID holds the first three bytes of the MD5 digest of the hostname,
// captured once at package init and immutable afterwards.
var machineID = readMachineID()

func init() {
	b := make([]byte, 3)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		panic(fmt.Errorf("bsonkit/oid: cannot seed id counter: %w", err))
	}
	counter = uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

// readMachineID derives the machine field from the hostname digest, falling
// back to random bytes when the hostname is unavailable.
func readMachineID() []byte {
	id := make([]byte, 3)
	hostname, err := os.Hostname()
	if err != nil {
		if _, rerr := io.ReadFull(rand.Reader, id); rerr != nil {
			panic(fmt.Errorf("bsonkit/oid: cannot get hostname: %w", err))
		}

		return id
	}

	digest := md5.Sum([]byte(hostname))
	copy(id, digest[:3])

	return id
}

// New generates a new id stamped with the current time.
func New() ID {
	return NewWithTime(time.Now())
}

// NewWithTime generates a new id stamped with the given time instead of now.
func NewWithTime(t time.Time) ID {
	var id ID

	binary.BigEndian.PutUint32(id[0:4], uint32(t.Unix())) //nolint:gosec

	id[4] = machineID[0]
	id[5] = machineID[1]
	id[6] = machineID[2]

	pid := os.Getpid()
	id[7] = byte(pid >> 8)
	id[8] = byte(pid)

	c := atomic.AddUint32(&counter, 1)
	id[9] = byte(c >> 16)
	id[10] = byte(c >> 8)
	id[11] = byte(c)

	return id
}

// IsValidHex reports whether s is a legal ObjectId string: exactly 24 ASCII
// hexadecimal digits.
func IsValidHex(s string) bool {
	if len(s) != hexLen {
		return false
	}

	for i := 0; i < hexLen; i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}

	return true
}

// FromHex parses a 24-character hexadecimal string into an id.
// Returns errs.ErrInvalidObjectID for any other input.
func FromHex(s string) (ID, error) {
	var id ID

	if !IsValidHex(s) {
		return id, fmt.Errorf("%w: %q is not a 24-character hex string", errs.ErrInvalidObjectID, s)
	}

	if _, err := hex.Decode(id[:], []byte(s)); err != nil {
		return id, fmt.Errorf("%w: %q", errs.ErrInvalidObjectID, s)
	}

	return id, nil
}

// FromBytes builds an id from a raw 12-byte slice.
func FromBytes(b []byte) (ID, error) {
	var id ID

	if len(b) != RawLen {
		return id, fmt.Errorf("%w: expected %d bytes, got %d", errs.ErrInvalidObjectID, RawLen, len(b))
	}
	copy(id[:], b)

	return id, nil
}

// Hex returns the 24-character lowercase hexadecimal form of the id.
func (id ID) Hex() string {
	return hex.EncodeToString(id[:])
}

// Time returns the timestamp field as a UTC time with one-second precision.
func (id ID) Time() time.Time {
	secs := int64(binary.BigEndian.Uint32(id[0:4]))
	return time.Unix(secs, 0).UTC()
}

// Counter returns the 24-bit counter field.
func (id ID) Counter() uint32 {
	return uint32(id[9])<<16 | uint32(id[10])<<8 | uint32(id[11])
}

// Bytes returns a copy of the raw 12 bytes.
func (id ID) Bytes() []byte {
	b := make([]byte, RawLen)
	copy(b, id[:])

	return b
}

func (id ID) String() string {
	return id.Hex()
}
