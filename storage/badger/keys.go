package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/linkmind/core"
)

// Key prefixes for different data types
const (
	linkRecordPrefix = "linrec"
	linkURLPrefix    = "linurl"
	linkRecordIDSeq  = "linrecseq"
	embeddingPrefix  = "embrec"
	jobRecordPrefix  = "jobrec"
)

// makeLinkKey generates a key for a link record by ID.
func makeLinkKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", linkRecordPrefix, id))
}

// makeURLKey generates a composite key for the URL fingerprint index.
// Format: prefix:fingerprint:id, both big-endian so iteration yields
// submission order within a fingerprint.
func makeURLKey(fingerprint, id core.ID) []byte {
	prefix := linkURLPrefix + ":"
	prefixBytes := []byte(prefix)
	buf := make([]byte, len(prefixBytes)+16)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(fingerprint))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialURLKey generates a partial key for URL fingerprint queries.
func makePartialURLKey(fingerprint core.ID) []byte {
	prefix := linkURLPrefix + ":"
	prefixBytes := []byte(prefix)
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(fingerprint))
	return buf
}

// makeEmbeddingKey generates a key for an embedding by link ID.
// Big-endian so key iteration order matches ID (insertion) order.
func makeEmbeddingKey(id core.ID) []byte {
	prefix := embeddingPrefix + ":"
	prefixBytes := []byte(prefix)
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeJobKey generates a key for a queued job by link ID.
func makeJobKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", jobRecordPrefix, id))
}
