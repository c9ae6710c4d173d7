package root

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/oneconcern/cairn/pkg/cafs"
	"github.com/oneconcern/cairn/pkg/path"
	"go.uber.org/zap"
)

// LogChunkSize is the maximum number of entries in a chunk of the private log.
// A chunk of hashes fits in a 256KiB block.
const LogChunkSize = 1020

const logSeparator = ","

// PrivateLog returns the links to the chunks of the private log, in order
func (t *Tree) PrivateLog() []cafs.Link {
	res := make([]cafs.Link, len(t.privateLog))
	copy(res, t.privateLog)
	return res
}

// AddPrivateLogEntry appends the hash of a version of the private index to the log.
//
// Only the last chunk is rewritten, unless it is full: then a new chunk is started.
func (t *Tree) AddPrivateLogEntry(ctx context.Context, id cafs.Key) error {
	log := t.PrivateLog()
	idx := len(log) - 1
	if idx < 0 {
		idx = 0
	}

	var chunk []string
	if idx < len(log) {
		var err error
		if chunk, err = t.readLogChunk(ctx, log[idx]); err != nil {
			return err
		}
	}

	if len(chunk)+1 > LogChunkSize {
		idx++
		chunk = nil
	}

	chunk = append(chunk, hashEntry(id))
	deposit, err := t.deps.Fs.PutBytes(ctx, []byte(strings.Join(chunk, logSeparator)))
	if err != nil {
		return err
	}

	link := cafs.MakeLink(strconv.Itoa(idx), deposit)
	if idx < len(log) {
		log[idx] = link
	} else {
		log = append(log, link)
	}

	res, err := t.deps.Fs.PutLinkedList(ctx, log)
	if err != nil {
		return err
	}
	res.IsFile = false
	t.UpdateLink(path.PrivateLog, res)
	t.privateLog = log

	t.deps.Logger.Debug("added private log entry", zap.Stringer("id", id), zap.Int("chunk", idx), zap.Int("entries", len(chunk)))
	return nil
}

// PrivateLogEntries reads all entries of the private log, oldest first
func (t *Tree) PrivateLogEntries(ctx context.Context) ([]string, error) {
	var entries []string
	for _, link := range t.privateLog {
		chunk, err := t.readLogChunk(ctx, link)
		if err != nil {
			return nil, err
		}
		entries = append(entries, chunk...)
	}
	return entries, nil
}

func (t *Tree) readLogChunk(ctx context.Context, link cafs.Link) ([]string, error) {
	data, err := t.deps.Fs.GetBytes(ctx, link.ID)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	return strings.Split(string(data), logSeparator), nil
}

// hashEntry hides the ids of past versions of the private index
func hashEntry(id cafs.Key) string {
	sum := sha256.Sum256([]byte(id.String()))
	return hex.EncodeToString(sum[:])
}
