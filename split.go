// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package cfgbin

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/s2"
	"golang.org/x/sync/errgroup"

	"github.com/bpowers/cfgbin/internal/cfgfile"
	"github.com/bpowers/cfgbin/internal/primitive"
)

const (
	chunkExt = ".bytes"

	// record count plus checksum
	chunkTrailerSize = 4 + 8
)

// ChunkOpener opens the chunk file with the given id of a split stream.
type ChunkOpener func(chunk int) (io.ReadCloser, error)

// ChunkDir is the directory holding the chunk files of fileName:
// "@<name>" next to it, name being the base name without extension.
func ChunkDir(fileName string) string {
	return filepath.Join(filepath.Dir(fileName), "@"+chunkBase(fileName))
}

// ChunkPath is the path of chunk id of fileName.
func ChunkPath(fileName string, chunk int) string {
	return filepath.Join(ChunkDir(fileName), chunkBase(fileName)+"_"+strconv.Itoa(chunk)+chunkExt)
}

func chunkBase(fileName string) string {
	base := filepath.Base(fileName)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ChunkFileOpener opens chunks from the files written by a split write
// of fileName.
func ChunkFileOpener(fileName string) ChunkOpener {
	return func(chunk int) (io.ReadCloser, error) {
		return os.Open(ChunkPath(fileName, chunk))
	}
}

// writeSplit writes entries into chunk files of at most maxSplitCnt
// records each, then a primary stream to f holding only the header and
// an index whose rows name their chunk.
func writeSplit(f FileWriter, shape Shape, entries []entry, o *options) error {
	if o.splitFile == "" {
		return fmt.Errorf("split write needs a file name")
	}
	dir := ChunkDir(o.splitFile)
	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("os.MkdirAll(%s): %w", parent, err)
	}
	// chunks go to a sibling directory first so a failed write leaves
	// any existing chunk set untouched
	tmp, err := os.MkdirTemp(parent, filepath.Base(dir)+".tmp")
	if err != nil {
		return fmt.Errorf("os.MkdirTemp: %w", err)
	}
	if err := os.Chmod(tmp, 0o755); err != nil {
		_ = os.RemoveAll(tmp)
		return fmt.Errorf("os.Chmod(%s): %w", tmp, err)
	}

	per := o.maxSplitCnt
	nChunks := (len(entries) + per - 1) / per

	var g errgroup.Group
	g.SetLimit(o.concurrency)
	for c := 0; c < nChunks; c++ {
		lo, hi := c*per, min((c+1)*per, len(entries))
		path := filepath.Join(tmp, filepath.Base(ChunkPath(o.splitFile, c)))
		g.Go(func() error {
			return writeChunk(path, int32(c), entries[lo:hi], o.compress)
		})
	}
	if err := g.Wait(); err != nil {
		_ = os.RemoveAll(tmp)
		return err
	}
	if err := replaceDir(tmp, dir); err != nil {
		_ = os.RemoveAll(tmp)
		return err
	}

	flags := cfgfile.FlagSplit
	if o.compress {
		flags |= cfgfile.FlagCompressedChunks
	}
	h := cfgfile.NewHeader(uint32(len(entries)), flags)
	w := primitive.NewWriter(f, 0)
	if _, err := h.WriteTo(w); err != nil {
		return fmt.Errorf("header: %w", err)
	}
	if err := finishIndex(f, w, h, shape, entries); err != nil {
		return err
	}

	o.logger.Info("wrote split config",
		"shape", shape,
		"count", len(entries),
		"chunks", nChunks,
		"dir", dir,
		"compressed", o.compress)
	return nil
}

// replaceDir moves the finished chunk directory tmp to dir, dropping
// whatever chunk set dir held.
func replaceDir(tmp, dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("os.RemoveAll(%s): %w", dir, err)
	}
	if err := os.Rename(tmp, dir); err != nil {
		return fmt.Errorf("os.Rename(%s): %w", dir, err)
	}
	return nil
}

// writeChunk writes each entry as its key followed by its values.  The
// file ends with the record count and an xxhash of everything before
// the hash; with compression the whole thing is one s2 block.
func writeChunk(path string, chunk int32, entries []entry, compress bool) error {
	var buf bytes.Buffer
	w := primitive.NewWriter(&buf, 0)
	for i := range entries {
		e := &entries[i]
		e.off = w.Offset()
		e.chunk = chunk
		if err := e.writeKey(w); err != nil {
			return fmt.Errorf("chunk %d key: %w", chunk, err)
		}
		if err := e.writeData(w); err != nil {
			return fmt.Errorf("chunk %d data: %w", chunk, err)
		}
	}
	if err := w.WriteInt32(int32(len(entries))); err != nil {
		return err
	}
	if err := w.Finish(); err != nil {
		return err
	}

	data := binary.LittleEndian.AppendUint64(buf.Bytes(), xxhash.Sum64(buf.Bytes()))
	if compress {
		data = s2.Encode(nil, data)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("os.WriteFile: %w", err)
	}
	return nil
}

// openChunk reads a whole chunk into memory and verifies it.  The
// returned reader covers the records and the count, not the checksum.
func openChunk(opener ChunkOpener, chunk int, compressed bool) (*primitive.Reader, error) {
	rc, err := opener(chunk)
	if err != nil {
		return nil, fmt.Errorf("open chunk %d: %w", chunk, err)
	}
	data, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		return nil, fmt.Errorf("read chunk %d: %w", chunk, err)
	}
	if compressed {
		if data, err = s2.Decode(nil, data); err != nil {
			return nil, fmt.Errorf("%w: chunk %d: s2.Decode: %s", ErrChunkCorrupted, chunk, err)
		}
	}
	if len(data) < chunkTrailerSize {
		return nil, fmt.Errorf("%w: chunk %d is %d bytes", ErrChunkCorrupted, chunk, len(data))
	}
	body, sum := data[:len(data)-8], binary.LittleEndian.Uint64(data[len(data)-8:])
	if got := xxhash.Sum64(body); got != sum {
		return nil, fmt.Errorf("%w: chunk %d checksum %x, expected %x", ErrChunkCorrupted, chunk, got, sum)
	}
	return primitive.NewReader(bytes.NewReader(body))
}
