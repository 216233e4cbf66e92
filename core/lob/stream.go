package lob

import (
	"bytes"
	"fmt"

	"github.com/FocuswithJustin/mdf/core/page"
)

// ErrorPolicy selects what a Stream does when the tree traversal fails
// mid-value.
type ErrorPolicy int

const (
	// Abort stops the stream; Err reports the failure and the bytes already
	// yielded must be considered incomplete.
	Abort ErrorPolicy = iota

	// Truncate ends the stream early, keeping the prefix already yielded
	// valid; Err reports the failure as a recoverable warning and Truncated
	// returns true.
	Truncate
)

// DefaultMaxDepth bounds the LOB tree depth to guard against cyclic
// corruption. Legitimate trees are at most three levels deep.
const DefaultMaxDepth = 8

// Options configure one reassembly pass.
type Options struct {
	OnError  ErrorPolicy
	MaxDepth int // 0 means DefaultMaxDepth
}

// Stream is a pull-based sequence of byte chunks produced by an in-order
// traversal of a LOB tree. Nothing is fetched before the first Next call and
// never more than one node ahead of the chunk last handed out.
type Stream struct {
	pr   page.Provider
	opts Options
	root page.RecordPointer

	started   bool
	done      bool
	truncated bool
	stack     []frame
	chunk     []byte
	err       error
}

type frame struct {
	links []Link
	idx   int
}

// Open starts a reassembly pass over the tree rooted at ptr. The pass is
// single-use; call Open again for a fresh one.
func Open(pr page.Provider, ptr Pointer, opts Options) *Stream {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	return &Stream{pr: pr, opts: opts, root: ptr.Root}
}

// Next advances to the next chunk. It returns false when the value is
// exhausted or the traversal failed; check Err afterwards.
func (s *Stream) Next() bool {
	if s.done {
		return false
	}

	if !s.started {
		s.started = true
		node, err := getNode(s.pr, s.root)
		if err != nil {
			return s.fail(err)
		}
		return s.enter(node)
	}

	for {
		if len(s.stack) == 0 {
			s.done = true
			return false
		}
		top := &s.stack[len(s.stack)-1]
		if top.idx >= len(top.links) {
			s.stack = s.stack[:len(s.stack)-1]
			continue
		}
		link := top.links[top.idx]
		top.idx++

		node, err := getNode(s.pr, link.Ptr)
		if err != nil {
			return s.fail(err)
		}
		if ok := s.enter(node); ok {
			return true
		}
		if s.done {
			return false
		}
	}
}

// enter handles a freshly fetched node: leaves yield a chunk, inner nodes
// push a frame.
func (s *Stream) enter(node *Node) bool {
	switch node.Kind {
	case NodeSmallRoot, NodeData:
		s.chunk = node.Data
		return true
	case NodeNull:
		s.done = true
		return false
	case NodeLargeRoot, NodeInternal:
		if len(s.stack) >= s.opts.MaxDepth {
			return s.fail(fmt.Errorf("%w: tree deeper than %d levels", ErrBrokenLobChain, s.opts.MaxDepth))
		}
		s.stack = append(s.stack, frame{links: node.Links()})
		return s.Next()
	}
	return s.fail(fmt.Errorf("%w: unexpected node kind %v", ErrBrokenLobChain, node.Kind))
}

func (s *Stream) fail(err error) bool {
	s.done = true
	if s.opts.OnError == Truncate {
		s.truncated = true
		s.err = fmt.Errorf("value truncated: %w", err)
	} else {
		s.err = err
	}
	return false
}

// Chunk returns the current chunk. It is only valid until the next call to
// Next and borrows from the page buffer it was read from.
func (s *Stream) Chunk() []byte {
	return s.chunk
}

// Err returns the traversal failure, if any. Under the Truncate policy the
// error is a warning: the chunks already yielded form a valid prefix.
func (s *Stream) Err() error {
	return s.err
}

// Truncated reports whether the stream ended early under the Truncate policy.
func (s *Stream) Truncated() bool {
	return s.truncated
}

// ReadAll materializes a whole LOB value. Convenience for callers that know
// the value is small; anything potentially large should consume the stream
// chunk by chunk.
func ReadAll(pr page.Provider, ptr Pointer, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	s := Open(pr, ptr, opts)
	for s.Next() {
		buf.Write(s.Chunk())
	}
	if err := s.Err(); err != nil && !s.Truncated() {
		return nil, err
	}
	return buf.Bytes(), s.Err()
}
