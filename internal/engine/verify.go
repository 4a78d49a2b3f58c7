package engine

import (
	"log/slog"

	"github.com/bamsammich/stow/internal/apath"
	"github.com/bamsammich/stow/internal/event"
	"github.com/bamsammich/stow/internal/tree"
)

// DiffKind says how an entry differs between two trees.
type DiffKind int

const (
	OnlyLeft DiffKind = iota + 1
	OnlyRight
	KindChanged
	SizeChanged
	ContentChanged
	TargetChanged
	Unreadable
)

var diffKindNames = [...]string{
	OnlyLeft:       "only-left",
	OnlyRight:      "only-right",
	KindChanged:    "kind-changed",
	SizeChanged:    "size-changed",
	ContentChanged: "content-changed",
	TargetChanged:  "target-changed",
	Unreadable:     "unreadable",
}

func (k DiffKind) String() string {
	if k > 0 && int(k) < len(diffKindNames) {
		return diffKindNames[k]
	}
	return "unknown"
}

// Diff is one difference found by Verify.
type Diff struct {
	Path string
	Kind DiffKind
	Err  error // set for Unreadable
}

// VerifyOptions control a verification pass.
type VerifyOptions struct {
	Events chan<- event.Event
	Logger *slog.Logger
}

// VerifyResult holds the outcome of a verification pass.
type VerifyResult struct {
	Verified int64 // entries present in both trees and equal
	Diffs    []Diff
}

// OK reports whether the trees were found identical.
func (r VerifyResult) OK() bool { return len(r.Diffs) == 0 }

// Verify compares two trees entry by entry, typically a stored version
// against the live tree it was taken from. Both are walked once, in step,
// relying on their shared apath order. Files of equal size are compared by
// the BLAKE3 hash of their content.
func Verify(left, right tree.ReadTree, opts VerifyOptions) (VerifyResult, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	li, err := left.IterEntries()
	if err != nil {
		return VerifyResult{}, err
	}
	ri, err := right.IterEntries()
	if err != nil {
		return VerifyResult{}, err
	}
	event.Emit(opts.Events, event.Event{Type: event.VerifyStarted})

	v := &verifier{left: left, right: right, opts: opts}
	l, lok := li.Next()
	r, rok := ri.Next()
	for lok || rok {
		var c int
		switch {
		case !rok:
			c = -1
		case !lok:
			c = 1
		default:
			c = apath.Compare(l.Apath(), r.Apath())
		}
		switch {
		case c < 0:
			v.diff(l.Apath().String(), OnlyLeft, nil)
			l, lok = li.Next()
		case c > 0:
			v.diff(r.Apath().String(), OnlyRight, nil)
			r, rok = ri.Next()
		default:
			v.compare(l, r)
			l, lok = li.Next()
			r, rok = ri.Next()
		}
	}
	return v.result, nil
}

type verifier struct {
	left, right tree.ReadTree
	opts        VerifyOptions
	result      VerifyResult
}

func (v *verifier) compare(l, r tree.Entry) {
	path := l.Apath().String()
	if l.Kind() != r.Kind() {
		v.diff(path, KindChanged, nil)
		return
	}
	switch l.Kind() {
	case tree.File:
		ls, _ := l.Size()
		rs, _ := r.Size()
		if ls != rs {
			v.diff(path, SizeChanged, nil)
			return
		}
		lh, err := HashContents(v.left, l)
		if err != nil {
			v.diff(path, Unreadable, err)
			return
		}
		rh, err := HashContents(v.right, r)
		if err != nil {
			v.diff(path, Unreadable, err)
			return
		}
		if lh != rh {
			v.diff(path, ContentChanged, nil)
			return
		}
	case tree.Symlink:
		lt, _ := l.SymlinkTarget()
		rt, _ := r.SymlinkTarget()
		if lt != rt {
			v.diff(path, TargetChanged, nil)
			return
		}
	}
	v.result.Verified++
	event.Emit(v.opts.Events, event.Event{Type: event.VerifyOK, Path: path})
}

func (v *verifier) diff(path string, kind DiffKind, err error) {
	v.result.Diffs = append(v.result.Diffs, Diff{Path: path, Kind: kind, Err: err})
	if err != nil {
		v.opts.Logger.Warn("entry differs", "path", path, "diff", kind, "error", err)
	} else {
		v.opts.Logger.Info("entry differs", "path", path, "diff", kind)
	}
	event.Emit(v.opts.Events, event.Event{Type: event.VerifyFailed, Path: path, Error: err})
}
