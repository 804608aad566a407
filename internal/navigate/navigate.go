// Package navigate decides which instance of a dataset an annotator sees:
// the instance to display for a request and the instance to move to after
// a save.
package navigate

import (
	"fmt"

	"github.com/jlonij/dac-web/internal/model"
)

// Navigation actions submitted with a save.
const (
	ActionFirst   = "first"
	ActionNext    = "next"
	ActionPrev    = "prev"
	ActionNextArt = "next_art"
	ActionPrevArt = "prev_art"
)

// Resolution is the outcome of a navigation decision: either a resolved
// position or no position at all.
type Resolution struct {
	index int
	found bool
}

// Resolved returns a Resolution pointing at index.
func Resolved(index int) Resolution {
	return Resolution{index: index, found: true}
}

// NotFound returns an empty Resolution.
func NotFound() Resolution {
	return Resolution{}
}

// Found reports whether a position was resolved.
func (r Resolution) Found() bool {
	return r.found
}

// Index returns the resolved position, or model.ErrNotFound.
func (r Resolution) Index() (int, error) {
	if !r.found {
		return 0, model.ErrNotFound
	}
	return r.index, nil
}

func (r Resolution) String() string {
	if !r.found {
		return "not found"
	}
	return fmt.Sprintf("index %d", r.index)
}

// Request selects an instance by id or by position. Both nil asks for the
// first unlabelled instance. ID takes precedence over Index.
type Request struct {
	ID    *int
	Index *int
}

// ResolveIndex returns the position of the instance to display.
//
// Positions outside the dataset wrap around once: an index at or past the
// end goes to 0 and a negative index goes to the last instance.
func ResolveIndex(ds *model.Dataset, req Request) Resolution {
	n := ds.Len()
	if n == 0 {
		return NotFound()
	}

	switch {
	case req.ID != nil:
		if i := ds.IndexOfID(*req.ID); i >= 0 {
			return Resolved(i)
		}
		return NotFound()
	case req.Index != nil:
		i := *req.Index
		if i >= n {
			return Resolved(0)
		}
		if i < 0 {
			return Resolved(n - 1)
		}
		return Resolved(i)
	}

	for i, inst := range ds.Instances {
		if !inst.Labeled() {
			return Resolved(i)
		}
	}
	return Resolved(0)
}

// ComputeRedirectIndex returns the position to show after a save at current.
//
// An empty action yields an unresolved Resolution, leaving the choice to
// ResolveIndex. Positions returned by next and prev are not bounded; the
// following ResolveIndex wraps them.
func ComputeRedirectIndex(ds *model.Dataset, current int, action string) (Resolution, error) {
	switch action {
	case "":
		return NotFound(), nil
	case ActionFirst:
		return Resolved(0), nil
	case ActionNext:
		return Resolved(current + 1), nil
	case ActionPrev:
		return Resolved(current - 1), nil
	case ActionNextArt, ActionPrevArt:
		articles := ds.Articles()
		pos := articleAt(articles, current)
		if pos < 0 {
			return NotFound(), fmt.Errorf("%w: index %d", model.ErrNotFound, current)
		}
		if action == ActionNextArt {
			if pos+1 < len(articles) {
				return Resolved(articles[pos+1].Start), nil
			}
			return Resolved(0), nil
		}
		if pos > 0 {
			return Resolved(articles[pos-1].Start), nil
		}
		return Resolved(articles[len(articles)-1].Start), nil
	default:
		return NotFound(), fmt.Errorf("%w: %q", model.ErrUnknownAction, action)
	}
}

// articleAt returns the position in articles of the article holding index.
func articleAt(articles []model.Article, index int) int {
	for i, a := range articles {
		if a.Contains(index) {
			return i
		}
	}
	return -1
}
