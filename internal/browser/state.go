// Package browser models the Table View as an immutable state value.
//
// Every transition returns a new State and, when the page or the page size
// actually changed, the Request that has to be fetched. Requests carry a
// monotonically increasing sequence number; only the response to the latest
// one is applied, so a slow reply can never overwrite a newer page.
package browser

import (
	"fmt"
	"net/url"
	"slices"

	"github.com/maxviazov/cve-catalog-service/internal/model"
	"github.com/maxviazov/cve-catalog-service/pkg/pagination"
)

type Status int

const (
	Idle Status = iota
	Loading
	Loaded
	Errored
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Errored:
		return "errored"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// PageRequest is the (page, size) pair a fetch is issued for.
type PageRequest struct {
	Page int
	Size int
}

// Request is a fetch the caller must perform and report back with Resolve or Fail.
type Request struct {
	Seq uint64
	PageRequest
}

type State struct {
	status   Status
	records  []model.VulnerabilityRecord
	total    int
	page     int
	pageSize int
	sizes    []int
	seq      uint64
	err      error
}

// New returns an Idle view. A page size outside sizes falls back to the first allowed size.
func New(pageSize int, sizes []int) State {
	if len(sizes) == 0 {
		sizes = pagination.AllowedPageSizes
	}
	if !pagination.IsAllowedSize(pageSize, sizes) {
		pageSize = sizes[0]
	}
	return State{page: 1, pageSize: pageSize, sizes: slices.Clone(sizes)}
}

func (s State) Status() Status   { return s.status }
func (s State) Total() int       { return s.total }
func (s State) Page() int        { return s.page }
func (s State) PageSize() int    { return s.pageSize }
func (s State) PageSizes() []int { return slices.Clone(s.sizes) }
func (s State) Seq() uint64      { return s.seq }

// Err is the last fetch failure; it is cleared by the next successful fetch.
func (s State) Err() error { return s.err }

// Records returns the rows currently on display.
func (s State) Records() []model.VulnerabilityRecord { return slices.Clone(s.records) }

// TotalPages is derived from total and page size on every call and never stored.
func (s State) TotalPages() int { return pagination.TotalPages(s.total, s.pageSize) }

func (s State) CanPrev() bool { return pagination.HasPrev(s.page) }

// CanNext is false when there are zero pages as well as on the last one.
func (s State) CanNext() bool { return pagination.HasNext(s.page, s.TotalPages()) }

func (s State) Label() string {
	return fmt.Sprintf("Page %d of %d", s.page, s.TotalPages())
}

// Mount issues the first fetch for the current page and size.
func (s State) Mount() (State, *Request) { return s.fetch() }

// SetPageSize switches to size and goes back to page 1. Choosing the current
// size, or one that is not offered, changes nothing.
func (s State) SetPageSize(size int) (State, *Request) {
	if size == s.pageSize || !pagination.IsAllowedSize(size, s.sizes) {
		return s, nil
	}
	s.pageSize = size
	s.page = 1
	return s.fetch()
}

func (s State) NextPage() (State, *Request) {
	if !s.CanNext() {
		return s, nil
	}
	s.page++
	return s.fetch()
}

func (s State) PrevPage() (State, *Request) {
	if !s.CanPrev() {
		return s, nil
	}
	s.page--
	return s.fetch()
}

// GoTo jumps to page p. Pages past the end are allowed and load as empty.
func (s State) GoTo(p int) (State, *Request) {
	if p < 1 || p == s.page {
		return s, nil
	}
	s.page = p
	return s.fetch()
}

// Resolve applies a successful response. It reports false and leaves the
// state untouched when seq is not the latest request.
func (s State) Resolve(seq uint64, page model.RecordPage) (State, bool) {
	if seq != s.seq || s.status != Loading {
		return s, false
	}
	s.records = slices.Clone(page.Docs)
	s.total = page.TotalDocs
	s.status = Loaded
	s.err = nil
	return s, true
}

// Fail records a failed fetch. Records and total keep their previous values.
func (s State) Fail(seq uint64, err error) (State, bool) {
	if seq != s.seq || s.status != Loading {
		return s, false
	}
	s.status = Errored
	s.err = err
	return s, true
}

// Select returns the navigation target for row i of the current page.
func (s State) Select(i int) (string, bool) {
	if i < 0 || i >= len(s.records) {
		return "", false
	}
	return "/records/" + url.PathEscape(s.records[i].ID), true
}

func (s State) fetch() (State, *Request) {
	s.seq++
	s.status = Loading
	return s, &Request{Seq: s.seq, PageRequest: PageRequest{Page: s.page, Size: s.pageSize}}
}
