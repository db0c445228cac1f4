package browser

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/cve-catalog-service/internal/model"
)

func records(from, n int) []model.VulnerabilityRecord {
	out := make([]model.VulnerabilityRecord, 0, n)
	for i := from; i < from+n; i++ {
		out = append(out, model.VulnerabilityRecord{ID: fmt.Sprintf("CVE-2024-%05d", i)})
	}
	return out
}

func pageOf(total, page, size int) model.RecordPage {
	n := total - (page-1)*size
	if n < 0 {
		n = 0
	}
	if n > size {
		n = size
	}
	return model.RecordPage{Docs: records((page-1)*size+1, n), TotalDocs: total}
}

// loaded mounts a view and resolves the first fetch against a store of total records.
func loaded(t *testing.T, total, size int) State {
	t.Helper()
	s, req := New(size, nil).Mount()
	require.NotNil(t, req)
	s, ok := s.Resolve(req.Seq, pageOf(total, req.Page, req.Size))
	require.True(t, ok)
	return s
}

func TestNew_Defaults(t *testing.T) {
	s := New(0, nil)
	assert.Equal(t, Idle, s.Status())
	assert.Equal(t, 1, s.Page())
	assert.Equal(t, 10, s.PageSize())
	assert.Equal(t, []int{10, 50, 100}, s.PageSizes())

	assert.Equal(t, 50, New(50, nil).PageSize())
	assert.Equal(t, 25, New(7, []int{25, 75}).PageSize())
}

func TestMount_IssuesFirstFetch(t *testing.T) {
	s, req := New(10, nil).Mount()
	require.NotNil(t, req)
	assert.Equal(t, Loading, s.Status())
	assert.Equal(t, Request{Seq: 1, PageRequest: PageRequest{Page: 1, Size: 10}}, *req)
}

func TestTotalPages_Derived(t *testing.T) {
	cases := []struct{ total, size, want int }{
		{0, 10, 0}, {1, 10, 1}, {10, 10, 1}, {11, 10, 2}, {105, 50, 3}, {100, 100, 1}, {101, 100, 2},
	}
	for _, tc := range cases {
		s := loaded(t, tc.total, tc.size)
		assert.Equal(t, tc.want, s.TotalPages(), "total=%d size=%d", tc.total, tc.size)
	}
}

func TestEmptyStore_BothControlsDisabled(t *testing.T) {
	s := loaded(t, 0, 10)
	assert.Equal(t, 0, s.TotalPages())
	assert.False(t, s.CanPrev())
	assert.False(t, s.CanNext())
	assert.Equal(t, "Page 1 of 0", s.Label())

	next, req := s.NextPage()
	assert.Nil(t, req)
	assert.Equal(t, s, next)
}

func TestFiveRecords_SinglePage(t *testing.T) {
	s := loaded(t, 5, 10)
	assert.Len(t, s.Records(), 5)
	assert.Equal(t, 5, s.Total())
	assert.Equal(t, 1, s.TotalPages())
	assert.False(t, s.CanPrev())
	assert.False(t, s.CanNext())
}

func TestSetPageSize_ResetsPageAndFetchesOnce(t *testing.T) {
	s := loaded(t, 105, 10)
	s, req := s.GoTo(4)
	require.NotNil(t, req)
	s, _ = s.Resolve(req.Seq, pageOf(105, 4, 10))

	s, req = s.SetPageSize(50)
	require.NotNil(t, req)
	assert.Equal(t, PageRequest{Page: 1, Size: 50}, req.PageRequest)
	assert.Equal(t, 1, s.Page())
	assert.Equal(t, Loading, s.Status())

	// same size again is not a change
	again, req := s.SetPageSize(50)
	assert.Nil(t, req)
	assert.Equal(t, s, again)

	// sizes outside the selector are ignored
	_, req = s.SetPageSize(25)
	assert.Nil(t, req)
}

func TestNextPrev(t *testing.T) {
	s := loaded(t, 105, 50)
	assert.False(t, s.CanPrev())
	assert.True(t, s.CanNext())

	s, req := s.NextPage()
	require.NotNil(t, req)
	assert.Equal(t, PageRequest{Page: 2, Size: 50}, req.PageRequest)
	s, ok := s.Resolve(req.Seq, pageOf(105, 2, 50))
	require.True(t, ok)
	assert.Equal(t, "CVE-2024-00051", s.Records()[0].ID)
	assert.Equal(t, "Page 2 of 3", s.Label())

	s, req = s.NextPage()
	s, _ = s.Resolve(req.Seq, pageOf(105, 3, 50))
	assert.Len(t, s.Records(), 5)
	assert.False(t, s.CanNext())

	_, req = s.NextPage()
	assert.Nil(t, req, "next is disabled on the last page")

	s, req = s.PrevPage()
	require.NotNil(t, req)
	assert.Equal(t, 2, req.Page)
}

func TestGoTo_PastTheEndLoadsEmpty(t *testing.T) {
	s := loaded(t, 5, 10)
	s, req := s.GoTo(99)
	require.NotNil(t, req)
	s, ok := s.Resolve(req.Seq, pageOf(5, 99, 10))
	require.True(t, ok)
	assert.Empty(t, s.Records())
	assert.Equal(t, 5, s.Total())
	assert.False(t, s.CanNext())
	assert.True(t, s.CanPrev())

	_, req = s.GoTo(0)
	assert.Nil(t, req)
	_, req = s.GoTo(99)
	assert.Nil(t, req)
}

func TestFail_KeepsPreviousData(t *testing.T) {
	s := loaded(t, 105, 10)
	before := s.Records()

	s, req := s.NextPage()
	require.NotNil(t, req)
	boom := errors.New("connection refused")
	s, ok := s.Fail(req.Seq, boom)
	require.True(t, ok)

	assert.Equal(t, Errored, s.Status())
	assert.Equal(t, boom, s.Err())
	assert.Equal(t, before, s.Records())
	assert.Equal(t, 105, s.Total())

	// the view stays usable: the next change fetches again and a success clears the error
	s, req = s.NextPage()
	require.NotNil(t, req)
	s, ok = s.Resolve(req.Seq, pageOf(105, s.Page(), 10))
	require.True(t, ok)
	assert.Equal(t, Loaded, s.Status())
	assert.NoError(t, s.Err())
}

func TestStaleResponsesAreDropped(t *testing.T) {
	s, first := New(10, nil).Mount()
	s, second := s.SetPageSize(50)
	s, third := s.SetPageSize(100)
	require.True(t, first.Seq < second.Seq && second.Seq < third.Seq)

	// the newest request resolves first, older ones trail in afterwards
	s, ok := s.Resolve(third.Seq, pageOf(250, 1, 100))
	require.True(t, ok)
	snapshot := s

	s, ok = s.Resolve(second.Seq, pageOf(250, 1, 50))
	assert.False(t, ok)
	s, ok = s.Fail(first.Seq, errors.New("late failure"))
	assert.False(t, ok)

	assert.Equal(t, snapshot, s)
	assert.Len(t, s.Records(), 100)
	assert.Equal(t, Loaded, s.Status())
}

func TestStaleWhileLoading(t *testing.T) {
	s, first := New(10, nil).Mount()
	s, second := s.GoTo(2)

	s, ok := s.Resolve(first.Seq, pageOf(30, 1, 10))
	assert.False(t, ok)
	assert.Equal(t, Loading, s.Status())
	assert.Empty(t, s.Records())

	s, ok = s.Resolve(second.Seq, pageOf(30, 2, 10))
	assert.True(t, ok)
	assert.Equal(t, "CVE-2024-00011", s.Records()[0].ID)
}

func TestTransitionsDoNotMutateReceiver(t *testing.T) {
	s := loaded(t, 30, 10)
	_, _ = s.NextPage()
	_, _ = s.SetPageSize(50)
	assert.Equal(t, 1, s.Page())
	assert.Equal(t, 10, s.PageSize())
	assert.Equal(t, Loaded, s.Status())

	recs := s.Records()
	recs[0].ID = "mutated"
	assert.Equal(t, "CVE-2024-00001", s.Records()[0].ID)
}

func TestSelect(t *testing.T) {
	s := loaded(t, 3, 10)
	path, ok := s.Select(1)
	require.True(t, ok)
	assert.Equal(t, "/records/CVE-2024-00002", path)

	_, ok = s.Select(3)
	assert.False(t, ok)
	_, ok = s.Select(-1)
	assert.False(t, ok)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "loading", Loading.String())
	assert.Equal(t, "status(9)", Status(9).String())
}
