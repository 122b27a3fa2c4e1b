package listing

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func numbered(n int) []Record {
	records := make([]Record, n)
	for i := range records {
		records[i] = Record{"id": fmt.Sprintf("%02d", i+1)}
	}
	return records
}

func TestPaginate(t *testing.T) {
	records := numbered(25)

	first := Paginate(records, 1, 10)
	assert.Len(t, first.Items, 10)
	assert.Equal(t, 3, first.TotalPages)
	assert.Equal(t, 25, first.TotalItems)
	assert.Equal(t, "01", first.Items[0]["id"])
	assert.False(t, first.HasPrevious())
	assert.True(t, first.HasNext())

	last := Paginate(records, 3, 10)
	assert.Len(t, last.Items, 5)
	assert.Equal(t, "21", last.Items[0]["id"])
	assert.True(t, last.HasPrevious())
	assert.False(t, last.HasNext())
}

func TestPaginate_OutOfRange(t *testing.T) {
	records := numbered(25)

	beyond := Paginate(records, 4, 10)
	assert.Empty(t, beyond.Items)
	assert.NotNil(t, beyond.Items)
	assert.Equal(t, 4, beyond.PageNumber, "requested page is reported, not clamped")

	below := Paginate(records, 0, 10)
	assert.Empty(t, below.Items)
	assert.Equal(t, 1, below.PageNumber)
}

func TestPaginate_HugePageNumber(t *testing.T) {
	records := numbered(25)
	for _, n := range []int{math.MaxInt, math.MaxInt / 5, math.MaxInt/10 + 1} {
		var p Page
		assert.NotPanics(t, func() { p = Paginate(records, n, 10) })
		assert.Empty(t, p.Items)
		assert.Equal(t, n, p.PageNumber)
		assert.Equal(t, 3, p.TotalPages)
	}
}

func TestPaginate_Empty(t *testing.T) {
	p := Paginate(nil, 1, 10)
	assert.Empty(t, p.Items)
	assert.Equal(t, 0, p.TotalPages)
	assert.Equal(t, 1, p.PageNumber)
	assert.False(t, p.HasNext())
	assert.False(t, p.HasPrevious())
}

func TestPaginate_DefaultSize(t *testing.T) {
	p := Paginate(numbered(12), 1, 0)
	assert.Equal(t, DefaultPageSize, p.PageSize)
	assert.Len(t, p.Items, DefaultPageSize)
}

func TestPaginate_CoverageAndBound(t *testing.T) {
	for _, total := range []int{0, 1, 9, 10, 11, 30, 31} {
		for _, size := range []int{1, 3, 10} {
			t.Run(fmt.Sprintf("total=%d size=%d", total, size), func(t *testing.T) {
				records := numbered(total)
				first := Paginate(records, 1, size)

				var joined []Record
				for n := 1; n <= first.TotalPages; n++ {
					p := Paginate(records, n, size)
					assert.LessOrEqual(t, len(p.Items), size)
					if n < p.TotalPages {
						assert.Len(t, p.Items, size)
					}
					joined = append(joined, p.Items...)
				}
				if total == 0 {
					assert.Empty(t, joined)
					return
				}
				assert.Equal(t, records, joined)
			})
		}
	}
}
