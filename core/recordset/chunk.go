package recordset

import (
	"fmt"
	"iter"
)

// Chunk is a contiguous view into a RecordSet. It does not copy records.
type Chunk struct {
	set   *RecordSet
	index int
	start int
	end   int
}

// Index is the zero-based position of the chunk in its split.
func (c Chunk) Index() int { return c.index }

// Start is the offset of the first record of the chunk in the source set.
func (c Chunk) Start() int { return c.start }

func (c Chunk) Len() int { return c.end - c.start }

func (c Chunk) Columns() []string { return c.set.Columns() }

// At returns the i-th record of the chunk.
func (c Chunk) At(i int) Record { return c.set.records[c.start+i] }

// Records iterates over the chunk's records in order.
func (c Chunk) Records() iter.Seq[Record] {
	return func(yield func(Record) bool) {
		if c.set == nil {
			return
		}
		for _, rec := range c.set.records[c.start:c.end] {
			if !yield(rec) {
				return
			}
		}
	}
}

// Split partitions rs into chunks of at most rowsPerFile records.
// Chunk i covers records [i*rowsPerFile, min((i+1)*rowsPerFile, n)).
// An empty set yields no chunks.
func Split(rs *RecordSet, rowsPerFile int) ([]Chunk, error) {
	if rowsPerFile <= 0 {
		return nil, fmt.Errorf("%w: rows per file must be positive, got %d", ErrInvalidConfiguration, rowsPerFile)
	}

	n := rs.Len()
	if n == 0 {
		return nil, nil
	}

	chunks := make([]Chunk, 0, (n+rowsPerFile-1)/rowsPerFile)
	for start := 0; start < n; start += rowsPerFile {
		chunks = append(chunks, Chunk{
			set:   rs,
			index: len(chunks),
			start: start,
			end:   min(start+rowsPerFile, n),
		})
	}
	return chunks, nil
}
