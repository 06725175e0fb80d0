// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package executor

import "fmt"

// Chunk is a contiguous, 1-indexed, inclusive page range.
type Chunk struct {
	Start int `json:"startPage"`
	End   int `json:"endPage"`
	Index int `json:"sequenceIndex"`
}

// Pages returns the number of pages in c.
func (c Chunk) Pages() int {
	return c.End - c.Start + 1
}

func (c Chunk) String() string {
	return fmt.Sprintf("chunk %d (pages %d-%d)", c.Index+1, c.Start, c.End)
}

// Partition tiles [1, total] with chunks of at most chunkSize pages, in
// ascending order. A chunkSize of zero or less yields a single chunk.
func Partition(total, chunkSize int) []Chunk {
	if total <= 0 {
		return nil
	}
	if chunkSize <= 0 || chunkSize > total {
		chunkSize = total
	}
	chunks := make([]Chunk, 0, (total+chunkSize-1)/chunkSize)
	for start := 1; start <= total; start += chunkSize {
		chunks = append(chunks, Chunk{
			Start: start,
			End:   min(start+chunkSize-1, total),
			Index: len(chunks),
		})
	}
	return chunks
}
