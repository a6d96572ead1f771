package repository

// PostgreSQL's extended protocol allows at most 65535 bind parameters per
// statement, so bulk inserts go out in fixed-size row chunks. 1000 rows at
// 15 columns stays a comfortable margin under the cap.
const insertChunkRows = 1000

// chunkRows yields [start, end) bounds covering n rows in chunks of size.
func chunkRows(n, size int) [][2]int {
	if n <= 0 || size <= 0 {
		return nil
	}
	bounds := make([][2]int, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		bounds = append(bounds, [2]int{start, end})
	}
	return bounds
}
