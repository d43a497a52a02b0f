package kinematics

import (
	"encoding/json"
	"fmt"
	"math"
)

// Encode serializes a transform as a JSON nested 4x4 list, e.g.
// [[1,0,0,0],[0,1,0,0],[0,0,1,0],[0,0,0,1]].
// Float formatting is shortest-exact, so Decode(Encode(t)) == t.
func Encode(t Transform) (string, error) {
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if math.IsNaN(t[i][j]) || math.IsInf(t[i][j], 0) {
				return "", fmt.Errorf("%w: non-finite element at [%d][%d]", ErrMalformedTransform, i, j)
			}
		}
	}

	data, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedTransform, err)
	}
	return string(data), nil
}

// Decode parses the output of Encode. Anything other than exactly four rows
// of four numbers is rejected.
func Decode(s string) (Transform, error) {
	var rows [][]float64
	if err := json.Unmarshal([]byte(s), &rows); err != nil {
		return Transform{}, fmt.Errorf("%w: %v", ErrMalformedTransform, err)
	}
	if len(rows) != 4 {
		return Transform{}, fmt.Errorf("%w: expected 4 rows, got %d", ErrMalformedTransform, len(rows))
	}

	var t Transform
	for i, row := range rows {
		if len(row) != 4 {
			return Transform{}, fmt.Errorf("%w: row %d has %d columns", ErrMalformedTransform, i, len(row))
		}
		copy(t[i][:], row)
	}
	return t, nil
}
