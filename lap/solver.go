package lap

import (
	"math"
	"sort"

	hungarian "github.com/arthurkushman/go-hungarian"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// BlockedCost marks a forbidden pairing in a cost matrix. A solver never
// picks a blocked pairing while a complete assignment without it exists.
const BlockedCost = math.MaxFloat64

// Assignment is a single row-to-column match of a solved assignment problem.
type Assignment struct {
	Row int
	Col int
}

// AssignmentSolver solves a rectangular minimum-cost assignment problem.
// The solution holds one pair per row when there are at most as many rows
// as columns, one pair per column otherwise, each source matched to at
// most one destination, sorted ascending by row.
type AssignmentSolver interface {
	Solve(costs *mat.Dense) ([]Assignment, error)
}

// MatchingAlgorithm selects the assignment solver implementation.
type MatchingAlgorithm uint16

const (
	// MatchingAlgorithmMunkres is the exact O(n^3) Munkres (Kuhn-Munkres)
	// solver with deterministic lexicographic tie-breaking. The default.
	MatchingAlgorithmMunkres MatchingAlgorithm = iota
	// MatchingAlgorithmHungarianLib delegates to
	// github.com/arthurkushman/go-hungarian.
	MatchingAlgorithmHungarianLib
	// MatchingAlgorithmGreedy picks the globally cheapest pair first.
	// Faster but potentially suboptimal and partial.
	MatchingAlgorithmGreedy
)

// NewSolver creates the solver for the given algorithm.
func NewSolver(algorithm MatchingAlgorithm) AssignmentSolver {
	switch algorithm {
	case MatchingAlgorithmHungarianLib:
		return &HungarianLibSolver{}
	case MatchingAlgorithmGreedy:
		return &GreedySolver{}
	default:
		return &MunkresSolver{}
	}
}

// DenseFromRows builds a dense cost matrix from row slices.
func DenseFromRows(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, errors.Wrap(ErrInvalidInput, "cost matrix is empty")
	}
	width := len(rows[0])
	data := make([]float64, 0, len(rows)*width)
	for i, row := range rows {
		if len(row) != width {
			return nil, errors.Wrapf(ErrInvalidInput, "cost matrix is ragged: row %d has %d columns, expected %d", i, len(row), width)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), width, data), nil
}

func checkMatrix(costs *mat.Dense) (rows, cols int, err error) {
	if costs == nil {
		return 0, 0, errors.Wrap(ErrInvalidInput, "cost matrix is nil")
	}
	rows, cols = costs.Dims()
	if rows == 0 || cols == 0 {
		return 0, 0, errors.Wrap(ErrInvalidInput, "cost matrix is empty")
	}
	return rows, cols, nil
}

// squareGrid copies the matrix into an n×n grid, padding missing rows and
// columns with zero-cost dummies and replacing BlockedCost entries with a
// finite surrogate larger than the total of all finite entries. Any
// assignment that uses a surrogate therefore costs more than every
// blocked-free complete assignment, so blocked pairings lose whenever a
// feasible alternative exists.
func squareGrid(costs *mat.Dense, rows, cols, n int) [][]float64 {
	surrogate := 1.0
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if v := costs.At(i, j); v != BlockedCost {
				surrogate += v
			}
		}
	}
	grid := make([][]float64, n)
	for i := range grid {
		grid[i] = make([]float64, n)
		if i >= rows {
			continue
		}
		for j := 0; j < cols; j++ {
			if v := costs.At(i, j); v == BlockedCost {
				grid[i][j] = surrogate
			} else {
				grid[i][j] = v
			}
		}
	}
	return grid
}

// MunkresSolver is an exact minimum-cost assignment solver implementing
// the classic Munkres algorithm. Rectangular matrices are padded with
// zero-cost dummy rows or columns; dummy pairings are dropped from the
// solution. Scanning order is fixed row-major, so between equal-cost
// optima the one that is lexicographically smallest by (row, col) wins.
type MunkresSolver struct{}

// Solve returns the minimum-cost assignment for the matrix.
func (s *MunkresSolver) Solve(costs *mat.Dense) ([]Assignment, error) {
	rows, cols, err := checkMatrix(costs)
	if err != nil {
		return nil, err
	}
	n := maxInt(rows, cols)
	grid := squareGrid(costs, rows, cols, n)
	match := munkres(grid, n)
	solution := make([]Assignment, 0, minInt(rows, cols))
	for i := 0; i < rows; i++ {
		if j := match[i]; j < cols {
			solution = append(solution, Assignment{Row: i, Col: j})
		}
	}
	if len(solution) < minInt(rows, cols) {
		return nil, errors.Wrapf(ErrSolverFailure, "incomplete assignment: %d pairs for a %dx%d matrix", len(solution), rows, cols)
	}
	return solution, nil
}

const (
	maskUnmarked = uint8(iota)
	maskStarred
	maskPrimed
)

// munkres solves the square assignment problem in place and returns the
// matched column for every row. Standard step structure: row reduction,
// greedy starring, then alternate covering, priming and augmenting until
// every column is covered by a star.
func munkres(a [][]float64, n int) []int {
	mask := make([][]uint8, n)
	for i := range mask {
		mask[i] = make([]uint8, n)
	}
	rowCover := make([]bool, n)
	colCover := make([]bool, n)

	// Reduce each row by its minimum.
	for i := 0; i < n; i++ {
		min := a[i][0]
		for j := 1; j < n; j++ {
			if a[i][j] < min {
				min = a[i][j]
			}
		}
		for j := 0; j < n; j++ {
			a[i][j] -= min
		}
	}

	// Star a zero per free row/column, row-major.
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if a[i][j] == 0 && !rowCover[i] && !colCover[j] {
				mask[i][j] = maskStarred
				rowCover[i] = true
				colCover[j] = true
			}
		}
	}
	clearCovers(rowCover, colCover)

	var pathRow, pathCol int
	step := 3
	for {
		switch step {
		case 3:
			// Cover columns holding a starred zero; done when all n are covered.
			covered := 0
			for i := 0; i < n; i++ {
				for j := 0; j < n; j++ {
					if mask[i][j] == maskStarred {
						colCover[j] = true
					}
				}
			}
			for j := 0; j < n; j++ {
				if colCover[j] {
					covered++
				}
			}
			if covered >= n {
				match := make([]int, n)
				for i := 0; i < n; i++ {
					for j := 0; j < n; j++ {
						if mask[i][j] == maskStarred {
							match[i] = j
						}
					}
				}
				return match
			}
			step = 4
		case 4:
			// Prime uncovered zeros until one sits in a star-free row.
			for step == 4 {
				row, col := findUncoveredZero(a, rowCover, colCover, n)
				if row == -1 {
					step = 6
					break
				}
				mask[row][col] = maskPrimed
				starCol := findInRow(mask, row, n, maskStarred)
				if starCol == -1 {
					pathRow, pathCol = row, col
					step = 5
					break
				}
				rowCover[row] = true
				colCover[starCol] = false
			}
		case 5:
			// Augment along the alternating primed/starred path.
			path := [][2]int{{pathRow, pathCol}}
			for {
				starRow := findInCol(mask, path[len(path)-1][1], n, maskStarred)
				if starRow == -1 {
					break
				}
				path = append(path, [2]int{starRow, path[len(path)-1][1]})
				primeCol := findInRow(mask, starRow, n, maskPrimed)
				path = append(path, [2]int{starRow, primeCol})
			}
			for _, p := range path {
				if mask[p[0]][p[1]] == maskStarred {
					mask[p[0]][p[1]] = maskUnmarked
				} else {
					mask[p[0]][p[1]] = maskStarred
				}
			}
			clearCovers(rowCover, colCover)
			for i := 0; i < n; i++ {
				for j := 0; j < n; j++ {
					if mask[i][j] == maskPrimed {
						mask[i][j] = maskUnmarked
					}
				}
			}
			step = 3
		case 6:
			// Shift by the smallest uncovered value.
			min := math.MaxFloat64
			for i := 0; i < n; i++ {
				if rowCover[i] {
					continue
				}
				for j := 0; j < n; j++ {
					if !colCover[j] && a[i][j] < min {
						min = a[i][j]
					}
				}
			}
			for i := 0; i < n; i++ {
				for j := 0; j < n; j++ {
					if rowCover[i] {
						a[i][j] += min
					}
					if !colCover[j] {
						a[i][j] -= min
					}
				}
			}
			step = 4
		}
	}
}

func clearCovers(rowCover, colCover []bool) {
	for i := range rowCover {
		rowCover[i] = false
	}
	for j := range colCover {
		colCover[j] = false
	}
}

func findUncoveredZero(a [][]float64, rowCover, colCover []bool, n int) (int, int) {
	for i := 0; i < n; i++ {
		if rowCover[i] {
			continue
		}
		for j := 0; j < n; j++ {
			if !colCover[j] && a[i][j] == 0 {
				return i, j
			}
		}
	}
	return -1, -1
}

func findInRow(mask [][]uint8, row, n int, kind uint8) int {
	for j := 0; j < n; j++ {
		if mask[row][j] == kind {
			return j
		}
	}
	return -1
}

func findInCol(mask [][]uint8, col, n int, kind uint8) int {
	for i := 0; i < n; i++ {
		if mask[i][col] == kind {
			return i
		}
	}
	return -1
}

// HungarianLibSolver delegates to github.com/arthurkushman/go-hungarian.
// Tie-breaks between equal-cost optima depend on the library's internal
// iteration order, so prefer MunkresSolver when reproducible segment
// identity matters.
type HungarianLibSolver struct{}

// Solve returns a minimum-cost assignment for the matrix.
func (s *HungarianLibSolver) Solve(costs *mat.Dense) ([]Assignment, error) {
	rows, cols, err := checkMatrix(costs)
	if err != nil {
		return nil, err
	}
	n := maxInt(rows, cols)
	grid := squareGrid(costs, rows, cols, n)
	solved := hungarian.SolveMin(grid)
	solution := make([]Assignment, 0, minInt(rows, cols))
	for row, matches := range solved {
		for col := range matches {
			if row < rows && col < cols {
				solution = append(solution, Assignment{Row: row, Col: col})
			}
			break
		}
	}
	sort.Slice(solution, func(i, j int) bool {
		if solution[i].Row != solution[j].Row {
			return solution[i].Row < solution[j].Row
		}
		return solution[i].Col < solution[j].Col
	})
	if len(solution) < minInt(rows, cols) {
		return nil, errors.Wrapf(ErrSolverFailure, "incomplete assignment: %d pairs for a %dx%d matrix", len(solution), rows, cols)
	}
	return solution, nil
}

// GreedySolver assigns the globally cheapest remaining pair first, using a
// min-heap over all finite entries. Approximate: rows whose pairings are
// all blocked or already taken stay unmatched.
type GreedySolver struct{}

// Solve returns a greedy, possibly partial, assignment for the matrix.
func (s *GreedySolver) Solve(costs *mat.Dense) ([]Assignment, error) {
	rows, cols, err := checkMatrix(costs)
	if err != nil {
		return nil, err
	}
	queue := make(costHeap, 0, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if v := costs.At(i, j); v != BlockedCost {
				queue.Push(&costEntry{row: i, col: j, cost: v})
			}
		}
	}
	usedRows := make([]bool, rows)
	usedCols := make([]bool, cols)
	solution := make([]Assignment, 0, minInt(rows, cols))
	for queue.Len() > 0 {
		entry := queue.Pop()
		if usedRows[entry.row] || usedCols[entry.col] {
			continue
		}
		usedRows[entry.row] = true
		usedCols[entry.col] = true
		solution = append(solution, Assignment{Row: entry.row, Col: entry.col})
	}
	sort.Slice(solution, func(i, j int) bool {
		return solution[i].Row < solution[j].Row
	})
	return solution, nil
}
