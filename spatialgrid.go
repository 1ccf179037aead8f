package tumble

import (
	"math"
	"sort"

	"github.com/SeongUk52/tumble/actor"
)

// CellKey addresses one cell of the uniform grid.
type CellKey struct {
	X, Y int
}

// Cell holds the indices of the bodies overlapping it.
type Cell struct {
	bodyIndices []int
}

// Pair is a candidate collision pair, as indices into the body slice with
// A < B.
type Pair struct {
	A, B int
}

// SpatialGrid is a uniform hashed grid accelerating the broad phase. Cells
// are hashed into a fixed power-of-two array, so distant cells may share a
// slot; the AABB check in FindPairs filters those false candidates out
// again. The result is exactly the brute-force candidate set, in the same
// order.
type SpatialGrid struct {
	cellSize float64
	cells    []Cell
	cellMask int
}

// NewSpatialGrid creates a grid with the given cell size. numCells is
// rounded up to a power of two.
func NewSpatialGrid(cellSize float64, numCells int) *SpatialGrid {
	if cellSize <= 0 {
		cellSize = 64
	}
	numCells = nextPowerOfTwo(numCells)

	cells := make([]Cell, numCells)
	for i := range cells {
		cells[i].bodyIndices = make([]int, 0, 8)
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cells:    cells,
		cellMask: numCells - 1,
	}
}

func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

// Insert registers a body in every cell its AABB covers.
func (sg *SpatialGrid) Insert(bodyIndex int, body *actor.RigidBody) {
	box := body.AABB()
	minCell := sg.worldToCell(box.Min.X(), box.Min.Y())
	maxCell := sg.worldToCell(box.Max.X(), box.Max.Y())

	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			idx := sg.hashCell(CellKey{x, y})
			sg.cells[idx].bodyIndices = append(sg.cells[idx].bodyIndices, bodyIndex)
		}
	}
}

// Clear empties every cell, keeping the allocations.
func (sg *SpatialGrid) Clear() {
	for i := range sg.cells {
		sg.cells[i].bodyIndices = sg.cells[i].bodyIndices[:0]
	}
}

// FindPairs returns every candidate pair among the inserted bodies:
// ascending in the first index, then ascending in the second, skipping
// fully static pairs and pairs whose AABBs do not overlap. A body spanning
// several cells is deduplicated through the seen marks.
func (sg *SpatialGrid) FindPairs(bodies []*actor.RigidBody) []Pair {
	pairs := make([]Pair, 0, len(bodies)/2)
	seen := make([]bool, len(bodies))
	candidates := make([]int, 0, 16)

	for i, bodyA := range bodies {
		candidates = candidates[:0]
		boxA := bodyA.AABB()
		minCell := sg.worldToCell(boxA.Min.X(), boxA.Min.Y())
		maxCell := sg.worldToCell(boxA.Max.X(), boxA.Max.Y())

		for x := minCell.X; x <= maxCell.X; x++ {
			for y := minCell.Y; y <= maxCell.Y; y++ {
				for _, j := range sg.cells[sg.hashCell(CellKey{x, y})].bodyIndices {
					if j <= i || seen[j] {
						continue
					}
					seen[j] = true
					candidates = append(candidates, j)
				}
			}
		}

		sort.Ints(candidates)
		for _, j := range candidates {
			seen[j] = false
			bodyB := bodies[j]
			if bodyA.IsStatic() && bodyB.IsStatic() {
				continue
			}
			if boxA.Overlaps(bodyB.AABB()) {
				pairs = append(pairs, Pair{A: i, B: j})
			}
		}
	}

	return pairs
}

func (sg *SpatialGrid) worldToCell(x, y float64) CellKey {
	return CellKey{
		X: int(math.Floor(x / sg.cellSize)),
		Y: int(math.Floor(y / sg.cellSize)),
	}
}

func (sg *SpatialGrid) hashCell(key CellKey) int {
	h := (key.X * 73856093) ^ (key.Y * 19349663)
	return h & sg.cellMask
}
