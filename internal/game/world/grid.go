// Package world provides the game world model: grid dimensions, obstacles,
// passability checks, spawn corners, and free-cell sampling.
package world

import (
	"fmt"
	"math/rand/v2"
)

// Cell is an integer grid coordinate.
type Cell struct {
	X int
	Y int
}

// Grid is the static game world: a bounded grid with an obstacle set.
// A Grid is immutable after construction and safe for concurrent reads.
type Grid struct {
	width     int
	height    int
	obstacles map[Cell]bool
}

// New creates a grid of the given dimensions with the given obstacle cells.
// Obstacles outside the bounds are ignored.
//
// Precondition: width and height must be >= 2.
// Postcondition: Returns a valid Grid or a non-nil error.
func New(width, height int, obstacles []Cell) (*Grid, error) {
	if width < 2 || height < 2 {
		return nil, fmt.Errorf("grid must be at least 2x2, got %dx%d", width, height)
	}

	set := make(map[Cell]bool, len(obstacles))
	for _, c := range obstacles {
		if c.X >= 0 && c.X < width && c.Y >= 0 && c.Y < height {
			set[c] = true
		}
	}
	return &Grid{width: width, height: height, obstacles: set}, nil
}

// DefaultObstacles returns the standard map layout: a vertical wall at
// x=15 spanning y=5..9, clipped to the grid bounds by New.
func DefaultObstacles() []Cell {
	wall := make([]Cell, 0, 5)
	for y := 5; y < 10; y++ {
		wall = append(wall, Cell{X: 15, Y: y})
	}
	return wall
}

// Width returns the grid width in cells.
func (g *Grid) Width() int { return g.width }

// Height returns the grid height in cells.
func (g *Grid) Height() int { return g.height }

// InBounds reports whether (x, y) lies inside the grid.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.width && y >= 0 && y < g.height
}

// Passable reports whether (x, y) is inside the grid and not an obstacle.
func (g *Grid) Passable(x, y int) bool {
	return g.InBounds(x, y) && !g.obstacles[Cell{X: x, Y: y}]
}

// FreeCellCount returns the number of passable cells.
func (g *Grid) FreeCellCount() int {
	return g.width*g.height - len(g.obstacles)
}

// RandomFreeCell returns a uniformly chosen passable cell.
//
// Precondition: rng must be non-nil.
// Postcondition: Returns (cell, true) with a passable cell, or (zero, false)
// if the grid has no passable cells.
func (g *Grid) RandomFreeCell(rng *rand.Rand) (Cell, bool) {
	free := g.FreeCellCount()
	if free == 0 {
		return Cell{}, false
	}

	// Rejection sampling is uniform over passable cells; the obstacle set is
	// sparse so this terminates quickly in practice. The scan below is the
	// deterministic fallback for pathological layouts.
	for attempt := 0; attempt < 64; attempt++ {
		c := Cell{X: rng.IntN(g.width), Y: rng.IntN(g.height)}
		if !g.obstacles[c] {
			return c, true
		}
	}

	target := rng.IntN(free)
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			c := Cell{X: x, Y: y}
			if g.obstacles[c] {
				continue
			}
			if target == 0 {
				return c, true
			}
			target--
		}
	}
	return Cell{}, false
}

// SpawnPosition returns the deterministic spawn cell for a player id:
// one of the four map corners for ids 1 through 4, the origin otherwise.
//
// Precondition: playerID must be >= 1.
func (g *Grid) SpawnPosition(playerID int) Cell {
	switch playerID {
	case 1:
		return Cell{X: 0, Y: 2}
	case 2:
		return Cell{X: g.width - 1, Y: 2}
	case 3:
		return Cell{X: 0, Y: g.height - 1}
	case 4:
		return Cell{X: g.width - 1, Y: g.height - 1}
	default:
		return Cell{X: 0, Y: 0}
	}
}

// Step returns the cell one move from (x, y) in the given direction:
// "up", "down", "left", or "right". Unknown directions return the input
// cell unchanged.
func Step(x, y int, direction string) (int, int) {
	switch direction {
	case "up":
		return x, y - 1
	case "down":
		return x, y + 1
	case "left":
		return x - 1, y
	case "right":
		return x + 1, y
	default:
		return x, y
	}
}
