package pipeline

import (
	"fmt"
	"sort"

	"github.com/chazu/bimzone/pkg/model"
	"github.com/samber/lo"
)

// AssignStoreys labels rooms Level_1, Level_2, ... by floor height. A room
// joins the current level when its lowest point is within tol of the
// level's first floor; levels are numbered from the bottom up.
func AssignStoreys(rooms []*model.Room, tol float64) {
	if len(rooms) == 0 {
		return
	}
	floors := lo.Map(rooms, func(r *model.Room, _ int) float64 { return r.MinZ() })
	order := make([]int, len(rooms))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return floors[order[a]] < floors[order[b]] })

	level, base := 0, 0.0
	for k, i := range order {
		if k == 0 || floors[i]-base > tol {
			level++
			base = floors[i]
		}
		rooms[i].Story = fmt.Sprintf("Level_%d", level)
	}
}
