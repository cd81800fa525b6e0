package ballistics

import (
	"github.com/chewxy/math32"

	"github.com/foxis/turretd/pkg/turret/geom"
)

// ScoringParams bundles the camera geometry needed to score candidate
// targets: horizontal field of view and maximum depth range.
type ScoringParams struct {
	HFOV     float32 // radians
	MaxDepth float32 // metres
}

// score implements the weighted sum from the target-selection formula:
// centered is better, closer is better, approaching is better.
func score(u geom.TrackedUser, aim Solution, p ScoringParams) float32 {
	centered := -2*math32.Abs(aim.Aim.Yaw)/(p.HFOV/2) + 1
	closeness := -2*(u.CoM.GroundRange/p.MaxDepth) + 1
	approach := -1 * (u.CoMRate.GroundRange / 7.0)
	return centered + closeness + approach
}

// ChooseTarget scores every reachable user and returns the highest-scoring
// one together with its aim solution. Unreachable users are skipped. Ties
// go to whichever user was seen first. If users is empty or nobody is
// reachable, it returns a zero-valued user and false.
func ChooseTarget(users []geom.TrackedUser, constants Constants, p ScoringParams) (geom.TrackedUser, Solution, bool) {
	var (
		best      geom.TrackedUser
		bestAim   Solution
		bestScore float32
		found     bool
	)
	for _, u := range users {
		aim := CalculateAim(u, constants)
		if !aim.Reachable {
			continue
		}
		s := score(u, aim, p)
		if !found || s > bestScore {
			best, bestAim, bestScore, found = u, aim, s, true
		}
	}
	return best, bestAim, found
}
