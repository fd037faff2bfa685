package rating

// RewardFor maps a 1-based placement to the points awarded for it.
// Placements outside the podium earn nothing.
func RewardFor(placement int) int {
	switch placement {
	case 1:
		return 40
	case 2:
		return 15
	case 3:
		return 5
	default:
		return 0
	}
}
