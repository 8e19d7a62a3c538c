package backend

import "math/rand"

// spawnOriginDestinationWeight draws one passenger's origin, destination
// and weight: roughly half of all trips start at the ground floor, trips
// starting elsewhere are overwhelmingly headed to the ground floor, and
// weight is uniform in [55, 100]. It is a pure function of rng and
// floorCount so tests can assert on the distribution by seeding rng.
func spawnOriginDestinationWeight(rng *rand.Rand, floorCount int) (origin, destination, weight int) {
	if rng.Float64() < 0.5 {
		origin = 0
	} else {
		origin = rng.Intn(floorCount)
	}

	if origin == 0 {
		destination = 1 + rng.Intn(floorCount-1)
	} else if rng.Intn(11) == 0 {
		destination = (origin + 1 + rng.Intn(floorCount-1)) % floorCount
	} else {
		destination = 0
	}

	weight = 55 + rng.Intn(100-55+1)
	return origin, destination, weight
}
