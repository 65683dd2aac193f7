package utility

import (
	"fmt"
	"math/rand/v2"
)

// RandomColorHex returns a #rrggbb color with each component in [4, 251].
func RandomColorHex() string {
	c := func() int { return 4 + rand.IntN(248) }
	return fmt.Sprintf("#%02x%02x%02x", c(), c(), c())
}
