package sonar

import "fmt"

// BeamsForPingMode maps an acquisition ping mode to its beam count.
//
//	ping mode   beams
//	1-2         48
//	3-5         96
//	6-8         64
//	9-12        128
//
// Any other mode returns ErrUnsupportedPingMode.
func BeamsForPingMode(pingMode uint32) (int, error) {
	switch pingMode {
	case 1, 2:
		return 48, nil
	case 3, 4, 5:
		return 96, nil
	case 6, 7, 8:
		return 64, nil
	case 9, 10, 11, 12:
		return 128, nil
	}
	return 0, fmt.Errorf("%w: %d", ErrUnsupportedPingMode, pingMode)
}
