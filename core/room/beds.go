package room

// ResolveBed picks a bed number in [1, capacity] that is not in use.
//
// It returns the smallest unused bed number. If a preferred bed number is
// supplied it is honored only when it is in range and currently free;
// otherwise resolution falls back to smallest-unused. ErrRoomFull is returned
// when every bed number is taken.
func ResolveBed(capacity int, used []int, preferred ...int) (int, error) {
	taken := make(map[int]bool, len(used))
	for _, b := range used {
		taken[b] = true
	}

	if len(preferred) > 0 {
		if p := preferred[0]; 1 <= p && p <= capacity && !taken[p] {
			return p, nil
		}
	}

	for bed := 1; bed <= capacity; bed++ {
		if !taken[bed] {
			return bed, nil
		}
	}
	return 0, ErrRoomFull
}
