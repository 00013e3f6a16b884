package utils

func Max(x int, y int) int {
	if x > y {
		return x
	}
	return y
}
