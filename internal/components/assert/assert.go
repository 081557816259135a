package assert

import "fmt"

func NotNil(value any) {
	if value == nil {
		panic("expected value to be not nil")
	}
}

func NotEmptyStr(str string) {
	if str == "" {
		panic("expected string to be non-empty")
	}
}

// Index panics if i is not a valid index into a collection of length n.
func Index(i, n int) {
	if i < 0 || i >= n {
		panic(fmt.Sprintf("index %d out of range [0, %d)", i, n))
	}
}
