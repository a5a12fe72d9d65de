package utils

import (
	"github.com/google/uuid"
)

func GetNewUUID() string {
	return uuid.New().String()
}

// ReverseStringArray reverses in place and returns the same slice.
func ReverseStringArray(array []string) []string {
	for i, j := 0, len(array)-1; i < j; i, j = i+1, j-1 {
		array[i], array[j] = array[j], array[i]
	}
	return array
}
