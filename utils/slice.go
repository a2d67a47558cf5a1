package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// UniqueUint removes duplicate values from a slice of uints, keeping first occurrence order.
func UniqueUint(slice []uint) []uint {
	keys := make(map[uint]bool)
	list := []uint{}
	for _, entry := range slice {
		if _, value := keys[entry]; !value {
			keys[entry] = true
			list = append(list, entry)
		}
	}
	return list
}

// ParseUintList converts form values to ids, skipping blanks. Any non-numeric value is an error.
func ParseUintList(values []string) ([]uint, error) {
	ids := make([]uint, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil || n == 0 {
			return nil, fmt.Errorf("invalid record id %q", v)
		}
		ids = append(ids, uint(n))
	}
	return UniqueUint(ids), nil
}
