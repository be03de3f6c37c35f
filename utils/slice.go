package utils

import "strings"

// UniqueStrings removes duplicates and blank entries, keeping first-seen order.
func UniqueStrings(slice []string) []string {
	keys := make(map[string]bool)
	list := []string{}
	for _, entry := range slice {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if _, value := keys[entry]; !value {
			keys[entry] = true
			list = append(list, entry)
		}
	}
	return list
}

// RemoveString returns slice without any occurrence of s.
func RemoveString(slice []string, s string) []string {
	list := []string{}
	for _, entry := range slice {
		if entry != s {
			list = append(list, entry)
		}
	}
	return list
}

// ContainsString reports whether s is in slice.
func ContainsString(slice []string, s string) bool {
	for _, entry := range slice {
		if entry == s {
			return true
		}
	}
	return false
}
