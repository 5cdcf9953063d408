package utils

import (
	"strconv"
	"strings"
)

const TagsListCacheKey = "tags:list:v1"

func BuildPopularPostsCacheKey(limit int, tag *string) string {
	t := ""
	if tag != nil {
		t = strings.ToLower(strings.TrimSpace(*tag))
	}

	return "posts:popular:v1:limit=" + strconv.Itoa(limit) + ":tag=" + t
}
