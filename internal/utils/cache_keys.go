package utils

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// BuildDestinationsListCacheKey keys on the filter exactly as the repo gets
// it; normalizing belongs to destination.ListQuery.Filter. A nil category and
// a set one can never collide.
func BuildDestinationsListCacheKey(limit, offset int, category *string) string {
	c := "*"
	if category != nil {
		c = "=" + strconv.Quote(*category)
	}

	return "destinations:list:v2:limit=" + strconv.Itoa(limit) +
		":offset=" + strconv.Itoa(offset) +
		":category" + c
}

func BuildDestinationsSearchCacheKey(q string) string {
	return "destinations:search:v1:q=" + strings.ToLower(q)
}

func BuildDestinationCacheKey(id string) string {
	return "destinations:get:v1:id=" + id
}

func IsUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
