package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/maxviazov/cve-catalog-service/pkg/pagination"
)

func validatePageRequest(page, limit int, allowed []int) []FieldError {
	var ferrs []FieldError
	if page < 1 {
		ferrs = append(ferrs, FieldError{Field: "page", Message: "must be >= 1"})
	}
	if !pagination.IsAllowedSize(limit, allowed) {
		ferrs = append(ferrs, FieldError{Field: "limit", Message: fmt.Sprintf("must be one of %s", joinInts(allowed))})
	}
	return ferrs
}

func joinInts(vals []int) string {
	parts := make([]string, 0, len(vals))
	for _, v := range vals {
		parts = append(parts, strconv.Itoa(v))
	}
	return strings.Join(parts, ", ")
}
