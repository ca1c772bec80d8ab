package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"priceharvester/internal/models"
)

var (
	digitRun = regexp.MustCompile(`\d+`)
	// thousands groups such as "1 245" or "1 245"
	groupedThousands = regexp.MustCompile(`(\d)[ \x{00a0}\x{202f}](\d{3})(\D|$)`)
)

// ErrEmptySummary is returned for a blank pagination summary
var ErrEmptySummary = errors.New("pagination summary is empty")

// ParsePagination reads a "shown A-B of N" style summary in any language.
// Only the numbers matter: the last one is the total item count, a preceding
// A-B range gives the page size as B-A+1 and a single preceding number is
// taken as the page size directly.
func ParsePagination(text string) (models.PaginationInfo, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.PaginationInfo{}, ErrEmptySummary
	}

	for groupedThousands.MatchString(text) {
		text = groupedThousands.ReplaceAllString(text, "$1$2$3")
	}

	runs := digitRun.FindAllString(text, -1)
	if len(runs) < 2 {
		return models.PaginationInfo{}, fmt.Errorf("expected at least two numbers in %q", text)
	}

	nums := make([]int, len(runs))
	for i, r := range runs {
		n, err := strconv.Atoi(r)
		if err != nil {
			return models.PaginationInfo{}, fmt.Errorf("invalid number %q: %w", r, err)
		}
		nums[i] = n
	}

	total := nums[len(nums)-1]
	perPage := nums[len(nums)-2]
	if len(nums) >= 3 {
		from, to := nums[len(nums)-3], nums[len(nums)-2]
		if to >= from {
			perPage = to - from + 1
		}
	}
	if perPage <= 0 {
		return models.PaginationInfo{}, fmt.Errorf("items per page must be positive in %q", text)
	}

	return models.PaginationInfo{
		TotalItems:   total,
		ItemsPerPage: perPage,
		TotalPages:   PageCount(total, perPage),
	}, nil
}

// PageCount is ceil(total/perPage) without the overflow of total+perPage-1
func PageCount(total, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 0
	}
	pages := total / perPage
	if total%perPage != 0 {
		pages++
	}
	return pages
}
