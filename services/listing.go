package services

import (
	"wccleanup/repositories"
	"wccleanup/utils"
)

// ListInput drives every Select2 listing.
type ListInput struct {
	Search      string
	Page        int
	IncludeData bool
	Filter      FilterInput
	Limit       int
}

// SelectPage is the document Select2 expects, plus the unpaginated total.
type SelectPage[T any] struct {
	Results    []T                    `json:"results"`
	Pagination utils.SelectPagination `json:"pagination"`
	TotalCount int64                  `json:"total_count"`
}

type SelectOption struct {
	ID   uint64 `json:"id"`
	Text string `json:"text"`
}

func pageWindow(page, size int) repositories.Page {
	page = normalizePage(page)
	return repositories.Page{Offset: (page - 1) * size, Limit: size}
}

func newSelectPage[T any](items []T, page, size int, total int64) SelectPage[T] {
	if items == nil {
		items = []T{}
	}
	page = normalizePage(page)
	return SelectPage[T]{
		Results:    items,
		Pagination: utils.NewSelectPagination(page, size, total),
		TotalCount: total,
	}
}

// adminSuffix marks administrator rows in option text.
func adminSuffix(isAdmin bool, name string) string {
	if !isAdmin {
		return ""
	}
	return " [Admin: " + name + "]"
}
