package repositories

// DateRange bounds are inclusive "YYYY-MM-DD HH:MM:SS" timestamps.
type DateRange struct {
	From string
	To   string
}

// ListFilter narrows an entity listing. Zero values mean "no restriction".
type ListFilter struct {
	Statuses []string
	Dates    *DateRange
	Search   string
}

type Page struct {
	Offset int
	Limit  int
}

func (p Page) limit() uint {
	if p.Limit <= 0 {
		return 20
	}
	return uint(p.Limit)
}

func (p Page) offset() uint {
	if p.Offset < 0 {
		return 0
	}
	return uint(p.Offset)
}
