package entity

// PageLink describes one page request against a listing endpoint.
// A PageLink is never mutated after it is sent; continuation uses the link
// returned in PageData.NextPageLink.
type PageLink struct {
	Limit      int    `json:"limit"`
	TextSearch string `json:"textSearch,omitempty"`

	// IDOffset is the id of the last entity of the previous page.
	IDOffset string `json:"idOffset,omitempty"`

	StartTime int64 `json:"startTime,omitempty"`
	EndTime   int64 `json:"endTime,omitempty"`
}

// PageData is one page of listing results.
type PageData struct {
	Data         []Entity  `json:"data"`
	NextPageLink *PageLink `json:"nextPageLink,omitempty"`
	HasNext      bool      `json:"hasNext"`
}

// Next returns the link for the following page. When the server reports
// HasNext without a link, a link continuing after the last entity of this
// page is derived from prev.
func (p PageData) Next(prev PageLink) (PageLink, bool) {
	if !p.HasNext {
		return PageLink{}, false
	}
	if p.NextPageLink != nil {
		return *p.NextPageLink, true
	}
	if len(p.Data) == 0 {
		return PageLink{}, false
	}
	next := prev
	next.IDOffset = p.Data[len(p.Data)-1].ID.ID
	return next, true
}
