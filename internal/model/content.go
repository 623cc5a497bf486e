package model

// SiteContent is an editable block of website copy, keyed by section+key.
type SiteContent struct {
	ID        int64  `db:"id" json:"id"`
	Section   string `db:"section" json:"section"`
	Key       string `db:"key" json:"key"`
	Title     string `db:"title" json:"title"`
	Content   string `db:"content" json:"content"`
	Price     string `db:"price" json:"price"`
	SortOrder int    `db:"sort_order" json:"sort_order"`
}

type ServiceArea struct {
	ID        int64  `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	SortOrder int    `db:"sort_order" json:"sort_order"`
}

type HomepageSection struct {
	ID         int64  `db:"id" json:"id"`
	SectionKey string `db:"section_key" json:"section_key"`
	Title      string `db:"title" json:"title"`
	Enabled    bool   `db:"enabled" json:"enabled"`
	SortOrder  int    `db:"sort_order" json:"sort_order"`
}

type UpdateContentRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Price   string `json:"price"`
}
