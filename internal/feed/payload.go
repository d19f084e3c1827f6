package feed

type FeedResponse struct {
	Posts  []FeedEntry `json:"posts"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}
