package reddit

import "subsight/pkg/types"

// Reddit wraps every payload in a kind/data envelope. The wire structs below
// decode only the fields the assistant uses; everything else falls back to
// zero values (0 for counters, "" for text), which is the documented default
// for optional fields.

type aboutResponse struct {
	Data subredditData `json:"data"`
}

type subredditData struct {
	Name              string  `json:"name"`
	DisplayName       string  `json:"display_name"`
	Subscribers       int     `json:"subscribers"`
	ActiveUserCount   int     `json:"active_user_count"`
	Description       string  `json:"description"`
	CreatedUTC        float64 `json:"created_utc"`
	PublicDescription string  `json:"public_description"`
}

func (d subredditData) toInfo() types.SubredditInfo {
	return types.SubredditInfo{
		Name:              d.Name,
		DisplayName:       d.DisplayName,
		Subscribers:       d.Subscribers,
		ActiveUserCount:   d.ActiveUserCount,
		Description:       d.Description,
		CreatedUTC:        d.CreatedUTC,
		PublicDescription: d.PublicDescription,
	}
}

type listingResponse struct {
	Data struct {
		Children []struct {
			Kind string    `json:"kind"`
			Data childData `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// childData is the union of the post (t3) and comment (t1) fields we read.
// Which accessor applies depends on the listing being decoded.
type childData struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	SelfText    string  `json:"selftext"`
	Body        string  `json:"body"`
	Author      string  `json:"author"`
	CreatedUTC  float64 `json:"created_utc"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	URL         string  `json:"url"`
	Permalink   string  `json:"permalink"`
	Subreddit   string  `json:"subreddit"`
	IsSelf      bool    `json:"is_self"`
	Domain      string  `json:"domain"`
	UpvoteRatio float64 `json:"upvote_ratio"`
	ParentID    string  `json:"parent_id"`
}

func (d childData) toPost() types.Post {
	return types.Post{
		ID:          d.ID,
		Title:       d.Title,
		SelfText:    d.SelfText,
		Author:      d.Author,
		CreatedUTC:  d.CreatedUTC,
		Score:       d.Score,
		NumComments: d.NumComments,
		URL:         d.URL,
		Permalink:   d.Permalink,
		Subreddit:   d.Subreddit,
		IsSelf:      d.IsSelf,
		Domain:      d.Domain,
		UpvoteRatio: d.UpvoteRatio,
	}
}

func (d childData) toComment() types.Comment {
	return types.Comment{
		ID:         d.ID,
		Body:       d.Body,
		Author:     d.Author,
		CreatedUTC: d.CreatedUTC,
		Score:      d.Score,
		ParentID:   d.ParentID,
		Permalink:  d.Permalink,
	}
}
