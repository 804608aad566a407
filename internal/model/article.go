package model

// Article is a maximal contiguous run of instances sharing one url.
//
// Articles are derived from the instance order rather than stored, so two
// separated runs of the same url are two articles.
type Article struct {
	// URL is the article identifier shared by all its instances.
	URL string

	// Start is the position of the article's first instance.
	Start int

	// InstanceIDs lists the ids of the article's instances in order.
	InstanceIDs []int
}

// End returns the position just past the article's last instance.
func (a Article) End() int {
	return a.Start + len(a.InstanceIDs)
}

// Contains reports whether position falls inside the article.
func (a Article) Contains(position int) bool {
	return position >= a.Start && position < a.End()
}

// Articles groups the dataset's instances into articles in sequence order.
func (d *Dataset) Articles() []Article {
	var articles []Article
	for pos, inst := range d.Instances {
		if n := len(articles); n > 0 && articles[n-1].URL == inst.URL {
			articles[n-1].InstanceIDs = append(articles[n-1].InstanceIDs, inst.ID)
			continue
		}
		articles = append(articles, Article{
			URL:         inst.URL,
			Start:       pos,
			InstanceIDs: []int{inst.ID},
		})
	}
	return articles
}
