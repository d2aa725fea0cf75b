package model

import "time"

// Province は省（地域に属する行政単位）を表す。
// codeは作成後に変更不可の主キー。RegionCodeは既存のRegionを参照しなければならない。
type Province struct {
	Code        string
	Name        string
	RegionCode  string
	Slug        string
	CenterLat   float64
	CenterLng   float64
	Description string
	// ImageURL は代表画像。ImageURLs[0]と常に同期される。
	ImageURL  string
	ImageURLs []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SyncPrimaryImage はImageURLとImageURLs[0]の同期規約を適用する。
// ImageURLが設定されていればImageURLs[0]に昇格させ、
// ImageURLが空でImageURLsが非空なら先頭要素をImageURLに採用する。
func (p *Province) SyncPrimaryImage() {
	if p.ImageURL != "" {
		if len(p.ImageURLs) == 0 {
			p.ImageURLs = []string{p.ImageURL}
		} else if p.ImageURLs[0] != p.ImageURL {
			p.ImageURLs = append([]string{p.ImageURL}, removeURL(p.ImageURLs, p.ImageURL)...)
		}
		return
	}
	if len(p.ImageURLs) > 0 {
		p.ImageURL = p.ImageURLs[0]
	}
}

// removeURL はスライスから指定URLを除いたコピーを返す。
func removeURL(urls []string, target string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u != target {
			out = append(out, u)
		}
	}
	return out
}
