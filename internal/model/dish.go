package model

import "time"

// Dish は料理を表す。ProvinceCode/RegionCodeはソフト参照であり、
// 空文字列のまま保存することが許される（非正規化データ）。
// 非空で指定された場合のみguardパッケージが実在検証を行う。
type Dish struct {
	ID           string
	Name         string
	Slug         string
	ProvinceCode string
	RegionCode   string
	Category     string
	PriceRange   string
	BestTime     string
	BestSeason   string
	Tags         []string
	SpicyLevel   int
	SatietyLevel int
	ImageURL     string
	Images       []string
	Description  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
