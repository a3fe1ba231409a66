package models

// BusinessResult одна найденная компания из внешнего поиска.
// Website может быть пустым: в этом случае лид синтезируется
// только из данных поиска, без обхода сайта.
type BusinessResult struct {
	Name       string   `json:"name"`
	Address    string   `json:"address"`
	Phone      string   `json:"phone"`
	Website    string   `json:"website"`
	Rating     *float64 `json:"rating,omitempty"` // от 1 до 5
	PlaceID    string   `json:"place_id"`
	SearchTerm string   `json:"search_term"`
	Country    string   `json:"country"`
}
