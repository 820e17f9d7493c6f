package domain

import "fmt"

// Season is a meteorological season of the northern hemisphere.
type Season string

const (
	Winter Season = "Winter"
	Spring Season = "Spring"
	Summer Season = "Summer"
	Fall   Season = "Fall"
)

// Seasons lists all seasons in calendar order starting with Winter.
var Seasons = []Season{Winter, Spring, Summer, Fall}

// SeasonForMonth maps a month (1-12) to its season:
// 12,1,2 Winter; 3,4,5 Spring; 6,7,8 Summer; 9,10,11 Fall.
func SeasonForMonth(month int) (Season, error) {
	if month < 1 || month > 12 {
		return "", fmt.Errorf("month out of range: %d", month)
	}
	return Seasons[month%12/3], nil
}

// ParseSeason returns the season with the given name.
func ParseSeason(s string) (Season, bool) {
	for _, season := range Seasons {
		if string(season) == s {
			return season, true
		}
	}
	return "", false
}
