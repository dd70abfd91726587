package notify

import "time"

// seedRecords returns the example history shown on first run.
func seedRecords(now time.Time) []Record {
	at := func(d time.Duration) time.Time { return now.Add(-d) }

	records := []Record{
		{
			Type:      TypePriceAlert,
			Title:     "Price Alert: Michael Jordan Rookie",
			Message:   "1986 Fleer #57 PSA 9 is up 15% in the last 24 hours",
			Timestamp: at(5 * time.Minute),
			Urgent:    true,
			Action:    "view_card",
			Data:      map[string]any{"card_id": "mj-1986-fleer-57", "change": 15.0},
		},
		{
			Type:      TypeGrading,
			Title:     "Grading Complete",
			Message:   "Your 2018 Prizm Luka Doncic came back a PSA 10",
			Timestamp: at(time.Hour),
			Action:    "view_grading",
			Data:      map[string]any{"card_id": "luka-2018-prizm-280", "grade": 10.0},
		},
		{
			Type:      TypeMarket,
			Title:     "Weekly Market Summary",
			Message:   "Basketball cards are up 12% this week",
			Timestamp: at(3 * time.Hour),
			Read:      true,
			Action:    "view_market",
			Data:      map[string]any{"category": "basketball", "change": 12.0},
		},
		{
			Type:      TypeAchievement,
			Title:     "Achievement Unlocked",
			Message:   "Collector: you added 25 cards to your portfolio",
			Timestamp: at(24 * time.Hour),
			Read:      true,
			Action:    "view_achievements",
			Data:      map[string]any{"achievement": "collector_25"},
		},
		{
			Type:      TypeRecommendation,
			Title:     "Oracle Recommendation",
			Message:   "Your 2020 Prizm Justin Herbert is a strong grading candidate",
			Timestamp: at(7 * 24 * time.Hour),
			Urgent:    true,
			Action:    "view_card",
			Data:      map[string]any{"card_id": "herbert-2020-prizm-325"},
		},
	}

	for i := range records {
		records[i].ID = records[i].Timestamp.UnixMilli()
	}

	return records
}
