package benchmark

// Static domain-average tables. Values are typical season-level averages
// per competition tier; aliases are lowercase fragments matched against
// observed column names.
var catalogs = map[string][]metricDef{
	"baseball": {
		{
			key:     "batting_average",
			aliases: []string{"batting avg", "batting_average", "avg", "ba"},
			averages: map[Level]float64{
				LevelProfessional: 0.248,
				LevelCollegiate:   0.275,
				LevelAmateur:      0.260,
			},
			higherIsBetter: true,
		},
		{
			key:     "on_base_percentage",
			aliases: []string{"obp", "on base", "on_base"},
			averages: map[Level]float64{
				LevelProfessional: 0.317,
				LevelCollegiate:   0.360,
				LevelAmateur:      0.340,
			},
			higherIsBetter: true,
		},
		{
			key:     "slugging_percentage",
			aliases: []string{"slg", "slugging"},
			averages: map[Level]float64{
				LevelProfessional: 0.411,
				LevelCollegiate:   0.420,
				LevelAmateur:      0.380,
			},
			higherIsBetter: true,
		},
		{
			key:     "earned_run_average",
			aliases: []string{"era", "earned run"},
			averages: map[Level]float64{
				LevelProfessional: 4.08,
				LevelCollegiate:   5.20,
				LevelAmateur:      4.50,
			},
			higherIsBetter: false,
		},
		{
			key:     "strikeouts",
			aliases: []string{"strikeout", "so", "k_total"},
			averages: map[Level]float64{
				LevelProfessional: 140,
				LevelCollegiate:   60,
				LevelAmateur:      45,
			},
			higherIsBetter: true,
		},
		{
			key:     "errors",
			aliases: []string{"error", "fielding error"},
			averages: map[Level]float64{
				LevelProfessional: 8,
				LevelCollegiate:   12,
				LevelAmateur:      15,
			},
			higherIsBetter: false,
		},
	},
	"basketball": {
		{
			key:     "points_per_game",
			aliases: []string{"ppg", "points per game", "pts"},
			averages: map[Level]float64{
				LevelProfessional: 11.5,
				LevelCollegiate:   9.8,
				LevelAmateur:      8.5,
			},
			higherIsBetter: true,
		},
		{
			key:     "field_goal_percentage",
			aliases: []string{"fg%", "field goal", "fg_pct"},
			averages: map[Level]float64{
				LevelProfessional: 0.466,
				LevelCollegiate:   0.441,
				LevelAmateur:      0.420,
			},
			higherIsBetter: true,
		},
		{
			key:     "three_point_percentage",
			aliases: []string{"3p%", "three point", "3pt"},
			averages: map[Level]float64{
				LevelProfessional: 0.361,
				LevelCollegiate:   0.340,
				LevelAmateur:      0.310,
			},
			higherIsBetter: true,
		},
		{
			key:     "rebounds_per_game",
			aliases: []string{"rpg", "rebound"},
			averages: map[Level]float64{
				LevelProfessional: 4.4,
				LevelCollegiate:   3.8,
				LevelAmateur:      3.5,
			},
			higherIsBetter: true,
		},
		{
			key:     "assists_per_game",
			aliases: []string{"apg", "assist"},
			averages: map[Level]float64{
				LevelProfessional: 2.7,
				LevelCollegiate:   2.3,
				LevelAmateur:      2.0,
			},
			higherIsBetter: true,
		},
		{
			key:     "turnovers_per_game",
			aliases: []string{"turnover", "tov"},
			averages: map[Level]float64{
				LevelProfessional: 1.9,
				LevelCollegiate:   2.2,
				LevelAmateur:      2.5,
			},
			higherIsBetter: false,
		},
	},
	"soccer": {
		{
			key:     "goals",
			aliases: []string{"goal", "goals scored"},
			averages: map[Level]float64{
				LevelProfessional: 6,
				LevelCollegiate:   4,
				LevelAmateur:      3,
			},
			higherIsBetter: true,
		},
		{
			key:     "assists",
			aliases: []string{"assist"},
			averages: map[Level]float64{
				LevelProfessional: 4,
				LevelCollegiate:   3,
				LevelAmateur:      2,
			},
			higherIsBetter: true,
		},
		{
			key:     "pass_accuracy",
			aliases: []string{"pass accuracy", "pass%", "passing"},
			averages: map[Level]float64{
				LevelProfessional: 0.82,
				LevelCollegiate:   0.75,
				LevelAmateur:      0.68,
			},
			higherIsBetter: true,
		},
		{
			key:     "shots_on_target",
			aliases: []string{"shots on target", "sot", "shot accuracy"},
			averages: map[Level]float64{
				LevelProfessional: 0.45,
				LevelCollegiate:   0.40,
				LevelAmateur:      0.35,
			},
			higherIsBetter: true,
		},
		{
			key:     "fouls_per_game",
			aliases: []string{"foul"},
			averages: map[Level]float64{
				LevelProfessional: 1.2,
				LevelCollegiate:   1.5,
				LevelAmateur:      1.8,
			},
			higherIsBetter: false,
		},
	},
}
