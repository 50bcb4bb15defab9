package app

import (
	"math"
	"time"
)

// SpeedBand awards Bonus to guesses faster than Below. Bands are ordered by Below ascending.
type SpeedBand struct {
	Below time.Duration
	Bonus int
}

// SpeedMultiplier scales rating gains for guesses faster than Below.
type SpeedMultiplier struct {
	Below  time.Duration
	Factor float64
}

// QualityBand awards Bonus to a leader whose explanations reach MinWords.
// Bands are ordered by MinWords ascending; the last reached band wins.
type QualityBand struct {
	MinWords int
	Bonus    int
}

// Scoring holds the game-balance numbers behind experience, levels and rating.
type Scoring struct {
	GuessBase                 int
	GuessMinimum              int
	SpeedBands                []SpeedBand
	FirstWithCompetitorsBonus int
	FirstAloneBonus           int

	LeaderBase         int
	LeaderNotWon       int
	QualityBands       []QualityBand
	TimeoutExperience  int
	TimeoutRatingLoss  int
	RatingFloor        int
	KFactor            float64
	SpeedMultipliers   []SpeedMultiplier
	SlowMultiplier     float64
	CompetitionStep    float64
	CompetitionCap     float64
	NoCompetitionBonus int
	MinRatingGain      int

	// FastAverage* drive the anti-abuse experience penalty.
	FastAverageBelow   time.Duration
	FastAverageMinWins int
	FastAverageDivisor int

	LevelScale float64
}

// DefaultScoring returns the tuned defaults. They are replaceable balance knobs.
func DefaultScoring() Scoring {
	return Scoring{
		GuessBase:    50,
		GuessMinimum: 10,
		SpeedBands: []SpeedBand{
			{Below: 10 * time.Second, Bonus: 100},
			{Below: 20 * time.Second, Bonus: 50},
			{Below: 30 * time.Second, Bonus: 30},
			{Below: 60 * time.Second, Bonus: 10},
		},
		FirstWithCompetitorsBonus: 50,
		FirstAloneBonus:           20,

		LeaderBase:   25,
		LeaderNotWon: 0,
		QualityBands: []QualityBand{
			{MinWords: 5, Bonus: 10},
			{MinWords: 10, Bonus: 20},
			{MinWords: 20, Bonus: 35},
			{MinWords: 40, Bonus: 50},
		},
		TimeoutExperience: 5,
		TimeoutRatingLoss: 5,
		RatingFloor:       0,

		KFactor: 32,
		SpeedMultipliers: []SpeedMultiplier{
			{Below: 15 * time.Second, Factor: 1.5},
			{Below: 30 * time.Second, Factor: 1.2},
			{Below: 60 * time.Second, Factor: 1.0},
		},
		SlowMultiplier:     0.8,
		CompetitionStep:    0.1,
		CompetitionCap:     1.5,
		NoCompetitionBonus: 5,
		MinRatingGain:      1,

		FastAverageBelow:   15 * time.Second,
		FastAverageMinWins: 5,
		FastAverageDivisor: 3,

		LevelScale: 100,
	}
}

// GuessExperience is the experience for a correct guess after elapsed time.
// position is 1-based; competitors counts the other players who attempted this round.
func (s Scoring) GuessExperience(elapsed time.Duration, position, competitors int) int {
	exp := s.GuessBase + s.speedBonus(elapsed)
	if position == 1 {
		if competitors > 0 {
			exp += s.FirstWithCompetitorsBonus
		} else {
			exp += s.FirstAloneBonus
		}
	}
	if exp < s.GuessMinimum {
		return s.GuessMinimum
	}
	return exp
}

func (s Scoring) speedBonus(elapsed time.Duration) int {
	for _, band := range s.SpeedBands {
		if elapsed < band.Below {
			return band.Bonus
		}
	}
	return 0
}

// LeaderExperience rewards the leader; explanationWords is the word count of all explanations.
func (s Scoring) LeaderExperience(won bool, explanationWords int) int {
	if !won {
		return s.LeaderNotWon
	}
	bonus := 0
	for _, band := range s.QualityBands {
		if explanationWords >= band.MinWords {
			bonus = band.Bonus
		}
	}
	return s.LeaderBase + bonus
}

// RatingDelta is the winner's rating gain against the mean rating of the other competitors.
// It never drops below MinRatingGain.
func (s Scoring) RatingDelta(winnerRating int, competitorRatings []int, elapsed time.Duration) int {
	if len(competitorRatings) == 0 {
		return s.NoCompetitionBonus
	}
	sum := 0
	for _, r := range competitorRatings {
		sum += r
	}
	mean := float64(sum) / float64(len(competitorRatings))
	expected := 1 / (1 + math.Pow(10, (mean-float64(winnerRating))/400))

	competition := 1 + s.CompetitionStep*float64(len(competitorRatings)-1)
	if competition > s.CompetitionCap {
		competition = s.CompetitionCap
	}
	delta := int(s.KFactor * (1 - expected) * competition * s.speedMultiplier(elapsed))
	if delta < s.MinRatingGain {
		return s.MinRatingGain
	}
	return delta
}

func (s Scoring) speedMultiplier(elapsed time.Duration) float64 {
	for _, m := range s.SpeedMultipliers {
		if elapsed < m.Below {
			return m.Factor
		}
	}
	return s.SlowMultiplier
}

// TimeoutRating applies the timeout penalty to a leader's rating, clamped at RatingFloor.
func (s Scoring) TimeoutRating(rating int) int {
	rating -= s.TimeoutRatingLoss
	if rating < s.RatingFloor {
		return s.RatingFloor
	}
	return rating
}

// AbusePenalty is the experience removed from a winner whose average guess time is
// suspiciously fast over enough wins.
func (s Scoring) AbusePenalty(gained, wins int, average time.Duration) int {
	if s.FastAverageDivisor <= 0 || wins <= s.FastAverageMinWins {
		return 0
	}
	if average <= 0 || average >= s.FastAverageBelow {
		return 0
	}
	return gained / s.FastAverageDivisor
}

// LevelFromExperience: level 1 at 0, level 2 at 1*scale, level 5 at 16*scale.
func (s Scoring) LevelFromExperience(exp int) int {
	if exp <= 0 || s.LevelScale <= 0 {
		return 1
	}
	return int(math.Sqrt(float64(exp)/s.LevelScale)) + 1
}

// ExperienceForNextLevel is the size of the progress bar shown for level.
func (s Scoring) ExperienceForNextLevel(level int) int {
	return int(float64(level*level) * s.LevelScale)
}

// Progress returns how far exp is into its level and the bar size for that level.
func (s Scoring) Progress(exp int) (level, into, toNext int) {
	level = s.LevelFromExperience(exp)
	base := int(float64((level-1)*(level-1)) * s.LevelScale)
	return level, exp - base, s.ExperienceForNextLevel(level)
}

var levelTitles = []struct {
	level int
	title string
}{
	{1, "Novice"},
	{5, "Marksman"},
	{10, "Fighter"},
	{20, "Monarch"},
	{35, "Blaze"},
	{50, "Star"},
	{75, "Diamond"},
	{100, "Champion"},
}

// LevelTitle names the tier a level belongs to.
func LevelTitle(level int) string {
	title := levelTitles[0].title
	for _, t := range levelTitles {
		if level < t.level {
			break
		}
		title = t.title
	}
	return title
}
