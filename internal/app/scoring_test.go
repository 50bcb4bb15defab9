package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuessExperienceNonIncreasingInElapsed(t *testing.T) {
	s := DefaultScoring()
	for _, pos := range []struct{ position, competitors int }{{1, 0}, {1, 3}, {2, 3}} {
		prev := s.GuessExperience(0, pos.position, pos.competitors)
		for secs := 1; secs <= 300; secs++ {
			cur := s.GuessExperience(time.Duration(secs)*time.Second, pos.position, pos.competitors)
			require.LessOrEqual(t, cur, prev, "position %+v at %ds", pos, secs)
			prev = cur
		}
	}
}

func TestGuessExperiencePositionOrdering(t *testing.T) {
	s := DefaultScoring()
	for _, elapsed := range []time.Duration{time.Second, 25 * time.Second, 5 * time.Minute} {
		firstWith := s.GuessExperience(elapsed, 1, 2)
		firstAlone := s.GuessExperience(elapsed, 1, 0)
		notFirst := s.GuessExperience(elapsed, 2, 2)
		assert.Greater(t, firstWith, firstAlone)
		assert.Greater(t, firstAlone, notFirst)
	}
}

func TestGuessExperienceFloor(t *testing.T) {
	s := DefaultScoring()
	s.GuessBase = 0
	assert.Equal(t, s.GuessMinimum, s.GuessExperience(time.Hour, 3, 4))
}

func TestLeaderExperience(t *testing.T) {
	s := DefaultScoring()
	assert.Equal(t, s.LeaderNotWon, s.LeaderExperience(false, 100))
	assert.Equal(t, 25, s.LeaderExperience(true, 2))
	assert.Equal(t, 35, s.LeaderExperience(true, 5))
	assert.Equal(t, 45, s.LeaderExperience(true, 12))
	assert.Equal(t, 75, s.LeaderExperience(true, 500))
}

func TestRatingDelta(t *testing.T) {
	s := DefaultScoring()

	assert.Equal(t, s.NoCompetitionBonus, s.RatingDelta(1000, nil, time.Second))

	// even odds, fast guess: 32 * 0.5 * 1.5
	assert.Equal(t, 24, s.RatingDelta(1000, []int{1000}, 5*time.Second))
	// more competitors swing more
	assert.Greater(t, s.RatingDelta(1000, []int{1000, 1000, 1000}, 5*time.Second), 24)
	// faster guesses gain more
	assert.Greater(t, s.RatingDelta(1000, []int{1000}, 5*time.Second), s.RatingDelta(1000, []int{1000}, 2*time.Minute))
}

func TestRatingDeltaFloor(t *testing.T) {
	s := DefaultScoring()
	for _, winner := range []int{0, 1000, 3000, 10000} {
		got := s.RatingDelta(winner, []int{0, 10}, 10*time.Minute)
		assert.GreaterOrEqual(t, got, s.MinRatingGain, "winner %d", winner)
	}
}

func TestTimeoutRatingClamped(t *testing.T) {
	s := DefaultScoring()
	assert.Equal(t, 995, s.TimeoutRating(1000))
	assert.Equal(t, s.RatingFloor, s.TimeoutRating(3))
}

func TestAbusePenalty(t *testing.T) {
	s := DefaultScoring()
	assert.Zero(t, s.AbusePenalty(90, 5, 5*time.Second))
	assert.Zero(t, s.AbusePenalty(90, 10, 20*time.Second))
	assert.Equal(t, 30, s.AbusePenalty(90, 6, 5*time.Second))
}

func TestLevelCurve(t *testing.T) {
	s := DefaultScoring()
	assert.Equal(t, 1, s.LevelFromExperience(0))
	assert.Equal(t, 1, s.LevelFromExperience(99))
	assert.Equal(t, 2, s.LevelFromExperience(100))
	assert.Equal(t, 5, s.LevelFromExperience(1600))
	assert.Equal(t, 11, s.LevelFromExperience(10000))

	prev := 1
	for exp := 0; exp < 50000; exp += 37 {
		lvl := s.LevelFromExperience(exp)
		require.GreaterOrEqual(t, lvl, prev)
		prev = lvl
	}

	assert.Equal(t, 100, s.ExperienceForNextLevel(1))
	assert.Equal(t, 400, s.ExperienceForNextLevel(2))

	level, into, toNext := s.Progress(150)
	assert.Equal(t, 2, level)
	assert.Equal(t, 50, into)
	assert.Equal(t, 400, toNext)
}

func TestLevelTitle(t *testing.T) {
	assert.Equal(t, "Novice", LevelTitle(1))
	assert.Equal(t, "Novice", LevelTitle(4))
	assert.Equal(t, "Marksman", LevelTitle(5))
	assert.Equal(t, "Champion", LevelTitle(250))
}
