package domain

// LeaderboardEntry is one row of the vote leaderboard.
type LeaderboardEntry struct {
	WorkID string `json:"work_id"`
	Votes  int64  `json:"votes"`
}

// VoteStats holds administrative voting totals. The numbers come from a
// read-only key scan and are eventually consistent.
type VoteStats struct {
	TotalWorksVoted int   `json:"total_works_voted"`
	TotalVotes      int64 `json:"total_votes"`
	TotalUsers      int   `json:"total_users"`
}
