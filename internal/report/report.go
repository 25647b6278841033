package report

// Overview is the dashboard headline card set.
type Overview struct {
	TotalBooks   int     `json:"total_books"`
	TotalMembers int     `json:"total_members"`
	NewBooks     int     `json:"new_books"`
	NewMembers   int     `json:"new_members"`
	ActiveLoans  int     `json:"active_loans"`
	LoanIncrease float64 `json:"loan_increase"`
}

// MonthlyCount is one bar of the loans/returns chart.
type MonthlyCount struct {
	Name    string `json:"name"`
	Loans   int    `json:"loans"`
	Returns int    `json:"returns"`
}
