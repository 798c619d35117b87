package constants

import "time"

const (
	AppName = "association-portal"

	// The association's books run on the property's local clock.
	BusinessTimezone = "America/New_York"

	// Nightly delinquency sweep, after the day's payment postings settle.
	DelinquencySweepCronSpec = "0 2 * * *"
	DelinquencySweepTimeout  = 10 * time.Minute

	// Monthly maintenance assessment posting, first of the month.
	MonthlyAssessmentCronSpec = "30 1 1 * *"
	MonthlyAssessmentTimeout  = 10 * time.Minute
)
