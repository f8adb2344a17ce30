package help

// HelpText contains patient-facing information about a wizard field.
type HelpText struct {
	Title       string
	Description string
	Details     string
}

// Texts contains help information for the wizard's timing and text fields.
// Question and category help comes from the server (rationale and patient
// explanations); these cover the locally rendered fields.
var Texts = map[string]HelpText{
	"onset_bucket": {
		Title:       "WHEN DID IT START",
		Description: "Roughly when this symptom first appeared.",
		Details: `Today - started within the last 24 hours
Yesterday - started the day before
2-7 days - started within the last week
More than a week - has been going on longer
Not sure - pick this if you can't remember`,
	},
	"trend": {
		Title:       "HOW IS IT CHANGING",
		Description: "Whether this symptom is getting better or worse.",
		Details: `Worse - it has been getting worse
Same - unchanged since it started
Better - it has been improving
Fluctuating - it comes and goes
Not sure - pick this if you can't tell`,
	},
	"chief_complaint_text": {
		Title:       "IN YOUR OWN WORDS",
		Description: "Describe what brings you in today.",
		Details:     "Anything the previous steps didn't cover: what it feels like, what makes it better or worse, what worries you.",
	},
}
