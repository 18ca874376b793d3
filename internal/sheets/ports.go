package sheets

import "context"

// ActivityRow is one denormalized line of the supervisor spreadsheet mirror.
type ActivityRow struct {
	Date        string
	UserName    string
	ProjectName string
	PackageName string
	Name        string
	Description string
	Hours       float64
}

// Ports for outbound adapters.
type (
	ActivityWriter interface {
		Append(ctx context.Context, row ActivityRow) (rowRef string, err error)
	}
)
