// Package google mirrors logged activities to a Google Sheets spreadsheet
// that supervisors review.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"horas/internal/sheets"

	"golang.org/x/oauth2"
	googleauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// Ensure interface conformance
var _ sheets.ActivityWriter = (*Client)(nil)

// Options carries spreadsheet coordinates plus one of two credential paths:
// an OAuth client+token pair (see cmd/oauth-init) or service account JSON.
type Options struct {
	SpreadsheetID string
	SheetName     string

	OAuthClientJSON string
	OAuthClientFile string
	OAuthTokenJSON  string
	OAuthTokenFile  string

	ServiceAccountJSON string
	ServiceAccountFile string
}

// New creates a Sheets client from explicit options.
func New(ctx context.Context, opts Options) (*Client, error) {
	if opts.SpreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheetName := opts.SheetName
	if sheetName == "" {
		sheetName = "Actividades"
	}

	svc, err := newSheetsService(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: opts.SpreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID. Credentials come from the OAuth pair
// (GOOGLE_OAUTH_CLIENT_JSON/FILE plus GOOGLE_OAUTH_TOKEN_JSON/FILE) or from
// GOOGLE_SERVICE_ACCOUNT_JSON/FILE.
func NewFromEnv(ctx context.Context) (*Client, error) {
	return New(ctx, Options{
		SpreadsheetID:      strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID")),
		SheetName:          strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME")),
		OAuthClientJSON:    strings.TrimSpace(os.Getenv("GOOGLE_OAUTH_CLIENT_JSON")),
		OAuthClientFile:    strings.TrimSpace(os.Getenv("GOOGLE_OAUTH_CLIENT_FILE")),
		OAuthTokenJSON:     strings.TrimSpace(os.Getenv("GOOGLE_OAUTH_TOKEN_JSON")),
		OAuthTokenFile:     strings.TrimSpace(os.Getenv("GOOGLE_OAUTH_TOKEN_FILE")),
		ServiceAccountJSON: strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")),
		ServiceAccountFile: strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE")),
	})
}

func newSheetsService(ctx context.Context, opts Options) (*gsheet.Service, error) {
	clientJSON, err := readCredential(opts.OAuthClientJSON, opts.OAuthClientFile)
	if err != nil {
		return nil, fmt.Errorf("oauth client credentials: %w", err)
	}
	if clientJSON != nil {
		tokenJSON, err := readCredential(opts.OAuthTokenJSON, opts.OAuthTokenFile)
		if err != nil {
			return nil, fmt.Errorf("oauth token: %w", err)
		}
		if tokenJSON == nil {
			return nil, errors.New("oauth client configured but token missing (run oauth-init)")
		}

		cfg, err := googleauth.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("parse oauth config: %w", err)
		}
		var token oauth2.Token
		if err := json.Unmarshal(tokenJSON, &token); err != nil {
			return nil, fmt.Errorf("parse oauth token: %w", err)
		}
		return gsheet.NewService(ctx, goption.WithHTTPClient(cfg.Client(ctx, &token)))
	}

	saJSON, err := readCredential(opts.ServiceAccountJSON, opts.ServiceAccountFile)
	if err != nil {
		return nil, fmt.Errorf("service account credentials: %w", err)
	}
	if saJSON == nil {
		return nil, errors.New("no credentials configured")
	}
	return gsheet.NewService(ctx,
		goption.WithCredentialsJSON(saJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

// readCredential prefers inline JSON over a file path; both empty is not an
// error, the caller falls through to the next credential source.
func readCredential(inline, file string) ([]byte, error) {
	if inline != "" {
		return []byte(inline), nil
	}
	if file != "" {
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		return b, nil
	}
	return nil, nil
}

// Append writes one row at the bottom of the activity sheet and returns the
// updated range as a reference.
func (c *Client) Append(ctx context.Context, row sheets.ActivityRow) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:G", c.sheetName)
	vr := &gsheet.ValueRange{Values: [][]any{{
		row.Date, row.UserName, row.ProjectName, row.PackageName,
		row.Name, row.Description, row.Hours,
	}}}

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
	}

	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		return resp.Updates.UpdatedRange, nil
	}
	return rng, nil
}
