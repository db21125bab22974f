// Package roster manages team member ingestion: validation, the single
// validate-or-fallback-to-UTC timezone policy, and loading roster documents
// from disk or HTTP.
package roster

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"github.com/codeGROOVE-dev/teamTZ/pkg/tzproject"
	"github.com/codeGROOVE-dev/teamTZ/pkg/workhours"
)

// Member is one roster entry. ID, Name and Role are presentation metadata;
// scoring reads only Timezone and Hours.
type Member struct {
	ID       string           `json:"id,omitempty"`
	Name     string           `json:"name"`
	Role     string           `json:"role,omitempty"`
	Timezone string           `json:"timezone"`
	Hours    workhours.Window `json:"workingHours"`
}

// Validate fails fast on malformed working hours or a blank timezone.
// Timezone resolvability is Sanitize's concern, not Validate's.
func (m Member) Validate() error {
	if m.Timezone == "" {
		return fmt.Errorf("member %q: missing timezone", m.Name)
	}
	if err := m.Hours.Validate(); err != nil {
		return fmt.Errorf("member %q: %w", m.Name, err)
	}
	return nil
}

// Anchor is the reference timezone and window projected onto every member.
type Anchor struct {
	Timezone string           `json:"timezone"`
	Hours    workhours.Window `json:"workingHours"`
}

// Validate fails fast on malformed anchor fields.
func (a Anchor) Validate() error {
	if a.Timezone == "" {
		return fmt.Errorf("anchor: missing timezone")
	}
	if err := a.Hours.Validate(); err != nil {
		return fmt.Errorf("anchor: %w", err)
	}
	return nil
}

// File is the roster document shape accepted from disk or HTTP.
type File struct {
	Anchor  *Anchor  `json:"anchor,omitempty"`
	Members []Member `json:"members"`
}

// Sanitize applies the validate-or-fallback-to-UTC policy exactly once, at
// ingestion. Members whose timezone the projector cannot resolve are kept
// with their timezone replaced by "UTC"; the returned slice lists the
// replaced identifiers. The input is never mutated.
func Sanitize(p tzproject.Projector, members []Member) (clean []Member, replaced []string) {
	clean = make([]Member, 0, len(members))
	for _, m := range members {
		if !p.IsSupported(m.Timezone) {
			replaced = append(replaced, m.Timezone)
			m.Timezone = "UTC"
		}
		clean = append(clean, m)
	}
	return clean, replaced
}

// Load reads and validates a roster document from disk.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading roster: %w", err)
	}
	return parse(data)
}

// Fetch retrieves a roster document over HTTP with exponential backoff.
func Fetch(ctx context.Context, url string, logger *slog.Logger) (*File, error) {
	var data []byte
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Accept", "application/json")

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			defer func() {
				if err := resp.Body.Close(); err != nil {
					logger.Debug("closing roster response body", "error", err)
				}
			}()

			if resp.StatusCode != http.StatusOK {
				err := fmt.Errorf("fetching roster: status %d from %s", resp.StatusCode, url)
				if resp.StatusCode >= 400 && resp.StatusCode < 500 {
					return retry.Unrecoverable(err)
				}
				return err
			}

			data, err = io.ReadAll(io.LimitReader(resp.Body, 1<<20))
			return err
		},
		retry.Attempts(5),
		retry.Delay(time.Second),
		retry.MaxDelay(30*time.Second),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.OnRetry(func(n uint, err error) {
			logger.Info("retrying roster fetch", "url", url, "attempt", n+1, "error", err)
		}),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return parse(data)
}

func parse(data []byte) (*File, error) {
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing roster: %w", err)
	}
	for _, m := range f.Members {
		if err := m.Validate(); err != nil {
			return nil, err
		}
	}
	if f.Anchor != nil {
		if err := f.Anchor.Validate(); err != nil {
			return nil, err
		}
	}
	return &f, nil
}
