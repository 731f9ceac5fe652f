// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedInspect is returned when inspect output is not a JSON array.
var ErrMalformedInspect = errors.New("malformed inspect output")

type (
	// InspectRecord is one container's inspection document, kept verbatim.
	InspectRecord = json.RawMessage

	// InspectSummary is the subset of an inspection record the deploy code reads.
	InspectSummary struct {
		ID     string
		Name   string
		Labels map[string]string
	}

	// inspectDoc mirrors the fields shared by Podman and Docker inspect output.
	inspectDoc struct {
		ID     string `json:"Id"`
		Name   string `json:"Name"`
		Config struct {
			Labels map[string]string `json:"Labels"`
		} `json:"Config"`
	}
)

// ParseIDs splits "container ls -q" output into IDs.
func ParseIDs(stdout string) []string {
	return strings.Fields(stdout)
}

// ParseInspect decodes inspect output into verbatim records.
func ParseInspect(stdout string) ([]InspectRecord, error) {
	var records []InspectRecord
	if err := json.Unmarshal([]byte(stdout), &records); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedInspect, err)
	}
	if records == nil {
		records = []InspectRecord{}
	}
	return records, nil
}

// Summarize decodes the identity and labels of each record.
// Docker reports names with a leading slash; it is stripped.
func Summarize(records []InspectRecord) ([]InspectSummary, error) {
	summaries := make([]InspectSummary, 0, len(records))
	for _, raw := range records {
		var doc inspectDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedInspect, err)
		}
		summaries = append(summaries, InspectSummary{
			ID:     doc.ID,
			Name:   strings.TrimPrefix(doc.Name, "/"),
			Labels: doc.Config.Labels,
		})
	}
	return summaries, nil
}

// LabelFilters renders label filters for ListOptions in key order.
func LabelFilters(labels map[string]string) []string {
	filters := make([]string, 0, len(labels))
	for _, k := range sortedKeys(labels) {
		filters = append(filters, "label="+k+"="+labels[k])
	}
	return filters
}

// FindByLabels lists every container (running or not) carrying all labels
// and returns their summaries.
func FindByLabels(ctx context.Context, engine Inspector, labels map[string]string) ([]InspectSummary, error) {
	listed, err := engine.ListContainers(ctx, ListOptions{All: true, Filters: LabelFilters(labels)})
	if err != nil {
		return nil, err
	}
	if !listed.Succeeded() {
		return nil, fmt.Errorf("list containers: exit status %d: %s", listed.ExitCode, strings.TrimSpace(listed.Stderr))
	}

	ids := ParseIDs(listed.Stdout)
	if len(ids) == 0 {
		return nil, nil
	}

	inspected, err := engine.Inspect(ctx, ids...)
	if err != nil {
		return nil, err
	}
	if !inspected.Succeeded() {
		return nil, fmt.Errorf("inspect containers: exit status %d: %s", inspected.ExitCode, strings.TrimSpace(inspected.Stderr))
	}

	records, err := ParseInspect(inspected.Stdout)
	if err != nil {
		return nil, err
	}
	return Summarize(records)
}
